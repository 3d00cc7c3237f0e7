package masters

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReferenceData holds the domain dictionaries every validation run
// needs. It is loaded once and never mutated afterwards.
type ReferenceData struct {
	// Version is the format-file version line ("## ...").
	Version string
	// ValidCodes maps a field name (SKED, CORR, SUBM, STATUS, DBC, ...)
	// to its accepted values.
	ValidCodes map[string][]string
	// StationCodes are the known two-letter station identifiers.
	StationCodes []string
	// MediaSizes are the accepted single-letter media size codes.
	MediaSizes map[string]bool
	// LegacyNameLimit is the maximum session-code length for stations
	// running the old recording system; LegacyExempt stations are
	// waived.
	LegacyNameLimit int
	LegacyExempt    []string
	// SessionTypes maps a case-folded legacy session code to its type.
	SessionTypes map[string]string
}

func (r *ReferenceData) HasStation(code string) bool {
	for _, sta := range r.StationCodes {
		if sta == code {
			return true
		}
	}
	return false
}

func (r *ReferenceData) IsLegacyExempt(code string) bool {
	for _, sta := range r.LegacyExempt {
		if sta == code {
			return true
		}
	}
	return false
}

func (r *ReferenceData) hasCode(field, value string) bool {
	for _, code := range r.ValidCodes[field] {
		if code == value {
			return true
		}
	}
	return false
}

// BOMAwareReader strips a UTF byte order mark if present. The reference
// files come from a mix of editors and platforms, some of which insist
// on writing one.
func BOMAwareReader(r io.Reader) io.Reader {
	transformer := unicode.BOMOverride(encoding.Nop.NewDecoder())
	return transform.NewReader(r, transformer)
}

var (
	versionRe     = regexp.MustCompile(`(## .*)`)
	codeSectionRe = regexp.MustCompile(`(?m)^\s*(\w+) CODES`)
	stationLineRe = regexp.MustCompile(`(?m)^ (\w\w) (.{8})`)
	mediaHeaderRe = regexp.MustCompile(`(?s)type of media(.*)`)
	mediaLetterRe = regexp.MustCompile(`(?m)^\s+([a-zA-Z]) =`)
)

// ParseFormatFile extracts the version line and the per-field code
// tables from a schedule format description file. Each table is a
// "NAME CODES" ... "end NAME CODES" section whose lines start with the
// accepted value.
func ParseFormatFile(r io.Reader) (string, map[string][]string, error) {
	content, err := io.ReadAll(BOMAwareReader(r))
	if err != nil {
		return "", nil, err
	}
	text := string(content)
	header, _, _ := strings.Cut(text, "\n")
	m := versionRe.FindStringSubmatch(header)
	if m == nil {
		return "", nil, fmt.Errorf("not a valid format file: no version header")
	}
	version := m[1]

	validCodes := map[string][]string{}
	for _, section := range codeSectionRe.FindAllStringSubmatch(text, -1) {
		field := section[1]
		if field == "end" {
			continue
		}
		if _, done := validCodes[field]; done {
			continue
		}
		bodyRe, err := regexp.Compile(`(?ms)^\s*` + field + ` CODES(.*?)^\s*end ` + field + ` CODES`)
		if err != nil {
			return "", nil, err
		}
		body := bodyRe.FindStringSubmatch(text)
		if body == nil {
			continue
		}
		var codes []string
		for _, line := range strings.Split(body[1], "\n") {
			if fields := strings.Fields(line); len(fields) > 0 {
				codes = append(codes, fields[0])
			}
		}
		validCodes[field] = codes
	}
	return version, validCodes, nil
}

// ParseStationCodes extracts the two-letter station identifiers from
// the station catalog. A name of eight dashes marks a retired code.
func ParseStationCodes(r io.Reader) ([]string, error) {
	content, err := io.ReadAll(BOMAwareReader(r))
	if err != nil {
		return nil, err
	}
	var codes []string
	for _, m := range stationLineRe.FindAllStringSubmatch(string(content), -1) {
		if m[2] != "--------" {
			codes = append(codes, m[1])
		}
	}
	return codes, nil
}

// ParseMediaKey extracts the accepted media size letters, listed one
// per line after the "type of media" marker.
func ParseMediaKey(r io.Reader) (map[string]bool, error) {
	content, err := io.ReadAll(BOMAwareReader(r))
	if err != nil {
		return nil, err
	}
	m := mediaHeaderRe.FindStringSubmatch(string(content))
	if m == nil {
		return nil, fmt.Errorf("not a valid media key file: no \"type of media\" marker")
	}
	sizes := map[string]bool{}
	for _, letter := range mediaLetterRe.FindAllStringSubmatch(m[1], -1) {
		sizes[letter[1]] = true
	}
	return sizes, nil
}

// ParseSessionTypes reads the legacy session-type map: a JSON object of
// type -> list of session codes, inverted here into a case-folded
// code -> type lookup.
func ParseSessionTypes(r io.Reader) (map[string]string, error) {
	content, err := io.ReadAll(BOMAwareReader(r))
	if err != nil {
		return nil, err
	}
	var byType map[string][]string
	if err := json.Unmarshal(content, &byType); err != nil {
		return nil, fmt.Errorf("invalid session type map: %w", err)
	}
	types := map[string]string{}
	for sesType, codes := range byType {
		for _, code := range codes {
			types[strings.ToLower(code)] = sesType
		}
	}
	return types, nil
}

// ReferencePaths names the on-disk reference files.
type ReferencePaths struct {
	Format       string
	Stations     string
	MediaKey     string
	SessionTypes string
}

// LoadReferenceData reads all reference files. Any missing or
// malformed file is fatal: validation cannot run without them.
func LoadReferenceData(paths ReferencePaths) (*ReferenceData, error) {
	ref := &ReferenceData{}
	err := withFile(paths.Format, func(f io.Reader) error {
		var err error
		ref.Version, ref.ValidCodes, err = ParseFormatFile(f)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := withFile(paths.Stations, func(f io.Reader) error {
		var err error
		ref.StationCodes, err = ParseStationCodes(f)
		return err
	}); err != nil {
		return nil, err
	}
	if err := withFile(paths.MediaKey, func(f io.Reader) error {
		var err error
		ref.MediaSizes, err = ParseMediaKey(f)
		return err
	}); err != nil {
		return nil, err
	}
	if paths.SessionTypes != "" {
		if err := withFile(paths.SessionTypes, func(f io.Reader) error {
			var err error
			ref.SessionTypes, err = ParseSessionTypes(f)
			return err
		}); err != nil {
			return nil, err
		}
	}
	return ref, nil
}

func withFile(path string, fn func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
