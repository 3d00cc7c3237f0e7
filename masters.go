// Package masters parses, validates and renders observation-schedule
// files. The input is an in-memory sheet (one header row, one row per
// scheduled session); the output is the set of validated sessions plus
// an ordered report of everything that is wrong with them.
package masters

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nvi-inc/masters/sheet"
)

// Variant selects the schedule file layout.
type Variant int

const (
	Master Variant = iota
	Intensive
)

func (v Variant) String() string {
	switch v {
	case Master:
		return "master"
	case Intensive:
		return "intensives"
	}
	return "unknown"
}

// MessageKind classifies a report entry.
type MessageKind int

const (
	Error MessageKind = iota
	Info
)

func (k MessageKind) String() string {
	switch k {
	case Error:
		return "ERROR"
	case Info:
		return "INFO"
	}
	return "UNKNOWN"
}

// Message is one entry of the run report. Error entries carry the
// session code and source row so the offending cell can be located
// without reopening the sheet.
type Message struct {
	Kind MessageKind
	Text string
}

// Session is one scheduled observation event. Fields holds every cell
// keyed by its header name, normalized in place during validation; the
// remaining members are derived.
type Session struct {
	Row        int
	Fields     map[string]sheet.Cell
	Start      time.Time
	DOY        int
	Delay      sheet.Cell // number of days, or blank for pre-2003 files
	Experiment string
	Master     string // grouped two-letter station codes
	Media      string // grouped four-character station+media tokens
}

// Code returns the session identifier as currently held in the record.
func (s *Session) Code() string {
	return s.Fields["CODE"].Text
}

// Options configures a ParseSchedule run.
type Options struct {
	Variant     Variant
	Year        int
	Ref         *ReferenceData
	Constraints map[string]int // field name -> maximum length
	Debug       bool
	// Now is the reference instant for delay computation and the
	// today-or-earlier STATUS rule. Zero means time.Now().UTC().
	Now time.Time
}

// Schedule is the result of one parse run.
type Schedule struct {
	Variant   Variant
	Year      int
	Sessions  []*Session
	Fields    []string // header field names in column order
	Messages  []Message
	HasErrors bool

	debug bool
	codes map[string]bool
}

// AddError records a validation finding for a session. Downgraded
// findings keep HasErrors unchanged (debug mode).
func (sc *Schedule) AddError(ses *Session, text string, downgraded bool) {
	if !downgraded {
		sc.HasErrors = true
	}
	if sc.debug {
		text += " debug"
	}
	sc.Messages = append(sc.Messages, Message{
		Kind: Error,
		Text: fmt.Sprintf("%s (%d) %s", ses.Code(), ses.Row, text),
	})
}

// AddInfo appends informational lines to the report.
func (sc *Schedule) AddInfo(lines []string) {
	for _, line := range lines {
		sc.Messages = append(sc.Messages, Message{
			Kind: Info,
			Text: strings.ReplaceAll(line, "\n", ""),
		})
	}
}

// ParseSchedule walks the sheet and produces the validated, sorted
// session list. Validation findings accumulate in the returned
// Schedule; only structural problems (no rows, missing reference data)
// return an error.
func ParseSchedule(sh *sheet.Sheet, opts Options) (*Schedule, error) {
	if opts.Ref == nil {
		return nil, fmt.Errorf("reference data is required")
	}
	if len(sh.Rows) == 0 {
		return nil, fmt.Errorf("sheet contains no rows")
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	sched := &Schedule{
		Variant: opts.Variant,
		Year:    opts.Year,
		debug:   opts.Debug,
		codes:   map[string]bool{},
	}
	switch opts.Variant {
	case Intensive:
		readIntensive(sched, sh, opts)
	default:
		readMaster(sched, sh, opts)
	}
	sort.SliceStable(sched.Sessions, func(i, j int) bool {
		return sched.Sessions[i].Start.Before(sched.Sessions[j].Start)
	})
	return sched, nil
}

type column struct {
	index int
	name  string
}

// readHeader builds the column -> field name map from the first row.
func readHeader(row []sheet.Cell) []column {
	var cols []column
	for i, cell := range row {
		if cell.Kind == sheet.Text && strings.TrimSpace(cell.Text) != "" {
			cols = append(cols, column{index: i, name: strings.TrimSpace(cell.Text)})
		}
	}
	return cols
}

func readMaster(sched *Schedule, sh *sheet.Sheet, opts Options) {
	cols := readHeader(sh.Rows[0])
	hasDelay := false
	for _, col := range cols {
		if col.name == "DELAY" {
			hasDelay = true
		}
	}
	if !hasDelay {
		// Synthetic column beyond the real data so DELAY always has a
		// slot in the output layout.
		cols = append(cols, column{index: 1000, name: "DELAY"})
	}
	byIndex := map[int]string{}
	for _, col := range cols {
		sched.Fields = append(sched.Fields, col.name)
		byIndex[col.index] = col.name
	}

	for r := 1; r < len(sh.Rows); r++ {
		ses := &Session{Fields: map[string]sheet.Cell{}}
		var master, media []string
		for c, cell := range sh.Rows[r] {
			if cell.Kind == sheet.Empty {
				continue
			}
			if ses.Row == 0 {
				ses.Row = r + 1
			}
			name, ok := byIndex[c]
			if !ok {
				continue
			}
			ses.Fields[name] = cell
			if strings.HasPrefix(name, "Stat") {
				sta, token := validateStationToken(sched, ses, cell, name, opts)
				media = append(media, token)
				master = append(master, sta)
			}
		}
		if ses.Fields["DATE"].Blank() {
			continue
		}
		validateSession(sched, ses, master, opts)
		ses.Master = FormatList(master, 2)
		ses.Media = FormatList(media, 4)
		deriveDelay(ses, opts)
		sched.Sessions = append(sched.Sessions, ses)
	}
}

func readIntensive(sched *Schedule, sh *sheet.Sheet, opts Options) {
	cols := readHeader(sh.Rows[0])
	byIndex := map[int]string{}
	for _, col := range cols {
		byIndex[col.index] = col.name
	}

	for r := 1; r < len(sh.Rows); r++ {
		ses := &Session{Fields: map[string]sheet.Cell{}}
		var master []string
		defaultField := ""
		for c, cell := range sh.Rows[r] {
			if cell.Kind == sheet.Empty || (cell.Kind == sheet.Text && cell.Text == "|") {
				continue
			}
			if ses.Row == 0 {
				ses.Row = r + 1
			}
			name, ok := byIndex[c]
			if !ok {
				// A run of unlabeled columns inherits the last label.
				name = defaultField
			}
			if name == "STATIONS" {
				sta, _ := validateStationToken(sched, ses, cell, name, opts)
				master = append(master, sta)
				defaultField = "STATIONS"
			} else if name != "" {
				ses.Fields[name] = cell
				defaultField = ""
			}
		}
		if ses.Fields["DATE"].Blank() {
			continue
		}
		validateSession(sched, ses, master, opts)
		ses.Master = FormatList(master, 2)
		ses.Delay = sheet.NumberCell(0)
		ses.Fields["MK4NUM"] = sheet.TextCell("")
		sched.Sessions = append(sched.Sessions, ses)
	}

	// Collapse the repeating station columns into one logical field and
	// append the synthetic output-only fields.
	seen := map[string]bool{}
	sched.Fields = nil
	for _, col := range cols {
		if !seen[col.name] {
			seen[col.name] = true
			sched.Fields = append(sched.Fields, col.name)
		}
	}
	sched.Fields = append(sched.Fields, "DELAY", "MK4NUM")
}

// deriveDelay computes the number of whole days between the session end
// and either its reported completion timestamp or now. Files before
// 2003 predate the delay feature and keep the field blank.
func deriveDelay(ses *Session, opts Options) {
	if opts.Year < 2003 {
		ses.Delay = sheet.Cell{}
		return
	}
	dur := ses.Fields["DUR"]
	if ses.Start.IsZero() || dur.Kind != sheet.Number {
		// An earlier validation error already covers this record.
		ses.Delay = sheet.Cell{}
		return
	}
	end := ses.Start.UTC().Add(time.Duration(dur.Number * float64(time.Hour)))
	var days int
	if status := ses.Fields["STATUS"]; status.Kind == sheet.DateTime {
		days = wholeDays(status.Time.UTC().Sub(end))
	} else {
		days = wholeDays(opts.Now.UTC().Sub(end))
		if days > 9999 {
			days = 9999
		}
	}
	ses.Delay = sheet.NumberCell(float64(days))
}

// wholeDays floors, so a negative part-day counts as -1.
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
