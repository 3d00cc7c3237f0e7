package masters

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvi-inc/masters/sheet"
)

// FieldFormat pairs an output field with its human-authored format
// token: a printf spec for plain values ("%-8s", "%4d", "%6.2f"), a
// time layout for date-bearing fields, or "h:mm" for the duration.
type FieldFormat struct {
	Name string
	Spec string
}

// FormatTable is an ordered field -> format mapping. Order is the
// output column order, so a plain map will not do.
type FormatTable []FieldFormat

// UnmarshalYAML decodes a YAML mapping while preserving key order.
func (t *FormatTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("format table must be a mapping")
	}
	*t = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		*t = append(*t, FieldFormat{
			Name: node.Content[i].Value,
			Spec: node.Content[i+1].Value,
		})
	}
	return nil
}

// Merge returns a copy of t with overrides applied: an override for an
// existing field replaces it in place, a new field is appended.
func (t FormatTable) Merge(overrides FormatTable) FormatTable {
	merged := make(FormatTable, len(t))
	copy(merged, t)
	for _, o := range overrides {
		replaced := false
		for i := range merged {
			if merged[i].Name == o.Name {
				merged[i] = o
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, o)
		}
	}
	return merged
}

type ruleKind int

const (
	ruleVerbatim ruleKind = iota
	ruleDateTime
	ruleDuration
	ruleStatusOrDate
	ruleNumericOrText
	ruleIntOrBlank
)

// fieldRule is one resolved output column: the field to read and how to
// format it. The per-field special cases of the historical format are
// decided here, once, instead of being re-dispatched per value.
type fieldRule struct {
	name   string
	kind   ruleKind
	spec   string // printf spec
	layout string // time layout, upper-cased after formatting
	width  int
}

var specWidthRe = regexp.MustCompile(`\d+`)

// specWidth extracts the nominal column width from a printf spec:
// the first run of digits ("%6.2f" -> 6, "%-8s" -> 8).
func specWidth(spec string) int {
	m := specWidthRe.FindString(spec)
	if m == "" {
		return 0
	}
	var w int
	fmt.Sscanf(m, "%d", &w)
	return w
}

// buildRules resolves a merged format table into per-column rules.
func buildRules(formats FormatTable) []fieldRule {
	rules := make([]fieldRule, 0, len(formats))
	for _, f := range formats {
		rule := fieldRule{name: f.Name, spec: f.Spec, width: specWidth(f.Spec)}
		switch f.Name {
		case "DATE", "TIME":
			rule.kind = ruleDateTime
			rule.layout = f.Spec
		case "DUR":
			if f.Spec == "h:mm" {
				rule.kind = ruleDuration
			}
		case "STATUS":
			rule.kind = ruleStatusOrDate
			rule.layout = f.Spec
		case "PF", "MK4NUM":
			rule.kind = ruleNumericOrText
		case "DELAY":
			rule.kind = ruleIntOrBlank
		}
		rules = append(rules, rule)
	}
	return rules
}

// formatValue renders one cell under its column rule. A mismatch the
// rule cannot reconcile is a configuration defect and aborts the
// render.
func formatValue(rule fieldRule, value sheet.Cell, today time.Time) (string, error) {
	switch rule.kind {
	case ruleDateTime:
		if value.Kind != sheet.DateTime && value.Kind != sheet.TimeOfDay {
			return "", fmt.Errorf("field %s: cannot format %s value as a date", rule.name, value.Kind)
		}
		return strings.ToUpper(value.Time.Format(rule.layout)), nil
	case ruleDuration:
		if value.Kind != sheet.Number {
			return "", fmt.Errorf("field %s: cannot format %s value as a duration", rule.name, value.Kind)
		}
		return formatDuration(value.Number), nil
	case ruleStatusOrDate:
		if value.Kind == sheet.DateTime {
			return strings.ToUpper(value.Time.Format(rule.layout)), nil
		}
		// Pad codes to the width of a rendered date so the column is
		// stable whichever the cell holds.
		width := len(strings.ToUpper(today.Format(rule.layout)))
		return fmt.Sprintf("%-*s", width, missingToSpace(value)), nil
	case ruleNumericOrText:
		if value.Kind == sheet.Number {
			return formatNumber(rule.spec, value.Number)
		}
		return fmt.Sprintf("%-*s", rule.width, missingToSpace(value)), nil
	case ruleIntOrBlank:
		if value.Kind == sheet.Number {
			return formatNumber(rule.spec, value.Number)
		}
		return fmt.Sprintf("%-*s", rule.width, missingToSpace(value)), nil
	}
	return formatVerbatim(rule, value)
}

func missingToSpace(value sheet.Cell) string {
	if value.Kind == sheet.Empty {
		return " "
	}
	return value.Text
}

func formatVerbatim(rule fieldRule, value sheet.Cell) (string, error) {
	if rule.spec == "" {
		return "", fmt.Errorf("field %s: empty format spec", rule.name)
	}
	switch rule.spec[len(rule.spec)-1] {
	case 's':
		switch value.Kind {
		case sheet.Text, sheet.Empty:
			return fmt.Sprintf(rule.spec, missingToSpace(value)), nil
		}
		return "", fmt.Errorf("field %s: cannot format %s value with %q", rule.name, value.Kind, rule.spec)
	case 'd', 'f':
		if value.Kind != sheet.Number {
			return "", fmt.Errorf("field %s: cannot format %s value with %q", rule.name, value.Kind, rule.spec)
		}
		return formatNumber(rule.spec, value.Number)
	}
	return "", fmt.Errorf("field %s: unsupported format spec %q", rule.name, rule.spec)
}

func formatNumber(spec string, v float64) (string, error) {
	switch spec[len(spec)-1] {
	case 'd':
		return fmt.Sprintf(spec, int64(v)), nil
	case 'f':
		return fmt.Sprintf(spec, v), nil
	}
	return "", fmt.Errorf("cannot format number with %q", spec)
}

// formatDuration renders fractional hours as " H:MM"; zero or negative
// durations render as five blanks.
func formatDuration(hours float64) string {
	if hours <= 0 {
		return "     "
	}
	h := int(hours)
	m := int((hours-float64(h))*60 + 0.5)
	if m == 60 {
		h, m = h+1, 0
	}
	return fmt.Sprintf("%2d:%02d", h, m)
}

// RenderSpec configures a plain text render of a schedule.
type RenderSpec struct {
	Year     int
	Version  string
	Initials string
	// HeaderTemplate carries {version}, {year}, {updated} and
	// {initials} placeholders.
	HeaderTemplate string
	Formats        FormatTable
	// UseMedia selects the four-character grouped tokens for the
	// STATIONS column instead of the two-letter codes.
	UseMedia bool
	// Updated stamps the header; zero means now.
	Updated time.Time
}

// TextRenderer writes the fixed-width pipe-delimited schedule file:
// a templated header, one line per session with a dash separator on
// every month change, and a footer closing with the format version.
type TextRenderer struct {
	header    string
	separator string
	footer    string
	rules     []fieldRule
	useMedia  bool
	today     time.Time
}

// NewTextRenderer resolves the format table and builds the header,
// separator and footer blocks.
func NewTextRenderer(spec RenderSpec) *TextRenderer {
	updated := spec.Updated
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	header := strings.NewReplacer(
		"{version}", spec.Version,
		"{year}", fmt.Sprintf("%d", spec.Year),
		"{updated}", updated.Format("January 02, 2006"),
		"{initials}", spec.Initials,
	).Replace(spec.HeaderTemplate)
	longest := 0
	for _, line := range strings.Split(header, "\n") {
		if len(line) > longest {
			longest = len(line)
		}
	}
	separator := strings.Repeat("-", longest) + "\n"
	return &TextRenderer{
		header:    header,
		separator: separator,
		footer:    separator + spec.Version + "\n",
		rules:     buildRules(spec.Formats),
		useMedia:  spec.UseMedia,
		today:     updated,
	}
}

// Render writes the full artifact for the given sessions, assumed
// already validated and sorted.
func (r *TextRenderer) Render(w io.Writer, sessions []*Session) error {
	if _, err := io.WriteString(w, r.header); err != nil {
		return err
	}
	month := ""
	for _, ses := range sessions {
		if m := ses.Start.Format("Jan"); m != month {
			month = m
			if _, err := io.WriteString(w, r.separator); err != nil {
				return err
			}
		}
		line, err := r.formatLine(ses)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, r.footer)
	return err
}

func (r *TextRenderer) formatLine(ses *Session) (string, error) {
	parts := make([]string, 0, len(r.rules))
	for _, rule := range r.rules {
		value := resolveField(ses, rule.name, r.useMedia)
		s, err := formatValue(rule, value, r.today)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return "|" + strings.Join(parts, "|") + "|\n", nil
}

// resolveField maps an output field name to the session value backing
// it, derived fields included.
func resolveField(ses *Session, name string, useMedia bool) sheet.Cell {
	switch name {
	case "STATIONS":
		if useMedia {
			return sheet.TextCell(ses.Media)
		}
		return sheet.TextCell(ses.Master)
	case "DOY":
		return sheet.NumberCell(float64(ses.DOY))
	case "DELAY":
		return ses.Delay
	case "EXPERIMENT":
		if ses.Experiment != "" {
			return sheet.TextCell(ses.Experiment)
		}
	}
	return ses.Fields[name]
}
