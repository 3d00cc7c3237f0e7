package masters

import (
	"fmt"
	"strings"
	"time"
)

// BodyFormatter assembles a schedule-request mail body. The two
// implementations share the field resolution and formatting rules of
// the text renderer; only the wrapping differs.
type BodyFormatter interface {
	BodyBegin()
	BodyText(text string)
	AntennaBegin(name string)
	Session(rec int, ses *Session) error
	AntennaEnd()
	BodyEnd()
	Text() string
}

// requestRules drops the per-station columns, keeping a single STATIONS
// field in place of the first one.
func requestRules(formats FormatTable) []fieldRule {
	kept := make(FormatTable, 0, len(formats))
	for _, f := range formats {
		if f.Name == "Stat1" {
			f.Name = "STATIONS"
		} else if strings.HasPrefix(f.Name, "Stat") {
			continue
		}
		kept = append(kept, f)
	}
	return buildRules(kept)
}

// TextBody renders the request as fixed-width text, one numbered line
// per session under each antenna heading.
type TextBody struct {
	header string
	rules  []fieldRule
	lines  []string
	today  time.Time
}

func NewTextBody(header string, formats FormatTable) *TextBody {
	return &TextBody{
		header: header,
		rules:  requestRules(formats),
		today:  time.Now().UTC(),
	}
}

func (b *TextBody) BodyBegin() {}
func (b *TextBody) BodyEnd()   {}

func (b *TextBody) BodyText(text string) {
	b.lines = append(b.lines, strings.Split(text, "\n")...)
}

func (b *TextBody) AntennaBegin(name string) {
	b.lines = append(b.lines, name, "\n", b.header)
}

func (b *TextBody) AntennaEnd() {
	b.lines = append(b.lines, "")
}

func (b *TextBody) Session(rec int, ses *Session) error {
	var line strings.Builder
	fmt.Fprintf(&line, "%3d ", rec)
	for _, rule := range b.rules {
		s, err := formatValue(rule, resolveField(ses, rule.name, false), b.today)
		if err != nil {
			return err
		}
		line.WriteString(s)
	}
	b.lines = append(b.lines, line.String())
	return nil
}

func (b *TextBody) Text() string {
	return strings.Join(b.lines, "\n")
}

// HTMLBody renders the request as an HTML table per antenna, for mail
// clients that display rich bodies.
type HTMLBody struct {
	header string
	rules  []fieldRule
	lines  []string
	today  time.Time
}

func NewHTMLBody(header string, formats FormatTable) *HTMLBody {
	return &HTMLBody{
		header: header,
		rules:  requestRules(formats),
		today:  time.Now().UTC(),
	}
}

func (b *HTMLBody) BodyBegin() {
	b.lines = append(b.lines, "<html><body>")
}

func (b *HTMLBody) BodyEnd() {
	b.lines = append(b.lines, "</body></html>")
}

func (b *HTMLBody) BodyText(text string) {
	b.lines = append(b.lines, strings.Join(append(strings.Split(text, "\n"), ""), "<br>"))
}

func (b *HTMLBody) AntennaBegin(name string) {
	b.lines = append(b.lines, fmt.Sprintf("<h3>%s</h3>", name))
	b.lines = append(b.lines, `<table style="padding-right: 10px;">`)
	line := `<thead><tr style="font-weight:bold"><td style="text-align:right"></td>`
	for _, word := range strings.Fields(b.header) {
		if word == "DUR" {
			line += `<td style="text-align:center">Dur</td>`
		} else {
			line += fmt.Sprintf("<td>%s</td>", capitalize(word))
		}
	}
	line += "</tr></thead><tbody>"
	b.lines = append(b.lines, line)
}

func (b *HTMLBody) AntennaEnd() {
	b.lines = append(b.lines, "</tbody></table><br>")
}

func (b *HTMLBody) Session(rec int, ses *Session) error {
	var line strings.Builder
	fmt.Fprintf(&line, `<tr><td style="text-align:right">%d</td>`, rec)
	for _, rule := range b.rules {
		s, err := formatValue(rule, resolveField(ses, rule.name, false), b.today)
		if err != nil {
			return err
		}
		fmt.Fprintf(&line, "<td>%s</td>", strings.TrimRight(s, " "))
	}
	line.WriteString("</tr>")
	b.lines = append(b.lines, line.String())
	return nil
}

func (b *HTMLBody) Text() string {
	return strings.Join(b.lines, "")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}

// Antenna names one station of an agency.
type Antenna struct {
	ID   string
	Name string
}

// BuildRequest fills a schedule-request body: the greeting text, then
// for each antenna the numbered sessions whose grouped station text
// involves it.
func BuildRequest(f BodyFormatter, text string, antennas []Antenna, sessions []*Session) error {
	f.BodyBegin()
	f.BodyText(text)
	for _, antenna := range antennas {
		f.AntennaBegin(antenna.Name)
		rec := 0
		for _, ses := range sessions {
			if strings.Contains(ses.Master, antenna.ID) {
				rec++
				if err := f.Session(rec, ses); err != nil {
					return err
				}
			}
		}
		f.AntennaEnd()
	}
	f.BodyEnd()
	return nil
}
