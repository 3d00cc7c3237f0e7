package masters

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/nvi-inc/masters/sheet"
)

func TestFormatDuration(t *testing.T) {
	for _, tc := range []struct {
		hours float64
		want  string
	}{
		{0.5, " 0:30"},
		{1.25, " 1:15"},
		{1, " 1:00"},
		{24, "24:00"},
		{1.9999, " 2:00"}, // rounding carries into the hour
		{0, "     "},
		{-1, "     "},
	} {
		if got := formatDuration(tc.hours); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.hours, got, tc.want)
		}
	}
}

func TestFormatTableUnmarshalYAML(t *testing.T) {
	var table FormatTable
	err := yaml.Unmarshal([]byte("NAME: \"%-8s\"\nDATE: \"20060102\"\nDUR: h:mm\n"), &table)
	if err != nil {
		t.Fatalf("Unmarshal failed: %s", err)
	}
	want := FormatTable{
		{Name: "NAME", Spec: "%-8s"},
		{Name: "DATE", Spec: "20060102"},
		{Name: "DUR", Spec: "h:mm"},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("unexpected table (-want +got):\n%s", diff)
	}
}

func TestFormatTableMerge(t *testing.T) {
	base := FormatTable{
		{Name: "NAME", Spec: "%-8s"},
		{Name: "DATE", Spec: "20060102"},
		{Name: "DUR", Spec: "h:mm"},
	}
	merged := base.Merge(FormatTable{
		{Name: "DATE", Spec: "Jan02"},
		{Name: "MK4NUM", Spec: "%4d"},
	})
	want := FormatTable{
		{Name: "NAME", Spec: "%-8s"},
		{Name: "DATE", Spec: "Jan02"},
		{Name: "DUR", Spec: "h:mm"},
		{Name: "MK4NUM", Spec: "%4d"},
	}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("unexpected merge (-want +got):\n%s", diff)
	}
	if base[1].Spec != "20060102" {
		t.Errorf("Merge mutated the receiver: %v", base)
	}
}

func TestFormatValue(t *testing.T) {
	today := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	rules := buildRules(FormatTable{
		{Name: "NAME", Spec: "%-8s"},
		{Name: "DATE", Spec: "20060102"},
		{Name: "TIME", Spec: "15:04"},
		{Name: "DUR", Spec: "h:mm"},
		{Name: "STATUS", Spec: "Jan02"},
		{Name: "PF", Spec: "%6.2f"},
		{Name: "DELAY", Spec: "%4d"},
		{Name: "DOY", Spec: "%3d"},
	})
	ruleFor := func(name string) fieldRule {
		for _, rule := range rules {
			if rule.name == name {
				return rule
			}
		}
		t.Fatalf("no rule for %s", name)
		return fieldRule{}
	}
	for _, tc := range []struct {
		desc    string
		field   string
		value   sheet.Cell
		want    string
		wantErr bool
	}{
		{desc: "verbatim text", field: "NAME", value: sheet.TextCell("IVS-R1"), want: "IVS-R1  "},
		{desc: "verbatim missing", field: "NAME", value: sheet.Cell{}, want: "        "},
		{desc: "date layout upper-cased", field: "STATUS", value: sheet.DateCell(date), want: "MAR01"},
		{desc: "date field", field: "DATE", value: sheet.DateCell(date), want: "20240301"},
		{desc: "time field", field: "TIME", value: sheet.ClockCell(time.Date(1, 1, 1, 17, 30, 0, 0, time.UTC)), want: "17:30"},
		{desc: "duration", field: "DUR", value: sheet.NumberCell(1.5), want: " 1:30"},
		{desc: "status code wider than date kept whole", field: "STATUS", value: sheet.TextCell("Wt_med"), want: "Wt_med"},
		{desc: "numeric or text number", field: "PF", value: sheet.NumberCell(1.5), want: "  1.50"},
		{desc: "numeric or text fallback", field: "PF", value: sheet.TextCell("n/a"), want: "n/a   "},
		{desc: "int column", field: "DELAY", value: sheet.NumberCell(8), want: "   8"},
		{desc: "int column blank", field: "DELAY", value: sheet.Cell{}, want: "    "},
		{desc: "plain int", field: "DOY", value: sheet.NumberCell(61), want: " 61"},
		{desc: "number where text required", field: "DATE", value: sheet.TextCell("tomorrow"), wantErr: true},
		{desc: "text where number required", field: "DOY", value: sheet.TextCell("x"), wantErr: true},
		{desc: "text where duration required", field: "DUR", value: sheet.TextCell("1h"), wantErr: true},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := formatValue(ruleFor(tc.field), tc.value, today)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("formatValue() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("formatValue() failed: %s", err)
			}
			if got != tc.want {
				t.Errorf("formatValue() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStatusPaddingTracksTodayWidth(t *testing.T) {
	rules := buildRules(FormatTable{{Name: "STATUS", Spec: "January 02"}})
	today := time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC)
	got, err := formatValue(rules[0], sheet.TextCell("Wt_med"), today)
	if err != nil {
		t.Fatalf("formatValue() failed: %s", err)
	}
	// len("SEPTEMBER 05") == 12
	if want := "Wt_med      "; got != want {
		t.Errorf("formatValue() = %q, want %q", got, want)
	}
}

func renderSession(code string, start time.Time, dur float64, master string, delay sheet.Cell) *Session {
	return &Session{
		Fields: map[string]sheet.Cell{
			"NAME": sheet.TextCell(code),
			"DATE": sheet.DateCell(time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)),
			"DUR":  sheet.NumberCell(dur),
		},
		Start:  start,
		Master: master,
		Media:  master + "1G",
		Delay:  delay,
	}
}

func TestTextRendererRender(t *testing.T) {
	spec := RenderSpec{
		Year:           2024,
		Version:        "## V2",
		Initials:       "CT",
		HeaderTemplate: "{version}\n{year} SCHEDULE {updated} {initials}\n",
		Formats: FormatTable{
			{Name: "NAME", Spec: "%-6s"},
			{Name: "DATE", Spec: "20060102"},
			{Name: "DUR", Spec: "h:mm"},
			{Name: "STATIONS", Spec: "%-9s"},
			{Name: "DELAY", Spec: "%4d"},
		},
		Updated: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	sessions := []*Session{
		renderSession("IVS-R1", time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC), 1, "McWz", sheet.NumberCell(3)),
		renderSession("VGOS-O", time.Date(2024, 2, 5, 18, 30, 0, 0, time.UTC), 24, "KkNy", sheet.Cell{}),
	}

	var buf strings.Builder
	if err := NewTextRenderer(spec).Render(&buf, sessions); err != nil {
		t.Fatalf("Render() failed: %s", err)
	}
	separator := strings.Repeat("-", len("2024 SCHEDULE January 05, 2024 CT")) + "\n"
	want := "## V2\n" +
		"2024 SCHEDULE January 05, 2024 CT\n" +
		separator +
		"|IVS-R1|20240101| 1:00|McWz     |   3|\n" +
		separator +
		"|VGOS-O|20240205|24:00|KkNy     |    |\n" +
		separator +
		"## V2\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("unexpected render (-want +got):\n%s", diff)
	}
}

func TestTextRendererUseMedia(t *testing.T) {
	spec := RenderSpec{
		HeaderTemplate: "",
		Formats:        FormatTable{{Name: "STATIONS", Spec: "%-12s"}},
		UseMedia:       true,
		Updated:        time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	var buf strings.Builder
	ses := renderSession("X", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1, "McWz", sheet.Cell{})
	if err := NewTextRenderer(spec).Render(&buf, []*Session{ses}); err != nil {
		t.Fatalf("Render() failed: %s", err)
	}
	if !strings.Contains(buf.String(), "|McWz1G      |") {
		t.Errorf("render %q missing media token column", buf.String())
	}
}

func TestTextRendererBadValue(t *testing.T) {
	spec := RenderSpec{
		Formats: FormatTable{{Name: "DATE", Spec: "20060102"}},
		Updated: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	ses := &Session{Fields: map[string]sheet.Cell{"DATE": sheet.TextCell("tomorrow")}}
	var buf strings.Builder
	if err := NewTextRenderer(spec).Render(&buf, []*Session{ses}); err == nil {
		t.Fatal("Render() succeeded, want error on non-date DATE")
	}
}
