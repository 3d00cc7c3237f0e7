package main

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nvi-inc/masters/sheet"
)

func TestRebuildRow(t *testing.T) {
	line := "|IVS-R1    |20240101|r11100|  1|17:00| 1:00|KkMcWz -Ny      |NASA|WASH|Wt_med    |    |XA |"
	row, err := rebuildRow(line)
	if err != nil {
		t.Fatalf("rebuildRow() failed: %s", err)
	}
	if got := row[colName]; got.Text != "IVS-R1" {
		t.Errorf("NAME = %+v", got)
	}
	if got := row[colCode]; got.Text != "R11100" {
		t.Errorf("CODE = %+v, want upper-cased", got)
	}
	if got := row[colDate]; got.Kind != sheet.DateTime ||
		!got.Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DATE = %+v", got)
	}
	if got := row[colTime]; got.Kind != sheet.TimeOfDay || got.Time.Hour() != 17 {
		t.Errorf("TIME = %+v", got)
	}
	if got := row[colDur]; got.Kind != sheet.Number || got.Number != 1 {
		t.Errorf("DUR = %+v", got)
	}
	if got := row[colStatus]; got.Text != "Wt_med" {
		t.Errorf("STATUS = %+v", got)
	}

	// Scheduled stations fill forward; the last one has no continuation
	// dash. Removed stations fill backward from the final slot.
	var scheduled []string
	for i := 0; i < 3; i++ {
		scheduled = append(scheduled, row[colStations+i].Text)
	}
	if diff := cmp.Diff([]string{"Kk1G-", "Mc1G-", "Wz1G"}, scheduled); diff != "" {
		t.Errorf("unexpected scheduled stations (-want +got):\n%s", diff)
	}
	if got := row[colStations+numStations-1]; got.Text != "Ny1G" {
		t.Errorf("removed station = %+v, want Ny1G in the last slot", got)
	}
}

func TestRebuildRowFractionalDuration(t *testing.T) {
	line := "|x|20240101|c|  1|07:30| 1:30|Wz              |s|c|ok|    |XA |"
	row, err := rebuildRow(line)
	if err != nil {
		t.Fatalf("rebuildRow() failed: %s", err)
	}
	if got := row[colDur]; got.Number != 1.5 {
		t.Errorf("DUR = %v, want 1.5", got.Number)
	}
}

func TestRebuildRowErrors(t *testing.T) {
	for _, tc := range []struct {
		desc string
		line string
	}{
		{desc: "too few fields", line: "|a|b|c|"},
		{desc: "bad date", line: "|x|2024Jan1|c|  1|07:30| 1:00|Wz|s|c|ok|    |XA |"},
		{desc: "bad time", line: "|x|20240101|c|  1|7.30| 1:00|Wz|s|c|ok|    |XA |"},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := rebuildRow(tc.line); err == nil {
				t.Fatal("rebuildRow() succeeded, want error")
			}
		})
	}
}

func TestPairs(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []string
	}{
		{"KkMcWz", []string{"Kk", "Mc", "Wz"}},
		{"  Ny  ", []string{"Ny"}},
		{"", nil},
	} {
		if diff := cmp.Diff(tc.want, pairs(tc.in)); diff != "" {
			t.Errorf("pairs(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}
