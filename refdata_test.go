package masters

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const formatFileSample = `## Master file format version 2.0            2022.11.01
This file describes the fields of the schedule files.

SKED CODES
    NASA    NASA Goddard
    OSO     Onsala Space Observatory
end SKED CODES

CORR CODES
    WASH    Washington
    BONN    Bonn
end CORR CODES

STATUS CODES
    Wt_med  waiting on media
    Cancel  cancelled
end STATUS CODES
`

func TestParseFormatFile(t *testing.T) {
	version, codes, err := ParseFormatFile(strings.NewReader(formatFileSample))
	if err != nil {
		t.Fatalf("ParseFormatFile() failed: %s", err)
	}
	if want := "## Master file format version 2.0            2022.11.01"; version != want {
		t.Errorf("version = %q, want %q", version, want)
	}
	want := map[string][]string{
		"SKED":   {"NASA", "OSO"},
		"CORR":   {"WASH", "BONN"},
		"STATUS": {"Wt_med", "Cancel"},
	}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Errorf("unexpected codes (-want +got):\n%s", diff)
	}
}

func TestParseFormatFileWithBOM(t *testing.T) {
	version, _, err := ParseFormatFile(strings.NewReader("\uFEFF" + formatFileSample))
	if err != nil {
		t.Fatalf("ParseFormatFile() failed: %s", err)
	}
	if !strings.HasPrefix(version, "## ") {
		t.Errorf("version = %q, BOM not stripped", version)
	}
}

func TestParseFormatFileNoVersion(t *testing.T) {
	if _, _, err := ParseFormatFile(strings.NewReader("no header here\n")); err == nil {
		t.Fatal("ParseFormatFile() succeeded, want version error")
	}
}

func TestParseStationCodes(t *testing.T) {
	const sample = `Two-letter codes currently defined:
 Wz WETTZELL
 Mc MEDICINA
 Xx -------- retired
 Kk KOKEE PK
`
	codes, err := ParseStationCodes(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ParseStationCodes() failed: %s", err)
	}
	if diff := cmp.Diff([]string{"Wz", "Mc", "Kk"}, codes); diff != "" {
		t.Errorf("unexpected codes (-want +got):\n%s", diff)
	}
}

func TestParseMediaKey(t *testing.T) {
	const sample = `The fourth character indicates the type of media:
    G = Mark6
    E = e-transfer
    N = none
`
	sizes, err := ParseMediaKey(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ParseMediaKey() failed: %s", err)
	}
	want := map[string]bool{"G": true, "E": true, "N": true}
	if diff := cmp.Diff(want, sizes); diff != "" {
		t.Errorf("unexpected sizes (-want +got):\n%s", diff)
	}
}

func TestParseMediaKeyNoMarker(t *testing.T) {
	if _, err := ParseMediaKey(strings.NewReader("nothing useful")); err == nil {
		t.Fatal("ParseMediaKey() succeeded, want marker error")
	}
}

func TestParseSessionTypes(t *testing.T) {
	const sample = `{"R1": ["R11000", "R11001"], "OHIG": ["OHIG123"]}`
	types, err := ParseSessionTypes(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("ParseSessionTypes() failed: %s", err)
	}
	want := map[string]string{
		"r11000":  "R1",
		"r11001":  "R1",
		"ohig123": "OHIG",
	}
	if diff := cmp.Diff(want, types); diff != "" {
		t.Errorf("unexpected map (-want +got):\n%s", diff)
	}
}

func TestReferenceDataLookups(t *testing.T) {
	ref := testRef()
	if !ref.HasStation("Wz") || ref.HasStation("Zz") {
		t.Error("HasStation lookup broken")
	}
	if !ref.hasCode("SKED", "NASA") || ref.hasCode("SKED", "nasa") {
		t.Error("hasCode lookup must be exact")
	}
	ref.LegacyExempt = []string{"Wz"}
	if !ref.IsLegacyExempt("Wz") || ref.IsLegacyExempt("Mc") {
		t.Error("IsLegacyExempt lookup broken")
	}
}
