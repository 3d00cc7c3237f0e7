package masters

import (
	"sort"
	"strings"

	"github.com/nvi-inc/masters/sheet"
)

// Blank sentinels for a station column with no usable value.
const (
	blankStation = "  "
	blankToken   = "    "
)

// validateStationToken inspects one station cell. The first two
// characters are the station code; with a media field (master layout)
// the third must be a digit and the fourth a known media size. Both
// checks are independent and each failure is reported on the owning
// session immediately. Returns the station code and the raw token.
func validateStationToken(sched *Schedule, ses *Session, cell sheet.Cell, hdr string, opts Options) (string, string) {
	hasMedia := opts.Variant == Master
	if cell.Kind != sheet.Text || strings.TrimSpace(cell.Text) == "" {
		return blankStation, blankToken
	}
	value := cell.Text
	sta := value
	if len(sta) > 2 {
		sta = sta[:2]
	}
	if hasMedia && (len(value) < 4 || !isDigit(value[2]) || !opts.Ref.MediaSizes[string(value[3])]) {
		sched.AddError(ses, "invalid information ["+value+"] in column "+hdr, false)
	}
	if !opts.Ref.HasStation(sta) {
		sched.AddError(ses, "invalid station code ["+sta+"] in column "+hdr, false)
	}
	return sta, value
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

// FormatList groups station tokens into participating and
// non-participating clusters and renders the compact domain notation:
// tokens truncated to n characters are concatenated, the concatenation
// is split on blank runs, each cluster's n-sized chunks are sorted, and
// the clusters are joined with " -". When the very first token is
// entirely blank the output is " -" followed by the first cluster only.
// Downstream consumers pattern-match on this rendering, so the shape is
// deliberately reproduced exactly, including the blank-first case.
func FormatList(stations []string, n int) string {
	if len(stations) == 0 {
		return ""
	}
	var joined strings.Builder
	for _, sta := range stations {
		if len(sta) > n {
			sta = sta[:n]
		}
		joined.WriteString(sta)
	}
	var groups []string
	for _, grp := range strings.Fields(joined.String()) {
		groups = append(groups, sortChunks(grp, n))
	}
	if len(groups) == 0 {
		return ""
	}
	if strings.TrimSpace(stations[0]) == "" {
		return " -" + groups[0]
	}
	return strings.Join(groups, " -")
}

// sortChunks orders the n-character chunks of s alphabetically; a
// trailing fragment shorter than n is dropped.
func sortChunks(s string, n int) string {
	var chunks []string
	for i := 0; i+n <= len(s); i += n {
		chunks = append(chunks, s[i:i+n])
	}
	sort.Strings(chunks)
	return strings.Join(chunks, "")
}
