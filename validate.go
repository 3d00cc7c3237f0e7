package masters

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nvi-inc/masters/sheet"
)

// Fields whose values are checked against the reference code tables.
// STATUS has its own conditional rule below and DBC is deliberately
// free-form.
var codeCheckExempt = map[string]bool{
	"STATUS": true,
	"DBC":    true,
}

// experimentCutoffYear: sessions dated before it must resolve in the
// legacy session-type map; later files carry the field verbatim.
const experimentCutoffYear = 2024

// statusCutoffYear: master files from this year on are required to
// carry a STATUS once the session date has passed. Older files have a
// blank STATUS column throughout.
const statusCutoffYear = 1998

// validateSession applies every rule to one raw session, annotating the
// schedule report as it goes. It never aborts: all findings for the row
// are collected and the record survives so the report covers the whole
// file in one run.
func validateSession(sched *Schedule, ses *Session, stations []string, opts Options) {
	code := ses.Code()
	if sched.codes[strings.ToLower(code)] {
		sched.AddError(ses, "duplicate session name", false)
	}
	sched.codes[strings.ToLower(code)] = true

	for _, name := range sortedKeys(opts.Constraints) {
		max := opts.Constraints[name]
		if value := ses.Fields[name]; value.Kind == sheet.Text && len(value.Text) > max {
			sched.AddError(ses, fmt.Sprintf("%s %s has more than %d characters", name, value.Text, max), false)
		}
	}

	// DATE and TIME must both be well-formed before START can exist.
	date := ses.Fields["DATE"]
	dateValid := date.Kind == sheet.DateTime
	if !dateValid {
		sched.AddError(ses, "invalid DATE "+date.String(), false)
	} else if date.Time.Year() != opts.Year {
		sched.AddError(ses, "invalid DATE "+date.Time.Format("2006-01-02"), false)
	}
	clock := ses.Fields["TIME"]
	if clock.Kind != sheet.TimeOfDay {
		sched.AddError(ses, "invalid TIME "+clock.String(), false)
	}
	if dateValid && clock.Kind == sheet.TimeOfDay {
		d, t := date.Time, clock.Time
		ses.Start = time.Date(d.Year(), d.Month(), d.Day(),
			t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
		ses.Fields["DATE"] = sheet.DateCell(
			time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC))
	}

	if opts.Ref.LegacyNameLimit > 0 && len(code) > opts.Ref.LegacyNameLimit {
		var offending []string
		for _, sta := range stations {
			if strings.TrimSpace(sta) != "" && !opts.Ref.IsLegacyExempt(sta) {
				offending = append(offending, sta)
			}
		}
		if len(offending) > 0 {
			sched.AddError(ses, fmt.Sprintf("CODE too long for [%s]! Maximum is %d",
				strings.Join(offending, ","), opts.Ref.LegacyNameLimit), false)
		}
	}

	for _, field := range sortedKeys(opts.Ref.ValidCodes) {
		if codeCheckExempt[field] {
			continue
		}
		value := ses.Fields[field]
		if !opts.Ref.hasCode(field, value.Text) {
			sched.AddError(ses, fmt.Sprintf("invalid %s code %s", field, value.String()), false)
		}
	}

	if dateValid && date.Time.Year() < experimentCutoffYear {
		key := strings.ToLower(strings.TrimSpace(code))
		ses.Experiment = opts.Ref.SessionTypes[key]
		if ses.Experiment == "" {
			sched.AddError(ses, fmt.Sprintf("session %s not found in session type map", key), false)
		}
	}
	ses.Fields["CODE"] = sheet.TextCell(strings.ToLower(code))

	// DOY is always recomputed; a supplied value is ignored.
	if dateValid {
		ses.DOY = ses.Fields["DATE"].Time.YearDay()
	}

	if opts.Variant == Master && opts.Year >= statusCutoffYear {
		validateStatus(sched, ses, opts)
	}
}

func validateStatus(sched *Schedule, ses *Session, opts Options) {
	today := opts.Now.Truncate(24 * time.Hour)
	date := ses.Fields["DATE"]
	status := ses.Fields["STATUS"]
	if status.Blank() {
		if date.Kind != sheet.DateTime || date.Time.After(today) {
			return
		}
		if opts.Debug {
			// Fallback so rendering can proceed during dry runs.
			ses.Fields["STATUS"] = sheet.TextCell("Wt_med")
			return
		}
		sched.AddError(ses, "STATUS code is blank!", opts.Debug)
		return
	}
	if status.Kind != sheet.DateTime && !opts.Ref.hasCode("STATUS", status.Text) {
		sched.AddError(ses, fmt.Sprintf("STATUS code %s is not valid", status.String()), opts.Debug)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
