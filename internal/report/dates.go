package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"cafe-gateway/internal/domain"
)

var (
	isoDateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDateRe  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ParseAnyDateToIso normalizes a date string to yyyy-mm-dd. Accepted inputs:
// yyyy-mm-dd, dd/mm/yyyy, a leading dd/mm/yyyy token before a time, or
// anything time.Parse can make sense of. Returns "" when unparseable.
// String comparison on the result is timezone-safe, which is why the whole
// report pipeline works on these strings rather than time.Time.
func ParseAnyDateToIso(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if isoDateRe.MatchString(s) {
		return s
	}
	if dmyDateRe.MatchString(s) {
		return flipDMY(s)
	}
	head := whitespace.Split(s, 2)[0]
	if dmyDateRe.MatchString(head) {
		return flipDMY(head)
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

func flipDMY(s string) string {
	parts := strings.Split(s, "/")
	return fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
}

// IsoToDisplay renders yyyy-mm-dd as the dd/mm/yyyy form the dashboards use.
func IsoToDisplay(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) != 3 {
		return iso
	}
	return fmt.Sprintf("%s/%s/%s", parts[2], parts[1], parts[0])
}

// DisplayToIso converts dd/mm/yyyy back to yyyy-mm-dd for sorting. Other
// inputs pass through unchanged.
func DisplayToIso(s string) string {
	if dmyDateRe.MatchString(s) {
		return flipDMY(s)
	}
	return s
}

// LogIsoDate extracts the first parseable date from a consumption log row,
// trying the candidate fields in a fixed order.
func LogIsoDate(row domain.ConsumptionLog) string {
	for _, c := range []string{row.Date, row.CreatedAt, row.UpdatedAt, row.Timestamp, row.Time, row.TimeDone, row.TimeReceive} {
		if c == "" {
			continue
		}
		if iso := ParseAnyDateToIso(c); iso != "" {
			return iso
		}
	}
	return ""
}
