package timeutil

import "time"

// Layout is the ISO-8601 form used for every stored timestamp. Microsecond
// precision with an explicit offset, e.g. "2024-01-15T10:42:31.123456+00:00".
// For UTC values the rendered strings sort lexicographically in time order,
// which the metadata range queries depend on.
const Layout = "2006-01-02T15:04:05.000000-07:00"

// DateLayout is the calendar-date form accepted by the list API.
const DateLayout = "2006-01-02"

// NowISO returns the current UTC time in the stored timestamp form.
func NowISO() string {
	return time.Now().UTC().Format(Layout)
}

// StartOfDay normalizes a calendar date to 00:00:00.000000 UTC.
func StartOfDay(d time.Time) string {
	y, m, day := d.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Format(Layout)
}

// EndOfDay normalizes a calendar date to 23:59:59.999999 UTC.
func EndOfDay(d time.Time) string {
	y, m, day := d.UTC().Date()
	return time.Date(y, m, day, 23, 59, 59, 999999000, time.UTC).Format(Layout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
