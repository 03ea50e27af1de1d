package timeutil

import (
	"strconv"
	"time"
)

// Timestamps are stored and compared in UTC. Local time only appears when
// rendering.
var Display = time.UTC

// SetDisplayZone switches the zone used by Format. Unknown names keep UTC.
func SetDisplayZone(name string) {
	if name == "" {
		return
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return
	}
	Display = loc
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}

// Format renders t in the display zone using the given layout
func Format(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.In(Display).Format(layout)
}

// Ago renders a short relative duration such as "5 minutes ago".
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	}
	return Format(t, DateLayout)
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}

// Common layouts
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
