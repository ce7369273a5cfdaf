package services

import (
	"time"
)

const (
	windowDateLayout = "2006-01-02"
	windowTimeLayout = "15:04"
)

// BusinessLocation resolves the business timezone used for window
// comparisons. Falls back to the fixed UTC-3 offset when the tz database is
// unavailable in the runtime image.
func BusinessLocation(name string) *time.Location {
	if name == "" {
		name = "America/Sao_Paulo"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("-03", -3*60*60)
	}
	return loc
}

// WithinWindow reports whether now falls inside the counting window built
// from the given date and time components, interpreted in loc. Returns false
// if any component is empty or unparseable. Boundaries are inclusive.
func WithinWindow(startDate, startTime, endDate, endTime string, now time.Time, loc *time.Location) bool {
	start, ok := parseWindowInstant(startDate, startTime, loc)
	if !ok {
		return false
	}
	end, ok := parseWindowInstant(endDate, endTime, loc)
	if !ok {
		return false
	}

	return !now.Before(start) && !now.After(end)
}

func parseWindowInstant(date, clock string, loc *time.Location) (time.Time, bool) {
	if date == "" || clock == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(windowDateLayout+" "+windowTimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidWindowField helpers used by schedule updates.

func validWindowDate(s string) bool {
	_, err := time.Parse(windowDateLayout, s)
	return err == nil
}

func validWindowTime(s string) bool {
	_, err := time.Parse(windowTimeLayout, s)
	return err == nil
}
