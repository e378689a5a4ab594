package booking

import (
	"fmt"
	"math"
	"time"
)

// ISODate is the wire format for check-in/check-out dates.
const ISODate = "2006-01-02"

// looseFormats are the human date spellings the booking widget has been seen
// to emit, tried in order after exact formats fail.
var looseFormats = []string{"Jan 2", "January 2", "Jan 2 2006", "January 2 2006"}

// ResolveDate turns loosely formatted date text into a concrete ISO date.
// Exact dates pass through unchanged. Year-less text like "Dec 10" resolves
// to its next upcoming occurrence relative to now: the current year unless
// that day is already past, otherwise the following year. The result never
// lands in the past of now's calendar day.
func ResolveDate(text string, now time.Time) (string, error) {
	if t, err := time.Parse(ISODate, text); err == nil {
		return t.Format(ISODate), nil
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t.UTC().Format(ISODate), nil
	}
	for _, layout := range looseFormats[2:] { // spellings that carry a year
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(ISODate), nil
		}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, layout := range looseFormats[:2] {
		t, err := time.Parse(layout, text)
		if err != nil {
			continue
		}
		for year := now.Year(); year <= now.Year()+1; year++ {
			resolved := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			// time.Date normalizes overflow days (Feb 29 in a non-leap year
			// becomes Mar 1); treat that year as not having the date.
			if resolved.Month() != t.Month() || resolved.Day() != t.Day() {
				continue
			}
			if resolved.Before(today) {
				continue
			}
			return resolved.Format(ISODate), nil
		}
	}
	return "", fmt.Errorf("booking: unparseable date %q", text)
}

// NightsBetween returns the whole-day span between two ISO dates, rounding
// partial days up.
func NightsBetween(checkIn, checkOut string) (int, error) {
	in, err := time.Parse(ISODate, checkIn)
	if err != nil {
		return 0, fmt.Errorf("booking: check-in date: %w", err)
	}
	out, err := time.Parse(ISODate, checkOut)
	if err != nil {
		return 0, fmt.Errorf("booking: check-out date: %w", err)
	}
	return int(math.Ceil(out.Sub(in).Hours() / 24)), nil
}
