package service

import (
	"strings"
	"time"
)

// Accepted auto-booking date layouts. Slash and dash forms with the day
// first follow the platform's locale.
var autoBookDateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
}

// Accepted auto-booking time layouts, matched after upper-casing the input.
var autoBookTimeLayouts = []string{
	"15:04",
	"15:04:05",
	"15H04",
	"3:04PM",
	"3:04 PM",
	"3PM",
	"3 PM",
}

// ParseAutoBookDate parses a free-text calendar date at midnight in loc.
func ParseAutoBookDate(dateText string, loc *time.Location) (time.Time, error) {
	dateText = strings.TrimSpace(dateText)
	if dateText == "" {
		return time.Time{}, parseError("date is required")
	}
	for _, layout := range autoBookDateLayouts {
		if d, err := time.ParseInLocation(layout, dateText, loc); err == nil {
			return d, nil
		}
	}
	return time.Time{}, parseError("unrecognised date %q", dateText)
}

// ParseAutoBookDateTime combines a free-text date and time into an instant
// in loc.
func ParseAutoBookDateTime(dateText, timeText string, loc *time.Location) (time.Time, error) {
	timeText = strings.ToUpper(strings.Join(strings.Fields(timeText), " "))
	if strings.TrimSpace(dateText) == "" || timeText == "" {
		return time.Time{}, parseError("date and time are required")
	}

	date, err := ParseAutoBookDate(dateText, loc)
	if err != nil {
		return time.Time{}, err
	}

	for _, layout := range autoBookTimeLayouts {
		if t, err := time.Parse(layout, timeText); err == nil {
			y, m, d := date.Date()
			return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, parseError("unrecognised time %q", timeText)
}

// normalizeName trims and collapses whitespace so lookups ignore spacing.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
