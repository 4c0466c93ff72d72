package schedule

import (
	"fmt"
	"strings"
	"time"
)

// HourRange is a half-open [Start, End) range of whole hours derived
// from a working-hours spec. Start == End means closed.
type HourRange struct {
	Start int
	End   int
}

// IsClosed reports whether the range yields no slots
func (r HourRange) IsClosed() bool {
	return r.Start >= r.End
}

// Canonical re-serializes the range in working-hours spec form.
// ParseWorkingHours applied to the result round-trips.
func (r HourRange) Canonical() string {
	if r.IsClosed() {
		return "Closed"
	}
	return fmt.Sprintf("%s - %s", formatHour12(r.Start), formatHour12(r.End))
}

func formatHour12(hour int) string {
	t := time.Date(2000, 1, 1, hour%24, 0, 0, 0, time.UTC)
	return t.Format("3:04 PM")
}

// ParseWorkingHours parses a working-hours spec of the form
// "H:MM AM/PM - H:MM AM/PM" (case-insensitive) or the literal
// "Closed". An end time with nonzero minutes rounds up to the next
// whole hour, so "8:00 AM - 6:30 PM" yields {8, 19} and a slot
// starting at 18:00 is still inside the range. "Closed" and the empty
// string yield an empty range.
func ParseWorkingHours(spec string) (HourRange, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" || strings.EqualFold(trimmed, "closed") {
		return HourRange{}, nil
	}

	parts := strings.Split(trimmed, "-")
	if len(parts) != 2 {
		return HourRange{}, fmt.Errorf("invalid working hours spec %q", spec)
	}

	start, err := parseClockTime(parts[0])
	if err != nil {
		return HourRange{}, fmt.Errorf("invalid working hours start in %q: %w", spec, err)
	}

	end, err := parseClockTime(parts[1])
	if err != nil {
		return HourRange{}, fmt.Errorf("invalid working hours end in %q: %w", spec, err)
	}

	endHour := end.Hour()
	if end.Minute() > 0 {
		endHour++
	}

	return HourRange{Start: start.Hour(), End: endHour}, nil
}

func parseClockTime(s string) (time.Time, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	for _, layout := range []string{"3:04 PM", "3 PM", "15:04"} {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized clock time %q", strings.TrimSpace(s))
}

// ScheduleSlots derives the hourly "HH:00" grid slots covered by a
// working-hours spec, for calendar display. A closed spec yields no
// slots.
func ScheduleSlots(spec string) ([]string, error) {
	r, err := ParseWorkingHours(spec)
	if err != nil {
		return nil, err
	}

	var slots []string
	for hour := r.Start; hour < r.End; hour++ {
		slots = append(slots, fmt.Sprintf("%02d:00", hour))
	}
	return slots, nil
}

// BookingSlots returns the fixed 30-minute booking grid from 08:00 to
// 17:30 inclusive, independent of any dentist's working hours.
func BookingSlots() []string {
	slots := make([]string, 0, 20)
	for minutes := 8 * 60; minutes <= 17*60+30; minutes += 30 {
		slots = append(slots, fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
	}
	return slots
}

// NormalizeToHour truncates an "HH:MM" time to its hour cell. Input
// that does not parse is returned unchanged.
func NormalizeToHour(t string) string {
	parsed, err := time.Parse("15:04", strings.TrimSpace(t))
	if err != nil {
		return t
	}
	return fmt.Sprintf("%02d:00", parsed.Hour())
}

// To24Hour normalizes a clock time to "15:04" form, accepting both
// 12-hour ("3:04 PM") and 24-hour input. The second return reports
// whether the input parsed.
func To24Hour(t string) (string, bool) {
	parsed, err := parseClockTime(t)
	if err != nil {
		return "", false
	}
	return parsed.Format("15:04"), true
}

// SortKey builds a lexically comparable date+time key. Times that do
// not parse fall back to the raw string so malformed rows still sort
// deterministically.
func SortKey(date, clock string) string {
	if normalized, ok := To24Hour(clock); ok {
		return date + " " + normalized
	}
	return date + " " + clock
}
