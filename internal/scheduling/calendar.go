package scheduling

import (
	"time"

	"github.com/smileworks/clinic-core/internal/schedule"
	"github.com/smileworks/clinic-core/pkg/types"
)

// workingHoursFor picks the dentist's hours spec for a date's weekday
// class. Empty when the dentist has no hours on file.
func workingHoursFor(dentist *types.User, date string) string {
	if dentist == nil || dentist.WorkingHours == nil {
		return ""
	}
	day, err := time.ParseInLocation(types.DateLayout, date, time.Local)
	if err != nil {
		return ""
	}
	switch day.Weekday() {
	case time.Sunday:
		return dentist.WorkingHours.Sunday
	case time.Saturday:
		return dentist.WorkingHours.Saturday
	default:
		return dentist.WorkingHours.Weekdays
	}
}

// candidateSlots is the booking grid for a dentist on a date. Without
// working hours on file the full clinic grid applies; with them, the
// grid is clipped to the dentist's open window.
func candidateSlots(dentist *types.User, date string) []string {
	grid := schedule.BookingSlots()

	spec := workingHoursFor(dentist, date)
	if spec == "" {
		return grid
	}
	hours, err := schedule.ParseWorkingHours(spec)
	if err != nil || hours.IsClosed() {
		if err != nil {
			return grid
		}
		return nil
	}

	out := make([]string, 0, len(grid))
	for _, slot := range grid {
		t, err := time.Parse(types.TimeLayout, slot)
		if err != nil {
			continue
		}
		if t.Hour() >= hours.Start && t.Hour() < hours.End {
			out = append(out, slot)
		}
	}
	return out
}
