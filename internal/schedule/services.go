package schedule

// serviceDurations maps service names to their duration in minutes.
// "General Checkup" is kept for rows booked before the catalog was
// trimmed to six services.
var serviceDurations = map[string]int{
	"Dental Cleaning":     60,
	"Consultation":        30,
	"Tooth Filling":       90,
	"Tooth Extraction":    45,
	"Root Canal":          120,
	"Braces Consultation": 60,
	"General Checkup":     45,
}

// DefaultServiceDuration applies to unknown services
const DefaultServiceDuration = 60

// ServiceDuration returns a service's duration in minutes
func ServiceDuration(service string) int {
	if d, ok := serviceDurations[service]; ok {
		return d
	}
	return DefaultServiceDuration
}

// AppointmentHourSpan returns how many hourly grid cells a booking for
// the service occupies.
func AppointmentHourSpan(service string) int {
	d := ServiceDuration(service)
	switch {
	case d <= 60:
		return 1
	case d <= 120:
		return 2
	default:
		return (d + 59) / 60
	}
}
