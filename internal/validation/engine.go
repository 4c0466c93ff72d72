package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/smileworks/clinic-core/internal/schedule"
	"github.com/smileworks/clinic-core/pkg/config"
	"github.com/smileworks/clinic-core/pkg/types"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
var phonePattern = regexp.MustCompile(`^[0-9+\-() ]{7,20}$`)

// FieldError attaches a message to the field that failed
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result accumulates every failure of one validation pass instead of
// stopping at the first, so a caller can surface all problems at once.
type Result struct {
	Errors []FieldError
}

func (r *Result) add(field, format string, args ...interface{}) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Valid reports whether the pass found no failures
func (r *Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err converts the result into a single validation error, or nil
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	details := make(map[string]interface{}, len(r.Errors))
	messages := make([]string, 0, len(r.Errors))
	for _, fe := range r.Errors {
		details[fe.Field] = fe.Message
		messages = append(messages, fe.Message)
	}
	return types.NewValidationError(types.ErrCodeValidationFailed,
		strings.Join(messages, "; "), details)
}

// Engine validates appointments, patients and credentials against the
// clinic's scheduling rules.
type Engine struct {
	cfg config.ClinicConfig
	now func() time.Time
}

// NewEngine creates a validation engine for the given clinic rules
func NewEngine(cfg config.ClinicConfig) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// NewEngineAt pins the engine's clock, for tests
func NewEngineAt(cfg config.ClinicConfig, now func() time.Time) *Engine {
	return &Engine{cfg: cfg, now: now}
}

// ValidateAppointment checks an appointment against field rules,
// business hours and the dentist's existing schedule. existing should
// hold the dentist's non-cancelled appointments for the same date; the
// appointment's own id is ignored so edits do not conflict with
// themselves.
func (e *Engine) ValidateAppointment(appt *types.Appointment, existing []*types.Appointment) *Result {
	res := &Result{}

	if strings.TrimSpace(appt.PatientName) == "" {
		res.add("patient_name", "patient name is required")
	}
	if strings.TrimSpace(appt.Service) == "" {
		res.add("service", "service is required")
	}
	if strings.TrimSpace(appt.Dentist) == "" && appt.DentistID == "" {
		res.add("dentist", "dentist is required")
	}
	if appt.Email != "" && !emailPattern.MatchString(appt.Email) {
		res.add("email", "email address is not valid")
	}

	// the checks are independent: a bad date still gets its time and
	// schedule problems reported in the same pass
	day, dateParsed := e.validateDate(res, appt.Date)
	start, timeParsed := e.validateTime(res, appt.Time)
	if dateParsed && timeParsed {
		e.validateBusinessHours(res, day, start, appt.Service)
		e.validateConflicts(res, appt, start, existing)
	}
	return res
}

// validateDate parses the date and rejects past days, Sundays and
// dates beyond the booking window. Past is judged at day granularity:
// later today is still bookable. The returned bool only says whether
// the date parsed; a past or closed day still yields a usable day for
// the schedule checks.
func (e *Engine) validateDate(res *Result, date string) (time.Time, bool) {
	day, err := time.ParseInLocation(types.DateLayout, date, time.Local)
	if err != nil {
		res.add("date", "date must be in YYYY-MM-DD format")
		return time.Time{}, false
	}

	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	if day.Before(today) {
		res.add("date", "appointments cannot be booked in the past")
	} else if e.cfg.BookingWindowDays > 0 {
		horizon := today.AddDate(0, 0, e.cfg.BookingWindowDays)
		if day.After(horizon) {
			res.add("date", "appointments cannot be booked more than %d days ahead", e.cfg.BookingWindowDays)
		}
	}
	if day.Weekday() == time.Sunday {
		res.add("date", "the clinic is closed on Sundays")
	}
	return day, true
}

// validateTime parses the clock and checks grid alignment. Returns
// start minutes since midnight; the bool only says whether the clock
// parsed, an off-grid time still feeds the schedule checks.
func (e *Engine) validateTime(res *Result, clock string) (int, bool) {
	t, err := time.Parse(types.TimeLayout, clock)
	if err != nil {
		res.add("time", "time must be in HH:MM format")
		return 0, false
	}
	start := t.Hour()*60 + t.Minute()
	if e.cfg.SlotMinutes > 0 && start%e.cfg.SlotMinutes != 0 {
		res.add("time", "time must fall on a %d-minute slot", e.cfg.SlotMinutes)
	}
	return start, true
}

// validateBusinessHours checks that the service fits entirely inside
// the open window for the appointment's weekday class.
func (e *Engine) validateBusinessHours(res *Result, day time.Time, start int, service string) {
	openMin, closeMin := e.cfg.WeekdayOpenHour*60, e.cfg.WeekdayCloseHour*60
	if day.Weekday() == time.Saturday {
		openMin, closeMin = e.cfg.SaturdayOpenHour*60, e.cfg.SaturdayCloseHour*60
	}

	if start < openMin || start >= closeMin {
		res.add("time", "time is outside business hours")
		return
	}
	if start+schedule.ServiceDuration(service) > closeMin {
		res.add("time", "the selected service does not finish before closing")
	}
}

// validateConflicts rejects overlap with any other appointment on the
// same dentist's schedule. Intervals are half-open: an appointment
// ending at 10:00 does not conflict with one starting at 10:00.
func (e *Engine) validateConflicts(res *Result, appt *types.Appointment, start int, existing []*types.Appointment) {
	end := start + schedule.ServiceDuration(appt.Service)
	for _, other := range existing {
		if other == nil || other.ID == appt.ID {
			continue
		}
		if other.Status == types.StatusCancelled || other.Date != appt.Date {
			continue
		}
		t, err := time.Parse(types.TimeLayout, other.Time)
		if err != nil {
			continue
		}
		otherStart := t.Hour()*60 + t.Minute()
		otherEnd := otherStart + schedule.ServiceDuration(other.Service)
		if start < otherEnd && otherStart < end {
			res.add("time", "the dentist already has an appointment at %s on %s", other.Time, other.Date)
			return
		}
	}
}

// ValidatePatient checks the fields of a patient profile. existing is
// the current patient list, used for the duplicate-email check;
// selfID exempts the profile being edited.
func (e *Engine) ValidatePatient(p *types.Patient, existing []*types.Patient, selfID string) *Result {
	res := &Result{}

	if len(strings.TrimSpace(p.Name)) < 2 {
		res.add("name", "name must be at least 2 characters")
	}
	if p.Email != "" {
		if !emailPattern.MatchString(p.Email) {
			res.add("email", "email address is not valid")
		} else {
			for _, other := range existing {
				if other == nil || other.ID == selfID {
					continue
				}
				if strings.EqualFold(strings.TrimSpace(other.Email), strings.TrimSpace(p.Email)) {
					res.add("email", "a patient with this email already exists")
					break
				}
			}
		}
	}
	if p.Phone != "" && !phonePattern.MatchString(p.Phone) {
		res.add("phone", "phone number contains invalid characters")
	}
	return res
}

// ValidatePassword enforces the account password policy
func (e *Engine) ValidatePassword(password string) *Result {
	res := &Result{}
	if len(password) < 8 {
		res.add("password", "password must be at least 8 characters")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		res.add("password", "password must mix upper case, lower case and digits")
	}
	return res
}
