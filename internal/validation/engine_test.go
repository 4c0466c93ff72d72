package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileworks/clinic-core/pkg/config"
	"github.com/smileworks/clinic-core/pkg/types"
)

// testNow is a Monday, so the following days of the same week are
// predictable weekday classes.
var testNow = time.Date(2026, time.August, 31, 10, 0, 0, 0, time.Local)

func newTestEngine() *Engine {
	return NewEngineAt(config.Default().Clinic, func() time.Time { return testNow })
}

func baseAppointment() *types.Appointment {
	return &types.Appointment{
		ID:          "a1",
		PatientName: "Pedro Santos",
		Email:       "pedro@example.test",
		Service:     "Consultation",
		Dentist:     "Juan Dela Cruz",
		Date:        "2026-09-01", // Tuesday
		Time:        "09:00",
	}
}

func TestValidateAppointmentOK(t *testing.T) {
	e := newTestEngine()
	res := e.ValidateAppointment(baseAppointment(), nil)
	assert.True(t, res.Valid(), "errors: %v", res.Errors)
	assert.NoError(t, res.Err())
}

func TestValidateAppointmentFieldErrors(t *testing.T) {
	e := newTestEngine()

	appt := baseAppointment()
	appt.PatientName = " "
	appt.Service = ""
	appt.Email = "not-an-email"

	res := e.ValidateAppointment(appt, nil)
	require.False(t, res.Valid())
	assert.Len(t, res.Errors, 3, "all failures are reported together")

	err := res.Err()
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
}

func TestValidateAppointmentReportsIndependentFailures(t *testing.T) {
	e := newTestEngine()

	// a past date does not hide that the time is before opening too
	appt := baseAppointment()
	appt.Date = "2026-08-24" // the previous Monday
	appt.Time = "06:00"

	res := e.ValidateAppointment(appt, nil)
	require.False(t, res.Valid())

	fields := make(map[string][]string)
	for _, fe := range res.Errors {
		fields[fe.Field] = append(fields[fe.Field], fe.Message)
	}
	assert.Contains(t, fields, "date")
	assert.Contains(t, fields, "time")
}

func TestValidateAppointmentDates(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		date string
		ok   bool
	}{
		{"today is bookable", "2026-08-31", true},
		{"yesterday rejected", "2026-08-30", false},
		{"sunday rejected", "2026-09-06", false},
		{"saturday allowed", "2026-09-05", true},
		{"one year out allowed", "2027-08-31", true},
		{"beyond booking window rejected", "2027-09-01", false},
		{"malformed rejected", "01/09/2026", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := baseAppointment()
			appt.Date = tt.date
			res := e.ValidateAppointment(appt, nil)
			assert.Equal(t, tt.ok, res.Valid(), "errors: %v", res.Errors)
		})
	}
}

func TestValidateAppointmentBusinessHours(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name    string
		date    string
		clock   string
		service string
		ok      bool
	}{
		{"weekday opening slot", "2026-09-01", "08:00", "Consultation", true},
		{"weekday before opening", "2026-09-01", "07:30", "Consultation", false},
		{"weekday at close", "2026-09-01", "18:00", "Consultation", false},
		{"weekday last fitting slot", "2026-09-01", "17:30", "Consultation", true},
		{"long service near close", "2026-09-01", "17:00", "Root Canal", false},
		{"long service fits", "2026-09-01", "15:00", "Root Canal", true},
		{"saturday closes earlier", "2026-09-05", "15:30", "Consultation", true},
		{"saturday after close", "2026-09-05", "16:00", "Consultation", false},
		{"off-grid time", "2026-09-01", "09:10", "Consultation", false},
		{"malformed time", "2026-09-01", "nineish", "Consultation", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := baseAppointment()
			appt.Date = tt.date
			appt.Time = tt.clock
			appt.Service = tt.service
			res := e.ValidateAppointment(appt, nil)
			assert.Equal(t, tt.ok, res.Valid(), "errors: %v", res.Errors)
		})
	}
}

func TestValidateAppointmentConflicts(t *testing.T) {
	e := newTestEngine()

	// Tooth Filling at 09:00 occupies [09:00, 10:30)
	existing := []*types.Appointment{{
		ID:      "other",
		Service: "Tooth Filling",
		Date:    "2026-09-01",
		Time:    "09:00",
		Status:  types.StatusConfirmed,
	}}

	tests := []struct {
		name    string
		clock   string
		service string
		ok      bool
	}{
		{"same slot", "09:00", "Consultation", false},
		{"inside the interval", "10:00", "Consultation", false},
		{"starts before and runs in", "08:30", "Dental Cleaning", false},
		{"ends exactly at start", "08:30", "Consultation", true},
		{"back to back after", "10:30", "Consultation", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := baseAppointment()
			appt.Time = tt.clock
			appt.Service = tt.service
			res := e.ValidateAppointment(appt, existing)
			assert.Equal(t, tt.ok, res.Valid(), "errors: %v", res.Errors)
		})
	}
}

func TestValidateAppointmentConflictExclusions(t *testing.T) {
	e := newTestEngine()

	self := baseAppointment()
	existing := []*types.Appointment{
		{ID: self.ID, Service: "Consultation", Date: "2026-09-01", Time: "09:00", Status: types.StatusConfirmed},
		{ID: "c1", Service: "Consultation", Date: "2026-09-01", Time: "09:00", Status: types.StatusCancelled},
		{ID: "d1", Service: "Consultation", Date: "2026-09-02", Time: "09:00", Status: types.StatusConfirmed},
	}

	res := e.ValidateAppointment(self, existing)
	assert.True(t, res.Valid(), "own row, cancelled rows and other dates never conflict: %v", res.Errors)
}

func TestValidatePatient(t *testing.T) {
	e := newTestEngine()

	existing := []*types.Patient{{ID: "p1", Email: "maria@example.test"}}

	ok := e.ValidatePatient(&types.Patient{Name: "Pedro Santos", Email: "pedro@example.test", Phone: "+63 917 555 0101"}, existing, "")
	assert.True(t, ok.Valid(), "errors: %v", ok.Errors)

	short := e.ValidatePatient(&types.Patient{Name: "P"}, existing, "")
	assert.False(t, short.Valid())

	badEmail := e.ValidatePatient(&types.Patient{Name: "Pedro", Email: "nope"}, existing, "")
	assert.False(t, badEmail.Valid())

	dup := e.ValidatePatient(&types.Patient{Name: "Maria Clone", Email: "MARIA@example.test"}, existing, "")
	assert.False(t, dup.Valid())

	self := e.ValidatePatient(&types.Patient{ID: "p1", Name: "Maria Reyes", Email: "maria@example.test"}, existing, "p1")
	assert.True(t, self.Valid(), "editing your own profile is not a duplicate")

	badPhone := e.ValidatePatient(&types.Patient{Name: "Pedro", Phone: "call me"}, existing, "")
	assert.False(t, badPhone.Valid())
}

func TestValidatePassword(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.ValidatePassword("Sup3rSecret").Valid())
	assert.False(t, e.ValidatePassword("short1A").Valid())
	assert.False(t, e.ValidatePassword("alllowercase1").Valid())
	assert.False(t, e.ValidatePassword("ALLUPPERCASE1").Valid())
	assert.False(t, e.ValidatePassword("NoDigitsHere").Valid())
}
