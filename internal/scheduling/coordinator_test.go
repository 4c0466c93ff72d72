package scheduling

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/internal/validation"
	"github.com/smileworks/clinic-core/pkg/config"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/metrics"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

var testNow = time.Date(2026, time.August, 31, 10, 0, 0, 0, time.Local)

type fixture struct {
	repo        *repository.Repository
	coordinator *Coordinator
	admin       *types.User
	dentist     *types.User
	patient     *types.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.New("error")
	repo := repository.New(storage.NewMemoryStore(), storage.NewMemorySession(), log)
	validator := validation.NewEngineAt(config.Default().Clinic, func() time.Time { return testNow })
	collector := metrics.NewCollector(prometheus.NewRegistry())
	notifier := NewNotifier(repo, log)
	coordinator := NewCoordinator(repo, validator, notifier, collector, log)

	f := &fixture{repo: repo, coordinator: coordinator}

	var err error
	f.admin, err = repo.CreateUser(&types.User{Email: "alice@clinic.test", Role: types.RoleAdmin, Name: "Alice Admin", IsActive: true})
	require.NoError(t, err)
	f.dentist, err = repo.CreateUser(&types.User{Email: "juan@clinic.test", Role: types.RoleDentist, Name: "Juan Dela Cruz", RoleTitle: "Clinic Dentist", IsActive: true})
	require.NoError(t, err)
	f.patient, err = repo.CreateUser(&types.User{Email: "pedro@example.test", Role: types.RolePatient, Name: "Pedro Santos", IsActive: true})
	require.NoError(t, err)
	return f
}

func (f *fixture) booking() *types.Appointment {
	return &types.Appointment{
		PatientName: "Pedro Santos",
		Email:       "pedro@example.test",
		Service:     "Consultation",
		Dentist:     "Dr. Juan Dela Cruz",
		Date:        "2026-09-01",
		Time:        "09:00",
	}
}

func TestBookAsPatient(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, created.Status)
	assert.Equal(t, f.patient.ID, created.PatientID)
	assert.Equal(t, f.dentist.ID, created.DentistID, "display name resolves to the dentist account")

	// the dentist got a notification, the patient did not notify themselves
	assert.Equal(t, 1, f.repo.UnreadCount(f.dentist.ID))
	assert.Zero(t, f.repo.UnreadCount(f.patient.ID))

	// a patient profile was auto-created for the booking email
	profile := f.repo.FindPatientByEmail("pedro@example.test")
	require.NotNil(t, profile)
	assert.Equal(t, "Pedro Santos", profile.Name)
}

func TestBookByStaffNotifiesPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.Book(f.admin, f.booking())
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.UnreadCount(f.dentist.ID))
	assert.Equal(t, 1, f.repo.UnreadCount(f.patient.ID))
}

func TestBookRejectsConflicts(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	dup := f.booking()
	_, err = f.coordinator.Book(f.patient, dup)
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
}

func TestBookRejectsSunday(t *testing.T) {
	f := newFixture(t)

	appt := f.booking()
	appt.Date = "2026-09-06"
	_, err := f.coordinator.Book(f.patient, appt)
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))
}

func TestConfirmAndCancelFlow(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	confirmed, err := f.coordinator.Confirm(f.dentist, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusConfirmed, confirmed.Status)
	assert.GreaterOrEqual(t, f.repo.UnreadCount(f.patient.ID), 1, "confirmation notifies the patient")

	cancelled, err := f.coordinator.Cancel(f.patient, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCancelled, cancelled.Status)

	// terminal: nothing moves a cancelled appointment
	_, err = f.coordinator.Confirm(f.dentist, created.ID)
	require.Error(t, err)
	assert.True(t, types.IsIntegrity(err))

	_, _, err = f.coordinator.Complete(f.dentist, created.ID, "notes")
	require.Error(t, err)
	assert.True(t, types.IsIntegrity(err))
}

func TestCancelNotifications(t *testing.T) {
	f := newFixture(t)

	mine, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)
	dentistUnread := f.repo.UnreadCount(f.dentist.ID)

	// a patient withdrawing their own booking notifies nobody but them
	_, err = f.coordinator.Cancel(f.patient, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, dentistUnread, f.repo.UnreadCount(f.dentist.ID), "patient self-cancel does not ping the dentist")
	assert.Equal(t, 1, f.repo.UnreadCount(f.patient.ID))

	other := f.booking()
	other.Time = "10:00"
	staffBooked, err := f.coordinator.Book(f.admin, other)
	require.NoError(t, err)
	dentistUnread = f.repo.UnreadCount(f.dentist.ID)
	patientUnread := f.repo.UnreadCount(f.patient.ID)

	// staff cancellations reach both sides
	_, err = f.coordinator.Cancel(f.admin, staffBooked.ID)
	require.NoError(t, err)
	assert.Equal(t, dentistUnread+1, f.repo.UnreadCount(f.dentist.ID))
	assert.Equal(t, patientUnread+1, f.repo.UnreadCount(f.patient.ID))
}

func TestPatientCannotConfirm(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	_, err = f.coordinator.Confirm(f.patient, created.ID)
	require.Error(t, err)
	assert.True(t, types.IsPermission(err))
}

func TestPatientCancelsOwnBookingOnly(t *testing.T) {
	f := newFixture(t)

	mine, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	other := f.booking()
	other.PatientName = "Maria Reyes"
	other.Email = "maria@example.test"
	other.Time = "10:00"
	theirs, err := f.coordinator.Book(f.admin, other)
	require.NoError(t, err)

	_, err = f.coordinator.Cancel(f.patient, theirs.ID)
	require.Error(t, err)
	assert.True(t, types.IsPermission(err))

	_, err = f.coordinator.Cancel(f.patient, mine.ID)
	assert.NoError(t, err)
}

func TestCompleteCreatesExactlyOneRecord(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)
	_, err = f.coordinator.Confirm(f.dentist, created.ID)
	require.NoError(t, err)

	updated, record, err := f.coordinator.Complete(f.dentist, created.ID, "routine consultation, no findings")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, updated.Status)
	require.NotNil(t, record)
	assert.Equal(t, created.ID, record.AppointmentID)
	assert.Equal(t, f.dentist.ID, record.DentistID)

	_, _, err = f.coordinator.Complete(f.dentist, created.ID, "again")
	require.Error(t, err)
	assert.Len(t, f.repo.ListRecords(), 1)
}

func TestCompleteRequiresNotes(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)
	_, err = f.coordinator.Confirm(f.dentist, created.ID)
	require.NoError(t, err)

	_, _, err = f.coordinator.Complete(f.dentist, created.ID, "   ")
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	appt, err := f.repo.GetAppointment(created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusConfirmed, appt.Status, "failed completion changes nothing")
	assert.Empty(t, f.repo.ListRecords())
}

func TestCompleteFromPending(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	// walk-ins: complete straight from pending, no confirm step
	updated, record, err := f.coordinator.Complete(f.dentist, created.ID, "Filled cavity in tooth #14")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, updated.Status)
	require.NotNil(t, record)
	assert.Equal(t, created.ID, record.AppointmentID)
	assert.Len(t, f.repo.ListRecords(), 1)
}

func TestEditRevalidates(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	blocker := f.booking()
	blocker.Email = "maria@example.test"
	blocker.PatientName = "Maria Reyes"
	blocker.Time = "10:00"
	_, err = f.coordinator.Book(f.admin, blocker)
	require.NoError(t, err)

	// moving onto the other booking's slot fails
	conflictTime := "10:00"
	_, err = f.coordinator.Edit(f.dentist, created.ID, types.AppointmentUpdates{Time: &conflictTime})
	require.Error(t, err)
	assert.True(t, types.IsValidation(err))

	// a free slot works
	freeTime := "11:00"
	updated, err := f.coordinator.Edit(f.dentist, created.ID, types.AppointmentUpdates{Time: &freeTime})
	require.NoError(t, err)
	assert.Equal(t, "11:00", updated.Time)
}

func TestEditToUnknownDentistClearsReference(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)
	require.Equal(t, f.dentist.ID, created.DentistID)

	name := "Dr. Nobody In Particular"
	updated, err := f.coordinator.Edit(f.admin, created.ID, types.AppointmentUpdates{Dentist: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Dentist)
	assert.Empty(t, updated.DentistID, "unresolvable name leaves no stale dentist reference")

	stored, err := f.repo.GetAppointment(created.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.DentistID)
	assert.Empty(t, f.repo.ListAppointmentsForDentist(f.dentist, created.Date),
		"the original dentist's schedule no longer carries the row")
}

func TestEditRejectsTerminalAndStatus(t *testing.T) {
	f := newFixture(t)

	created, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	status := types.StatusCompleted
	_, err = f.coordinator.Edit(f.dentist, created.ID, types.AppointmentUpdates{Status: &status})
	require.Error(t, err)
	assert.True(t, types.IsIntegrity(err), "status edits must use the workflow calls")

	_, err = f.coordinator.Cancel(f.dentist, created.ID)
	require.NoError(t, err)

	newTime := "11:00"
	_, err = f.coordinator.Edit(f.dentist, created.ID, types.AppointmentUpdates{Time: &newTime})
	require.Error(t, err)
	assert.True(t, types.IsIntegrity(err))
}

func TestListForAppliesVisibility(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.Book(f.patient, f.booking())
	require.NoError(t, err)

	other := f.booking()
	other.PatientName = "Maria Reyes"
	other.Email = "maria@example.test"
	other.Time = "10:00"
	_, err = f.coordinator.Book(f.admin, other)
	require.NoError(t, err)

	assert.Len(t, f.coordinator.ListFor(f.admin, types.AppointmentFilters{}), 2)
	assert.Len(t, f.coordinator.ListFor(f.dentist, types.AppointmentFilters{}), 2)
	assert.Len(t, f.coordinator.ListFor(f.patient, types.AppointmentFilters{}), 1)
}

func TestAvailableSlots(t *testing.T) {
	f := newFixture(t)

	// a Tooth Filling at 09:00 blocks [09:00, 10:30)
	appt := f.booking()
	appt.Service = "Tooth Filling"
	_, err := f.coordinator.Book(f.patient, appt)
	require.NoError(t, err)

	slots := f.coordinator.AvailableSlots(f.dentist, "2026-09-01", "Consultation")
	assert.NotContains(t, slots, "09:00")
	assert.NotContains(t, slots, "09:30")
	assert.NotContains(t, slots, "10:00")
	assert.Contains(t, slots, "10:30")
	assert.Contains(t, slots, "08:30", "a consultation ending at 09:00 fits")
}

func TestAvailableSlotsRespectWorkingHours(t *testing.T) {
	f := newFixture(t)

	f.dentist.WorkingHours = &types.WorkingHours{
		Weekdays: "9:00 AM - 12:00 PM",
		Saturday: "Closed",
	}

	slots := f.coordinator.AvailableSlots(f.dentist, "2026-09-01", "Consultation")
	assert.NotContains(t, slots, "08:00")
	assert.Contains(t, slots, "09:00")
	assert.Contains(t, slots, "11:30")
	assert.NotContains(t, slots, "12:00")

	saturday := f.coordinator.AvailableSlots(f.dentist, "2026-09-05", "Consultation")
	assert.Empty(t, saturday)
}

func TestCanTransitionTable(t *testing.T) {
	assert.True(t, CanTransition(types.StatusPending, types.StatusConfirmed))
	assert.True(t, CanTransition(types.StatusPending, types.StatusCancelled))
	assert.True(t, CanTransition(types.StatusConfirmed, types.StatusInProgress))
	assert.True(t, CanTransition(types.StatusConfirmed, types.StatusCompleted))
	assert.True(t, CanTransition(types.StatusInProgress, types.StatusCompleted))
	assert.True(t, CanTransition(types.StatusPending, types.StatusCompleted))

	assert.False(t, CanTransition(types.StatusPending, types.StatusInProgress))
	assert.False(t, CanTransition(types.StatusCompleted, types.StatusCancelled))
	assert.False(t, CanTransition(types.StatusCancelled, types.StatusPending))
	assert.False(t, CanTransition(types.StatusCompleted, types.StatusConfirmed))
}
