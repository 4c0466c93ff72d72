package scheduling

import (
	"strings"
	"time"

	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/internal/schedule"
	"github.com/smileworks/clinic-core/internal/validation"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/metrics"
	"github.com/smileworks/clinic-core/pkg/rbac"
	"github.com/smileworks/clinic-core/pkg/types"
)

// Coordinator runs the appointment workflows: booking, confirmation,
// cancellation, completion and edits. Every mutation is gated on the
// acting user's permissions before anything else happens.
type Coordinator struct {
	repo      *repository.Repository
	validator *validation.Engine
	notifier  *Notifier
	metrics   *metrics.Collector
	logger    *logger.Logger
}

// NewCoordinator wires a coordinator. metrics may be nil when no
// collector is registered.
func NewCoordinator(repo *repository.Repository, validator *validation.Engine, notifier *Notifier, collector *metrics.Collector, log *logger.Logger) *Coordinator {
	return &Coordinator{
		repo:      repo,
		validator: validator,
		notifier:  notifier,
		metrics:   collector,
		logger:    log,
	}
}

func (c *Coordinator) denied(actor *types.User, action rbac.Action, resource interface{}) error {
	err := rbac.Authorize(actor, action, resource)
	if err != nil && c.metrics != nil {
		role := ""
		if actor != nil {
			role = string(actor.Role)
		}
		c.metrics.RecordPermissionDenial(string(action), role)
	}
	return err
}

// resolveDentist pins the appointment to a dentist account when the
// roster can resolve the display name, so later rows carry a proper
// reference instead of a name.
func (c *Coordinator) resolveDentist(appt *types.Appointment) *types.User {
	if appt.DentistID != "" {
		if dentist, err := c.repo.GetUser(appt.DentistID); err == nil {
			if appt.Dentist == "" {
				appt.Dentist = dentist.Name
			}
			return dentist
		}
	}
	dentist := c.repo.FindDentistByName(appt.Dentist)
	if dentist != nil {
		appt.DentistID = dentist.ID
	}
	return dentist
}

// Book validates and creates a new appointment. Bookings with an email
// that has no patient profile get one created automatically. The
// dentist is notified; when staff books on a patient's behalf, the
// patient is notified too.
func (c *Coordinator) Book(actor *types.User, appt *types.Appointment) (*types.Appointment, error) {
	if err := c.denied(actor, rbac.ActionCreateAppointment, nil); err != nil {
		return nil, err
	}

	if actor.Role == types.RolePatient {
		appt.PatientID = actor.ID
		if appt.Email == "" {
			appt.Email = actor.Email
		}
		if appt.PatientName == "" {
			appt.PatientName = actor.Name
		}
	}

	dentist := c.resolveDentist(appt)

	var existing []*types.Appointment
	if dentist != nil {
		existing = c.repo.ListAppointmentsForDentist(dentist, appt.Date)
	} else {
		existing = c.repo.ListAppointments(types.AppointmentFilters{
			Date:    appt.Date,
			Dentist: appt.Dentist,
		})
	}
	if res := c.validator.ValidateAppointment(appt, existing); !res.Valid() {
		if c.metrics != nil {
			c.metrics.RecordValidationFailure("appointment")
		}
		return nil, res.Err()
	}

	appt.Status = types.StatusPending
	created, err := c.repo.CreateAppointment(appt)
	if err != nil {
		return nil, err
	}

	c.ensurePatientProfile(created)

	c.notifier.NotifyDentist(created, NotifyAppointmentBooked,
		"New appointment request",
		created.PatientName+" requested "+appointmentSummary(created))
	if actor.Role != types.RolePatient {
		c.notifier.NotifyPatient(created, NotifyAppointmentBooked,
			"Appointment booked",
			"Your "+appointmentSummary(created)+" has been booked")
	}

	if c.metrics != nil {
		c.metrics.RecordAppointmentCreated(created.Service, string(actor.Role))
	}
	c.logger.Audit(actor.ID, "createAppointment", "appointment", true, map[string]interface{}{
		"appointment_id": created.ID,
	})
	return created, nil
}

// ensurePatientProfile creates a patient profile for bookings whose
// email has none yet, so the patient roster stays complete.
func (c *Coordinator) ensurePatientProfile(appt *types.Appointment) {
	if strings.TrimSpace(appt.Email) == "" {
		return
	}
	if c.repo.FindPatientByEmail(appt.Email) != nil {
		return
	}
	profile := &types.Patient{
		UserID: appt.PatientID,
		Name:   appt.PatientName,
		Email:  appt.Email,
		Phone:  appt.Phone,
	}
	if _, err := c.repo.CreatePatient(profile); err != nil {
		c.logger.WithError(err).WithField("email", appt.Email).Warn("failed to auto-create patient profile")
	}
}

// Confirm moves a pending appointment to confirmed
func (c *Coordinator) Confirm(actor *types.User, id string) (*types.Appointment, error) {
	return c.transition(actor, id, types.StatusConfirmed, rbac.ActionConfirmAppointment)
}

// Start moves a confirmed appointment to in-progress
func (c *Coordinator) Start(actor *types.User, id string) (*types.Appointment, error) {
	return c.transition(actor, id, types.StatusInProgress, rbac.ActionEditAppointment)
}

func (c *Coordinator) transition(actor *types.User, id string, to types.AppointmentStatus, action rbac.Action) (*types.Appointment, error) {
	appt, err := c.repo.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if err := c.denied(actor, action, appt); err != nil {
		return nil, err
	}
	if !CanTransition(appt.Status, to) {
		return nil, transitionError(appt.Status, to)
	}

	from := appt.Status
	updated, err := c.repo.UpdateAppointment(id, types.AppointmentUpdates{Status: &to})
	if err != nil {
		return nil, err
	}

	if to == types.StatusConfirmed {
		c.notifier.NotifyPatient(updated, NotifyAppointmentConfirmed,
			"Appointment confirmed",
			"Your "+appointmentSummary(updated)+" has been confirmed")
	}
	if c.metrics != nil {
		c.metrics.RecordTransition(string(from), string(to))
	}
	return updated, nil
}

// Cancel cancels a non-terminal appointment. The patient is always
// notified; the dentist is notified only for staff cancellations, so a
// patient withdrawing their own booking does not ping the dentist.
func (c *Coordinator) Cancel(actor *types.User, id string) (*types.Appointment, error) {
	appt, err := c.repo.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if err := c.denied(actor, rbac.ActionCancelAppointment, appt); err != nil {
		return nil, err
	}
	if !CanTransition(appt.Status, types.StatusCancelled) {
		return nil, transitionError(appt.Status, types.StatusCancelled)
	}

	from := appt.Status
	cancelled := types.StatusCancelled
	updated, err := c.repo.UpdateAppointment(id, types.AppointmentUpdates{Status: &cancelled})
	if err != nil {
		return nil, err
	}

	c.notifier.NotifyPatient(updated, NotifyAppointmentCancelled,
		"Appointment cancelled",
		"Your "+appointmentSummary(updated)+" has been cancelled")
	if actor.Role != types.RolePatient {
		c.notifier.NotifyDentist(updated, NotifyAppointmentCancelled,
			"Appointment cancelled",
			updated.PatientName+"'s "+appointmentSummary(updated)+" was cancelled")
	}

	if c.metrics != nil {
		c.metrics.RecordTransition(string(from), string(types.StatusCancelled))
	}
	c.logger.Audit(actor.ID, "cancelAppointment", "appointment", true, map[string]interface{}{
		"appointment_id": id,
	})
	return updated, nil
}

// Complete finishes an appointment and produces its treatment record
// in one staged call. Notes are required; they become the record body.
func (c *Coordinator) Complete(actor *types.User, id, notes string) (*types.Appointment, *types.Record, error) {
	appt, err := c.repo.GetAppointment(id)
	if err != nil {
		return nil, nil, err
	}
	if err := c.denied(actor, rbac.ActionCompleteAppointment, appt); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(notes) == "" {
		if c.metrics != nil {
			c.metrics.RecordValidationFailure("record")
		}
		return nil, nil, types.NewValidationError(types.ErrCodeValidationFailed,
			"treatment notes are required to complete an appointment", nil)
	}
	if !CanTransition(appt.Status, types.StatusCompleted) {
		return nil, nil, transitionError(appt.Status, types.StatusCompleted)
	}

	var dentist *types.User
	if actor.Role == types.RoleDentist {
		dentist = actor
	}
	from := appt.Status
	updated, record, err := c.repo.CompleteAppointment(id, notes, dentist)
	if err != nil {
		return nil, nil, err
	}

	c.notifier.NotifyPatient(updated, NotifyAppointmentCompleted,
		"Appointment completed",
		"Your "+appointmentSummary(updated)+" is complete; the treatment record is ready")

	if c.metrics != nil {
		c.metrics.RecordTransition(string(from), string(types.StatusCompleted))
	}
	c.logger.Audit(actor.ID, "completeAppointment", "appointment", true, map[string]interface{}{
		"appointment_id": id,
		"record_id":      record.ID,
	})
	return updated, record, nil
}

// Edit applies changes to a non-terminal appointment and re-validates
// the result against the dentist's schedule.
func (c *Coordinator) Edit(actor *types.User, id string, updates types.AppointmentUpdates) (*types.Appointment, error) {
	appt, err := c.repo.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if err := c.denied(actor, rbac.ActionEditAppointment, appt); err != nil {
		return nil, err
	}
	if appt.Status.IsTerminal() {
		return nil, types.NewIntegrityError(types.ErrCodeTerminalStatus,
			"appointment is "+string(appt.Status)+" and can no longer change")
	}
	if updates.Status != nil {
		return nil, types.NewIntegrityError(types.ErrCodeInvalidTransition,
			"status changes must go through confirm, cancel or complete")
	}

	// validate the appointment as it would look after the edit
	preview := *appt
	applyPreview(&preview, updates)
	dentist := c.resolveDentist(&preview)
	if updates.Dentist != nil && updates.DentistID == nil {
		// re-pin (or unpin) the dentist reference along with the name,
		// so an unresolvable name never keeps the previous dentist's ID
		id := ""
		if dentist != nil {
			id = dentist.ID
		}
		preview.DentistID = id
		updates.DentistID = &id
	}

	var existing []*types.Appointment
	if dentist != nil {
		existing = c.repo.ListAppointmentsForDentist(dentist, preview.Date)
	} else {
		existing = c.repo.ListAppointments(types.AppointmentFilters{
			Date:    preview.Date,
			Dentist: preview.Dentist,
		})
	}
	if res := c.validator.ValidateAppointment(&preview, existing); !res.Valid() {
		if c.metrics != nil {
			c.metrics.RecordValidationFailure("appointment")
		}
		return nil, res.Err()
	}

	updated, err := c.repo.UpdateAppointment(id, updates)
	if err != nil {
		return nil, err
	}
	c.notifier.NotifyPatient(updated, NotifyAppointmentUpdated,
		"Appointment updated",
		"Your "+appointmentSummary(updated)+" was updated")
	return updated, nil
}

func applyPreview(appt *types.Appointment, updates types.AppointmentUpdates) {
	if updates.PatientName != nil {
		appt.PatientName = *updates.PatientName
	}
	if updates.Email != nil {
		appt.Email = *updates.Email
	}
	if updates.Service != nil {
		appt.Service = *updates.Service
	}
	if updates.Dentist != nil {
		appt.Dentist = *updates.Dentist
		appt.DentistID = ""
	}
	if updates.DentistID != nil {
		appt.DentistID = *updates.DentistID
	}
	if updates.Date != nil {
		appt.Date = *updates.Date
	}
	if updates.Time != nil {
		appt.Time = *updates.Time
	}
}

// ListFor returns the appointments visible to the acting user, with
// filters applied on top of role visibility.
func (c *Coordinator) ListFor(actor *types.User, filters types.AppointmentFilters) []*types.Appointment {
	return rbac.FilterAppointments(actor, c.repo.ListAppointments(filters))
}

// AvailableSlots returns the booking-grid slots for a dentist on a
// date where the service would neither overlap an existing appointment
// nor fall outside the dentist's working hours.
func (c *Coordinator) AvailableSlots(dentist *types.User, date, service string) []string {
	type span struct{ start, end int }
	taken := make([]span, 0)
	for _, appt := range c.repo.ListAppointmentsForDentist(dentist, date) {
		t, err := time.Parse(types.TimeLayout, appt.Time)
		if err != nil {
			continue
		}
		start := t.Hour()*60 + t.Minute()
		taken = append(taken, span{start, start + schedule.ServiceDuration(appt.Service)})
	}

	duration := schedule.ServiceDuration(service)
	out := make([]string, 0)
	for _, slot := range candidateSlots(dentist, date) {
		t, err := time.Parse(types.TimeLayout, slot)
		if err != nil {
			continue
		}
		start := t.Hour()*60 + t.Minute()
		end := start + duration
		free := true
		for _, s := range taken {
			if start < s.end && s.start < end {
				free = false
				break
			}
		}
		if free {
			out = append(out, slot)
		}
	}
	return out
}
