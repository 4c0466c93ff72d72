package repository

import (
	"sort"
	"time"

	"github.com/smileworks/clinic-core/internal/schedule"
	"github.com/smileworks/clinic-core/pkg/rbac"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

// CreateAppointment persists a new appointment. Missing ids and
// statuses are filled in; new bookings start pending.
func (r *Repository) CreateAppointment(appt *types.Appointment) (*types.Appointment, error) {
	if appt.ID == "" {
		appt.ID = NewID()
	}
	if appt.Status == "" {
		appt.Status = types.StatusPending
	}
	appt.CreatedAt = time.Now()

	appointments := r.loadAppointments()
	appointments = append(appointments, appt)
	if err := r.save(storage.CollectionAppointments, appointments); err != nil {
		return nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"appointment_id": appt.ID,
		"dentist":        appt.Dentist,
		"date":           appt.Date,
		"time":           appt.Time,
	}).Info("appointment created")
	return appt, nil
}

// GetAppointment fetches one appointment by id
func (r *Repository) GetAppointment(id string) (*types.Appointment, error) {
	for _, appt := range r.loadAppointments() {
		if appt.ID == id {
			return appt, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "appointment not found: "+id)
}

// ListAppointments returns appointments matching the filters, newest
// first. The dentist name filter is resolved against the roster when
// possible, so a filter by account name also finds rows booked under
// the dentist's role title or id; it never matches on substrings.
func (r *Repository) ListAppointments(filters types.AppointmentFilters) []*types.Appointment {
	appointments := r.loadAppointments()

	var filterDentist *types.User
	if filters.Dentist != "" {
		filterDentist = r.FindDentistByName(filters.Dentist)
	}

	out := make([]*types.Appointment, 0, len(appointments))
	for _, appt := range appointments {
		if filters.Date != "" && appt.Date != filters.Date {
			continue
		}
		if filters.Status != "" && appt.Status != filters.Status {
			continue
		}
		if filters.PatientID != "" && appt.PatientID != filters.PatientID {
			continue
		}
		if filters.DentistID != "" && appt.DentistID != filters.DentistID {
			continue
		}
		if filters.Dentist != "" && !dentistFilterMatches(appt, filters.Dentist, filterDentist) {
			continue
		}
		out = append(out, appt)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ki := schedule.SortKey(out[i].Date, out[i].Time)
		kj := schedule.SortKey(out[j].Date, out[j].Time)
		if ki != kj {
			return ki > kj
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// dentistFilterMatches checks an appointment against a dentist name
// filter. When the name resolved to a roster account the row's id wins
// and the name side uses the full account match, covering rows booked
// under the role title; otherwise it falls back to plain name matching.
func dentistFilterMatches(appt *types.Appointment, filter string, dentist *types.User) bool {
	if dentist != nil {
		if appt.DentistID != "" {
			return appt.DentistID == dentist.ID
		}
		return rbac.MatchesDentistUser(dentist, appt.Dentist)
	}
	return rbac.DentistNamesMatch(appt.Dentist, filter)
}

// ListAppointmentsForDentist returns the non-cancelled appointments on
// a dentist's schedule for one date, used for conflict checks.
func (r *Repository) ListAppointmentsForDentist(dentist *types.User, date string) []*types.Appointment {
	out := make([]*types.Appointment, 0)
	for _, appt := range r.loadAppointments() {
		if appt.Date != date || appt.Status == types.StatusCancelled {
			continue
		}
		if appt.DentistID != "" {
			if appt.DentistID == dentist.ID {
				out = append(out, appt)
			}
			continue
		}
		if rbac.MatchesDentistUser(dentist, appt.Dentist) {
			out = append(out, appt)
		}
	}
	return out
}

// UpdateAppointment applies a partial update and stamps UpdatedAt.
// Completed and cancelled rows are immutable, whatever the update
// carries.
func (r *Repository) UpdateAppointment(id string, updates types.AppointmentUpdates) (*types.Appointment, error) {
	appointments := r.loadAppointments()
	for _, appt := range appointments {
		if appt.ID != id {
			continue
		}
		if appt.Status.IsTerminal() {
			return nil, types.NewIntegrityError(types.ErrCodeTerminalStatus,
				"appointment is "+string(appt.Status)+" and can no longer change")
		}
		applyAppointmentUpdates(appt, updates)
		appt.UpdatedAt = time.Now()
		if err := r.save(storage.CollectionAppointments, appointments); err != nil {
			return nil, err
		}
		return appt, nil
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "appointment not found: "+id)
}

// DeleteAppointment removes an appointment outright
func (r *Repository) DeleteAppointment(id string) error {
	appointments := r.loadAppointments()
	kept := make([]*types.Appointment, 0, len(appointments))
	found := false
	for _, appt := range appointments {
		if appt.ID == id {
			found = true
			continue
		}
		kept = append(kept, appt)
	}
	if !found {
		return types.NewNotFoundError(types.ErrCodeNotFound, "appointment not found: "+id)
	}
	return r.save(storage.CollectionAppointments, kept)
}

// CompleteAppointment marks an appointment completed and creates its
// treatment record as one staged operation. The status change is only
// persisted once the record write has succeeded, so a crash between
// the two cannot leave a completed appointment without a record.
func (r *Repository) CompleteAppointment(id, notes string, dentist *types.User) (*types.Appointment, *types.Record, error) {
	appointments := r.loadAppointments()
	var target *types.Appointment
	for _, appt := range appointments {
		if appt.ID == id {
			target = appt
			break
		}
	}
	if target == nil {
		return nil, nil, types.NewNotFoundError(types.ErrCodeNotFound, "appointment not found: "+id)
	}
	if target.Status.IsTerminal() {
		return nil, nil, types.NewIntegrityError(types.ErrCodeTerminalStatus,
			"appointment is already "+string(target.Status))
	}

	records := r.loadRecords()
	for _, rec := range records {
		if rec.AppointmentID == id {
			return nil, nil, types.NewIntegrityError(types.ErrCodeRecordExists,
				"appointment already has a treatment record")
		}
	}

	now := time.Now()
	record := &types.Record{
		ID:            NewID(),
		PatientID:     target.PatientID,
		PatientName:   target.PatientName,
		Email:         target.Email,
		Treatment:     target.Service,
		Date:          target.Date,
		Time:          target.Time,
		Notes:         notes,
		Dentist:       target.Dentist,
		DentistID:     target.DentistID,
		AppointmentID: target.ID,
		CreatedAt:     now,
	}
	if dentist != nil {
		record.Dentist = dentist.Name
		record.DentistID = dentist.ID
	}

	records = append(records, record)
	if err := r.save(storage.CollectionRecords, records); err != nil {
		return nil, nil, err
	}

	prevStatus, prevUpdated := target.Status, target.UpdatedAt
	target.Status = types.StatusCompleted
	target.UpdatedAt = now
	if err := r.save(storage.CollectionAppointments, appointments); err != nil {
		// Roll the record back so we never keep a record for an
		// appointment that is not completed.
		target.Status, target.UpdatedAt = prevStatus, prevUpdated
		_ = r.save(storage.CollectionRecords, records[:len(records)-1])
		return nil, nil, err
	}

	r.logger.WithFields(map[string]interface{}{
		"appointment_id": target.ID,
		"record_id":      record.ID,
	}).Info("appointment completed")
	return target, record, nil
}

func applyAppointmentUpdates(appt *types.Appointment, updates types.AppointmentUpdates) {
	if updates.PatientName != nil {
		appt.PatientName = *updates.PatientName
	}
	if updates.Email != nil {
		appt.Email = *updates.Email
	}
	if updates.Phone != nil {
		appt.Phone = *updates.Phone
	}
	if updates.Service != nil {
		appt.Service = *updates.Service
	}
	if updates.Dentist != nil {
		appt.Dentist = *updates.Dentist
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
	if updates.Status != nil {
		appt.Status = *updates.Status
	}
	if updates.Notes != nil {
		appt.Notes = *updates.Notes
	}
}
