package rbac

import (
	"github.com/smileworks/clinic-core/pkg/types"
)

// appointmentBelongsToDentist prefers the owning user ID when the row
// carries one; legacy rows without a DentistID fall back to name
// matching.
func appointmentBelongsToDentist(u *types.User, appt *types.Appointment) bool {
	if appt == nil {
		return false
	}
	if appt.DentistID != "" {
		return appt.DentistID == u.ID
	}
	return MatchesDentistUser(u, appt.Dentist)
}

func appointmentBelongsToPatient(u *types.User, appt *types.Appointment) bool {
	if appt == nil {
		return false
	}
	if appt.PatientID != "" && appt.PatientID == u.ID {
		return true
	}
	return u.EmailEquals(appt.Email)
}

// FilterAppointments returns the subset of appointments the user may
// see. Admins see everything, dentists their own schedule, patients
// their own bookings. Unknown roles see nothing.
func FilterAppointments(user *types.User, appointments []*types.Appointment) []*types.Appointment {
	if user == nil {
		return nil
	}

	switch user.Role {
	case types.RoleAdmin:
		return appointments
	case types.RoleDentist:
		out := make([]*types.Appointment, 0, len(appointments))
		for _, appt := range appointments {
			if appointmentBelongsToDentist(user, appt) {
				out = append(out, appt)
			}
		}
		return out
	case types.RolePatient:
		out := make([]*types.Appointment, 0, len(appointments))
		for _, appt := range appointments {
			if appointmentBelongsToPatient(user, appt) {
				out = append(out, appt)
			}
		}
		return out
	}
	return nil
}

// FilterRecords applies the same visibility rules to treatment
// records.
func FilterRecords(user *types.User, records []*types.Record) []*types.Record {
	if user == nil {
		return nil
	}

	switch user.Role {
	case types.RoleAdmin:
		return records
	case types.RoleDentist:
		out := make([]*types.Record, 0, len(records))
		for _, rec := range records {
			if rec == nil {
				continue
			}
			if rec.DentistID != "" {
				if rec.DentistID == user.ID {
					out = append(out, rec)
				}
				continue
			}
			if MatchesDentistUser(user, rec.Dentist) {
				out = append(out, rec)
			}
		}
		return out
	case types.RolePatient:
		out := make([]*types.Record, 0, len(records))
		for _, rec := range records {
			if rec == nil {
				continue
			}
			if rec.PatientID == user.ID || user.EmailEquals(rec.Email) {
				out = append(out, rec)
			}
		}
		return out
	}
	return nil
}

// FilterPatients returns the patient profiles the user may see. A
// dentist sees a patient once at least one non-cancelled appointment
// links the two; patients see only their own profile.
func FilterPatients(user *types.User, patients []*types.Patient, appointments []*types.Appointment) []*types.Patient {
	if user == nil {
		return nil
	}

	switch user.Role {
	case types.RoleAdmin:
		return patients
	case types.RoleDentist:
		visible := make(map[string]bool)
		emails := make(map[string]bool)
		for _, appt := range appointments {
			if appt == nil || appt.Status == types.StatusCancelled {
				continue
			}
			if !appointmentBelongsToDentist(user, appt) {
				continue
			}
			if appt.PatientID != "" {
				visible[appt.PatientID] = true
			}
			if appt.Email != "" {
				emails[normalizeName(appt.Email)] = true
			}
		}
		out := make([]*types.Patient, 0, len(patients))
		for _, p := range patients {
			if p == nil {
				continue
			}
			if visible[p.ID] || visible[p.UserID] || emails[normalizeName(p.Email)] {
				out = append(out, p)
			}
		}
		return out
	case types.RolePatient:
		out := make([]*types.Patient, 0, 1)
		for _, p := range patients {
			if p == nil {
				continue
			}
			if p.UserID == user.ID || user.EmailEquals(p.Email) {
				out = append(out, p)
			}
		}
		return out
	}
	return nil
}
