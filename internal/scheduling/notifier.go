package scheduling

import (
	"fmt"

	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/types"
)

// Notification types emitted by the scheduling workflows
const (
	NotifyAppointmentBooked    = "appointment_booked"
	NotifyAppointmentConfirmed = "appointment_confirmed"
	NotifyAppointmentCancelled = "appointment_cancelled"
	NotifyAppointmentCompleted = "appointment_completed"
	NotifyAppointmentUpdated   = "appointment_updated"
)

// Notifier creates in-app notification rows as scheduling side
// effects. A failed notification is logged and swallowed; it never
// fails the workflow that triggered it.
type Notifier struct {
	repo   *repository.Repository
	logger *logger.Logger
}

// NewNotifier creates a notifier over the repository
func NewNotifier(repo *repository.Repository, log *logger.Logger) *Notifier {
	return &Notifier{repo: repo, logger: log}
}

func (n *Notifier) notify(userID string, role types.Role, kind, title, message string, appt *types.Appointment) {
	if userID == "" {
		return
	}
	_, err := n.repo.CreateNotification(&types.Notification{
		UserID:      userID,
		UserRole:    role,
		Type:        kind,
		Title:       title,
		Message:     message,
		RelatedID:   appt.ID,
		RelatedType: "appointment",
	})
	if err != nil {
		n.logger.WithError(err).WithField("user_id", userID).Warn("failed to create notification")
	}
}

// NotifyDentist addresses the dentist an appointment belongs to. Rows
// that only carry a display name are resolved against the roster.
func (n *Notifier) NotifyDentist(appt *types.Appointment, kind, title, message string) {
	dentistID := appt.DentistID
	if dentistID == "" {
		if dentist := n.repo.FindDentistByName(appt.Dentist); dentist != nil {
			dentistID = dentist.ID
		}
	}
	n.notify(dentistID, types.RoleDentist, kind, title, message, appt)
}

// NotifyPatient addresses the patient account behind an appointment,
// when one exists. Walk-in bookings without an account get nothing.
func (n *Notifier) NotifyPatient(appt *types.Appointment, kind, title, message string) {
	patientID := appt.PatientID
	if patientID == "" && appt.Email != "" {
		if u, err := n.repo.GetUserByEmail(appt.Email); err == nil && u.Role == types.RolePatient {
			patientID = u.ID
		}
	}
	n.notify(patientID, types.RolePatient, kind, title, message, appt)
}

func appointmentSummary(appt *types.Appointment) string {
	return fmt.Sprintf("%s on %s at %s", appt.Service, appt.Date, appt.Time)
}
