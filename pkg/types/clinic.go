package types

import "time"

// AppointmentStatus represents appointment status values
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "pending"
	StatusConfirmed  AppointmentStatus = "confirmed"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

// IsTerminal reports whether no further transitions or edits are permitted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Bookable services offered by the clinic
const (
	ServiceDentalCleaning     = "Dental Cleaning"
	ServiceConsultation       = "Consultation"
	ServiceToothFilling       = "Tooth Filling"
	ServiceToothExtraction    = "Tooth Extraction"
	ServiceRootCanal          = "Root Canal"
	ServiceBracesConsultation = "Braces Consultation"
)

// KnownServices lists the bookable service catalog
var KnownServices = []string{
	ServiceDentalCleaning,
	ServiceConsultation,
	ServiceToothFilling,
	ServiceToothExtraction,
	ServiceRootCanal,
	ServiceBracesConsultation,
}

// Date and time layouts used across appointment fields
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Appointment represents a scheduled appointment.
//
// Dentist carries the display name; DentistID is the proper reference
// and takes precedence wherever both are present. Date is an ISO date
// and Time an "HH:MM" string on the 30-minute booking grid.
type Appointment struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patient_id,omitempty"`
	PatientName string            `json:"patient_name"`
	Email       string            `json:"email,omitempty"`
	Phone       string            `json:"phone,omitempty"`
	Service     string            `json:"service"`
	Dentist     string            `json:"dentist"`
	DentistID   string            `json:"dentist_id,omitempty"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Status      AppointmentStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at,omitempty"`
}

// AppointmentFilters represents filters for appointment queries
type AppointmentFilters struct {
	Date      string            `json:"date,omitempty"`
	Status    AppointmentStatus `json:"status,omitempty"`
	PatientID string            `json:"patient_id,omitempty"`
	Dentist   string            `json:"dentist,omitempty"`
	DentistID string            `json:"dentist_id,omitempty"`
}

// AppointmentUpdates represents a partial update to an appointment
type AppointmentUpdates struct {
	PatientName *string            `json:"patient_name,omitempty"`
	Email       *string            `json:"email,omitempty"`
	Phone       *string            `json:"phone,omitempty"`
	Service     *string            `json:"service,omitempty"`
	Dentist     *string            `json:"dentist,omitempty"`
	DentistID   *string            `json:"dentist_id,omitempty"`
	Date        *string            `json:"date,omitempty"`
	Time        *string            `json:"time,omitempty"`
	Status      *AppointmentStatus `json:"status,omitempty"`
	Notes       *string            `json:"notes,omitempty"`
}

// Patient represents a patient profile record. It is distinct from a
// User of role patient but shares its ID when created at registration.
type Patient struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id,omitempty"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	DOB            string    `json:"dob,omitempty"`
	Address        string    `json:"address,omitempty"`
	MedicalHistory string    `json:"medical_history,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// PatientUpdates represents a partial update to a patient profile
type PatientUpdates struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	DOB            *string `json:"dob,omitempty"`
	Address        *string `json:"address,omitempty"`
	MedicalHistory *string `json:"medical_history,omitempty"`
}

// Record represents a treatment record, created exactly once when an
// appointment completes. Rating and review are patient-supplied and
// write-once.
type Record struct {
	ID            string     `json:"id"`
	PatientID     string     `json:"patient_id,omitempty"`
	PatientName   string     `json:"patient_name"`
	Email         string     `json:"email,omitempty"`
	Treatment     string     `json:"treatment"`
	Date          string     `json:"date"`
	Time          string     `json:"time,omitempty"`
	Notes         string     `json:"notes"`
	Dentist       string     `json:"dentist"`
	DentistID     string     `json:"dentist_id,omitempty"`
	AppointmentID string     `json:"appointment_id,omitempty"`
	Rating        int        `json:"rating,omitempty"` // 1..5, 0 when unrated
	Review        string     `json:"review,omitempty"`
	RatedAt       *time.Time `json:"rated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at,omitempty"`
}

// RecordUpdates represents a partial update to a treatment record
type RecordUpdates struct {
	PatientName *string `json:"patient_name,omitempty"`
	Treatment   *string `json:"treatment,omitempty"`
	Date        *string `json:"date,omitempty"`
	Time        *string `json:"time,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	Dentist     *string `json:"dentist,omitempty"`
	DentistID   *string `json:"dentist_id,omitempty"`
}

// Notification represents a user-facing notification created as a side
// effect of scheduling workflows. Only its read state is ever mutated.
type Notification struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	UserRole    Role      `json:"user_role"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Read        bool      `json:"read"`
	RelatedID   string    `json:"related_id,omitempty"`
	RelatedType string    `json:"related_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DentistRatingSummary aggregates record ratings for one dentist
type DentistRatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}
