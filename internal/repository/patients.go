package repository

import (
	"sort"
	"strings"
	"time"

	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

// CreatePatient persists a new patient profile
func (r *Repository) CreatePatient(p *types.Patient) (*types.Patient, error) {
	if p.ID == "" {
		p.ID = NewID()
	}
	p.CreatedAt = time.Now()

	patients := r.loadPatients()
	if p.Email != "" {
		for _, existing := range patients {
			if strings.EqualFold(strings.TrimSpace(existing.Email), strings.TrimSpace(p.Email)) {
				return nil, types.NewIntegrityError(types.ErrCodeDuplicateEmail,
					"a patient with this email already exists")
			}
		}
	}

	patients = append(patients, p)
	if err := r.save(storage.CollectionPatients, patients); err != nil {
		return nil, err
	}
	r.logger.WithField("patient_id", p.ID).Info("patient created")
	return p, nil
}

// GetPatient fetches one patient profile by id
func (r *Repository) GetPatient(id string) (*types.Patient, error) {
	for _, p := range r.loadPatients() {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "patient not found: "+id)
}

// FindPatientByEmail fetches a patient profile by email, or nil when
// no profile matches. Comparison is case-insensitive.
func (r *Repository) FindPatientByEmail(email string) *types.Patient {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil
	}
	for _, p := range r.loadPatients() {
		if strings.EqualFold(strings.TrimSpace(p.Email), email) {
			return p
		}
	}
	return nil
}

// ListPatients returns all patient profiles sorted by name
func (r *Repository) ListPatients() []*types.Patient {
	patients := r.loadPatients()
	sort.SliceStable(patients, func(i, j int) bool {
		return strings.ToLower(patients[i].Name) < strings.ToLower(patients[j].Name)
	})
	return patients
}

// UpdatePatient applies a partial update to a patient profile
func (r *Repository) UpdatePatient(id string, updates types.PatientUpdates) (*types.Patient, error) {
	patients := r.loadPatients()
	for _, p := range patients {
		if p.ID != id {
			continue
		}
		if updates.Name != nil {
			p.Name = *updates.Name
		}
		if updates.Email != nil {
			p.Email = *updates.Email
		}
		if updates.Phone != nil {
			p.Phone = *updates.Phone
		}
		if updates.DOB != nil {
			p.DOB = *updates.DOB
		}
		if updates.Address != nil {
			p.Address = *updates.Address
		}
		if updates.MedicalHistory != nil {
			p.MedicalHistory = *updates.MedicalHistory
		}
		p.UpdatedAt = time.Now()
		if err := r.save(storage.CollectionPatients, patients); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "patient not found: "+id)
}

// DeletePatient removes a patient profile. Appointments and records
// referencing the patient are left for DeleteUser to cascade when the
// whole account goes away.
func (r *Repository) DeletePatient(id string) error {
	patients := r.loadPatients()
	kept := make([]*types.Patient, 0, len(patients))
	found := false
	for _, p := range patients {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return types.NewNotFoundError(types.ErrCodeNotFound, "patient not found: "+id)
	}
	return r.save(storage.CollectionPatients, kept)
}
