package repository

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/smileworks/clinic-core/pkg/rbac"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

// CreateUser persists a new account. Emails are unique across users,
// case-insensitively.
func (r *Repository) CreateUser(u *types.User) (*types.User, error) {
	if u.ID == "" {
		u.ID = NewID()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt

	users := r.loadUsers()
	for _, existing := range users {
		if existing.EmailEquals(u.Email) {
			return nil, types.NewIntegrityError(types.ErrCodeDuplicateEmail,
				"an account with this email already exists")
		}
	}

	users = append(users, u)
	if err := r.save(storage.CollectionUsers, users); err != nil {
		return nil, err
	}
	r.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"role":    u.Role,
	}).Info("user created")
	return u, nil
}

// GetUser fetches one user by id
func (r *Repository) GetUser(id string) (*types.User, error) {
	for _, u := range r.loadUsers() {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "user not found: "+id)
}

// GetUserByEmail fetches one user by email, case-insensitively
func (r *Repository) GetUserByEmail(email string) (*types.User, error) {
	for _, u := range r.loadUsers() {
		if u.EmailEquals(email) {
			return u, nil
		}
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "no account for email")
}

// ListUsers returns all users, optionally restricted to one role,
// sorted by name.
func (r *Repository) ListUsers(role types.Role) []*types.User {
	users := r.loadUsers()
	out := make([]*types.User, 0, len(users))
	for _, u := range users {
		if role != "" && u.Role != role {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// ListDentists is shorthand for the dentist roster
func (r *Repository) ListDentists() []*types.User {
	return r.ListUsers(types.RoleDentist)
}

// FindDentistByName resolves a dentist user from a display name,
// tolerating honorific prefixes. Returns nil when nothing matches.
func (r *Repository) FindDentistByName(name string) *types.User {
	for _, u := range r.ListDentists() {
		if rbac.MatchesDentistUser(u, name) {
			return u
		}
	}
	return nil
}

// UpdateUser applies a partial update and stamps UpdatedAt
func (r *Repository) UpdateUser(id string, updates types.UserUpdates) (*types.User, error) {
	users := r.loadUsers()

	if updates.Email != nil {
		for _, u := range users {
			if u.ID != id && u.EmailEquals(*updates.Email) {
				return nil, types.NewIntegrityError(types.ErrCodeDuplicateEmail,
					"an account with this email already exists")
			}
		}
	}

	for _, u := range users {
		if u.ID != id {
			continue
		}
		applyUserUpdates(u, updates)
		u.UpdatedAt = time.Now()
		if err := r.save(storage.CollectionUsers, users); err != nil {
			return nil, err
		}
		if current := r.session.Current(); current != nil && current.ID == id {
			r.session.SetCurrent(u)
		}
		return u, nil
	}
	return nil, types.NewNotFoundError(types.ErrCodeNotFound, "user not found: "+id)
}

// DeleteUser removes an account and everything that references it:
// appointments, treatment records, the linked patient profile and any
// notifications. Admin accounts cannot be deleted. Deleting the
// signed-in user also clears the session.
func (r *Repository) DeleteUser(id string) error {
	users := r.loadUsers()
	var target *types.User
	kept := make([]*types.User, 0, len(users))
	for _, u := range users {
		if u.ID == id {
			target = u
			continue
		}
		kept = append(kept, u)
	}
	if target == nil {
		return types.NewNotFoundError(types.ErrCodeNotFound, "user not found: "+id)
	}
	if target.Role == types.RoleAdmin {
		return types.NewIntegrityError(types.ErrCodeLastAdmin, "admin accounts cannot be deleted")
	}

	if err := r.save(storage.CollectionUsers, kept); err != nil {
		return err
	}

	appointments := r.loadAppointments()
	keptAppts := make([]*types.Appointment, 0, len(appointments))
	for _, appt := range appointments {
		if appointmentReferencesUser(appt, target) {
			continue
		}
		keptAppts = append(keptAppts, appt)
	}
	if err := r.save(storage.CollectionAppointments, keptAppts); err != nil {
		return err
	}

	records := r.loadRecords()
	keptRecords := make([]*types.Record, 0, len(records))
	for _, rec := range records {
		if recordReferencesUser(rec, target) {
			continue
		}
		keptRecords = append(keptRecords, rec)
	}
	if err := r.save(storage.CollectionRecords, keptRecords); err != nil {
		return err
	}

	if target.Role == types.RolePatient {
		patients := r.loadPatients()
		keptPatients := make([]*types.Patient, 0, len(patients))
		for _, p := range patients {
			if p.UserID == id || p.ID == id || target.EmailEquals(p.Email) {
				continue
			}
			keptPatients = append(keptPatients, p)
		}
		if err := r.save(storage.CollectionPatients, keptPatients); err != nil {
			return err
		}
	}

	notifications := r.loadNotifications()
	keptNotifs := make([]*types.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.UserID == id {
			continue
		}
		keptNotifs = append(keptNotifs, n)
	}
	if err := r.save(storage.CollectionNotifications, keptNotifs); err != nil {
		return err
	}

	if current := r.session.Current(); current != nil && current.ID == id {
		r.session.Clear()
	}

	r.logger.Audit(id, "deleteUser", "user", true, map[string]interface{}{
		"role": target.Role,
	})
	return nil
}

func appointmentReferencesUser(appt *types.Appointment, u *types.User) bool {
	switch u.Role {
	case types.RoleDentist:
		if appt.DentistID != "" {
			return appt.DentistID == u.ID
		}
		return rbac.MatchesDentistUser(u, appt.Dentist)
	case types.RolePatient:
		return appt.PatientID == u.ID || u.EmailEquals(appt.Email)
	}
	return false
}

func recordReferencesUser(rec *types.Record, u *types.User) bool {
	switch u.Role {
	case types.RoleDentist:
		if rec.DentistID != "" {
			return rec.DentistID == u.ID
		}
		return rbac.MatchesDentistUser(u, rec.Dentist)
	case types.RolePatient:
		return rec.PatientID == u.ID || u.EmailEquals(rec.Email)
	}
	return false
}

// SetSystemRating stores a user's 1..5 rating of the clinic
func (r *Repository) SetSystemRating(userID string, rating int) error {
	if rating < 1 || rating > 5 {
		return types.NewValidationError(types.ErrCodeValidationFailed,
			"rating must be between 1 and 5", nil)
	}
	_, err := r.UpdateUser(userID, types.UserUpdates{SystemRating: &rating})
	return err
}

// SystemRatingSummary aggregates every submitted system rating.
// Ratings of 3 and above count as trusted.
func (r *Repository) SystemRatingSummary() types.SystemRatingSummary {
	var sum, count, trusted int
	for _, u := range r.loadUsers() {
		if u.SystemRating < 1 {
			continue
		}
		sum += u.SystemRating
		count++
		if u.SystemRating >= 3 {
			trusted++
		}
	}
	summary := types.SystemRatingSummary{Count: count, Trusted: trusted}
	if count > 0 {
		summary.Average = math.Round(float64(sum)/float64(count)*10) / 10
	}
	return summary
}

func applyUserUpdates(u *types.User, updates types.UserUpdates) {
	if updates.Email != nil {
		u.Email = *updates.Email
	}
	if updates.PasswordHash != nil {
		u.PasswordHash = *updates.PasswordHash
	}
	if updates.Name != nil {
		u.Name = *updates.Name
	}
	if updates.RoleTitle != nil {
		u.RoleTitle = *updates.RoleTitle
	}
	if updates.Phone != nil {
		u.Phone = *updates.Phone
	}
	if updates.IsActive != nil {
		u.IsActive = *updates.IsActive
	}
	if updates.SystemRating != nil {
		u.SystemRating = *updates.SystemRating
	}
	if updates.ProfilePicture != nil {
		u.ProfilePicture = *updates.ProfilePicture
	}
	if updates.Specialties != nil {
		u.Specialties = *updates.Specialties
	}
	if updates.ClinicName != nil {
		u.ClinicName = *updates.ClinicName
	}
	if updates.Branch != nil {
		u.Branch = *updates.Branch
	}
	if updates.WorkingHours != nil {
		u.WorkingHours = updates.WorkingHours
	}
	if updates.DOB != nil {
		u.DOB = *updates.DOB
	}
	if updates.Address != nil {
		u.Address = *updates.Address
	}
}
