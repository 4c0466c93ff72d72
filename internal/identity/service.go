package identity

import (
	"strings"

	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/internal/validation"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/metrics"
	"github.com/smileworks/clinic-core/pkg/types"
)

// Service handles account registration and authentication
type Service struct {
	repo      *repository.Repository
	validator *validation.Engine
	passwords *PasswordManager
	tokens    *TokenManager
	metrics   *metrics.Collector
	logger    *logger.Logger
}

// NewService wires the identity service. metrics may be nil.
func NewService(repo *repository.Repository, validator *validation.Engine, tokens *TokenManager, collector *metrics.Collector, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		passwords: NewPasswordManager(),
		tokens:    tokens,
		metrics:   collector,
		logger:    log,
	}
}

// RegisterInput carries the fields of a registration request
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     types.Role
	Phone    string
	DOB      string
	Address  string
}

// Register creates a new account. Patient registrations also get a
// linked patient profile so the roster and the account stay in step.
func (s *Service) Register(in RegisterInput) (*types.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if !in.Role.IsValid() {
		return nil, types.NewValidationError(types.ErrCodeValidationFailed, "unknown role", nil)
	}
	if len(in.Name) < 2 {
		return nil, types.NewValidationError(types.ErrCodeValidationFailed, "name must be at least 2 characters", nil)
	}
	if res := s.validator.ValidatePassword(in.Password); !res.Valid() {
		if s.metrics != nil {
			s.metrics.RecordValidationFailure("user")
		}
		return nil, res.Err()
	}

	hash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		return nil, types.NewStorageError(types.ErrCodeAuthFailed, "failed to hash password", err)
	}

	user, err := s.repo.CreateUser(&types.User{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Name:         in.Name,
		Phone:        in.Phone,
		IsActive:     true,
		DOB:          in.DOB,
		Address:      in.Address,
	})
	if err != nil {
		return nil, err
	}

	if in.Role == types.RolePatient && s.repo.FindPatientByEmail(in.Email) == nil {
		_, err := s.repo.CreatePatient(&types.Patient{
			UserID:  user.ID,
			Name:    in.Name,
			Email:   in.Email,
			Phone:   in.Phone,
			DOB:     in.DOB,
			Address: in.Address,
		})
		if err != nil {
			s.logger.WithActor(user.ID).WithError(err).Warn("failed to create linked patient profile")
		}
	}

	s.logger.Audit(user.ID, "register", "user", true, map[string]interface{}{
		"role": user.Role,
	})
	return user, nil
}

// Login authenticates credentials, sets the session and mints a token.
// Failures are deliberately uniform: a wrong password and an unknown
// email produce the same error.
func (s *Service) Login(email, password string) (*types.User, string, error) {
	user, err := s.repo.GetUserByEmail(email)
	if err != nil {
		s.recordAuth(false)
		return nil, "", types.NewPermissionError(types.ErrCodeAuthFailed, "invalid email or password")
	}

	ok, err := s.passwords.VerifyPassword(user.PasswordHash, password)
	if err != nil || !ok {
		s.recordAuth(false)
		return nil, "", types.NewPermissionError(types.ErrCodeAuthFailed, "invalid email or password")
	}
	if !user.IsActive {
		s.recordAuth(false)
		return nil, "", types.NewPermissionError(types.ErrCodeInactiveUser, "account is deactivated")
	}

	token, err := s.tokens.Mint(user)
	if err != nil {
		s.recordAuth(false)
		return nil, "", types.NewStorageError(types.ErrCodeAuthFailed, "failed to issue session token", err)
	}

	s.repo.Session().SetCurrent(user)
	s.recordAuth(true)
	s.logger.Audit(user.ID, "login", "session", true, nil)
	return user, token, nil
}

// Logout clears the current session
func (s *Service) Logout() {
	if current := s.repo.Session().Current(); current != nil {
		s.logger.Audit(current.ID, "logout", "session", true, nil)
	}
	s.repo.Session().Clear()
}

// ChangePassword verifies the old password before storing a new one
func (s *Service) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := s.repo.GetUser(userID)
	if err != nil {
		return err
	}

	ok, err := s.passwords.VerifyPassword(user.PasswordHash, oldPassword)
	if err != nil || !ok {
		return types.NewPermissionError(types.ErrCodeAuthFailed, "current password is incorrect")
	}
	if res := s.validator.ValidatePassword(newPassword); !res.Valid() {
		return res.Err()
	}

	hash, err := s.passwords.HashPassword(newPassword)
	if err != nil {
		return types.NewStorageError(types.ErrCodeAuthFailed, "failed to hash password", err)
	}
	_, err = s.repo.UpdateUser(userID, types.UserUpdates{PasswordHash: &hash})
	return err
}

func (s *Service) recordAuth(success bool) {
	if s.metrics != nil {
		s.metrics.RecordAuthAttempt(success)
	}
}
