package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/internal/validation"
	"github.com/smileworks/clinic-core/pkg/config"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

func newTestService(t *testing.T) (*Service, *repository.Repository) {
	t.Helper()
	log := logger.New("error")
	repo := repository.New(storage.NewMemoryStore(), storage.NewMemorySession(), log)
	validator := validation.NewEngine(config.Default().Clinic)
	tokens := NewTokenManager(config.SessionConfig{
		SecretKey: "test-secret-key",
		TokenTTL:  3600,
		Issuer:    "clinic-core",
	})
	return NewService(repo, validator, tokens, nil, log), repo
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:    "pedro@example.test",
		Password: "Sup3rSecret",
		Name:     "Pedro Santos",
		Role:     types.RolePatient,
		Phone:    "0917 555 0101",
	}
}

func TestRegisterPatient(t *testing.T) {
	svc, repo := newTestService(t)

	user, err := svc.Register(registerInput())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "Sup3rSecret", user.PasswordHash, "password is never stored in clear")

	profile := repo.FindPatientByEmail("pedro@example.test")
	require.NotNil(t, profile, "patient registration creates a linked profile")
	assert.Equal(t, user.ID, profile.UserID)
}

func TestRegisterDentistHasNoProfile(t *testing.T) {
	svc, repo := newTestService(t)

	in := registerInput()
	in.Email = "juan@clinic.test"
	in.Name = "Juan Dela Cruz"
	in.Role = types.RoleDentist
	_, err := svc.Register(in)
	require.NoError(t, err)

	assert.Nil(t, repo.FindPatientByEmail("juan@clinic.test"))
}

func TestRegisterRejections(t *testing.T) {
	svc, _ := newTestService(t)

	weak := registerInput()
	weak.Password = "weak"
	_, err := svc.Register(weak)
	assert.True(t, types.IsValidation(err))

	shortName := registerInput()
	shortName.Name = "P"
	_, err = svc.Register(shortName)
	assert.True(t, types.IsValidation(err))

	badRole := registerInput()
	badRole.Role = "receptionist"
	_, err = svc.Register(badRole)
	assert.True(t, types.IsValidation(err))

	_, err = svc.Register(registerInput())
	require.NoError(t, err)
	_, err = svc.Register(registerInput())
	assert.True(t, types.IsIntegrity(err), "duplicate email is rejected")
}

func TestLoginFlow(t *testing.T) {
	svc, repo := newTestService(t)
	_, err := svc.Register(registerInput())
	require.NoError(t, err)

	user, token, err := svc.Login("pedro@example.test", "Sup3rSecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, repo.Session().Current())
	assert.Equal(t, user.ID, repo.Session().Current().ID)

	svc.Logout()
	assert.Nil(t, repo.Session().Current())
}

func TestLoginFailuresAreUniform(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(registerInput())
	require.NoError(t, err)

	_, _, wrongPassword := svc.Login("pedro@example.test", "WrongPass1")
	_, _, unknownEmail := svc.Login("nobody@example.test", "Sup3rSecret")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newTestService(t)
	user, err := svc.Register(registerInput())
	require.NoError(t, err)

	inactive := false
	_, err = repo.UpdateUser(user.ID, types.UserUpdates{IsActive: &inactive})
	require.NoError(t, err)

	_, _, err = svc.Login("pedro@example.test", "Sup3rSecret")
	require.Error(t, err)
	assert.True(t, types.IsPermission(err))
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	user, err := svc.Register(registerInput())
	require.NoError(t, err)

	err = svc.ChangePassword(user.ID, "WrongOld1", "NewSecret9")
	assert.True(t, types.IsPermission(err))

	err = svc.ChangePassword(user.ID, "Sup3rSecret", "weak")
	assert.True(t, types.IsValidation(err))

	require.NoError(t, svc.ChangePassword(user.ID, "Sup3rSecret", "NewSecret9"))

	_, _, err = svc.Login("pedro@example.test", "Sup3rSecret")
	assert.Error(t, err)
	_, _, err = svc.Login("pedro@example.test", "NewSecret9")
	assert.NoError(t, err)
}

func TestTokenMintAndVerify(t *testing.T) {
	tm := NewTokenManager(config.SessionConfig{SecretKey: "test-secret-key", TokenTTL: 3600, Issuer: "clinic-core"})
	user := &types.User{ID: "u1", Email: "pedro@example.test", Role: types.RolePatient, Name: "Pedro Santos"}

	token, err := tm.Mint(user)
	require.NoError(t, err)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, types.RolePatient, claims.Role)
	assert.Equal(t, "Pedro Santos", claims.Name)
}

func TestTokenVerifyRejectsTampering(t *testing.T) {
	tm := NewTokenManager(config.SessionConfig{SecretKey: "test-secret-key", TokenTTL: 3600, Issuer: "clinic-core"})
	other := NewTokenManager(config.SessionConfig{SecretKey: "different-secret", TokenTTL: 3600, Issuer: "clinic-core"})
	user := &types.User{ID: "u1", Email: "pedro@example.test", Role: types.RolePatient}

	token, err := other.Mint(user)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	require.Error(t, err)
	assert.True(t, types.IsPermission(err))

	_, err = tm.Verify("not.a.token")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	tm := NewTokenManager(config.SessionConfig{SecretKey: "test-secret-key", TokenTTL: -1, Issuer: "clinic-core"})
	user := &types.User{ID: "u1", Email: "pedro@example.test", Role: types.RolePatient}

	token, err := tm.Mint(user)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = tm.Verify(token)
	assert.Error(t, err, "expired tokens are rejected")
}
