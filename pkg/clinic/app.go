// Package clinic assembles the subsystems into one application facade.
// A presentation layer imports this package alone: the repositories,
// validation, identity, scheduling and export wiring live behind it,
// and every method speaks in terms of pkg/types values.
package clinic

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/smileworks/clinic-core/internal/export"
	"github.com/smileworks/clinic-core/internal/identity"
	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/internal/scheduling"
	"github.com/smileworks/clinic-core/internal/validation"
	"github.com/smileworks/clinic-core/pkg/config"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/metrics"
	"github.com/smileworks/clinic-core/pkg/rbac"
	"github.com/smileworks/clinic-core/pkg/storage"
	"github.com/smileworks/clinic-core/pkg/types"
)

// Options tunes how the application is assembled. The zero value gives
// an in-memory system with its own metrics registry.
type Options struct {
	// Store and Session default to in-memory implementations.
	Store   storage.Store
	Session storage.Session

	// Registry receives the application's metric collectors. When nil
	// a private registry is created; use Registry() to expose it.
	Registry *prometheus.Registry

	// Logger defaults to a logger at the configured level.
	Logger *logger.Logger

	// ConfirmBulkDelete is asked before a bulk delete runs. Without it
	// bulk deletes are refused.
	ConfirmBulkDelete func(action string, count int) bool
}

// RegisterInput carries the fields of an account registration
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     types.Role
	Phone    string
	DOB      string
	Address  string
}

// BulkOutcome reports per-id results of a bulk appointment action
type BulkOutcome struct {
	Succeeded []string
	Skipped   []string
	Reasons   map[string]string
}

// App is the assembled clinic application
type App struct {
	cfg      *config.Config
	logger   *logger.Logger
	registry *prometheus.Registry
	repo     *repository.Repository
	identity *identity.Service
	sched    *scheduling.Coordinator
	bulk     *scheduling.BulkExecutor
	exporter *export.Exporter
}

// New wires a complete application from configuration
func New(cfg *config.Config, opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = logger.New(cfg.LogLevel)
	}
	store := opts.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	session := opts.Session
	if session == nil {
		session = storage.NewMemorySession()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	collector := metrics.NewCollector(registry)
	repo := repository.New(store, session, log)
	validator := validation.NewEngine(cfg.Clinic)
	notifier := scheduling.NewNotifier(repo, log)
	coordinator := scheduling.NewCoordinator(repo, validator, notifier, collector, log)

	var confirm scheduling.ConfirmFunc
	if opts.ConfirmBulkDelete != nil {
		userConfirm := opts.ConfirmBulkDelete
		confirm = func(action scheduling.BulkAction, count int) bool {
			return userConfirm(string(action), count)
		}
	}

	return &App{
		cfg:      cfg,
		logger:   log,
		registry: registry,
		repo:     repo,
		identity: identity.NewService(repo, validator, identity.NewTokenManager(cfg.Session), collector, log),
		sched:    coordinator,
		bulk:     scheduling.NewBulkExecutor(coordinator, repo, collector, log, confirm),
		exporter: export.NewExporter(repo),
	}
}

// Registry returns the metrics registry the application records into
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}

// HasAccounts reports whether any user account exists yet
func (a *App) HasAccounts() bool {
	return len(a.repo.ListUsers("")) > 0
}

// Register creates a new account
func (a *App) Register(in RegisterInput) (*types.User, error) {
	return a.identity.Register(identity.RegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
		Role:     in.Role,
		Phone:    in.Phone,
		DOB:      in.DOB,
		Address:  in.Address,
	})
}

// Login authenticates and returns the user with a session token
func (a *App) Login(email, password string) (*types.User, string, error) {
	return a.identity.Login(email, password)
}

// Logout ends the current session
func (a *App) Logout() {
	a.identity.Logout()
}

// ChangePassword rotates a user's password after checking the old one
func (a *App) ChangePassword(userID, oldPassword, newPassword string) error {
	return a.identity.ChangePassword(userID, oldPassword, newPassword)
}

// CurrentUser returns the user of the active session, or nil
func (a *App) CurrentUser() *types.User {
	return a.repo.Session().Current()
}

// Book creates a new appointment
func (a *App) Book(actor *types.User, appt *types.Appointment) (*types.Appointment, error) {
	return a.sched.Book(actor, appt)
}

// ConfirmAppointment moves a pending appointment to confirmed
func (a *App) ConfirmAppointment(actor *types.User, id string) (*types.Appointment, error) {
	return a.sched.Confirm(actor, id)
}

// StartAppointment moves a confirmed appointment to in-progress
func (a *App) StartAppointment(actor *types.User, id string) (*types.Appointment, error) {
	return a.sched.Start(actor, id)
}

// CancelAppointment cancels a non-terminal appointment
func (a *App) CancelAppointment(actor *types.User, id string) (*types.Appointment, error) {
	return a.sched.Cancel(actor, id)
}

// CompleteAppointment finishes an appointment and returns its record
func (a *App) CompleteAppointment(actor *types.User, id, notes string) (*types.Appointment, *types.Record, error) {
	return a.sched.Complete(actor, id, notes)
}

// EditAppointment applies changes to a non-terminal appointment
func (a *App) EditAppointment(actor *types.User, id string, updates types.AppointmentUpdates) (*types.Appointment, error) {
	return a.sched.Edit(actor, id, updates)
}

// Appointments lists the appointments visible to the actor
func (a *App) Appointments(actor *types.User, filters types.AppointmentFilters) []*types.Appointment {
	return a.sched.ListFor(actor, filters)
}

// AvailableSlots lists the free booking slots for a dentist and date
func (a *App) AvailableSlots(dentist *types.User, date, service string) []string {
	return a.sched.AvailableSlots(dentist, date, service)
}

// BulkAppointments runs confirm, cancel or delete across many ids
func (a *App) BulkAppointments(actor *types.User, action string, ids []string) (*BulkOutcome, error) {
	res, err := a.bulk.Execute(actor, scheduling.BulkAction(action), ids)
	if err != nil {
		return nil, err
	}
	return &BulkOutcome{Succeeded: res.Succeeded, Skipped: res.Skipped, Reasons: res.Reasons}, nil
}

// Dentists lists the active dentist accounts
func (a *App) Dentists() []*types.User {
	return a.repo.ListDentists()
}

// Patients lists the patient profiles visible to the actor
func (a *App) Patients(actor *types.User) []*types.Patient {
	return rbac.FilterPatients(actor, a.repo.ListPatients(), a.repo.ListAppointments(types.AppointmentFilters{}))
}

// Records lists the treatment records visible to the actor
func (a *App) Records(actor *types.User) []*types.Record {
	return rbac.FilterRecords(actor, a.repo.ListRecords())
}

// RateRecord stores a patient's one-time rating of their own record
func (a *App) RateRecord(actor *types.User, id string, rating int, review string) (*types.Record, error) {
	rec, err := a.repo.GetRecord(id)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(actor, rbac.ActionRateRecord, rec); err != nil {
		return nil, err
	}
	if actor.Role == types.RolePatient && rec.PatientID != actor.ID && !actor.EmailEquals(rec.Email) {
		return nil, types.NewPermissionError(types.ErrCodePermissionDenied,
			"patients may only rate their own records")
	}
	return a.repo.RateRecord(id, rating, review)
}

// DentistRatings summarizes the ratings a dentist has received
func (a *App) DentistRatings(dentist *types.User) types.DentistRatingSummary {
	return a.repo.DentistRatings(dentist)
}

// Notifications lists a user's notifications, newest first
func (a *App) Notifications(userID string) []*types.Notification {
	return a.repo.ListNotifications(userID)
}

// UnreadNotifications counts a user's unread notifications
func (a *App) UnreadNotifications(userID string) int {
	return a.repo.UnreadCount(userID)
}

// MarkNotificationRead marks one notification read
func (a *App) MarkNotificationRead(id string) error {
	return a.repo.MarkNotificationRead(id)
}

// MarkAllNotificationsRead marks all of a user's notifications read
func (a *App) MarkAllNotificationsRead(userID string) error {
	return a.repo.MarkAllNotificationsRead(userID)
}

// ExportAppointmentsCSV writes the actor's visible appointments as CSV
func (a *App) ExportAppointmentsCSV(actor *types.User, w io.Writer) error {
	return a.exporter.Appointments(actor, w)
}

// ExportRecordsCSV writes the actor's visible records as CSV
func (a *App) ExportRecordsCSV(actor *types.User, w io.Writer) error {
	return a.exporter.Records(actor, w)
}

// ExportPatientsCSV writes the actor's visible patients as CSV
func (a *App) ExportPatientsCSV(actor *types.User, w io.Writer) error {
	return a.exporter.Patients(actor, w)
}
