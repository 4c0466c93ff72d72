package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus instruments for the clinic core.
// Instruments register against the given Registerer, so tests can use
// an isolated registry.
type Collector struct {
	appointmentsCreated *prometheus.CounterVec
	statusTransitions   *prometheus.CounterVec
	permissionDenials   *prometheus.CounterVec
	validationFailures  *prometheus.CounterVec
	bulkOutcomes        *prometheus.CounterVec
	authAttempts        *prometheus.CounterVec
}

// NewCollector creates and registers the clinic metrics
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		appointmentsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_appointments_created_total",
				Help: "Total number of appointments booked",
			},
			[]string{"service", "booked_by_role"},
		),
		statusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_appointment_transitions_total",
				Help: "Total number of appointment status transitions",
			},
			[]string{"from", "to"},
		),
		permissionDenials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_permission_denials_total",
				Help: "Total number of denied actions",
			},
			[]string{"action", "role"},
		),
		validationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_validation_failures_total",
				Help: "Total number of rejected inputs",
			},
			[]string{"entity"},
		),
		bulkOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_bulk_outcomes_total",
				Help: "Per-item outcomes of bulk actions",
			},
			[]string{"action", "outcome"},
		),
		authAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clinic_auth_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"success"},
		),
	}

	reg.MustRegister(
		c.appointmentsCreated,
		c.statusTransitions,
		c.permissionDenials,
		c.validationFailures,
		c.bulkOutcomes,
		c.authAttempts,
	)
	return c
}

// RecordAppointmentCreated counts a successful booking
func (c *Collector) RecordAppointmentCreated(service, role string) {
	c.appointmentsCreated.WithLabelValues(service, role).Inc()
}

// RecordTransition counts one status transition
func (c *Collector) RecordTransition(from, to string) {
	c.statusTransitions.WithLabelValues(from, to).Inc()
}

// RecordPermissionDenial counts a denied action
func (c *Collector) RecordPermissionDenial(action, role string) {
	c.permissionDenials.WithLabelValues(action, role).Inc()
}

// RecordValidationFailure counts a rejected input for an entity kind
func (c *Collector) RecordValidationFailure(entity string) {
	c.validationFailures.WithLabelValues(entity).Inc()
}

// RecordBulkOutcome counts one per-item outcome of a bulk action
func (c *Collector) RecordBulkOutcome(action, outcome string) {
	c.bulkOutcomes.WithLabelValues(action, outcome).Inc()
}

// RecordAuthAttempt counts a login attempt
func (c *Collector) RecordAuthAttempt(success bool) {
	c.authAttempts.WithLabelValues(strconv.FormatBool(success)).Inc()
}
