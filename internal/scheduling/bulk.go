package scheduling

import (
	"github.com/smileworks/clinic-core/internal/repository"
	"github.com/smileworks/clinic-core/pkg/logger"
	"github.com/smileworks/clinic-core/pkg/metrics"
	"github.com/smileworks/clinic-core/pkg/rbac"
	"github.com/smileworks/clinic-core/pkg/types"
)

// BulkAction names a bulk operation over appointments
type BulkAction string

const (
	BulkConfirm BulkAction = "confirm"
	BulkCancel  BulkAction = "cancel"
	BulkDelete  BulkAction = "delete"
)

// BulkResult reports per-id outcomes of a bulk action. Skipped ids
// carry the reason they were skipped; one bad id never aborts the
// rest.
type BulkResult struct {
	Succeeded []string          `json:"succeeded"`
	Skipped   []string          `json:"skipped"`
	Reasons   map[string]string `json:"reasons,omitempty"`
}

func (r *BulkResult) ok(id string) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *BulkResult) skip(id string, err error) {
	r.Skipped = append(r.Skipped, id)
	if r.Reasons == nil {
		r.Reasons = make(map[string]string)
	}
	r.Reasons[id] = err.Error()
}

// ConfirmFunc is called before destructive bulk actions run. Returning
// false aborts the whole batch before any item is touched.
type ConfirmFunc func(action BulkAction, count int) bool

// BulkExecutor runs an action across many appointments with per-item
// isolation. Completion is deliberately not a bulk action: it needs
// per-appointment treatment notes.
type BulkExecutor struct {
	coordinator *Coordinator
	repo        *repository.Repository
	metrics     *metrics.Collector
	logger      *logger.Logger
	confirm     ConfirmFunc
}

// NewBulkExecutor wires a bulk executor. confirm may be nil, in which
// case destructive actions are refused outright.
func NewBulkExecutor(coordinator *Coordinator, repo *repository.Repository, collector *metrics.Collector, log *logger.Logger, confirm ConfirmFunc) *BulkExecutor {
	return &BulkExecutor{
		coordinator: coordinator,
		repo:        repo,
		metrics:     collector,
		logger:      log,
		confirm:     confirm,
	}
}

// Execute runs the action over every id. The role check runs once up
// front; per-item permission and state checks still apply inside the
// loop, so a mixed batch partially succeeds.
func (e *BulkExecutor) Execute(actor *types.User, action BulkAction, ids []string) (*BulkResult, error) {
	perm := rbac.ActionBulkUpdate
	if action == BulkDelete {
		perm = rbac.ActionBulkDelete
	}
	if err := rbac.Authorize(actor, perm, nil); err != nil {
		if e.metrics != nil {
			role := ""
			if actor != nil {
				role = string(actor.Role)
			}
			e.metrics.RecordPermissionDenial(string(perm), role)
		}
		return nil, err
	}

	switch action {
	case BulkConfirm, BulkCancel, BulkDelete:
	default:
		return nil, types.NewValidationError(types.ErrCodeBulkUnsupported,
			"unsupported bulk action: "+string(action), nil)
	}

	if action == BulkDelete {
		if e.confirm == nil || !e.confirm(action, len(ids)) {
			return nil, types.NewPermissionError(types.ErrCodePermissionDenied,
				"bulk delete was not confirmed")
		}
	}

	result := &BulkResult{}
	for _, id := range ids {
		var err error
		switch action {
		case BulkConfirm:
			_, err = e.coordinator.Confirm(actor, id)
		case BulkCancel:
			_, err = e.coordinator.Cancel(actor, id)
		case BulkDelete:
			err = e.repo.DeleteAppointment(id)
		}
		if err != nil {
			result.skip(id, err)
			if e.metrics != nil {
				e.metrics.RecordBulkOutcome(string(action), "skipped")
			}
			continue
		}
		result.ok(id)
		if e.metrics != nil {
			e.metrics.RecordBulkOutcome(string(action), "succeeded")
		}
	}

	e.logger.Audit(actor.ID, "bulk_"+string(action), "appointment", len(result.Skipped) == 0, map[string]interface{}{
		"requested": len(ids),
		"succeeded": len(result.Succeeded),
		"skipped":   len(result.Skipped),
	})
	return result, nil
}
