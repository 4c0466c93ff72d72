package rbac

import (
	"fmt"

	"github.com/smileworks/clinic-core/pkg/types"
)

// ownershipActions are actions a patient may perform on their own rows
// even though the role matrix does not grant the blanket permission.
var ownershipActions = map[Action]bool{
	ActionEditAppointment:   true,
	ActionCancelAppointment: true,
	ActionEditPatient:       true,
}

// CanPerformAction decides whether the user may run the action against
// the given resource. The role matrix answers first; patients then get
// a row-level ownership check for their own appointments and profile.
// A nil resource is fine for actions that do not target a row.
func CanPerformAction(user *types.User, action Action, resource interface{}) bool {
	if user == nil {
		return false
	}

	perm, ok := actionPermissions[action]
	if !ok {
		return false
	}
	if HasPermission(user, perm) {
		return true
	}

	if user.Role != types.RolePatient || !ownershipActions[action] {
		return false
	}

	switch res := resource.(type) {
	case *types.Appointment:
		return appointmentBelongsToPatient(user, res)
	case *types.Patient:
		if res == nil {
			return false
		}
		return res.UserID == user.ID || user.EmailEquals(res.Email)
	}
	return false
}

// Authorize wraps CanPerformAction with a typed permission error for
// callers that propagate failures instead of branching.
func Authorize(user *types.User, action Action, resource interface{}) error {
	if CanPerformAction(user, action, resource) {
		return nil
	}
	name := "anonymous"
	if user != nil {
		name = string(user.Role)
	}
	return types.NewPermissionError(
		types.ErrCodePermissionDenied,
		fmt.Sprintf("%s is not allowed to %s", name, action),
	)
}

// CanAccessView reports whether a user may open a navigation surface.
// Patients are held to the fixed allow-list; staff views resolve
// through the role matrix, so granting or revoking a permission moves
// the corresponding view with it.
func CanAccessView(user *types.User, view View) bool {
	if user == nil {
		return false
	}
	if user.Role == types.RolePatient {
		return patientViews[view]
	}

	switch view {
	case ViewDashboard, ViewNotifications:
		return true
	case ViewBook:
		return HasPermission(user, PermCreateAppointment)
	case ViewAppointments:
		return HasPermission(user, PermViewAllAppointments) || HasPermission(user, PermViewOwnAppointments)
	case ViewPatients:
		return HasPermission(user, PermViewAllPatients) || HasPermission(user, PermViewOwnPatients)
	case ViewRecords:
		return HasPermission(user, PermViewAllRecords) || HasPermission(user, PermViewOwnRecords)
	case ViewUsers:
		return HasPermission(user, PermViewUsers)
	case ViewSettings:
		return HasPermission(user, PermEditOwnProfile)
	case ViewReports:
		return HasPermission(user, PermViewReports)
	case ViewRevenue:
		return HasPermission(user, PermViewRevenue)
	}
	return false
}
