package rbac

import (
	"github.com/smileworks/clinic-core/pkg/types"
)

// rolePermissions is the static role/permission matrix. A permission
// absent from a role's map is denied; only explicit true grants.
var rolePermissions = map[types.Role]map[Permission]bool{
	types.RoleAdmin: {
		PermCreateAppointment:   true,
		PermEditAppointment:     true,
		PermDeleteAppointment:   true,
		PermCancelAppointment:   true,
		PermConfirmAppointment:  true,
		PermCompleteAppointment: true,
		PermViewAllAppointments: true,
		PermCreatePatient:       true,
		PermEditPatient:         true,
		PermDeletePatient:       true,
		PermViewAllPatients:     true,
		PermCreateUser:          true,
		PermEditUser:            true,
		PermDeleteUser:          true,
		PermViewUsers:           true,
		PermCreateRecord:        true,
		PermEditRecord:          true,
		PermDeleteRecord:        true,
		PermViewAllRecords:      true,
		PermBulkUpdate:          true,
		PermBulkDelete:          true,
		PermEditOwnProfile:      true,
		PermManageSettings:      true,
		PermViewReports:         true,
		PermViewRevenue:         true,
		PermExportData:          true,
	},
	types.RoleDentist: {
		PermCreateAppointment:   true,
		PermEditAppointment:     true,
		PermCancelAppointment:   true,
		PermConfirmAppointment:  true,
		PermCompleteAppointment: true,
		PermViewAllAppointments: true,
		PermViewOwnAppointments: true,
		PermCreatePatient:       true,
		PermEditPatient:         true,
		PermViewAllPatients:     true,
		PermViewOwnPatients:     true,
		PermCreateRecord:        true,
		PermEditRecord:          true,
		PermViewAllRecords:      true,
		PermViewOwnRecords:      true,
		PermBulkUpdate:          true,
		PermEditOwnProfile:      true,
		PermExportData:          true,
	},
	types.RolePatient: {
		PermCreateAppointment:   true,
		PermViewOwnAppointments: true,
		PermViewOwnPatients:     true,
		PermViewOwnRecords:      true,
		PermRateRecord:          true,
		PermEditOwnProfile:      true,
	},
}

// HasPermission reports whether the user's role grants the named
// permission. Nil users and unknown roles hold nothing.
func HasPermission(user *types.User, perm Permission) bool {
	if user == nil || !user.Role.IsValid() {
		return false
	}

	perms, ok := rolePermissions[user.Role]
	if !ok {
		return false
	}
	return perms[perm]
}

// RolePermissions returns a copy of the grants for a role. Unknown
// roles yield an empty map.
func RolePermissions(role types.Role) map[Permission]bool {
	out := make(map[Permission]bool)
	for perm, granted := range rolePermissions[role] {
		if granted {
			out[perm] = true
		}
	}
	return out
}
