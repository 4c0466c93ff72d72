package rbac

// Permission is a closed set of named capabilities. Using a dedicated
// type keeps unknown-permission typos from silently resolving to a
// denial at runtime.
type Permission string

const (
	// Appointments
	PermCreateAppointment   Permission = "createAppointment"
	PermEditAppointment     Permission = "editAppointment"
	PermDeleteAppointment   Permission = "deleteAppointment"
	PermCancelAppointment   Permission = "cancelAppointment"
	PermConfirmAppointment  Permission = "confirmAppointment"
	PermCompleteAppointment Permission = "completeAppointment"
	PermViewAllAppointments Permission = "viewAllAppointments"
	PermViewOwnAppointments Permission = "viewOwnAppointments"

	// Patients
	PermCreatePatient   Permission = "createPatient"
	PermEditPatient     Permission = "editPatient"
	PermDeletePatient   Permission = "deletePatient"
	PermViewAllPatients Permission = "viewAllPatients"
	PermViewOwnPatients Permission = "viewOwnPatients"

	// Users
	PermCreateUser Permission = "createUser"
	PermEditUser   Permission = "editUser"
	PermDeleteUser Permission = "deleteUser"
	PermViewUsers  Permission = "viewUsers"

	// Treatment records
	PermCreateRecord   Permission = "createRecord"
	PermEditRecord     Permission = "editRecord"
	PermDeleteRecord   Permission = "deleteRecord"
	PermViewAllRecords Permission = "viewAllRecords"
	PermViewOwnRecords Permission = "viewOwnRecords"
	PermRateRecord     Permission = "rateRecord"

	// Bulk operations
	PermBulkUpdate Permission = "bulkUpdate"
	PermBulkDelete Permission = "bulkDelete"

	// Profile, settings, reporting
	PermEditOwnProfile Permission = "editOwnProfile"
	PermManageSettings Permission = "manageSettings"
	PermViewReports    Permission = "viewReports"
	PermViewRevenue    Permission = "viewRevenue"
	PermExportData     Permission = "exportData"
)

// Action names the operations callers request. Actions map onto
// permissions through actionPermissions; ownership-sensitive actions
// additionally get a row-level check for patients.
type Action string

const (
	ActionCreateAppointment   Action = "createAppointment"
	ActionEditAppointment     Action = "editAppointment"
	ActionDeleteAppointment   Action = "deleteAppointment"
	ActionCancelAppointment   Action = "cancelAppointment"
	ActionConfirmAppointment  Action = "confirmAppointment"
	ActionCompleteAppointment Action = "completeAppointment"
	ActionCreatePatient       Action = "createPatient"
	ActionEditPatient         Action = "editPatient"
	ActionDeletePatient       Action = "deletePatient"
	ActionCreateUser          Action = "createUser"
	ActionEditUser            Action = "editUser"
	ActionDeleteUser          Action = "deleteUser"
	ActionCreateRecord        Action = "createRecord"
	ActionEditRecord          Action = "editRecord"
	ActionDeleteRecord        Action = "deleteRecord"
	ActionRateRecord          Action = "rateRecord"
	ActionBulkUpdate          Action = "bulkUpdate"
	ActionBulkDelete          Action = "bulkDelete"
	ActionExportData          Action = "exportData"
)

// actionPermissions maps actions to the permission they require.
// Unmapped actions are denied.
var actionPermissions = map[Action]Permission{
	ActionCreateAppointment:   PermCreateAppointment,
	ActionEditAppointment:     PermEditAppointment,
	ActionDeleteAppointment:   PermDeleteAppointment,
	ActionCancelAppointment:   PermCancelAppointment,
	ActionConfirmAppointment:  PermConfirmAppointment,
	ActionCompleteAppointment: PermCompleteAppointment,
	ActionCreatePatient:       PermCreatePatient,
	ActionEditPatient:         PermEditPatient,
	ActionDeletePatient:       PermDeletePatient,
	ActionCreateUser:          PermCreateUser,
	ActionEditUser:            PermEditUser,
	ActionDeleteUser:          PermDeleteUser,
	ActionCreateRecord:        PermCreateRecord,
	ActionEditRecord:          PermEditRecord,
	ActionDeleteRecord:        PermDeleteRecord,
	ActionRateRecord:          PermRateRecord,
	ActionBulkUpdate:          PermBulkUpdate,
	ActionBulkDelete:          PermBulkDelete,
	ActionExportData:          PermExportData,
}

// View names the navigable surfaces of the application
type View string

const (
	ViewDashboard     View = "dashboard"
	ViewBook          View = "book"
	ViewAppointments  View = "appointments"
	ViewPatients      View = "patients"
	ViewRecords       View = "records"
	ViewUsers         View = "users"
	ViewSettings      View = "settings"
	ViewReports       View = "reports"
	ViewRevenue       View = "revenue"
	ViewNotifications View = "notifications"
)

// patientViews is the fixed allow-list of views a patient may open
var patientViews = map[View]bool{
	ViewDashboard:     true,
	ViewBook:          true,
	ViewAppointments:  true,
	ViewRecords:       true,
	ViewSettings:      true,
	ViewNotifications: true,
}
