package models

// Permission names a capability checked by route guards and the navigation filter.
type Permission = string

const (
	PermAppointmentsRead   Permission = "appointments.read"
	PermAppointmentsWrite  Permission = "appointments.write"
	PermCurrenciesManage   Permission = "currencies.manage"
	PermServicePricesRead  Permission = "service_prices.read"
	PermServicePricesWrite Permission = "service_prices.write"
	PermSalariesRead       Permission = "salaries.read"
	PermSalariesWrite      Permission = "salaries.write"
	PermInvoicesRead       Permission = "invoices.read"
	PermInvoicesWrite      Permission = "invoices.write"
	PermPrescriptionsRead  Permission = "prescriptions.read"
	PermPrescriptionsWrite Permission = "prescriptions.write"
	PermLabResultsRead     Permission = "lab_results.read"
	PermLabResultsWrite    Permission = "lab_results.write"
	PermExportsCreate      Permission = "exports.create"
	PermUsersManage        Permission = "users.manage"
	PermMetricsRead        Permission = "metrics.read"
)

var allPermissions = []Permission{
	PermAppointmentsRead, PermAppointmentsWrite,
	PermCurrenciesManage,
	PermServicePricesRead, PermServicePricesWrite,
	PermSalariesRead, PermSalariesWrite,
	PermInvoicesRead, PermInvoicesWrite,
	PermPrescriptionsRead, PermPrescriptionsWrite,
	PermLabResultsRead, PermLabResultsWrite,
	PermExportsCreate,
	PermUsersManage,
	PermMetricsRead,
}

// RolePermissions is the static role to permission mapping.
var RolePermissions = map[UserRole][]Permission{
	RoleSuperAdmin: allPermissions,
	RoleAdmin: {
		PermAppointmentsRead, PermAppointmentsWrite,
		PermCurrenciesManage,
		PermServicePricesRead, PermServicePricesWrite,
		PermSalariesRead, PermSalariesWrite,
		PermInvoicesRead, PermInvoicesWrite,
		PermPrescriptionsRead,
		PermLabResultsRead, PermLabResultsWrite,
		PermExportsCreate,
		PermUsersManage,
	},
	RoleDoctor: {
		PermAppointmentsRead, PermAppointmentsWrite,
		PermPrescriptionsRead, PermPrescriptionsWrite,
		PermLabResultsRead,
		PermServicePricesRead,
	},
	RoleStaff: {
		PermAppointmentsRead, PermAppointmentsWrite,
		PermServicePricesRead,
		PermInvoicesRead, PermInvoicesWrite,
		PermLabResultsRead, PermLabResultsWrite,
		PermExportsCreate,
	},
	RolePatient: {
		PermAppointmentsRead,
		PermPrescriptionsRead,
		PermLabResultsRead,
		PermInvoicesRead,
	},
}

// PermissionsFor returns a copy of the role's permissions.
func PermissionsFor(role UserRole) []Permission {
	perms := RolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
