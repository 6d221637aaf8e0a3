package rbac

// Baseline permission every viable session must hold.
const PermDashboardView PermissionKey = "dashboard.view"

// Point of sale and service floor.
const (
	PermPDVView      PermissionKey = "pdv.view"
	PermPDVManage    PermissionKey = "pdv.manage"
	PermWaiterView   PermissionKey = "waiter.view"
	PermWaiterManage PermissionKey = "waiter.manage"
	PermTotemView    PermissionKey = "totem.view"
	PermTotemManage  PermissionKey = "totem.manage"

	PermDeliveryView   PermissionKey = "delivery.view"
	PermDeliveryManage PermissionKey = "delivery.manage"
)

// Back office.
const (
	PermInventoryView   PermissionKey = "inventory.view"
	PermInventoryManage PermissionKey = "inventory.manage"

	PermFinancialView    PermissionKey = "financial.view"
	PermFinancialManage  PermissionKey = "financial.manage"
	PermFinancialReports PermissionKey = "financial.reports"

	PermFiscalView   PermissionKey = "fiscal.view"
	PermFiscalManage PermissionKey = "fiscal.manage"

	PermReportsView   PermissionKey = "reports.view"
	PermReportsManage PermissionKey = "reports.manage"

	PermMarketingView   PermissionKey = "marketing.view"
	PermMarketingManage PermissionKey = "marketing.manage"

	PermAIView   PermissionKey = "ai.view"
	PermAIManage PermissionKey = "ai.manage"

	PermSupportView   PermissionKey = "support.view"
	PermSupportManage PermissionKey = "support.manage"
)

// Platform administration.
const (
	PermSettingsView   PermissionKey = "settings.view"
	PermSettingsManage PermissionKey = "settings.manage"

	PermUsersView   PermissionKey = "users.view"
	PermUsersManage PermissionKey = "users.manage"

	PermSecurityView   PermissionKey = "security.view"
	PermSecurityManage PermissionKey = "security.manage"

	PermWhiteLabelView   PermissionKey = "white-label.view"
	PermWhiteLabelManage PermissionKey = "white-label.manage"

	PermMultitenancyView   PermissionKey = "multitenancy.view"
	PermMultitenancyManage PermissionKey = "multitenancy.manage"

	PermLicensingView   PermissionKey = "licensing.view"
	PermLicensingManage PermissionKey = "licensing.manage"

	PermIntegrationsView   PermissionKey = "integrations.view"
	PermIntegrationsManage PermissionKey = "integrations.manage"
)

var (
	everyone   = []Role{RoleAdmin, RoleManager, RoleCashier, RoleWaiter}
	backOffice = []Role{RoleAdmin, RoleManager}
	frontDesk  = []Role{RoleAdmin, RoleManager, RoleCashier}
	floorStaff = []Role{RoleAdmin, RoleManager, RoleWaiter}
	adminOnly  = []Role{RoleAdmin}
)

// defaultPolicy is the product's role grant table.
var defaultPolicy = map[PermissionKey][]Role{
	PermDashboardView: everyone,

	PermPDVView:        everyone,
	PermPDVManage:      frontDesk,
	PermWaiterView:     floorStaff,
	PermWaiterManage:   floorStaff,
	PermTotemView:      backOffice,
	PermTotemManage:    adminOnly,
	PermDeliveryView:   frontDesk,
	PermDeliveryManage: backOffice,

	PermInventoryView:    backOffice,
	PermInventoryManage:  backOffice,
	PermFinancialView:    backOffice,
	PermFinancialManage:  adminOnly,
	PermFinancialReports: backOffice,
	PermFiscalView:       frontDesk,
	PermFiscalManage:     adminOnly,
	PermReportsView:      frontDesk,
	PermReportsManage:    backOffice,
	PermMarketingView:    backOffice,
	PermMarketingManage:  backOffice,
	PermAIView:           backOffice,
	PermAIManage:         adminOnly,
	PermSupportView:      everyone,
	PermSupportManage:    adminOnly,

	PermSettingsView:       backOffice,
	PermSettingsManage:     adminOnly,
	PermUsersView:          backOffice,
	PermUsersManage:        adminOnly,
	PermSecurityView:       adminOnly,
	PermSecurityManage:     adminOnly,
	PermWhiteLabelView:     adminOnly,
	PermWhiteLabelManage:   adminOnly,
	PermMultitenancyView:   adminOnly,
	PermMultitenancyManage: adminOnly,
	PermLicensingView:      adminOnly,
	PermLicensingManage:    adminOnly,
	PermIntegrationsView:   backOffice,
	PermIntegrationsManage: adminOnly,
}
