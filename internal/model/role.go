package model

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const (
	PrivTerminalUse = "terminal:use"
	PrivSaleCreate  = "sale:create"
	PrivSaleView    = "sale:view"
	PrivUserManage  = "user:manage"
)

// RolePrivileges maps each role to the privilege codes baked into its tokens.
var RolePrivileges = map[string][]string{
	RoleAdmin:   {PrivTerminalUse, PrivSaleCreate, PrivSaleView, PrivUserManage},
	RoleCashier: {PrivTerminalUse, PrivSaleCreate},
}

func ValidRole(role string) bool {
	_, ok := RolePrivileges[role]
	return ok
}
