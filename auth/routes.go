package auth

import "github.com/cleanflow/go-client-session/users"

// Dashboard routes per role. Anything unrecognized falls back to the login
// route: the mapping must stay total over future role values.
const (
	LoginRoute    = "/login"
	AdminRoute    = "/admin"
	ClientRoute   = "/client"
	EmployeeRoute = "/employee"
)

// RouteForRole maps a role to its dashboard route. Pure, no side effects.
func RouteForRole(role users.RoleType) string {
	switch role {
	case users.RoleAdmin:
		return AdminRoute
	case users.RoleClient:
		return ClientRoute
	case users.RoleEmployee:
		return EmployeeRoute
	default:
		return LoginRoute
	}
}
