package auth

import (
	"github.com/cleanflow/go-client-session/relations"
	"github.com/cleanflow/go-client-session/users"
)

// State is the authenticated state published to UI consumers. It is always
// internally consistent: IsAuthenticated is true iff User is non-nil, and
// Loading is true only during the initial restoration pass or an in-flight
// login/signup call.
type State struct {
	User            *users.User
	Company         *relations.Company
	Employee        *relations.Employee
	Loading         bool
	IsAuthenticated bool
}

// IsAdmin reports whether the authenticated user holds the admin role.
func (s State) IsAdmin() bool {
	return s.User != nil && s.User.Role == users.RoleAdmin
}

// IsClient reports whether the authenticated user holds the client role.
func (s State) IsClient() bool {
	return s.User != nil && s.User.Role == users.RoleClient
}

// IsEmployee reports whether the authenticated user holds the employee role.
func (s State) IsEmployee() bool {
	return s.User != nil && s.User.Role == users.RoleEmployee
}

func unauthenticated(loading bool) State {
	return State{Loading: loading}
}

func authenticated(user *users.User, record *relations.Record) State {
	state := State{
		User:            user,
		IsAuthenticated: true,
	}
	if record == nil {
		return state
	}
	switch user.Role {
	case users.RoleClient:
		state.Company = record.Company
	case users.RoleEmployee:
		state.Employee = record.Employee
	}
	return state
}
