// Package relations holds the role-linked records associated with a user
// account: a Company for clients, an Employee for staff. Records are looked
// up by user id and role on every session establishment, never stored with
// the session.
package relations

import (
	"context"
	"time"

	"github.com/cleanflow/go-client-session/users"
)

type SubscriptionPlan string

const (
	PlanBasic      SubscriptionPlan = "basic"
	PlanPremium    SubscriptionPlan = "premium"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionInactive  SubscriptionStatus = "inactive"
	SubscriptionSuspended SubscriptionStatus = "suspended"
)

// Company is the record linked to a client-role user.
type Company struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone,omitempty"`
	Address            string             `json:"address,omitempty"`
	City               string             `json:"city,omitempty"`
	State              string             `json:"state,omitempty"`
	ZipCode            string             `json:"zip_code,omitempty"`
	SubscriptionPlan   SubscriptionPlan   `json:"subscription_plan"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	UserID             string             `json:"user_id"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Employee is the record linked to an employee-role user.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Position  string    `json:"position,omitempty"`
	CompanyID string    `json:"company_id"`
	UserID    string    `json:"user_id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Record is whichever role-linked entity exists for a user. For admins both
// fields are nil: the role carries no record by contract.
type Record struct {
	Company  *Company
	Employee *Employee
}

// Loader fetches the role-linked record for a user. Implementations back
// onto the remote data source; the session core only depends on this
// contract. Load must return an empty Record and no error for the admin
// role, and an error for a client or employee with no linked record.
type Loader interface {
	Load(ctx context.Context, userID string, role users.RoleType) (*Record, error)
}
