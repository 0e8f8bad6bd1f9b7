package fakeloader

import (
	"context"
	"errors"
	"sync"

	"github.com/cleanflow/go-client-session/relations"
	"github.com/cleanflow/go-client-session/users"
)

var _ relations.Loader = (*FakeLoader)(nil)

type FakeLoader struct {
	companies  map[string]*relations.Company  // keyed by user id
	employees  map[string]*relations.Employee // keyed by user id
	failWith   error
	autoCreate bool
	lock       sync.RWMutex
}

func NewFakeLoader() *FakeLoader {
	return &FakeLoader{
		companies: make(map[string]*relations.Company),
		employees: make(map[string]*relations.Employee),
	}
}

func (fl *FakeLoader) AddCompany(company *relations.Company) {
	fl.lock.Lock()
	defer fl.lock.Unlock()
	fl.companies[company.UserID] = company
}

func (fl *FakeLoader) AddEmployee(employee *relations.Employee) {
	fl.lock.Lock()
	defer fl.lock.Unlock()
	fl.employees[employee.UserID] = employee
}

// FailWith makes every subsequent Load return err. Pass nil to restore
// normal behaviour.
func (fl *FakeLoader) FailWith(err error) {
	fl.lock.Lock()
	defer fl.lock.Unlock()
	fl.failWith = err
}

// AutoCreateCompanies provisions a company on first lookup for client users
// with no record, mimicking a backend that creates the company row at
// registration time.
func (fl *FakeLoader) AutoCreateCompanies() {
	fl.lock.Lock()
	defer fl.lock.Unlock()
	fl.autoCreate = true
}

func (fl *FakeLoader) Load(_ context.Context, userID string, role users.RoleType) (*relations.Record, error) {
	fl.lock.Lock()
	defer fl.lock.Unlock()

	if fl.failWith != nil {
		return nil, fl.failWith
	}

	switch role {
	case users.RoleAdmin:
		return &relations.Record{}, nil
	case users.RoleClient:
		company, ok := fl.companies[userID]
		if !ok && fl.autoCreate {
			company = &relations.Company{
				ID:                 "company-" + userID,
				UserID:             userID,
				SubscriptionPlan:   relations.PlanBasic,
				SubscriptionStatus: relations.SubscriptionActive,
			}
			fl.companies[userID] = company
			ok = true
		}
		if !ok {
			return nil, errors.New("company not found")
		}
		return &relations.Record{Company: company}, nil
	case users.RoleEmployee:
		employee, ok := fl.employees[userID]
		if !ok {
			return nil, errors.New("employee not found")
		}
		return &relations.Record{Employee: employee}, nil
	}
	return nil, errors.New("unknown role")
}
