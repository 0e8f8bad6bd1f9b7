// Package verifier implements the credential verification contract over a
// user repository. The session core treats it as an external collaborator;
// this reference implementation exists so the module works end to end
// without a remote backend.
package verifier

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/cleanflow/go-client-session/users"
)

// Service validates login credentials and registers new accounts.
type Service struct {
	repo    users.Repo
	nowFunc func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func New(repo users.Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[verifier.New] users repo is required")
	}
	s := &Service{
		repo:    repo,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login validates email and password. Unknown email, wrong password and
// inactive accounts all yield the same credential error: callers learn
// nothing about which check failed.
func (s *Service) Login(_ context.Context, email, password string) (*users.User, error) {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, InvalidCredentialsErr
	}
	if !user.Active {
		return nil, InvalidCredentialsErr
	}
	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, InvalidCredentialsErr
	}
	return user, nil
}

// Register creates a new client account. It fails on duplicate email,
// username or cpf and on invalid field formats. It does not log the user in.
func (s *Service) Register(_ context.Context, registration users.Registration) (*users.User, error) {
	if err := registration.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(registration.Email); err == nil {
		return nil, EmailInUseErr
	}
	if _, err := s.repo.GetByUsername(registration.Username); err == nil {
		return nil, UsernameInUseErr
	}
	if _, err := s.repo.GetByCPF(registration.CPF); err == nil {
		return nil, CPFInUseErr
	}

	hash, err := users.HashPassword(registration.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] hashing password")
	}

	now := s.nowFunc()
	user := &users.User{
		Email:        registration.Email,
		Username:     registration.Username,
		CPF:          registration.CPF,
		PasswordHash: hash,
		Name:         registration.Name,
		Role:         users.RoleClient,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] storing user")
	}
	return user, nil
}
