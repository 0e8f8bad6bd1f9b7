package users

import (
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Registration is the payload accepted by the credential verifier's
// registration entry point.
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required,min=3,alphanum"`
	CPF      string `json:"cpf" validate:"required,len=11,numeric"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field formats and password strength. The password rules are
// shared with administrative password resets, so they live separately from
// the struct tags.
func (r Registration) Validate() error {
	if err := validate.Struct(r); err != nil {
		return errors.Wrap(err, "[Registration.Validate] invalid field format")
	}
	if err := ValidatePasswordStrength(r.Password); err != nil {
		return errors.Wrap(err, "[Registration.Validate] weak password")
	}
	return nil
}
