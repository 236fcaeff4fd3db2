// Package validation checks form input before it reaches the gateway.
//
// Rules are expressed as go-playground/validator struct tags; Validate turns
// the validator's output into a field → message map that screens render next
// to each input.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/gobarber/internal/apperror"
)

// MinPasswordLength is shared by sign-up and profile password changes.
const MinPasswordLength = 6

// SignInForm is the sign-in screen's input.
type SignInForm struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUpForm is the sign-up screen's input.
type SignUpForm struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// ProfileForm is the profile screen's input. The password fields only matter
// when OldPassword is filled in.
type ProfileForm struct {
	Name                 string `json:"name"                  validate:"required"`
	Email                string `json:"email"                 validate:"required,email"`
	OldPassword          string `json:"old_password"`
	Password             string `json:"password"              validate:"omitempty,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"omitempty,eqfield=Password"`
}

// ChangesPassword reports whether the form asks for a password change.
func (f ProfileForm) ChangesPassword() bool {
	return f.OldPassword != ""
}

// Errors maps a form field (its JSON name) to the message shown next to it.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, apperror.ErrValidation) match.
func (e Errors) Unwrap() error {
	return apperror.ErrValidation
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their JSON name, the same keys the form binds to
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterStructValidation(profilePasswordRules, ProfileForm{})
	return v
}

// profilePasswordRules: once the current password is given, the new password
// and its confirmation become required.
func profilePasswordRules(sl validator.StructLevel) {
	f := sl.Current().Interface().(ProfileForm)
	if !f.ChangesPassword() {
		return
	}
	if f.Password == "" {
		sl.ReportError(f.Password, "password", "Password", "required", "")
	}
	if f.PasswordConfirmation == "" {
		sl.ReportError(f.PasswordConfirmation, "password_confirmation", "PasswordConfirmation", "required", "")
	}
}

// Validate checks form and returns nil or Errors.
func Validate(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation: %w", err)
	}

	out := Errors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag(), fe.Param())
	}
	return out
}

// FieldErrors extracts the per-field messages from err. Any error that is not
// a validation failure yields nil.
func FieldErrors(err error) Errors {
	var verrs Errors
	if errors.As(err, &verrs) {
		return verrs
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation) && appErr.Field != "" {
		return Errors{appErr.Field: appErr.Message}
	}
	return nil
}

func message(field, tag, param string) string {
	switch tag {
	case "required":
		switch field {
		case "password_confirmation":
			return "confirm the new password"
		default:
			return field + " is required"
		}
	case "email":
		return "enter a valid email"
	case "min":
		return fmt.Sprintf("%s must have at least %s characters", field, param)
	case "eqfield":
		return "confirmation does not match"
	default:
		return field + " is invalid"
	}
}
