// Package forms validates user input before anything is sent to the auth or
// storage service.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/go-playground/validator/v10"
)

const (
	SignUpMinPassword = 6
	// ResetMinPassword applies to password resets and changes from the
	// account page.
	ResetMinPassword = 8
)

// Fields are checked in declaration order and only the first problem is
// reported, so the order below is the order users see messages in.

type SignUp struct {
	Email           string `json:"email" validate:"required,email"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	Password        string `json:"password" validate:"required,min=6"`
	FullName        string `json:"full_name" validate:"max=200"`
	CompanyName     string `json:"company_name" validate:"max=200"`
}

type SignIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PasswordReset struct {
	Email string `json:"email" validate:"required,email"`
}

type NewPassword struct {
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

type Contact struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Company string `json:"company" validate:"max=200"`
	Phone   string `json:"phone" validate:"max=50"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type Profile struct {
	FullName    *string `json:"full_name" validate:"omitempty,max=200"`
	CompanyName *string `json:"company_name" validate:"omitempty,max=200"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	// A pointer to "" clears the stored avatar.
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url_or_empty,max=2048"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// omitempty does not skip a non-nil pointer to "", which is how a partial
	// update asks for a column to be cleared.
	_ = v.RegisterValidation("url_or_empty", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || v.Var(value, "url") == nil
	})
	return v
}

// Validate checks form and returns a KindValidation error carrying a message
// fit to show the user.
func Validate(form any) error {
	const op = "forms.validate"

	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.KindValidation, op, err)
	}
	return apperr.New(apperr.KindValidation, op, message(verrs[0]))
}

func message(fe validator.FieldError) string {
	switch fe.StructField() + "." + fe.Tag() {
	case "ConfirmPassword.eqfield":
		return "Passwords do not match"
	case "Password.min":
		return fmt.Sprintf("Password must be at least %s characters long", fe.Param())
	}

	field := label(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Please enter a valid email address"
	case "url", "url_or_empty":
		return field + " must be a valid URL"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}

func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
