package users

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/jrsteele09/go-auth-client/internal/errors"
)

// SignUpForm is the body of the registration call.
type SignUpForm struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

func (f SignUpForm) Validate() error {
	if strings.TrimSpace(f.Username) == "" {
		return invalid("username is required")
	}
	if err := validateEmail(f.Email); err != nil {
		return err
	}
	if err := ValidatePasswordStrength(f.Password); err != nil {
		return invalid(err.Error())
	}
	return nil
}

// SignInForm is the body of the login call.
type SignInForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f SignInForm) Validate() error {
	if err := validateEmail(f.Email); err != nil {
		return err
	}
	if f.Password == "" {
		return invalid("password is required")
	}
	return nil
}

// ProfileUpdate carries the profile fields to change. Nil fields are left untouched.
type ProfileUpdate struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

func (u ProfileUpdate) Validate() error {
	if u.Username == nil && u.Email == nil && u.FirstName == nil && u.LastName == nil {
		return invalid("no profile fields to update")
	}
	if u.Username != nil && strings.TrimSpace(*u.Username) == "" {
		return invalid("username cannot be empty")
	}
	if u.Email != nil {
		return validateEmail(*u.Email)
	}
	return nil
}

// PasswordChange is the body of the change password call.
type PasswordChange struct {
	UserID      string `json:"userId,omitempty"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (p PasswordChange) Validate() error {
	if p.OldPassword == "" {
		return invalid("current password is required")
	}
	if p.NewPassword == p.OldPassword {
		return invalid("new password must differ from the current one")
	}
	if err := ValidatePasswordStrength(p.NewPassword); err != nil {
		return invalid(err.Error())
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid(fmt.Sprintf("invalid email address %q", email))
	}
	return nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", errors.ErrInvalidRequest, reason)
}
