package http

import (
	"errors"
	"strings"
)

type RegisterProfile struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	BirthDate   string `json:"birth_date,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type RegisterRequest struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Profile  RegisterProfile `json:"profile"`
}

func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("email and password are required")
	}
	if strings.TrimSpace(r.Profile.FirstName) == "" || strings.TrimSpace(r.Profile.LastName) == "" {
		return errors.New("first_name and last_name are required")
	}
	return nil
}

type LoginRequest struct {
	LoginID  string `json:"login_id"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.LoginID) == "" || strings.TrimSpace(r.Password) == "" {
		return errors.New("login_id and password are required")
	}
	return nil
}

type VerifyRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (r *VerifyRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" || strings.TrimSpace(r.Token) == "" {
		return errors.New("email and token are required")
	}
	return nil
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

func (r *PasswordResetRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (r *PasswordResetConfirmRequest) Validate() error {
	if strings.TrimSpace(r.Token) == "" || strings.TrimSpace(r.NewPassword) == "" {
		return errors.New("token and new_password are required")
	}
	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	if strings.TrimSpace(r.RefreshToken) == "" {
		return errors.New("refresh_token is required")
	}
	return nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (r *ChangePasswordRequest) Validate() error {
	if strings.TrimSpace(r.OldPassword) == "" || strings.TrimSpace(r.NewPassword) == "" {
		return errors.New("old_password and new_password are required")
	}
	return nil
}

type ResendVerificationTokenRequest struct {
	Email string `json:"email"`
}

func (r *ResendVerificationTokenRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	return nil
}

// UpdateProfileProfile carries the sparse profile update: a nil field means
// "leave unchanged", not "clear".
type UpdateProfileProfile struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	BirthDate   *string `json:"birth_date,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

type UpdateProfileRequest struct {
	Profile UpdateProfileProfile `json:"profile"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r.Profile.FirstName == nil && r.Profile.LastName == nil &&
		r.Profile.BirthDate == nil && r.Profile.PhoneNumber == nil {
		return errors.New("at least one profile field is required")
	}
	return nil
}
