package service

import "errors"

// Sentinel errors forming the closed outcome taxonomy of account operations.
// The transport boundary maps each one to a stable code and status; nothing
// here knows about HTTP.
var (
	ErrDuplicateEmail           = errors.New("email already registered")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrAccountNotVerified       = errors.New("account not verified")
	ErrAccountInactive          = errors.New("account inactive")
	ErrUserNotFound             = errors.New("user not found")
	ErrInvalidVerificationToken = errors.New("invalid verification token")
	ErrVerificationTokenExpired = errors.New("verification token has expired")
	ErrInvalidResetToken        = errors.New("invalid reset token")
	ErrResetTokenExpired        = errors.New("reset token has expired")
	ErrInvalidToken             = errors.New("invalid or expired token")
	ErrExpiredToken             = errors.New("token has expired")
	ErrMissingAuthorization     = errors.New("missing authorization")
	ErrPasswordMismatch         = errors.New("old password is incorrect")
	ErrWeakPassword             = errors.New("password does not meet policy requirements")
	ErrAccountAlreadyVerified   = errors.New("account is already verified")
	ErrInvalidBirthDate         = errors.New("birth date must be in YYYY-MM-DD format")
)
