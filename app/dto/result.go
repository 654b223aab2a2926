package dto

import "github.com/vibast-solutions/ms-go-accounts/app/entity"

type RegisterResult struct {
	Account           *entity.Account
	VerificationToken string
}

type LoginResult struct {
	Account      *entity.Account
	SessionToken string
	RefreshToken string
	ExpiresIn    int64
}

type PasswordResetResult struct {
	// ResetToken is handed to the notification layer, never to the HTTP
	// caller.
	ResetToken string
}

type RefreshResult struct {
	SessionToken string
	ExpiresIn    int64
}

type ResendVerificationTokenResult struct {
	VerificationToken string
}
