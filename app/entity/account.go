package entity

import (
	"database/sql"
	"time"
)

// Account is the persisted user record. UID is assigned once at creation and
// never changes; CanonicalEmail is the lower-cased lookup key enforcing
// case-insensitive email uniqueness.
type Account struct {
	UID                        string
	Email                      string
	CanonicalEmail             string
	PasswordHash               string
	FirstName                  string
	LastName                   string
	BirthDate                  sql.NullTime
	PhoneNumber                sql.NullString
	IsVerified                 bool
	IsActive                   bool
	VerificationToken          sql.NullString
	VerificationTokenExpiresAt sql.NullTime
	ResetToken                 sql.NullString
	ResetTokenExpiresAt        sql.NullTime
	RegisteredAt               time.Time
	LastLoginAt                sql.NullTime
	UpdatedAt                  time.Time
}

// RefreshToken rows are never updated; rotation is delete plus insert so an
// account holds at most one live token.
type RefreshToken struct {
	ID         uint64
	AccountUID string
	Token      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}
