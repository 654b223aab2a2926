package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/entity"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so repositories can be
// rebound to a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const accountColumns = `uid, email, canonical_email, password_hash, first_name, last_name, birth_date, phone_number,
		       is_verified, is_active, verification_token, verification_token_expires_at,
		       reset_token, reset_token_expires_at, registered_at, last_login_at, updated_at`

type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, account *entity.Account) error {
	query := `
		INSERT INTO accounts (uid, email, canonical_email, password_hash, first_name, last_name, birth_date, phone_number, is_verified, is_active, verification_token, verification_token_expires_at, registered_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		account.UID,
		account.Email,
		account.CanonicalEmail,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.BirthDate,
		account.PhoneNumber,
		account.IsVerified,
		account.IsActive,
		account.VerificationToken,
		account.VerificationTokenExpiresAt,
		account.RegisteredAt,
		account.UpdatedAt,
	)
	return err
}

func (r *AccountRepository) FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE canonical_email = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, canonicalEmail))
}

func (r *AccountRepository) FindByUID(ctx context.Context, uid string) (*entity.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE uid = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, uid))
}

func (r *AccountRepository) FindByResetToken(ctx context.Context, token string) (*entity.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts WHERE reset_token = ?
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

func (r *AccountRepository) Update(ctx context.Context, account *entity.Account) error {
	query := `
		UPDATE accounts SET
			email = ?,
			canonical_email = ?,
			password_hash = ?,
			first_name = ?,
			last_name = ?,
			birth_date = ?,
			phone_number = ?,
			is_verified = ?,
			is_active = ?,
			verification_token = ?,
			verification_token_expires_at = ?,
			reset_token = ?,
			reset_token_expires_at = ?,
			updated_at = ?
		WHERE uid = ?
	`
	account.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		account.Email,
		account.CanonicalEmail,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.BirthDate,
		account.PhoneNumber,
		account.IsVerified,
		account.IsActive,
		account.VerificationToken,
		account.VerificationTokenExpiresAt,
		account.ResetToken,
		account.ResetTokenExpiresAt,
		account.UpdatedAt,
		account.UID,
	)
	return err
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, uid string, lastLogin time.Time) error {
	query := `UPDATE accounts SET last_login_at = ?, updated_at = ? WHERE uid = ?`
	_, err := r.db.ExecContext(ctx, query, lastLogin, lastLogin, uid)
	return err
}

func (r *AccountRepository) scanOne(row *sql.Row) (*entity.Account, error) {
	account := &entity.Account{}
	err := row.Scan(
		&account.UID,
		&account.Email,
		&account.CanonicalEmail,
		&account.PasswordHash,
		&account.FirstName,
		&account.LastName,
		&account.BirthDate,
		&account.PhoneNumber,
		&account.IsVerified,
		&account.IsActive,
		&account.VerificationToken,
		&account.VerificationTokenExpiresAt,
		&account.ResetToken,
		&account.ResetTokenExpiresAt,
		&account.RegisteredAt,
		&account.LastLoginAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}
