package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/dto"
	httpdto "github.com/vibast-solutions/ms-go-accounts/app/dto/http"
	"github.com/vibast-solutions/ms-go-accounts/app/entity"
	"github.com/vibast-solutions/ms-go-accounts/app/repository"
	"github.com/vibast-solutions/ms-go-accounts/config"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const birthDateLayout = "2006-01-02"

type accountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	FindByCanonicalEmail(ctx context.Context, canonicalEmail string) (*entity.Account, error)
	FindByUID(ctx context.Context, uid string) (*entity.Account, error)
	FindByResetToken(ctx context.Context, token string) (*entity.Account, error)
	Update(ctx context.Context, account *entity.Account) error
	UpdateLastLogin(ctx context.Context, uid string, lastLogin time.Time) error
}

type refreshTokenRepository interface {
	Create(ctx context.Context, token *entity.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	DeleteByAccountUID(ctx context.Context, accountUID string) error
}

type AccountService interface {
	Register(ctx context.Context, req *httpdto.RegisterRequest) (*dto.RegisterResult, error)
	VerifyEmail(ctx context.Context, req *httpdto.VerifyRequest) error
	Login(ctx context.Context, req *httpdto.LoginRequest) (*dto.LoginResult, error)
	RequestPasswordReset(ctx context.Context, req *httpdto.PasswordResetRequest) (*dto.PasswordResetResult, error)
	ResetPassword(ctx context.Context, req *httpdto.PasswordResetConfirmRequest) error
	RefreshSession(ctx context.Context, req *httpdto.RefreshTokenRequest) (*dto.RefreshResult, error)
	Logout(ctx context.Context, accountUID string) error
	ChangePassword(ctx context.Context, accountUID string, req *httpdto.ChangePasswordRequest) error
	ResendVerificationToken(ctx context.Context, req *httpdto.ResendVerificationTokenRequest) (*dto.ResendVerificationTokenResult, error)
	GetAccountInfo(ctx context.Context, accountUID string) (*entity.Account, error)
	UpdateProfile(ctx context.Context, accountUID string, req *httpdto.UpdateProfileRequest) (*entity.Account, error)
	ValidateSessionToken(tokenString string) (*SessionClaims, error)
}

type AccountServiceOption func(*accountService)

type accountService struct {
	db           *sql.DB
	accounts     accountRepository
	refreshRepo  refreshTokenRepository
	sessionCodec *SessionTokenCodec
	cfg          *config.Config
	now          func() time.Time
}

func NewAccountService(
	db *sql.DB,
	accounts accountRepository,
	refreshRepo refreshTokenRepository,
	cfg *config.Config,
	opts ...AccountServiceOption,
) AccountService {
	svc := &accountService{
		db:           db,
		accounts:     accounts,
		refreshRepo:  refreshRepo,
		sessionCodec: NewSessionTokenCodec(cfg.JWTSecret, cfg.SessionTokenTTL),
		cfg:          cfg,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// WithClock overrides the service's time source, used by tests to pin token
// expiry boundaries.
func WithClock(now func() time.Time) AccountServiceOption {
	return func(s *accountService) {
		if now != nil {
			s.now = now
		}
	}
}

// Register creates an unverified active account and mints its verification
// token. The duplicate-email check runs before any hashing or token work so
// a collision leaves no partial state.
func (s *accountService) Register(ctx context.Context, req *httpdto.RegisterRequest) (*dto.RegisterResult, error) {
	canonicalEmail := CanonicalizeEmail(req.Email)

	existing, err := s.accounts.FindByCanonicalEmail(ctx, canonicalEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	if err = s.cfg.PasswordPolicy.Validate(req.Password); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	var birthDate sql.NullTime
	if req.Profile.BirthDate != "" {
		parsed, err := time.Parse(birthDateLayout, req.Profile.BirthDate)
		if err != nil {
			return nil, ErrInvalidBirthDate
		}
		birthDate = sql.NullTime{Time: parsed, Valid: true}
	}

	passwordHash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	verificationToken := GenerateSecretToken()

	account := &entity.Account{
		UID:               uuid.New().String(),
		Email:             req.Email,
		CanonicalEmail:    canonicalEmail,
		PasswordHash:      passwordHash,
		FirstName:         req.Profile.FirstName,
		LastName:          req.Profile.LastName,
		BirthDate:         birthDate,
		IsVerified:        false,
		IsActive:          true,
		VerificationToken: sql.NullString{String: verificationToken, Valid: true},
		VerificationTokenExpiresAt: sql.NullTime{
			Time:  now.Add(s.cfg.VerificationTokenTTL),
			Valid: true,
		},
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if req.Profile.PhoneNumber != "" {
		account.PhoneNumber = sql.NullString{String: req.Profile.PhoneNumber, Valid: true}
	}

	if err = s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	return &dto.RegisterResult{
		Account:           account,
		VerificationToken: verificationToken,
	}, nil
}

// VerifyEmail consumes the pending verification token. The token must match
// exactly and the moment of verification must be strictly before its expiry.
func (s *accountService) VerifyEmail(ctx context.Context, req *httpdto.VerifyRequest) error {
	account, err := s.accounts.FindByCanonicalEmail(ctx, CanonicalizeEmail(req.Email))
	if err != nil {
		return err
	}
	if account == nil {
		return ErrUserNotFound
	}

	if !account.VerificationToken.Valid || account.VerificationToken.String != req.Token {
		return ErrInvalidVerificationToken
	}

	if !account.VerificationTokenExpiresAt.Valid || !s.now().Before(account.VerificationTokenExpiresAt.Time) {
		return ErrVerificationTokenExpired
	}

	account.IsVerified = true
	account.VerificationToken = sql.NullString{}
	account.VerificationTokenExpiresAt = sql.NullTime{}

	return s.accounts.Update(ctx, account)
}

// Login authenticates a verified active account, issues a session token and
// rotates the refresh token. Guard order matters: the password check runs
// before the verification and active checks so a wrong password on an
// unverified account still reports invalid credentials.
func (s *accountService) Login(ctx context.Context, req *httpdto.LoginRequest) (*dto.LoginResult, error) {
	account, err := s.accounts.FindByCanonicalEmail(ctx, CanonicalizeEmail(req.LoginID))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(account.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	if !account.IsVerified {
		return nil, ErrAccountNotVerified
	}

	if !account.IsActive {
		return nil, ErrAccountInactive
	}

	now := s.now()
	refreshTokenValue := GenerateSecretToken()

	// Last-login update plus delete-then-insert rotation in one transaction,
	// so two concurrent logins cannot leave zero or two live refresh tokens.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	txAccounts := repository.NewAccountRepository(tx)
	if err = txAccounts.UpdateLastLogin(ctx, account.UID, now); err != nil {
		return nil, err
	}

	txRefresh := repository.NewRefreshTokenRepository(tx)
	if err = txRefresh.DeleteByAccountUID(ctx, account.UID); err != nil {
		return nil, err
	}

	refreshToken := &entity.RefreshToken{
		AccountUID: account.UID,
		Token:      refreshTokenValue,
		ExpiresAt:  now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt:  now,
	}
	if err = txRefresh.Create(ctx, refreshToken); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	account.LastLoginAt = sql.NullTime{Time: now, Valid: true}

	sessionToken, err := s.sessionCodec.Issue(account.UID, account.Email, now)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResult{
		Account:      account,
		SessionToken: sessionToken,
		RefreshToken: refreshTokenValue,
		ExpiresIn:    int64(s.sessionCodec.TTL().Seconds()),
	}, nil
}

// RequestPasswordReset mints a fresh reset token, overwriting any previous
// one. An unknown email surfaces as ErrUserNotFound here; the transport
// boundary hides that outcome behind a uniform success response.
func (s *accountService) RequestPasswordReset(ctx context.Context, req *httpdto.PasswordResetRequest) (*dto.PasswordResetResult, error) {
	account, err := s.accounts.FindByCanonicalEmail(ctx, CanonicalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}

	resetToken := GenerateSecretToken()
	account.ResetToken = sql.NullString{String: resetToken, Valid: true}
	account.ResetTokenExpiresAt = sql.NullTime{
		Time:  s.now().Add(s.cfg.ResetTokenTTL),
		Valid: true,
	}

	if err = s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	// Token delivery belongs to the notification layer; only the fact is
	// logged here.
	logrus.WithField("account_uid", account.UID).Info("Password reset token issued")

	return &dto.PasswordResetResult{ResetToken: resetToken}, nil
}

// ResetPassword consumes a reset token, rehashes the password and revokes
// any live refresh token for the account.
func (s *accountService) ResetPassword(ctx context.Context, req *httpdto.PasswordResetConfirmRequest) error {
	account, err := s.accounts.FindByResetToken(ctx, req.Token)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrInvalidResetToken
	}

	if !account.ResetTokenExpiresAt.Valid || !s.now().Before(account.ResetTokenExpiresAt.Time) {
		return ErrResetTokenExpired
	}

	if err = s.cfg.PasswordPolicy.Validate(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = passwordHash
	account.ResetToken = sql.NullString{}
	account.ResetTokenExpiresAt = sql.NullTime{}

	if err = s.accounts.Update(ctx, account); err != nil {
		return err
	}

	return s.refreshRepo.DeleteByAccountUID(ctx, account.UID)
}

// RefreshSession exchanges a live refresh token for a new session token. The
// refresh token itself is not rotated on this path.
func (s *accountService) RefreshSession(ctx context.Context, req *httpdto.RefreshTokenRequest) (*dto.RefreshResult, error) {
	stored, err := s.refreshRepo.FindByToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, ErrInvalidToken
	}

	now := s.now()
	if !stored.ExpiresAt.After(now) {
		return nil, ErrExpiredToken
	}

	account, err := s.accounts.FindByUID(ctx, stored.AccountUID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidToken
	}

	sessionToken, err := s.sessionCodec.Issue(account.UID, account.Email, now)
	if err != nil {
		return nil, err
	}

	return &dto.RefreshResult{
		SessionToken: sessionToken,
		ExpiresIn:    int64(s.sessionCodec.TTL().Seconds()),
	}, nil
}

func (s *accountService) Logout(ctx context.Context, accountUID string) error {
	return s.refreshRepo.DeleteByAccountUID(ctx, accountUID)
}

func (s *accountService) ChangePassword(ctx context.Context, accountUID string, req *httpdto.ChangePasswordRequest) error {
	account, err := s.accounts.FindByUID(ctx, accountUID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrUserNotFound
	}

	if !VerifyPassword(account.PasswordHash, req.OldPassword) {
		return ErrPasswordMismatch
	}

	if err = s.cfg.PasswordPolicy.Validate(req.NewPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrWeakPassword, err.Error())
	}

	passwordHash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}

	account.PasswordHash = passwordHash
	if err = s.accounts.Update(ctx, account); err != nil {
		return err
	}

	return s.refreshRepo.DeleteByAccountUID(ctx, account.UID)
}

// ResendVerificationToken mints a replacement verification token for an
// unverified account, invalidating the previous one.
func (s *accountService) ResendVerificationToken(ctx context.Context, req *httpdto.ResendVerificationTokenRequest) (*dto.ResendVerificationTokenResult, error) {
	account, err := s.accounts.FindByCanonicalEmail(ctx, CanonicalizeEmail(req.Email))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}

	if account.IsVerified {
		return nil, ErrAccountAlreadyVerified
	}

	verificationToken := GenerateSecretToken()
	account.VerificationToken = sql.NullString{String: verificationToken, Valid: true}
	account.VerificationTokenExpiresAt = sql.NullTime{
		Time:  s.now().Add(s.cfg.VerificationTokenTTL),
		Valid: true,
	}

	if err = s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	return &dto.ResendVerificationTokenResult{VerificationToken: verificationToken}, nil
}

func (s *accountService) GetAccountInfo(ctx context.Context, accountUID string) (*entity.Account, error) {
	account, err := s.accounts.FindByUID(ctx, accountUID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}
	return account, nil
}

// UpdateProfile applies a sparse update: only fields present in the request
// change, absent fields keep their stored value.
func (s *accountService) UpdateProfile(ctx context.Context, accountUID string, req *httpdto.UpdateProfileRequest) (*entity.Account, error) {
	account, err := s.accounts.FindByUID(ctx, accountUID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}

	profile := req.Profile
	if profile.FirstName != nil {
		account.FirstName = *profile.FirstName
	}
	if profile.LastName != nil {
		account.LastName = *profile.LastName
	}
	if profile.PhoneNumber != nil {
		account.PhoneNumber = sql.NullString{String: *profile.PhoneNumber, Valid: true}
	}
	if profile.BirthDate != nil {
		parsed, err := time.Parse(birthDateLayout, *profile.BirthDate)
		if err != nil {
			return nil, ErrInvalidBirthDate
		}
		account.BirthDate = sql.NullTime{Time: parsed, Valid: true}
	}

	if err = s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

func (s *accountService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	return s.sessionCodec.Validate(tokenString, s.now())
}
