package controller

import (
	"errors"
	"net/http"

	httpdto "github.com/vibast-solutions/ms-go-accounts/app/dto/http"
	"github.com/vibast-solutions/ms-go-accounts/app/entity"
	"github.com/vibast-solutions/ms-go-accounts/app/middleware"
	"github.com/vibast-solutions/ms-go-accounts/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type AccountController struct {
	accountService service.AccountService
}

func NewAccountController(accountService service.AccountService) *AccountController {
	return &AccountController{accountService: accountService}
}

type errorMapping struct {
	err    error
	status int
	code   string
}

// serviceErrorTable is the single exhaustive mapping from service outcomes
// to HTTP status and machine-readable code. Entries are matched in order
// with errors.Is, so wrapped errors resolve to their sentinel.
var serviceErrorTable = []errorMapping{
	{service.ErrDuplicateEmail, http.StatusBadRequest, "DUPLICATE_EMAIL"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{service.ErrAccountNotVerified, http.StatusForbidden, "ACCOUNT_NOT_VERIFIED"},
	{service.ErrAccountInactive, http.StatusForbidden, "ACCOUNT_INACTIVE"},
	{service.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{service.ErrInvalidVerificationToken, http.StatusBadRequest, "INVALID_TOKEN"},
	{service.ErrVerificationTokenExpired, http.StatusBadRequest, "EXPIRED_TOKEN"},
	{service.ErrInvalidResetToken, http.StatusBadRequest, "INVALID_TOKEN"},
	{service.ErrResetTokenExpired, http.StatusBadRequest, "EXPIRED_TOKEN"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{service.ErrExpiredToken, http.StatusUnauthorized, "EXPIRED_TOKEN"},
	{service.ErrMissingAuthorization, http.StatusUnauthorized, "MISSING_AUTHORIZATION_HEADER"},
	{service.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
	{service.ErrPasswordMismatch, http.StatusBadRequest, "PASSWORD_MISMATCH"},
	{service.ErrAccountAlreadyVerified, http.StatusBadRequest, "ALREADY_VERIFIED"},
	{service.ErrInvalidBirthDate, http.StatusBadRequest, "INVALID_BIRTH_DATE"},
}

func writeServiceError(ctx echo.Context, err error) error {
	for _, m := range serviceErrorTable {
		if errors.Is(err, m.err) {
			return ctx.JSON(m.status, httpdto.ErrorResponse{ErrorCode: m.code, Error: err.Error()})
		}
	}
	logrus.WithError(err).Error("Unhandled service error")
	return ctx.JSON(http.StatusInternalServerError, httpdto.ErrorResponse{
		ErrorCode: "INTERNAL_ERROR",
		Error:     "internal server error",
	})
}

func writeBadRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, httpdto.ErrorResponse{
		ErrorCode: "INVALID_REQUEST",
		Error:     message,
	})
}

func (c *AccountController) Register(ctx echo.Context) error {
	var req httpdto.RegisterRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind register request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("email", req.Email).Debug("Register validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Register request received")
	result, err := c.accountService.Register(ctx.Request().Context(), &req)
	if err != nil {
		logrus.WithError(err).WithField("email", req.Email).Warn("Register failed")
		return writeServiceError(ctx, err)
	}

	logrus.WithFields(logrus.Fields{
		"uid":   result.Account.UID,
		"email": result.Account.Email,
	}).Info("Account registered")

	return ctx.JSON(http.StatusCreated, httpdto.RegisterResponse{
		UID:                       result.Account.UID,
		Email:                     result.Account.Email,
		EmailVerificationRequired: true,
		VerificationToken:         result.VerificationToken,
		Message:                   "registration successful, please verify your email",
	})
}

func (c *AccountController) Login(ctx echo.Context) error {
	var req httpdto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind login request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("login_id", req.LoginID).Debug("Login validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	logrus.WithField("login_id", req.LoginID).Info("Login request received")
	result, err := c.accountService.Login(ctx.Request().Context(), &req)
	if err != nil {
		logrus.WithField("login_id", req.LoginID).Warn("Login failed")
		return writeServiceError(ctx, err)
	}

	logrus.WithField("uid", result.Account.UID).Info("Login successful")
	return ctx.JSON(http.StatusOK, httpdto.LoginResponse{
		UID:          result.Account.UID,
		SessionToken: result.SessionToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    result.ExpiresIn,
		Profile: httpdto.LoginProfile{
			FirstName: result.Account.FirstName,
			LastName:  result.Account.LastName,
			Email:     result.Account.Email,
			Verified:  result.Account.IsVerified,
		},
	})
}

func (c *AccountController) Verify(ctx echo.Context) error {
	var req httpdto.VerifyRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind verify request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Verify validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Verify request received")
	if err := c.accountService.VerifyEmail(ctx.Request().Context(), &req); err != nil {
		logrus.WithField("email", req.Email).Warn("Verify failed")
		return writeServiceError(ctx, err)
	}

	logrus.WithField("email", req.Email).Info("Email verified")
	return ctx.JSON(http.StatusOK, httpdto.VerifyResponse{Message: "email verified successfully"})
}

// RequestPasswordReset answers identically whether or not the email exists,
// so the endpoint cannot be used to enumerate accounts.
func (c *AccountController) RequestPasswordReset(ctx echo.Context) error {
	var req httpdto.PasswordResetRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind password reset request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Password reset request validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	uniform := httpdto.PasswordResetRequestResponse{
		Message: "if the email exists, a password reset has been initiated",
	}

	logrus.WithField("email", req.Email).Info("Password reset requested")
	if _, err := c.accountService.RequestPasswordReset(ctx.Request().Context(), &req); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			logrus.WithField("email", req.Email).Debug("Password reset requested for unknown email")
			return ctx.JSON(http.StatusOK, uniform)
		}
		logrus.WithError(err).WithField("email", req.Email).Error("Password reset request failed")
		return writeServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, uniform)
}

func (c *AccountController) ResetPassword(ctx echo.Context) error {
	var req httpdto.PasswordResetConfirmRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind reset password request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Reset password validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	logrus.Info("Reset password request received")
	if err := c.accountService.ResetPassword(ctx.Request().Context(), &req); err != nil {
		logrus.Warn("Reset password failed")
		return writeServiceError(ctx, err)
	}

	logrus.Info("Password reset successful")
	return ctx.JSON(http.StatusOK, httpdto.PasswordResetConfirmResponse{Message: "password reset successfully"})
}

func (c *AccountController) RefreshToken(ctx echo.Context) error {
	var req httpdto.RefreshTokenRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind refresh token request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Refresh token validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	result, err := c.accountService.RefreshSession(ctx.Request().Context(), &req)
	if err != nil {
		logrus.Warn("Refresh session failed")
		return writeServiceError(ctx, err)
	}

	logrus.Info("Session refreshed")
	return ctx.JSON(http.StatusOK, httpdto.RefreshTokenResponse{
		SessionToken: result.SessionToken,
		ExpiresIn:    result.ExpiresIn,
	})
}

func (c *AccountController) Logout(ctx echo.Context) error {
	uid, ok := middleware.BoundAccountUID(ctx)
	if !ok {
		return writeServiceError(ctx, service.ErrMissingAuthorization)
	}

	logrus.WithField("uid", uid).Info("Logout request received")
	if err := c.accountService.Logout(ctx.Request().Context(), uid); err != nil {
		logrus.WithError(err).WithField("uid", uid).Error("Logout failed")
		return writeServiceError(ctx, err)
	}

	logrus.WithField("uid", uid).Info("Logout successful")
	return ctx.JSON(http.StatusOK, httpdto.LogoutResponse{Message: "logged out successfully"})
}

func (c *AccountController) ChangePassword(ctx echo.Context) error {
	uid, ok := middleware.BoundAccountUID(ctx)
	if !ok {
		return writeServiceError(ctx, service.ErrMissingAuthorization)
	}

	var req httpdto.ChangePasswordRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind change password request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Change password validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	logrus.WithField("uid", uid).Info("Change password request received")
	if err := c.accountService.ChangePassword(ctx.Request().Context(), uid, &req); err != nil {
		logrus.WithField("uid", uid).Warn("Change password failed")
		return writeServiceError(ctx, err)
	}

	logrus.WithField("uid", uid).Info("Password changed")
	return ctx.JSON(http.StatusOK, httpdto.ChangePasswordResponse{Message: "password changed successfully"})
}

func (c *AccountController) ResendVerificationToken(ctx echo.Context) error {
	var req httpdto.ResendVerificationTokenRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind resend verification request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.Debug("Resend verification validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	logrus.WithField("email", req.Email).Info("Resend verification token requested")
	result, err := c.accountService.ResendVerificationToken(ctx.Request().Context(), &req)
	if err != nil {
		logrus.WithField("email", req.Email).Warn("Resend verification token failed")
		return writeServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, httpdto.ResendVerificationTokenResponse{
		VerificationToken: result.VerificationToken,
		Message:           "verification token generated successfully",
	})
}

func (c *AccountController) Info(ctx echo.Context) error {
	uid, ok := middleware.BoundAccountUID(ctx)
	if !ok {
		return writeServiceError(ctx, service.ErrMissingAuthorization)
	}

	account, err := c.accountService.GetAccountInfo(ctx.Request().Context(), uid)
	if err != nil {
		logrus.WithField("uid", uid).Warn("Get account info failed")
		return writeServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, buildAccountInfoResponse(account))
}

func (c *AccountController) UpdateProfile(ctx echo.Context) error {
	uid, ok := middleware.BoundAccountUID(ctx)
	if !ok {
		return writeServiceError(ctx, service.ErrMissingAuthorization)
	}

	var req httpdto.UpdateProfileRequest
	if err := ctx.Bind(&req); err != nil {
		logrus.WithError(err).Debug("Failed to bind update profile request")
		return writeBadRequest(ctx, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		logrus.WithField("uid", uid).Debug("Update profile validation failed")
		return writeBadRequest(ctx, err.Error())
	}

	logrus.WithField("uid", uid).Info("Update profile request received")
	account, err := c.accountService.UpdateProfile(ctx.Request().Context(), uid, &req)
	if err != nil {
		logrus.WithField("uid", uid).Warn("Update profile failed")
		return writeServiceError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, buildAccountInfoResponse(account))
}

func buildAccountInfoResponse(account *entity.Account) httpdto.AccountInfoResponse {
	profile := httpdto.AccountInfoProfile{
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
	}
	if account.BirthDate.Valid {
		birthDate := account.BirthDate.Time.Format("2006-01-02")
		profile.BirthDate = &birthDate
	}
	if account.PhoneNumber.Valid {
		phone := account.PhoneNumber.String
		profile.PhoneNumber = &phone
	}

	response := httpdto.AccountInfoResponse{
		UID:              account.UID,
		Verified:         account.IsVerified,
		RegistrationDate: account.RegisteredAt.Format("2006-01-02T15:04:05Z07:00"),
		Profile:          profile,
	}
	if account.LastLoginAt.Valid {
		lastLogin := account.LastLoginAt.Time.Format("2006-01-02T15:04:05Z07:00")
		response.LastLogin = &lastLogin
	}
	return response
}
