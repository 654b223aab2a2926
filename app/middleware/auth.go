package middleware

import (
	"net/http"
	"strings"

	httpdto "github.com/vibast-solutions/ms-go-accounts/app/dto/http"
	"github.com/vibast-solutions/ms-go-accounts/app/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Context keys under which the gate binds the caller's identity. Binding is
// per-request: echo contexts are not shared between requests.
const (
	ContextKeyAccountUID = "account_uid"
	ContextKeyEmail      = "account_email"
)

type sessionTokenValidator interface {
	ValidateSessionToken(tokenString string) (*service.SessionClaims, error)
}

type AuthMiddleware struct {
	accountService sessionTokenValidator
}

func NewAuthMiddleware(accountService sessionTokenValidator) *AuthMiddleware {
	return &AuthMiddleware{accountService: accountService}
}

// Authenticate is the request authentication gate. A request without a
// bearer token passes through anonymously; whether the target operation
// needs an identity is RequireIdentity's decision. A present but invalid
// token short-circuits with a generic unauthorized response before any
// handler runs.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return next(c)
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return next(c)
		}

		claims, err := m.accountService.ValidateSessionToken(strings.TrimSpace(parts[1]))
		if err != nil {
			logrus.Debug("Session token rejected")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{
				ErrorCode: "INVALID_TOKEN",
				Error:     "Invalid or expired token",
			})
		}

		// A second authentication stage must not clobber an established
		// identity.
		if c.Get(ContextKeyAccountUID) == nil {
			c.Set(ContextKeyAccountUID, claims.Subject)
			c.Set(ContextKeyEmail, claims.Email)
		}

		return next(c)
	}
}

// RequireIdentity is the authorization policy for protected operations: it
// rejects any request the gate left anonymous.
func (m *AuthMiddleware) RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get(ContextKeyAccountUID).(string)
		if !ok || uid == "" {
			logrus.Debug("Protected endpoint called without identity")
			return c.JSON(http.StatusUnauthorized, httpdto.ErrorResponse{
				ErrorCode: "MISSING_AUTHORIZATION_HEADER",
				Error:     "missing authorization header",
			})
		}
		return next(c)
	}
}

// BoundAccountUID returns the identity the gate bound for this request, if
// any.
func BoundAccountUID(c echo.Context) (string, bool) {
	uid, ok := c.Get(ContextKeyAccountUID).(string)
	return uid, ok && uid != ""
}
