package http

type RegisterResponse struct {
	UID                       string `json:"uid"`
	Email                     string `json:"email"`
	EmailVerificationRequired bool   `json:"email_verification_required"`
	VerificationToken         string `json:"verification_token"`
	Message                   string `json:"message"`
}

type LoginProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Verified  bool   `json:"verified"`
}

type LoginResponse struct {
	UID          string       `json:"uid"`
	SessionToken string       `json:"session_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	Profile      LoginProfile `json:"profile"`
}

type VerifyResponse struct {
	Message string `json:"message"`
}

type PasswordResetRequestResponse struct {
	Message string `json:"message"`
}

type PasswordResetConfirmResponse struct {
	Message string `json:"message"`
}

type RefreshTokenResponse struct {
	SessionToken string `json:"session_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}

type ChangePasswordResponse struct {
	Message string `json:"message"`
}

type ResendVerificationTokenResponse struct {
	VerificationToken string `json:"verification_token"`
	Message           string `json:"message"`
}

type AccountInfoProfile struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	BirthDate   *string `json:"birth_date"`
	PhoneNumber *string `json:"phone_number"`
}

type AccountInfoResponse struct {
	UID              string             `json:"uid"`
	Verified         bool               `json:"verified"`
	RegistrationDate string             `json:"registration_date"`
	LastLogin        *string            `json:"last_login"`
	Profile          AccountInfoProfile `json:"profile"`
}

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Error     string `json:"error"`
}
