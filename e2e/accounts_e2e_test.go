//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	defaultHTTPBase = "http://localhost:8080"
	defaultGRPCAddr = "localhost:9090"
)

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient() *httpClient {
	base := os.Getenv("ACCOUNTS_HTTP_URL")
	if base == "" {
		base = defaultHTTPBase
	}
	return &httpClient{
		baseURL: base,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *httpClient) do(t *testing.T, method, path, accessToken string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response failed: %v", err)
	}
	return resp, buf.Bytes()
}

func (c *httpClient) postJSON(t *testing.T, path string, body any) (*http.Response, []byte) {
	return c.do(t, http.MethodPost, path, "", body)
}

func (c *httpClient) postJSONWithAuth(t *testing.T, path, accessToken string, body any) (*http.Response, []byte) {
	return c.do(t, http.MethodPost, path, accessToken, body)
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest(http.MethodPost, baseURL+"/accounts/login", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func waitForGRPC(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("grpc service not ready at %s", addr)
}

func TestAccountsE2E_HTTPFlow(t *testing.T) {
	httpBase := os.Getenv("ACCOUNTS_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultHTTPBase
	}
	grpcAddr := os.Getenv("ACCOUNTS_GRPC_ADDR")
	if grpcAddr == "" {
		grpcAddr = defaultGRPCAddr
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}
	if err := waitForGRPC(grpcAddr, 30*time.Second); err != nil {
		t.Fatalf("grpc not ready: %v", err)
	}

	client := newHTTPClient()

	state := struct {
		email             string
		password          string
		newPassword       string
		uid               string
		verificationToken string
		sessionToken      string
		refreshToken      string
		sessionToken2     string
		refreshToken2     string
	}{
		email:       fmt.Sprintf("e2e+%d@example.com", time.Now().UnixNano()),
		password:    "StrongPass1",
		newPassword: "NewStrongPass1",
	}

	abort := false
	fail := func(t *testing.T, format string, args ...any) {
		abort = true
		t.Fatalf(format, args...)
	}

	step := func(name string, fn func(t *testing.T)) {
		t.Run(name, func(t *testing.T) {
			if abort {
				t.Skip("previous step failed")
			}
			fn(t)
		})
	}

	step("LoginBeforeRegister", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/login", map[string]string{
			"login_id": state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected login before register to fail, got %d", resp.StatusCode)
		}
	})

	step("Register", func(t *testing.T) {
		resp, body := client.postJSON(t, "/accounts/register", map[string]any{
			"email":    state.email,
			"password": state.password,
			"profile": map[string]string{
				"first_name": "E2E",
				"last_name":  "Tester",
			},
		})
		if resp.StatusCode != http.StatusCreated {
			fail(t, "register status: %d body: %s", resp.StatusCode, string(body))
		}

		var regRes struct {
			UID               string `json:"uid"`
			VerificationToken string `json:"verification_token"`
		}
		if err := json.Unmarshal(body, &regRes); err != nil {
			fail(t, "register unmarshal failed: %v", err)
		}
		if regRes.UID == "" || regRes.VerificationToken == "" {
			fail(t, "expected uid and verification_token")
		}
		state.uid = regRes.UID
		state.verificationToken = regRes.VerificationToken
	})

	step("RegisterDuplicate", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/register", map[string]any{
			"email":    state.email,
			"password": state.password,
			"profile": map[string]string{
				"first_name": "E2E",
				"last_name":  "Tester",
			},
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected duplicate register to fail, got %d", resp.StatusCode)
		}
	})

	step("LoginBeforeVerify", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/login", map[string]string{
			"login_id": state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusForbidden {
			fail(t, "expected login before verify to fail, got %d", resp.StatusCode)
		}
	})

	step("ResendVerificationToken", func(t *testing.T) {
		resp, body := client.postJSON(t, "/accounts/verification-token/resend", map[string]string{
			"email": state.email,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "resend status: %d body: %s", resp.StatusCode, string(body))
		}
		var resendRes struct {
			VerificationToken string `json:"verification_token"`
		}
		if err := json.Unmarshal(body, &resendRes); err != nil {
			fail(t, "resend unmarshal failed: %v", err)
		}
		if resendRes.VerificationToken == "" {
			fail(t, "expected verification_token from resend")
		}
		if resendRes.VerificationToken == state.verificationToken {
			fail(t, "expected resend to mint a fresh token")
		}
		state.verificationToken = resendRes.VerificationToken
	})

	step("VerifyWrongToken", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/verify", map[string]string{
			"email": state.email,
			"token": "not-the-token",
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected verify with wrong token to fail, got %d", resp.StatusCode)
		}
	})

	step("Verify", func(t *testing.T) {
		resp, body := client.postJSON(t, "/accounts/verify", map[string]string{
			"email": state.email,
			"token": state.verificationToken,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "verify status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("ResendAfterVerify", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/verification-token/resend", map[string]string{
			"email": state.email,
		})
		if resp.StatusCode != http.StatusBadRequest {
			fail(t, "expected resend after verify to fail, got %d", resp.StatusCode)
		}
	})

	step("Login", func(t *testing.T) {
		resp, body := client.postJSON(t, "/accounts/login", map[string]string{
			"login_id": state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "login status: %d body: %s", resp.StatusCode, string(body))
		}

		var loginRes struct {
			UID          string `json:"uid"`
			SessionToken string `json:"session_token"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.Unmarshal(body, &loginRes); err != nil {
			fail(t, "login unmarshal failed: %v", err)
		}
		if loginRes.SessionToken == "" || loginRes.RefreshToken == "" {
			fail(t, "expected session and refresh tokens")
		}
		if loginRes.UID != state.uid {
			fail(t, "expected uid %s, got %s", state.uid, loginRes.UID)
		}
		state.sessionToken = loginRes.SessionToken
		state.refreshToken = loginRes.RefreshToken
	})

	step("InfoWithoutToken", func(t *testing.T) {
		resp, _ := client.do(t, http.MethodGet, "/accounts/info", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected info without token to fail, got %d", resp.StatusCode)
		}
	})

	step("Info", func(t *testing.T) {
		resp, body := client.do(t, http.MethodGet, "/accounts/info", state.sessionToken, nil)
		if resp.StatusCode != http.StatusOK {
			fail(t, "info status: %d body: %s", resp.StatusCode, string(body))
		}
		var infoRes struct {
			UID     string `json:"uid"`
			Profile struct {
				Email string `json:"email"`
			} `json:"profile"`
		}
		if err := json.Unmarshal(body, &infoRes); err != nil {
			fail(t, "info unmarshal failed: %v", err)
		}
		if infoRes.UID != state.uid || infoRes.Profile.Email != state.email {
			fail(t, "unexpected info: %s", string(body))
		}
	})

	step("UpdateProfile", func(t *testing.T) {
		resp, body := client.do(t, http.MethodPut, "/accounts/profile", state.sessionToken, map[string]any{
			"profile": map[string]string{
				"phone_number": "+15550001",
			},
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "update profile status: %d body: %s", resp.StatusCode, string(body))
		}
		var updateRes struct {
			Profile struct {
				FirstName   string  `json:"first_name"`
				PhoneNumber *string `json:"phone_number"`
			} `json:"profile"`
		}
		if err := json.Unmarshal(body, &updateRes); err != nil {
			fail(t, "update profile unmarshal failed: %v", err)
		}
		if updateRes.Profile.PhoneNumber == nil || *updateRes.Profile.PhoneNumber != "+15550001" {
			fail(t, "expected phone number updated: %s", string(body))
		}
		if updateRes.Profile.FirstName != "E2E" {
			fail(t, "expected untouched first name: %s", string(body))
		}
	})

	step("RefreshSession", func(t *testing.T) {
		resp, body := client.postJSON(t, "/accounts/token/refresh", map[string]string{
			"refresh_token": state.refreshToken,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "refresh status: %d body: %s", resp.StatusCode, string(body))
		}
		var refreshRes struct {
			SessionToken string `json:"session_token"`
		}
		if err := json.Unmarshal(body, &refreshRes); err != nil {
			fail(t, "refresh unmarshal failed: %v", err)
		}
		if refreshRes.SessionToken == "" {
			fail(t, "expected session token from refresh")
		}
	})

	step("PasswordResetUniformResponse", func(t *testing.T) {
		respKnown, bodyKnown := client.postJSON(t, "/accounts/password/reset-request", map[string]string{
			"email": state.email,
		})
		respUnknown, bodyUnknown := client.postJSON(t, "/accounts/password/reset-request", map[string]string{
			"email": fmt.Sprintf("nobody+%d@example.com", time.Now().UnixNano()),
		})
		if respKnown.StatusCode != http.StatusOK || respUnknown.StatusCode != http.StatusOK {
			fail(t, "expected 200 for both reset requests, got %d and %d", respKnown.StatusCode, respUnknown.StatusCode)
		}
		if string(bodyKnown) != string(bodyUnknown) {
			fail(t, "expected identical reset responses, got %s vs %s", bodyKnown, bodyUnknown)
		}
	})

	step("ChangePassword", func(t *testing.T) {
		resp, body := client.postJSONWithAuth(t, "/accounts/password/change", state.sessionToken, map[string]string{
			"old_password": state.password,
			"new_password": state.newPassword,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "change password status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("LoginOldPassword", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/login", map[string]string{
			"login_id": state.email,
			"password": state.password,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected login with old password to fail, got %d", resp.StatusCode)
		}
	})

	step("LoginNewPassword", func(t *testing.T) {
		resp, body := client.postJSON(t, "/accounts/login", map[string]string{
			"login_id": state.email,
			"password": state.newPassword,
		})
		if resp.StatusCode != http.StatusOK {
			fail(t, "login with new password status: %d body: %s", resp.StatusCode, string(body))
		}
		var loginRes struct {
			SessionToken string `json:"session_token"`
			RefreshToken string `json:"refresh_token"`
		}
		if err := json.Unmarshal(body, &loginRes); err != nil {
			fail(t, "login unmarshal failed: %v", err)
		}
		state.sessionToken2 = loginRes.SessionToken
		state.refreshToken2 = loginRes.RefreshToken
	})

	step("RefreshWithRotatedOutToken", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/token/refresh", map[string]string{
			"refresh_token": state.refreshToken,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected rotated-out refresh token to fail, got %d", resp.StatusCode)
		}
	})

	step("Logout", func(t *testing.T) {
		resp, body := client.postJSONWithAuth(t, "/accounts/logout", state.sessionToken2, nil)
		if resp.StatusCode != http.StatusOK {
			fail(t, "logout status: %d body: %s", resp.StatusCode, string(body))
		}
	})

	step("RefreshAfterLogout", func(t *testing.T) {
		resp, _ := client.postJSON(t, "/accounts/token/refresh", map[string]string{
			"refresh_token": state.refreshToken2,
		})
		if resp.StatusCode != http.StatusUnauthorized {
			fail(t, "expected refresh after logout to fail, got %d", resp.StatusCode)
		}
	})

	step("GRPCHealth", func(t *testing.T) {
		conn, err := grpc.NewClient(grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			fail(t, "grpc new client failed: %v", err)
		}
		defer conn.Close()

		healthClient := healthpb.NewHealthClient(conn)
		res, err := healthClient.Check(context.Background(), &healthpb.HealthCheckRequest{})
		if err != nil {
			fail(t, "grpc health check failed: %v", err)
		}
		if res.Status != healthpb.HealthCheckResponse_SERVING {
			fail(t, "expected SERVING, got %v", res.Status)
		}
	})
}
