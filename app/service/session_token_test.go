package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/service"

	"github.com/google/uuid"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	codec := service.NewSessionTokenCodec("test-secret", 15*time.Minute)
	uid := uuid.New().String()
	issuedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	token, err := codec.Issue(uid, "user@example.com", issuedAt)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := codec.Validate(token, issuedAt.Add(14*time.Minute))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.Subject != uid {
		t.Fatalf("expected subject %s, got %s", uid, claims.Subject)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
}

func TestSessionTokenExpiry(t *testing.T) {
	codec := service.NewSessionTokenCodec("test-secret", 15*time.Minute)
	uid := uuid.New().String()
	issuedAt := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	token, err := codec.Issue(uid, "user@example.com", issuedAt)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := codec.Validate(token, issuedAt.Add(15*time.Minute-time.Second)); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}
	if _, err := codec.Validate(token, issuedAt.Add(15*time.Minute+time.Second)); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestSessionTokenWrongKey(t *testing.T) {
	issuer := service.NewSessionTokenCodec("key-one", 15*time.Minute)
	validator := service.NewSessionTokenCodec("key-two", 15*time.Minute)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	token, err := issuer.Issue(uuid.New().String(), "user@example.com", now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := validator.Validate(token, now); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong key, got %v", err)
	}
}

func TestSessionTokenMalformed(t *testing.T) {
	codec := service.NewSessionTokenCodec("test-secret", 15*time.Minute)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := codec.Validate(token, now); !errors.Is(err, service.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken for %q, got %v", token, err)
		}
	}
}

func TestSessionTokenNonUUIDSubject(t *testing.T) {
	codec := service.NewSessionTokenCodec("test-secret", 15*time.Minute)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	token, err := codec.Issue("not-a-uuid", "user@example.com", now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := codec.Validate(token, now); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for non-uuid subject, got %v", err)
	}
}

func TestSessionTokenTampered(t *testing.T) {
	codec := service.NewSessionTokenCodec("test-secret", 15*time.Minute)
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	token, err := codec.Issue(uuid.New().String(), "user@example.com", now)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := codec.Validate(tampered, now); !errors.Is(err, service.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}
