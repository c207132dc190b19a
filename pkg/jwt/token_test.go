package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	svc := NewTokenService("unit-test-secret", time.Hour)

	token, err := svc.Issue("ops", ScopeIntake)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "ops" || !claims.HasScope(ScopeIntake) {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.HasScope("admin") {
		t.Fatalf("unexpected scope")
	}
}

func TestParseRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	token, _ := issuer.Issue("ops")

	if _, err := NewTokenService("secret-b", time.Hour).Parse(token); err == nil {
		t.Fatalf("token signed with another secret accepted")
	}

	later := NewTokenService("secret-a", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := later.Parse(token); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestEmptySecretRefused(t *testing.T) {
	if _, err := NewTokenService("", time.Hour).Issue("ops"); err == nil {
		t.Fatalf("expected error without secret")
	}
}
