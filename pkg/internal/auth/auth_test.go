package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/auth"
	"github.com/yeisme/notesphere/pkg/internal/model"
)

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := auth.NewTokens(configs.AuthConfig{JWTSecret: "test-secret-123", JWTExpiration: time.Hour, JWTIssuer: "notesphere"})
	user := &model.User{ID: 42, Email: "ama@example.edu", Role: model.RoleAdmin}

	raw, exp, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if time.Until(exp) <= 0 || time.Until(exp) > time.Hour {
		t.Errorf("unexpected expiry %v", exp)
	}

	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.UserID != 42 || claims.Email != user.Email || claims.Role != model.RoleAdmin || claims.Subject != "42" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestTokens_Rejects(t *testing.T) {
	cfg := configs.AuthConfig{JWTSecret: "test-secret-123", JWTExpiration: time.Hour, JWTIssuer: "notesphere"}
	tokens := auth.NewTokens(cfg)
	user := &model.User{ID: 1, Email: "kofi@example.edu", Role: model.RoleStudent}

	raw, _, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cfg.JWTSecret = "another-secret-456"
	if _, err := auth.NewTokens(cfg).Parse(raw); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("wrong secret: expected ErrInvalidToken, got %v", err)
	}

	cfg.JWTSecret = "test-secret-123"
	cfg.JWTIssuer = "someone-else"
	if _, err := auth.NewTokens(cfg).Parse(raw); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("wrong issuer: expected ErrInvalidToken, got %v", err)
	}

	if _, err := tokens.Parse(""); !errors.Is(err, auth.ErrInvalidFormat) {
		t.Errorf("empty token: expected ErrInvalidFormat, got %v", err)
	}

	if _, err := tokens.Parse("not.a.jwt"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("garbage: expected ErrInvalidToken, got %v", err)
	}
}

func TestTokens_Expired(t *testing.T) {
	cfg := configs.AuthConfig{JWTSecret: "test-secret-123", JWTExpiration: time.Second, JWTIssuer: "notesphere"}
	issuer := auth.NewTokens(cfg)

	raw, _, err := issuer.Issue(&model.User{ID: 3, Email: "x@example.edu", Role: model.RoleGuest})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(1100 * time.Millisecond)

	if _, err := issuer.Parse(raw); !errors.Is(err, auth.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	cases := map[string]struct {
		header string
		want   string
		ok     bool
	}{
		"bearer":     {"Bearer abc.def", "abc.def", true},
		"lowercase":  {"bearer abc", "abc", true},
		"empty":      {"", "", false},
		"no scheme":  {"abc.def", "", false},
		"basic":      {"Basic dXNlcg==", "", false},
		"only space": {"Bearer   ", "", false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := auth.ExtractBearerToken(tc.header)
			if tc.ok != (err == nil) || got != tc.want {
				t.Errorf("got %q err=%v", got, err)
			}
		})
	}
}

func TestHasher(t *testing.T) {
	h := auth.NewHasher(4)

	hash, err := h.Hash("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !h.Check(hash, "s3cret-pass") {
		t.Error("expected password to match")
	}

	if h.Check(hash, "wrong-pass") {
		t.Error("expected mismatch")
	}

	if _, err := h.Hash("123"); !errors.Is(err, auth.ErrPasswordTooShort) {
		t.Errorf("expected ErrPasswordTooShort, got %v", err)
	}
}
