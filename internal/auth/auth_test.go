package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/david/tender-radar/internal/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(config.AuthConfig{
		Username:      "growth",
		Password:      "correct horse",
		SessionSecret: "test-secret",
	}, false)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return s
}

func TestLogin(t *testing.T) {
	s := newTestService(t)

	tests := []struct {
		name    string
		req     LoginRequest
		wantErr error
	}{
		{"valid", LoginRequest{Username: "growth", Password: "correct horse"}, nil},
		{"wrong password", LoginRequest{Username: "growth", Password: "battery staple"}, ErrInvalidCreds},
		{"wrong user", LoginRequest{Username: "admin", Password: "correct horse"}, ErrInvalidCreds},
		{"empty", LoginRequest{}, ErrInvalidCreds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := s.Login(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr == nil {
				sub, err := s.ParseToken(token)
				if err != nil || sub != "growth" {
					t.Errorf("token did not round trip: %q %v", sub, err)
				}
			}
		})
	}
}

func TestLoginWithPrehashedPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewService(config.AuthConfig{Username: "u", PasswordHash: string(hash), Password: "ignored"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Login(LoginRequest{Username: "u", Password: "pw"}); err != nil {
		t.Fatalf("expected login to succeed: %v", err)
	}
	if _, err := s.Login(LoginRequest{Username: "u", Password: "ignored"}); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("hash should take precedence over plain password, got %v", err)
	}
}

func TestLoginDisabledWithoutCredential(t *testing.T) {
	s, err := NewService(config.AuthConfig{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Login(LoginRequest{}); !errors.Is(err, ErrInvalidCreds) {
		t.Fatalf("expected ErrInvalidCreds, got %v", err)
	}
}

func TestExpiredToken(t *testing.T) {
	s := newTestService(t)
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	token, err := s.Login(LoginRequest{Username: "growth", Password: "correct horse"})
	if err != nil {
		t.Fatal(err)
	}

	s.now = func() time.Time { return issued.Add(31 * 24 * time.Hour) }
	if _, err := s.ParseToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestService(t)
	token, err := s.Login(LoginRequest{Username: "growth", Password: "correct horse"})
	if err != nil {
		t.Fatal(err)
	}

	handler := s.Middleware(func(c echo.Context) error {
		user, err := GetUserFromContext(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, user)
	})

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   int
	}{
		{"no cookie", nil, http.StatusUnauthorized},
		{"garbage", &http.Cookie{Name: SessionCookie, Value: "not-a-jwt"}, http.StatusUnauthorized},
		{"valid", s.NewSessionCookie(token), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			code := rec.Code
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}
			if code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
		})
	}
}

func TestCronMiddleware(t *testing.T) {
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }

	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"open when unset", "", "", http.StatusNoContent},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong secret", "s3cret", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "s3cret", "Basic s3cret", http.StatusUnauthorized},
		{"valid", "s3cret", "Bearer s3cret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/cron", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := CronMiddleware(tt.secret)(ok)(c)
			code := rec.Code
			var he *echo.HTTPError
			if errors.As(err, &he) {
				code = he.Code
			}
			if code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, code)
			}
		})
	}
}
