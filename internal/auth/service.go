package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/david/tender-radar/internal/config"
)

var ErrInvalidCreds = errors.New("invalid credentials")

const (
	SessionCookie = "session"
	sessionTTL    = 30 * 24 * time.Hour
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Service checks the single dashboard credential and issues session tokens.
type Service struct {
	username     string
	passwordHash []byte
	secret       []byte
	secure       bool
	now          func() time.Time
}

// NewService prepares the credential check. A plain AUTH_PASSWORD is hashed
// once here; AUTH_PASSWORD_HASH takes precedence when both are set. With no
// username configured every login fails.
func NewService(cfg config.AuthConfig, secureCookies bool) (*Service, error) {
	s := &Service{
		username: strings.TrimSpace(cfg.Username),
		secure:   secureCookies,
		now:      time.Now,
	}

	switch {
	case cfg.PasswordHash != "":
		s.passwordHash = []byte(cfg.PasswordHash)
	case cfg.Password != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing failed: %w", err)
		}
		s.passwordHash = hash
	}
	if s.username == "" || len(s.passwordHash) == 0 {
		log.Print("[Auth] AUTH_USERNAME or password not set; dashboard login is disabled")
	}

	secret := strings.TrimSpace(cfg.SessionSecret)
	if secret != "" {
		s.secret = []byte(secret)
	} else {
		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate session fallback secret: %w", err)
		}
		s.secret = []byte(base64.RawURLEncoding.EncodeToString(buf))
		log.Print("[Auth] SESSION_SECRET is not set; using ephemeral in-memory fallback secret")
	}
	return s, nil
}

// Login verifies the credential and returns a signed session token.
func (s *Service) Login(req LoginRequest) (string, error) {
	if s.username == "" || len(s.passwordHash) == 0 {
		return "", ErrInvalidCreds
	}
	if subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.username)) != 1 {
		return "", ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)); err != nil {
		return "", ErrInvalidCreds
	}
	return s.generateToken(req.Username)
}

func (s *Service) generateToken(subject string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(sessionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a session token and returns its subject.
func (s *Service) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid or expired token: %w", err)
	}
	return token.Claims.GetSubject()
}

// NewSessionCookie wraps a token in the session cookie.
func (s *Service) NewSessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearSessionCookie expires the session cookie.
func (s *Service) ClearSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
