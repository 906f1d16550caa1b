package api

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"vibelist-api/domain"
)

const defaultSessionTTL = 24 * time.Hour

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
	errInvalidSession       = errors.New("invalid session token")
)

// Sessions issues and verifies HS256-signed session tokens. A token
// carries the normalized email and display name so task store calls
// can be scoped without re-verifying the password.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewSessions creates a Sessions signer. ttl <= 0 falls back to 24h.
func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	if len(secret) == 0 {
		panic("api.NewSessions: secret is required")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Sessions{
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// Issue signs a session token for the account.
func (s *Sessions) Issue(account domain.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  account.Email,
		"name": account.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// SessionFromAuthHeader extracts and verifies the bearer token from an
// Authorization header.
func (s *Sessions) SessionFromAuthHeader(header string) (domain.Session, error) {
	if strings.TrimSpace(header) == "" {
		return domain.Session{}, errMissingAuthorization
	}
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return domain.Session{}, errBadAuthorization
	}
	tokenStr := strings.TrimSpace(parts[1])
	if strings.Count(tokenStr, ".") != 2 {
		return domain.Session{}, errBadAuthorization
	}

	token, err := s.parser.Parse(tokenStr, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return domain.Session{}, errInvalidSession
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Session{}, errInvalidSession
	}
	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return domain.Session{}, errInvalidSession
	}
	email, _ := claims["sub"].(string)
	if email == "" {
		return domain.Session{}, errInvalidSession
	}
	name, _ := claims["name"].(string)
	return domain.Session{Email: email, DisplayName: name}, nil
}
