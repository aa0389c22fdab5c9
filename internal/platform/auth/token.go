package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAdmin   = "Admin"
	RoleDoctor  = "Doctor"
	RolePatient = "Patient"
)

// Claim names used by the upstream identity service. The role may appear
// under the short name or the WS-Federation URI.
const (
	claimRole      = "role"
	claimRoleURI   = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
	claimNameIDURI = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimEmailURI  = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimNameURI   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

// ErrMalformedToken is returned when a token cannot be decoded as a JWT.
var ErrMalformedToken = errors.New("malformed token")

// Session is what the console knows about a caller: the decoded claims of
// the bearer token. Nothing here is verified; the upstream enforces the
// signature on every call.
type Session struct {
	Token     string
	Role      string
	Roles     []string
	Subject   string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// HasRole reports whether any of the session roles is in allowed.
func (s *Session) HasRole(allowed ...string) bool {
	for _, have := range s.Roles {
		for _, want := range allowed {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Key identifies the session without exposing the raw token.
func (s *Session) Key() string {
	return TokenKey(s.Token)
}

// Expired reports whether the token carries an exp claim in the past.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// TokenKey returns the hex SHA-256 of a raw token.
func TokenKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// DecodeToken decodes raw without verifying its signature and extracts the
// role, subject and expiry. A token with no role claim decodes fine and is
// refused later by the gate.
func DecodeToken(raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMalformedToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	roles := claimStrings(claims, claimRole)
	if len(roles) == 0 {
		roles = claimStrings(claims, claimRoleURI)
	}

	s := &Session{
		Token:   raw,
		Roles:   roles,
		Subject: firstString(claims, "sub", "nameid", claimNameIDURI, "userId"),
		Email:   firstString(claims, "email", claimEmailURI),
		Name:    firstString(claims, "name", "unique_name", claimNameURI),
	}
	if len(roles) > 0 {
		s.Role = roles[0]
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	return s, nil
}

// claimStrings reads a claim that may be a single string or a list.
func claimStrings(claims jwt.MapClaims, name string) []string {
	switch v := claims[name].(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func firstString(claims jwt.MapClaims, names ...string) string {
	for _, n := range names {
		if s, ok := claims[n].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
