package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type contextKey string

const SessionKey contextKey = "session"

// GateConfig configures RoleGate.
type GateConfig struct {
	// CookieName is read first; an Authorization bearer header is the fallback.
	CookieName   string
	AllowedRoles []string
	// LoginPath is where refused requests are sent. Defaults to /login.
	LoginPath   string
	Revocations RevocationChecker
	Logger      zerolog.Logger
}

// RoleGate admits requests whose token decodes to one of the allowed roles
// and redirects everything else to the login page. Token expiry is not
// checked here; the upstream rejects expired tokens on the next call.
func RoleGate(cfg GateConfig) echo.MiddlewareFunc {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = LoginPath
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := TokenFromRequest(c, cfg.CookieName)
			if raw == "" {
				return c.Redirect(http.StatusFound, loginPath)
			}

			sess, err := DecodeToken(raw)
			if err != nil {
				cfg.Logger.Warn().Err(err).Str("path", c.Request().URL.Path).Msg("invalid token")
				return c.Redirect(http.StatusFound, loginPath)
			}

			if !sess.HasRole(cfg.AllowedRoles...) {
				cfg.Logger.Debug().
					Strs("roles", sess.Roles).
					Strs("allowed", cfg.AllowedRoles).
					Str("path", c.Request().URL.Path).
					Msg("role not admitted")
				return c.Redirect(http.StatusFound, loginPath)
			}

			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsRevoked(c.Request().Context(), raw)
				if err != nil {
					cfg.Logger.Error().Err(err).Msg("revocation lookup failed")
					return c.Redirect(http.StatusFound, loginPath)
				}
				if revoked {
					return c.Redirect(http.StatusFound, loginPath)
				}
			}

			ctx := context.WithValue(c.Request().Context(), SessionKey, sess)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// TokenFromRequest returns the token from the named cookie or, failing that,
// from an Authorization bearer header.
func TokenFromRequest(c echo.Context, cookieName string) string {
	if cookieName != "" {
		if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
			return ck.Value
		}
	}
	parts := strings.SplitN(c.Request().Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(SessionKey).(*Session)
	return s
}
