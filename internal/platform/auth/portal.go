package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	AdminCookie  = "aToken"
	DoctorCookie = "dToken"
	LoginPath    = "/login"
)

// Portal is one protected area of the console together with the cookie that
// carries its token.
type Portal struct {
	Name     string
	Cookie   string
	BasePath string
	// LoginRoles must match at login time.
	LoginRoles []string
	// GateRoles are admitted by the route gate.
	GateRoles []string
}

var (
	AdminPortal = Portal{
		Name:       "Admin",
		Cookie:     AdminCookie,
		BasePath:   "/admin",
		LoginRoles: []string{RoleAdmin},
		GateRoles:  []string{RoleAdmin},
	}
	DoctorPortal = Portal{
		Name:       "Doctor",
		Cookie:     DoctorCookie,
		BasePath:   "/doctor",
		LoginRoles: []string{RoleDoctor},
		GateRoles:  []string{RoleDoctor, RolePatient},
	}
)

// Portals lists every protected area.
var Portals = []Portal{AdminPortal, DoctorPortal}

// PortalByName looks up a portal case-insensitively.
func PortalByName(name string) (Portal, bool) {
	for _, p := range Portals {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Portal{}, false
}

// Other returns the portal whose cookie must be cleared when p logs in.
func (p Portal) Other() Portal {
	if p.Cookie == AdminCookie {
		return DoctorPortal
	}
	return AdminPortal
}

// Gate returns the route gate for this portal.
func (p Portal) Gate(cfg GateConfig) echo.MiddlewareFunc {
	cfg.CookieName = p.Cookie
	cfg.AllowedRoles = p.GateRoles
	return RoleGate(cfg)
}

// SetTokenCookie stores token under the portal cookie.
func SetTokenCookie(c echo.Context, name, token string, expires time.Time, secure bool) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if !expires.IsZero() {
		cookie.Expires = expires
	}
	c.SetCookie(cookie)
}

// ClearTokenCookie removes the named cookie from the browser.
func ClearTokenCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
