package console

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/platform/apiclient"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
)

type portalView struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// loginScreen describes the login page: the portals one can sign in to and,
// when a portal cookie already holds a usable token, where to go instead.
type loginScreen struct {
	Portals     []portalView `json:"portals"`
	OTPPath     string       `json:"otpPath"`
	SignupPath  string       `json:"signupPath"`
	Specialties []string     `json:"specialties"`
	Redirect    string       `json:"redirect,omitempty"`
}

func (h *Handler) LoginScreen(c echo.Context) error {
	screen := loginScreen{
		OTPPath:     "/otp",
		SignupPath:  "/doctor-signup",
		Specialties: doctor.Specialties,
	}
	for _, p := range auth.Portals {
		screen.Portals = append(screen.Portals, portalView{Name: p.Name, Path: p.BasePath})
		if screen.Redirect == "" && h.signedIn(c, p) {
			screen.Redirect = p.BasePath
		}
	}
	return c.JSON(http.StatusOK, screen)
}

// signedIn reports whether the portal cookie holds a token the gate would
// admit.
func (h *Handler) signedIn(c echo.Context, p auth.Portal) bool {
	ck, err := c.Cookie(p.Cookie)
	if err != nil || ck.Value == "" {
		return false
	}
	sess, err := auth.DecodeToken(ck.Value)
	if err != nil || !sess.HasRole(p.GateRoles...) {
		return false
	}
	if h.revocations != nil {
		revoked, err := h.revocations.IsRevoked(c.Request().Context(), ck.Value)
		if err != nil || revoked {
			return false
		}
	}
	return true
}

type loginRequest struct {
	Credentials
	Portal string `json:"portal" validate:"required,oneof=Admin Doctor"`
}

type otpRequest struct {
	OTPCode
	Portal string `json:"portal" validate:"required,oneof=Admin Doctor"`
}

type loginResponse struct {
	Message     string `json:"message"`
	Portal      string `json:"portal,omitempty"`
	Redirect    string `json:"redirect,omitempty"`
	OTPRequired bool   `json:"otpRequired,omitempty"`
	TempToken   string `json:"tempToken,omitempty"`
	UserID      string `json:"userId,omitempty"`
}

// Login signs in to the requested portal. A login answered with
// otpRequired is handed back to the client for the OTP step; otherwise the
// token role must match the portal.
func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	portal, _ := auth.PortalByName(req.Portal)

	res, err := h.accounts.Login(c.Request().Context(), req.Credentials)
	if err != nil {
		h.logger.Warn().Err(err).Str("portal", portal.Name).Int("upstream_status", apiclient.StatusCode(err)).Msg("login failed")
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials or error during login")
	}

	if res.OTPRequired {
		return c.JSON(http.StatusOK, loginResponse{
			Message:     "Enter the OTP sent to your email",
			Portal:      portal.Name,
			OTPRequired: true,
			TempToken:   res.TempToken,
			UserID:      res.UserID,
		})
	}
	if res.AccessToken == "" {
		return echo.NewHTTPError(http.StatusBadGateway, "Invalid response from server")
	}
	return h.completeLogin(c, portal, res.AccessToken, "Login successful")
}

// VerifyOTP finishes a login that required a one-time code.
func (h *Handler) VerifyOTP(c echo.Context) error {
	var req otpRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	portal, _ := auth.PortalByName(req.Portal)

	res, err := h.accounts.VerifyOTP(c.Request().Context(), req.OTPCode)
	if err != nil {
		msg := apiclient.Message(err)
		if apiclient.StatusCode(err) == 0 || msg == "" {
			msg = "Please try again."
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "Verification failed: "+msg)
	}
	if res.AccessToken == "" {
		msg := res.Message
		if msg == "" {
			msg = "Invalid OTP or error during verification."
		}
		return echo.NewHTTPError(http.StatusUnauthorized, msg)
	}
	return h.completeLogin(c, portal, res.AccessToken, "Verification successful!")
}

func (h *Handler) completeLogin(c echo.Context, portal auth.Portal, token, message string) error {
	sess, err := auth.DecodeToken(token)
	if err != nil {
		h.logger.Error().Err(err).Msg("upstream issued an undecodable token")
		return echo.NewHTTPError(http.StatusBadGateway, "Invalid response from server")
	}
	if !sess.HasRole(portal.LoginRoles...) {
		return echo.NewHTTPError(http.StatusForbidden, deniedMessage(portal))
	}

	auth.ClearTokenCookie(c, portal.Other().Cookie, h.cookieSecure)
	auth.SetTokenCookie(c, portal.Cookie, token, sess.ExpiresAt, h.cookieSecure)

	h.logger.Info().Str("subject", sess.Subject).Str("portal", portal.Name).Msg("signed in")
	return c.JSON(http.StatusOK, loginResponse{
		Message:  message,
		Portal:   portal.Name,
		Redirect: portal.BasePath,
	})
}

func deniedMessage(p auth.Portal) string {
	if p.Cookie == auth.AdminCookie {
		return "Access Denied: You do not have admin privileges."
	}
	return "Access Denied: You are not a registered doctor."
}

// Logout revokes whichever portal tokens the caller holds, drops their
// sessions and clears both cookies.
func (h *Handler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	for _, p := range auth.Portals {
		raw := auth.TokenFromRequest(c, p.Cookie)
		if raw == "" {
			continue
		}
		var expires time.Time
		if sess, err := auth.DecodeToken(raw); err == nil {
			expires = sess.ExpiresAt
		}
		if h.revocations != nil {
			if err := h.revocations.Revoke(ctx, raw, expires); err != nil {
				h.logger.Error().Err(err).Str("portal", p.Name).Msg("token revocation failed")
			}
		}
		key := auth.TokenKey(raw)
		if h.topics != nil {
			h.topics.CloseTopic(notification.TopicFor(key))
		}
		h.registry.Drop(key)
	}
	for _, p := range auth.Portals {
		auth.ClearTokenCookie(c, p.Cookie, h.cookieSecure)
	}
	return ok(c, "Logged out")
}

// DoctorSignup passes a doctor registration through to the upstream.
func (h *Handler) DoctorSignup(c echo.Context) error {
	var req doctor.Signup
	if err := bindValid(c, &req); err != nil {
		return err
	}
	res, err := h.doctors.Register(c.Request().Context(), req)
	if err != nil {
		msg := apiclient.Message(err)
		if apiclient.StatusCode(err) == 0 {
			msg = "Registration failed. Please try again."
		}
		return echo.NewHTTPError(http.StatusBadGateway, msg)
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Registration failed. Please try again."
		}
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	if res.Message == "" {
		res.Message = "Registration successful. Your account is pending activation."
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func toLogin(c echo.Context) error {
	return c.Redirect(http.StatusFound, auth.LoginPath)
}
