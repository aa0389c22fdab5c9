// Package console is the HTTP surface the staff frontend talks to: the
// public login flow and the gated /admin and /doctor subtrees backed by the
// per-session stores.
package console

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
	"github.com/medbook/console/internal/store"
)

// TopicCloser drops live listeners of a session on logout.
type TopicCloser interface {
	CloseTopic(topic string)
}

// Config wires a Handler.
type Config struct {
	Registry    *store.Registry
	Accounts    Accounts
	Doctors     doctor.Repository
	Revocations auth.RevocationStore
	Topics      TopicCloser
	Logger      zerolog.Logger

	// CookieSecure marks the token cookies Secure.
	CookieSecure bool

	// Throttle guards the public sign-in endpoints; optional.
	Throttle echo.MiddlewareFunc
}

// Handler serves every console route.
type Handler struct {
	registry     *store.Registry
	accounts     Accounts
	doctors      doctor.Repository
	revocations  auth.RevocationStore
	topics       TopicCloser
	logger       zerolog.Logger
	cookieSecure bool
	throttle     []echo.MiddlewareFunc
}

func NewHandler(cfg Config) *Handler {
	h := &Handler{
		registry:     cfg.Registry,
		accounts:     cfg.Accounts,
		doctors:      cfg.Doctors,
		revocations:  cfg.Revocations,
		topics:       cfg.Topics,
		logger:       cfg.Logger,
		cookieSecure: cfg.CookieSecure,
	}
	if cfg.Throttle != nil {
		h.throttle = append(h.throttle, cfg.Throttle)
	}
	return h
}

func (h *Handler) adminStore(c echo.Context) (*store.AdminStore, error) {
	sess := auth.SessionFromContext(c.Request().Context())
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return h.registry.Admin(sess), nil
}

func (h *Handler) doctorStore(c echo.Context) (*store.DoctorStore, error) {
	sess := auth.SessionFromContext(c.Request().Context())
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return h.registry.Doctor(sess), nil
}

// notifications returns the caller's feed, newest first.
func (h *Handler) notifications(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "no session")
	}
	return c.JSON(http.StatusOK, h.registry.Feed(sess).List())
}

// SessionTopic is the websocket topic of the gated caller.
func SessionTopic(c echo.Context) string {
	sess := auth.SessionFromContext(c.Request().Context())
	if sess == nil {
		return ""
	}
	return notification.TopicFor(sess.Key())
}

// storeError maps a store failure to an HTTP error. Input problems are 400;
// anything that failed upstream is 502 with the notification text.
func storeError(err error) error {
	if errors.Is(err, store.ErrInvalidInput) {
		return echo.NewHTTPError(http.StatusBadRequest, store.Message(err))
	}
	return echo.NewHTTPError(http.StatusBadGateway, store.Message(err))
}

type messageResponse struct {
	Message string `json:"message"`
}

func ok(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, messageResponse{Message: message})
}
