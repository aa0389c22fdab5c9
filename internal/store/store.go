// Package store keeps the per-session view of the upstream API: the
// collections each console screen renders, refreshed by fetches and patched
// or re-fetched after mutations. Every operation raises a notification.
package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/medbook/console/internal/domain/appointment"
	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/domain/inquiry"
	"github.com/medbook/console/internal/domain/user"
	"github.com/medbook/console/internal/platform/apiclient"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
)

// ErrInvalidInput marks errors caused by the caller's input rather than
// the upstream.
var ErrInvalidInput = errors.New("invalid input")

// Error is returned by every store operation. Message is the text of the
// notification that was raised for it.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Message returns the user-facing text for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// Repos bundles the upstream repositories a store talks to.
type Repos struct {
	Doctors      doctor.Repository
	Appointments appointment.Repository
	Users        user.Repository
	Inquiries    inquiry.Repository
	Stats        StatsRepository
}

// NewHTTPRepos builds every repository over one upstream client.
func NewHTTPRepos(client *apiclient.Client) Repos {
	return Repos{
		Doctors:      doctor.NewDoctorRepoHTTP(client),
		Appointments: appointment.NewAppointmentRepoHTTP(client),
		Users:        user.NewUserRepoHTTP(client),
		Inquiries:    inquiry.NewInquiryRepoHTTP(client),
		Stats:        NewStatsRepoHTTP(client),
	}
}

// base carries what both role stores share: the caller's session, its
// notifier and a logger.
type base struct {
	session  *auth.Session
	notifier *notification.Notifier
	logger   zerolog.Logger
}

// upstream attaches the session token for the repositories.
func (b *base) upstream(ctx context.Context) context.Context {
	return apiclient.WithToken(ctx, b.session.Token)
}

func (b *base) succeed(ctx context.Context, op, message string) {
	b.notifier.Success(ctx, op, message)
}

// fail logs an upstream failure, raises an error notification and wraps err.
func (b *base) fail(ctx context.Context, op, message string, err error) error {
	b.logger.Error().
		Err(err).
		Str("op", op).
		Str("subject", b.session.Subject).
		Int("upstream_status", apiclient.StatusCode(err)).
		Msg("upstream call failed")
	b.notifier.Error(ctx, op, message)
	return &Error{Op: op, Message: message, Err: err}
}

// reject refuses bad input before any upstream call.
func (b *base) reject(ctx context.Context, op, message string) error {
	b.notifier.Error(ctx, op, message)
	return &Error{Op: op, Message: message, Err: ErrInvalidInput}
}

// Notifications returns the session's notification feed, newest first.
func (b *base) Notifications() []notification.Notification {
	return b.notifier.Feed().List()
}

func (b *base) Session() *auth.Session {
	return b.session
}
