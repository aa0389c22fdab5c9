// Package notification carries the transient success/error/info messages the
// console raises after every fetch and mutation. Each session keeps a bounded
// feed; messages are also pushed to live websocket clients and, when a
// database is configured, appended to an activity log.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// Levels
// ---------------------------------------------------------------------------

// Level is the severity shown to the user.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// EventType is the websocket event type for notifications.
const EventType = "notification"

// ---------------------------------------------------------------------------
// Notification
// ---------------------------------------------------------------------------

// Notification is a single toast.
type Notification struct {
	ID         string    `json:"id"`
	Level      Level     `json:"level"`
	Action     string    `json:"action,omitempty"`
	Message    string    `json:"message"`
	Subject    string    `json:"subject,omitempty"`
	Role       string    `json:"role,omitempty"`
	SessionKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ---------------------------------------------------------------------------
// Feed
// ---------------------------------------------------------------------------

// Feed is a bounded, newest-last list of notifications. When full, the
// oldest entry is dropped.
type Feed struct {
	mu    sync.RWMutex
	items []Notification
	max   int
}

func NewFeed(max int) *Feed {
	if max <= 0 {
		max = 50
	}
	return &Feed{max: max}
}

func (f *Feed) Push(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, n)
	if over := len(f.items) - f.max; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
}

// List returns a copy of the feed, newest first.
func (f *Feed) List() []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Notification, len(f.items))
	for i, n := range f.items {
		out[len(f.items)-1-i] = n
	}
	return out
}

// Latest returns the most recent notification, if any.
func (f *Feed) Latest() (Notification, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.items) == 0 {
		return Notification{}, false
	}
	return f.items[len(f.items)-1], true
}

func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.items)
}

// ---------------------------------------------------------------------------
// Delivery
// ---------------------------------------------------------------------------

// Publisher pushes an event to live subscribers of a topic.
type Publisher interface {
	PublishJSON(ctx context.Context, topic, eventType string, payload any) error
}

// Recorder persists notifications for later review.
type Recorder interface {
	Record(n Notification)
}

// TopicFor is the websocket topic a session's notifications are sent to.
func TopicFor(sessionKey string) string {
	return "session:" + sessionKey
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

// Notifier raises notifications for one session. Delivery to the publisher
// and recorder is best effort and never fails the caller.
type Notifier struct {
	feed       *Feed
	sessionKey string
	subject    string
	role       string
	publisher  Publisher
	recorder   Recorder
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures a Notifier.
type Option func(*Notifier)

func WithPublisher(p Publisher) Option { return func(n *Notifier) { n.publisher = p } }
func WithRecorder(r Recorder) Option   { return func(n *Notifier) { n.recorder = r } }
func WithLogger(l zerolog.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// WithIdentity tags every notification with the session owner.
func WithIdentity(sessionKey, subject, role string) Option {
	return func(n *Notifier) {
		n.sessionKey = sessionKey
		n.subject = subject
		n.role = role
	}
}

func NewNotifier(feed *Feed, opts ...Option) *Notifier {
	n := &Notifier{
		feed:   feed,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Feed returns the session feed.
func (n *Notifier) Feed() *Feed {
	return n.feed
}

func (n *Notifier) Success(ctx context.Context, action, message string) Notification {
	return n.Notify(ctx, LevelSuccess, action, message)
}

func (n *Notifier) Error(ctx context.Context, action, message string) Notification {
	return n.Notify(ctx, LevelError, action, message)
}

func (n *Notifier) Info(ctx context.Context, action, message string) Notification {
	return n.Notify(ctx, LevelInfo, action, message)
}

// Notify appends a notification to the feed and fans it out.
func (n *Notifier) Notify(ctx context.Context, level Level, action, message string) Notification {
	note := Notification{
		ID:         uuid.NewString(),
		Level:      level,
		Action:     action,
		Message:    message,
		Subject:    n.subject,
		Role:       n.role,
		SessionKey: n.sessionKey,
		CreatedAt:  n.now().UTC(),
	}
	n.feed.Push(note)

	if n.publisher != nil && n.sessionKey != "" {
		if err := n.publisher.PublishJSON(ctx, TopicFor(n.sessionKey), EventType, note); err != nil {
			n.logger.Warn().Err(err).Str("action", action).Msg("publish notification")
		}
	}
	if n.recorder != nil {
		n.recorder.Record(note)
	}
	return note
}
