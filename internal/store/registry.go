package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
)

// DefaultIdleTTL is how long a session's stores live without requests.
const DefaultIdleTTL = 30 * time.Minute

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Repos   Repos
	History int
	IdleTTL time.Duration
	Logger  zerolog.Logger

	// Publisher pushes notifications to live clients; optional.
	Publisher notification.Publisher

	// Recorder appends notifications to the activity log; optional.
	Recorder notification.Recorder
}

type entry struct {
	feed     *notification.Feed
	notifier *notification.Notifier
	admin    *AdminStore
	doctor   *DoctorStore
	lastSeen time.Time
}

// Registry maps sessions to their stores. Entries are keyed by the token
// hash and evicted after IdleTTL without use.
type Registry struct {
	cfg RegistryConfig

	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewRegistry starts the idle sweeper; call Close to stop it.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	r := &Registry{
		cfg:     cfg,
		entries: make(map[string]*entry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go r.sweepLoop()
	return r
}

func (r *Registry) get(sess *auth.Session) *entry {
	key := sess.Key()
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[key]
	if !ok {
		feed := notification.NewFeed(r.cfg.History)
		opts := []notification.Option{
			notification.WithIdentity(key, sess.Subject, sess.Role),
			notification.WithLogger(r.cfg.Logger),
		}
		if r.cfg.Publisher != nil {
			opts = append(opts, notification.WithPublisher(r.cfg.Publisher))
		}
		if r.cfg.Recorder != nil {
			opts = append(opts, notification.WithRecorder(r.cfg.Recorder))
		}
		e = &entry{feed: feed, notifier: notification.NewNotifier(feed, opts...)}
		r.entries[key] = e
		r.cfg.Logger.Debug().Str("subject", sess.Subject).Str("role", sess.Role).Msg("session opened")
	}
	e.lastSeen = now
	return e
}

// Admin returns the admin store of sess, creating it on first use.
func (r *Registry) Admin(sess *auth.Session) *AdminStore {
	e := r.get(sess)
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.admin == nil {
		e.admin = NewAdminStore(sess, r.cfg.Repos, e.notifier, r.cfg.Logger)
	}
	return e.admin
}

// Doctor returns the doctor store of sess, creating it on first use.
func (r *Registry) Doctor(sess *auth.Session) *DoctorStore {
	e := r.get(sess)
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.doctor == nil {
		e.doctor = NewDoctorStore(sess, r.cfg.Repos, e.notifier, r.cfg.Logger)
	}
	return e.doctor
}

// Feed returns the notification feed of sess.
func (r *Registry) Feed(sess *auth.Session) *notification.Feed {
	return r.get(sess).feed
}

// Drop forgets the session with the given key, used on logout.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	delete(r.entries, key)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts idle sessions and returns how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.cfg.IdleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			delete(r.entries, key)
			n++
		}
	}
	return n
}

func (r *Registry) sweepLoop() {
	defer close(r.done)

	interval := r.cfg.IdleTTL / 2
	if interval > 5*time.Minute {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.cfg.Logger.Debug().Int("evicted", n).Msg("idle sessions evicted")
			}
		case <-r.stop:
			return
		}
	}
}

// Close stops the sweeper. It is safe to call more than once.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
}
