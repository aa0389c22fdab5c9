package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSink appends notifications to the console_activity table.
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

func (s *PGSink) Write(ctx context.Context, n Notification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO console_activity (id, session_key, subject, role, level, action, message, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.SessionKey, n.Subject, n.Role, string(n.Level), n.Action, n.Message, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns the latest activity for a subject, newest first.
func (s *PGSink) Recent(ctx context.Context, subject string, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, level, action, message, subject, role, created_at
		 FROM console_activity WHERE subject = $1
		 ORDER BY created_at DESC LIMIT $2`,
		subject, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		var level string
		var at time.Time
		if err := row.Scan(&n.ID, &level, &n.Action, &n.Message, &n.Subject, &n.Role, &at); err != nil {
			return n, err
		}
		n.Level = Level(level)
		n.CreatedAt = at
		return n, nil
	})
}
