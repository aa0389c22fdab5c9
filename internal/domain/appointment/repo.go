package appointment

import "context"

// Repository is the upstream appointment API. Transitions only request the
// change; callers re-fetch to observe it.
type Repository interface {
	List(ctx context.Context) ([]Appointment, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
	Complete(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Stats(ctx context.Context) (*Stats, error)
	Recent(ctx context.Context) (*Appointment, error)
}
