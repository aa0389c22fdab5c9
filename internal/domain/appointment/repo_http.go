package appointment

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/medbook/console/internal/platform/apiclient"
)

type appointmentRepoHTTP struct {
	client *apiclient.Client
}

func NewAppointmentRepoHTTP(client *apiclient.Client) Repository {
	return &appointmentRepoHTTP{client: client}
}

func (r *appointmentRepoHTTP) List(ctx context.Context) ([]Appointment, error) {
	var out apiclient.List[Appointment]
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/appointments", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *appointmentRepoHTTP) transition(ctx context.Context, id, action string) error {
	return r.client.Post(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/appointments", id, action), struct{}{}, nil)
}

func (r *appointmentRepoHTTP) Approve(ctx context.Context, id string) error {
	return r.transition(ctx, id, "approve")
}

func (r *appointmentRepoHTTP) Reject(ctx context.Context, id string) error {
	return r.transition(ctx, id, "reject")
}

func (r *appointmentRepoHTTP) Complete(ctx context.Context, id string) error {
	return r.transition(ctx, id, "complete")
}

func (r *appointmentRepoHTTP) Cancel(ctx context.Context, id string) error {
	return r.transition(ctx, id, "cancel")
}

func (r *appointmentRepoHTTP) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/appointments/stats", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Recent returns the doctor's most recent appointment, or nil when the
// upstream has none. Both a single object and a list are accepted.
func (r *appointmentRepoHTTP) Recent(ctx context.Context) (*Appointment, error) {
	var raw json.RawMessage
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/appointments/recent", &raw); err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []Appointment
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, nil
		}
		return &list[0], nil
	}
	var a Appointment
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, nil
	}
	return &a, nil
}
