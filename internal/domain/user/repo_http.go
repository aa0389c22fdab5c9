package user

import (
	"context"

	"github.com/medbook/console/internal/platform/apiclient"
)

type userRepoHTTP struct {
	client *apiclient.Client
}

func NewUserRepoHTTP(client *apiclient.Client) Repository {
	return &userRepoHTTP{client: client}
}

func (r *userRepoHTTP) List(ctx context.Context) ([]User, error) {
	var out apiclient.List[User]
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/admin/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update returns the upstream's copy of the user, or nil when the response
// carries no body.
func (r *userRepoHTTP) Update(ctx context.Context, id string, up Update) (*User, error) {
	var u User
	if err := r.client.Put(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/admin/users", id), up, &u); err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepoHTTP) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/admin/users", id))
}

func (r *userRepoHTTP) Notify(ctx context.Context, id, message string) error {
	body := map[string]string{"message": message}
	return r.client.Post(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/admin/users", id, "notify"), body, nil)
}
