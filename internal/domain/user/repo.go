package user

import "context"

type Repository interface {
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id string, up Update) (*User, error)
	Delete(ctx context.Context, id string) error
	Notify(ctx context.Context, id, message string) error
}
