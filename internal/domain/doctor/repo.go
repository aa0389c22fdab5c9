package doctor

import (
	"context"

	"github.com/medbook/console/internal/platform/apiclient"
)

// Repository is the upstream doctor API. The caller's token travels on the
// context (apiclient.WithToken).
type Repository interface {
	List(ctx context.Context) ([]Doctor, error)
	Create(ctx context.Context, in Input) (*Doctor, error)
	Update(ctx context.Context, id string, in Input) (*Doctor, error)
	Delete(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) error
	Notify(ctx context.Context, id, message string) error
	UploadImage(ctx context.Context, file apiclient.File) (string, error)

	// Signed-in doctor.
	Me(ctx context.Context) (*Doctor, error)
	UpdateMe(ctx context.Context, u ProfileUpdate) (*Doctor, error)
	UploadPicture(ctx context.Context, file apiclient.File) (string, error)
	RequestApproval(ctx context.Context) (string, error)
	ApprovalStatus(ctx context.Context) (*ApprovalStatus, error)

	// Approval workflow, admin side.
	ApprovalRequests(ctx context.Context, status string) ([]ApprovalRequest, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id, note string) error

	Register(ctx context.Context, s Signup) (*SignupResult, error)
}
