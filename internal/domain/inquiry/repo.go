package inquiry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/medbook/console/internal/platform/apiclient"
)

// MaxAttachmentSize is the largest image accepted on a response.
const MaxAttachmentSize = 5 << 20

var (
	ErrEmptyResponse      = errors.New("response text is required")
	ErrAttachmentNotImage = errors.New("only image files are allowed")
	ErrAttachmentTooLarge = errors.New("file size must be less than 5MB")
)

// Response is a doctor's answer to an inquiry.
type Response struct {
	Text  string           `json:"response" validate:"required,max=5000"`
	Files []apiclient.File `json:"-"`
}

// Validate enforces a non-blank text and image-only attachments of at most
// MaxAttachmentSize bytes each.
func (r Response) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyResponse
	}
	for _, f := range r.Files {
		ct := f.ContentType
		if ct == "" {
			ct = http.DetectContentType(f.Data)
		}
		if !strings.HasPrefix(ct, "image/") {
			return fmt.Errorf("%s: %w", f.Name, ErrAttachmentNotImage)
		}
		if len(f.Data) > MaxAttachmentSize {
			return fmt.Errorf("%s: %w", f.Name, ErrAttachmentTooLarge)
		}
	}
	return nil
}

type Repository interface {
	List(ctx context.Context) ([]Inquiry, error)
	BySpecialty(ctx context.Context, specialty string) ([]Inquiry, error)
	Analytics(ctx context.Context) (*Analytics, error)
	Respond(ctx context.Context, id string, r Response) error
}
