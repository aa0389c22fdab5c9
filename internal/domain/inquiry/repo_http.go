package inquiry

import (
	"context"
	"net/url"

	"github.com/medbook/console/internal/platform/apiclient"
)

type inquiryRepoHTTP struct {
	client *apiclient.Client
}

func NewInquiryRepoHTTP(client *apiclient.Client) Repository {
	return &inquiryRepoHTTP{client: client}
}

func (r *inquiryRepoHTTP) List(ctx context.Context) ([]Inquiry, error) {
	var out apiclient.List[Inquiry]
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/inquiries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inquiryRepoHTTP) BySpecialty(ctx context.Context, specialty string) ([]Inquiry, error) {
	path := apiclient.WithQuery("/inquiries", url.Values{"specialty": {specialty}})
	var out apiclient.List[Inquiry]
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *inquiryRepoHTTP) Analytics(ctx context.Context) (*Analytics, error) {
	var a Analytics
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/inquiries/analytics", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Respond posts JSON when there are no attachments and multipart otherwise.
func (r *inquiryRepoHTTP) Respond(ctx context.Context, id string, resp Response) error {
	path := apiclient.Path("/inquiries", id, "respond")
	token := apiclient.TokenFrom(ctx)
	if len(resp.Files) == 0 {
		return r.client.Post(ctx, token, path, resp, nil)
	}

	files := make([]apiclient.File, len(resp.Files))
	for i, f := range resp.Files {
		f.Field = "responseFiles"
		files[i] = f
	}
	return r.client.Upload(ctx, token, path, map[string]string{"response": resp.Text}, files, nil)
}
