package doctor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/medbook/console/internal/platform/apiclient"
)

type doctorRepoHTTP struct {
	client *apiclient.Client
}

func NewDoctorRepoHTTP(client *apiclient.Client) Repository {
	return &doctorRepoHTTP{client: client}
}

func (r *doctorRepoHTTP) List(ctx context.Context) ([]Doctor, error) {
	var out apiclient.List[Doctor]
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/doctors", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *doctorRepoHTTP) Create(ctx context.Context, in Input) (*Doctor, error) {
	var d Doctor
	if err := r.client.Post(ctx, apiclient.TokenFrom(ctx), "/doctors", in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoHTTP) Update(ctx context.Context, id string, in Input) (*Doctor, error) {
	var d Doctor
	if err := r.client.Put(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/doctors", id), in, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoHTTP) Delete(ctx context.Context, id string) error {
	return r.client.Delete(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/doctors", id))
}

func (r *doctorRepoHTTP) Activate(ctx context.Context, id string) error {
	return r.client.Patch(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/doctors", id, "activate"), nil, nil)
}

func (r *doctorRepoHTTP) Deactivate(ctx context.Context, id string) error {
	return r.client.Patch(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/doctors", id, "deactivate"), nil, nil)
}

func (r *doctorRepoHTTP) Notify(ctx context.Context, id, message string) error {
	body := map[string]string{"message": message}
	return r.client.Post(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/doctors", id, "notify"), body, nil)
}

func (r *doctorRepoHTTP) UploadImage(ctx context.Context, file apiclient.File) (string, error) {
	file.Field = "file"
	var out struct {
		URL string `json:"url"`
	}
	if err := r.client.Upload(ctx, apiclient.TokenFrom(ctx), "/doctors/upload", nil, []apiclient.File{file}, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload doctor image: response has no url")
	}
	return out.URL, nil
}

func (r *doctorRepoHTTP) Me(ctx context.Context) (*Doctor, error) {
	var d Doctor
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/doctors/me", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoHTTP) UpdateMe(ctx context.Context, u ProfileUpdate) (*Doctor, error) {
	var d Doctor
	if err := r.client.Patch(ctx, apiclient.TokenFrom(ctx), "/doctors/me", u, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *doctorRepoHTTP) UploadPicture(ctx context.Context, file apiclient.File) (string, error) {
	file.Field = "Picture"
	var out struct {
		FileURL   string `json:"fileUrl"`
		LegacyURL string `json:"FileUrl"`
		URL       string `json:"url"`
	}
	if err := r.client.Upload(ctx, apiclient.TokenFrom(ctx), "/profile-pictures/upload", nil, []apiclient.File{file}, &out); err != nil {
		return "", err
	}
	u := apiclient.FirstNonEmpty(out.FileURL, out.LegacyURL, out.URL)
	if u == "" {
		return "", fmt.Errorf("upload profile picture: response has no fileUrl")
	}
	return u, nil
}

func (r *doctorRepoHTTP) RequestApproval(ctx context.Context) (string, error) {
	var out struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := r.client.Post(ctx, apiclient.TokenFrom(ctx), "/doctors/request-approval", nil, &out); err != nil {
		return "", err
	}
	if out.Success != nil && !*out.Success {
		return "", &apiclient.Error{
			Method:     http.MethodPost,
			Path:       "/doctors/request-approval",
			StatusCode: http.StatusOK,
			Message:    apiclient.FirstNonEmpty(out.Message, "approval request refused"),
		}
	}
	return out.Message, nil
}

func (r *doctorRepoHTTP) ApprovalStatus(ctx context.Context) (*ApprovalStatus, error) {
	var s ApprovalStatus
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/doctors/me/approval-status", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *doctorRepoHTTP) ApprovalRequests(ctx context.Context, status string) ([]ApprovalRequest, error) {
	q := url.Values{}
	if status != "" && status != "all" {
		q.Set("status", string(ParseApprovalState(status)))
	}
	var out apiclient.List[ApprovalRequest]
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), apiclient.WithQuery("/doctors/approval-requests", q), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *doctorRepoHTTP) Approve(ctx context.Context, id string) error {
	return r.client.Post(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/doctors", id, "approve"), nil, nil)
}

func (r *doctorRepoHTTP) Reject(ctx context.Context, id, note string) error {
	body := map[string]string{"adminNote": note}
	return r.client.Post(ctx, apiclient.TokenFrom(ctx), apiclient.Path("/doctors", id, "reject"), body, nil)
}

func (r *doctorRepoHTTP) Register(ctx context.Context, s Signup) (*SignupResult, error) {
	var w struct {
		Success bool                 `json:"success"`
		UserID  apiclient.FlexString `json:"userId"`
		Message string               `json:"message"`
	}
	if err := r.client.Post(ctx, "", "/register-doctor", s, &w); err != nil {
		return nil, err
	}
	return &SignupResult{Success: w.Success, UserID: string(w.UserID), Message: w.Message}, nil
}
