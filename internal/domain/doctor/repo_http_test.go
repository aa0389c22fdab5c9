package doctor

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/medbook/console/internal/platform/apiclient"
)

func newTestRepo(t *testing.T, handler http.HandlerFunc) (Repository, context.Context) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	repo := NewDoctorRepoHTTP(apiclient.New(srv.URL, 5*time.Second))
	return repo, apiclient.WithToken(context.Background(), "tok")
}

func TestDoctorRepoHTTP_ListSendsToken(t *testing.T) {
	repo, ctx := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doctors" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"data":[{"id":1,"firstName":"A"},{"_id":"2","firstName":"B"}]}`))
	})

	doctors, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doctors) != 2 || doctors[0].ID != "1" || doctors[1].ID != "2" {
		t.Errorf("unexpected doctors %+v", doctors)
	}
}

func TestDoctorRepoHTTP_StateChangeEndpoints(t *testing.T) {
	var calls []string
	repo, ctx := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	steps := []func() error{
		func() error { return repo.Activate(ctx, "d1") },
		func() error { return repo.Deactivate(ctx, "d1") },
		func() error { return repo.Approve(ctx, "d1") },
		func() error { return repo.Reject(ctx, "d1", "missing license") },
		func() error { return repo.Notify(ctx, "d1", "hello") },
		func() error { return repo.Delete(ctx, "d1") },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: unexpected error: %v", i, err)
		}
	}

	want := []string{
		"PATCH /doctors/d1/activate",
		"PATCH /doctors/d1/deactivate",
		"POST /doctors/d1/approve",
		"POST /doctors/d1/reject",
		"POST /doctors/d1/notify",
		"DELETE /doctors/d1",
	}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestDoctorRepoHTTP_RejectSendsNote(t *testing.T) {
	repo, ctx := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["adminNote"] != "incomplete" {
			t.Errorf("expected adminNote, got %v", body)
		}
	})
	if err := repo.Reject(ctx, "d1", "incomplete"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDoctorRepoHTTP_ApprovalRequestsQuery(t *testing.T) {
	repo, ctx := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "Pending" {
			t.Errorf("status query = %q", got)
		}
		w.Write([]byte(`[{"id":1,"status":"Pending","doctor":{"id":"d1"}}]`))
	})

	reqs, err := repo.ApprovalRequests(ctx, "pending")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 || reqs[0].DoctorID != "d1" {
		t.Errorf("unexpected requests %+v", reqs)
	}
}

func TestDoctorRepoHTTP_UploadPicture(t *testing.T) {
	repo, ctx := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("Picture")
		if err != nil {
			t.Errorf("expected Picture part: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "me.png" || string(data) != "png" {
			t.Errorf("unexpected part %s %q", hdr.Filename, data)
		}
		w.Write([]byte(`{"FileUrl":"https://cdn/me.png"}`))
	})

	u, err := repo.UploadPicture(ctx, apiclient.File{Name: "me.png", ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != "https://cdn/me.png" {
		t.Errorf("unexpected url %q", u)
	}
}

func TestDoctorRepoHTTP_RequestApprovalRefused(t *testing.T) {
	repo, ctx := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"message":"Profile incomplete"}`))
	})

	_, err := repo.RequestApproval(ctx)
	if err == nil {
		t.Fatal("expected error for success=false")
	}
	if apiclient.Message(err) != "Profile incomplete" {
		t.Errorf("unexpected message %q", apiclient.Message(err))
	}
}

func TestDoctorRepoHTTP_RegisterWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("signup must not send a token")
		}
		w.Write([]byte(`{"success":true,"userId":44,"message":"Registered"}`))
	}))
	defer srv.Close()
	repo := NewDoctorRepoHTTP(apiclient.New(srv.URL, 5*time.Second))

	res, err := repo.Register(context.Background(), Signup{FirstName: "A", LastName: "B", Email: "a@b.c", Password: "secret1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.UserID != "44" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDoctorRepoHTTP_UpstreamError(t *testing.T) {
	repo, ctx := newTestRepo(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Doctor not found"}`))
	})

	err := repo.Delete(ctx, "missing")
	if apiclient.StatusCode(err) != http.StatusNotFound || apiclient.Message(err) != "Doctor not found" {
		t.Errorf("unexpected error %v", err)
	}
}
