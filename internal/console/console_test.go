package console

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbook/console/internal/platform/apiclient"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/store"
)

// fakeUpstream is a small in-memory stand-in for the booking API.
type fakeUpstream struct {
	mu sync.Mutex

	loginToken  string
	otpRequired bool
	otpToken    string

	appts     map[string]string // id -> status
	apptOrder []string
	failAppts bool

	specialty string
	inquiries []map[string]any
	responses []string

	signups []map[string]any
	calls   []string
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		appts:     map[string]string{"a1": "pending", "a2": "completed", "a3": "pending"},
		apptOrder: []string{"a1", "a2", "a3"},
		specialty: "Dermatologist",
		inquiries: []map[string]any{
			{"id": "q1", "message": "rash", "specialty": "Dermatologist", "status": "Pending"},
			{"id": "q2", "message": "mole", "specialty": "Dermatologist", "status": "Answered", "doctorResponse": "fine"},
		},
	}
}

func (f *fakeUpstream) record(r *http.Request) {
	f.mu.Lock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.mu.Unlock()
}

func (f *fakeUpstream) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeUpstream) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "bad credentials"})
			return
		}
		if f.otpRequired {
			writeJSON(w, http.StatusOK, map[string]any{"otpRequired": true, "tempToken": "tmp-1"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": f.loginToken})
	})
	mux.HandleFunc("POST /verify-otp", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["otp"] != "123456" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid code"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": f.otpToken})
	})
	mux.HandleFunc("POST /register-doctor", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.signups = append(f.signups, body)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "userId": 42})
	})

	mux.HandleFunc("GET /appointments", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAppts {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
			return
		}
		out := make([]map[string]any, 0, len(f.apptOrder))
		for i, id := range f.apptOrder {
			out = append(out, map[string]any{
				"id":        id,
				"date":      "2025-03-0" + string(rune('1'+i)),
				"status":    f.appts[id],
				"fees":      100,
				"doctorId":  "d1",
				"patientId": "p" + id,
			})
		}
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc("POST /appointments/{id}/{action}", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		next := map[string]string{
			"approve":  "approved",
			"reject":   "rejected",
			"complete": "completed",
			"cancel":   "cancelled",
		}[r.PathValue("action")]
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.appts[r.PathValue("id")]; !ok || next == "" {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		f.appts[r.PathValue("id")] = next
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})
	mux.HandleFunc("GET /appointments/stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "no stats"})
	})
	mux.HandleFunc("GET /appointments/recent", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, nil)
	})

	mux.HandleFunc("GET /doctors/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "d1", "firstName": "Lina", "lastName": "Haddad",
			"speciality": f.specialty, "isActive": true,
		})
	})
	mux.HandleFunc("GET /doctors/me/approval-status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "Approved"})
	})
	mux.HandleFunc("GET /inquiries", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.inquiries)
	})
	mux.HandleFunc("POST /inquiries/{id}/respond", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		text := r.FormValue("response")
		if text == "" {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			text = body["response"]
		}
		f.mu.Lock()
		f.responses = append(f.responses, text)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	mux.HandleFunc("GET /admin/dashboard-stats", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"totalDoctors": 3, "totalAppointments": 3, "totalPatients": 2, "totalEarnings": 100,
		})
	})
	return mux
}

type testEnv struct {
	echo        *echo.Echo
	upstream    *fakeUpstream
	registry    *store.Registry
	revocations *auth.MemoryRevocationStore
	closed      []string
}

func (env *testEnv) CloseTopic(topic string) {
	env.closed = append(env.closed, topic)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	up := newFakeUpstream()
	srv := httptest.NewServer(up.handler())
	t.Cleanup(srv.Close)

	client := apiclient.New(srv.URL, 5*time.Second)
	repos := store.NewHTTPRepos(client)

	reg := store.NewRegistry(store.RegistryConfig{Repos: repos, History: 20, Logger: zerolog.Nop()})
	t.Cleanup(reg.Close)
	rev := auth.NewMemoryRevocationStore()
	t.Cleanup(func() { rev.Close() })

	env := &testEnv{upstream: up, registry: reg, revocations: rev}
	h := NewHandler(Config{
		Registry:    reg,
		Accounts:    NewAccountsHTTP(client),
		Doctors:     repos.Doctors,
		Revocations: rev,
		Topics:      env,
		Logger:      zerolog.Nop(),
	})

	e := echo.New()
	e.Validator = NewValidator()
	h.RegisterRoutes(e, auth.GateConfig{Revocations: rev, Logger: zerolog.Nop()}, nil)
	env.echo = e
	return env
}

func (env *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func mintToken(t *testing.T, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "user-" + strings.ToLower(role),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func adminCookie(t *testing.T) *http.Cookie {
	return &http.Cookie{Name: auth.AdminCookie, Value: mintToken(t, auth.RoleAdmin)}
}

func doctorCookie(t *testing.T) *http.Cookie {
	return &http.Cookie{Name: auth.DoctorCookie, Value: mintToken(t, auth.RoleDoctor)}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	decode(t, rec, &body)
	return body.Message
}
