package console

import (
	"net/http"
	"testing"

	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
)

func TestRedirectsToLogin(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		method  string
		path    string
		cookies func(t *testing.T) []*http.Cookie
	}{
		{"root", http.MethodGet, "/", nil},
		{"unknown path", http.MethodGet, "/nowhere/at/all", nil},
		{"admin without token", http.MethodGet, "/admin/dashboard", nil},
		{"doctor without token", http.MethodGet, "/doctor/dashboard", nil},
		{"admin malformed token", http.MethodGet, "/admin/doctors", func(t *testing.T) []*http.Cookie {
			return []*http.Cookie{{Name: auth.AdminCookie, Value: "not-a-jwt"}}
		}},
		{"doctor token on admin", http.MethodGet, "/admin/users", func(t *testing.T) []*http.Cookie {
			return []*http.Cookie{{Name: auth.AdminCookie, Value: mintToken(t, auth.RoleDoctor)}}
		}},
		{"admin token on doctor", http.MethodGet, "/doctor/appointments", func(t *testing.T) []*http.Cookie {
			return []*http.Cookie{{Name: auth.DoctorCookie, Value: mintToken(t, auth.RoleAdmin)}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookies != nil {
				cookies = tt.cookies(t)
			}
			rec := env.do(tt.method, tt.path, "", cookies...)
			if rec.Code != http.StatusFound {
				t.Fatalf("expected 302, got %d: %s", rec.Code, rec.Body.String())
			}
			if loc := rec.Header().Get("Location"); loc != "/login" {
				t.Errorf("expected redirect to /login, got %q", loc)
			}
		})
	}
}

func TestPortalRootRedirectsToDashboard(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/admin", "", adminCookie(t))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/dashboard" {
		t.Errorf("admin: got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = env.do(http.MethodGet, "/doctor", "", doctorCookie(t))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/doctor/dashboard" {
		t.Errorf("doctor: got %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginScreen(t *testing.T) {
	env := newTestEnv(t)

	var screen loginScreen
	rec := env.do(http.MethodGet, "/login", "")
	decode(t, rec, &screen)
	if len(screen.Portals) != 2 {
		t.Fatalf("expected 2 portals, got %d", len(screen.Portals))
	}
	if screen.Redirect != "" {
		t.Errorf("expected no redirect without cookies, got %q", screen.Redirect)
	}

	rec = env.do(http.MethodGet, "/login", "", doctorCookie(t))
	decode(t, rec, &screen)
	if screen.Redirect != "/doctor" {
		t.Errorf("expected redirect to /doctor, got %q", screen.Redirect)
	}
}

func TestLogin_SetsPortalCookie(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.loginToken = mintToken(t, auth.RoleAdmin)

	rec := env.do(http.MethodPost, "/login", `{"email":"a@clinic.test","password":"secret","portal":"Admin"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp loginResponse
	decode(t, rec, &resp)
	if resp.Redirect != "/admin" {
		t.Errorf("expected redirect /admin, got %q", resp.Redirect)
	}

	a := findCookie(rec, auth.AdminCookie)
	if a == nil || a.Value != env.upstream.loginToken {
		t.Fatalf("expected aToken cookie with the issued token, got %+v", a)
	}
	if !a.HttpOnly {
		t.Error("expected HttpOnly token cookie")
	}
	d := findCookie(rec, auth.DoctorCookie)
	if d == nil || d.MaxAge >= 0 {
		t.Errorf("expected dToken to be cleared, got %+v", d)
	}
}

func TestLogin_RoleMustMatchPortal(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		role    string
		portal  string
		message string
	}{
		{"doctor into admin", auth.RoleDoctor, "Admin", "Access Denied: You do not have admin privileges."},
		{"patient into doctor", auth.RolePatient, "Doctor", "Access Denied: You are not a registered doctor."},
		{"admin into doctor", auth.RoleAdmin, "Doctor", "Access Denied: You are not a registered doctor."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.upstream.loginToken = mintToken(t, tt.role)
			rec := env.do(http.MethodPost, "/login", `{"email":"a@clinic.test","password":"secret","portal":"`+tt.portal+`"}`)
			if rec.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
			}
			if msg := errorMessage(t, rec); msg != tt.message {
				t.Errorf("expected %q, got %q", tt.message, msg)
			}
			if findCookie(rec, auth.AdminCookie) != nil || findCookie(rec, auth.DoctorCookie) != nil {
				t.Error("no cookie should be touched on refusal")
			}
		})
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/login", `{"email":"a@clinic.test","password":"wrong","portal":"Admin"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Invalid credentials or error during login" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestLogin_Validation(t *testing.T) {
	env := newTestEnv(t)

	bodies := []string{
		`{"password":"secret","portal":"Admin"}`,
		`{"email":"not-an-email","password":"secret","portal":"Admin"}`,
		`{"email":"a@clinic.test","password":"secret","portal":"Patient"}`,
		`{"email":"a@clinic.test","portal":"Doctor"}`,
	}
	for _, body := range bodies {
		rec := env.do(http.MethodPost, "/login", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestLogin_OTPFlow(t *testing.T) {
	env := newTestEnv(t)
	env.upstream.otpRequired = true
	env.upstream.otpToken = mintToken(t, auth.RoleDoctor)

	rec := env.do(http.MethodPost, "/login", `{"email":"d@clinic.test","password":"secret","portal":"Doctor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decode(t, rec, &resp)
	if !resp.OTPRequired || resp.TempToken != "tmp-1" {
		t.Fatalf("expected OTP step with temp token, got %+v", resp)
	}
	if findCookie(rec, auth.DoctorCookie) != nil {
		t.Fatal("no token cookie before OTP verification")
	}

	rec = env.do(http.MethodPost, "/otp", `{"otp":"000000","tempToken":"tmp-1","email":"d@clinic.test","portal":"Doctor"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong code, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Verification failed: Invalid code" {
		t.Errorf("unexpected message %q", msg)
	}

	rec = env.do(http.MethodPost, "/otp", `{"otp":"123456","tempToken":"tmp-1","email":"d@clinic.test","portal":"Doctor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ck := findCookie(rec, auth.DoctorCookie); ck == nil || ck.Value != env.upstream.otpToken {
		t.Errorf("expected dToken cookie, got %+v", ck)
	}
}

func TestVerifyOTP_RequiresPendingLogin(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/otp", `{"otp":"123456","portal":"Doctor"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ck := adminCookie(t)

	rec := env.do(http.MethodGet, "/admin/notifications", "", ck)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 before logout, got %d", rec.Code)
	}
	if env.registry.Len() != 1 {
		t.Fatalf("expected one session, got %d", env.registry.Len())
	}

	rec = env.do(http.MethodPost, "/logout", "", ck)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c := findCookie(rec, auth.AdminCookie); c == nil || c.MaxAge >= 0 {
		t.Errorf("expected aToken cleared, got %+v", c)
	}
	if env.registry.Len() != 0 {
		t.Errorf("expected session dropped, got %d", env.registry.Len())
	}
	wantTopic := notification.TopicFor(auth.TokenKey(ck.Value))
	if len(env.closed) != 1 || env.closed[0] != wantTopic {
		t.Errorf("expected topic %q closed, got %v", wantTopic, env.closed)
	}

	rec = env.do(http.MethodGet, "/admin/dashboard", "", ck)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected revoked token to be redirected, got %d", rec.Code)
	}
}

func TestDoctorSignup(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/doctor-signup",
		`{"firstName":"Lina","lastName":"Haddad","email":"lina@clinic.test","password":"secret1","gender":1,"specialty":2,"address":"Main St"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.upstream.signups) != 1 || env.upstream.signups[0]["email"] != "lina@clinic.test" {
		t.Errorf("expected signup forwarded, got %v", env.upstream.signups)
	}

	rec = env.do(http.MethodPost, "/doctor-signup",
		`{"firstName":"Omar","lastName":"Saleh","email":"omar@clinic.test","password":"secret1","gender":0,"specialty":"Neurologist"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 for a specialty label, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := env.upstream.signups[1]["specialty"]; got != float64(4) {
		t.Errorf("expected specialty forwarded as 4, got %v", got)
	}

	rec = env.do(http.MethodPost, "/doctor-signup",
		`{"firstName":"Omar","lastName":"Saleh","email":"omar@clinic.test","password":"secret1","specialty":"Surgeon"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown specialty, got %d", rec.Code)
	}

	rec = env.do(http.MethodPost, "/doctor-signup", `{"firstName":"Lina","email":"lina@clinic.test","password":"123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for short password and missing last name, got %d", rec.Code)
	}
}
