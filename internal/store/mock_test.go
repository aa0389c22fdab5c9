package store

import (
	"context"
	"errors"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/medbook/console/internal/domain/appointment"
	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/domain/inquiry"
	"github.com/medbook/console/internal/domain/user"
	"github.com/medbook/console/internal/platform/apiclient"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
)

var errUpstream = &apiclient.Error{Method: "GET", Path: "/x", StatusCode: 500, Message: "boom"}

// -- Mock Repositories --

type mockDoctorRepo struct {
	mu        sync.Mutex
	doctors   []doctor.Doctor
	me        *doctor.Doctor
	approval  *doctor.ApprovalStatus
	requests  []doctor.ApprovalRequest
	listErr   error
	meErr     error
	callErr   error
	apprErr   error
	calls     []string
	lastInput doctor.Input
	lastNote  string

	// emptyEcho makes UpdateMe answer like a 204.
	emptyEcho bool
}

func (m *mockDoctorRepo) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *mockDoctorRepo) List(_ context.Context) ([]doctor.Doctor, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]doctor.Doctor(nil), m.doctors...), nil
}

func (m *mockDoctorRepo) Create(_ context.Context, in doctor.Input) (*doctor.Doctor, error) {
	m.record("create")
	if m.callErr != nil {
		return nil, m.callErr
	}
	d := doctor.Doctor{ID: "new"}
	in.Apply(&d)
	return &d, nil
}

func (m *mockDoctorRepo) Update(_ context.Context, id string, in doctor.Input) (*doctor.Doctor, error) {
	m.record("update " + id)
	m.lastInput = in
	if m.callErr != nil {
		return nil, m.callErr
	}
	return nil, nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, id string) error {
	m.record("delete " + id)
	return m.callErr
}

func (m *mockDoctorRepo) Activate(_ context.Context, id string) error {
	m.record("activate " + id)
	return m.callErr
}

func (m *mockDoctorRepo) Deactivate(_ context.Context, id string) error {
	m.record("deactivate " + id)
	return m.callErr
}

func (m *mockDoctorRepo) Notify(_ context.Context, id, message string) error {
	m.record("notify " + id)
	return m.callErr
}

func (m *mockDoctorRepo) UploadImage(_ context.Context, f apiclient.File) (string, error) {
	m.record("upload_image")
	return "https://cdn/" + f.Name, m.callErr
}

func (m *mockDoctorRepo) Me(ctx context.Context) (*doctor.Doctor, error) {
	if apiclient.TokenFrom(ctx) == "" {
		return nil, errors.New("no token on context")
	}
	if m.meErr != nil {
		return nil, m.meErr
	}
	d := *m.me
	return &d, nil
}

func (m *mockDoctorRepo) UpdateMe(_ context.Context, u doctor.ProfileUpdate) (*doctor.Doctor, error) {
	m.record("update_me")
	if m.callErr != nil {
		return nil, m.callErr
	}
	if m.emptyEcho {
		return &doctor.Doctor{}, nil
	}
	d := *m.me
	if u.About != "" {
		d.About = u.About
	}
	return &d, nil
}

func (m *mockDoctorRepo) UploadPicture(_ context.Context, f apiclient.File) (string, error) {
	m.record("upload_picture")
	return "https://cdn/" + f.Name, m.callErr
}

func (m *mockDoctorRepo) RequestApproval(_ context.Context) (string, error) {
	m.record("request_approval")
	return "", m.callErr
}

func (m *mockDoctorRepo) ApprovalStatus(_ context.Context) (*doctor.ApprovalStatus, error) {
	if m.apprErr != nil {
		return nil, m.apprErr
	}
	return m.approval, nil
}

func (m *mockDoctorRepo) ApprovalRequests(_ context.Context, status string) ([]doctor.ApprovalRequest, error) {
	m.record("approval_requests " + status)
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]doctor.ApprovalRequest(nil), m.requests...), nil
}

func (m *mockDoctorRepo) Approve(_ context.Context, id string) error {
	m.record("approve " + id)
	if m.callErr != nil {
		return m.callErr
	}
	m.setRequestStatus(id, doctor.ApprovalApproved)
	return nil
}

func (m *mockDoctorRepo) Reject(_ context.Context, id, note string) error {
	m.record("reject " + id)
	m.lastNote = note
	if m.callErr != nil {
		return m.callErr
	}
	m.setRequestStatus(id, doctor.ApprovalRejected)
	return nil
}

func (m *mockDoctorRepo) setRequestStatus(doctorID string, st doctor.ApprovalState) {
	for i := range m.requests {
		if m.requests[i].DoctorID == doctorID {
			m.requests[i].Status = st
		}
	}
}

func (m *mockDoctorRepo) Register(_ context.Context, s doctor.Signup) (*doctor.SignupResult, error) {
	return &doctor.SignupResult{Success: true}, nil
}

type mockAppointmentRepo struct {
	mu       sync.Mutex
	appts    []appointment.Appointment
	listErr  error
	callErr  error
	stats    *appointment.Stats
	statsErr error
	recent   *appointment.Appointment
	recErr   error
	calls    []string
}

func (m *mockAppointmentRepo) List(ctx context.Context) ([]appointment.Appointment, error) {
	if apiclient.TokenFrom(ctx) == "" {
		return nil, errors.New("no token on context")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]appointment.Appointment(nil), m.appts...), nil
}

// set simulates the upstream applying a transition.
func (m *mockAppointmentRepo) set(action, id string, st appointment.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, action+" "+id)
	if m.callErr != nil {
		return m.callErr
	}
	for i := range m.appts {
		if m.appts[i].ID == id {
			m.appts[i].Status = st
		}
	}
	return nil
}

func (m *mockAppointmentRepo) Approve(_ context.Context, id string) error {
	return m.set("approve", id, appointment.StatusApproved)
}

func (m *mockAppointmentRepo) Reject(_ context.Context, id string) error {
	return m.set("reject", id, appointment.StatusRejected)
}

func (m *mockAppointmentRepo) Complete(_ context.Context, id string) error {
	return m.set("complete", id, appointment.StatusCompleted)
}

func (m *mockAppointmentRepo) Cancel(_ context.Context, id string) error {
	return m.set("cancel", id, appointment.StatusCancelled)
}

func (m *mockAppointmentRepo) Stats(_ context.Context) (*appointment.Stats, error) {
	return m.stats, m.statsErr
}

func (m *mockAppointmentRepo) Recent(_ context.Context) (*appointment.Appointment, error) {
	return m.recent, m.recErr
}

type mockUserRepo struct {
	users   []user.User
	listErr error
	callErr error
}

func (m *mockUserRepo) List(_ context.Context) ([]user.User, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]user.User(nil), m.users...), nil
}

func (m *mockUserRepo) Update(_ context.Context, id string, up user.Update) (*user.User, error) {
	return nil, m.callErr
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error { return m.callErr }

func (m *mockUserRepo) Notify(_ context.Context, id, message string) error { return m.callErr }

type mockInquiryRepo struct {
	inqs         []inquiry.Inquiry
	listErr      error
	analytics    *inquiry.Analytics
	analyticsErr error
	respondErr   error
	specialty    string
	responded    []string
}

func (m *mockInquiryRepo) List(_ context.Context) ([]inquiry.Inquiry, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]inquiry.Inquiry(nil), m.inqs...), nil
}

func (m *mockInquiryRepo) BySpecialty(_ context.Context, specialty string) ([]inquiry.Inquiry, error) {
	m.specialty = specialty
	if m.listErr != nil {
		return nil, m.listErr
	}
	return inquiry.Filter{Specialty: specialty}.Apply(m.inqs), nil
}

func (m *mockInquiryRepo) Analytics(_ context.Context) (*inquiry.Analytics, error) {
	return m.analytics, m.analyticsErr
}

func (m *mockInquiryRepo) Respond(_ context.Context, id string, r inquiry.Response) error {
	m.responded = append(m.responded, id)
	return m.respondErr
}

type mockStatsRepo struct {
	dash *AdminDashboard
	err  error
}

func (m *mockStatsRepo) AdminDashboard(_ context.Context) (*AdminDashboard, error) {
	return m.dash, m.err
}

// -- Helpers --

func testSession(role string) *auth.Session {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": role, "sub": "staff-1"})
	raw, _ := tok.SignedString([]byte("test-secret"))
	sess, err := auth.DecodeToken(raw)
	if err != nil {
		panic(err)
	}
	return sess
}

func newNotifier() *notification.Notifier {
	return notification.NewNotifier(notification.NewFeed(50))
}

func latest(n *notification.Notifier) notification.Notification {
	note, _ := n.Feed().Latest()
	return note
}
