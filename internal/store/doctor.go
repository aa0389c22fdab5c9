package store

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/medbook/console/internal/domain/appointment"
	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/domain/inquiry"
	"github.com/medbook/console/internal/platform/apiclient"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
)

// GateState is what the doctor dashboard shows instead of (or before) the
// statistics.
type GateState string

const (
	GateOpen              GateState = "open"
	GatePendingActivation GateState = "pending_activation"
	GateApprovalRejected  GateState = "approval_rejected"
	GateApprovalPending   GateState = "approval_pending"
)

// DoctorDashboard is the doctor landing page.
type DoctorDashboard struct {
	Gate        GateState                  `json:"gate"`
	Message     string                     `json:"message,omitempty"`
	AdminNote   string                     `json:"adminNote,omitempty"`
	RequestDate string                     `json:"requestDate,omitempty"`
	Doctor      *doctor.Doctor             `json:"doctor"`
	Stats       appointment.Stats          `json:"stats"`
	Recent      *appointment.Appointment   `json:"recentAppointment"`
	Counts      map[appointment.Status]int `json:"counts"`
}

// DoctorStore holds one doctor session's profile and collections.
type DoctorStore struct {
	base
	repos Repos

	mu           sync.RWMutex
	profile      *doctor.Doctor
	appointments []appointment.Appointment
	inquiries    []inquiry.Inquiry
	stats        appointment.Stats
	recent       *appointment.Appointment
	approval     *doctor.ApprovalStatus
	loaded       bool
}

func NewDoctorStore(sess *auth.Session, repos Repos, notifier *notification.Notifier, logger zerolog.Logger) *DoctorStore {
	return &DoctorStore{
		base: base{
			session:  sess,
			notifier: notifier,
			logger:   logger.With().Str("store", "doctor").Logger(),
		},
		repos:        repos,
		appointments: []appointment.Appointment{},
		inquiries:    []inquiry.Inquiry{},
	}
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

// Profile returns a copy of the loaded profile, or nil before Load.
func (s *DoctorStore) Profile() *doctor.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

func (s *DoctorStore) Appointments() []appointment.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]appointment.Appointment(nil), s.appointments...)
}

func (s *DoctorStore) Inquiries() []inquiry.Inquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]inquiry.Inquiry(nil), s.inquiries...)
}

func (s *DoctorStore) ApprovalStatus() *doctor.ApprovalStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.approval == nil {
		return nil
	}
	a := *s.approval
	return &a
}

func (s *DoctorStore) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

// Load reads the profile, appointments and inquiries concurrently. If any
// of them fails the appointments are emptied and the rest keep their
// previous values. Stats, the recent appointment and the approval status
// are then read; their failures fall back to local derivations or the
// previous value and do not fail Load.
func (s *DoctorStore) Load(ctx context.Context) error {
	up := s.upstream(ctx)

	var (
		profile *doctor.Doctor
		appts   []appointment.Appointment
		inqs    []inquiry.Inquiry
	)
	g, gctx := errgroup.WithContext(up)
	g.Go(func() error {
		var err error
		profile, err = s.repos.Doctors.Me(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		appts, err = s.repos.Appointments.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		inqs, err = s.repos.Inquiries.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.appointments = []appointment.Appointment{}
		s.mu.Unlock()
		return s.fail(ctx, "load", "Failed to fetch critical doctor data. Please try logging in again.", err)
	}

	s.mu.Lock()
	s.profile = profile
	s.appointments = appts
	s.inquiries = inqs
	s.loaded = true
	s.mu.Unlock()

	s.loadSummary(up, appts)
	return nil
}

func (s *DoctorStore) loadSummary(ctx context.Context, appts []appointment.Appointment) {
	var (
		wg       sync.WaitGroup
		stats    *appointment.Stats
		recent   *appointment.Appointment
		approval *doctor.ApprovalStatus
		statsErr error
		recErr   error
		apprErr  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		stats, statsErr = s.repos.Appointments.Stats(ctx)
	}()
	go func() {
		defer wg.Done()
		recent, recErr = s.repos.Appointments.Recent(ctx)
	}()
	go func() {
		defer wg.Done()
		approval, apprErr = s.repos.Doctors.ApprovalStatus(ctx)
	}()
	wg.Wait()

	if statsErr != nil || stats == nil {
		if statsErr != nil {
			s.logger.Warn().Err(statsErr).Msg("appointment stats unavailable, deriving locally")
		}
		derived := appointment.ComputeStats(appts)
		stats = &derived
	}
	if recErr != nil {
		s.logger.Warn().Err(recErr).Msg("recent appointment unavailable, using latest by date")
		recent = nil
		if latest := appointment.LatestN(appts, 1); len(latest) == 1 {
			recent = &latest[0]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = *stats
	s.recent = recent
	if apprErr != nil {
		s.logger.Warn().Err(apprErr).Msg("approval status unavailable, keeping previous")
	} else {
		s.approval = approval
	}
}

// ---------------------------------------------------------------------------
// Appointment actions
// ---------------------------------------------------------------------------

func (s *DoctorStore) CompleteAppointment(ctx context.Context, id string) error {
	if err := s.repos.Appointments.Complete(s.upstream(ctx), id); err != nil {
		return s.fail(ctx, "complete_appointment", "Failed to update appointment.", err)
	}
	s.succeed(ctx, "complete_appointment", "Appointment marked as completed.")
	s.reload(ctx)
	return nil
}

func (s *DoctorStore) CancelAppointment(ctx context.Context, id string) error {
	if err := s.repos.Appointments.Cancel(s.upstream(ctx), id); err != nil {
		return s.fail(ctx, "cancel_appointment", "Failed to cancel appointment.", err)
	}
	s.succeed(ctx, "cancel_appointment", "Appointment cancelled.")
	s.reload(ctx)
	return nil
}

// reload refreshes after a successful action. A failed reload raises its own
// notification but does not undo the action's result.
func (s *DoctorStore) reload(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("reload after appointment action failed")
	}
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

func (s *DoctorStore) UpdateProfile(ctx context.Context, u doctor.ProfileUpdate) (*doctor.Doctor, error) {
	d, err := s.repos.Doctors.UpdateMe(s.upstream(ctx), u)
	if err != nil {
		return nil, s.fail(ctx, "update_profile", "Failed to update profile.", err)
	}
	if d == nil || d.ID == "" {
		d = s.profileAfter(ctx, u)
	}
	if d != nil {
		s.mu.Lock()
		s.profile = d
		s.mu.Unlock()
	}
	s.succeed(ctx, "update_profile", "Profile updated successfully!")
	return s.Profile(), nil
}

// profileAfter rebuilds the profile when the update was answered with an
// empty body: the known profile with u applied, or a fresh read.
func (s *DoctorStore) profileAfter(ctx context.Context, u doctor.ProfileUpdate) *doctor.Doctor {
	if cur := s.Profile(); cur != nil && cur.ID != "" {
		u.Apply(cur)
		return cur
	}
	d, err := s.repos.Doctors.Me(s.upstream(ctx))
	if err != nil {
		s.logger.Warn().Err(err).Msg("profile unavailable after update")
		return nil
	}
	return d
}

// UploadPicture stores a profile picture upstream and returns its URL. The
// profile itself changes only when the URL is saved with UpdateProfile.
func (s *DoctorStore) UploadPicture(ctx context.Context, file apiclient.File) (string, error) {
	if !isImage(file) {
		return "", s.reject(ctx, "upload_picture", "Only image files are allowed")
	}
	u, err := s.repos.Doctors.UploadPicture(s.upstream(ctx), file)
	if err != nil {
		return "", s.fail(ctx, "upload_picture", "Failed to upload image", err)
	}
	s.succeed(ctx, "upload_picture", "Profile image uploaded!")
	return u, nil
}

// RequestApproval asks the admin to approve the profile. On success the
// local approval status becomes pending.
func (s *DoctorStore) RequestApproval(ctx context.Context) error {
	msg, err := s.repos.Doctors.RequestApproval(s.upstream(ctx))
	if err != nil {
		text := "Failed to notify admin"
		if apiclient.StatusCode(err) != 0 {
			text = apiclient.FirstNonEmpty(apiclient.Message(err), text)
		}
		return s.fail(ctx, "request_approval", text, err)
	}
	s.mu.Lock()
	s.approval = &doctor.ApprovalStatus{Status: doctor.ApprovalPending}
	s.mu.Unlock()
	s.succeed(ctx, "request_approval", apiclient.FirstNonEmpty(msg, "Approval request sent to admin."))
	return nil
}

// ---------------------------------------------------------------------------
// Inquiries
// ---------------------------------------------------------------------------

// FetchInquiries loads the inquiries of the doctor's specialty. The profile
// is read first when it has not been loaded.
func (s *DoctorStore) FetchInquiries(ctx context.Context) ([]inquiry.Inquiry, error) {
	profile := s.Profile()
	if profile == nil {
		p, err := s.repos.Doctors.Me(s.upstream(ctx))
		if err != nil {
			return s.Inquiries(), s.fail(ctx, "fetch_inquiries", "Failed to load inquiries", err)
		}
		s.mu.Lock()
		s.profile = p
		s.mu.Unlock()
		profile = p
	}
	if profile.Specialty == "" {
		return s.Inquiries(), s.reject(ctx, "fetch_inquiries", "Set your specialty in your profile to see inquiries.")
	}

	list, err := s.repos.Inquiries.BySpecialty(s.upstream(ctx), profile.Specialty)
	if err != nil {
		return s.Inquiries(), s.fail(ctx, "fetch_inquiries", "Failed to load inquiries", err)
	}
	s.mu.Lock()
	s.inquiries = list
	s.mu.Unlock()
	return list, nil
}

// RespondInquiry answers an inquiry and refreshes the inquiry list.
func (s *DoctorStore) RespondInquiry(ctx context.Context, id string, resp inquiry.Response) error {
	if err := resp.Validate(); err != nil {
		return s.reject(ctx, "respond_inquiry", responseMessage(err))
	}
	if err := s.repos.Inquiries.Respond(s.upstream(ctx), id, resp); err != nil {
		return s.fail(ctx, "respond_inquiry", "Failed to submit response", err)
	}
	s.succeed(ctx, "respond_inquiry", "Response submitted successfully")
	_, err := s.FetchInquiries(ctx)
	return err
}

func responseMessage(err error) string {
	switch {
	case errors.Is(err, inquiry.ErrEmptyResponse):
		return "Please enter a response"
	case errors.Is(err, inquiry.ErrAttachmentNotImage):
		return "Only image files are allowed"
	case errors.Is(err, inquiry.ErrAttachmentTooLarge):
		return "File size must be less than 5MB"
	}
	return err.Error()
}

// ---------------------------------------------------------------------------
// Dashboard
// ---------------------------------------------------------------------------

// Dashboard returns the landing view, loading the session first if needed.
// An inactive doctor sees the activation notice; a rejected or pending
// approval request is shown before the statistics.
func (s *DoctorStore) Dashboard(ctx context.Context) (*DoctorDashboard, error) {
	if !s.Loaded() {
		if err := s.Load(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	dash := &DoctorDashboard{
		Gate:   GateOpen,
		Stats:  s.stats,
		Recent: s.recent,
		Counts: appointment.CountByStatus(s.appointments),
	}
	if s.profile != nil {
		p := *s.profile
		dash.Doctor = &p
	}

	switch {
	case dash.Doctor != nil && !dash.Doctor.Active():
		dash.Gate = GatePendingActivation
		dash.Message = "Your account is pending approval by the administrator. Please wait for activation."
	case s.approval != nil && s.approval.Status == doctor.ApprovalRejected:
		dash.Gate = GateApprovalRejected
		dash.Message = "Your profile approval request was rejected."
		dash.AdminNote = s.approval.AdminNote
	case s.approval != nil && s.approval.Status == doctor.ApprovalPending:
		dash.Gate = GateApprovalPending
		dash.Message = "Your approval request is pending review."
		dash.RequestDate = s.approval.RequestDate
	}
	return dash, nil
}

// isImage accepts files whose declared or sniffed content type is an image.
func isImage(f apiclient.File) bool {
	ct := f.ContentType
	if ct == "" {
		ct = http.DetectContentType(f.Data)
	}
	return strings.HasPrefix(ct, "image/")
}
