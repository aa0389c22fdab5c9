package store

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/medbook/console/internal/domain/appointment"
	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/domain/inquiry"
	"github.com/medbook/console/internal/domain/user"
	"github.com/medbook/console/internal/platform/apiclient"
	"github.com/medbook/console/internal/platform/auth"
	"github.com/medbook/console/internal/platform/notification"
)

// latestCount is how many appointments the admin dashboard lists.
const latestCount = 5

// AdminStore holds one admin session's collections. It is safe for
// concurrent use; concurrent mutations are not ordered.
type AdminStore struct {
	base
	repos Repos

	mu           sync.RWMutex
	doctors      []doctor.Doctor
	appointments []appointment.Appointment
	users        []user.User
	inquiries    []inquiry.Inquiry
	requests     []doctor.ApprovalRequest
	requestState string
}

func NewAdminStore(sess *auth.Session, repos Repos, notifier *notification.Notifier, logger zerolog.Logger) *AdminStore {
	return &AdminStore{
		base: base{
			session:  sess,
			notifier: notifier,
			logger:   logger.With().Str("store", "admin").Logger(),
		},
		repos:        repos,
		doctors:      []doctor.Doctor{},
		appointments: []appointment.Appointment{},
		users:        []user.User{},
		inquiries:    []inquiry.Inquiry{},
		requests:     []doctor.ApprovalRequest{},
	}
}

// ---------------------------------------------------------------------------
// Snapshots
// ---------------------------------------------------------------------------

func (s *AdminStore) Doctors() []doctor.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]doctor.Doctor(nil), s.doctors...)
}

func (s *AdminStore) Appointments() []appointment.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]appointment.Appointment(nil), s.appointments...)
}

func (s *AdminStore) Users() []user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]user.User(nil), s.users...)
}

func (s *AdminStore) Inquiries() []inquiry.Inquiry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]inquiry.Inquiry(nil), s.inquiries...)
}

func (s *AdminStore) ApprovalRequests() []doctor.ApprovalRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]doctor.ApprovalRequest(nil), s.requests...)
}

// ---------------------------------------------------------------------------
// Fetches
// ---------------------------------------------------------------------------

// FetchDoctors replaces the doctor list. On failure the previous list is
// kept.
func (s *AdminStore) FetchDoctors(ctx context.Context) ([]doctor.Doctor, error) {
	list, err := s.repos.Doctors.List(s.upstream(ctx))
	if err != nil {
		return s.Doctors(), s.fail(ctx, "fetch_doctors", "Failed to fetch doctors list.", err)
	}
	s.mu.Lock()
	s.doctors = list
	s.mu.Unlock()
	return list, nil
}

// FetchAppointments replaces the appointment list. On failure the list is
// emptied.
func (s *AdminStore) FetchAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	list, err := s.repos.Appointments.List(s.upstream(ctx))
	if err != nil {
		s.mu.Lock()
		s.appointments = []appointment.Appointment{}
		s.mu.Unlock()
		return []appointment.Appointment{}, s.fail(ctx, "fetch_appointments", "Failed to fetch appointments", err)
	}
	s.mu.Lock()
	s.appointments = list
	s.mu.Unlock()
	return list, nil
}

func (s *AdminStore) FetchUsers(ctx context.Context) ([]user.User, error) {
	list, err := s.repos.Users.List(s.upstream(ctx))
	if err != nil {
		return s.Users(), s.fail(ctx, "fetch_users", "Failed to fetch users.", err)
	}
	s.mu.Lock()
	s.users = list
	s.mu.Unlock()
	return list, nil
}

func (s *AdminStore) FetchInquiries(ctx context.Context) ([]inquiry.Inquiry, error) {
	list, err := s.repos.Inquiries.List(s.upstream(ctx))
	if err != nil {
		return s.Inquiries(), s.fail(ctx, "fetch_inquiries", "Failed to load inquiries data", err)
	}
	s.mu.Lock()
	s.inquiries = list
	s.mu.Unlock()
	return list, nil
}

// FetchApprovalRequests replaces the approval request list with the
// requests in status ("" or "all" for every request).
func (s *AdminStore) FetchApprovalRequests(ctx context.Context, status string) ([]doctor.ApprovalRequest, error) {
	list, err := s.repos.Doctors.ApprovalRequests(s.upstream(ctx), status)
	if err != nil {
		return s.ApprovalRequests(), s.fail(ctx, "fetch_approval_requests", "Failed to load approval requests", err)
	}
	// the upstream may ignore the status query
	list = doctor.FilterRequests(list, status)
	s.mu.Lock()
	s.requests = list
	s.requestState = status
	s.mu.Unlock()
	return list, nil
}

// InquiryAnalytics reads the upstream summary, falling back to one derived
// from the current inquiry list.
func (s *AdminStore) InquiryAnalytics(ctx context.Context) (*inquiry.Analytics, error) {
	a, err := s.repos.Inquiries.Analytics(s.upstream(ctx))
	if err == nil {
		return a, nil
	}
	s.logger.Warn().Err(err).Msg("inquiry analytics unavailable, deriving locally")
	derived := inquiry.ComputeAnalytics(s.Inquiries())
	return &derived, nil
}

// Dashboard reads the upstream summary. When that fails the summary is
// derived from fresh doctor, appointment and user lists; failures of those
// fetches are notified but do not fail the dashboard.
func (s *AdminStore) Dashboard(ctx context.Context) (*AdminDashboard, error) {
	if s.repos.Stats != nil {
		d, err := s.repos.Stats.AdminDashboard(s.upstream(ctx))
		if err == nil {
			return d, nil
		}
		s.logger.Warn().Err(err).Msg("dashboard stats unavailable, deriving locally")
	}

	doctors, _ := s.FetchDoctors(ctx)
	appts, _ := s.FetchAppointments(ctx)
	users, _ := s.FetchUsers(ctx)

	d := &AdminDashboard{
		TotalDoctors:       len(doctors),
		TotalAppointments:  len(appts),
		TotalPatients:      user.CountRole(users, auth.RolePatient),
		LatestAppointments: appointment.LatestN(appts, latestCount),
		Derived:            true,
	}
	for _, a := range appts {
		if a.Status == appointment.StatusCompleted {
			d.TotalEarnings += a.Fees
		}
	}
	return d, nil
}

// ---------------------------------------------------------------------------
// Doctor mutations
// ---------------------------------------------------------------------------

// AddDoctor creates a doctor and appends it to the local list.
func (s *AdminStore) AddDoctor(ctx context.Context, in doctor.Input) (*doctor.Doctor, error) {
	if strings.TrimSpace(in.Image) == "" {
		return nil, s.reject(ctx, "add_doctor", "Please select an image for the doctor.")
	}
	d, err := s.repos.Doctors.Create(s.upstream(ctx), in)
	if err != nil {
		return nil, s.fail(ctx, "add_doctor", "Error adding doctor: "+apiclient.Message(err), err)
	}
	if d.ID == "" {
		// upstream echoed nothing useful; show the submitted form
		created := doctor.Doctor{}
		in.Apply(&created)
		d = &created
	}
	s.mu.Lock()
	s.doctors = append(s.doctors, *d)
	s.mu.Unlock()
	s.succeed(ctx, "add_doctor", "Doctor added successfully")
	return d, nil
}

// UpdateDoctor replaces a doctor upstream and patches the local copy.
func (s *AdminStore) UpdateDoctor(ctx context.Context, id string, in doctor.Input) (*doctor.Doctor, error) {
	updated, err := s.repos.Doctors.Update(s.upstream(ctx), id, in)
	if err != nil {
		return nil, s.fail(ctx, "update_doctor", "Failed to update doctor.", err)
	}

	s.mu.Lock()
	i := doctor.IndexByID(s.doctors, id)
	var result doctor.Doctor
	switch {
	case updated != nil && updated.ID != "":
		result = *updated
	case i >= 0:
		result = s.doctors[i]
		in.Apply(&result)
	default:
		result = doctor.Doctor{ID: id}
		in.Apply(&result)
	}
	if i >= 0 {
		s.doctors[i] = result
	}
	s.mu.Unlock()

	s.succeed(ctx, "update_doctor", "Doctor updated successfully")
	return &result, nil
}

// DeleteDoctor removes a doctor upstream and from the local list.
func (s *AdminStore) DeleteDoctor(ctx context.Context, id string) error {
	if err := s.repos.Doctors.Delete(s.upstream(ctx), id); err != nil {
		return s.fail(ctx, "delete_doctor", "Failed to delete doctor.", err)
	}
	s.mu.Lock()
	kept := s.doctors[:0:0]
	for _, d := range s.doctors {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.doctors = kept
	s.mu.Unlock()
	s.succeed(ctx, "delete_doctor", "Doctor deleted successfully")
	return nil
}

func (s *AdminStore) ActivateDoctor(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

func (s *AdminStore) DeactivateDoctor(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

func (s *AdminStore) setActive(ctx context.Context, id string, active bool) error {
	op, call, verb := "activate_doctor", s.repos.Doctors.Activate, "activated"
	if !active {
		op, call, verb = "deactivate_doctor", s.repos.Doctors.Deactivate, "deactivated"
	}
	if err := call(s.upstream(ctx), id); err != nil {
		return s.fail(ctx, op, "Failed to update doctor status.", err)
	}
	s.patchDoctor(id, func(d *doctor.Doctor) { d.IsActive = &active })
	s.succeed(ctx, op, "Doctor "+verb+" successfully")
	return nil
}

// ToggleAvailability flips a doctor's availability upstream and locally.
func (s *AdminStore) ToggleAvailability(ctx context.Context, id string) (*doctor.Doctor, error) {
	s.mu.RLock()
	i := doctor.IndexByID(s.doctors, id)
	var current doctor.Doctor
	if i >= 0 {
		current = s.doctors[i]
	}
	s.mu.RUnlock()
	if i < 0 {
		return nil, s.reject(ctx, "toggle_availability", "Doctor not found. Refresh the doctors list.")
	}

	in := doctor.InputFrom(current)
	in.IsAvailable = !current.IsAvailable
	if _, err := s.repos.Doctors.Update(s.upstream(ctx), id, in); err != nil {
		return nil, s.fail(ctx, "toggle_availability", "Failed to update availability.", err)
	}
	var result doctor.Doctor
	s.patchDoctor(id, func(d *doctor.Doctor) {
		d.IsAvailable = in.IsAvailable
		result = *d
	})
	s.succeed(ctx, "toggle_availability", "Availability status updated.")
	return &result, nil
}

func (s *AdminStore) NotifyDoctor(ctx context.Context, id, message string) error {
	if strings.TrimSpace(message) == "" {
		return s.reject(ctx, "notify_doctor", "Please enter a message.")
	}
	if err := s.repos.Doctors.Notify(s.upstream(ctx), id, message); err != nil {
		return s.fail(ctx, "notify_doctor", "Failed to send notification.", err)
	}
	s.succeed(ctx, "notify_doctor", "Notification sent to doctor.")
	return nil
}

// UploadDoctorImage stores an image upstream and returns its URL for the
// doctor form.
func (s *AdminStore) UploadDoctorImage(ctx context.Context, file apiclient.File) (string, error) {
	if !isImage(file) {
		return "", s.reject(ctx, "upload_doctor_image", "Only image files are allowed")
	}
	u, err := s.repos.Doctors.UploadImage(s.upstream(ctx), file)
	if err != nil {
		return "", s.fail(ctx, "upload_doctor_image", "Failed to upload image", err)
	}
	s.succeed(ctx, "upload_doctor_image", "Image uploaded successfully")
	return u, nil
}

func (s *AdminStore) patchDoctor(id string, fn func(*doctor.Doctor)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := doctor.IndexByID(s.doctors, id); i >= 0 {
		fn(&s.doctors[i])
	}
}

// ---------------------------------------------------------------------------
// Appointment transitions
// ---------------------------------------------------------------------------

func (s *AdminStore) ApproveAppointment(ctx context.Context, id string) error {
	return s.transition(ctx, "approve_appointment", id, s.repos.Appointments.Approve,
		"Appointment approved.", "Failed to approve appointment.")
}

func (s *AdminStore) RejectAppointment(ctx context.Context, id string) error {
	return s.transition(ctx, "reject_appointment", id, s.repos.Appointments.Reject,
		"Appointment rejected.", "Failed to reject appointment.")
}

func (s *AdminStore) CompleteAppointment(ctx context.Context, id string) error {
	return s.transition(ctx, "complete_appointment", id, s.repos.Appointments.Complete,
		"Appointment marked as completed.", "Failed to update appointment.")
}

func (s *AdminStore) CancelAppointment(ctx context.Context, id string) error {
	return s.transition(ctx, "cancel_appointment", id, s.repos.Appointments.Cancel,
		"Appointment cancelled successfully", "Error cancelling appointment")
}

// transition requests a status change and re-fetches the appointment list
// to observe the result.
func (s *AdminStore) transition(ctx context.Context, op, id string, call func(context.Context, string) error, okMsg, failMsg string) error {
	if err := call(s.upstream(ctx), id); err != nil {
		return s.fail(ctx, op, failMsg, err)
	}
	s.succeed(ctx, op, okMsg)
	if _, err := s.FetchAppointments(ctx); err != nil {
		s.logger.Warn().Err(err).Str("op", op).Msg("re-fetch after transition failed")
	}
	return nil
}

// ---------------------------------------------------------------------------
// User mutations
// ---------------------------------------------------------------------------

func (s *AdminStore) UpdateUser(ctx context.Context, id string, up user.Update) (*user.User, error) {
	updated, err := s.repos.Users.Update(s.upstream(ctx), id, up)
	if err != nil {
		return nil, s.fail(ctx, "update_user", "Failed to update user.", err)
	}

	s.mu.Lock()
	i := user.IndexByID(s.users, id)
	var result user.User
	switch {
	case updated != nil:
		result = *updated
	case i >= 0:
		result = s.users[i]
		up.Apply(&result)
	default:
		result = user.User{ID: id}
		up.Apply(&result)
	}
	if i >= 0 {
		s.users[i] = result
	}
	s.mu.Unlock()

	s.succeed(ctx, "update_user", "User updated successfully")
	return &result, nil
}

func (s *AdminStore) DeleteUser(ctx context.Context, id string) error {
	if err := s.repos.Users.Delete(s.upstream(ctx), id); err != nil {
		return s.fail(ctx, "delete_user", "Failed to delete user.", err)
	}
	s.mu.Lock()
	kept := s.users[:0:0]
	for _, u := range s.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	s.users = kept
	s.mu.Unlock()
	s.succeed(ctx, "delete_user", "User deleted successfully")
	return nil
}

func (s *AdminStore) NotifyUser(ctx context.Context, id, message string) error {
	if strings.TrimSpace(message) == "" {
		return s.reject(ctx, "notify_user", "Please enter a message.")
	}
	if err := s.repos.Users.Notify(s.upstream(ctx), id, message); err != nil {
		return s.fail(ctx, "notify_user", "Failed to send notification.", err)
	}
	s.succeed(ctx, "notify_user", "Notification sent to user.")
	return nil
}

// ---------------------------------------------------------------------------
// Approval decisions
// ---------------------------------------------------------------------------

// ApproveDoctor approves a doctor's request and re-fetches the request list
// with the last used status filter.
func (s *AdminStore) ApproveDoctor(ctx context.Context, doctorID string) error {
	if err := s.repos.Doctors.Approve(s.upstream(ctx), doctorID); err != nil {
		return s.fail(ctx, "approve_doctor", "Failed to approve doctor", err)
	}
	s.succeed(ctx, "approve_doctor", "Doctor approved successfully!")
	return s.refetchRequests(ctx)
}

// RejectDoctor rejects a doctor's request with a mandatory note.
func (s *AdminStore) RejectDoctor(ctx context.Context, doctorID, note string) error {
	if strings.TrimSpace(note) == "" {
		return s.reject(ctx, "reject_doctor", "Please provide a rejection reason")
	}
	if err := s.repos.Doctors.Reject(s.upstream(ctx), doctorID, note); err != nil {
		return s.fail(ctx, "reject_doctor", "Failed to reject doctor", err)
	}
	s.succeed(ctx, "reject_doctor", "Doctor rejected successfully!")
	return s.refetchRequests(ctx)
}

func (s *AdminStore) refetchRequests(ctx context.Context) error {
	s.mu.RLock()
	status := s.requestState
	s.mu.RUnlock()
	if _, err := s.FetchApprovalRequests(ctx, status); err != nil {
		s.logger.Warn().Err(err).Msg("re-fetch of approval requests failed")
	}
	return nil
}
