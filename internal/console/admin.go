package console

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/medbook/console/internal/domain/appointment"
	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/domain/inquiry"
	"github.com/medbook/console/internal/domain/user"
)

type noteRequest struct {
	Message string `json:"message" validate:"max=2000"`
}

type rejectRequest struct {
	Note string `json:"note" validate:"max=2000"`
}

type appointmentList struct {
	Appointments []appointment.Appointment  `json:"appointments"`
	Counts       map[appointment.Status]int `json:"counts"`
}

type inquiryList struct {
	Inquiries   []inquiry.Inquiry `json:"inquiries"`
	Specialties []string          `json:"specialties"`
}

type userList struct {
	Users    []user.User `json:"users"`
	Patients int         `json:"patients"`
}

func (h *Handler) AdminDashboard(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	dash, err := s.Dashboard(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, dash)
}

// ---------------------------------------------------------------------------
// Doctors
// ---------------------------------------------------------------------------

// ListDoctors fetches the doctor list and narrows it by the available,
// active and specialty query parameters.
func (h *Handler) ListDoctors(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	doctors, err := s.FetchDoctors(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	f := doctor.Filter{
		Available: queryBool(c, "available"),
		Active:    queryBool(c, "active"),
		Specialty: c.QueryParam("specialty"),
	}
	return c.JSON(http.StatusOK, f.Apply(doctors))
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	var in doctor.Input
	if err := bindValid(c, &in); err != nil {
		return err
	}
	d, err := s.AddDoctor(c.Request().Context(), in)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	var in doctor.Input
	if err := bindValid(c, &in); err != nil {
		return err
	}
	d, err := s.UpdateDoctor(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	if err := s.DeleteDoctor(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ActivateDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	if err := s.ActivateDoctor(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(err)
	}
	return ok(c, "Doctor activated successfully")
}

func (h *Handler) DeactivateDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	if err := s.DeactivateDoctor(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(err)
	}
	return ok(c, "Doctor deactivated successfully")
}

// ToggleAvailability flips one doctor's availability. The doctor list is
// fetched first when this session has not loaded it yet.
func (h *Handler) ToggleAvailability(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if doctor.IndexByID(s.Doctors(), c.Param("id")) < 0 {
		if _, err := s.FetchDoctors(ctx); err != nil {
			return storeError(err)
		}
	}
	d, err := s.ToggleAvailability(ctx, c.Param("id"))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) NotifyDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := s.NotifyDoctor(c.Request().Context(), c.Param("id"), req.Message); err != nil {
		return storeError(err)
	}
	return ok(c, "Notification sent to doctor.")
}

// UploadDoctorImage takes a multipart "file" and returns the stored URL.
func (h *Handler) UploadDoctorImage(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	file, err := formFile(c, "file")
	if err != nil {
		return err
	}
	u, err := s.UploadDoctorImage(c.Request().Context(), file)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": u})
}

// ---------------------------------------------------------------------------
// Appointments
// ---------------------------------------------------------------------------

// ListAppointments fetches every appointment and narrows by status, doctorId
// and patientId. Counts cover the unfiltered list.
func (h *Handler) ListAppointments(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	appts, err := s.FetchAppointments(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	f := appointment.Filter{
		Status:    c.QueryParam("status"),
		DoctorID:  c.QueryParam("doctorId"),
		PatientID: c.QueryParam("patientId"),
	}
	return c.JSON(http.StatusOK, appointmentList{
		Appointments: f.Apply(appts),
		Counts:       appointment.CountByStatus(appts),
	})
}

// TransitionAppointment runs approve, reject, complete or cancel and returns
// the re-fetched list.
func (h *Handler) TransitionAppointment(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	switch c.Param("action") {
	case "approve":
		err = s.ApproveAppointment(ctx, id)
	case "reject":
		err = s.RejectAppointment(ctx, id)
	case "complete":
		err = s.CompleteAppointment(ctx, id)
	case "cancel":
		err = s.CancelAppointment(ctx, id)
	default:
		return echo.NewHTTPError(http.StatusNotFound, "unknown appointment action")
	}
	if err != nil {
		return storeError(err)
	}
	appts := s.Appointments()
	return c.JSON(http.StatusOK, appointmentList{
		Appointments: appts,
		Counts:       appointment.CountByStatus(appts),
	})
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func (h *Handler) ListUsers(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	users, err := s.FetchUsers(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, userList{
		Users:    user.FilterByRole(users, c.QueryParam("role")),
		Patients: user.CountRole(users, "Patient"),
	})
}

func (h *Handler) UpdateUser(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	var up user.Update
	if err := bindValid(c, &up); err != nil {
		return err
	}
	u, err := s.UpdateUser(c.Request().Context(), c.Param("id"), up)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	if err := s.DeleteUser(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) NotifyUser(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := s.NotifyUser(c.Request().Context(), c.Param("id"), req.Message); err != nil {
		return storeError(err)
	}
	return ok(c, "Notification sent to user.")
}

// ---------------------------------------------------------------------------
// Inquiries
// ---------------------------------------------------------------------------

func (h *Handler) AdminInquiries(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	inqs, err := s.FetchInquiries(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	f := inquiry.Filter{Status: c.QueryParam("status"), Specialty: c.QueryParam("specialty")}
	return c.JSON(http.StatusOK, inquiryList{
		Inquiries:   f.Apply(inqs),
		Specialties: inquiry.Specialties(inqs),
	})
}

func (h *Handler) InquiryAnalytics(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	a, err := s.InquiryAnalytics(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, a)
}

// ---------------------------------------------------------------------------
// Approval requests
// ---------------------------------------------------------------------------

func (h *Handler) ApprovalRequests(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	reqs, err := s.FetchApprovalRequests(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, reqs)
}

func (h *Handler) ApproveDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	if err := s.ApproveDoctor(c.Request().Context(), c.Param("id")); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, s.ApprovalRequests())
}

func (h *Handler) RejectDoctor(c echo.Context) error {
	s, err := h.adminStore(c)
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	if err := s.RejectDoctor(c.Request().Context(), c.Param("id"), req.Note); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, s.ApprovalRequests())
}

// queryBool parses an optional boolean query parameter; absent or
// unparsable values mean "no filter".
func queryBool(c echo.Context, name string) *bool {
	v, err := strconv.ParseBool(c.QueryParam(name))
	if err != nil {
		return nil
	}
	return &v
}
