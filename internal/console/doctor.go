package console

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medbook/console/internal/domain/appointment"
	"github.com/medbook/console/internal/domain/doctor"
	"github.com/medbook/console/internal/domain/inquiry"
	"github.com/medbook/console/internal/store"
)

func (h *Handler) DoctorDashboard(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	dash, err := s.Dashboard(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, dash)
}

// ensureLoaded loads the doctor session on first use.
func ensureLoaded(c echo.Context, s *store.DoctorStore) error {
	if s.Loaded() {
		return nil
	}
	if err := s.Load(c.Request().Context()); err != nil {
		return storeError(err)
	}
	return nil
}

// DoctorAppointments lists the doctor's appointments with an optional
// status filter. A refresh=true query reloads the session first.
func (h *Handler) DoctorAppointments(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	if v := queryBool(c, "refresh"); v != nil && *v {
		if err := s.Load(c.Request().Context()); err != nil {
			return storeError(err)
		}
	} else if err := ensureLoaded(c, s); err != nil {
		return err
	}
	appts := s.Appointments()
	f := appointment.Filter{Status: c.QueryParam("status")}
	return c.JSON(http.StatusOK, appointmentList{
		Appointments: f.Apply(appts),
		Counts:       appointment.CountByStatus(appts),
	})
}

// DoctorAppointmentAction completes or cancels one appointment and returns
// the reloaded list.
func (h *Handler) DoctorAppointmentAction(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")

	switch c.Param("action") {
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
// Profile
// ---------------------------------------------------------------------------

type profileView struct {
	Doctor   *doctor.Doctor         `json:"doctor"`
	Approval *doctor.ApprovalStatus `json:"approval,omitempty"`
}

func (h *Handler) Profile(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	if err := ensureLoaded(c, s); err != nil {
		return err
	}
	p := s.Profile()
	if p == nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Profile is not available. Please try logging in again.")
	}
	return c.JSON(http.StatusOK, profileView{Doctor: p, Approval: s.ApprovalStatus()})
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	var u doctor.ProfileUpdate
	if err := bindValid(c, &u); err != nil {
		return err
	}
	p, err := s.UpdateProfile(c.Request().Context(), u)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, p)
}

// UploadPicture takes a multipart "Picture" and returns the stored URL; the
// client saves it with a profile update.
func (h *Handler) UploadPicture(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	file, err := formFile(c, "Picture")
	if err != nil {
		return err
	}
	u, err := s.UploadPicture(c.Request().Context(), file)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": u})
}

func (h *Handler) RequestApproval(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	if err := s.RequestApproval(c.Request().Context()); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, s.ApprovalStatus())
}

// ---------------------------------------------------------------------------
// Inquiries
// ---------------------------------------------------------------------------

func (h *Handler) DoctorInquiries(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}
	inqs, err := s.FetchInquiries(c.Request().Context())
	if err != nil {
		return storeError(err)
	}
	f := inquiry.Filter{Status: c.QueryParam("status")}
	return c.JSON(http.StatusOK, inquiryList{
		Inquiries:   f.Apply(inqs),
		Specialties: inquiry.Specialties(inqs),
	})
}

// RespondInquiry accepts either a JSON body {"response": "..."} or a
// multipart form with a "response" field and image "responseFiles".
func (h *Handler) RespondInquiry(c echo.Context) error {
	s, err := h.doctorStore(c)
	if err != nil {
		return err
	}

	var resp inquiry.Response
	if isMultipart(c) {
		resp.Text = c.FormValue("response")
		files, err := formFiles(c, "responseFiles")
		if err != nil {
			return err
		}
		resp.Files = files
	} else if err := c.Bind(&resp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.RespondInquiry(c.Request().Context(), c.Param("id"), resp); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, inquiryList{
		Inquiries:   s.Inquiries(),
		Specialties: inquiry.Specialties(s.Inquiries()),
	})
}
