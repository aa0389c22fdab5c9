package console

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medbook/console/internal/platform/auth"
)

// RegisterRoutes mounts the public pages and both gated subtrees. stream
// serves the websocket notification feed and may be nil.
func (h *Handler) RegisterRoutes(e *echo.Echo, gate auth.GateConfig, stream echo.HandlerFunc) {
	e.GET("/health", h.Health)
	e.GET("/login", h.LoginScreen)
	e.POST("/login", h.Login, h.throttle...)
	e.POST("/otp", h.VerifyOTP, h.throttle...)
	e.POST("/logout", h.Logout)
	e.POST("/doctor-signup", h.DoctorSignup, h.throttle...)

	e.GET("/", toLogin)
	e.RouteNotFound("/*", toLogin)

	admin := e.Group(auth.AdminPortal.BasePath, auth.AdminPortal.Gate(gate))
	h.registerAdmin(admin, stream)

	doc := e.Group(auth.DoctorPortal.BasePath, auth.DoctorPortal.Gate(gate))
	h.registerDoctor(doc, stream)
}

func (h *Handler) registerAdmin(g *echo.Group, stream echo.HandlerFunc) {
	g.GET("", redirectTo(auth.AdminPortal.BasePath+"/dashboard"))
	g.GET("/dashboard", h.AdminDashboard)

	g.GET("/doctors", h.ListDoctors)
	g.POST("/doctors", h.CreateDoctor)
	g.POST("/doctors/upload", h.UploadDoctorImage)
	g.PUT("/doctors/:id", h.UpdateDoctor)
	g.DELETE("/doctors/:id", h.DeleteDoctor)
	g.POST("/doctors/:id/activate", h.ActivateDoctor)
	g.POST("/doctors/:id/deactivate", h.DeactivateDoctor)
	g.POST("/doctors/:id/availability", h.ToggleAvailability)
	g.POST("/doctors/:id/notify", h.NotifyDoctor)

	g.GET("/appointments", h.ListAppointments)
	g.POST("/appointments/:id/:action", h.TransitionAppointment)

	g.GET("/users", h.ListUsers)
	g.PUT("/users/:id", h.UpdateUser)
	g.DELETE("/users/:id", h.DeleteUser)
	g.POST("/users/:id/notify", h.NotifyUser)

	g.GET("/inquiries", h.AdminInquiries)
	g.GET("/inquiries/analytics", h.InquiryAnalytics)

	g.GET("/approval-requests", h.ApprovalRequests)
	g.POST("/approval-requests/:id/approve", h.ApproveDoctor)
	g.POST("/approval-requests/:id/reject", h.RejectDoctor)

	g.GET("/notifications", h.notifications)
	if stream != nil {
		g.GET("/ws", stream)
	}
	g.RouteNotFound("/*", redirectTo(auth.AdminPortal.BasePath+"/dashboard"))
}

func (h *Handler) registerDoctor(g *echo.Group, stream echo.HandlerFunc) {
	g.GET("", redirectTo(auth.DoctorPortal.BasePath+"/dashboard"))
	g.GET("/dashboard", h.DoctorDashboard)

	g.GET("/appointments", h.DoctorAppointments)
	g.POST("/appointments/:id/:action", h.DoctorAppointmentAction)

	g.GET("/profile", h.Profile)
	g.PATCH("/profile", h.UpdateProfile)
	g.POST("/profile/picture", h.UploadPicture)
	g.POST("/profile/request-approval", h.RequestApproval)

	g.GET("/inquiries", h.DoctorInquiries)
	g.POST("/inquiries/:id/respond", h.RespondInquiry)

	g.GET("/notifications", h.notifications)
	if stream != nil {
		g.GET("/ws", stream)
	}
	g.RouteNotFound("/*", redirectTo(auth.DoctorPortal.BasePath+"/dashboard"))
}

func redirectTo(path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Redirect(http.StatusFound, path)
	}
}
