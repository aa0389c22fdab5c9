package store

import (
	"context"
	"encoding/json"

	"github.com/medbook/console/internal/domain/appointment"
	"github.com/medbook/console/internal/platform/apiclient"
)

// AdminDashboard is the admin landing page summary.
type AdminDashboard struct {
	TotalDoctors       int                       `json:"totalDoctors"`
	TotalAppointments  int                       `json:"totalAppointments"`
	TotalPatients      int                       `json:"totalPatients"`
	TotalEarnings      float64                   `json:"totalEarnings"`
	LatestAppointments []appointment.Appointment `json:"latestAppointments"`

	// Derived is set when the summary was computed locally because the
	// upstream summary endpoint failed.
	Derived bool `json:"derived"`
}

func (d *AdminDashboard) UnmarshalJSON(data []byte) error {
	var w struct {
		TotalDoctors       int                                     `json:"totalDoctors"`
		TotalAppointments  int                                     `json:"totalAppointments"`
		TotalPatients      int                                     `json:"totalPatients"`
		TotalEarnings      apiclient.FlexFloat                     `json:"totalEarnings"`
		LatestAppointments apiclient.List[appointment.Appointment] `json:"latestAppointments"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = AdminDashboard{
		TotalDoctors:       w.TotalDoctors,
		TotalAppointments:  w.TotalAppointments,
		TotalPatients:      w.TotalPatients,
		TotalEarnings:      float64(w.TotalEarnings),
		LatestAppointments: w.LatestAppointments,
	}
	if d.LatestAppointments == nil {
		d.LatestAppointments = []appointment.Appointment{}
	}
	return nil
}

// StatsRepository reads the upstream admin summary.
type StatsRepository interface {
	AdminDashboard(ctx context.Context) (*AdminDashboard, error)
}

type statsRepoHTTP struct {
	client *apiclient.Client
}

func NewStatsRepoHTTP(client *apiclient.Client) StatsRepository {
	return &statsRepoHTTP{client: client}
}

func (r *statsRepoHTTP) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	var d AdminDashboard
	if err := r.client.Get(ctx, apiclient.TokenFrom(ctx), "/admin/dashboard-stats", &d); err != nil {
		return nil, err
	}
	return &d, nil
}
