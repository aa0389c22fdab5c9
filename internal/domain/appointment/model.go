package appointment

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/medbook/console/internal/platform/apiclient"
)

// Status values are stored lower case; the upstream mixes "Pending" and
// "pending".
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled}

// ParseStatus normalises case and the "canceled" spelling. Unknown values
// are lower-cased and kept.
func ParseStatus(s string) Status {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "canceled" {
		return StatusCancelled
	}
	return Status(v)
}

// Party is the doctor or patient side of an appointment.
type Party struct {
	ID          string `json:"id,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Image       string `json:"image,omitempty"`
	Specialty   string `json:"speciality,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

func (p Party) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Appointment mirrors the upstream payload. Date and Time are kept as sent.
type Appointment struct {
	ID      string  `json:"id"`
	Date    string  `json:"date"`
	Time    string  `json:"time"`
	Fees    float64 `json:"fees"`
	Status  Status  `json:"status"`
	Doctor  Party   `json:"doctor"`
	Patient Party   `json:"patient"`
}

type partyWire struct {
	ID          apiclient.FlexString `json:"id"`
	LegacyID    apiclient.FlexString `json:"_id"`
	FirstName   string               `json:"firstName"`
	LastName    string               `json:"lastName"`
	Name        string               `json:"name"`
	Image       string               `json:"image"`
	Speciality  string               `json:"speciality"`
	Specialty   string               `json:"specialty"`
	DateOfBirth string               `json:"dateOfBirth"`
	DOB         string               `json:"dob"`
}

func (w *partyWire) party() Party {
	if w == nil {
		return Party{}
	}
	p := Party{
		ID:          apiclient.FirstNonEmpty(string(w.ID), string(w.LegacyID)),
		FirstName:   w.FirstName,
		LastName:    w.LastName,
		Image:       w.Image,
		Specialty:   apiclient.FirstNonEmpty(w.Speciality, w.Specialty),
		DateOfBirth: apiclient.FirstNonEmpty(w.DateOfBirth, w.DOB),
	}
	if p.FirstName == "" && p.LastName == "" && w.Name != "" {
		p.FirstName, p.LastName, _ = strings.Cut(w.Name, " ")
	}
	return p
}

type appointmentWire struct {
	ID          apiclient.FlexString `json:"id"`
	LegacyID    apiclient.FlexString `json:"_id"`
	Date        string               `json:"date"`
	SlotDate    string               `json:"slotDate"`
	Time        string               `json:"time"`
	SlotTime    string               `json:"slotTime"`
	Fees        apiclient.FlexFloat  `json:"fees"`
	Amount      apiclient.FlexFloat  `json:"amount"`
	Status      string               `json:"status"`
	Cancelled   bool                 `json:"cancelled"`
	IsCompleted bool                 `json:"isCompleted"`
	DoctorID    apiclient.FlexString `json:"doctorId"`
	PatientID   apiclient.FlexString `json:"patientId"`
	UserID      apiclient.FlexString `json:"userId"`
	Doctor      *partyWire           `json:"doctor"`
	Patient     *partyWire           `json:"patient"`
	DocData     *partyWire           `json:"docData"`
	UserData    *partyWire           `json:"userData"`
}

func (a *Appointment) UnmarshalJSON(data []byte) error {
	var w appointmentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = Appointment{
		ID:   apiclient.FirstNonEmpty(string(w.ID), string(w.LegacyID)),
		Date: apiclient.FirstNonEmpty(w.Date, w.SlotDate),
		Time: apiclient.FirstNonEmpty(w.Time, w.SlotTime),
		Fees: float64(w.Fees),
	}
	if a.Fees == 0 {
		a.Fees = float64(w.Amount)
	}

	switch {
	case w.Status != "":
		a.Status = ParseStatus(w.Status)
	case w.Cancelled:
		a.Status = StatusCancelled
	case w.IsCompleted:
		a.Status = StatusCompleted
	default:
		a.Status = StatusPending
	}

	if w.Doctor != nil {
		a.Doctor = w.Doctor.party()
	} else {
		a.Doctor = w.DocData.party()
	}
	if w.Patient != nil {
		a.Patient = w.Patient.party()
	} else {
		a.Patient = w.UserData.party()
	}
	if a.Doctor.ID == "" {
		a.Doctor.ID = string(w.DoctorID)
	}
	if a.Patient.ID == "" {
		a.Patient.ID = apiclient.FirstNonEmpty(string(w.PatientID), string(w.UserID))
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2_1_2006",
	"02/01/2006",
}

// When parses Date. The zero time is returned when no layout matches.
func (a Appointment) When() time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, a.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Stats is the doctor's appointment summary.
type Stats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Cancelled int     `json:"cancelled"`
	Pending   int     `json:"pending"`
	Rejected  int     `json:"rejected"`
	Approved  int     `json:"approved"`
	Earnings  float64 `json:"earnings"`
}

func (s *Stats) UnmarshalJSON(data []byte) error {
	var w struct {
		Total     int                 `json:"total"`
		Completed int                 `json:"completed"`
		Cancelled int                 `json:"cancelled"`
		Pending   int                 `json:"pending"`
		Rejected  int                 `json:"rejected"`
		Approved  int                 `json:"approved"`
		Earnings  apiclient.FlexFloat `json:"earnings"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Stats{
		Total:     w.Total,
		Completed: w.Completed,
		Cancelled: w.Cancelled,
		Pending:   w.Pending,
		Rejected:  w.Rejected,
		Approved:  w.Approved,
		Earnings:  float64(w.Earnings),
	}
	return nil
}

// ComputeStats derives Stats locally. Earnings sum the fees of completed
// appointments.
func ComputeStats(appts []Appointment) Stats {
	s := Stats{Total: len(appts)}
	for _, a := range appts {
		switch a.Status {
		case StatusCompleted:
			s.Completed++
			s.Earnings += a.Fees
		case StatusCancelled:
			s.Cancelled++
		case StatusPending:
			s.Pending++
		case StatusRejected:
			s.Rejected++
		case StatusApproved:
			s.Approved++
		}
	}
	return s
}
