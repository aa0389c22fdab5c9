package doctor

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/medbook/console/internal/platform/apiclient"
)

// Doctor is a doctor profile as the upstream returns it. Older payloads use
// "_id" and "specialty"; both spellings are accepted.
type Doctor struct {
	ID          string  `json:"id"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Image       string  `json:"image,omitempty"`
	Specialty   string  `json:"speciality"`
	Degree      string  `json:"degree,omitempty"`
	Experience  string  `json:"experience,omitempty"`
	About       string  `json:"about,omitempty"`
	Address     string  `json:"address,omitempty"`
	Fees        float64 `json:"fees"`
	IsAvailable bool    `json:"isAvailable"`

	// IsActive is nil when the upstream omits it; treated as active.
	IsActive *bool `json:"isActive,omitempty"`
}

type doctorWire struct {
	ID          apiclient.FlexString `json:"id"`
	LegacyID    apiclient.FlexString `json:"_id"`
	FirstName   string               `json:"firstName"`
	LastName    string               `json:"lastName"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Phone       string               `json:"phone"`
	Image       string               `json:"image"`
	Speciality  apiclient.FlexString `json:"speciality"`
	Specialty   apiclient.FlexString `json:"specialty"`
	Degree      string               `json:"degree"`
	Experience  apiclient.FlexString `json:"experience"`
	About       string               `json:"about"`
	Address     string               `json:"address"`
	Fees        apiclient.FlexFloat  `json:"fees"`
	IsAvailable *bool                `json:"isAvailable"`
	Available   *bool                `json:"available"`
	IsActive    *bool                `json:"isActive"`
}

func (d *Doctor) UnmarshalJSON(data []byte) error {
	var w doctorWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*d = Doctor{
		ID:         apiclient.FirstNonEmpty(string(w.ID), string(w.LegacyID)),
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		Email:      w.Email,
		Phone:      w.Phone,
		Image:      w.Image,
		Specialty:  SpecialtyLabel(apiclient.FirstNonEmpty(string(w.Speciality), string(w.Specialty))),
		Degree:     w.Degree,
		Experience: string(w.Experience),
		About:      w.About,
		Address:    w.Address,
		Fees:       float64(w.Fees),
		IsActive:   w.IsActive,
	}
	if d.FirstName == "" && d.LastName == "" && w.Name != "" {
		d.FirstName, d.LastName, _ = strings.Cut(strings.TrimPrefix(w.Name, "Dr. "), " ")
	}
	switch {
	case w.IsAvailable != nil:
		d.IsAvailable = *w.IsAvailable
	case w.Available != nil:
		d.IsAvailable = *w.Available
	}
	return nil
}

func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// Active reports the activation flag, defaulting to true when absent.
func (d *Doctor) Active() bool {
	return d.IsActive == nil || *d.IsActive
}

// Input is the admin's add/edit doctor form.
type Input struct {
	FirstName   string  `json:"firstName" validate:"required,max=100"`
	LastName    string  `json:"lastName" validate:"required,max=100"`
	Email       string  `json:"email" validate:"required,email"`
	Phone       string  `json:"phone,omitempty" validate:"omitempty,max=32"`
	Image       string  `json:"image,omitempty"`
	Specialty   string  `json:"speciality" validate:"required"`
	Degree      string  `json:"degree,omitempty"`
	Experience  string  `json:"experience,omitempty"`
	About       string  `json:"about,omitempty" validate:"max=4000"`
	Address     string  `json:"address,omitempty"`
	Fees        float64 `json:"fees" validate:"gte=0"`
	IsAvailable bool    `json:"isAvailable"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// InputFrom builds a form pre-filled with d's current values.
func InputFrom(d Doctor) Input {
	return Input{
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Email:       d.Email,
		Phone:       d.Phone,
		Image:       d.Image,
		Specialty:   d.Specialty,
		Degree:      d.Degree,
		Experience:  d.Experience,
		About:       d.About,
		Address:     d.Address,
		Fees:        d.Fees,
		IsAvailable: d.IsAvailable,
		IsActive:    d.IsActive,
	}
}

// Apply copies the form onto d. An empty image keeps the current one.
func (in Input) Apply(d *Doctor) {
	d.FirstName = in.FirstName
	d.LastName = in.LastName
	d.Email = in.Email
	d.Phone = in.Phone
	if in.Image != "" {
		d.Image = in.Image
	}
	d.Specialty = in.Specialty
	d.Degree = in.Degree
	d.Experience = in.Experience
	d.About = in.About
	d.Address = in.Address
	d.Fees = in.Fees
	d.IsAvailable = in.IsAvailable
	if in.IsActive != nil {
		d.IsActive = in.IsActive
	}
}

// ProfileUpdate is a doctor editing their own profile. Empty fields are
// left unchanged upstream.
type ProfileUpdate struct {
	FirstName  string   `json:"firstName,omitempty" validate:"max=100"`
	LastName   string   `json:"lastName,omitempty" validate:"max=100"`
	Email      string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone      string   `json:"phone,omitempty" validate:"max=32"`
	Image      string   `json:"image,omitempty"`
	Specialty  string   `json:"specialty,omitempty"`
	Degree     string   `json:"degree,omitempty"`
	Experience string   `json:"experience,omitempty"`
	About      string   `json:"about,omitempty" validate:"max=4000"`
	Address    string   `json:"address,omitempty"`
	Fees       *float64 `json:"fees,omitempty" validate:"omitempty,gte=0"`
}

// Apply copies the non-empty fields of u onto d.
func (u ProfileUpdate) Apply(d *Doctor) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&d.FirstName, u.FirstName)
	set(&d.LastName, u.LastName)
	set(&d.Email, u.Email)
	set(&d.Phone, u.Phone)
	set(&d.Image, u.Image)
	set(&d.Specialty, u.Specialty)
	set(&d.Degree, u.Degree)
	set(&d.Experience, u.Experience)
	set(&d.About, u.About)
	set(&d.Address, u.Address)
	if u.Fees != nil {
		d.Fees = *u.Fees
	}
}

// ---------------------------------------------------------------------------
// Approval
// ---------------------------------------------------------------------------

type ApprovalState string

const (
	ApprovalPending  ApprovalState = "Pending"
	ApprovalApproved ApprovalState = "Approved"
	ApprovalRejected ApprovalState = "Rejected"
)

// ParseApprovalState maps any casing to the canonical state. Unknown values
// are returned unchanged.
func ParseApprovalState(s string) ApprovalState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return ApprovalPending
	case "approved":
		return ApprovalApproved
	case "rejected":
		return ApprovalRejected
	}
	return ApprovalState(s)
}

// ApprovalRequest is a doctor's request for profile approval as the admin
// sees it.
type ApprovalRequest struct {
	ID            string        `json:"id"`
	DoctorID      string        `json:"doctorId"`
	Doctor        Doctor        `json:"doctor"`
	Status        ApprovalState `json:"status"`
	RequestDate   string        `json:"requestDate,omitempty"`
	ProcessedDate string        `json:"processedDate,omitempty"`
	AdminNote     string        `json:"adminNote,omitempty"`
	AdminName     string        `json:"adminName,omitempty"`
}

func (r *ApprovalRequest) UnmarshalJSON(data []byte) error {
	var w struct {
		ID            apiclient.FlexString `json:"id"`
		LegacyID      apiclient.FlexString `json:"_id"`
		DoctorID      apiclient.FlexString `json:"doctorId"`
		Doctor        *Doctor              `json:"doctor"`
		Status        string               `json:"status"`
		RequestDate   string               `json:"requestDate"`
		ProcessedDate string               `json:"processedDate"`
		AdminNote     string               `json:"adminNote"`
		AdminName     string               `json:"adminName"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = ApprovalRequest{
		ID:            apiclient.FirstNonEmpty(string(w.ID), string(w.LegacyID)),
		DoctorID:      string(w.DoctorID),
		Status:        ParseApprovalState(w.Status),
		RequestDate:   w.RequestDate,
		ProcessedDate: w.ProcessedDate,
		AdminNote:     w.AdminNote,
		AdminName:     w.AdminName,
	}
	if w.Doctor != nil {
		r.Doctor = *w.Doctor
	}
	if r.DoctorID == "" {
		r.DoctorID = r.Doctor.ID
	}
	return nil
}

// ApprovalStatus is the signed-in doctor's own approval state.
type ApprovalStatus struct {
	Status      ApprovalState `json:"status"`
	AdminNote   string        `json:"adminNote,omitempty"`
	RequestDate string        `json:"requestDate,omitempty"`
}

func (s *ApprovalStatus) UnmarshalJSON(data []byte) error {
	var w struct {
		Status      string `json:"status"`
		AdminNote   string `json:"adminNote"`
		RequestDate string `json:"requestDate"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = ApprovalStatus{
		Status:      ParseApprovalState(w.Status),
		AdminNote:   w.AdminNote,
		RequestDate: w.RequestDate,
	}
	return nil
}

// ---------------------------------------------------------------------------
// Specialties
// ---------------------------------------------------------------------------

// Specialties are the values offered at signup, indexed by their upstream
// enum value.
var Specialties = []string{
	"General Physician",
	"Gynecologist",
	"Dermatologist",
	"Pediatrician",
	"Neurologist",
	"Gastroenterologist",
}

// SpecialtyLabel turns an enum index into its label. Anything else is
// returned as is.
func SpecialtyLabel(v string) string {
	if i, err := strconv.Atoi(v); err == nil && i >= 0 && i < len(Specialties) {
		return Specialties[i]
	}
	return v
}

// SpecialtyIndex returns the enum value for a label, case-insensitively.
func SpecialtyIndex(label string) (int, bool) {
	for i, s := range Specialties {
		if strings.EqualFold(s, strings.TrimSpace(label)) {
			return i, true
		}
	}
	return 0, false
}
