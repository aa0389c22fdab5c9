package inquiry

import (
	"encoding/json"
	"strings"

	"github.com/medbook/console/internal/platform/apiclient"
)

type Status string

const (
	StatusPending  Status = "Pending"
	StatusAnswered Status = "Answered"
)

// ParseStatus maps any casing of pending/answered to the canonical value.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "answered", "responded":
		return StatusAnswered
	case "", "pending":
		return StatusPending
	}
	return Status(s)
}

// Attachment is a file stored by the upstream, addressed relative to the
// API host root.
type Attachment struct {
	FilePath string `json:"filePath"`
	FileName string `json:"fileName,omitempty"`
}

// URL resolves the attachment against the upstream host root. apiBase is
// the API base URL; a trailing "/api" is dropped.
func (a Attachment) URL(apiBase string) string {
	if strings.HasPrefix(a.FilePath, "http://") || strings.HasPrefix(a.FilePath, "https://") {
		return a.FilePath
	}
	root := strings.TrimSuffix(strings.TrimRight(apiBase, "/"), "/api")
	return root + "/" + strings.TrimLeft(a.FilePath, "/")
}

// Inquiry is a patient question routed to doctors of one specialty.
type Inquiry struct {
	ID                   string       `json:"id"`
	UserName             string       `json:"userName"`
	Message              string       `json:"message"`
	Specialty            string       `json:"specialty"`
	Status               Status       `json:"status"`
	CreatedAt            string       `json:"createdAt,omitempty"`
	Likes                int          `json:"likes"`
	Dislikes             int          `json:"dislikes"`
	Files                []Attachment `json:"files,omitempty"`
	DoctorResponse       string       `json:"doctorResponse,omitempty"`
	RespondingDoctorName string       `json:"respondingDoctorName,omitempty"`
	RespondedAt          string       `json:"respondedAt,omitempty"`
	ResponseFiles        []Attachment `json:"responseFiles,omitempty"`
}

func (q *Inquiry) UnmarshalJSON(data []byte) error {
	var w struct {
		ID                   apiclient.FlexString `json:"id"`
		LegacyID             apiclient.FlexString `json:"_id"`
		UserName             string               `json:"userName"`
		Name                 string               `json:"name"`
		Email                string               `json:"email"`
		Message              string               `json:"message"`
		Specialty            string               `json:"specialty"`
		Speciality           string               `json:"speciality"`
		Status               string               `json:"status"`
		CreatedAt            string               `json:"createdAt"`
		Likes                int                  `json:"likes"`
		Dislikes             int                  `json:"dislikes"`
		Files                []Attachment         `json:"files"`
		DoctorResponse       string               `json:"doctorResponse"`
		RespondingDoctorName string               `json:"respondingDoctorName"`
		RespondedAt          string               `json:"respondedAt"`
		ResponseFiles        []Attachment         `json:"responseFiles"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*q = Inquiry{
		ID:                   apiclient.FirstNonEmpty(string(w.ID), string(w.LegacyID)),
		UserName:             apiclient.FirstNonEmpty(w.UserName, w.Name, w.Email),
		Message:              w.Message,
		Specialty:            apiclient.FirstNonEmpty(w.Specialty, w.Speciality),
		Status:               ParseStatus(w.Status),
		CreatedAt:            w.CreatedAt,
		Likes:                w.Likes,
		Dislikes:             w.Dislikes,
		Files:                w.Files,
		DoctorResponse:       w.DoctorResponse,
		RespondingDoctorName: w.RespondingDoctorName,
		RespondedAt:          w.RespondedAt,
		ResponseFiles:        w.ResponseFiles,
	}
	if w.Status == "" && w.DoctorResponse != "" {
		q.Status = StatusAnswered
	}
	return nil
}

// SpecialtyStats is one row of the analytics breakdown.
type SpecialtyStats struct {
	Specialty string `json:"specialty"`
	Total     int    `json:"total"`
	Pending   int    `json:"pending"`
	Answered  int    `json:"answered"`
}

// Analytics summarises inquiries for the admin.
type Analytics struct {
	TotalInquiries    int              `json:"totalInquiries"`
	PendingInquiries  int              `json:"pendingInquiries"`
	AnsweredInquiries int              `json:"answeredInquiries"`
	SpecialtyStats    []SpecialtyStats `json:"specialtyStats"`
}

// ComputeAnalytics derives Analytics locally. Specialty rows follow the
// order in which specialties first appear.
func ComputeAnalytics(inqs []Inquiry) Analytics {
	a := Analytics{TotalInquiries: len(inqs), SpecialtyStats: []SpecialtyStats{}}
	index := make(map[string]int)
	for _, q := range inqs {
		i, ok := index[q.Specialty]
		if !ok {
			i = len(a.SpecialtyStats)
			index[q.Specialty] = i
			a.SpecialtyStats = append(a.SpecialtyStats, SpecialtyStats{Specialty: q.Specialty})
		}
		a.SpecialtyStats[i].Total++
		switch q.Status {
		case StatusPending:
			a.PendingInquiries++
			a.SpecialtyStats[i].Pending++
		case StatusAnswered:
			a.AnsweredInquiries++
			a.SpecialtyStats[i].Answered++
		}
	}
	return a
}
