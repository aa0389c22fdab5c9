package appointment

import (
	"sort"
	"strings"
)

// Filter narrows an appointment list. Empty fields match everything; a
// status of "all" is the same as empty.
type Filter struct {
	Status    string
	DoctorID  string
	PatientID string
}

func (f Filter) Match(a Appointment) bool {
	if f.Status != "" && !strings.EqualFold(f.Status, "all") && a.Status != ParseStatus(f.Status) {
		return false
	}
	if f.DoctorID != "" && a.Doctor.ID != f.DoctorID {
		return false
	}
	if f.PatientID != "" && a.Patient.ID != f.PatientID {
		return false
	}
	return true
}

// Apply returns the matching appointments in input order.
func (f Filter) Apply(appts []Appointment) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// CountByStatus counts appointments per status. Every known status is
// present in the result, even when zero.
func CountByStatus(appts []Appointment) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, a := range appts {
		counts[a.Status]++
	}
	return counts
}

// LatestN returns up to n appointments ordered by date, newest first.
// Undated appointments sort last. The input is not modified.
func LatestN(appts []Appointment, n int) []Appointment {
	sorted := make([]Appointment, len(appts))
	copy(sorted, appts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].When().After(sorted[j].When())
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
