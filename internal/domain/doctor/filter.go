package doctor

import "strings"

// Filter narrows a doctor list. Nil flags and an empty specialty match
// everything.
type Filter struct {
	Available *bool
	Active    *bool
	Specialty string
}

func (f Filter) Match(d Doctor) bool {
	if f.Available != nil && d.IsAvailable != *f.Available {
		return false
	}
	if f.Active != nil && d.Active() != *f.Active {
		return false
	}
	if f.Specialty != "" && f.Specialty != "all" && !strings.EqualFold(d.Specialty, f.Specialty) {
		return false
	}
	return true
}

// Apply returns the matching doctors in input order.
func (f Filter) Apply(doctors []Doctor) []Doctor {
	out := make([]Doctor, 0, len(doctors))
	for _, d := range doctors {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// IndexByID returns the position of the doctor with id, or -1.
func IndexByID(doctors []Doctor, id string) int {
	for i := range doctors {
		if doctors[i].ID == id {
			return i
		}
	}
	return -1
}

// FilterRequests keeps approval requests in the given state; "" and "all"
// keep everything.
func FilterRequests(reqs []ApprovalRequest, status string) []ApprovalRequest {
	if status == "" || strings.EqualFold(status, "all") {
		return reqs
	}
	want := ParseApprovalState(status)
	out := make([]ApprovalRequest, 0, len(reqs))
	for _, r := range reqs {
		if r.Status == want {
			out = append(out, r)
		}
	}
	return out
}
