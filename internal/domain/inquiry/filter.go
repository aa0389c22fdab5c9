package inquiry

import "strings"

// Filter narrows an inquiry list. Status accepts "all", "pending" or
// "answered"; an empty specialty matches everything.
type Filter struct {
	Status    string
	Specialty string
}

func (f Filter) Match(q Inquiry) bool {
	if f.Status != "" && !strings.EqualFold(f.Status, "all") && q.Status != ParseStatus(f.Status) {
		return false
	}
	if f.Specialty != "" && q.Specialty != f.Specialty {
		return false
	}
	return true
}

// Apply returns the matching inquiries in input order.
func (f Filter) Apply(inqs []Inquiry) []Inquiry {
	out := make([]Inquiry, 0, len(inqs))
	for _, q := range inqs {
		if f.Match(q) {
			out = append(out, q)
		}
	}
	return out
}

// Specialties returns the distinct specialties in first-seen order.
func Specialties(inqs []Inquiry) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, q := range inqs {
		if q.Specialty == "" {
			continue
		}
		if _, ok := seen[q.Specialty]; ok {
			continue
		}
		seen[q.Specialty] = struct{}{}
		out = append(out, q.Specialty)
	}
	return out
}
