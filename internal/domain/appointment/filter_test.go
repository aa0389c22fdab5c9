package appointment

import "testing"

func fixtures() []Appointment {
	return []Appointment{
		{ID: "1", Date: "2025-01-10", Status: StatusPending, Doctor: Party{ID: "d1"}, Patient: Party{ID: "p1"}},
		{ID: "2", Date: "2025-03-01", Status: StatusCompleted, Doctor: Party{ID: "d2"}, Patient: Party{ID: "p1"}},
		{ID: "3", Date: "2025-02-15", Status: StatusPending, Doctor: Party{ID: "d2"}, Patient: Party{ID: "p2"}},
		{ID: "4", Date: "", Status: StatusCancelled, Doctor: Party{ID: "d1"}, Patient: Party{ID: "p3"}},
	}
}

func ids(appts []Appointment) []string {
	out := make([]string, len(appts))
	for i, a := range appts {
		out[i] = a.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty filter keeps all", Filter{}, []string{"1", "2", "3", "4"}},
		{"all keeps all", Filter{Status: "all"}, []string{"1", "2", "3", "4"}},
		{"status pending", Filter{Status: "pending"}, []string{"1", "3"}},
		{"status is case-insensitive", Filter{Status: "Completed"}, []string{"2"}},
		{"by doctor", Filter{DoctorID: "d2"}, []string{"2", "3"}},
		{"by patient", Filter{PatientID: "p1"}, []string{"1", "2"}},
		{"doctor and status", Filter{DoctorID: "d2", Status: "pending"}, []string{"3"}},
		{"no match", Filter{PatientID: "nobody"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.filter.Apply(fixtures()))
			if !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus(fixtures())
	if counts[StatusPending] != 2 || counts[StatusCompleted] != 1 || counts[StatusCancelled] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}
	if v, ok := counts[StatusApproved]; !ok || v != 0 {
		t.Error("expected zero entry for approved")
	}
}

func TestLatestN(t *testing.T) {
	in := fixtures()
	got := ids(LatestN(in, 3))
	if !equal(got, []string{"2", "3", "1"}) {
		t.Errorf("LatestN = %v", got)
	}
	if in[0].ID != "1" {
		t.Error("LatestN must not reorder its input")
	}
	if len(LatestN(in, 10)) != 4 {
		t.Error("expected all appointments when n exceeds length")
	}
}
