package doctor

import (
	"encoding/json"
	"strconv"
)

// Signup is the public doctor self-registration form.
type Signup struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Gender    int    `json:"gender" validate:"oneof=0 1"` // 0 male, 1 female
	Specialty int    `json:"specialty" validate:"gte=0,lte=5"`
	Address   string `json:"address" validate:"max=500"`
}

// UnmarshalJSON accepts the specialty as its enum value, a numeric string or
// one of the Specialties labels. An unknown label decodes to -1 and fails
// validation.
func (s *Signup) UnmarshalJSON(data []byte) error {
	type plain Signup
	var w struct {
		plain
		Specialty json.RawMessage `json:"specialty"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Signup(w.plain)
	s.Specialty = 0
	if len(w.Specialty) == 0 || string(w.Specialty) == "null" {
		return nil
	}

	var n int
	if err := json.Unmarshal(w.Specialty, &n); err == nil {
		s.Specialty = n
		return nil
	}
	var label string
	if err := json.Unmarshal(w.Specialty, &label); err != nil {
		return err
	}
	if n, err := strconv.Atoi(label); err == nil {
		s.Specialty = n
		return nil
	}
	if i, ok := SpecialtyIndex(label); ok {
		s.Specialty = i
		return nil
	}
	s.Specialty = -1
	return nil
}

type SignupResult struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId,omitempty"`
	Message string `json:"message,omitempty"`
}
