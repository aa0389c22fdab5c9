package user

import (
	"encoding/json"
	"strings"

	"github.com/medbook/console/internal/platform/apiclient"
)

// User is a platform account as listed in the admin's user table.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role"`

	// IsActive is nil when the upstream does not report it.
	IsActive *bool `json:"isActive,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	var w struct {
		ID        apiclient.FlexString `json:"id"`
		LegacyID  apiclient.FlexString `json:"_id"`
		FirstName string               `json:"firstName"`
		LastName  string               `json:"lastName"`
		Name      string               `json:"name"`
		Email     string               `json:"email"`
		Phone     string               `json:"phone"`
		Role      json.RawMessage      `json:"role"`
		Roles     []string             `json:"roles"`
		IsActive  *bool                `json:"isActive"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*u = User{
		ID:        apiclient.FirstNonEmpty(string(w.ID), string(w.LegacyID)),
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Email:     w.Email,
		Phone:     w.Phone,
		IsActive:  w.IsActive,
	}
	if u.FirstName == "" && u.LastName == "" && w.Name != "" {
		u.FirstName, u.LastName, _ = strings.Cut(w.Name, " ")
	}

	// role is a string on most endpoints and a list on some.
	var role string
	if err := json.Unmarshal(w.Role, &role); err == nil {
		u.Role = role
	} else {
		var roles []string
		if err := json.Unmarshal(w.Role, &roles); err == nil && len(roles) > 0 {
			u.Role = roles[0]
		}
	}
	if u.Role == "" && len(w.Roles) > 0 {
		u.Role = w.Roles[0]
	}
	return nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Update is the admin's edit-user form. Empty fields are not sent.
type Update struct {
	FirstName string `json:"firstName,omitempty" validate:"max=100"`
	LastName  string `json:"lastName,omitempty" validate:"max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" validate:"max=32"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=Admin Doctor Patient"`
}

// Apply copies the non-empty fields of up onto u.
func (up Update) Apply(u *User) {
	if up.FirstName != "" {
		u.FirstName = up.FirstName
	}
	if up.LastName != "" {
		u.LastName = up.LastName
	}
	if up.Email != "" {
		u.Email = up.Email
	}
	if up.Phone != "" {
		u.Phone = up.Phone
	}
	if up.Role != "" {
		u.Role = up.Role
	}
}
