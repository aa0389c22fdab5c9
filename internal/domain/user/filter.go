package user

import "strings"

// FilterByRole keeps users with the given role, case-insensitively. An
// empty role or "all" keeps everyone.
func FilterByRole(users []User, role string) []User {
	if role == "" || strings.EqualFold(role, "all") {
		return users
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		if strings.EqualFold(u.Role, role) {
			out = append(out, u)
		}
	}
	return out
}

// CountRole counts users with the given role.
func CountRole(users []User, role string) int {
	n := 0
	for _, u := range users {
		if strings.EqualFold(u.Role, role) {
			n++
		}
	}
	return n
}

// IndexByID returns the position of the user with id, or -1.
func IndexByID(users []User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}
