package models

import "fmt"

// Role is the closed set of staff roles. Anonymous customers carry no role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleServer  Role = "server"
	RoleKitchen Role = "kitchen"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleServer, RoleKitchen:
		return true
	}
	return false
}

// Staff reports whether the role belongs to an authenticated staff member.
// Any valid role counts; the empty role is an anonymous customer.
func (r Role) Staff() bool {
	return r.Valid()
}

func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}
