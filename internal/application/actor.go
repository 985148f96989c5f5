package application

import "fmt"

// Role identifies which side of the marketplace an account belongs to.
type Role string

const (
	// RolePharmacy marks accounts that publish postings and issue offers.
	RolePharmacy Role = "pharmacy"
	// RolePharmacist marks accounts that apply and accept offers.
	RolePharmacist Role = "pharmacist"
)

// ParseRole converts a stored string to a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	switch role {
	case RolePharmacy, RolePharmacist:
		return role, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Principal represents the authenticated account invoking a service method.
type Principal struct {
	UserID  string
	Role    Role
	IsAdmin bool
}

// PharmacyActor is a principal proven to act for a pharmacy. Guard functions
// produce it so ownership checks never compare raw role strings.
type PharmacyActor struct {
	PharmacyID string
}

// PharmacistActor is a principal proven to act for a pharmacist.
type PharmacistActor struct {
	PharmacistID string
}

// AsPharmacy narrows the principal to the pharmacy side or fails with ErrForbidden.
func (p Principal) AsPharmacy() (PharmacyActor, error) {
	if p.UserID == "" || p.Role != RolePharmacy {
		return PharmacyActor{}, ErrForbidden
	}
	return PharmacyActor{PharmacyID: p.UserID}, nil
}

// AsPharmacist narrows the principal to the pharmacist side or fails with ErrForbidden.
func (p Principal) AsPharmacist() (PharmacistActor, error) {
	if p.UserID == "" || p.Role != RolePharmacist {
		return PharmacistActor{}, ErrForbidden
	}
	return PharmacistActor{PharmacistID: p.UserID}, nil
}

// RequireAdmin restricts administrative operations such as fee transitions.
func (p Principal) RequireAdmin() error {
	if p.UserID == "" || !p.IsAdmin {
		return ErrForbidden
	}
	return nil
}
