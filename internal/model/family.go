package model

import "time"

const FamilyLinkPending = "pending"

// DefaultFamilyPermissions are granted when a link request names none.
var DefaultFamilyPermissions = []string{"view_medications", "view_vitals", "receive_alerts"}

type FamilyLink struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	MemberEmail  string    `json:"memberEmail"`
	Relationship string    `json:"relationship"`
	Permissions  []string  `json:"permissions"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (l FamilyLink) GetID() string { return l.ID }

type FamilyLinkInput struct {
	MemberEmail  string   `json:"memberEmail" validate:"required,email"`
	Relationship string   `json:"relationship" validate:"required"`
	Permissions  []string `json:"permissions,omitempty"`
}

// PermissionsOrDefault returns a copy so callers never share the default slice.
func (in FamilyLinkInput) PermissionsOrDefault() []string {
	src := in.Permissions
	if len(src) == 0 {
		src = DefaultFamilyPermissions
	}
	return append([]string(nil), src...)
}
