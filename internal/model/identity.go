package model

import "time"

type Role string

const (
	RolePatient Role = "patient"
	RoleFamily  Role = "family"
	RoleDoctor  Role = "doctor"
	RoleASHA    Role = "asha"
)

// LocalSessionToken marks a session that never talks to the backend.
const LocalSessionToken = "demo-token"

type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Age       int       `json:"age,omitempty"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session associates an access token with the active identity.
type Session struct {
	AccessToken string   `json:"access_token"`
	Identity    Identity `json:"user"`
	LocalOnly   bool     `json:"localOnly"`
}

type SignUpInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=patient family doctor asha"`
	Phone    string `json:"phone"`
	Age      int    `json:"age" validate:"omitempty,min=0,max=150"`
	Language string `json:"language" validate:"omitempty,oneof=en hi mr"`
}

type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ProfilePatch struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Phone    *string `json:"phone,omitempty"`
	Age      *int    `json:"age,omitempty" validate:"omitempty,min=0,max=150"`
	Language *string `json:"language,omitempty" validate:"omitempty,oneof=en hi mr"`
}

// Apply merges the non-nil fields into id and bumps UpdatedAt.
func (p ProfilePatch) Apply(id *Identity, now time.Time) {
	if p.Name != nil {
		id.Name = *p.Name
	}
	if p.Phone != nil {
		id.Phone = *p.Phone
	}
	if p.Age != nil {
		id.Age = *p.Age
	}
	if p.Language != nil {
		id.Language = *p.Language
	}
	id.UpdatedAt = now
}
