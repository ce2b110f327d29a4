package model

import "time"

type Medication struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Dosage      string     `json:"dosage"`
	Frequency   string     `json:"frequency"`
	NextDoseAt  time.Time  `json:"nextDoseAt"`
	Adherence   int        `json:"adherence"`
	PillCount   int        `json:"pillCount"`
	Notes       string     `json:"notes,omitempty"`
	LastTakenAt *time.Time `json:"lastTakenAt,omitempty"`
	OwnerID     string     `json:"ownerId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (m Medication) GetID() string { return m.ID }

type MedicationInput struct {
	Name       string    `json:"name" validate:"required"`
	Dosage     string    `json:"dosage" validate:"required"`
	Frequency  string    `json:"frequency" validate:"required"`
	PillCount  int       `json:"pillCount" validate:"min=0"`
	NextDoseAt time.Time `json:"nextDoseAt" validate:"required"`
	Notes      string    `json:"notes,omitempty"`
}

// MedicationPatch has no adherence field: adherence only moves through
// recorded doses.
type MedicationPatch struct {
	Name       *string    `json:"name,omitempty" validate:"omitempty,min=1"`
	Dosage     *string    `json:"dosage,omitempty" validate:"omitempty,min=1"`
	Frequency  *string    `json:"frequency,omitempty" validate:"omitempty,min=1"`
	PillCount  *int       `json:"pillCount,omitempty" validate:"omitempty,min=0"`
	NextDoseAt *time.Time `json:"nextDoseAt,omitempty"`
	Notes      *string    `json:"notes,omitempty"`
}

// Apply merges the non-nil fields into m and bumps UpdatedAt.
func (p MedicationPatch) Apply(m *Medication, now time.Time) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Dosage != nil {
		m.Dosage = *p.Dosage
	}
	if p.Frequency != nil {
		m.Frequency = *p.Frequency
	}
	if p.PillCount != nil {
		m.PillCount = *p.PillCount
	}
	if p.NextDoseAt != nil {
		m.NextDoseAt = *p.NextDoseAt
	}
	if p.Notes != nil {
		m.Notes = *p.Notes
	}
	if !now.After(m.UpdatedAt) {
		now = m.UpdatedAt.Add(time.Millisecond)
	}
	m.UpdatedAt = now
}

// DoseEvent is append-only.
type DoseEvent struct {
	ID               string    `json:"id"`
	MedicationID     string    `json:"medicationId"`
	OwnerID          string    `json:"ownerId"`
	TakenAt          time.Time `json:"takenAt"`
	Verified         bool      `json:"verified"`
	VerificationData JSONMap   `json:"verificationData,omitempty"`
}

func (e DoseEvent) GetID() string { return e.ID }

type TakeRequest struct {
	VerificationData JSONMap   `json:"verificationData,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}

type TakenResult struct {
	Adherence int       `json:"newAdherence"`
	Event     DoseEvent `json:"adherenceRecord"`
}
