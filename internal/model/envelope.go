package model

// Response envelopes exchanged with the backend. Field names are the wire contract.

type MedicationsEnvelope struct {
	Medications []Medication `json:"medications"`
}

type MedicationEnvelope struct {
	Medication Medication `json:"medication"`
}

type TakeEnvelope struct {
	Success         bool      `json:"success"`
	AdherenceRecord DoseEvent `json:"adherenceRecord"`
	NewAdherence    int       `json:"newAdherence"`
}

type NotificationsEnvelope struct {
	Notifications []Notification `json:"notifications"`
}

type NotificationEnvelope struct {
	Notification Notification `json:"notification"`
}

type HealthDataEnvelope struct {
	HealthData []HealthRecord `json:"healthData"`
}

type HealthRecordEnvelope struct {
	HealthRecord HealthRecord `json:"healthRecord"`
}

type DocumentsEnvelope struct {
	Documents []Document `json:"documents"`
}

type DocumentEnvelope struct {
	Document Document `json:"document"`
}

type FamilyLinksEnvelope struct {
	FamilyLinks []FamilyLink `json:"familyLinks"`
}

type FamilyLinkEnvelope struct {
	FamilyLink FamilyLink `json:"familyLink"`
}

type ProfileEnvelope struct {
	Profile Identity `json:"profile"`
}

type UserEnvelope struct {
	User Identity `json:"user"`
}

type HealthStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}
