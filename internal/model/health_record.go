package model

import (
	"encoding/json"
	"time"
)

type HealthDataType string

const (
	HealthDataBloodPressure HealthDataType = "blood_pressure"
	HealthDataHeartRate     HealthDataType = "heart_rate"
	HealthDataBloodSugar    HealthDataType = "blood_sugar"
	HealthDataWeight        HealthDataType = "weight"
	HealthDataTemperature   HealthDataType = "temperature"
)

// HealthRecord is a single vitals reading. Value is free-form JSON since a
// blood pressure reading is an object while a weight is a number.
type HealthRecord struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"ownerId"`
	Type       HealthDataType  `json:"type"`
	Value      json.RawMessage `json:"value"`
	Unit       string          `json:"unit"`
	Notes      string          `json:"notes,omitempty"`
	RecordedAt time.Time       `json:"recordedAt"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func (r HealthRecord) GetID() string { return r.ID }

type HealthRecordInput struct {
	Type       HealthDataType  `json:"type" validate:"required,oneof=blood_pressure heart_rate blood_sugar weight temperature"`
	Value      json.RawMessage `json:"value" validate:"required"`
	Unit       string          `json:"unit" validate:"required"`
	Notes      string          `json:"notes,omitempty"`
	RecordedAt *time.Time      `json:"recordedAt,omitempty"`
}
