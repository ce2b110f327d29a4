package model

import "time"

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
)

type Notification struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Priority  NotificationPriority `json:"priority,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	Read      bool                 `json:"read"`
}

func (n Notification) GetID() string { return n.ID }

type NotificationInput struct {
	Type     string               `json:"type" validate:"required"`
	Title    string               `json:"title" validate:"required"`
	Message  string               `json:"message" validate:"required"`
	Priority NotificationPriority `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
}
