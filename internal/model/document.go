package model

import "time"

const DocumentStatusUploaded = "uploaded"

type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	FileName    string    `json:"fileName"`
	FileType    string    `json:"fileType"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	UploadedAt  time.Time `json:"uploadedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (d Document) GetID() string { return d.ID }

type DocumentInput struct {
	FileName    string `json:"fileName" validate:"required"`
	FileType    string `json:"fileType" validate:"required,oneof=image/jpeg image/png application/pdf"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description,omitempty"`
}
