package models

import (
	"time"
)

// Asset describes an uploaded model file kept in object storage.
type Asset struct {
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	UploadedAt       time.Time `json:"uploaded_at"`
	StorageKey       string    `json:"storage_key"`
	PublicPath       string    `json:"downloadURL"`

	// Local-space geometry bounds read from the file, nil when unknown.
	Bounds *Bounds `json:"bounds,omitempty"`
}

// Bounds is the API form of an axis-aligned box.
type Bounds struct {
	Min Vector3 `json:"min"`
	Max Vector3 `json:"max"`
}
