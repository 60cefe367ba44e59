package models

import (
	"time"
)

// VectorizationStatus tracks a document's progress through the
// vectorization collaborator. A document is queryable by CRUD as soon
// as it is placed, but appears in Tier-2 retrieval only once
// vectorized.
type VectorizationStatus string

const (
	VectorizationPending    VectorizationStatus = "pending"
	VectorizationVectorized VectorizationStatus = "vectorized"
	VectorizationSkipped    VectorizationStatus = "skipped"
	VectorizationFailed     VectorizationStatus = "failed"
)

type Document struct {
	ID               string              `json:"id" db:"id"`
	OriginalFilename string              `json:"original_filename" db:"original_filename"`
	DisplayName      string              `json:"display_name" db:"display_name"`
	FolderID         *string             `json:"folder_id,omitempty" db:"folder_id"`
	ContentHash      string              `json:"content_hash" db:"content_hash"`
	SizeBytes        int64               `json:"size_bytes" db:"size_bytes"`
	MimeType         string              `json:"mime_type" db:"mime_type"`
	Permissions      PermissionSet       `json:"permissions"`
	VectorStatus     VectorizationStatus `json:"vectorization_status" db:"vectorization_status"`
	OwnerID          string              `json:"owner_id" db:"owner_id"`
	Content          string              `json:"-" db:"content"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// StagedUpload is the provisional, pre-placement record of an uploaded
// file. Bytes land here first; a second request confirms folder and
// permissions without re-uploading. Rows past ExpiresAt are fair game
// for the sweep.
type StagedUpload struct {
	ID               string    `json:"id" db:"id"`
	OriginalFilename string    `json:"original_filename" db:"original_filename"`
	DisplayName      string    `json:"display_name" db:"display_name"`
	MimeType         string    `json:"mime_type" db:"mime_type"`
	SizeBytes        int64     `json:"size_bytes" db:"size_bytes"`
	ContentHash      string    `json:"content_hash" db:"content_hash"`
	Data             []byte    `json:"-" db:"data"`
	UploadedBy       string    `json:"uploaded_by" db:"uploaded_by"`
	ExpiresAt        time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}
