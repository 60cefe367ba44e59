package config

const (
	// MaxUploadFileSize is the per-file size ceiling for uploads.
	// Files above this are rejected individually; the rest of the
	// batch still goes through.
	MaxUploadFileSize = 25 << 20 // 25 MB

	// MaxUploadBatchSize bounds the multipart form parse for a whole
	// upload request. Large enough for a full batch of max-size files.
	MaxUploadBatchSize = 200 << 20

	// MaxDisplayNameLength is the maximum length for document display
	// names and folder names. Limited to 255 to fit in VARCHAR(255).
	MaxDisplayNameLength = 255

	// MaxQuestionLength bounds curated Q&A question text.
	MaxQuestionLength = 1000

	// MaxFAQPriority is the top of the curated entry priority scale.
	// Higher priority wins ties during curated retrieval.
	MaxFAQPriority = 10

	// StagingTTLMinutes is how long a staged upload stays claimable
	// before the sweep may reclaim it. The placement request must
	// arrive within this window.
	StagingTTLMinutes = 60
)

// AllowedMIMETypes is the upload allow-list. Anything else is rejected
// per-file with reason "invalid-type".
var AllowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/csv":        true,
	"text/plain":      true,
	"image/jpeg":      true,
	"image/png":       true,
	"application/zip": true,
	// Some browsers send zips with this legacy type
	"application/x-zip-compressed": true,
}
