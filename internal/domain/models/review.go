package models

import (
	"time"
)

// ReviewStatus is the per-chat review state. Transitions are
// re-enterable: an approved chat can later move to needs_correction.
type ReviewStatus string

const (
	ReviewPending         ReviewStatus = "pending"
	ReviewApproved        ReviewStatus = "approved"
	ReviewNeedsCorrection ReviewStatus = "needs_correction"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewNeedsCorrection:
		return true
	}
	return false
}

// ChatReview is the single review record for a chat transcript.
// CorrectionsMade and TotalMessages are snapshots taken at review
// time, not live counts, so historical review context survives later
// edits to the chat.
type ChatReview struct {
	ChatID          string       `json:"chat_id" db:"chat_id"`
	Status          ReviewStatus `json:"status" db:"status"`
	Notes           string       `json:"notes" db:"notes"`
	ReviewedBy      string       `json:"reviewed_by" db:"reviewed_by"`
	CorrectionsMade int          `json:"corrections_made" db:"corrections_made"`
	TotalMessages   int          `json:"total_messages" db:"total_messages"`
	LastReviewedAt  time.Time    `json:"last_reviewed_at" db:"last_reviewed_at"`
}

// MessageCorrection is an admin-authored replacement for a specific
// assistant message. Corrections are promotable into curated Q&A.
type MessageCorrection struct {
	ID               string    `json:"id" db:"id"`
	ChatID           string    `json:"chat_id" db:"chat_id"`
	MessageID        string    `json:"message_id" db:"message_id"`
	CorrectedContent string    `json:"corrected_content" db:"corrected_content"`
	CreatedBy        string    `json:"created_by" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

// ChatMessage is the read-path view of a transcript message consumed
// by the review loop. Chat creation itself is owned by the chat
// component, not this core.
type ChatMessage struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	Role      string    `json:"role" db:"role"` // "user" or "assistant"
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ReviewStats is an on-demand projection over review records and
// corrections for operator dashboards.
type ReviewStats struct {
	Pending          int `json:"pending"`
	Approved         int `json:"approved"`
	NeedsCorrection  int `json:"needs_correction"`
	TotalCorrections int `json:"total_corrections"`
}
