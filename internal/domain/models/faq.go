package models

import (
	"time"
)

// FAQEntry is an admin-authored curated Q&A pair, the highest-trust
// retrieval tier. Entries are upsert-keyed by (question, category) so
// repeated promotions of the same question update rather than
// duplicate.
type FAQEntry struct {
	ID        string    `json:"id" db:"id"`
	Question  string    `json:"question" db:"question"`
	Answer    string    `json:"answer" db:"answer"`
	Category  string    `json:"category" db:"category"`
	Tags      []string  `json:"tags" db:"tags"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	Priority  int       `json:"priority" db:"priority"` // 0-10, higher wins ties
	CreatedBy string    `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
