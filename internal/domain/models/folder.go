package models

import (
	"time"
)

// Folder groups documents. Routing metadata lets ingestion auto-route
// content when no explicit target folder is given: folders matching
// the upload's category compete, higher Priority winning ties.
type Folder struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	ParentID       *string   `json:"parent_id,omitempty" db:"parent_id"`
	RouteNamespace string    `json:"route_namespace,omitempty" db:"route_namespace"`
	RouteCategory  string    `json:"route_category,omitempty" db:"route_category"`
	Priority       int       `json:"priority" db:"priority"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
