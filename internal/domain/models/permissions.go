package models

// Role is the resolved access tier of a requester. Resolution happens
// at the auth boundary; the knowledge pipeline only ever sees the
// string, never the session that produced it.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
)

// Valid reports whether r is one of the three known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent:
		return true
	}
	return false
}

// PermissionSet holds the six independent access/training flags on a
// document. ViewAll and AdminOnly are semantically exclusive; the
// permissions package resolves conflicts deterministically.
type PermissionSet struct {
	ViewAll       bool `json:"view_all" db:"view_all"`
	AdminOnly     bool `json:"admin_only" db:"admin_only"`
	ManagerAccess bool `json:"manager_access" db:"manager_access"`
	AgentAccess   bool `json:"agent_access" db:"agent_access"`
	TrainingData  bool `json:"training_data" db:"training_data"`
	AutoVectorize bool `json:"auto_vectorize" db:"auto_vectorize"`
}

// PermissionPatch is a partial update to a PermissionSet. Nil fields
// keep the previous persisted value.
type PermissionPatch struct {
	ViewAll       *bool `json:"view_all,omitempty"`
	AdminOnly     *bool `json:"admin_only,omitempty"`
	ManagerAccess *bool `json:"manager_access,omitempty"`
	AgentAccess   *bool `json:"agent_access,omitempty"`
	TrainingData  *bool `json:"training_data,omitempty"`
	AutoVectorize *bool `json:"auto_vectorize,omitempty"`
}
