// Package permissions is the single source of truth for the
// access/training flag rules. Both the ingestion path and any bulk
// edit path normalize through here, so the mutual-exclusion logic
// never forks.
package permissions

import (
	"jacc/internal/domain/models"
)

// Defaults returns the flag set applied to brand-new documents when
// the uploader specifies nothing.
func Defaults() models.PermissionSet {
	return models.PermissionSet{
		ViewAll:       true,
		AdminOnly:     false,
		ManagerAccess: true,
		AgentAccess:   true,
		TrainingData:  true,
		AutoVectorize: true,
	}
}

// Normalize applies a partial flag update on top of the previous
// persisted set and resolves the view_all/admin_only exclusion
// deterministically. It is total and side-effect-free: conflicting
// input is never rejected, the later-winning rule simply overrides.
//
// Rule A: setting view_all=true forces admin_only=false and broadens
// manager/agent access.
// Rule B: setting admin_only=true forces view_all=false and narrows
// manager/agent access.
// Rule C: everything else passes through, which permits partially
// scoped states such as manager-only visibility.
func Normalize(prev models.PermissionSet, patch models.PermissionPatch) models.PermissionSet {
	out := prev

	if patch.ViewAll != nil {
		out.ViewAll = *patch.ViewAll
	}
	if patch.AdminOnly != nil {
		out.AdminOnly = *patch.AdminOnly
	}
	if patch.ManagerAccess != nil {
		out.ManagerAccess = *patch.ManagerAccess
	}
	if patch.AgentAccess != nil {
		out.AgentAccess = *patch.AgentAccess
	}
	if patch.TrainingData != nil {
		out.TrainingData = *patch.TrainingData
	}
	if patch.AutoVectorize != nil {
		out.AutoVectorize = *patch.AutoVectorize
	}

	// Rule A: broadening wins over any stale admin_only state
	if patch.ViewAll != nil && *patch.ViewAll {
		out.AdminOnly = false
		out.ManagerAccess = true
		out.AgentAccess = true
	}

	// Rule B: narrowing to admin-only overrides dependents. Applied
	// second so an update setting both flags resolves to the narrower
	// state.
	if patch.AdminOnly != nil && *patch.AdminOnly {
		out.ViewAll = false
		out.ManagerAccess = false
		out.AgentAccess = false
	}

	return out
}

// AllowsRole reports whether a document with this permission set is
// readable by the given role tier. Admins read everything; managers
// and agents are gated by their tier flag or view_all.
func AllowsRole(set models.PermissionSet, role models.Role) bool {
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleManager:
		return !set.AdminOnly && (set.ViewAll || set.ManagerAccess)
	case models.RoleAgent:
		return !set.AdminOnly && (set.ViewAll || set.AgentAccess)
	}
	return false
}
