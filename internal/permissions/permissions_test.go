package permissions

import (
	"testing"

	"jacc/internal/domain/models"
)

func boolPtr(b bool) *bool { return &b }

func TestNormalize_ViewAllForcesBroadAccess(t *testing.T) {
	prev := models.PermissionSet{
		AdminOnly: true,
	}

	got := Normalize(prev, models.PermissionPatch{ViewAll: boolPtr(true)})

	if !got.ViewAll {
		t.Error("view_all should be set")
	}
	if got.AdminOnly {
		t.Error("view_all=true must force admin_only=false")
	}
	if !got.ManagerAccess || !got.AgentAccess {
		t.Error("view_all=true must broaden manager and agent access")
	}
}

func TestNormalize_AdminOnlyForcesNarrowAccess(t *testing.T) {
	prev := Defaults()

	got := Normalize(prev, models.PermissionPatch{AdminOnly: boolPtr(true)})

	if !got.AdminOnly {
		t.Error("admin_only should be set")
	}
	if got.ViewAll {
		t.Error("admin_only=true must force view_all=false")
	}
	if got.ManagerAccess || got.AgentAccess {
		t.Error("admin_only=true must narrow manager and agent access")
	}
	// Orthogonal flags untouched
	if !got.TrainingData || !got.AutoVectorize {
		t.Error("training/vectorize flags must pass through")
	}
}

func TestNormalize_PartialScopesPassThrough(t *testing.T) {
	prev := Defaults()

	// Manager-only visibility: no rule fires, flags pass through
	got := Normalize(prev, models.PermissionPatch{
		ViewAll:     boolPtr(false),
		AgentAccess: boolPtr(false),
	})

	if got.ViewAll {
		t.Error("view_all should be cleared")
	}
	if !got.ManagerAccess {
		t.Error("manager access should survive untouched")
	}
	if got.AgentAccess {
		t.Error("agent access should be cleared")
	}
	if got.AdminOnly {
		t.Error("admin_only should not appear from nowhere")
	}
}

func TestNormalize_AbsentFlagsKeepPreviousValues(t *testing.T) {
	prev := models.PermissionSet{
		ManagerAccess: true,
		TrainingData:  true,
	}

	got := Normalize(prev, models.PermissionPatch{AutoVectorize: boolPtr(true)})

	if !got.ManagerAccess || !got.TrainingData {
		t.Error("absent patch fields must keep persisted values")
	}
	if !got.AutoVectorize {
		t.Error("patched field must apply")
	}
}

func TestNormalize_BothFlagsSetResolvesToNarrower(t *testing.T) {
	got := Normalize(Defaults(), models.PermissionPatch{
		ViewAll:   boolPtr(true),
		AdminOnly: boolPtr(true),
	})

	if got.ViewAll || !got.AdminOnly {
		t.Errorf("conflicting update should resolve to admin-only, got %+v", got)
	}
	if got.ManagerAccess || got.AgentAccess {
		t.Error("dependents must match the narrowed state")
	}
}

func TestAllowsRole(t *testing.T) {
	tests := []struct {
		name string
		set  models.PermissionSet
		role models.Role
		want bool
	}{
		{"admin reads admin-only", models.PermissionSet{AdminOnly: true}, models.RoleAdmin, true},
		{"manager blocked by admin-only", models.PermissionSet{AdminOnly: true}, models.RoleManager, false},
		{"agent blocked by admin-only", models.PermissionSet{AdminOnly: true}, models.RoleAgent, false},
		{"agent reads view-all", models.PermissionSet{ViewAll: true}, models.RoleAgent, true},
		{"manager-only scope", models.PermissionSet{ManagerAccess: true}, models.RoleManager, true},
		{"agent blocked by manager-only scope", models.PermissionSet{ManagerAccess: true}, models.RoleAgent, false},
		{"unknown role denied", models.PermissionSet{ViewAll: true}, models.Role("viewer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllowsRole(tt.set, tt.role); got != tt.want {
				t.Errorf("AllowsRole(%+v, %s) = %v, want %v", tt.set, tt.role, got, tt.want)
			}
		})
	}
}
