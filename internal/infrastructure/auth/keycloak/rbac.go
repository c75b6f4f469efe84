package keycloak

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Permission represents a fine-grained operation permission on the
// analysis surface. The engine has no tenant concept (config.AuthGateConfig
// doc comment); permissions gate capability, not ownership.
type Permission string

const (
	PermRunCreate      Permission = "run:create"
	PermRunRead        Permission = "run:read"
	PermRunCancel      Permission = "run:cancel"
	PermRunExport      Permission = "run:export"
	PermEssentiality   Permission = "essentiality:run"
	PermGapFill        Permission = "gapfill:run"
	PermModelWrite     Permission = "model:write"
	PermModelRead      Permission = "model:read"
	PermSystemMonitor  Permission = "system:monitor"
	PermSystemConfig   Permission = "system:config"
)

// Role represents a coarse platform role.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleAnalyst  Role = "analyst"
	RoleViewer   Role = "viewer"
	RoleAPIUser  Role = "api_user"
)

// RolePermissionMapping maps roles to permissions.
type RolePermissionMapping map[Role][]Permission

// RBACEnforcer is the interface for RBAC enforcement.
type RBACEnforcer interface {
	HasPermission(ctx context.Context, permission Permission) bool
	HasAllPermissions(ctx context.Context, permissions ...Permission) bool
	HasAnyPermission(ctx context.Context, permissions ...Permission) bool
	HasRole(ctx context.Context, role Role) bool
	GetPermissions(ctx context.Context) []Permission
	GetRoles(ctx context.Context) []Role
	EnforcePermission(ctx context.Context, permission Permission) error
	UpdateMapping(mapping RolePermissionMapping)
}

type rbacEnforcer struct {
	rolePermissions RolePermissionMapping
	logger          logging.Logger
	mu              sync.RWMutex
}

// NewRBACEnforcer creates a new RBACEnforcer.
func NewRBACEnforcer(mapping RolePermissionMapping, logger logging.Logger) RBACEnforcer {
	if mapping == nil {
		mapping = DefaultRolePermissionMapping()
	}
	return &rbacEnforcer{
		rolePermissions: mapping,
		logger:          logger,
	}
}

// DefaultRolePermissionMapping returns the default role-permission mapping.
func DefaultRolePermissionMapping() RolePermissionMapping {
	allPerms := []Permission{
		PermRunCreate, PermRunRead, PermRunCancel, PermRunExport,
		PermEssentiality, PermGapFill,
		PermModelWrite, PermModelRead,
		PermSystemMonitor, PermSystemConfig,
	}

	return RolePermissionMapping{
		RoleAdmin: allPerms,
		RoleOperator: []Permission{
			PermRunRead, PermRunCancel,
			PermModelRead,
			PermSystemMonitor, PermSystemConfig,
		},
		RoleAnalyst: []Permission{
			PermRunCreate, PermRunRead, PermRunCancel, PermRunExport,
			PermEssentiality, PermGapFill,
			PermModelWrite, PermModelRead,
		},
		RoleViewer: []Permission{
			PermRunRead, PermModelRead,
		},
		RoleAPIUser: []Permission{
			PermRunCreate, PermRunRead, PermModelRead,
		},
	}
}

func (e *rbacEnforcer) UpdateMapping(mapping RolePermissionMapping) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rolePermissions = mapping
}

func (e *rbacEnforcer) getPermissionsForRole(role Role) []Permission {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rolePermissions[role]
}

func (e *rbacEnforcer) GetRoles(ctx context.Context) []Role {
	userRoles, ok := RolesFromContext(ctx)
	if !ok {
		return nil
	}
	var roles []Role
	for _, r := range userRoles {
		roles = append(roles, Role(r))
	}
	return roles
}

func (e *rbacEnforcer) GetPermissions(ctx context.Context) []Permission {
	roles := e.GetRoles(ctx)
	if len(roles) == 0 {
		return nil
	}

	permMap := make(map[Permission]bool)
	for _, role := range roles {
		for _, p := range e.getPermissionsForRole(role) {
			permMap[p] = true
		}
	}

	var perms []Permission
	for p := range permMap {
		perms = append(perms, p)
	}
	return perms
}

func (e *rbacEnforcer) HasPermission(ctx context.Context, permission Permission) bool {
	if e.HasRole(ctx, RoleAdmin) {
		return true
	}
	for _, p := range e.GetPermissions(ctx) {
		if p == permission {
			return true
		}
	}
	return false
}

func (e *rbacEnforcer) HasAllPermissions(ctx context.Context, permissions ...Permission) bool {
	if len(permissions) == 0 {
		return true
	}
	if e.HasRole(ctx, RoleAdmin) {
		return true
	}
	userPerms := make(map[Permission]bool)
	for _, p := range e.GetPermissions(ctx) {
		userPerms[p] = true
	}
	for _, p := range permissions {
		if !userPerms[p] {
			return false
		}
	}
	return true
}

func (e *rbacEnforcer) HasAnyPermission(ctx context.Context, permissions ...Permission) bool {
	if len(permissions) == 0 {
		return false
	}
	if e.HasRole(ctx, RoleAdmin) {
		return true
	}
	userPerms := make(map[Permission]bool)
	for _, p := range e.GetPermissions(ctx) {
		userPerms[p] = true
	}
	for _, p := range permissions {
		if userPerms[p] {
			return true
		}
	}
	return false
}

func (e *rbacEnforcer) HasRole(ctx context.Context, role Role) bool {
	for _, r := range e.GetRoles(ctx) {
		if r == role {
			return true
		}
	}
	return false
}

func (e *rbacEnforcer) EnforcePermission(ctx context.Context, permission Permission) error {
	if !e.HasPermission(ctx, permission) {
		return ErrAccessDenied
	}
	return nil
}

var ErrAccessDenied = mfaerr.New(mfaerr.CodeForbidden, "access denied")

// Middleware factories

func RequirePermission(enforcer RBACEnforcer, permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := enforcer.EnforcePermission(r.Context(), permission); err != nil {
				handleRBACError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAnyPermission(enforcer RBACEnforcer, permissions ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enforcer.HasAnyPermission(r.Context(), permissions...) {
				handleRBACError(w, ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireRole(enforcer RBACEnforcer, role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enforcer.HasRole(r.Context(), role) {
				handleRBACError(w, ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleRBACError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    "FORBIDDEN",
		"message": err.Error(),
	})
}
