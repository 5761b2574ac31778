package auth

import (
	"github.com/frahmantamala/access-management/internal/permission"
)

// PermissionChecker evaluates claim-derived permission sets. The same
// evaluator backs the HTTP policy middleware and direct programmatic checks.
type PermissionChecker interface {
	HasPermission(userPermissions []string, required string) bool
	HasAnyPermission(userPermissions []string, required []string) bool
	HasResourceAction(userPermissions []string, resource string, action permission.Action) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(userPermissions []string, required string) bool {
	for _, p := range userPermissions {
		if p == required {
			return true
		}
	}
	return false
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, required []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range required {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) HasResourceAction(userPermissions []string, resource string, action permission.Action) bool {
	return c.HasPermission(userPermissions, permission.FullPermission(resource, action))
}
