package policy

import (
	"context"

	"github.com/diewo77/invoice-manager/internal/gate"
	"github.com/diewo77/invoice-manager/internal/models"
)

// Ownable is an interface for resources that have an owner.
// Implement this on models to enable ownership-based authorization.
type Ownable interface {
	GetUserID() uint
}

// OwnershipPolicy authorizes an actor on resources they own.
// Works with any model that implements the Ownable interface.
type OwnershipPolicy struct{}

// NewOwnershipPolicy creates a new ownership policy.
func NewOwnershipPolicy() *OwnershipPolicy {
	return &OwnershipPolicy{}
}

// Can checks if the actor owns the resource.
// For list/create actions (resource is nil) it returns true: those queries
// are owner-scoped by the query service itself.
func (p *OwnershipPolicy) Can(_ context.Context, actor models.Actor, _ gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	ownable, ok := resource.(Ownable)
	if !ok {
		// Deny resources without an ownership check rather than
		// accidentally exposing them.
		return false
	}
	return ownable.GetUserID() == actor.ID
}

// AdminBypassPolicy wraps another policy and always allows admins through.
type AdminBypassPolicy struct {
	inner gate.Policy[models.Actor]
}

// NewAdminBypassPolicy creates a policy that bypasses the inner check for admins.
func NewAdminBypassPolicy(inner gate.Policy[models.Actor]) *AdminBypassPolicy {
	return &AdminBypassPolicy{inner: inner}
}

// Can checks if the actor is admin (bypass) or falls back to the inner policy.
func (p *AdminBypassPolicy) Can(ctx context.Context, actor models.Actor, action gate.Action, resource any) bool {
	if actor.IsAdmin() {
		return true
	}
	return p.inner.Can(ctx, actor, action, resource)
}

// AdminOnlyPolicy authorizes admins and nobody else, regardless of resource.
// Used for the user-management surface.
type AdminOnlyPolicy struct{}

// NewAdminOnlyPolicy creates a new admin-only policy.
func NewAdminOnlyPolicy() *AdminOnlyPolicy {
	return &AdminOnlyPolicy{}
}

// Can returns true only for admin actors.
func (p *AdminOnlyPolicy) Can(_ context.Context, actor models.Actor, _ gate.Action, _ any) bool {
	return actor.IsAdmin()
}
