// Package gate provides a Gate/Policy authorization checkpoint.
// The Gate is a central registry of policies; each Policy defines the
// authorization rules for one resource type. The package knows nothing about
// domain models: the subject type is generic and resources are passed as any.
package gate

import "context"

// Gate is the central authorization checkpoint.
// U is the subject type and must be comparable so that a zero value can be
// rejected outright (an unresolved actor is never authorized).
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a given resource type (e.g., "invoice").
// Overwrites any existing policy for that type.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize checks authorization and returns an error if denied.
// Returns ErrUnauthorized for a zero-value subject or a denied action;
// returns ErrNoPolicyDefined if resourceType has no registered policy.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, resource any) error {
	var zero U
	if subject == zero {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, subject, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}
