package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flock-suite/flock-sdk/pkg/configuration"
)

// ScopeResolver decides whether a target org unit falls within at least
// one assignment's granted scope. Evaluation is a logical OR over the
// assignments, so order never affects the result.
type ScopeResolver struct {
	hierarchy HierarchyStore

	// subtreeIncludesRoot widens subtree scope to cover the assigned
	// unit itself. Historically subtree grants reached strict
	// descendants only. Defaults to AUTHZ_SUBTREE_INCLUDES_ROOT, the
	// same setting the row-filter SQL is generated from, so both
	// enforcement paths hold the same policy in any one deployment.
	subtreeIncludesRoot bool
}

type ScopeResolverOption func(*ScopeResolver)

func WithSubtreeIncludesRoot(include bool) ScopeResolverOption {
	return func(r *ScopeResolver) {
		r.subtreeIncludesRoot = include
	}
}

func NewScopeResolver(hierarchy HierarchyStore, opts ...ScopeResolverOption) *ScopeResolver {
	r := &ScopeResolver{
		hierarchy:           hierarchy,
		subtreeIncludesRoot: configuration.Use().SubtreeIncludesRoot,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasAccess reports whether any assignment covers the target org unit.
// Absence grants nothing: zero assignments always yields false.
func (r *ScopeResolver) HasAccess(ctx context.Context, assignments []Assignment, targetID uuid.UUID) (bool, error) {
	for _, assignment := range assignments {
		ok, err := r.covers(ctx, assignment, targetID)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (r *ScopeResolver) covers(ctx context.Context, assignment Assignment, targetID uuid.UUID) (bool, error) {
	switch assignment.Scope {
	case ScopeSelf:
		return assignment.OrgUnitID == targetID, nil
	case ScopeSubtree:
		if r.subtreeIncludesRoot && assignment.OrgUnitID == targetID {
			return true, nil
		}
		return r.hierarchy.IsDescendant(ctx, targetID, assignment.OrgUnitID)
	case ScopeCustomSet:
		for _, unitID := range assignment.CustomUnits {
			if unitID == targetID {
				return true, nil
			}
		}
		return false, nil
	default:
		// A tag outside the closed set means the row was written by a
		// newer schema or corrupted; refuse to guess.
		return false, fmt.Errorf("assignment %s: unhandled scope type %s", assignment.ID, assignment.Scope)
	}
}
