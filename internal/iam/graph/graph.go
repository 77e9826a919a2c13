// Package graph evaluates authorization against the permission graph:
// USER nodes RELATE to USERGROUP nodes, which ALLOW accesses on SCOPE nodes.
// A user's effective permissions are the union of ALLOWS edges reachable
// through any group the user relates to.
package graph

import (
	"context"

	"inkwell/internal/iam"
)

// Engine answers membership and authorization queries.
type Engine interface {
	// IsGranted reports whether a USER-RELATES-USERGROUP-ALLOWS-SCOPE path
	// exists. Missing nodes or edges yield false, never an error.
	IsGranted(ctx context.Context, userID int64, scope iam.Scope, access iam.Access) (bool, error)
	// ListGroups returns the names of all groups the user relates to, sorted.
	// Unknown users get an empty slice.
	ListGroups(ctx context.Context, userID int64) ([]string, error)
	// AssignGroup upserts the USER node and its RELATES edge to the named
	// group. The group must pre-exist; assigning to an unknown group is a
	// silent no-op. Idempotent.
	AssignGroup(ctx context.Context, userID int64, group string) error
	// UnassignGroup deletes the RELATES edge if present; no-op otherwise.
	UnassignGroup(ctx context.Context, userID int64, group string) error
}

// Seeder loads the static part of the graph: groups, scopes, and the ALLOWS
// edges between them. Runtime code never mutates these.
type Seeder interface {
	EnsureGroup(ctx context.Context, name string) error
	EnsureScope(ctx context.Context, name string) error
	EnsureAllow(ctx context.Context, group, scope, access string) error
}
