// Package iam owns authentication and authorization: JWT issuance and
// rotation, the refresh-token allow-list, and the permission graph that maps
// users through groups onto scoped accesses.
package iam

import "errors"

// Typed failures surfaced by the iam services. Services wrap these with
// pkg/domain-errors codes so the HTTP layer can map them to statuses while
// callers keep errors.Is checks.
var (
	// ErrInvalidCredentials covers both unknown username and password
	// mismatch; the two are indistinguishable on purpose.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	ErrMissingBearerToken  = errors.New("bearer token is not provided")
	ErrMalformedToken      = errors.New("incorrect token or token payload")
	ErrAccessTokenExpired  = errors.New("access token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrWrongTokenClass     = errors.New("token presented with wrong class")
	ErrTokenRevoked        = errors.New("refresh token revoked or unknown")
	ErrStaleSubject        = errors.New("token subject no longer exists")
	ErrPermissionDenied    = errors.New("required access rights are missing")
)

// Scope is a named resource domain permissions are granted against.
type Scope string

const (
	ScopeAdminUsers Scope = "admin_users"
	ScopeAdminPosts Scope = "admin_posts"
	ScopeAdminStats Scope = "admin_stats"
)

// Access is the permission kind within a scope.
type Access string

const (
	AccessRead  Access = "read"
	AccessWrite Access = "write"
)

// Group is a user group node in the permission graph.
type Group string

const (
	GroupSuperadmin Group = "superadmin"
	GroupEditor     Group = "editor"
)

// KnownGroup reports whether name is one of the groups this deployment
// seeds. Assignment requests for anything else are rejected at the edge; the
// graph itself would silently no-op on an unknown group.
func KnownGroup(name string) bool {
	switch Group(name) {
	case GroupSuperadmin, GroupEditor:
		return true
	}
	return false
}

// TokenPair is the result of a login or refresh rotation.
type TokenPair struct {
	AccessToken           string `json:"access_token"`
	RefreshToken          string `json:"refresh_token"`
	AccessTokenExpiresAt  int64  `json:"access_token_expires_at"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
	TokenType             string `json:"token_type"`
}
