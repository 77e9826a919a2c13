package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"inkwell/internal/iam"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/platform/httputil"
)

// Authorizer resolves a bearer access token to a live user id.
type Authorizer interface {
	Authorize(ctx context.Context, accessToken string) (int64, error)
}

// PermissionChecker decides whether a user holds an access on a scope.
type PermissionChecker interface {
	RequirePermission(ctx context.Context, userID int64, scope iam.Scope, access iam.Access) error
}

type contextKeySubject struct{}

// ContextKeySubject is exported for use in handlers.
var ContextKeySubject = contextKeySubject{}

// GetSubjectID retrieves the authenticated user id from the context.
func GetSubjectID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ContextKeySubject).(int64)
	return id, ok
}

// BearerToken extracts the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth verifies the bearer access token and stores the subject id in
// the request context. A request without a bearer header gets 401; a request
// whose token fails verification gets whatever status the authorizer's error
// carries.
func RequireAuth(auth Authorizer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing bearer token",
					"request_id", GetRequestID(ctx))
				httputil.WriteError(w, dErrors.Wrap(iam.ErrMissingBearerToken, dErrors.CodeUnauthorized, iam.ErrMissingBearerToken.Error()))
				return
			}

			userID, err := auth.Authorize(ctx, token)
			if err != nil {
				if dErrors.CodeOf(err) == dErrors.CodeInternal {
					logger.ErrorContext(ctx, "authorize failed",
						"request_id", GetRequestID(ctx), "error", err.Error())
				}
				httputil.WriteError(w, err)
				return
			}

			ctx = context.WithValue(ctx, ContextKeySubject, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission gates a route on the permission graph. Must run inside
// RequireAuth.
func RequirePermission(checker PermissionChecker, scope iam.Scope, access iam.Access, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, ok := GetSubjectID(ctx)
			if !ok {
				logger.ErrorContext(ctx, "subject missing from context despite auth middleware",
					"request_id", GetRequestID(ctx))
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
				return
			}

			if err := checker.RequirePermission(ctx, userID, scope, access); err != nil {
				if dErrors.CodeOf(err) == dErrors.CodeInternal {
					logger.ErrorContext(ctx, "permission check failed",
						"request_id", GetRequestID(ctx), "error", err.Error())
				}
				httputil.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
