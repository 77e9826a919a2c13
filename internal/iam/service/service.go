// Package service orchestrates the auth flows: credential login, refresh
// token rotation, access token authorization, and permission checks against
// the graph.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"inkwell/internal/audit"
	"inkwell/internal/iam"
	"inkwell/internal/iam/graph"
	"inkwell/internal/iam/store/refreshtoken"
	"inkwell/internal/iam/token"
	"inkwell/internal/platform/metrics"
	"inkwell/internal/platform/middleware"
	"inkwell/internal/user/models"
	dErrors "inkwell/pkg/domain-errors"
	"inkwell/pkg/platform/sentinel"
)

// CredentialStore is the slice of the user store the auth flows need.
type CredentialStore interface {
	Credentials(ctx context.Context, username string) (models.Credentials, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service implements the token lifecycle and authorization decisions.
type Service struct {
	codec   *token.Codec
	users   CredentialStore
	refresh refreshtoken.Store
	graph   graph.Engine
	audit   audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewService(
	codec *token.Codec,
	users CredentialStore,
	refresh refreshtoken.Store,
	graphEngine graph.Engine,
	auditor audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		codec:   codec,
		users:   users,
		refresh: refresh,
		graph:   graphEngine,
		audit:   auditor,
		metrics: m,
		logger:  logger,
		tracer:  otel.Tracer("inkwell/iam"),
	}
}

// Login exchanges credentials for a token pair. Unknown username and wrong
// password produce the same error so the endpoint does not leak which
// usernames exist.
func (s *Service) Login(ctx context.Context, username, password, userAgent string) (iam.TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "iam.Login")
	defer span.End()

	creds, err := s.users.Credentials(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.Logins.WithLabelValues("failure").Inc()
			return iam.TokenPair{}, dErrors.Wrap(iam.ErrInvalidCredentials, dErrors.CodeBadRequest, iam.ErrInvalidCredentials.Error())
		}
		return iam.TokenPair{}, fmt.Errorf("fetch credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)) != nil {
		s.metrics.Logins.WithLabelValues("failure").Inc()
		return iam.TokenPair{}, dErrors.Wrap(iam.ErrInvalidCredentials, dErrors.CodeBadRequest, iam.ErrInvalidCredentials.Error())
	}

	pair, refreshToken, err := s.issuePair(creds.ID)
	if err != nil {
		return iam.TokenPair{}, err
	}
	if err := s.refresh.Add(ctx, creds.ID, refreshToken); err != nil {
		return iam.TokenPair{}, fmt.Errorf("register refresh token: %w", err)
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int64("user.id", creds.ID))
	s.audit.Publish(ctx, audit.Event{
		Time:      time.Now().UTC(),
		Action:    audit.ActionLogin,
		UserID:    creds.ID,
		RequestID: middleware.GetRequestID(ctx),
	}.WithUserAgent(userAgent))
	s.logger.InfoContext(ctx, "login succeeded", "user_id", creds.ID)

	return pair, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. A token outside the allow-list, including one already spent
// by a concurrent rotation, is treated as revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (iam.TokenPair, error) {
	ctx, span := s.tracer.Start(ctx, "iam.Refresh")
	defer span.End()

	payload, err := s.codec.Decode(refreshToken, true)
	if err != nil {
		s.metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return iam.TokenPair{}, wrapTokenError(err)
	}

	exists, err := s.users.Exists(ctx, payload.Subject)
	if err != nil {
		return iam.TokenPair{}, fmt.Errorf("check subject: %w", err)
	}
	if !exists {
		s.metrics.TokenRefreshes.WithLabelValues("rejected").Inc()
		return iam.TokenPair{}, dErrors.Wrap(iam.ErrStaleSubject, dErrors.CodeUnprocessable, iam.ErrStaleSubject.Error())
	}

	member, err := s.refresh.Contains(ctx, payload.Subject, refreshToken)
	if err != nil {
		return iam.TokenPair{}, fmt.Errorf("check refresh token: %w", err)
	}
	if !member {
		s.metrics.TokenRefreshes.WithLabelValues("revoked").Inc()
		return iam.TokenPair{}, dErrors.Wrap(iam.ErrTokenRevoked, dErrors.CodeForbidden, iam.ErrTokenRevoked.Error())
	}

	pair, newRefresh, err := s.issuePair(payload.Subject)
	if err != nil {
		return iam.TokenPair{}, err
	}

	if err := s.refresh.Rotate(ctx, payload.Subject, refreshToken, newRefresh); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.TokenRefreshes.WithLabelValues("revoked").Inc()
			return iam.TokenPair{}, dErrors.Wrap(iam.ErrTokenRevoked, dErrors.CodeForbidden, iam.ErrTokenRevoked.Error())
		}
		return iam.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	s.metrics.TokenRefreshes.WithLabelValues("success").Inc()
	span.SetAttributes(attribute.Int64("user.id", payload.Subject))
	s.audit.Publish(ctx, audit.Event{
		Time:      time.Now().UTC(),
		Action:    audit.ActionTokenRefresh,
		UserID:    payload.Subject,
		RequestID: middleware.GetRequestID(ctx),
	})

	return pair, nil
}

// Authorize verifies an access token and resolves it to a live user id.
func (s *Service) Authorize(ctx context.Context, accessToken string) (int64, error) {
	payload, err := s.codec.Decode(accessToken, false)
	if err != nil {
		return 0, wrapTokenError(err)
	}

	exists, err := s.users.Exists(ctx, payload.Subject)
	if err != nil {
		return 0, fmt.Errorf("check subject: %w", err)
	}
	if !exists {
		return 0, dErrors.Wrap(iam.ErrStaleSubject, dErrors.CodeUnprocessable, iam.ErrStaleSubject.Error())
	}

	return payload.Subject, nil
}

// IsGranted answers a permission query without failing the request.
func (s *Service) IsGranted(ctx context.Context, userID int64, scope iam.Scope, access iam.Access) (bool, error) {
	granted, err := s.graph.IsGranted(ctx, userID, scope, access)
	if err != nil {
		return false, fmt.Errorf("permission check: %w", err)
	}
	if granted {
		s.metrics.PermissionChecks.WithLabelValues("granted").Inc()
	} else {
		s.metrics.PermissionChecks.WithLabelValues("denied").Inc()
	}
	return granted, nil
}

// RequirePermission fails with a typed error unless the graph grants the
// access on the scope.
func (s *Service) RequirePermission(ctx context.Context, userID int64, scope iam.Scope, access iam.Access) error {
	granted, err := s.IsGranted(ctx, userID, scope, access)
	if err != nil {
		return err
	}
	if !granted {
		s.logger.InfoContext(ctx, "permission denied",
			"user_id", userID, "scope", string(scope), "access", string(access))
		return dErrors.Wrap(iam.ErrPermissionDenied, dErrors.CodeUnprocessable, iam.ErrPermissionDenied.Error())
	}
	return nil
}

// AssignGroup links the user to a seeded group. Unknown group names are
// rejected here; the graph layer would otherwise drop them silently.
func (s *Service) AssignGroup(ctx context.Context, userID int64, group string) error {
	if !iam.KnownGroup(group) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown group %q", group))
	}
	if err := s.graph.AssignGroup(ctx, userID, group); err != nil {
		return fmt.Errorf("assign group: %w", err)
	}
	s.audit.Publish(ctx, audit.Event{
		Time:      time.Now().UTC(),
		Action:    audit.ActionGroupAssigned,
		UserID:    userID,
		RequestID: middleware.GetRequestID(ctx),
		Group:     group,
	})
	return nil
}

// UnassignGroup severs the user's membership edge. No-op when absent.
func (s *Service) UnassignGroup(ctx context.Context, userID int64, group string) error {
	if !iam.KnownGroup(group) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown group %q", group))
	}
	if err := s.graph.UnassignGroup(ctx, userID, group); err != nil {
		return fmt.Errorf("unassign group: %w", err)
	}
	s.audit.Publish(ctx, audit.Event{
		Time:      time.Now().UTC(),
		Action:    audit.ActionGroupUnassigned,
		UserID:    userID,
		RequestID: middleware.GetRequestID(ctx),
		Group:     group,
	})
	return nil
}

// ListGroups returns the names of the user's groups, sorted.
func (s *Service) ListGroups(ctx context.Context, userID int64) ([]string, error) {
	groups, err := s.graph.ListGroups(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *Service) issuePair(userID int64) (iam.TokenPair, string, error) {
	access, accessExp, err := s.codec.Generate(userID, false)
	if err != nil {
		return iam.TokenPair{}, "", fmt.Errorf("issue access token: %w", err)
	}
	refresh, refreshExp, err := s.codec.Generate(userID, true)
	if err != nil {
		return iam.TokenPair{}, "", fmt.Errorf("issue refresh token: %w", err)
	}
	return iam.TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  accessExp.Unix(),
		RefreshTokenExpiresAt: refreshExp.Unix(),
		TokenType:             "bearer",
	}, refresh, nil
}

// wrapTokenError attaches the HTTP-facing code to a codec failure. Expired or
// malformed content on an otherwise well-formed request is forbidden, not
// unauthorized; 401 is reserved for requests missing the bearer entirely.
func wrapTokenError(err error) error {
	switch {
	case errors.Is(err, iam.ErrAccessTokenExpired),
		errors.Is(err, iam.ErrRefreshTokenExpired),
		errors.Is(err, iam.ErrWrongTokenClass),
		errors.Is(err, iam.ErrMalformedToken):
		return dErrors.Wrap(err, dErrors.CodeForbidden, err.Error())
	default:
		return err
	}
}
