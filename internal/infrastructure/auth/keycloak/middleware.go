package keycloak

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/turtacn/mfa-engine/internal/platform/logging"
	"github.com/turtacn/mfa-engine/pkg/mfaerr"
)

// Context keys
type contextKey string

const (
	ContextKeyClaims contextKey = "auth_claims"
	ContextKeyUserID contextKey = "user_id"
	ContextKeyRoles  contextKey = "user_roles"
)

var (
	ErrMissingAuthHeader = mfaerr.New(mfaerr.CodeUnauthorized, "missing authorization header")
	ErrInvalidAuthFormat = mfaerr.New(mfaerr.CodeUnauthorized, "invalid authorization format")
)

// AuthMiddleware performs the lightweight bearer check fronting the
// gRPC/HTTP surfaces' job-control endpoints (submit/cancel/poll). It is not
// a tenant- or resource-scoped authorization layer — the engine has no
// user/tenant concept of its own; RBACEnforcer (rbac.go) layers coarse
// role gating on top when a route needs more than "some valid principal
// called this".
type AuthMiddleware struct {
	authProvider         AuthProvider
	logger               logging.Logger
	skipPaths            map[string]bool
	skipPrefixes         []string
	requireIntrospection bool
	onAuthFailure        func(w http.ResponseWriter, r *http.Request, err error)
}

// AuthMiddlewareConfig holds configuration for the middleware.
type AuthMiddlewareConfig struct {
	SkipPaths            []string
	SkipPrefixes         []string
	RequireIntrospection bool
}

// NewAuthMiddleware creates a new instance of AuthMiddleware.
func NewAuthMiddleware(provider AuthProvider, logger logging.Logger, cfg AuthMiddlewareConfig) *AuthMiddleware {
	skipPaths := make(map[string]bool)
	for _, p := range cfg.SkipPaths {
		skipPaths[p] = true
	}

	return &AuthMiddleware{
		authProvider:         provider,
		logger:               logger,
		skipPaths:            skipPaths,
		skipPrefixes:         cfg.SkipPrefixes,
		requireIntrospection: cfg.RequireIntrospection,
		onAuthFailure:        defaultAuthFailureHandler,
	}
}

// MiddlewareOption defines functional options for the middleware.
type MiddlewareOption func(*AuthMiddleware)

func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(mw *AuthMiddleware) {
		for _, p := range paths {
			mw.skipPaths[p] = true
		}
	}
}

func WithSkipPrefixes(prefixes ...string) MiddlewareOption {
	return func(mw *AuthMiddleware) {
		mw.skipPrefixes = append(mw.skipPrefixes, prefixes...)
	}
}

func WithIntrospection(enabled bool) MiddlewareOption {
	return func(mw *AuthMiddleware) {
		mw.requireIntrospection = enabled
	}
}

func WithAuthFailureHandler(handler func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(mw *AuthMiddleware) {
		mw.onAuthFailure = handler
	}
}

// Handler returns the HTTP handler for the middleware.
func (mw *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mw.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		for _, prefix := range mw.skipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		token, err := extractBearerToken(r)
		if err != nil {
			mw.handleError(w, r, err)
			return
		}

		ctx := r.Context()
		claims, err := mw.authProvider.VerifyToken(ctx, token)
		if err != nil {
			mw.handleError(w, r, err)
			return
		}

		if mw.requireIntrospection {
			res, err := mw.authProvider.IntrospectToken(ctx, token)
			if err != nil {
				mw.handleError(w, r, ErrTokenIntrospectionFailed.WithCause(err))
				return
			}
			if !res.Active {
				mw.handleError(w, r, ErrTokenExpired)
				return
			}
		}

		ctx = context.WithValue(ctx, ContextKeyClaims, claims)
		ctx = context.WithValue(ctx, ContextKeyUserID, claims.Subject)
		ctx = context.WithValue(ctx, ContextKeyRoles, claims.RealmRoles)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandlerFunc is a convenience wrapper for http.HandlerFunc.
func (mw *AuthMiddleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mw.Handler(next).ServeHTTP(w, r)
	}
}

func (mw *AuthMiddleware) handleError(w http.ResponseWriter, r *http.Request, err error) {
	mw.logger.Warn("authentication failed",
		logging.String("path", r.URL.Path),
		logging.String("remote_addr", r.RemoteAddr),
		logging.Err(err),
	)
	mw.onAuthFailure(w, r, err)
}

func extractBearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidAuthFormat
	}
	return strings.TrimPrefix(auth, "Bearer "), nil
}

func defaultAuthFailureHandler(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")

	code := "UNAUTHORIZED"
	msg := "Authentication required"
	status := http.StatusUnauthorized

	switch {
	case stderrors.Is(err, ErrTokenExpired):
		code, msg = "TOKEN_EXPIRED", "Access token has expired"
	case stderrors.Is(err, ErrTokenInvalidSignature):
		code, msg = "TOKEN_INVALID", "Invalid token signature"
	case stderrors.Is(err, ErrTokenMalformed):
		code, msg = "TOKEN_MALFORMED", "Malformed authorization token"
	case stderrors.Is(err, ErrMissingAuthHeader):
		code, msg = "MISSING_AUTH_HEADER", "Missing authorization header"
	case stderrors.Is(err, ErrTokenIntrospectionFailed):
		code, msg, status = "INTROSPECTION_FAILED", "Token introspection failed", http.StatusInternalServerError
	case mfaerr.IsCode(err, mfaerr.CodeForbidden):
		code, msg, status = "ACCESS_DENIED", "Access denied", http.StatusForbidden
	}

	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": msg,
	})
}

// Context helpers

func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	c, ok := ctx.Value(ContextKeyClaims).(*TokenClaims)
	return c, ok
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserID).(string)
	return v, ok
}

func RolesFromContext(ctx context.Context) ([]string, bool) {
	v, ok := ctx.Value(ContextKeyRoles).([]string)
	return v, ok
}

func HasRole(ctx context.Context, role string) bool {
	roles, ok := RolesFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func HasAnyRole(ctx context.Context, roles ...string) bool {
	userRoles, ok := RolesFromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		for _, ur := range userRoles {
			if r == ur {
				return true
			}
		}
	}
	return false
}
