package httputil

import (
	"context"
	"net/http"
	"strings"

	"github.com/clinicadm/clinic-api/internal/domain"
	"github.com/google/uuid"
)

// CorrelationIDHeader is echoed on every response and stamped into logs
// and error bodies.
const CorrelationIDHeader = "X-Correlation-Id"

type contextKey string

// Context keys for request-scoped identity and correlation data.
const (
	correlationIDKey contextKey = "correlation_id"
	userIDKey        contextKey = "user_id"
	userEmailKey     contextKey = "user_email"
	roleKey          contextKey = "role"
)

// CORSMiddleware creates CORS middleware that handles preflight requests
// and adds appropriate CORS headers to responses.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	originsSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if originsSet[origin] || originsSet["*"] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+CorrelationIDHeader)
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CorrelationIDMiddleware accepts an inbound X-Correlation-Id or
// generates one, stores it in context and echoes it on the response.
func CorrelationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}

		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := context.WithValue(r.Context(), correlationIDKey, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCorrelationID extracts the correlation id from context.
func GetCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// TokenValidator resolves a bearer token to the user it belongs to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware authenticates requests via bearer token. A missing,
// malformed or expired token and a token whose subject no longer exists
// all collapse to the same 401 response.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				Error(w, r, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				Error(w, r, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			user, err := validator.ValidateToken(r.Context(), parts[1])
			if err != nil {
				Error(w, r, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			ctx = context.WithValue(ctx, userEmailKey, user.Email)
			ctx = context.WithValue(ctx, roleKey, user.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows the request through only when the authenticated
// caller's role is a member of the given set. Authentication always runs
// first; a request without a resolved role is treated as unauthenticated.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value(roleKey).(domain.Role)
			if !ok {
				Error(w, r, http.StatusUnauthorized, "missing or invalid credentials")
				return
			}

			if !allowed[role] {
				Error(w, r, http.StatusForbidden, "you do not have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the authenticated user id from context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// GetUserEmail extracts the authenticated user email from context.
func GetUserEmail(ctx context.Context) string {
	if email, ok := ctx.Value(userEmailKey).(string); ok {
		return email
	}
	return ""
}

// GetRole extracts the authenticated user role from context.
func GetRole(ctx context.Context) domain.Role {
	if role, ok := ctx.Value(roleKey).(domain.Role); ok {
		return role
	}
	return ""
}
