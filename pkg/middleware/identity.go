package middleware

import (
	"net/http"
	"strings"

	"cleaning-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Headers set by the upstream auth proxy. The service trusts them as is.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRole  = "X-User-Role"
)

// Identity puts the proxy-supplied actor on the request context.
func Identity(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := strings.TrimSpace(r.Header.Get(HeaderUserID))
			if rawID == "" {
				utils.ResponseUnauthorized(w, "Missing user identity")
				return
			}

			userID, err := uuid.Parse(rawID)
			if err != nil {
				logger.Warn("Invalid user identity header",
					zap.String("user_id", rawID),
					zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid user identity")
				return
			}

			role := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole)))
			switch role {
			case "":
				role = utils.RoleCustomer
			case utils.RoleCustomer, utils.RoleCleaner, utils.RoleAdmin:
			default:
				logger.Warn("Unknown role header",
					zap.String("user_id", rawID),
					zap.String("role", role))
				utils.ResponseForbidden(w, "Unknown role")
				return
			}

			ctx := utils.SetActorContext(r.Context(), utils.Actor{
				UserID: userID,
				Email:  strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
				Role:   role,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through actors holding one of roles. Admins always pass.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := utils.GetActorFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if actor.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("Role check: access denied",
				zap.String("user_id", actor.UserID.String()),
				zap.String("role", actor.Role),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "Access denied")
		})
	}
}
