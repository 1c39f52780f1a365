package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"cleaning-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func captureActor(got *utils.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got, _ = utils.GetActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestIdentity_SetsActor(t *testing.T) {
	var got utils.Actor
	id := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, id.String())
	req.Header.Set(HeaderUserEmail, " thandi@example.com ")
	req.Header.Set(HeaderUserRole, "Cleaner")
	rec := httptest.NewRecorder()

	Identity(zap.NewNop())(captureActor(&got)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, got.UserID)
	assert.Equal(t, "thandi@example.com", got.Email)
	assert.Equal(t, utils.RoleCleaner, got.Role)
}

func TestIdentity_DefaultsToCustomer(t *testing.T) {
	var got utils.Actor
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, uuid.NewString())
	rec := httptest.NewRecorder()

	Identity(zap.NewNop())(captureActor(&got)).ServeHTTP(rec, req)

	assert.Equal(t, utils.RoleCustomer, got.Role)
}

func TestIdentity_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		role   string
		code   int
	}{
		{"missing id", "", "", http.StatusUnauthorized},
		{"malformed id", "user-42", "", http.StatusUnauthorized},
		{"unknown role", uuid.NewString(), "superuser", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderUserID, tt.userID)
			req.Header.Set(HeaderUserRole, tt.role)
			rec := httptest.NewRecorder()

			called := false
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
			Identity(zap.NewNop())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.False(t, called)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		role string
		code int
	}{
		{"matching role", utils.RoleCleaner, http.StatusNoContent},
		{"admin always passes", utils.RoleAdmin, http.StatusNoContent},
		{"other role", utils.RoleCustomer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(utils.SetActorContext(req.Context(), utils.Actor{UserID: uuid.New(), Role: tt.role}))
			rec := httptest.NewRecorder()

			var got utils.Actor
			RequireRole(zap.NewNop(), utils.RoleCleaner)(captureActor(&got)).ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestRequireRole_WithoutIdentity(t *testing.T) {
	rec := httptest.NewRecorder()
	var got utils.Actor

	RequireRole(zap.NewNop(), utils.RoleCustomer)(captureActor(&got)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
