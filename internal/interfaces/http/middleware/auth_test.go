package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/landreg/cadastre/internal/infrastructure/auth"
	"github.com/landreg/cadastre/internal/shared/authorization"
	"github.com/landreg/cadastre/internal/shared/logger"
)

func newAuthRouter(svc *auth.JWTService, seen *authorization.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	m := NewAuthMiddleware(svc, logger.NewNopLogger())
	r.GET("/whoami", m.RequireAuth(), func(c *gin.Context) {
		actor, ok := authorization.ActorFromContext(c)
		if ok {
			*seen = actor
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	svc := auth.NewJWTService("test-secret-with-enough-length", 15)
	other := auth.NewJWTService("another-secret-entirely-different", 15)
	approver := authorization.Actor{UserID: 42, Role: authorization.RoleSubcityApprover, SubAuthority: "YEKA"}

	valid, err := svc.Generate(approver)
	require.NoError(t, err)
	forged, err := other.Generate(approver)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode int
	}{
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + valid, wantCode: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer  ", wantCode: http.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + forged, wantCode: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + valid, wantCode: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer " + valid, wantCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen authorization.Actor
			r := newAuthRouter(svc, &seen)

			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusNoContent {
				assert.Equal(t, approver, seen)
			} else {
				assert.True(t, seen.IsZero())
			}
		})
	}
}
