package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"
)

type stubParser struct {
	tokens map[string]services.Principal
}

func (s stubParser) ParseToken(token string) (services.Principal, error) {
	p, ok := s.tokens[token]
	if !ok {
		return services.Principal{}, errors.New("bad token")
	}
	return p, nil
}

var (
	adminPrincipal = services.Principal{ID: uuid.Must(uuid.NewV4()), Email: "admin@example.com", Role: models.RoleAdmin}
	userPrincipal  = services.Principal{ID: uuid.Must(uuid.NewV4()), Email: "user@example.com", Role: models.RoleUser}
)

func setupAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	parser := stubParser{tokens: map[string]services.Principal{
		"admin-token": adminPrincipal,
		"user-token":  userPrincipal,
	}}

	router := gin.New()
	authed := router.Group("/", middleware.Authenticate(parser))
	authed.GET("/me", func(c *gin.Context) {
		p, ok := middleware.PrincipalFrom(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": p.Email})
	})
	authed.GET("/admin", middleware.AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func doRequest(router http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	router := setupAuthRouter()

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid_token_format"},
		{"empty token", "Bearer ", http.StatusUnauthorized, "invalid_token_format"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"valid token", "Bearer user-token", http.StatusOK, ""},
		{"scheme is case insensitive", "bearer user-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "/me", tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.Equal(t, userPrincipal.Email, body["email"])
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	router := setupAuthRouter()

	assert.Equal(t, http.StatusNoContent, doRequest(router, "/admin", "Bearer admin-token").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(router, "/admin", "Bearer user-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "/admin", "").Code)
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/x", middleware.RequireRole(models.RoleUser), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusUnauthorized, doRequest(router, "/x", "").Code)
}
