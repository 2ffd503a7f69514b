package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/services"
)

func setupAuthRouter() (*MockAuthService, *MockRegisterService, *MockPersonService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	authService := &MockAuthService{}
	registerService := &MockRegisterService{}
	personService := &MockPersonService{}

	authHandler := handlers.NewAuthHandler(authService, quietLogger())
	registerHandler := handlers.NewRegisterHandler(registerService, quietLogger())
	personHandler := handlers.NewPersonHandler(personService, quietLogger())

	router := gin.New()
	router.POST("/auth", authHandler.Token)
	router.POST("/registration", registerHandler.Registration)
	router.POST("/admin/registration", registerHandler.AdminRegistration)
	router.GET("/v1/persons/me", middleware.Authenticate(staticParser{token: testToken, principal: actor}), personHandler.Me)

	return authService, registerService, personService, router
}

func TestAuthHandler_Token(t *testing.T) {
	authService, _, _, router := setupAuthRouter()

	person := &models.Person{ID: actor.ID, Email: actor.Email, Role: models.RoleUser}
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	authService.On("Login", mock.Anything, "author@example.com", "secret-pass").Return(person, nil)
	authService.On("GenerateToken", person).Return(services.Token{Value: "jwt-value", ExpiresAt: expires}, nil)

	w := serve(router, http.MethodPost, "/auth", handlers.LoginRequest{Email: "author@example.com", Password: "secret-pass"})

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[handlers.LoginResponse](t, w)
	assert.Equal(t, "jwt-value", body.Token)
	assert.Equal(t, "Bearer", body.TokenType)
	assert.True(t, expires.Equal(body.ExpiresAt))
}

func TestAuthHandler_InvalidCredentials(t *testing.T) {
	authService, _, _, router := setupAuthRouter()
	authService.On("Login", mock.Anything, "author@example.com", "wrong").Return(nil, services.ErrInvalidCredentials)

	w := serve(router, http.MethodPost, "/auth", handlers.LoginRequest{Email: "author@example.com", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	authService.AssertNotCalled(t, "GenerateToken", mock.Anything)
}

func TestAuthHandler_MissingFields(t *testing.T) {
	_, _, _, router := setupAuthRouter()

	w := serve(router, http.MethodPost, "/auth", map[string]string{"email": "a@b.c"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[handlers.ErrorResponse](t, w).Fields, "password")
}

func validRegistration() services.RegistrationRequest {
	return services.RegistrationRequest{
		FirstName:      "Ann",
		LastName:       "Author",
		Email:          "ann@example.com",
		Password:       "password123",
		RepeatPassword: "password123",
	}
}

func TestRegisterHandler_Registration(t *testing.T) {
	_, registerService, _, router := setupAuthRouter()
	req := validRegistration()
	created := &models.Person{ID: uuid.Must(uuid.NewV4()), FirstName: "Ann", LastName: "Author", Email: req.Email, Role: models.RoleUser}
	registerService.On("Register", mock.Anything, req).Return(created, nil)

	w := serve(router, http.MethodPost, "/registration", req)

	require.Equal(t, http.StatusCreated, w.Code)
	body := decode[handlers.PersonResponse](t, w)
	assert.Equal(t, created.ID, body.ID)
	assert.Equal(t, models.RoleUser, body.Role)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegisterHandler_AdminRegistration(t *testing.T) {
	_, registerService, _, router := setupAuthRouter()
	req := validRegistration()
	created := &models.Person{ID: uuid.Must(uuid.NewV4()), Email: req.Email, Role: models.RoleAdmin}
	registerService.On("RegisterAdmin", mock.Anything, req).Return(created, nil)

	w := serve(router, http.MethodPost, "/admin/registration", req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RoleAdmin, decode[handlers.PersonResponse](t, w).Role)
	registerService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate email", services.ErrDuplicateEmail, http.StatusBadRequest, "duplicate_email"},
		{"password mismatch", services.NewValidationError("repeatPassword", "passwords do not match"), http.StatusBadRequest, "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, registerService, _, router := setupAuthRouter()
			registerService.On("Register", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := serve(router, http.MethodPost, "/registration", validRegistration())

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode[handlers.ErrorResponse](t, w).Error)
		})
	}
}

func TestRegisterHandler_BindingValidation(t *testing.T) {
	_, registerService, _, router := setupAuthRouter()
	req := validRegistration()
	req.Email = "not-an-email"
	req.Password = "short"

	w := serve(router, http.MethodPost, "/registration", req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[handlers.ErrorResponse](t, w).Fields
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Equal(t, "must be at least 8 characters", fields["password"])
	registerService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestPersonHandler_Me(t *testing.T) {
	_, _, personService, router := setupAuthRouter()
	person := &models.Person{ID: actor.ID, FirstName: "Ann", Email: actor.Email, Role: actor.Role}
	personService.On("Me", mock.Anything, actor).Return(person, nil)

	w := serve(router, http.MethodGet, "/v1/persons/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, actor.Email, decode[handlers.PersonResponse](t, w).Email)
}
