package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"offerhub-backend/constants"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret-key"

func TestRegisterCreeUnViewer(t *testing.T) {
	users := newMemoryUsers()
	h := NewAuthHandler(users, testSecret, time.Hour)

	rr := httptest.NewRecorder()
	h.Register(rr, newRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Alice Martin", "email": " Alice@Example.com ", "password": "motdepasse123",
	}, nil, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp models.AuthResponse
	decodeData(t, rr, &resp)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, models.RoleViewer, resp.User.Role)
	assert.NotContains(t, rr.Body.String(), "motdepasse123")

	claims, err := utils.ValidateToken(resp.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.Hex(), claims.UserID)

	// même email: 409
	rr = httptest.NewRecorder()
	h.Register(rr, newRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Alice Bis", "email": "alice@example.com", "password": "motdepasse123",
	}, nil, nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, constants.ErrEmailTaken, errorMessage(t, rr))
}

func TestRegisterValidation(t *testing.T) {
	h := NewAuthHandler(newMemoryUsers(), testSecret, time.Hour)

	rr := httptest.NewRecorder()
	h.Register(rr, newRequest(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "A", "email": "pas-un-email", "password": "court",
	}, nil, nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body utils.ErrorResponse
	require.NoError(t, jsonUnmarshal(rr, &body))
	assert.GreaterOrEqual(t, len(body.Errors), 3)

	rr = httptest.NewRecorder()
	h.Register(rr, newRequest(t, http.MethodPost, "/api/auth/register", "{pas du json", nil, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, constants.ErrInvalidJSONBody, errorMessage(t, rr))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	hash, err := utils.HashPassword("motdepasse123")
	require.NoError(t, err)
	active := &models.User{Name: "Bob", Email: "bob@example.com", Password: hash, Role: models.RoleManager, Active: true}
	require.NoError(t, users.Create(ctx, active))
	disabled := &models.User{Name: "Carl", Email: "carl@example.com", Password: hash, Role: models.RoleViewer}
	require.NoError(t, users.Create(ctx, disabled))

	h := NewAuthHandler(users, testSecret, time.Hour)

	tests := []struct {
		name     string
		email    string
		password string
		want     int
	}{
		{"identifiants valides", "BOB@example.com", "motdepasse123", http.StatusOK},
		{"mauvais mot de passe", "bob@example.com", "mauvais-mdp", http.StatusUnauthorized},
		{"compte inconnu", "inconnu@example.com", "motdepasse123", http.StatusUnauthorized},
		{"compte désactivé", "carl@example.com", "motdepasse123", http.StatusUnauthorized},
		{"champs vides", "", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Login(rr, newRequest(t, http.MethodPost, "/api/auth/login", map[string]string{
				"email": tt.email, "password": tt.password,
			}, nil, nil))
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}

	stored, _ := users.FindByID(ctx, active.ID)
	require.NotNil(t, stored.LastLoginAt, "last_login_at doit être renseigné")
}

func TestMe(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	u := &models.User{Name: "Dana", Email: "dana@example.com", Role: models.RoleAdmin, Active: true}
	require.NoError(t, users.Create(ctx, u))
	h := NewAuthHandler(users, testSecret, time.Hour)

	rr := httptest.NewRecorder()
	h.Me(rr, newRequest(t, http.MethodGet, "/api/auth/me", nil, claimsFor(u.ID, models.RoleAdmin), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got models.User
	decodeData(t, rr, &got)
	assert.Equal(t, "dana@example.com", got.Email)

	rr = httptest.NewRecorder()
	h.Me(rr, newRequest(t, http.MethodGet, "/api/auth/me", nil, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUserHandlerDelete(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	admin := &models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin, Active: true}
	other := &models.User{Name: "Autre", Email: "autre@example.com", Role: models.RoleViewer, Active: true}
	require.NoError(t, users.Create(ctx, admin))
	require.NoError(t, users.Create(ctx, other))
	h := NewUserHandler(users)
	claims := claimsFor(admin.ID, models.RoleAdmin)

	rr := httptest.NewRecorder()
	h.Delete(rr, newRequest(t, http.MethodDelete, "/api/users/x", nil, claims, map[string]string{"id": admin.ID.Hex()}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, constants.ErrSelfDelete, errorMessage(t, rr))

	rr = httptest.NewRecorder()
	h.Delete(rr, newRequest(t, http.MethodDelete, "/api/users/x", nil, claims, map[string]string{"id": other.ID.Hex()}))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.Delete(rr, newRequest(t, http.MethodDelete, "/api/users/x", nil, claims, map[string]string{"id": primitive.NewObjectID().Hex()}))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.Delete(rr, newRequest(t, http.MethodDelete, "/api/users/x", nil, claims, map[string]string{"id": "pas-un-id"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUserHandlerUpdate(t *testing.T) {
	ctx := context.Background()
	users := newMemoryUsers()
	u := &models.User{Name: "Eve", Email: "eve@example.com", Role: models.RoleViewer, Active: true}
	require.NoError(t, users.Create(ctx, u))
	h := NewUserHandler(users)
	admin := claimsFor(primitive.NewObjectID(), models.RoleAdmin)

	rr := httptest.NewRecorder()
	h.Update(rr, newRequest(t, http.MethodPut, "/api/users/x", map[string]interface{}{"role": "manager", "active": false}, admin, map[string]string{"id": u.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	stored, _ := users.FindByID(ctx, u.ID)
	assert.Equal(t, models.RoleManager, stored.Role)
	assert.False(t, stored.Active)
	assert.Equal(t, "Eve", stored.Name, "champ absent inchangé")

	rr = httptest.NewRecorder()
	h.Update(rr, newRequest(t, http.MethodPut, "/api/users/x", map[string]interface{}{"role": "superuser"}, admin, map[string]string{"id": u.ID.Hex()}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
