package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campuslink/campuslink-api/internal/dto"
	"github.com/campuslink/campuslink-api/internal/middleware"
	"github.com/campuslink/campuslink-api/internal/models"
	"github.com/campuslink/campuslink-api/internal/repository"
	"github.com/campuslink/campuslink-api/internal/service"
	"github.com/campuslink/campuslink-api/pkg/googleauth"
)

type googleStub struct {
	profile googleauth.Profile
	err     error
}

func (g *googleStub) Verify(ctx context.Context, idToken string) (googleauth.Profile, error) {
	if g.err != nil {
		return googleauth.Profile{}, g.err
	}
	return g.profile, nil
}

func newClientTestApp(t *testing.T, google googleauth.Verifier) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Client{}, &models.User{}))

	logger := zerolog.New(io.Discard)
	clients := repository.NewClientRepository(db)
	users := repository.NewUserRepository(db)
	tokens := service.NewTokenService("handler-test-secret", time.Hour)
	auth := service.NewAuthService(clients, users, tokens, google, time.Second, logger)

	validate := validator.New(validator.WithRequiredStructEnabled())
	h := NewClientHandler(auth, validate, logger)

	app := fiber.New()
	group := app.Group("/api/v1/clients")
	h.Register(group)
	h.RegisterProtected(group.Group("", middleware.Protected(auth)))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}, headers map[string]string) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestClientHandlerRegister(t *testing.T) {
	app := newClientTestApp(t, &googleStub{})
	deviceUUID := uuid.NewString()

	resp := postJSON(t, app, "/api/v1/clients/register", dto.RegisterRequest{UUID: deviceUUID}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/clients/register", dto.RegisterRequest{UUID: deviceUUID}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/clients/register", dto.RegisterRequest{UUID: "too-short"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClientHandlerSignInRejectsBadToken(t *testing.T) {
	app := newClientTestApp(t, &googleStub{err: errors.New("rejected")})
	deviceUUID := uuid.NewString()

	resp := postJSON(t, app, "/api/v1/clients/register", dto.RegisterRequest{UUID: deviceUUID}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/clients/signInToGoogleAccount", dto.SignInRequest{
		UUID:          deviceUUID,
		GoogleIDToken: "bad",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClientHandlerSessionLifecycle(t *testing.T) {
	app := newClientTestApp(t, &googleStub{profile: googleauth.Profile{
		GoogleID:  uuid.NewString(),
		Email:     "grace@example.edu",
		FirstName: "Grace",
		LastName:  "Hopper",
	}})
	deviceUUID := uuid.NewString()

	resp := postJSON(t, app, "/api/v1/clients/register", dto.RegisterRequest{UUID: deviceUUID}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/clients/signInToGoogleAccount", dto.SignInRequest{
		UUID:          deviceUUID,
		GoogleIDToken: "good",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var envelope struct {
		Data dto.TokenResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotEmpty(t, envelope.Data.JSONWebToken)
	bearer := map[string]string{"Authorization": "Bearer " + envelope.Data.JSONWebToken}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/GoogleAccountPermissions", nil)
	req.Header.Set("Authorization", bearer["Authorization"])
	permResp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, permResp.StatusCode)

	var permEnvelope struct {
		Data dto.PermissionsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(permResp.Body).Decode(&permEnvelope))
	require.False(t, permEnvelope.Data.Moderator)
	require.False(t, permEnvelope.Data.Admin)

	pushReq := httptest.NewRequest(http.MethodPut, "/api/v1/clients/pushToken", strings.NewReader(
		`{"push_token":"`+strings.Repeat("p", 64)+`"}`))
	pushReq.Header.Set("Content-Type", "application/json")
	pushReq.Header.Set("Authorization", bearer["Authorization"])
	pushResp, err := app.Test(pushReq, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, pushResp.StatusCode)

	resp = postJSON(t, app, "/api/v1/clients/signOutFromGoogleAccount", struct{}{}, bearer)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// The same token no longer resolves once signed out.
	resp = postJSON(t, app, "/api/v1/clients/signOutFromGoogleAccount", struct{}{}, bearer)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClientHandlerProtectedRoutesRequireBearer(t *testing.T) {
	app := newClientTestApp(t, &googleStub{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/clients/GoogleAccountPermissions", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
