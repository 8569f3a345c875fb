package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"donor_registry/internal/platform/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func memoryConfig() *config.Config {
	return &config.Config{
		AppEnv:          "development",
		JWTKey:          []byte("app_test_secret"),
		TokenTTL:        time.Hour,
		BcryptCost:      bcrypt.MinCost,
		StorageBackend:  config.StorageBackendMemory,
		TokenRevocation: false,
		AdminUsername:   "root",
		AdminPassword:   "toor",
	}
}

func TestNewBootstrapsAdmin(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.Resources, 5)
	handler := a.Handler()

	body, _ := json.Marshal(map[string]string{"username": "root", "password": "toor"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodPost, "/api/relationship_types", bytes.NewBufferString(`{"description":"Sibling"}`))
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"Relationship_type added successfully.","id":1}`, rec.Body.String())
}

func TestNewIsIdempotentForExistingAdmin(t *testing.T) {
	cfg := memoryConfig()
	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	created, err := a.Auth.EnsureUser(context.Background(), cfg.AdminUsername, cfg.AdminPassword, "admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, a.Close())
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.StorageBackend = "sqlite"

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown storage backend")
}
