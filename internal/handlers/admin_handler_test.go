package handlers_test

import (
	"net/http"
	"testing"

	"BlobKeeper/internal/handlers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	e := newTestEnv(t)

	rr := e.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeJSON[handlers.HealthResponse](t, rr)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Database)
}

func TestAdminStats(t *testing.T) {
	e := newTestEnv(t)
	user := sha256Hex("alice")
	key := sha256Hex("alice-storage")

	rr := e.do(t, http.MethodPost, "/api/register", handlers.RegisterRequest{UserID: user})
	require.Equal(t, http.StatusOK, rr.Code)
	rr = e.do(t, http.MethodPost, "/api/backup", e.storeBody(user, key, envelope(t)))
	require.Equal(t, http.StatusOK, rr.Code)

	t.Run("wrong key", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/admin/stats?key=wrong", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/admin/stats", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("valid key returns counts", func(t *testing.T) {
		rr := e.do(t, http.MethodGet, "/admin/stats?key="+e.cfg.AdminKey, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		resp := decodeJSON[handlers.AdminStatsResponse](t, rr)
		assert.Equal(t, 1, resp.UserCount)
		assert.Equal(t, 1, resp.BackupCount)
		assert.Positive(t, resp.DatabaseSizeBytes)
		assert.NotEmpty(t, resp.DatabaseSizeHuman)
	})
}

func TestAdminStats_DisabledWithoutKey(t *testing.T) {
	e := newTestEnv(t)
	e.cfg.AdminKey = ""

	// без настроенного ключа даже пустой query-ключ не проходит
	rr := e.do(t, http.MethodGet, "/admin/stats?key=", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
