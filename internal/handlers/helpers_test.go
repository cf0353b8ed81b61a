package handlers_test

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/handlers"
	"BlobKeeper/internal/repo"
	"BlobKeeper/internal/security"
	"BlobKeeper/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-key"

// testClock — управляемые часы для сценариев со сдвигом времени
type testClock struct{ now atomic.Int64 }

func newTestClock(start int64) *testClock {
	c := &testClock{}
	c.now.Store(start)
	return c
}

func (c *testClock) Now() int64      { return c.now.Load() }
func (c *testClock) Advance(d int64) { c.now.Add(d) }

// testEnv — полный стек хендлеров поверх настоящего bbolt-хранилища
type testEnv struct {
	router http.Handler
	cfg    *config.Config
	clock  *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		DatabasePath:     filepath.Join(t.TempDir(), "blobkeeper.db"),
		AppSecret:        testSecret,
		AdminKey:         "test-admin-key",
		AppTag:           "blobkeeper",
		MaxBackupBytes:   5 * 1024 * 1024,
		WarnBackupBytes:  1024 * 1024,
		BackupsPerHour:   5,
		BackupsPerDay:    20,
		MaxTimestampAge:  300,
		EntropyThreshold: 0.75,
		StorageWorkers:   4,
	}

	store, err := repo.NewStore(cfg.DatabasePath, repo.Limits{
		BackupsPerHour: uint32(cfg.BackupsPerHour),
		BackupsPerDay:  uint32(cfg.BackupsPerDay),
	}, cfg.StorageWorkers)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := newTestClock(1700000000)
	logger := zap.NewNop().Sugar()
	userSvc := service.NewUserService(store, cfg, logger).WithClock(clock.Now)
	backupSvc := service.NewBackupService(store, cfg, logger).WithClock(clock.Now)

	h := handlers.NewHandler(userSvc, backupSvc, logger, cfg)
	return &testEnv{router: h.Router, cfg: cfg, clock: clock}
}

// do выполняет JSON-запрос через роутер
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// sha256Hex — userId/storageKey так, как их считает клиент
func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// envelope собирает валидный конверт с шифртекстом высокой энтропии
func envelope(t *testing.T) string {
	t.Helper()
	cipher := make([]byte, 512)
	_, err := rand.Read(cipher)
	require.NoError(t, err)
	raw, err := json.Marshal(security.Envelope{
		App:        "blobkeeper",
		Ciphertext: base64.StdEncoding.EncodeToString(cipher),
	})
	require.NoError(t, err)
	return string(raw)
}

// storeBody собирает подписанное тело POST /api/backup
func (e *testEnv) storeBody(userID, storageKey, data string) handlers.StoreBackupRequest {
	ts := e.clock.Now()
	return handlers.StoreBackupRequest{
		UserID:     userID,
		StorageKey: storageKey,
		Data:       data,
		Signature:  security.SignHMAC(service.SignedPayload(data, ts), e.cfg.AppSecret),
		Timestamp:  ts,
	}
}

// deleteBody собирает подписанное тело DELETE /api/user
func (e *testEnv) deleteBody(userID, storageKey string) handlers.DeleteUserRequest {
	ts := e.clock.Now()
	return handlers.DeleteUserRequest{
		UserID:     userID,
		StorageKey: storageKey,
		Signature:  security.SignHMAC(service.SignedPayload(storageKey, ts), e.cfg.AppSecret),
		Timestamp:  ts,
	}
}

// decodeJSON разбирает тело ответа
func decodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}
