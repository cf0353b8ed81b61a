package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/middleware"
	"BlobKeeper/internal/model"
	"BlobKeeper/internal/repo"
	"BlobKeeper/internal/security"
	"BlobKeeper/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	userService *service.UserService,
	backupService *service.BackupService,
	logger *zap.SugaredLogger,
	cfg *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithLogging)
	r.Use(middleware.WithGzip)

	// Handlers
	userHandler := NewUserHandler(userService, logger, cfg)
	backupHandler := NewBackupHandler(backupService, logger, cfg)
	adminHandler := NewAdminHandler(userService, logger, cfg)

	r.Get("/health", adminHandler.Health)

	// API
	r.Post("/api/register", userHandler.Register)
	r.Post("/api/backup", backupHandler.Store)
	r.Get("/api/backup", backupHandler.Retrieve)
	r.Delete("/api/user", userHandler.Delete)

	// Admin (выключен, пока не задан admin-ключ)
	r.Get("/admin/stats", adminHandler.Stats)

	return &Handler{Router: r}
}

// writeJSON сериализует ответ с нужным статусом
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse — единый формат тела ошибки
type errorResponse struct {
	Error string `json:"error"`
}

// writeError отдаёт ошибку в формате {"error": "..."}
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// genericUnauthorized — единое сообщение для всех отказов авторизации.
// Клиент не должен различать «плохая подпись», «старая метка времени»,
// «неизвестный пользователь» и «чужой ключ» — это оракул для перебора.
const genericUnauthorized = "Unauthorized - request must come from official app"

// writeServiceError сопоставляет ошибки конвейера и репозитория с HTTP-статусами.
// Всё неопознанное — ошибка хранилища: полная запись в лог, клиенту — generic 500.
func writeServiceError(w http.ResponseWriter, logger *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidUserID):
		writeError(w, http.StatusBadRequest, "Invalid user ID format")
	case errors.Is(err, service.ErrInvalidStorageKey):
		writeError(w, http.StatusBadRequest, "Invalid storage key format")
	case errors.Is(err, security.ErrInvalidEnvelope):
		writeError(w, http.StatusBadRequest, "Invalid backup format")
	case errors.Is(err, security.ErrLowEntropy):
		writeError(w, http.StatusBadRequest, "Backup content rejected")
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, repo.ErrUserNotFound),
		errors.Is(err, repo.ErrStorageKeyMismatch):
		writeError(w, http.StatusUnauthorized, genericUnauthorized)
	case errors.Is(err, repo.ErrUserExists):
		writeError(w, http.StatusConflict, "User already exists")
	case errors.Is(err, repo.ErrBackupNotFound):
		writeError(w, http.StatusNotFound, "Backup not found")
	case errors.Is(err, service.ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "Backup size exceeds maximum allowed")
	case errors.Is(err, model.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded - too many requests")
	default:
		logger.Errorw("storage error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// timestampToRFC3339 форматирует unix-секунды для ответов API
func timestampToRFC3339(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
