package handlers

import (
	"fmt"
	"net/http"
	"os"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/service"

	"go.uber.org/zap"
)

// AdminHandler — health и admin-диагностика.
type AdminHandler struct {
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewAdminHandler создаёт хендлер диагностики
func NewAdminHandler(userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *AdminHandler {
	return &AdminHandler{UserService: userService, Logger: logger, Config: cfg}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health — проверка живости для балансировщика: сервер отвечает и база читается
func (h *AdminHandler) Health(w http.ResponseWriter, r *http.Request) {
	if _, _, err := h.UserService.Stats(r.Context()); err != nil {
		h.Logger.Errorw("Health: database check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Database: "disconnected"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Database: "connected"})
}

type AdminStatsResponse struct {
	UserCount         int    `json:"user_count"`
	BackupCount       int    `json:"backup_count"`
	DatabaseSizeBytes int64  `json:"database_size_bytes"`
	DatabaseSizeHuman string `json:"database_size_human"`
}

// Stats — статистика базы для мониторинга.
// GET /admin/stats?key=<admin_secret_key>; без настроенного ключа эндпоинт выключен.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h.Config.AdminKey == "" || r.URL.Query().Get("key") != h.Config.AdminKey {
		h.Logger.Warnw("Stats: invalid admin key attempt")
		writeError(w, http.StatusUnauthorized, genericUnauthorized)
		return
	}

	users, backups, err := h.UserService.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	var dbSize int64
	if info, err := os.Stat(h.Config.DatabasePath); err == nil {
		dbSize = info.Size()
	}

	writeJSON(w, http.StatusOK, AdminStatsResponse{
		UserCount:         users,
		BackupCount:       backups,
		DatabaseSizeBytes: dbSize,
		DatabaseSizeHuman: formatBytes(dbSize),
	})
}

// formatBytes переводит байты в человекочитаемую строку
func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
