package handlers

import (
	"encoding/json"
	"net/http"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/service"

	"go.uber.org/zap"
)

// BackupHandler обрабатывает сохранение и выдачу бэкапов.
type BackupHandler struct {
	BackupService *service.BackupService
	Logger        *zap.SugaredLogger
	Config        *config.Config
}

// NewBackupHandler создаёт хендлер бэкапов
func NewBackupHandler(backupService *service.BackupService, logger *zap.SugaredLogger, cfg *config.Config) *BackupHandler {
	return &BackupHandler{BackupService: backupService, Logger: logger, Config: cfg}
}

// StoreBackupRequest — тело POST /api/backup. Подписываются данные вместе
// с меткой времени: signature = HMAC(data + ":" + timestamp, секрет).
type StoreBackupRequest struct {
	UserID     string `json:"userId"`
	StorageKey string `json:"storageKey"`
	Data       string `json:"data"`
	Signature  string `json:"signature"`
	Timestamp  int64  `json:"timestamp"`
}

type StoreBackupResponse struct {
	Success   bool   `json:"success"`
	UpdatedAt string `json:"updatedAt"`
}

type RetrieveBackupResponse struct {
	Data      string `json:"data"`
	UpdatedAt string `json:"updatedAt"`
}

// Store сохраняет (или перезаписывает) зашифрованный бэкап
func (h *BackupHandler) Store(w http.ResponseWriter, r *http.Request) {
	// Лимит тела: максимальный бэкап плюс запас на JSON-обвязку
	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxBackupBytes+1024*1024)

	var req StoreBackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Store: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updatedAt, err := h.BackupService.Store(r.Context(), service.StoreRequest{
		UserID:     req.UserID,
		StorageKey: req.StorageKey,
		Data:       req.Data,
		Signature:  req.Signature,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, StoreBackupResponse{
		Success:   true,
		UpdatedAt: timestampToRFC3339(updatedAt),
	})
}

// Retrieve отдаёт бэкап по паре userId+storageKey из query-параметров
func (h *BackupHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	storageKey := r.URL.Query().Get("storageKey")

	b, err := h.BackupService.Retrieve(r.Context(), userID, storageKey)
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	h.Logger.Infow("Retrieve: backup retrieved", "size", len(b.Data))

	writeJSON(w, http.StatusOK, RetrieveBackupResponse{
		Data:      b.Data,
		UpdatedAt: timestampToRFC3339(b.UpdatedAt),
	})
}
