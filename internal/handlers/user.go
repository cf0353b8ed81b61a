package handlers

import (
	"encoding/json"
	"net/http"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/service"

	"go.uber.org/zap"
)

// UserHandler обрабатывает регистрацию и удаление аккаунтов.
type UserHandler struct {
	UserService *service.UserService
	Logger      *zap.SugaredLogger
	Config      *config.Config
}

// NewUserHandler создаёт хендлер пользователей
func NewUserHandler(userService *service.UserService, logger *zap.SugaredLogger, cfg *config.Config) *UserHandler {
	return &UserHandler{UserService: userService, Logger: logger, Config: cfg}
}

// RegisterRequest — тело POST /api/register
type RegisterRequest struct {
	UserID string `json:"userId"`
}

type RegisterResponse struct {
	Success bool `json:"success"`
}

// DeleteUserRequest — тело DELETE /api/user. Подписывается storageKey вместе
// с меткой времени: signature = HMAC(storageKey + ":" + timestamp, секрет).
type DeleteUserRequest struct {
	UserID     string `json:"userId"`
	StorageKey string `json:"storageKey"`
	Signature  string `json:"signature"`
	Timestamp  int64  `json:"timestamp"`
}

type DeleteUserResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register регистрирует нового пользователя по userId (SHA-256 hex)
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Register: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.UserService.Register(r.Context(), req.UserID); err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, RegisterResponse{Success: true})
}

// Delete безвозвратно удаляет аккаунт: запись пользователя, все бэкапы,
// счётчики лимитера и индекс бэкапов — одной транзакцией
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warnw("Delete: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.UserService.Delete(r.Context(), service.DeleteRequest{
		UserID:     req.UserID,
		StorageKey: req.StorageKey,
		Signature:  req.Signature,
		Timestamp:  req.Timestamp,
	})
	if err != nil {
		writeServiceError(w, h.Logger, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteUserResponse{
		Success: true,
		Message: "User and all associated data permanently deleted",
	})
}
