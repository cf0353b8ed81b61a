package service

import (
	"context"
	"errors"
	"fmt"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/model"
	"BlobKeeper/internal/repo"
	"BlobKeeper/internal/security"

	"go.uber.org/zap"
)

// Ошибки конвейера валидации. Детали отказа авторизации (подпись или метка
// времени) наружу не различаются — только лог на сервере.
var (
	ErrInvalidUserID     = errors.New("invalid user ID format")
	ErrInvalidStorageKey = errors.New("invalid storage key format")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPayloadTooLarge   = errors.New("payload too large")
)

// BackupStore — контракт хранилища, нужный сервису бэкапов.
type BackupStore interface {
	StoreBackup(ctx context.Context, userID, storageKey, data string, now int64) (int64, error)
	GetBackup(ctx context.Context, userID, storageKey string) (*model.Backup, error)
}

// компайл-тайм проверка
var _ BackupStore = (*repo.Store)(nil)

// BackupService гоняет запросы записи через конвейер проверок:
// идентификаторы → подпись → метка времени → размер → конверт/энтропия →
// лимитер и запись (последние два — атомарно в репозитории).
// Упавшая проверка обрывает конвейер: неавторизованный запрос никогда
// не тратит чужую квоту лимитера.
type BackupService struct {
	store  BackupStore
	cfg    *config.Config
	logger *zap.SugaredLogger
	clock  security.Clock
}

// NewBackupService создаёт сервис бэкапов.
func NewBackupService(store BackupStore, cfg *config.Config, logger *zap.SugaredLogger) *BackupService {
	return &BackupService{store: store, cfg: cfg, logger: logger, clock: security.SystemClock}
}

// WithClock подменяет источник времени (для тестов).
func (s *BackupService) WithClock(clock security.Clock) *BackupService {
	s.clock = clock
	return s
}

// SignedPayload строит канонические байты для HMAC-подписи запроса записи.
// Метка времени входит в подписанные байты: иначе старый подписанный запрос
// можно replay-ить со свежей меткой.
func SignedPayload(data string, timestamp int64) string {
	return fmt.Sprintf("%s:%d", data, timestamp)
}

// StoreRequest — провалидированный вход запроса записи.
type StoreRequest struct {
	UserID     string
	StorageKey string
	Data       string
	Signature  string
	Timestamp  int64
}

// Store прогоняет запрос через конвейер и сохраняет бэкап.
// Возвращает updated_at (unix-секунды) принятого бэкапа.
func (s *BackupService) Store(ctx context.Context, req StoreRequest) (int64, error) {
	if !model.ValidateHexID(req.UserID) {
		return 0, ErrInvalidUserID
	}
	if !model.ValidateHexID(req.StorageKey) {
		return 0, ErrInvalidStorageKey
	}

	if !security.VerifyHMAC(SignedPayload(req.Data, req.Timestamp), req.Signature, s.cfg.AppSecret) {
		s.logger.Warnw("Store: invalid HMAC signature")
		return 0, ErrUnauthorized
	}
	if !security.ValidateTimestamp(req.Timestamp, s.cfg.MaxTimestampAge, s.clock) {
		s.logger.Warnw("Store: timestamp outside window", "timestamp", req.Timestamp)
		return 0, ErrUnauthorized
	}

	size := int64(len(req.Data))
	if size > s.cfg.MaxBackupBytes {
		s.logger.Warnw("Store: payload too large", "size", size, "limit", s.cfg.MaxBackupBytes)
		return 0, ErrPayloadTooLarge
	}
	if size > s.cfg.WarnBackupBytes {
		s.logger.Infow("Store: large backup", "size", size)
	}

	if err := security.InspectEnvelope([]byte(req.Data), s.cfg.AppTag, s.cfg.EntropyThreshold); err != nil {
		s.logger.Warnw("Store: envelope rejected", "error", err)
		return 0, err
	}

	updatedAt, err := s.store.StoreBackup(ctx, req.UserID, req.StorageKey, req.Data, s.clock())
	if err != nil {
		return 0, err
	}

	s.logger.Infow("Store: backup stored", "size", size)
	return updatedAt, nil
}

// Retrieve возвращает бэкап по идентификаторам. Чтение не перепроверяет
// подпись и конверт: без знания storageKey чужой бэкап не найти.
func (s *BackupService) Retrieve(ctx context.Context, userID, storageKey string) (*model.Backup, error) {
	if !model.ValidateHexID(userID) {
		return nil, ErrInvalidUserID
	}
	if !model.ValidateHexID(storageKey) {
		return nil, ErrInvalidStorageKey
	}

	return s.store.GetBackup(ctx, userID, storageKey)
}
