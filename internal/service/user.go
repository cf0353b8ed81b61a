package service

import (
	"context"

	"BlobKeeper/internal/config"
	"BlobKeeper/internal/model"
	"BlobKeeper/internal/repo"
	"BlobKeeper/internal/security"

	"go.uber.org/zap"
)

// UserStore — контракт хранилища, нужный сервису пользователей.
type UserStore interface {
	RegisterUser(ctx context.Context, userID string, now int64) error
	DeleteUserCascade(ctx context.Context, userID, storageKey string) error
	Stats(ctx context.Context) (users, backups int, err error)
}

var _ UserStore = (*repo.Store)(nil)

// UserService — регистрация и каскадное удаление аккаунтов.
type UserService struct {
	store  UserStore
	cfg    *config.Config
	logger *zap.SugaredLogger
	clock  security.Clock
}

// NewUserService создаёт сервис пользователей.
func NewUserService(store UserStore, cfg *config.Config, logger *zap.SugaredLogger) *UserService {
	return &UserService{store: store, cfg: cfg, logger: logger, clock: security.SystemClock}
}

// WithClock подменяет источник времени (для тестов).
func (s *UserService) WithClock(clock security.Clock) *UserService {
	s.clock = clock
	return s
}

// Register регистрирует пользователя. Регистрация не подписывается:
// userId — хеш, коллизии создать нечем, а злоупотребление объёмом
// отсекается лимитером на записи.
func (s *UserService) Register(ctx context.Context, userID string) error {
	if !model.ValidateHexID(userID) {
		s.logger.Warnw("Register: invalid user ID format")
		return ErrInvalidUserID
	}

	if err := s.store.RegisterUser(ctx, userID, s.clock()); err != nil {
		return err
	}

	s.logger.Infow("Register: new user registered")
	return nil
}

// DeleteRequest — провалидированный вход запроса удаления аккаунта.
type DeleteRequest struct {
	UserID     string
	StorageKey string
	Signature  string
	Timestamp  int64
}

// Delete каскадно удаляет аккаунт и все его данные. Подписываются
// storageKey и метка времени: предъявление ключа доказывает знание пароля.
func (s *UserService) Delete(ctx context.Context, req DeleteRequest) error {
	if !model.ValidateHexID(req.UserID) {
		return ErrInvalidUserID
	}
	if !model.ValidateHexID(req.StorageKey) {
		return ErrInvalidStorageKey
	}

	if !security.VerifyHMAC(SignedPayload(req.StorageKey, req.Timestamp), req.Signature, s.cfg.AppSecret) {
		s.logger.Warnw("Delete: invalid HMAC signature")
		return ErrUnauthorized
	}
	if !security.ValidateTimestamp(req.Timestamp, s.cfg.MaxTimestampAge, s.clock) {
		s.logger.Warnw("Delete: timestamp outside window", "timestamp", req.Timestamp)
		return ErrUnauthorized
	}

	if err := s.store.DeleteUserCascade(ctx, req.UserID, req.StorageKey); err != nil {
		return err
	}

	s.logger.Infow("Delete: user and all associated data deleted")
	return nil
}

// Stats отдаёт счётчики записей для admin-диагностики.
func (s *UserService) Stats(ctx context.Context) (users, backups int, err error) {
	return s.store.Stats(ctx)
}
