package repo

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// Ошибки репозитория. Хендлеры сопоставляют их с HTTP-статусами,
// внутренние ошибки bbolt наружу не отдаются.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrBackupNotFound     = errors.New("backup not found")
	ErrStorageKeyMismatch = errors.New("storage key does not match user")
)

// Имена бакетов bbolt — четыре логические таблицы хранилища.
var (
	bucketUsers       = []byte("users")        // userId -> userRecord
	bucketBackups     = []byte("backups")      // storageKey -> backupRecord
	bucketRateLimits  = []byte("rate_limits")  // userId -> model.RateLimitRecord
	bucketUserBackups = []byte("user_backups") // userId -> []storageKey, индекс каскадного удаления
)

// userRecord — сериализуемая запись пользователя.
type userRecord struct {
	CreatedAt int64
}

// backupRecord — сериализуемая запись бэкапа.
type backupRecord struct {
	UserID    string
	Data      string
	CreatedAt int64
	UpdatedAt int64
}

// Limits — лимиты абьюз-контроля, применяемые внутри транзакции записи.
type Limits struct {
	BackupsPerHour uint32
	BackupsPerDay  uint32
}

// Store — репозиторий поверх встроенного транзакционного KV (bbolt).
// Все мутации выполняются внутри одной write-транзакции: bbolt сериализует
// писателей единственным write-локом, что исключает потерянные обновления
// счётчиков и частичные каскады.
type Store struct {
	db     *bbolt.DB
	limits Limits

	// полоса допуска к блокирующим операциям хранилища: медленная транзакция
	// не должна занимать неограниченное число обработчиков запросов
	sem chan struct{}
}

// DefaultStorageWorkers — ширина полосы допуска к хранилищу по умолчанию.
const DefaultStorageWorkers = 8

// NewStore открывает (или создаёт) базу по пути path и инициализирует бакеты.
// workers ограничивает число одновременно допущенных операций хранилища.
func NewStore(path string, limits Limits, workers int) (*Store, error) {
	if workers <= 0 {
		workers = DefaultStorageWorkers
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("repo: create database directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("repo: open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketBackups, bucketRateLimits, bucketUserBackups} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repo: init buckets: %w", err)
	}

	return &Store{
		db:     db,
		limits: limits,
		sem:    make(chan struct{}, workers),
	}, nil
}

// Close закрывает базу.
func (s *Store) Close() error { return s.db.Close() }

// acquire ждёт места в полосе допуска. Контекст проверяется только до допуска:
// уже начатая транзакция всегда доводится до commit или rollback, даже если
// клиент отвалился — наполовину применённый каскад недопустим.
func (s *Store) acquire(ctx context.Context) (release func(), err error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	}
}

// encode сериализует запись в gob.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode десериализует gob-байты в запись.
func decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
