package repo

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

// RegisterUser регистрирует нового пользователя. Проверка наличия и вставка
// выполняются в одной write-транзакции, поэтому два конкурентных Register
// одного id не могут оба пройти.
func (s *Store) RegisterUser(ctx context.Context, userID string, now int64) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		if users.Get([]byte(userID)) != nil {
			return ErrUserExists
		}

		raw, err := encode(userRecord{CreatedAt: now})
		if err != nil {
			return fmt.Errorf("encode user: %w", err)
		}
		return users.Put([]byte(userID), raw)
	})
}

// DeleteUserCascade удаляет пользователя и все связанные с ним записи:
// бэкапы по индексу user_backups, счётчики лимитера, сам индекс и запись
// пользователя. Всё в одной транзакции — либо удаляется всё, либо ничего.
//
// storageKey обязан существовать и принадлежать пользователю: знание ключа
// доказывает знание пароля, без него удаление чужого аккаунта по одному
// только userId было бы возможно.
func (s *Store) DeleteUserCascade(ctx context.Context, userID, storageKey string) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return s.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		if users.Get([]byte(userID)) == nil {
			return ErrUserNotFound
		}

		backups := tx.Bucket(bucketBackups)
		raw := backups.Get([]byte(storageKey))
		if raw == nil {
			return ErrStorageKeyMismatch
		}
		var rec backupRecord
		if err := decode(raw, &rec); err != nil {
			return fmt.Errorf("decode backup: %w", err)
		}
		if rec.UserID != userID {
			return ErrStorageKeyMismatch
		}

		index := tx.Bucket(bucketUserBackups)
		var keys []string
		if rawKeys := index.Get([]byte(userID)); rawKeys != nil {
			if err := decode(rawKeys, &keys); err != nil {
				return fmt.Errorf("decode backup index: %w", err)
			}
		}
		for _, key := range keys {
			if err := backups.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete backup: %w", err)
			}
		}

		if err := tx.Bucket(bucketRateLimits).Delete([]byte(userID)); err != nil {
			return fmt.Errorf("delete rate limit: %w", err)
		}
		if err := index.Delete([]byte(userID)); err != nil {
			return fmt.Errorf("delete backup index: %w", err)
		}
		return users.Delete([]byte(userID))
	})
}

// Stats возвращает количество пользователей и бэкапов (admin-диагностика).
func (s *Store) Stats(ctx context.Context) (users, backups int, err error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer release()

	err = s.db.View(func(tx *bbolt.Tx) error {
		users = tx.Bucket(bucketUsers).Stats().KeyN
		backups = tx.Bucket(bucketBackups).Stats().KeyN
		return nil
	})
	return users, backups, err
}
