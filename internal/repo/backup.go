package repo

import (
	"context"
	"fmt"

	"BlobKeeper/internal/model"

	"go.etcd.io/bbolt"
)

// StoreBackup атомарно проверяет лимиты и апсертит бэкап.
//
// Внутри одной write-транзакции: существование владельца, чтение-проверка-
// инкремент счётчиков лимитера, апсерт бэкапа (created_at сохраняется,
// updated_at освежается) и дополнение индекса user_backups новым ключом.
// Разнести проверку лимита и инкремент по разным транзакциям нельзя:
// конкурентные запросы успели бы оба увидеть «лимит не выбран».
//
// Возвращает updated_at принятого бэкапа.
func (s *Store) StoreBackup(ctx context.Context, userID, storageKey, data string, now int64) (int64, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	err = s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketUsers).Get([]byte(userID)) == nil {
			return ErrUserNotFound
		}

		// лимитер: read-modify-write под write-локом bbolt
		limitsBucket := tx.Bucket(bucketRateLimits)
		rate := model.NewRateLimitRecord(now)
		if raw := limitsBucket.Get([]byte(userID)); raw != nil {
			if err := decode(raw, rate); err != nil {
				return fmt.Errorf("decode rate limit: %w", err)
			}
		}
		if err := rate.CheckAndIncrement(now, s.limits.BackupsPerHour, s.limits.BackupsPerDay); err != nil {
			return err
		}
		rawRate, err := encode(rate)
		if err != nil {
			return fmt.Errorf("encode rate limit: %w", err)
		}
		if err := limitsBucket.Put([]byte(userID), rawRate); err != nil {
			return fmt.Errorf("put rate limit: %w", err)
		}

		// апсерт бэкапа с сохранением created_at
		backups := tx.Bucket(bucketBackups)
		createdAt := now
		if raw := backups.Get([]byte(storageKey)); raw != nil {
			var prev backupRecord
			if err := decode(raw, &prev); err == nil {
				createdAt = prev.CreatedAt
			}
		}
		rawBackup, err := encode(backupRecord{
			UserID:    userID,
			Data:      data,
			CreatedAt: createdAt,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("encode backup: %w", err)
		}
		if err := backups.Put([]byte(storageKey), rawBackup); err != nil {
			return fmt.Errorf("put backup: %w", err)
		}

		// индекс владелец -> ключи, нужен каскадному удалению
		index := tx.Bucket(bucketUserBackups)
		var keys []string
		if raw := index.Get([]byte(userID)); raw != nil {
			if err := decode(raw, &keys); err != nil {
				return fmt.Errorf("decode backup index: %w", err)
			}
		}
		known := false
		for _, k := range keys {
			if k == storageKey {
				known = true
				break
			}
		}
		if !known {
			keys = append(keys, storageKey)
			rawKeys, err := encode(keys)
			if err != nil {
				return fmt.Errorf("encode backup index: %w", err)
			}
			if err := index.Put([]byte(userID), rawKeys); err != nil {
				return fmt.Errorf("put backup index: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}
	return now, nil
}

// GetBackup возвращает бэкап по ключу. Несовпадение владельца отдаётся как
// «не найдено», чтобы не служить оракулом принадлежности ключей.
func (s *Store) GetBackup(ctx context.Context, userID, storageKey string) (*model.Backup, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var rec backupRecord
	err = s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketBackups).Get([]byte(storageKey))
		if raw == nil {
			return ErrBackupNotFound
		}
		if err := decode(raw, &rec); err != nil {
			return fmt.Errorf("decode backup: %w", err)
		}
		if rec.UserID != userID {
			return ErrBackupNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &model.Backup{
		StorageKey: storageKey,
		UserID:     rec.UserID,
		Data:       rec.Data,
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
	}, nil
}
