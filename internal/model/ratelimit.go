package model

import "errors"

// ErrRateLimited — превышен лимит бэкапов за окно (час или сутки).
var ErrRateLimited = errors.New("rate limit exceeded")

// Длительности скользящих окон лимитера в секундах.
const (
	HourWindowSecs = 3600
	DayWindowSecs  = 86400
)

// RateLimitRecord — счётчики частоты бэкапов одного пользователя.
// Запись читается, проверяется и инкрементируется строго внутри одной
// write-транзакции хранилища, иначе возможна гонка check-then-increment.
type RateLimitRecord struct {
	BackupsThisHour uint32
	BackupsToday    uint32
	LastBackupAt    *int64
	HourResetAt     int64 // unix-секунды, когда обнуляется часовой счётчик
	DayResetAt      int64 // unix-секунды, когда обнуляется суточный счётчик
}

// NewRateLimitRecord создаёт пустую запись с окнами, стартующими от now.
func NewRateLimitRecord(now int64) *RateLimitRecord {
	return &RateLimitRecord{
		HourResetAt: now + HourWindowSecs,
		DayResetAt:  now + DayWindowSecs,
	}
}

// CheckAndIncrement сбрасывает истёкшие окна, проверяет лимиты и, если оба
// позволяют, инкрементирует счётчики. При отказе запись не изменяется
// (кроме сброса уже истёкших окон).
func (r *RateLimitRecord) CheckAndIncrement(now int64, hourLimit, dayLimit uint32) error {
	if now >= r.HourResetAt {
		r.BackupsThisHour = 0
		r.HourResetAt = now + HourWindowSecs
	}
	if now >= r.DayResetAt {
		r.BackupsToday = 0
		r.DayResetAt = now + DayWindowSecs
	}

	if r.BackupsThisHour >= hourLimit {
		return ErrRateLimited
	}
	if r.BackupsToday >= dayLimit {
		return ErrRateLimited
	}

	r.BackupsThisHour++
	r.BackupsToday++
	ts := now
	r.LastBackupAt = &ts

	return nil
}
