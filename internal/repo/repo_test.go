package repo

import (
	"path/filepath"
	"strings"
	"testing"
)

// newTestStore открывает bbolt-базу во временном каталоге теста
func newTestStore(t *testing.T, limits Limits) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "blobkeeper.db"), limits, 4)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// testLimits — лимиты по умолчанию для тестов: 5 в час, 20 в сутки
func testLimits() Limits {
	return Limits{BackupsPerHour: 5, BackupsPerDay: 20}
}

// hexID детерминированно строит валидный 64-символьный hex-идентификатор
func hexID(seed string) string {
	return strings.Repeat("0", 64-len(seed)) + seed
}
