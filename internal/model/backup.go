package model

// Серверная модель Backup — зашифрованный клиентом бэкап.
// Содержимое Data непрозрачно для сервера: расшифровка происходит только на клиенте.
type Backup struct {
	StorageKey string // SHA-256(userId + секрет клиента), первичный ключ
	UserID     string // владелец; ссылочная целостность обеспечивается репозиторием
	Data       string // зашифрованный конверт как передан клиентом
	CreatedAt  int64  // unix-секунды создания
	UpdatedAt  int64  // unix-секунды последней перезаписи
}
