package model

// Серверная модель User — зарегистрированный аккаунт.
// ID — SHA-256 от имени пользователя, выбранного клиентом; сервер имени не видит.
type User struct {
	ID        string
	CreatedAt int64 // unix-секунды первой регистрации
}

// HexIDLength — длина идентификаторов (SHA-256 в hex).
const HexIDLength = 64

// ValidateHexID проверяет, что строка — корректный hex-хеш фиксированной длины.
// Используется и для userId, и для storageKey.
func ValidateHexID(id string) bool {
	if len(id) != HexIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
