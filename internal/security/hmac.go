package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyHMAC проверяет подпись HMAC-SHA256 над буквальной строкой data.
//
// Подпись доказывает, что запрос сформирован официальным приложением, а не
// произвольным HTTP-клиентом. Сравнение выполняется за постоянное время
// (hmac.Equal), чтобы не утекало положение первого расхождения байтов.
//
// Секрет зашит в клиентское приложение и может быть извлечён настойчивым
// атакующим; это барьер от массового абьюза, а не криптографическая граница.
func VerifyHMAC(data, signature, secret string) bool {
	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))

	return hmac.Equal(sig, mac.Sum(nil))
}

// SignHMAC возвращает hex-подпись HMAC-SHA256 для data.
// Используется в тестах и утилитах; клиент считает подпись сам.
func SignHMAC(data, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
