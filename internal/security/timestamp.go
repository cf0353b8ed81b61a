package security

import "time"

// Clock отдаёт текущее unix-время; подменяется в тестах.
type Clock func() int64

// SystemClock — обычные серверные часы.
func SystemClock() int64 { return time.Now().Unix() }

// ValidateTimestamp проверяет, что заявленный клиентом timestamp лежит в окне
// ±maxAgeSecs от серверного времени. Окно симметрично: отсекаются и повторы
// старых подписанных запросов, и метки «из будущего» при рассинхроне часов.
// Границы включительны: |now - timestamp| == maxAgeSecs ещё проходит.
//
// Сама по себе проверка бессмысленна — timestamp обязан входить в подписанные
// данные, иначе старый запрос replay-ится со свежей меткой.
func ValidateTimestamp(timestamp, maxAgeSecs int64, now Clock) bool {
	age := now() - timestamp
	if age < 0 {
		age = -age
	}
	return age <= maxAgeSecs
}
