package security

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"math"
)

var (
	// ErrInvalidEnvelope — полезная нагрузка не является ожидаемым конвертом
	// (битый JSON, нет обязательных полей, чужой тег приложения, битый base64).
	ErrInvalidEnvelope = errors.New("invalid envelope format")

	// ErrLowEntropy — содержимое слишком регулярно, чтобы быть настоящим
	// шифртекстом. Эвристика против заливки мусора, не гарантия.
	ErrLowEntropy = errors.New("payload entropy below threshold")
)

// Envelope — структура, в которой клиент передаёт шифртекст.
// App — тег приложения-отправителя, Ciphertext — base64 зашифрованных байт.
type Envelope struct {
	App        string `json:"app"`
	Ciphertext string `json:"ciphertext"`
}

// InspectEnvelope разбирает конверт и оценивает случайность шифртекста.
//
// Порядок проверок: формат конверта и тег приложения, затем энтропия Шеннона
// по декодированным байтам шифртекста. Порог — настраиваемый параметр политики:
// легитимный, но хорошо сжимаемый шифртекст теоретически может ложно
// отбраковываться, поэтому проверка — мягкий анти-абьюз сигнал, не граница
// безопасности. Проверка применяется только к записи; чтение и удаление
// содержимое конверта не перепроверяют.
func InspectEnvelope(raw []byte, wantApp string, entropyThreshold float64) error {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ErrInvalidEnvelope
	}
	if env.App == "" || env.Ciphertext == "" {
		return ErrInvalidEnvelope
	}
	if env.App != wantApp {
		return ErrInvalidEnvelope
	}

	cipher, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil || len(cipher) == 0 {
		return ErrInvalidEnvelope
	}

	if NormalizedEntropy(cipher) < entropyThreshold {
		return ErrLowEntropy
	}

	return nil
}

// NormalizedEntropy считает энтропию Шеннона в битах на байт и нормирует её
// в [0,1] делением на 8. Один повторяющийся байт даёт 0, вывод хорошего ГПСЧ
// на длине в сотни байт — близко к 1.
func NormalizedEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	total := float64(len(data))
	entropy := 0.0
	for _, n := range freq {
		if n == 0 {
			continue
		}
		p := float64(n) / total
		entropy -= p * math.Log2(p)
	}

	return entropy / 8.0
}
