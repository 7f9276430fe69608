package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// MaskPAN скрывает все символы ПАН, кроме двух первых и двух последних
func MaskPAN(pan string) string {
	if len(pan) <= 4 {
		return pan
	}
	masked := []byte(pan)
	for i := 2; i < len(masked)-2; i++ {
		masked[i] = '*'
	}
	return string(masked)
}

// SignPayload возвращает HMAC-SHA256 подпись данных в hex.
// Используется для штампа целостности на экспортируемых выписках.
func SignPayload(payload []byte, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayload проверяет подпись данных
func VerifyPayload(payload []byte, key, signature string) bool {
	expected := SignPayload(payload, key)
	return hmac.Equal([]byte(expected), []byte(signature))
}
