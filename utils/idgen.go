package utils

import (
	"strings"

	"github.com/google/uuid"
)

// IDAllocator выдает уникальные номера счетов.
// Выделен в интерфейс, чтобы генерация идентификаторов была
// подменяемой зависимостью, а не встроенной случайностью.
type IDAllocator interface {
	AccountNumber(prefix string) string
}

// UUIDAllocator генерирует номера счетов на основе UUID
type UUIDAllocator struct{}

// NewUUIDAllocator создает новый UUIDAllocator
func NewUUIDAllocator() *UUIDAllocator {
	return &UUIDAllocator{}
}

// AccountNumber возвращает номер счета вида PREFIX-XXXXXXXXXXXXXXXX
func (a *UUIDAllocator) AccountNumber(prefix string) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(raw[:16])
}
