package services

import (
	"errors"
	"fmt"
)

// ErrorKind представляет категорию бизнес-ошибки.
// Контроллеры отображают категорию в HTTP-статус, поэтому сервисы
// никогда не возвращают "голые" ошибки — только типизированные.
type ErrorKind string

const (
	ErrKindValidation        ErrorKind = "VALIDATION"         // Нарушен минимум/формат входных данных
	ErrKindConflict          ErrorKind = "CONFLICT"           // Нарушена уникальность (дубликат счета, ПАН)
	ErrKindPrecondition      ErrorKind = "PRECONDITION"       // Отсутствует требуемое предшествующее состояние
	ErrKindInsufficientFunds ErrorKind = "INSUFFICIENT_FUNDS" // Недостаточно средств
	ErrKindPolicyViolation   ErrorKind = "POLICY_VIOLATION"   // Нарушено бизнес-правило
	ErrKindNotFound          ErrorKind = "NOT_FOUND"          // Объект не найден или не принадлежит вызывающему
	ErrKindState             ErrorKind = "STATE"              // Операция недопустима из текущего статуса
	ErrKindStorage           ErrorKind = "STORAGE"            // Ошибка хранилища, операция полностью откачена
)

// Error представляет типизированную ошибку сервисного слоя
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // Исходная ошибка хранилища, если есть
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError создает ошибку валидации входных данных
func NewValidationError(message string) *Error {
	return &Error{Kind: ErrKindValidation, Message: message}
}

// NewConflictError создает ошибку нарушения уникальности
func NewConflictError(message string) *Error {
	return &Error{Kind: ErrKindConflict, Message: message}
}

// NewPreconditionError создает ошибку отсутствующего предусловия
func NewPreconditionError(message string) *Error {
	return &Error{Kind: ErrKindPrecondition, Message: message}
}

// NewInsufficientFundsError создает ошибку нехватки средств
func NewInsufficientFundsError(message string) *Error {
	return &Error{Kind: ErrKindInsufficientFunds, Message: message}
}

// NewPolicyViolationError создает ошибку нарушения бизнес-правила
func NewPolicyViolationError(message string) *Error {
	return &Error{Kind: ErrKindPolicyViolation, Message: message}
}

// NewNotFoundError создает ошибку отсутствия объекта
func NewNotFoundError(message string) *Error {
	return &Error{Kind: ErrKindNotFound, Message: message}
}

// NewStateError создает ошибку недопустимого статуса
func NewStateError(message string) *Error {
	return &Error{Kind: ErrKindState, Message: message}
}

// NewStorageError оборачивает ошибку хранилища, не проглатывая причину
func NewStorageError(message string, err error) *Error {
	return &Error{Kind: ErrKindStorage, Message: message, Err: err}
}

// KindOf возвращает категорию ошибки или ErrKindStorage для неизвестных ошибок
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindStorage
}

// IsKind проверяет, относится ли ошибка к заданной категории
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
