package apperrors

import (
	"errors"
	"fmt"
)

// UsageError нарушенное пользователем предусловие; текст показывается как есть
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// CodeError нарушенный внутренний инвариант; требует лога и оповещения
type CodeError struct {
	Message string
	Err     error
}

func (e *CodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CodeError) Unwrap() error {
	return e.Err
}

// Usagef создаёт UsageError с форматированием
func Usagef(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// Codef создаёт CodeError с форматированием
func Codef(format string, args ...any) error {
	return &CodeError{Message: fmt.Sprintf(format, args...)}
}

// WrapCode оборачивает причину во внутреннюю ошибку
func WrapCode(err error, format string, args ...any) error {
	return &CodeError{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsUsage проверяет, является ли ошибка ошибкой использования
func IsUsage(err error) bool {
	var usage *UsageError
	return errors.As(err, &usage)
}

// IsCode проверяет, является ли ошибка внутренней
func IsCode(err error) bool {
	var code *CodeError
	return errors.As(err, &code)
}

// UserMessage возвращает текст для показа пользователю
func UserMessage(err error) string {
	var usage *UsageError
	if errors.As(err, &usage) {
		return "❌ " + usage.Message
	}
	return "❌ Es ist ein Fehler aufgetreten"
}
