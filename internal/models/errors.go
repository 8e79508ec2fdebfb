package models

import (
	"errors"
	"fmt"
)

// ErrIncidentNotFound возвращается хранилищем, если инцидент с таким id не существует
var ErrIncidentNotFound = errors.New("incident not found")

// ValidationError - ошибка нарушения инварианта записи (обязательное поле,
// порядок дат, недопустимый переход статуса)
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// NewValidationError создает ValidationError для поля
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation сообщает, является ли ошибка (или любая в цепочке) ошибкой валидации
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
