package reservation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrVehicleNotFound — для автомобиля нет каталога, расчёт цены невозможен.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrInvalidTransition — переход не из текущего шага.
	ErrInvalidTransition = errors.New("invalid workflow transition")
	// ErrSubmissionInProgress — отправка этого черновика уже выполняется.
	ErrSubmissionInProgress = errors.New("submission already in progress")
	// ErrUploadFailed — не удалось загрузить хотя бы один документ.
	ErrUploadFailed = errors.New("document upload failed")
	// ErrPersistenceFailed — запись не сохранилась ни в основное, ни в резервное хранилище.
	ErrPersistenceFailed = errors.New("subscription record could not be persisted")
	// ErrSessionNotFound — у пользователя нет активной сессии.
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError содержит сообщения об ошибках по именам полей.
// Шаг при такой ошибке не меняется.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

type fieldErrors map[string]string

func (f fieldErrors) check(ok bool, field, msg string) {
	if !ok {
		if _, exists := f[field]; !exists {
			f[field] = msg
		}
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
