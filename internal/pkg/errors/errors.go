package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок авторизации (неверный или чужой тикет сессии).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда тикет сессии истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния (например, повторная запись результата игры).
	ErrConflict = errors.New("resource state conflict")

	// ErrSessionFinished возвращается при попытке продолжить завершённую игру.
	ErrSessionFinished = errors.New("game session is finished")

	// ErrNoData сигнализирует, что в журнале результатов ещё нет ни одного раунда.
	ErrNoData = errors.New("no performance data")
)
