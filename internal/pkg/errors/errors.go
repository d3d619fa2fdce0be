package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (неверный токен, неверные учетные данные).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия
	// (например, вызов привилегированной операции без admin-роли).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyExists используется для дубликатов (повторное вступление в кампанию,
	// повторная регистрация email).
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict используется для конфликтов состояния (например, попытка
	// продвинуть тестовый день за пределы последнего дня).
	ErrConflict = errors.New("resource state conflict")
)
