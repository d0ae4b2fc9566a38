package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenIsNotRefresh    = fmt.Errorf("токен не является refresh-токеном")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader    = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader  = fmt.Errorf("неверный формат заголовка авторизации")
	ErrInvalidCredentials = fmt.Errorf("неверные учётные данные")
	ErrUnauthorized       = fmt.Errorf("неавторизован")
	ErrForbidden          = fmt.Errorf("доступ запрещён")
	ErrUserInactive       = fmt.Errorf("учётная запись деактивирована")
	ErrInvalidCronToken   = fmt.Errorf("неверный токен планировщика")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// SLA-пауза: нарушение чередования pause/resume
	ErrAlreadyPaused = fmt.Errorf("задача уже на SLA-паузе")
	ErrNotPaused     = fmt.Errorf("задача не находится на SLA-паузе")

	// Балансировщик и ограничители
	ErrGuardrailViolation   = fmt.Errorf("превышен лимит назначений для исполнителя")
	ErrConcurrencyConflict  = fmt.Errorf("конфликт одновременного изменения, повторите попытку")
	ErrTaskAlreadyTerminal  = fmt.Errorf("задача уже находится в завершённом статусе")
	ErrSubtasksNotCompleted = fmt.Errorf("нельзя завершить задачу: не все подзадачи завершены")
)

var statusBySentinel = []struct {
	err    error
	status int
}{
	{ErrNotFound, http.StatusNotFound},
	{ErrBadRequest, http.StatusBadRequest},
	{ErrAlreadyPaused, http.StatusBadRequest},
	{ErrNotPaused, http.StatusBadRequest},
	{ErrGuardrailViolation, http.StatusBadRequest},
	{ErrTaskAlreadyTerminal, http.StatusBadRequest},
	{ErrSubtasksNotCompleted, http.StatusBadRequest},
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrEmptyAuthHeader, http.StatusUnauthorized},
	{ErrInvalidAuthHeader, http.StatusUnauthorized},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrTokenExpired, http.StatusUnauthorized},
	{ErrTokenIsNotRefresh, http.StatusUnauthorized},
	{ErrTokenIsNotAccess, http.StatusUnauthorized},
	{ErrInvalidSigningMethod, http.StatusUnauthorized},
	{ErrUserIDNotFoundInContext, http.StatusUnauthorized},
	{ErrInvalidCronToken, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrUserInactive, http.StatusForbidden},
	{ErrConcurrencyConflict, http.StatusConflict},
}

// StatusOf возвращает HTTP-статус для известных бизнес-ошибок, включая
// обёрнутые через %w. Всё неизвестное считается внутренней ошибкой сервера.
func StatusOf(err error) int {
	for _, m := range statusBySentinel {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// HttpError — ошибка с явным HTTP-кодом и сообщением для клиента.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}

// InvalidInputError — ошибка валидации входных данных.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}
