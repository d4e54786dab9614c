package client

import "errors"

var (
	// ErrUnauthorized — 401: неверные учётные данные либо
	// недействительный/истёкший токен. Сессия по нему чистит токены.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict — 409: e-mail уже занят при регистрации.
	ErrConflict = errors.New("already exists")

	// ErrValidation — 400/422: бэкенд отверг вход как некорректный.
	ErrValidation = errors.New("invalid argument")

	// ErrNotFound — 404: сущность не найдена (например, токен сброса пароля).
	ErrNotFound = errors.New("not found")

	// ErrNetwork — ответ сервера не получен (DNS/коннект/таймаут транспорта).
	// Принципиально отличается от ErrUnauthorized: сетевые сбои НЕ чистят
	// локальные токены, повтор при появлении связи может пройти.
	ErrNetwork = errors.New("network error")

	// ErrNoRefreshToken — Refresh вызван без сохранённого refresh-токена.
	ErrNoRefreshToken = errors.New("no refresh token")

	// ErrUnknown — любой прочий сбой (5xx, битое тело ответа и т.п.).
	ErrUnknown = errors.New("unknown error")
)
