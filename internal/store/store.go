// store задаёт контракт локального хранилища пары токенов.
//
// Хранилище переживает перезапуск клиента, но не переносится между
// машинами/профилями. Кроме двух непрозрачных строк ничего не
// персистится: профиль пользователя всегда запрашивается заново.
package store

import "errors"

var (
	// ErrNotFound — запрошенный токен отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable — хранилище недоступно (нет прав/каталога и т.п.).
	// Сессия трактует это как "всегда неаутентифицирован", не как фатал.
	ErrUnavailable = errors.New("storage unavailable")
)

// Store выполняет операции над локальной парой токенов.
type Store interface {
	// AccessToken возвращает сохранённый access-токен.
	AccessToken() (string, error)
	// RefreshToken возвращает сохранённый refresh-токен.
	RefreshToken() (string, error)
	// SaveTokens атомарно перезаписывает оба токена.
	SaveTokens(access, refresh string) error
	// Clear удаляет оба токена; идемпотентен.
	Clear() error
}
