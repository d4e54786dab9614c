// token — чистые функции предсказания срока жизни access-токена.
//
// Декодирование здесь НЕ проверяет подпись: клиент использует payload
// только как UX-подсказку (когда пора обновляться), реальная авторизация
// происходит на бэкенде при каждом запросе. Никакая функция пакета не
// паникует и не доверяет содержимому токена.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpirySkew — запас до формального истечения access-токена.
// Токен считается истёкшим за 30 секунд до exp, чтобы не отправить
// запрос с токеном, который протухнет в полёте.
const ExpirySkew = 30 * time.Second

// DefaultSoonThreshold — порог WillExpireSoon по умолчанию.
const DefaultSoonThreshold = 5 * time.Minute

// ErrMalformedToken — строка не является структурно корректным JWT
// (не три сегмента / payload не декодируется как base64url-JSON).
var ErrMalformedToken = errors.New("malformed token")

// Decode разбирает payload токена без проверки подписи.
// Возвращает ErrMalformedToken при любой структурной ошибке.
func Decode(tokenStr string) (jwt.MapClaims, error) {
	const op = "token.Decode"

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrMalformedToken)
	}

	return claims, nil
}

// IsExpired сообщает, можно ли ещё предъявлять токен.
// true — если токен не декодируется, exp отсутствует или
// now >= exp - ExpirySkew.
func IsExpired(tokenStr string) bool {
	exp, ok := expiresAt(tokenStr)
	if !ok {
		return true
	}

	return !time.Now().Before(exp.Add(-ExpirySkew))
}

// TimeUntilExpiration возвращает остаток жизни токена (без учёта skew).
// 0 — если токен не декодируется или уже истёк.
func TimeUntilExpiration(tokenStr string) time.Duration {
	exp, ok := expiresAt(tokenStr)
	if !ok {
		return 0
	}

	remaining := time.Until(exp)
	if remaining < 0 {
		return 0
	}

	return remaining
}

// WillExpireSoon — остаток жизни токена не больше threshold.
// При threshold <= 0 используется DefaultSoonThreshold.
func WillExpireSoon(tokenStr string, threshold time.Duration) bool {
	if threshold <= 0 {
		threshold = DefaultSoonThreshold
	}

	return TimeUntilExpiration(tokenStr) <= threshold
}

// expiresAt достаёт exp из payload; ok=false, если exp нет или токен битый.
func expiresAt(tokenStr string) (time.Time, bool) {
	claims, err := Decode(tokenStr)
	if err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}
