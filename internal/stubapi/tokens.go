package stubapi

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
	errTokenRevoked = errors.New("token revoked")
)

type accessClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// issueAccessToken выпускает HS256 access-токен на AccessTokenTTL.
func (s *Server) issueAccessToken(userID, email string, now time.Time) (string, error) {
	const op = "stubapi.tokens.issueAccessToken"

	claims := accessClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken проверяет подпись и срок access-токена.
func (s *Server) validateAccessToken(tokenStr string) (string, error) {
	const op = "stubapi.tokens.validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, errInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%s: %w", op, errTokenExpired)
		}

		return "", fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	return claims.UserID, nil
}

// newRefreshToken создаёт непрозрачный refresh-токен и регистрирует
// его хэш. Вызывать под s.mu.
func (s *Server) newRefreshToken(userID string, now time.Time) (string, error) {
	const op = "stubapi.tokens.newRefreshToken"

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	plain := base64.RawURLEncoding.EncodeToString(b)

	s.refresh[hashToken(plain)] = &refreshRecord{
		userID:    userID,
		expiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}

	return plain, nil
}

// consumeRefreshToken валидирует и СРАЗУ отзывает refresh-токен
// (ротация: каждый токен одноразовый). Вызывать под s.mu.
func (s *Server) consumeRefreshToken(plain string, now time.Time) (string, error) {
	const op = "stubapi.tokens.consumeRefreshToken"

	rec, ok := s.refresh[hashToken(plain)]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, errInvalidToken)
	}

	if rec.revoked {
		return "", fmt.Errorf("%s: %w", op, errTokenRevoked)
	}

	if now.After(rec.expiresAt) {
		return "", fmt.Errorf("%s: %w", op, errTokenExpired)
	}

	rec.revoked = true
	return rec.userID, nil
}

// revokeUserTokens отзывает все refresh-токены пользователя (logout).
// Вызывать под s.mu.
func (s *Server) revokeUserTokens(userID string) {
	for _, rec := range s.refresh {
		if rec.userID == userID {
			rec.revoked = true
		}
	}
}

// hashToken — на сервере храним только sha256-хэш секрета.
func hashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// newOpaqueToken — случайный токен для verify-email / сброса пароля.
func newOpaqueToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
