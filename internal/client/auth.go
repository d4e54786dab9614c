package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/avoronkova/go-docparse-client/internal/models"
	"github.com/avoronkova/go-docparse-client/internal/pkg/log"
	"github.com/avoronkova/go-docparse-client/internal/pkg/redact"
)

// Формы запросов/ответов — внешний контракт бэкенда (см. /auth/*).
type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type authResponse struct {
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register регистрирует пользователя. При успехе оба токена уже
// сохранены в хранилище к моменту возврата.
func (c *Client) Register(ctx context.Context, name, email, password, companyName string) (*models.AuthResult, error) {
	const op = "client.auth.Register"

	lg := log.From(ctx)

	var out authResponse
	req := registerRequest{Name: name, Email: email, Password: password, CompanyName: companyName}
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out, false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.store.SaveTokens(out.Token, out.RefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("registered",
		slog.String("op", op),
		slog.String("email", redact.Email(out.User.Email)),
	)

	return &models.AuthResult{
		User: out.User,
		Tokens: models.TokenPair{
			AccessToken:  out.Token,
			RefreshToken: out.RefreshToken,
		},
	}, nil
}

// Login выполняет вход по email+пароль с тем же побочным эффектом
// сохранения токенов, что и Register.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	const op = "client.auth.Login"

	lg := log.From(ctx)

	var out authResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out, false); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.store.SaveTokens(out.Token, out.RefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("logged_in",
		slog.String("op", op),
		slog.String("email", redact.Email(out.User.Email)),
	)

	return &models.AuthResult{
		User: out.User,
		Tokens: models.TokenPair{
			AccessToken:  out.Token,
			RefreshToken: out.RefreshToken,
		},
	}, nil
}

// Logout отправляет best-effort запрос на инвалидацию серверной сессии.
// Локальные токены чистятся НЕЗАВИСИМО от исхода сетевого вызова:
// сбой сети не должен оставить протухшие учётные данные на диске.
func (c *Client) Logout(ctx context.Context) error {
	const op = "client.auth.Logout"

	lg := log.From(ctx)

	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true); err != nil {
		lg.Debug("logout_call_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
	}

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Profile возвращает профиль владельца access-токена.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	const op = "client.auth.Profile"

	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &out, true); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &out, nil
}

// Refresh обменивает refresh-токен на новую пару и перезаписывает
// хранилище. Конкурентные вызовы склеиваются: по проводу уходит один
// запрос, все ожидающие получают его результат (контекст запроса —
// у первого вызвавшего).
func (c *Client) Refresh(ctx context.Context) (*models.TokenPair, error) {
	const op = "client.auth.Refresh"

	v, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		refresh, err := c.store.RefreshToken()
		if err != nil {
			return nil, ErrNoRefreshToken
		}

		var out refreshResponse
		if err := c.do(ctx, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refresh}, &out, false); err != nil {
			return nil, err
		}

		if err := c.store.SaveTokens(out.Token, out.RefreshToken); err != nil {
			return nil, err
		}

		return &models.TokenPair{
			AccessToken:  out.Token,
			RefreshToken: out.RefreshToken,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return v.(*models.TokenPair), nil
}

// VerifyEmail подтверждает e-mail по токену из письма.
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	const op = "client.auth.VerifyEmail"

	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", map[string]string{"token": token}, &out, false); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out.Message, nil
}

// RequestPasswordReset запрашивает письмо со ссылкой сброса пароля.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	const op = "client.auth.RequestPasswordReset"

	var out messageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, &out, false); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out.Message, nil
}

// ResetPassword устанавливает новый пароль по токену сброса.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (string, error) {
	const op = "client.auth.ResetPassword"

	var out messageResponse
	body := map[string]string{"token": token, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/reset-password", body, &out, false); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return out.Message, nil
}
