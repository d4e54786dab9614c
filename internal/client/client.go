// client — HTTP-клиент auth-эндпоинтов платформы DocParse.
//
// Основные аспекты:
//   - Экземпляр Client безопасен для конкурентного использования при
//     условии, что переданное хранилище (store.Store) потокобезопасно.
//   - Все транспортные/HTTP-ошибки нормализуются в таксономию из
//     errors.go; наружу не утекают *url.Error и прочие детали транспорта.
//   - Клиент не ретраит запросы: политика повторов — дело вызывающего
//     (session ретраит bootstrap при сетевых сбоях следующим Resolve).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/avoronkova/go-docparse-client/internal/pkg/log"
	"github.com/avoronkova/go-docparse-client/internal/store"
)

// Client выполняет REST-вызовы к /auth/* и поддерживает локальное
// хранилище токенов в согласованном состоянии.
type Client struct {
	httpc   *http.Client
	baseURL string
	store   store.Store

	// refreshGroup склеивает конкурентные Refresh в один сетевой запрос.
	refreshGroup singleflight.Group
}

// New создаёт клиент. timeout — верхняя граница на один запрос
// (транспортный таймаут, см. комментарий к ErrNetwork).
func New(baseURL string, timeout time.Duration, st store.Store) *Client {
	return &Client{
		httpc:   &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   st,
	}
}

// apiError — формат ошибки бэкенда (тот же конверт, что отдаёт фронту
// api-слой платформы). Используется только ради message: маппинг в
// таксономию идёт по HTTP-статусу, а не по телу.
type apiError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// do выполняет один JSON round-trip.
// body == nil — запрос без тела; out == nil — тело ответа не нужно.
// authed — добавить Authorization: Bearer из хранилища.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	const op = "client.do"

	lg := log.From(ctx)

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		access, err := c.store.AccessToken()
		if err != nil {
			// Нет токена — авторизованный запрос не имеет смысла,
			// наружу отдаём тот же класс ошибки, что и 401 сервера.
			return fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		lg.Debug("request_transport_failed",
			slog.String("op", op),
			slog.String("path", path),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, ErrNetwork)
	}
	defer func() { _ = resp.Body.Close() }()

	// Успех — только 2xx: редиректы транспорт следует сам, а просочившиеся
	// 3xx (например, 304) телом для декодирования не располагают.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s: %w", op, normalizeStatus(resp))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: %w", op, ErrUnknown)
		}
	}

	return nil
}

// normalizeStatus маппит HTTP-статус в таксономию клиента, сохраняя
// message бэкенда для показа пользователю.
func normalizeStatus(resp *http.Response) error {
	msg := serverMessage(resp)

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = ErrUnauthorized
	case http.StatusConflict:
		kind = ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = ErrValidation
	case http.StatusNotFound:
		kind = ErrNotFound
	default:
		kind = ErrUnknown
	}

	if msg == "" {
		return kind
	}

	return fmt.Errorf("%s: %w", msg, kind)
}

// serverMessage достаёт безопасное message из конверта ошибки; пустая
// строка, если тело не парсится.
func serverMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return ""
	}

	var ae apiError
	if err := json.Unmarshal(data, &ae); err != nil {
		return ""
	}

	return ae.Error.Message
}
