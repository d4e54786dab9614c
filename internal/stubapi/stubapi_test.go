package stubapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avoronkova/go-docparse-client/internal/config"
)

func testCfg() config.StubConfig {
	return config.StubConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "docparse-stub",
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	srv := New(testCfg())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := httptest.NewServer(srv.Router(logger, ""))
	t.Cleanup(ts.Close)

	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func register(t *testing.T, baseURL, email string) authResponse {
	t.Helper()

	resp := postJSON(t, baseURL+"/auth/register", registerRequest{
		Name:     "Ana Petrova",
		Email:    email,
		Password: "Abcdef1!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestVerifyEmail_Flow(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	out := register(t, ts.URL, "ana@example.com")
	require.False(t, out.User.Verified)

	// Verify-токен в реальности уходит письмом; тест берёт его из состояния.
	srv.mu.Lock()
	var verifyToken string
	for tok, uid := range srv.verify {
		if uid == out.User.ID {
			verifyToken = tok
		}
	}
	srv.mu.Unlock()
	require.NotEmpty(t, verifyToken)

	resp := postJSON(t, ts.URL+"/auth/verify-email", tokenRequest{Token: verifyToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Повторное использование токена — 404.
	resp = postJSON(t, ts.URL+"/auth/verify-email", tokenRequest{Token: verifyToken})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	srv.mu.Lock()
	require.True(t, srv.byID[out.User.ID].user.Verified)
	srv.mu.Unlock()
}

func TestResetPassword_Flow(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	register(t, ts.URL, "ana@example.com")

	resp := postJSON(t, ts.URL+"/auth/forgot-password", emailRequest{Email: "ana@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	srv.mu.Lock()
	var resetToken string
	for tok := range srv.resets {
		resetToken = tok
	}
	srv.mu.Unlock()
	require.NotEmpty(t, resetToken)

	resp = postJSON(t, ts.URL+"/auth/reset-password", resetRequest{
		Token:    resetToken,
		Password: "NewPass1!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Старый пароль больше не подходит, новый — работает.
	resp = postJSON(t, ts.URL+"/auth/login", loginRequest{Email: "ana@example.com", Password: "Abcdef1!"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/auth/login", loginRequest{Email: "ana@example.com", Password: "NewPass1!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestResetPassword_InvalidatesRefreshTokens(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	out := register(t, ts.URL, "ana@example.com")

	resp := postJSON(t, ts.URL+"/auth/forgot-password", emailRequest{Email: "ana@example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	srv.mu.Lock()
	var resetToken string
	for tok := range srv.resets {
		resetToken = tok
	}
	srv.mu.Unlock()

	resp = postJSON(t, ts.URL+"/auth/reset-password", resetRequest{Token: resetToken, Password: "NewPass1!"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Refresh-токен, выданный до смены пароля, отозван.
	resp = postJSON(t, ts.URL+"/auth/refresh", refreshRequest{RefreshToken: out.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_RevokesRefreshTokens(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)
	out := register(t, ts.URL, "ana@example.com")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/auth/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+out.Token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/auth/refresh", refreshRequest{RefreshToken: out.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// Логин/профиль конкурируют со сменой пароля и верификацией почты за одну
// и ту же запись пользователя; тест ловит гонки под -race.
func TestConcurrentLoginAndReset_NoRace(t *testing.T) {
	t.Parallel()

	srv, ts := newTestServer(t)
	out := register(t, ts.URL, "ana@example.com")

	post := func(path string, body any) {
		data, _ := json.Marshal(body)
		resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(data))
		if err == nil {
			_ = resp.Body.Close()
		}
	}

	const iterations = 20

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			post("/auth/login", loginRequest{Email: "ana@example.com", Password: "Abcdef1!"})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			req, _ := http.NewRequest(http.MethodGet, ts.URL+"/auth/profile", nil)
			req.Header.Set("Authorization", "Bearer "+out.Token)
			if resp, err := http.DefaultClient.Do(req); err == nil {
				_ = resp.Body.Close()
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			tok := newOpaqueToken()
			srv.mu.Lock()
			srv.resets[tok] = resetRecord{
				userID:    out.User.ID,
				expiresAt: time.Now().UTC().Add(time.Hour),
			}
			srv.mu.Unlock()

			post("/auth/reset-password", resetRequest{Token: tok, Password: "Abcdef1!"})
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			tok := newOpaqueToken()
			srv.mu.Lock()
			srv.verify[tok] = out.User.ID
			srv.mu.Unlock()

			post("/auth/verify-email", tokenRequest{Token: tok})
		}
	}()

	wg.Wait()
}

func TestProfile_WrongSecretToken_Unauthorized(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)

	other := New(config.StubConfig{
		JWTSecret:      "another-secret",
		AccessTokenTTL: time.Minute,
		Issuer:         "docparse-stub",
	})
	access, err := other.issueAccessToken("1", "ana@example.com", time.Now().UTC())
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestErrorEnvelope_CarriesRequestID(t *testing.T) {
	t.Parallel()

	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/profile", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "req-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var out errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Equal(t, "unauthenticated", out.Error.Code)
	require.Equal(t, "req-123", out.Error.RequestID)
}
