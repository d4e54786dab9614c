// stubapi — dev-заглушка REST-бэкенда платформы DocParse.
//
// Заглушка реализует контракт /auth/* целиком в памяти: bcrypt-хэши
// паролей, HS256 access-токены, непрозрачные refresh-токены с ротацией.
// Назначение — локальная разработка CLI и интеграционные тесты клиента;
// продовый бэкенд она не заменяет (ничего не переживает рестарт).
package stubapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avoronkova/go-docparse-client/internal/config"
	"github.com/avoronkova/go-docparse-client/internal/models"
)

type userRecord struct {
	user         models.User
	passwordHash string
}

type refreshRecord struct {
	userID    string
	expiresAt time.Time
	revoked   bool
}

type resetRecord struct {
	userID    string
	expiresAt time.Time
}

// Server — состояние заглушки. Все мапы под одним мьютексом:
// нагрузки dev-сценария это не замечает.
type Server struct {
	cfg config.StubConfig

	mu      sync.Mutex
	byEmail map[string]*userRecord
	byID    map[string]*userRecord
	refresh map[string]*refreshRecord // ключ — sha256-хэш refresh-токена
	verify  map[string]string         // verify-токен -> userID
	resets  map[string]resetRecord    // reset-токен -> запись
}

// New создаёт пустую заглушку.
func New(cfg config.StubConfig) *Server {
	return &Server{
		cfg:     cfg,
		byEmail: make(map[string]*userRecord),
		byID:    make(map[string]*userRecord),
		refresh: make(map[string]*refreshRecord),
		verify:  make(map[string]string),
		resets:  make(map[string]resetRecord),
	}
}

// Router собирает http.Handler с chi и подключёнными middleware/роутами.
// basePath — префикс вида "/api"; пустой — роуты на корне.
func (s *Server) Router(logger *slog.Logger, basePath string) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		Recover(),       // безопасно ловим паники
		RequestID(),     // формируем/прокидываем X-Request-Id (до логирования!)
		Logging(logger), // кладём request-scoped логгер в контекст и логируем
	)

	if basePath != "" {
		sub := chi.NewRouter()
		s.registerRoutes(sub)
		root.Mount(basePath, sub)
		return root
	}

	s.registerRoutes(root)
	return root
}

// registerRoutes — единая точка регистрации эндпойнтов контракта.
func (s *Server) registerRoutes(r chi.Router) {
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.Get("/auth/profile", s.handleProfile)
	r.Post("/auth/refresh", s.handleRefresh)
	r.Post("/auth/verify-email", s.handleVerifyEmail)
	r.Post("/auth/forgot-password", s.handleForgotPassword)
	r.Post("/auth/reset-password", s.handleResetPassword)
}
