// session — реактивное состояние аутентификации клиента.
//
// Пакет реализует жизненный цикл сессии поверх client (сетевые вызовы)
// и store (локальная пара токенов):
//
//	Bootstrapping -> Resolving -> Authenticated | Unauthenticated
//
// Основные аспекты:
//   - Session — инжектируемый контейнер, не синглтон уровня пакета:
//     тесты поднимают независимые сессии параллельно.
//   - Переходы применяются в порядке ЗАВЕРШЕНИЯ операций, устаревшие
//     завершения отбрасываются по счётчику поколений: profile-запрос,
//     прилетевший после logout, не реаутентифицирует пользователя.
//   - Инвариант IsAuthenticated => !IsLoading зашит в Snapshot структурно:
//     оба предиката выводятся из одного поля State.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/avoronkova/go-docparse-client/internal/client"
	"github.com/avoronkova/go-docparse-client/internal/models"
	"github.com/avoronkova/go-docparse-client/internal/pkg/log"
	"github.com/avoronkova/go-docparse-client/internal/pkg/redact"
	"github.com/avoronkova/go-docparse-client/internal/store"
	"github.com/avoronkova/go-docparse-client/internal/token"
)

// State — фаза жизненного цикла сессии.
type State string

const (
	// StateBootstrapping — начальное состояние до первого Resolve.
	StateBootstrapping State = "bootstrapping"
	// StateResolving — идёт определение состояния (profile/refresh в полёте).
	StateResolving State = "resolving"
	// StateAuthenticated — профиль получен, токен действителен.
	StateAuthenticated State = "authenticated"
	// StateUnauthenticated — сессии нет; UI показывает вход.
	StateUnauthenticated State = "unauthenticated"
)

// Snapshot — неизменяемый срез состояния, который получают подписчики.
type Snapshot struct {
	State State
	User  *models.User
}

// IsLoading — состояние ещё не определено; потребители не должны
// ветвиться по IsAuthenticated, пока IsLoading == true.
func (s Snapshot) IsLoading() bool {
	return s.State == StateBootstrapping || s.State == StateResolving
}

// IsAuthenticated — сессия подтверждена профилем.
func (s Snapshot) IsAuthenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}

// AuthAPI — контракт сетевого клиента, нужный сессии.
//
//go:generate mockgen -source=session.go -destination=../../mocks/mock_authapi.go -package=mocks AuthAPI
type AuthAPI interface {
	// Login выполняет вход; при успехе токены уже сохранены.
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	// Register регистрирует пользователя; при успехе токены уже сохранены.
	Register(ctx context.Context, name, email, password, companyName string) (*models.AuthResult, error)
	// Logout — best-effort инвалидация на сервере + очистка хранилища.
	Logout(ctx context.Context) error
	// Profile возвращает профиль владельца access-токена.
	Profile(ctx context.Context) (*models.User, error)
	// Refresh обменивает refresh-токен на новую пару.
	Refresh(ctx context.Context) (*models.TokenPair, error)
}

// Проверка, что боевой клиент удовлетворяет контракту.
var _ AuthAPI = (*client.Client)(nil)

// Session — процессное состояние аутентификации.
type Session struct {
	api   AuthAPI
	store store.Store

	mu      sync.Mutex
	state   State
	user    *models.User
	gen     uint64
	subs    map[int]func(Snapshot)
	nextSub int
}

// New создаёт сессию в состоянии Bootstrapping.
func New(api AuthAPI, st store.Store) *Session {
	return &Session{
		api:   api,
		store: st,
		state: StateBootstrapping,
		subs:  make(map[int]func(Snapshot)),
	}
}

// Snapshot возвращает текущий срез состояния.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{State: s.state, User: s.user}
}

// Subscribe регистрирует подписчика на переходы состояния.
// Возвращает функцию отписки; её можно звать многократно.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Resolve определяет состояние сессии по локальным токенам и профилю.
//
// Поведение:
//   - токена нет вообще — Unauthenticated БЕЗ сетевого вызова;
//   - токен есть, но истёк — сперва тихий refresh; его провал (кроме
//     сетевого) чистит токены;
//   - profile 401 — Unauthenticated + очистка токенов;
//   - сетевой сбой — Unauthenticated, токены ОСТАЮТСЯ: только
//     авторитетное "учётные данные недействительны" стирает их.
func (s *Session) Resolve(ctx context.Context) Snapshot {
	const op = "session.Resolve"

	lg := log.From(ctx)
	g := s.beginLoading()

	access, err := s.store.AccessToken()
	if err != nil {
		// Недоступное хранилище деградирует туда же, куда и пустое.
		return s.complete(g, StateUnauthenticated, nil)
	}

	if token.IsExpired(access) {
		if _, err := s.api.Refresh(ctx); err != nil {
			if !errors.Is(err, client.ErrNetwork) {
				_ = s.store.Clear()
			}
			lg.Debug("silent_refresh_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return s.complete(g, StateUnauthenticated, nil)
		}
	}

	user, err := s.api.Profile(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			_ = s.store.Clear()
		}
		lg.Debug("profile_fetch_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return s.complete(g, StateUnauthenticated, nil)
	}

	return s.complete(g, StateAuthenticated, user)
}

// Login выполняет вход и при успехе переводит сессию в Authenticated.
func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	const op = "session.Login"

	lg := log.From(ctx)
	g := s.begin()

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.complete(g, StateUnauthenticated, nil)
		return nil, err
	}

	lg.Info("session_authenticated",
		slog.String("op", op),
		slog.String("email", redact.Email(res.User.Email)),
	)

	s.complete(g, StateAuthenticated, &res.User)
	return &res.User, nil
}

// Register регистрирует пользователя и при успехе сразу аутентифицирует.
func (s *Session) Register(ctx context.Context, name, email, password, companyName string) (*models.User, error) {
	g := s.begin()

	res, err := s.api.Register(ctx, name, email, password, companyName)
	if err != nil {
		s.complete(g, StateUnauthenticated, nil)
		return nil, err
	}

	s.complete(g, StateAuthenticated, &res.User)
	return &res.User, nil
}

// Logout завершает сессию. Переход в Unauthenticated применяется ДО
// сетевого вызова: это самое свежее намерение пользователя, и оно
// обесценивает любые ещё летящие profile/refresh (их поколения
// становятся устаревшими). С точки зрения пользователя logout успешен
// всегда, даже если серверный вызов упал.
func (s *Session) Logout(ctx context.Context) {
	g := s.begin()
	s.complete(g, StateUnauthenticated, nil)

	_ = s.api.Logout(ctx)
}

// begin начинает новую операцию: поднимает поколение, не трогая состояние.
func (s *Session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	return s.gen
}

// beginLoading — begin + перевод в загрузочную фазу с уведомлением.
// Из Bootstrapping состояние не меняется (первый Resolve), иначе — Resolving.
func (s *Session) beginLoading() uint64 {
	s.mu.Lock()

	s.gen++
	g := s.gen
	if s.state != StateBootstrapping {
		s.state = StateResolving
	}
	snap := Snapshot{State: s.state, User: s.user}
	subs := s.subscribers()

	s.mu.Unlock()

	notify(subs, snap)
	return g
}

// complete применяет результат операции поколения g.
// Если g устарело (после начала операции стартовала более новая),
// результат отбрасывается и возвращается актуальный срез.
func (s *Session) complete(g uint64, state State, user *models.User) Snapshot {
	s.mu.Lock()

	if g != s.gen {
		snap := Snapshot{State: s.state, User: s.user}
		s.mu.Unlock()
		return snap
	}

	s.state = state
	s.user = user
	snap := Snapshot{State: s.state, User: s.user}
	subs := s.subscribers()

	s.mu.Unlock()

	notify(subs, snap)
	return snap
}

// subscribers копирует список подписчиков под блокировкой.
func (s *Session) subscribers() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}

	return out
}

// notify зовёт подписчиков вне блокировки: подписчик имеет право
// дернуть Snapshot()/Subscribe() из колбэка.
func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
