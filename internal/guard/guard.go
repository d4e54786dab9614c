// guard — решение "рисовать или редиректить" для экрана по срезу сессии.
//
// Guard — чистая функция от последнего Snapshot с одной оговоркой:
// экземпляр запоминает уже выданный редирект, чтобы повторные вызовы
// Decide при перерисовках (по несвязанным изменениям состояния) не
// инициировали навигацию второй раз.
package guard

import "github.com/avoronkova/go-docparse-client/internal/session"

// Пути назначения по умолчанию.
const (
	DefaultSignInPath = "/login"
	DefaultHomePath   = "/dashboard"
)

// Action — что делать с экраном.
type Action int

const (
	// ActionWait — состояние сессии ещё не определено: нейтральная
	// заглушка, никаких редиректов.
	ActionWait Action = iota
	// ActionRender — показать содержимое экрана.
	ActionRender
	// ActionRedirect — ничего не рисовать, перейти на Target.
	ActionRedirect
)

// Decision — результат оценки экрана.
type Decision struct {
	Action Action
	// Target — путь назначения при ActionRedirect, иначе пустой.
	Target string
	// Repeat — редирект для этого же разрешённого состояния уже был
	// выдан ранее; вызывающий не должен навигировать повторно.
	Repeat bool
}

// Guard оценивает экраны относительно одной сессии.
// Потокобезопасность не требуется: Guard живёт в однопоточном UI-цикле.
type Guard struct {
	// SignInPath — куда уводить неаутентифицированного с защищённого экрана.
	SignInPath string
	// HomePath — куда уводить аутентифицированного с public-only экрана.
	HomePath string

	redirected bool
	lastState  session.State
}

// New создаёт Guard с путями по умолчанию вместо пустых.
func New(signInPath, homePath string) *Guard {
	if signInPath == "" {
		signInPath = DefaultSignInPath
	}
	if homePath == "" {
		homePath = DefaultHomePath
	}

	return &Guard{SignInPath: signInPath, HomePath: homePath}
}

// Decide оценивает экран с требованием requiresAuth против среза snap.
//
// Пока IsLoading — всегда ActionWait. После разрешения:
// защищённый экран без аутентификации уводит на SignInPath,
// public-only экран при активной сессии уводит на HomePath,
// иначе — ActionRender.
func (g *Guard) Decide(snap session.Snapshot, requiresAuth bool) Decision {
	// Переход состояния (включая возврат в загрузку) снимает защёлку.
	if snap.State != g.lastState {
		g.lastState = snap.State
		g.redirected = false
	}

	if snap.IsLoading() {
		return Decision{Action: ActionWait}
	}

	var target string
	switch {
	case requiresAuth && !snap.IsAuthenticated():
		target = g.SignInPath
	case !requiresAuth && snap.IsAuthenticated():
		target = g.HomePath
	default:
		return Decision{Action: ActionRender}
	}

	if g.redirected {
		return Decision{Action: ActionRedirect, Target: target, Repeat: true}
	}

	g.redirected = true
	return Decision{Action: ActionRedirect, Target: target}
}
