// docparse — CLI дашборда платформы DocParse.
//
// Команды работают поверх одной и той же клиентской сессии:
//
//	docparse login|register|logout|whoami|status|
//	         verify-email|forgot-password|reset-password
//
// whoami — "защищённый экран": выполняется только при активной сессии,
// иначе guard уводит на экран входа.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/avoronkova/go-docparse-client/internal/client"
	"github.com/avoronkova/go-docparse-client/internal/config"
	"github.com/avoronkova/go-docparse-client/internal/guard"
	logctx "github.com/avoronkova/go-docparse-client/internal/pkg/log"
	"github.com/avoronkova/go-docparse-client/internal/session"
	filestore "github.com/avoronkova/go-docparse-client/internal/store/file"
	"github.com/avoronkova/go-docparse-client/internal/token"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = usage

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return 2
	}

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = logctx.Into(ctx, log)

	st := filestore.New(cfg.Storage.Path())
	cl := client.New(cfg.API.BaseURL, cfg.API.Timeout, st)
	sess := session.New(cl, st)
	grd := guard.New(cfg.Guard.SignInPath, cfg.Guard.HomePath)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return cmdLogin(ctx, sess, rest)
	case "register":
		return cmdRegister(ctx, sess, rest)
	case "logout":
		sess.Logout(ctx)
		fmt.Println("signed out")
		return 0
	case "whoami":
		return cmdWhoami(ctx, sess, grd)
	case "status":
		return cmdStatus(ctx, sess, st)
	case "verify-email":
		return cmdVerifyEmail(ctx, cl, rest)
	case "forgot-password":
		return cmdForgotPassword(ctx, cl, rest)
	case "reset-password":
		return cmdResetPassword(ctx, cl, rest)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: docparse [--config path] <command> [flags]

commands:
  login            sign in (--email, --password)
  register         create an account (--name, --email, --password, --company)
  logout           sign out and drop local tokens
  whoami           show the current user (requires an active session)
  status           show session state and token expiry
  verify-email     confirm e-mail (--token)
  forgot-password  request a password reset link (--email)
  reset-password   set a new password (--token, --password)`)
}

func cmdLogin(ctx context.Context, sess *session.Session, args []string) int {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account e-mail")
	password := fs.String("password", "", "account password (prompted if empty)")
	_ = fs.Parse(args)

	if *email == "" {
		fmt.Fprintln(os.Stderr, "login: --email is required")
		return 2
	}
	pw := *password
	if pw == "" {
		pw = prompt("password: ")
	}

	user, err := sess.Login(ctx, *email, pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		return 1
	}

	fmt.Printf("signed in as %s <%s>\n", user.Name, user.Email)
	return 0
}

func cmdRegister(ctx context.Context, sess *session.Session, args []string) int {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account e-mail")
	password := fs.String("password", "", "account password (prompted if empty)")
	company := fs.String("company", "", "company name (optional)")
	_ = fs.Parse(args)

	if *name == "" || *email == "" {
		fmt.Fprintln(os.Stderr, "register: --name and --email are required")
		return 2
	}
	pw := *password
	if pw == "" {
		pw = prompt("password: ")
	}

	user, err := sess.Register(ctx, *name, *email, pw, *company)
	if err != nil {
		fmt.Fprintf(os.Stderr, "registration failed: %v\n", err)
		return 1
	}

	fmt.Printf("account created for %s <%s>\n", user.Name, user.Email)
	return 0
}

// cmdWhoami — защищённый экран: рендерится только при активной сессии.
func cmdWhoami(ctx context.Context, sess *session.Session, grd *guard.Guard) int {
	snap := sess.Resolve(ctx)

	switch d := grd.Decide(snap, true); d.Action {
	case guard.ActionRedirect:
		fmt.Fprintf(os.Stderr, "not signed in (sign in at %s)\n", d.Target)
		return 1
	case guard.ActionWait:
		// Resolve синхронный, сюда не попадаем.
		return 1
	}

	u := snap.User
	fmt.Printf("%s <%s>\n", u.Name, u.Email)
	fmt.Printf("role: %s\n", u.Role)
	if u.Company != "" {
		fmt.Printf("company: %s\n", u.Company)
	}
	fmt.Printf("email verified: %v\n", u.Verified)
	return 0
}

func cmdStatus(ctx context.Context, sess *session.Session, st *filestore.Store) int {
	snap := sess.Resolve(ctx)

	fmt.Printf("session: %s\n", snap.State)
	if !snap.IsAuthenticated() {
		return 0
	}

	access, err := st.AccessToken()
	if err != nil {
		return 0
	}

	remaining := token.TimeUntilExpiration(access)
	fmt.Printf("access token expires in: %s\n", remaining.Round(time.Second))
	if token.WillExpireSoon(access, 0) {
		fmt.Println("access token expires soon, it will be refreshed on next use")
	}
	return 0
}

func cmdVerifyEmail(ctx context.Context, cl *client.Client, args []string) int {
	fs := flag.NewFlagSet("verify-email", flag.ExitOnError)
	tok := fs.String("token", "", "verification token from the e-mail")
	_ = fs.Parse(args)

	if *tok == "" {
		fmt.Fprintln(os.Stderr, "verify-email: --token is required")
		return 2
	}

	msg, err := cl.VerifyEmail(ctx, *tok)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verification failed: %v\n", err)
		return 1
	}

	fmt.Println(msg)
	return 0
}

func cmdForgotPassword(ctx context.Context, cl *client.Client, args []string) int {
	fs := flag.NewFlagSet("forgot-password", flag.ExitOnError)
	email := fs.String("email", "", "account e-mail")
	_ = fs.Parse(args)

	if *email == "" {
		fmt.Fprintln(os.Stderr, "forgot-password: --email is required")
		return 2
	}

	msg, err := cl.RequestPasswordReset(ctx, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return 1
	}

	fmt.Println(msg)
	return 0
}

func cmdResetPassword(ctx context.Context, cl *client.Client, args []string) int {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	tok := fs.String("token", "", "reset token from the e-mail")
	password := fs.String("password", "", "new password (prompted if empty)")
	_ = fs.Parse(args)

	if *tok == "" {
		fmt.Fprintln(os.Stderr, "reset-password: --token is required")
		return 2
	}
	pw := *password
	if pw == "" {
		pw = prompt("new password: ")
	}

	msg, err := cl.ResetPassword(ctx, *tok, pw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reset failed: %v\n", err)
		return 1
	}

	fmt.Println(msg)
	return 0
}

func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return ""
	}

	return strings.TrimSpace(sc.Text())
}

// setupLogger настраивает slog по окружению. CLI пишет логи в stderr,
// stdout остаётся для вывода команд.
func setupLogger(env string) *slog.Logger {
	switch env {
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envLocal:
		fallthrough
	default:
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
