package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Вспомогательные хелперы.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// Полный корректный YAML с заданными значениями (не зависящими от дефолтов).
const sampleYAML = `
env: "prod"
api:
  base_url: "https://api.docparse.example/api"
  timeout: "7s"
storage:
  tokens_path: "/tmp/docparse-tokens.json"
guard:
  sign_in_path: "/signin"
  home_path: "/home"
stub:
  host: "127.0.0.1"
  port: "6001"
  jwt_secret: "super-secret"
  access_token_ttl: "10m"
  refresh_token_ttl: "240h"
  issuer: "issuerX"
`

// Некорректный YAML — для проверки ошибок парсинга.
const brokenYAML = `
api:
  base_url: [unclosed
`

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "https://api.docparse.example/api", cfg.API.BaseURL)
	require.Equal(t, 7*time.Second, cfg.API.Timeout)
	require.Equal(t, "/tmp/docparse-tokens.json", cfg.Storage.Path())
	require.Equal(t, "/signin", cfg.Guard.SignInPath)
	require.Equal(t, "127.0.0.1:6001", cfg.Stub.Addr())
	require.Equal(t, 10*time.Minute, cfg.Stub.AccessTokenTTL)
}

func TestLoad_ExplicitPathMissing_Error(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_BrokenYAML_Error(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", brokenYAML)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_FromConfigPathEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
}

func TestLoad_FromLocalYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "local.yaml", sampleYAML)
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "https://api.docparse.example/api", cfg.API.BaseURL)
}

func TestLoad_EnvOnly_Defaults(t *testing.T) {
	chdir(t, t.TempDir()) // рядом нет local.yaml

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "local", cfg.Env)
	require.Equal(t, "http://localhost:50090/api", cfg.API.BaseURL)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, "/login", cfg.Guard.SignInPath)
	require.Equal(t, "/dashboard", cfg.Guard.HomePath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cfg.yaml", sampleYAML)
	t.Setenv("API_BASE_URL", "http://override:9000/api")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://override:9000/api", cfg.API.BaseURL)
	// Остальное — из файла.
	require.Equal(t, "prod", cfg.Env)
}

func TestStoragePath_DefaultUnderHome(t *testing.T) {
	cfg := StorageConfig{}
	path := cfg.Path()
	require.Contains(t, path, filepath.Join(".docparse", "tokens.json"))
}
