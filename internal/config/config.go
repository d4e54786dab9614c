// config предоставляет структуру конфигурации клиента и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация клиента DocParse.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Guard   GuardConfig   `yaml:"guard"`
	Stub    StubConfig    `yaml:"stub"`
}

// APIConfig — параметры доступа к REST-бэкенду платформы.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:50090/api"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"15s"`
}

// StorageConfig — локальное хранилище пары токенов.
type StorageConfig struct {
	// TokensPath — путь к файлу токенов; пустой — дефолт под домашним
	// каталогом (см. Path).
	TokensPath string `yaml:"tokens_path" env:"TOKENS_PATH" env-default:""`
}

// Path возвращает фактический путь файла токенов:
// заданный явно либо ~/.docparse/tokens.json.
func (s StorageConfig) Path() string {
	if s.TokensPath != "" {
		return s.TokensPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		// Нет домашнего каталога — работаем из текущей директории.
		return filepath.Join(".docparse", "tokens.json")
	}

	return filepath.Join(home, ".docparse", "tokens.json")
}

// GuardConfig — пути назначения редиректов для экранов дашборда.
type GuardConfig struct {
	SignInPath string `yaml:"sign_in_path" env:"GUARD_SIGN_IN_PATH" env-default:"/login"`
	HomePath   string `yaml:"home_path" env:"GUARD_HOME_PATH" env-default:"/dashboard"`
}

// StubConfig — настройки dev-заглушки бэкенда (docparse-stub).
type StubConfig struct {
	Host            string        `yaml:"host" env:"STUB_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"STUB_PORT" env-default:"50090"`
	JWTSecret       string        `yaml:"jwt_secret" env:"STUB_JWT_SECRET" env-default:"dev-secret"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"STUB_ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"STUB_REFRESH_TOKEN_TTL" env-default:"720h"`
	Issuer          string        `yaml:"issuer" env:"STUB_ISSUER" env-default:"docparse-stub"`
}

// Addr возвращает адрес в формате host:port.
func (s StubConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
			return nil, fmt.Errorf("failed to read local.yaml: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
