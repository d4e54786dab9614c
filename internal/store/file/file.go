// file — файловая реализация store.Store.
//
// Пара токенов лежит одним JSON-файлом с правами 0600; запись атомарна
// (временный файл + rename), чтобы конкурентный читатель не увидел
// полузаписанное состояние.
package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/avoronkova/go-docparse-client/internal/store"
)

type tokensFile struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store хранит токены в файле по заданному пути.
type Store struct {
	path string
}

// New создаёт файловое хранилище. Каталог создаётся при первой записи,
// сам файл может отсутствовать — это состояние "токенов нет".
func New(path string) *Store {
	return &Store{path: path}
}

// Проверка на соответствие интерфейсу Store.
var _ store.Store = (*Store)(nil)

// AccessToken возвращает сохранённый access-токен.
func (s *Store) AccessToken() (string, error) {
	const op = "store.file.AccessToken"

	tf, err := s.read()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if tf.AccessToken == "" {
		return "", fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}

	return tf.AccessToken, nil
}

// RefreshToken возвращает сохранённый refresh-токен.
func (s *Store) RefreshToken() (string, error) {
	const op = "store.file.RefreshToken"

	tf, err := s.read()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if tf.RefreshToken == "" {
		return "", fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}

	return tf.RefreshToken, nil
}

// SaveTokens атомарно перезаписывает оба токена.
func (s *Store) SaveTokens(access, refresh string) error {
	const op = "store.file.SaveTokens"

	data, err := json.Marshal(tokensFile{
		AccessToken:  access,
		RefreshToken: refresh,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}

	tmp, err := os.CreateTemp(dir, ".tokens-*")
	if err != nil {
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}

	return nil
}

// Clear удаляет файл с токенами; отсутствие файла — не ошибка.
func (s *Store) Clear() error {
	const op = "store.file.Clear"

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", op, store.ErrUnavailable)
	}

	return nil
}

// read загружает файл; отсутствие файла маппится в ErrNotFound,
// прочие ошибки чтения/парсинга — в ErrUnavailable.
func (s *Store) read() (*tokensFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}

		return nil, store.ErrUnavailable
	}

	var tf tokensFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, store.ErrUnavailable
	}

	return &tf, nil
}
