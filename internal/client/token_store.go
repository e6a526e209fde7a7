package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenKey names the persisted credential, mirroring the browser storage key.
const TokenKey = "user_token"

// TokenStore persists the credential between runs. Load returns "" when no
// credential is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type FileTokenStore struct {
	path string
}

// NewFileTokenStore keeps the credential in dir/user_token.
func NewFileTokenStore(dir string) *FileTokenStore {
	return &FileTokenStore{path: filepath.Join(dir, TokenKey)}
}

func (s *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token failed: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir failed: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token failed: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token failed: %w", err)
	}
	return nil
}

type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.Save("")
}
