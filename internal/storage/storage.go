package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Package storage persists the bearer credential between runs.

// CredentialStore reads and replaces the single persisted credential.
type CredentialStore interface {
	Close() error
	// Token returns the stored credential or "" when none has been captured.
	Token() (string, error)
	// SetToken replaces the stored credential.
	SetToken(token string) error
}

// Options controls the concrete store implementations.
type Options struct {
	// Key names the credential entry.
	Key string
}

const defaultKey = "token"

// ErrEmptyToken is returned when asked to persist an empty credential.
var ErrEmptyToken = errors.New("credential token is empty")

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (CredentialStore, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "memory":
		return NewMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	opts.Key = strings.TrimSpace(opts.Key)
	if opts.Key == "" {
		opts.Key = defaultKey
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error           { return nil }
func (noopStore) Token() (string, error) { return "", nil }
func (noopStore) SetToken(string) error  { return nil }

// MemoryStore keeps the credential in process memory. Useful for tests and
// throwaway sessions.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

func (m *MemoryStore) SetToken(token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}
