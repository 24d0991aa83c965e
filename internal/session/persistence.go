package session

import (
	"context"
	"sync"
)

// Keys under which the session is kept in local storage.
const (
	CredentialKey = "vorplay.token"
	IdentityKey   = "vorplay.user"
)

// Persistence stores the credential and the serialized identity snapshot together.
//
// Implementations must write or erase both values atomically.
type Persistence interface {
	// LoadSession returns empty values (and no error) for anything not stored.
	LoadSession(ctx context.Context) (credential string, identity []byte, err error)
	SaveSession(ctx context.Context, credential string, identity []byte) error
	ClearSession(ctx context.Context) error
}

// MemoryPersistence is a [Persistence] held in process memory.
//
// The Err fields, when set, are returned by the matching operation without touching the stored values.
type MemoryPersistence struct {
	mu         sync.Mutex
	credential string
	identity   []byte

	LoadErr  error
	SaveErr  error
	ClearErr error
}

// NewMemoryPersistence creates a store pre-filled with credential and identity.
func NewMemoryPersistence(credential string, identity []byte) *MemoryPersistence {
	return &MemoryPersistence{credential: credential, identity: identity}
}

func (m *MemoryPersistence) LoadSession(ctx context.Context) (string, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LoadErr != nil {
		return "", nil, m.LoadErr
	}
	return m.credential, append([]byte(nil), m.identity...), nil
}

func (m *MemoryPersistence) SaveSession(ctx context.Context, credential string, identity []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.credential = credential
	m.identity = append([]byte(nil), identity...)
	return nil
}

func (m *MemoryPersistence) ClearSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.credential = ""
	m.identity = nil
	return nil
}

// Snapshot returns the stored values.
func (m *MemoryPersistence) Snapshot() (string, []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential, append([]byte(nil), m.identity...)
}
