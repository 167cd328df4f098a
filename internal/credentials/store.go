package credentials

import (
	"encoding/base64"
	"fmt"
	"sync"

	"voicechat/internal/domain"
	"voicechat/internal/ports"
)

const (
	keyUserID     = "userId"
	keyUserSecret = "userSecret"
)

// KeyValue is the scoped string store credentials are persisted in.
type KeyValue interface {
	Get(key string) (string, bool, error)
	Set(key string, value string) error
}

// Store persists the session identity pair and derives the Basic-auth token.
type Store struct {
	mu sync.Mutex
	kv KeyValue
}

func NewStore(kv KeyValue) *Store {
	if kv == nil {
		kv = NewMemoryKeyValue()
	}
	return &Store{kv: kv}
}

// Save overwrites any previously stored pair.
func (s *Store) Save(creds domain.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Set(keyUserID, creds.ID); err != nil {
		return fmt.Errorf("failed to store user id: %w", err)
	}
	if err := s.kv.Set(keyUserSecret, creds.Secret); err != nil {
		return fmt.Errorf("failed to store user secret: %w", err)
	}
	return nil
}

// Load returns the stored pair; ok is false if nothing was ever saved.
func (s *Store) Load() (domain.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, hasID, err := s.kv.Get(keyUserID)
	if err != nil {
		return domain.Credentials{}, false, fmt.Errorf("failed to read user id: %w", err)
	}
	secret, hasSecret, err := s.kv.Get(keyUserSecret)
	if err != nil {
		return domain.Credentials{}, false, fmt.Errorf("failed to read user secret: %w", err)
	}
	if !hasID || !hasSecret {
		return domain.Credentials{}, false, nil
	}
	return domain.Credentials{ID: id, Secret: secret}, true, nil
}

// AuthToken returns base64("<id>:<secret>") for the Authorization header.
// The pair is encoded, not hashed; that is the format the backend expects.
func (s *Store) AuthToken() (string, error) {
	creds, ok, err := s.Load()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: no session credentials stored", domain.ErrNotAuthenticated)
	}
	return base64.StdEncoding.EncodeToString([]byte(creds.ID + ":" + creds.Secret)), nil
}

var _ ports.CredentialStore = (*Store)(nil)
