// Package fakesecrets provides an in-memory ports.SecretStore for testing.
package fakesecrets

import (
	"fmt"

	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/wizard"
)

// Store keeps secrets in a map keyed the same way the keyring store is.
type Store struct {
	Entries map[string]string
	// Err, when set, is returned by every call.
	Err error
	// Remembered records every payload passed to Remember.
	Remembered []wizard.Payload
	// Forgotten records every payload passed to Forget.
	Forgotten []wizard.Payload
}

// New returns an empty store.
func New() *Store {
	return &Store{Entries: make(map[string]string)}
}

// TokenKey is the entry name for a provider token.
func TokenKey(email, zone string) string {
	return fmt.Sprintf("token:%s/%s", email, zone)
}

// ServerKey is the entry name for an SSH secret.
func ServerKey(method wizard.AuthMethod, host, user string) string {
	return fmt.Sprintf("%s:%s@%s", method, user, host)
}

// ProviderToken implements ports.SecretStore.
func (s *Store) ProviderToken(email, zone string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Entries[TokenKey(email, zone)], nil
}

// ServerSecret implements ports.SecretStore.
func (s *Store) ServerSecret(method wizard.AuthMethod, host, user string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Entries[ServerKey(method, host, user)], nil
}

// Remember implements ports.SecretStore.
func (s *Store) Remember(p wizard.Payload) error {
	if s.Err != nil {
		return s.Err
	}
	s.Remembered = append(s.Remembered, p)
	s.Entries[TokenKey(p.ProviderEmail, p.ProviderZone)] = p.ProviderToken
	s.Entries[ServerKey(p.ServerAuthMethod, p.ServerAddress, p.ServerUsername)] = p.SelectedSecret()
	return nil
}

// Forget implements ports.SecretStore.
func (s *Store) Forget(p wizard.Payload) error {
	if s.Err != nil {
		return s.Err
	}
	s.Forgotten = append(s.Forgotten, p)
	delete(s.Entries, TokenKey(p.ProviderEmail, p.ProviderZone))
	delete(s.Entries, ServerKey(wizard.Password, p.ServerAddress, p.ServerUsername))
	delete(s.Entries, ServerKey(wizard.Key, p.ServerAddress, p.ServerUsername))
	return nil
}

var _ ports.SecretStore = (*Store)(nil)
