// Package security stores wizard secrets in the OS keyring.
package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/wizard"
	"github.com/zalando/go-keyring"
)

// KeyringService is the service name used for keyring entries.
const KeyringService = "ddns-setup"

const (
	keyTokenFmt  = "provider-token:%s/%s"
	keyServerFmt = "server-%s:%s@%s"
	checkEntry   = "__ddns_setup_check__"
)

// ErrKeyringUnavailable is returned when the OS keyring cannot be used.
var ErrKeyringUnavailable = errors.New("keyring not available")

// KeyringStore keeps the provider token and SSH secrets in the system keyring
// (macOS Keychain, Linux Secret Service, Windows Credential Manager).
type KeyringStore struct {
	enabled bool
	mu      sync.RWMutex
}

// NewKeyringStore checks that the system keyring accepts writes. If it is not usable the store
// is returned disabled and every call fails with ErrKeyringUnavailable.
func NewKeyringStore() *KeyringStore {
	ks := &KeyringStore{enabled: true}

	if err := keyring.Set(KeyringService, checkEntry, "ok"); err != nil {
		slog.Debug("keyring not available", slog.String("error", err.Error()))
		ks.enabled = false
		return ks
	}
	_ = keyring.Delete(KeyringService, checkEntry)

	slog.Debug("keyring storage enabled")
	return ks
}

// IsEnabled returns true if the keyring is available and enabled.
func (ks *KeyringStore) IsEnabled() bool {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	return ks.enabled
}

func tokenEntry(email, zone string) string {
	return fmt.Sprintf(keyTokenFmt, email, zone)
}

func serverEntry(method wizard.AuthMethod, host, user string) string {
	kind := "password"
	if method == wizard.Key {
		kind = "key"
	}
	return fmt.Sprintf(keyServerFmt, kind, user, host)
}

// ProviderToken returns the stored token for email and zone, or "".
func (ks *KeyringStore) ProviderToken(email, zone string) (string, error) {
	return ks.get(tokenEntry(email, zone))
}

// ServerSecret returns the stored SSH password or key for user@host, or "".
func (ks *KeyringStore) ServerSecret(method wizard.AuthMethod, host, user string) (string, error) {
	return ks.get(serverEntry(method, host, user))
}

// Remember stores the provider token and the secret selected by the
// payload's auth method. Empty values are skipped.
func (ks *KeyringStore) Remember(p wizard.Payload) error {
	if p.ProviderToken != "" {
		if err := ks.set(tokenEntry(p.ProviderEmail, p.ProviderZone), p.ProviderToken); err != nil {
			return fmt.Errorf("store provider token: %w", err)
		}
	}

	if secret := p.SelectedSecret(); secret != "" {
		entry := serverEntry(p.ServerAuthMethod, p.ServerAddress, p.ServerUsername)
		if err := ks.set(entry, secret); err != nil {
			return fmt.Errorf("store server %s: %w", p.ServerAuthMethod, err)
		}
	}

	slog.Debug("remembered wizard secrets",
		slog.String("zone", p.ProviderZone),
		slog.String("server", p.ServerUsername+"@"+p.ServerAddress),
	)
	return nil
}

// Forget removes every entry that Remember could have written for p.
func (ks *KeyringStore) Forget(p wizard.Payload) error {
	entries := []string{
		tokenEntry(p.ProviderEmail, p.ProviderZone),
		serverEntry(wizard.Password, p.ServerAddress, p.ServerUsername),
		serverEntry(wizard.Key, p.ServerAddress, p.ServerUsername),
	}
	for _, entry := range entries {
		if err := ks.delete(entry); err != nil {
			return err
		}
	}
	return nil
}

func (ks *KeyringStore) set(entry, value string) error {
	if !ks.IsEnabled() {
		return ErrKeyringUnavailable
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(value))
	return keyring.Set(KeyringService, entry, encoded)
}

func (ks *KeyringStore) get(entry string) (string, error) {
	if !ks.IsEnabled() {
		return "", ErrKeyringUnavailable
	}

	encoded, err := keyring.Get(KeyringService, entry)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read keyring entry: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode keyring entry: %w", err)
	}
	defer Wipe(decoded)
	return string(decoded), nil
}

func (ks *KeyringStore) delete(entry string) error {
	if !ks.IsEnabled() {
		return ErrKeyringUnavailable
	}
	if err := keyring.Delete(KeyringService, entry); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete keyring entry: %w", err)
	}
	return nil
}

var _ ports.SecretStore = (*KeyringStore)(nil)
