package ports

import "github.com/acolita/ddns-setup/internal/wizard"

// SecretStore remembers wizard secrets between sessions.
// Lookups return "" with a nil error when nothing is stored.
type SecretStore interface {
	// ProviderToken returns the DNS provider token saved for email and zone.
	ProviderToken(email, zone string) (string, error)

	// ServerSecret returns the SSH password or key saved for user@host.
	ServerSecret(method wizard.AuthMethod, host, user string) (string, error)

	// Remember saves the token and the selected SSH secret from p.
	Remember(p wizard.Payload) error

	// Forget removes everything Remember could have saved for p's email,
	// zone, host and user. Missing entries are not an error.
	Forget(p wizard.Payload) error
}
