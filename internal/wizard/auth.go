package wizard

import (
	"fmt"
	"strings"
)

// AuthMethod selects which SSH secret is authoritative.
type AuthMethod int

const (
	Password AuthMethod = iota
	Key
)

// String returns "Password" or "Key".
func (m AuthMethod) String() string {
	switch m {
	case Password:
		return "Password"
	case Key:
		return "Key"
	default:
		return fmt.Sprintf("AuthMethod(%d)", int(m))
	}
}

// ParseAuthMethod accepts "Password" or "Key" in any case.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "password":
		return Password, nil
	case "key":
		return Key, nil
	default:
		return Password, fmt.Errorf("unknown auth method %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m AuthMethod) MarshalText() ([]byte, error) {
	if m != Password && m != Key {
		return nil, fmt.Errorf("unknown auth method %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *AuthMethod) UnmarshalText(text []byte) error {
	parsed, err := ParseAuthMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
