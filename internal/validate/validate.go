// Package validate provides the field predicates used by the setup wizard.
//
// Every predicate is total and side-effect free, and every string predicate
// rejects the empty string on its own, independent of any caller-side check.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Validator reports whether a value is syntactically acceptable.
type Validator[T any] func(T) bool

// emailAtom is kept as an interpreted string because it contains a backtick.
const emailAtom = "[a-z0-9!#$%&'*+/=?^_`{|}~-]"

const emailOctet = `(?:2(?:5[0-5]|[0-4][0-9])|1[0-9][0-9]|[1-9]?[0-9])`

var (
	emailPattern = regexp.MustCompile(`(?i)^` +
		// local part: dot-atom or quoted string
		`(?:` + emailAtom + `+(?:\.` + emailAtom + `+)*` +
		`|"(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21\x23-\x5b\x5d-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])*")` +
		`@` +
		// domain: labels or a bracketed address literal
		`(?:(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?` +
		`|\[(?:` + emailOctet + `\.){3}(?:` + emailOctet +
		`|[a-z0-9-]*[a-z0-9]:(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21-\x5a\x53-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])+)\])` +
		`$`)

	domainPattern = regexp.MustCompile(`^([a-zA-Z0-9_-]+\.)*[a-zA-Z0-9][a-zA-Z0-9_-]+\.[a-zA-Z]{2,11}$`)

	ipPattern = regexp.MustCompile(`^(?:(?:^|\.)(?:2(?:5[0-5]|[0-4]\d)|1?\d?\d)){4}$`)
)

// NonEmpty reports whether the display form of v is not the empty string.
func NonEmpty[T any](v T) bool {
	return fmt.Sprint(v) != ""
}

// Email reports whether s is a local-part@domain address. The domain may be
// a bracketed address literal.
func Email(s string) bool {
	return s != "" && emailPattern.MatchString(s)
}

// Domain reports whether s is a dot-separated host name ending in a 2-11
// letter top-level label.
func Domain(s string) bool {
	if s == "" || strings.HasPrefix(s, "://") {
		return false
	}
	return domainPattern.MatchString(s)
}

// IP reports whether s is a dotted-quad IPv4 address.
func IP(s string) bool {
	return s != "" && ipPattern.MatchString(s)
}

// ServerAddress accepts either a domain name or an IPv4 address.
func ServerAddress(s string) bool {
	return Domain(s) || IP(s)
}

// Port reports whether n is a usable TCP port.
func Port(n int) bool {
	return n > 0 && n <= 65535
}

// PrivateKey reports whether s parses as an SSH private key. Encrypted keys
// count as valid since the passphrase is collected elsewhere.
func PrivateKey(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	_, err := ssh.ParseRawPrivateKey([]byte(s))
	if err == nil {
		return true
	}
	var missing *ssh.PassphraseMissingError
	return errors.As(err, &missing)
}
