package realdialog

import (
	"errors"
	"strconv"
	"strings"

	"github.com/acolita/ddns-setup/internal/validate"
	"github.com/acolita/ddns-setup/internal/wizard"
	"github.com/charmbracelet/huh"
)

// formState holds the strings huh edits; the port is kept as text until the
// form is submitted.
type formState struct {
	token    string
	email    string
	zone     string
	dns      string
	address  string
	port     string
	username string
	method   wizard.AuthMethod
	password string
	key      string

	confirmed bool
}

func newFormState(p wizard.Payload) *formState {
	return &formState{
		token:    p.ProviderToken,
		email:    p.ProviderEmail,
		zone:     p.ProviderZone,
		dns:      p.ProviderDNS,
		address:  p.ServerAddress,
		port:     portString(p.ServerPort),
		username: p.ServerUsername,
		method:   p.ServerAuthMethod,
		password: derefOr(p.ServerPassword),
		key:      derefOr(p.ServerKey),
	}
}

// payload carries both secrets; the form aggregate decides which one survives.
func (s *formState) payload() wizard.Payload {
	password := s.password
	key := strings.TrimSpace(s.key)
	if key != "" {
		key += "\n"
	}
	return wizard.Payload{
		ProviderToken:    strings.TrimSpace(s.token),
		ProviderEmail:    strings.TrimSpace(s.email),
		ProviderZone:     strings.TrimSpace(s.zone),
		ProviderDNS:      strings.TrimSpace(s.dns),
		ServerAddress:    strings.TrimSpace(s.address),
		ServerPort:       parsePort(s.port),
		ServerUsername:   strings.TrimSpace(s.username),
		ServerAuthMethod: s.method,
		ServerPassword:   &password,
		ServerKey:        &key,
	}
}

func buildForm(s *formState) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Token").
				Description("DNS provider API token with DNS edit permission").
				EchoMode(huh.EchoModePassword).
				Value(&s.token).
				Validate(check(validate.NonEmpty[string], "token is required")),

			huh.NewInput().
				Title("Account Email").
				Value(&s.email).
				Validate(check(validate.Email, "not a valid email address")),

			huh.NewInput().
				Title("Zone").
				Description("The domain managed by the provider (e.g. example.com)").
				Value(&s.zone).
				Validate(check(validate.Domain, "not a valid domain")),

			huh.NewInput().
				Title("DNS Record").
				Description("The record to keep updated (e.g. home.example.com)").
				Value(&s.dns).
				Validate(check(validate.Domain, "not a valid domain")),
		).Title("DNS Provider"),

		huh.NewGroup(
			huh.NewInput().
				Title("Host").
				Description("SSH hostname or IPv4 address").
				Value(&s.address).
				Validate(check(validate.ServerAddress, "must be a domain or IPv4 address")),

			huh.NewInput().
				Title("Port").
				Value(&s.port).
				Validate(validatePort),

			huh.NewInput().
				Title("User").
				Value(&s.username).
				Validate(check(validate.NonEmpty[string], "username is required")),

			huh.NewSelect[wizard.AuthMethod]().
				Title("Auth Type").
				Options(
					huh.NewOption("Password", wizard.Password),
					huh.NewOption("Private key", wizard.Key),
				).
				Value(&s.method),
		).Title("SSH Server"),

		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&s.password).
				Validate(check(validate.NonEmpty[string], "password is required")),
		).WithHideFunc(func() bool { return s.method != wizard.Password }),

		huh.NewGroup(
			huh.NewText().
				Title("Private Key").
				Description("Paste the PEM-encoded private key").
				Lines(8).
				Value(&s.key).
				Validate(validateKey),
		).WithHideFunc(func() bool { return s.method != wizard.Key }),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Write this configuration?").
				Value(&s.confirmed),
		),
	)
}

// check adapts a predicate to huh's error-returning validation hook.
func check(ok validate.Validator[string], message string) func(string) error {
	return func(s string) error {
		if !ok(strings.TrimSpace(s)) {
			return errors.New(message)
		}
		return nil
	}
}

func validatePort(s string) error {
	if !validate.Port(parsePort(s)) {
		return errors.New("port must be between 1 and 65535")
	}
	return nil
}

func validateKey(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("private key is required")
	}
	if !validate.PrivateKey(s) {
		return errors.New("not an SSH private key")
	}
	return nil
}

func portString(port int) string {
	if port == 0 {
		port = wizard.DefaultServerPort
	}
	return strconv.Itoa(port)
}

// parsePort returns 0 for anything that is not a number, which the form
// aggregate treats as missing.
func parsePort(s string) int {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return port
}

func derefOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
