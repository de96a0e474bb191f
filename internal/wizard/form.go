package wizard

import "github.com/acolita/ddns-setup/internal/validate"

// DefaultServerPort is the SSH port a new form starts with.
const DefaultServerPort = 22

// Payload field names. They double as Issue.Field values.
const (
	FieldProviderToken    = "providerToken"
	FieldProviderEmail    = "providerEmail"
	FieldProviderZone     = "providerZone"
	FieldProviderDNS      = "providerDns"
	FieldServerAddress    = "serverAddress"
	FieldServerPort       = "serverPort"
	FieldServerUsername   = "serverUsername"
	FieldServerAuthMethod = "serverAuthMethod"
	FieldServerKey        = "serverKey"
	FieldServerPassword   = "serverPassword"
)

// Form is the wizard's state: DNS provider credentials, SSH server details,
// and the two mutually exclusive SSH secrets.
type Form struct {
	ProviderToken Field[string]
	ProviderEmail Field[string]
	ProviderZone  Field[string]
	ProviderDNS   Field[string]

	ServerAddress    Field[string]
	ServerPort       Field[int]
	ServerUsername   Field[string]
	ServerAuthMethod AuthMethod
	ServerKey        Field[string]
	ServerPassword   Field[string]
}

// New returns a form with every string empty, port 22 and password auth.
func New() *Form {
	return &Form{
		ProviderToken: NewField("", validate.NonEmpty[string]),
		ProviderEmail: NewField("", validate.Email),
		ProviderZone:  NewField("", validate.Domain),
		ProviderDNS:   NewField("", validate.Domain),

		ServerAddress:    NewField("", validate.ServerAddress),
		ServerPort:       NewField(DefaultServerPort, validate.NonEmpty[int]),
		ServerUsername:   NewField("", validate.NonEmpty[string]),
		ServerAuthMethod: Password,
		ServerKey:        NewField("", validate.NonEmpty[string]),
		ServerPassword:   NewField("", validate.NonEmpty[string]),
	}
}

// Issue names a field that blocks submission.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Issues lists every field that participates in IsValid and is currently
// invalid, in payload order. Only the secret matching ServerAuthMethod is
// considered.
func (f *Form) Issues() []Issue {
	var issues []Issue
	check := func(ok bool, field, message string) {
		if !ok {
			issues = append(issues, Issue{Field: field, Message: message})
		}
	}

	check(f.ProviderToken.Valid(), FieldProviderToken, "provider token is required")
	check(f.ProviderEmail.Valid(), FieldProviderEmail, "provider email is not a valid email address")
	check(f.ProviderZone.Valid(), FieldProviderZone, "provider zone is not a valid domain")
	check(f.ProviderDNS.Valid(), FieldProviderDNS, "DNS record is not a valid domain")
	check(f.ServerAddress.Valid(), FieldServerAddress, "server address must be a domain or IPv4 address")
	check(f.ServerPort.Valid(), FieldServerPort, "server port is required")
	check(f.ServerUsername.Valid(), FieldServerUsername, "server username is required")

	if f.ServerAuthMethod == Key {
		check(f.ServerKey.Valid(), FieldServerKey, "private key is required for key authentication")
	} else {
		check(f.ServerPassword.Valid(), FieldServerPassword, "password is required for password authentication")
	}

	return issues
}

// IsValid reports whether the form can be submitted.
func (f *Form) IsValid() bool {
	common := f.ProviderToken.Valid() &&
		f.ProviderEmail.Valid() &&
		f.ProviderZone.Valid() &&
		f.ProviderDNS.Valid() &&
		f.ServerAddress.Valid() &&
		f.ServerPort.Valid() &&
		f.ServerUsername.Valid()
	if !common {
		return false
	}

	if f.ServerAuthMethod == Key {
		return f.ServerKey.Valid()
	}
	return f.ServerPassword.Valid()
}

// ToPayload unwraps every field. The secret not selected by ServerAuthMethod
// is always nil, even when the form holds a value for it.
func (f *Form) ToPayload() Payload {
	p := Payload{
		ProviderToken:    f.ProviderToken.Value(),
		ProviderEmail:    f.ProviderEmail.Value(),
		ProviderZone:     f.ProviderZone.Value(),
		ProviderDNS:      f.ProviderDNS.Value(),
		ServerAddress:    f.ServerAddress.Value(),
		ServerPort:       f.ServerPort.Value(),
		ServerUsername:   f.ServerUsername.Value(),
		ServerAuthMethod: f.ServerAuthMethod,
	}

	if f.ServerAuthMethod == Key {
		key := f.ServerKey.Value()
		p.ServerKey = &key
	} else {
		password := f.ServerPassword.Value()
		p.ServerPassword = &password
	}

	return p
}

// Apply loads p into the form, keeping every field's validator. Nil secrets
// clear the corresponding field.
func (f *Form) Apply(p Payload) {
	f.ProviderToken.Set(p.ProviderToken)
	f.ProviderEmail.Set(p.ProviderEmail)
	f.ProviderZone.Set(p.ProviderZone)
	f.ProviderDNS.Set(p.ProviderDNS)

	f.ServerAddress.Set(p.ServerAddress)
	f.ServerPort.Set(p.ServerPort)
	f.ServerUsername.Set(p.ServerUsername)
	f.ServerAuthMethod = p.ServerAuthMethod
	f.ServerKey.Set(deref(p.ServerKey))
	f.ServerPassword.Set(deref(p.ServerPassword))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
