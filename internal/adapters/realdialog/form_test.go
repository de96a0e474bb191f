package realdialog

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"testing"

	"github.com/acolita/ddns-setup/internal/wizard"
	"golang.org/x/crypto/ssh"
)

func strPtr(s string) *string { return &s }

func TestPortString(t *testing.T) {
	tests := map[int]string{0: "22", 22: "22", 2222: "2222"}
	for port, want := range tests {
		if got := portString(port); got != want {
			t.Errorf("portString(%d) = %q, want %q", port, got, want)
		}
	}
}

func TestParsePort(t *testing.T) {
	tests := map[string]int{"22": 22, " 2200 ": 2200, "": 0, "ssh": 0, "22a": 0}
	for input, want := range tests {
		if got := parsePort(input); got != want {
			t.Errorf("parsePort(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for _, ok := range []string{"1", "22", "65535"} {
		if err := validatePort(ok); err != nil {
			t.Errorf("validatePort(%q) error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "0", "65536", "abc"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) expected error", bad)
		}
	}
}

func TestCheckTrimsInput(t *testing.T) {
	fn := check(func(s string) bool { return s == "example.com" }, "bad")
	if err := fn("  example.com "); err != nil {
		t.Errorf("check() error: %v", err)
	}
	if err := fn("other"); err == nil || err.Error() != "bad" {
		t.Errorf("check() error = %v, want bad", err)
	}
}

func TestValidateKey(t *testing.T) {
	if err := validateKey(""); err == nil {
		t.Error("validateKey(\"\") expected error")
	}
	if err := validateKey("not a key"); err == nil {
		t.Error("validateKey(garbage) expected error")
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := validateKey(string(pem.EncodeToMemory(block))); err != nil {
		t.Errorf("validateKey(valid) error: %v", err)
	}
}

func TestFormStateRoundTrip(t *testing.T) {
	prefill := wizard.Payload{
		ProviderToken:    "tok",
		ProviderEmail:    "admin@example.com",
		ProviderZone:     "example.com",
		ProviderDNS:      "home.example.com",
		ServerAddress:    "10.0.0.1",
		ServerPort:       0,
		ServerUsername:   "deploy",
		ServerAuthMethod: wizard.Key,
		ServerKey:        strPtr("material"),
	}

	state := newFormState(prefill)
	if state.port != "22" {
		t.Errorf("port = %q, want default 22", state.port)
	}
	if state.password != "" {
		t.Errorf("password = %q, want empty for nil prefill", state.password)
	}

	state.zone = "  example.org  "
	got := state.payload()

	if got.ProviderZone != "example.org" {
		t.Errorf("ProviderZone = %q, want trimmed", got.ProviderZone)
	}
	if got.ServerPort != 22 {
		t.Errorf("ServerPort = %d, want 22", got.ServerPort)
	}
	if got.ServerAuthMethod != wizard.Key {
		t.Errorf("ServerAuthMethod = %v, want Key", got.ServerAuthMethod)
	}
	if got.ServerKey == nil || *got.ServerKey != "material\n" {
		t.Errorf("ServerKey = %v, want material with trailing newline", got.ServerKey)
	}

	// The aggregate nulls the unselected secret.
	f := wizard.New()
	f.Apply(got)
	if f.ToPayload().ServerPassword != nil {
		t.Error("password should be nulled with Key auth")
	}
}

func TestBuildForm(t *testing.T) {
	state := newFormState(wizard.New().ToPayload())
	if buildForm(state) == nil {
		t.Fatal("buildForm returned nil")
	}
}

func TestNewOptions(t *testing.T) {
	if New().accessible {
		t.Error("accessible mode should default to off")
	}
	if !New(WithAccessibleMode(true)).accessible {
		t.Error("WithAccessibleMode(true) not applied")
	}
}
