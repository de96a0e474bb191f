package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/acolita/ddns-setup/internal/wizard"
)

func TestReportValidForm(t *testing.T) {
	f := wizard.New()
	f.ProviderToken.Set("tok")
	f.ProviderEmail.Set("admin@example.com")
	f.ProviderZone.Set("example.com")
	f.ProviderDNS.Set("home.example.com")
	f.ServerAddress.Set("10.0.0.1")
	f.ServerUsername.Set("deploy")
	f.ServerPassword.Set("pw")

	var buf bytes.Buffer
	NewPrinter(&buf, false).Report(f)
	out := buf.String()

	if !strings.Contains(out, "auth method: Password") {
		t.Errorf("missing auth method line:\n%s", out)
	}
	if !strings.Contains(out, "serverKey") || !strings.Contains(out, "skipped") {
		t.Errorf("unselected secret should be skipped:\n%s", out)
	}
	if strings.Contains(out, "✗") {
		t.Errorf("valid form reported failures:\n%s", out)
	}
	if !strings.Contains(out, "form is valid") {
		t.Errorf("missing summary:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colour codes written with colour disabled:\n%q", out)
	}
}

func TestReportInvalidForm(t *testing.T) {
	f := wizard.New()
	f.ServerAuthMethod = wizard.Key

	var buf bytes.Buffer
	NewPrinter(&buf, false).Report(f)
	out := buf.String()

	if !strings.Contains(out, "✗ providerEmail") {
		t.Errorf("expected providerEmail failure:\n%s", out)
	}
	if !strings.Contains(out, "✓ serverPort") {
		t.Errorf("default port should pass:\n%s", out)
	}
	if !strings.Contains(out, "serverPassword") || !strings.Contains(out, "skipped") {
		t.Errorf("password should be skipped with Key auth:\n%s", out)
	}
	if !strings.Contains(out, "form has 7 invalid field(s)") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}

func TestPrinterLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Success("wrote %s", "payload.json")
	p.Warn("careful")
	p.Error("failed: %d", 3)

	want := "wrote payload.json\ncareful\nfailed: 3\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestReportExtraIssueOverridesSkipped(t *testing.T) {
	f := wizard.New()
	f.ProviderToken.Set("tok")
	f.ProviderEmail.Set("admin@example.com")
	f.ProviderZone.Set("example.com")
	f.ProviderDNS.Set("home.example.com")
	f.ServerAddress.Set("10.0.0.1")
	f.ServerUsername.Set("deploy")
	f.ServerPassword.Set("pw")

	var buf bytes.Buffer
	NewPrinter(&buf, false).Report(f, wizard.Issue{Field: wizard.FieldServerKey, Message: "must be null"})
	out := buf.String()

	if !strings.Contains(out, "✗ serverKey") || strings.Contains(out, "skipped") {
		t.Errorf("serverKey should be flagged, not skipped:\n%s", out)
	}
	if !strings.Contains(out, "form has 1 invalid field(s)") {
		t.Errorf("unexpected summary:\n%s", out)
	}
}
