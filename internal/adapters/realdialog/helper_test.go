package realdialog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/acolita/ddns-setup/internal/testing/fakes/fakedialog"
	"github.com/acolita/ddns-setup/internal/wizard"
)

func TestRunFormHelperMissingEnv(t *testing.T) {
	t.Setenv(envFormFile, "")
	t.Setenv(envFormKey, "")

	if err := RunFormHelper(fakedialog.New(), &bytes.Buffer{}); err == nil {
		t.Fatal("RunFormHelper() expected error without environment")
	}
}

func TestRunFormHelperBadFileWritesMarker(t *testing.T) {
	formFile := filepath.Join(t.TempDir(), "form.enc")
	key, _ := generateKey()
	if err := os.WriteFile(formFile, []byte("garbage that is long enough"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(envFormFile, formFile)
	t.Setenv(envFormKey, key)

	fake := fakedialog.New()
	if err := RunFormHelper(fake, &bytes.Buffer{}); err == nil {
		t.Fatal("RunFormHelper() expected decrypt error")
	}
	if fake.Called {
		t.Error("form shown despite unreadable prefill")
	}

	marker, err := os.ReadFile(formFile + doneSuffix)
	if err != nil {
		t.Fatalf("done marker not written: %v", err)
	}
	if string(marker) == doneOK || !strings.Contains(string(marker), "decrypt form data") {
		t.Errorf("marker = %q", marker)
	}
}

func TestRunFormHelperDrawsHeader(t *testing.T) {
	dir := t.TempDir()
	key, _ := generateKey()
	l := NewLauncher(WithTempDir(dir))
	formFile, err := l.writeEncryptedPrefill(wizard.Payload{ProviderZone: "example.com"}, key)
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv(envFormFile, formFile)
	t.Setenv(envFormKey, key)

	fake := fakedialog.New()
	var screen bytes.Buffer
	if err := RunFormHelper(fake, &screen); err != nil {
		t.Fatalf("RunFormHelper() error: %v", err)
	}
	if fake.ReceivedPrefill.ProviderZone != "example.com" {
		t.Errorf("prefill = %+v", fake.ReceivedPrefill)
	}
	if !strings.Contains(screen.String(), "ddns-setup") {
		t.Errorf("screen = %q", screen.String())
	}

	marker, _ := os.ReadFile(formFile + doneSuffix)
	if string(marker) != doneOK {
		t.Errorf("marker = %q, want %q", marker, doneOK)
	}
}
