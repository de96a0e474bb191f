package mcp

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"encoding/pem"
	"errors"
	"strings"
	"testing"

	"github.com/acolita/ddns-setup/internal/config"
	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/setup"
	"github.com/acolita/ddns-setup/internal/testing/fakes/fakedialog"
	"github.com/acolita/ddns-setup/internal/testing/fakes/fakefs"
	"github.com/acolita/ddns-setup/internal/testing/fakes/fakesecrets"
	"github.com/acolita/ddns-setup/internal/ui"
	"github.com/acolita/ddns-setup/internal/wizard"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/crypto/ssh"
)

func newTestServer(cfg *config.Config, opts ...ServerOption) *Server {
	return NewServer(cfg, "test", opts...)
}

func makeRequest(args map[string]any) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(result *mcpgo.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	tc, ok := mcpgo.AsTextContent(result.Content[0])
	if !ok {
		return ""
	}
	return tc.Text
}

func resultJSON(t *testing.T, result *mcpgo.CallToolResult) map[string]any {
	t.Helper()
	text := resultText(result)
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		t.Fatalf("failed to parse result JSON: %v (text: %s)", err, text)
	}
	return m
}

func validFormArgs() map[string]any {
	return map[string]any{
		"provider_token":     "tok-123",
		"provider_email":     "admin@example.com",
		"provider_zone":      "example.com",
		"provider_dns":       "home.example.com",
		"server_address":     "10.0.0.1",
		"server_port":        float64(2222),
		"server_username":    "deploy",
		"server_auth_method": "Password",
		"server_password":    "hunter2",
		"server_key":         "leftover key",
	}
}

// ==================== ddns_validate_form ====================

func TestHandleValidateForm_Valid(t *testing.T) {
	srv := newTestServer(nil)

	result, err := srv.handleValidateForm(context.Background(), makeRequest(validFormArgs()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}

	m := resultJSON(t, result)
	if m["valid"] != true {
		t.Errorf("valid = %v, want true", m["valid"])
	}
	if issues, ok := m["issues"].([]any); !ok || len(issues) != 0 {
		t.Errorf("issues = %v, want empty list", m["issues"])
	}

	payload := m["payload"].(map[string]any)
	if payload["serverPort"] != float64(2222) {
		t.Errorf("serverPort = %v, want 2222", payload["serverPort"])
	}
	if payload["serverPassword"] != redacted {
		t.Errorf("serverPassword = %v, want redacted", payload["serverPassword"])
	}
	if payload["providerToken"] != redacted {
		t.Errorf("providerToken = %v, want redacted", payload["providerToken"])
	}
	if payload["serverKey"] != nil {
		t.Errorf("serverKey = %v, want null for Password auth", payload["serverKey"])
	}
	if strings.Contains(resultText(result), "hunter2") {
		t.Error("secret leaked into result")
	}
}

func TestHandleValidateForm_IncludeSecrets(t *testing.T) {
	srv := newTestServer(nil)
	args := validFormArgs()
	args["include_secrets"] = true

	result, err := srv.handleValidateForm(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload := resultJSON(t, result)["payload"].(map[string]any)
	if payload["serverPassword"] != "hunter2" {
		t.Errorf("serverPassword = %v, want hunter2", payload["serverPassword"])
	}
	if payload["providerToken"] != "tok-123" {
		t.Errorf("providerToken = %v, want tok-123", payload["providerToken"])
	}
}

func TestHandleValidateForm_SwitchToKeyWithoutKey(t *testing.T) {
	srv := newTestServer(nil)
	args := validFormArgs()
	args["server_auth_method"] = "key"
	delete(args, "server_key")

	result, err := srv.handleValidateForm(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := resultJSON(t, result)
	if m["valid"] != false {
		t.Errorf("valid = %v, want false", m["valid"])
	}
	issues := m["issues"].([]any)
	if len(issues) != 1 {
		t.Fatalf("issues = %v, want one", issues)
	}
	if field := issues[0].(map[string]any)["field"]; field != wizard.FieldServerKey {
		t.Errorf("issue field = %v, want %s", field, wizard.FieldServerKey)
	}
	payload := m["payload"].(map[string]any)
	if payload["serverAuthMethod"] != "Key" || payload["serverPassword"] != nil {
		t.Errorf("payload = %v, want Key auth with null password", payload)
	}
}

func TestHandleValidateForm_EmptyArgs(t *testing.T) {
	srv := newTestServer(nil)

	result, err := srv.handleValidateForm(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := resultJSON(t, result)
	if m["valid"] != false {
		t.Error("empty form reported valid")
	}
	// Everything except the default port is missing.
	if issues := m["issues"].([]any); len(issues) != 7 {
		t.Errorf("got %d issues, want 7: %v", len(issues), issues)
	}
}

func TestHandleValidateForm_BadAuthMethod(t *testing.T) {
	srv := newTestServer(nil)
	args := validFormArgs()
	args["server_auth_method"] = "kerberos"

	result, err := srv.handleValidateForm(context.Background(), makeRequest(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected tool error for unknown auth method")
	}
}

// ==================== ddns_validate_value ====================

func testKeyPEM(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	block, err := ssh.MarshalPrivateKey(priv, "")
	if err != nil {
		t.Fatal(err)
	}
	return string(pem.EncodeToMemory(block))
}

func TestHandleValidateValue(t *testing.T) {
	srv := newTestServer(nil)

	tests := []struct {
		kind  string
		value string
		want  bool
	}{
		{"email", "user@example.com", true},
		{"email", "not-an-email", false},
		{"domain", "example.com", true},
		{"domain", "http://example.com", false},
		{"DOMAIN", "a.b", false},
		{"ip", "192.168.1.1", true},
		{"ip", "999.1.1.1", false},
		{"server_address", "10.0.0.1", true},
		{"server_address", "not valid", false},
		{"port", "22", true},
		{"port", " 65535 ", true},
		{"port", "0", false},
		{"port", "ssh", false},
		{"private_key", testKeyPEM(t), true},
		{"private_key", "ssh-ed25519 AAAA", false},
		{"email", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind+"/"+tt.value, func(t *testing.T) {
			result, err := srv.handleValidateValue(context.Background(), makeRequest(map[string]any{
				"kind":  tt.kind,
				"value": tt.value,
			}))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.IsError {
				t.Fatalf("unexpected tool error: %s", resultText(result))
			}
			m := resultJSON(t, result)
			if m["valid"] != tt.want {
				t.Errorf("valid = %v, want %v", m["valid"], tt.want)
			}
			if m["kind"] != strings.ToLower(tt.kind) {
				t.Errorf("kind = %v", m["kind"])
			}
		})
	}
}

func TestHandleValidateValue_BadKind(t *testing.T) {
	srv := newTestServer(nil)

	for _, kind := range []string{"", "phone"} {
		result, err := srv.handleValidateValue(context.Background(), makeRequest(map[string]any{
			"kind":  kind,
			"value": "x",
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("kind %q: expected tool error", kind)
		}
	}
}

// ==================== ddns_run_wizard ====================

func newWizardServer(t *testing.T, outputPath string, dp *fakedialog.Provider) (*Server, *fakefs.FS, *fakesecrets.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Output.Path = outputPath

	fs := fakefs.New()
	secrets := fakesecrets.New()
	runner := setup.NewRunner(cfg,
		setup.WithFileSystem(fs),
		setup.WithDialogProvider(dp),
		setup.WithSecretStore(secrets),
		setup.WithStdout(&bytes.Buffer{}),
		setup.WithPrinter(ui.NewPrinter(&bytes.Buffer{}, false)),
	)
	return newTestServer(cfg, WithRunner(runner)), fs, secrets
}

func submit(p wizard.Payload) ports.DialogResult {
	password := "hunter2"
	p.ProviderToken = "tok-123"
	p.ProviderEmail = "admin@example.com"
	p.ProviderZone = "example.com"
	p.ProviderDNS = "home.example.com"
	p.ServerAddress = "10.0.0.1"
	p.ServerUsername = "deploy"
	p.ServerPassword = &password
	return ports.DialogResult{Payload: p, Confirmed: true}
}

func TestHandleRunWizard_NoRunner(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.Path = "/out/payload.json"
	srv := newTestServer(cfg)

	result, err := srv.handleRunWizard(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error without a runner")
	}
}

func TestHandleRunWizard_NoOutputPath(t *testing.T) {
	dp := fakedialog.New()
	srv, _, _ := newWizardServer(t, "", dp)

	result, err := srv.handleRunWizard(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error when payload would go to stdout")
	}
	if dp.Called {
		t.Error("dialog shown without an output path")
	}
}

func TestHandleRunWizard_Written(t *testing.T) {
	dp := fakedialog.New()
	dp.Edit = submit
	srv, fs, secrets := newWizardServer(t, "/out/payload.json", dp)

	result, err := srv.handleRunWizard(context.Background(), makeRequest(map[string]any{"remember": true}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(result))
	}

	m := resultJSON(t, result)
	if m["status"] != setup.StatusWritten {
		t.Errorf("status = %v, want written", m["status"])
	}
	if m["path"] != "/out/payload.json" {
		t.Errorf("path = %v", m["path"])
	}
	if m["session_id"] == "" {
		t.Error("session_id is empty")
	}
	if strings.Contains(resultText(result), "hunter2") {
		t.Error("secret leaked into result")
	}
	if _, err := fs.ReadFile("/out/payload.json"); err != nil {
		t.Errorf("payload not written: %v", err)
	}
	if len(secrets.Remembered) != 1 {
		t.Errorf("Remembered = %d, want 1", len(secrets.Remembered))
	}
}

func TestHandleRunWizard_Cancelled(t *testing.T) {
	dp := fakedialog.New()
	dp.Result = ports.DialogResult{Confirmed: false}
	srv, fs, _ := newWizardServer(t, "/out/payload.json", dp)

	result, err := srv.handleRunWizard(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m := resultJSON(t, result); m["status"] != setup.StatusCancelled {
		t.Errorf("status = %v, want cancelled", m["status"])
	}
	if len(fs.Files()) != 0 {
		t.Errorf("files written on cancel: %v", fs.Files())
	}
}

func TestHandleRunWizard_Invalid(t *testing.T) {
	dp := fakedialog.New()
	dp.Edit = func(p wizard.Payload) ports.DialogResult {
		r := submit(p)
		r.Payload.ProviderEmail = "not-an-email"
		return r
	}
	srv, _, _ := newWizardServer(t, "/out/payload.json", dp)

	result, err := srv.handleRunWizard(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("invalid form should be reported, not errored: %s", resultText(result))
	}
	m := resultJSON(t, result)
	if m["status"] != setup.StatusInvalid {
		t.Errorf("status = %v, want invalid", m["status"])
	}
	if issues := m["issues"].([]any); len(issues) != 1 {
		t.Errorf("issues = %v, want one", issues)
	}
}

func TestHandleRunWizard_DialogError(t *testing.T) {
	dp := fakedialog.New()
	dp.Err = errors.New("no terminal")
	srv, _, _ := newWizardServer(t, "/out/payload.json", dp)

	result, err := srv.handleRunWizard(context.Background(), makeRequest(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(resultText(result), "no terminal") {
		t.Errorf("expected dialog error, got %s", resultText(result))
	}
}

func TestRedactPayload(t *testing.T) {
	empty := ""
	key := "KEY"
	p := redactPayload(wizard.Payload{
		ProviderToken:  "tok",
		ServerKey:      &key,
		ServerPassword: &empty,
	})
	if p.ProviderToken != redacted || *p.ServerKey != redacted {
		t.Errorf("secrets not redacted: %+v", p)
	}
	if *p.ServerPassword != "" {
		t.Errorf("empty secret should stay empty, got %q", *p.ServerPassword)
	}
	if key != "KEY" {
		t.Error("redactPayload modified the caller's key")
	}
}

// ==================== Tool definition tests ====================

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		tool mcpgo.Tool
		name string
	}{
		{validateFormTool(), toolValidateForm},
		{validateValueTool(), toolValidateValue},
		{runWizardTool(), toolRunWizard},
	}
	for _, tt := range tests {
		if tt.tool.Name != tt.name {
			t.Errorf("Name=%q, want %q", tt.tool.Name, tt.name)
		}
		if tt.tool.Description == "" {
			t.Errorf("%s: Description should not be empty", tt.name)
		}
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(nil)
	if srv.mcpServer == nil {
		t.Fatal("mcpServer is nil")
	}
	if srv.config == nil {
		t.Error("nil config should fall back to defaults")
	}
	if srv.runner != nil {
		t.Error("runner set without WithRunner")
	}
}
