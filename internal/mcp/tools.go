package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/acolita/ddns-setup/internal/setup"
	"github.com/acolita/ddns-setup/internal/validate"
	"github.com/acolita/ddns-setup/internal/wizard"
	"github.com/mark3labs/mcp-go/mcp"
)

// registerTools registers all MCP tools with the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTool(validateFormTool(), s.handleValidateForm)
	s.mcpServer.AddTool(validateValueTool(), s.handleValidateValue)
	s.mcpServer.AddTool(runWizardTool(), s.handleRunWizard)
}

// Tool definitions

func validateFormTool() mcp.Tool {
	return mcp.NewTool(toolValidateForm,
		mcp.WithDescription(`Validate a complete DDNS setup form.

Returns whether the form would be accepted, the list of invalid fields and
the payload that would be submitted. Only the secret matching
server_auth_method is checked and included; the other is null.`),
		mcp.WithString("provider_token", mcp.Description("DNS provider API token")),
		mcp.WithString("provider_email", mcp.Description("DNS provider account email")),
		mcp.WithString("provider_zone", mcp.Description("DNS zone, e.g. example.com")),
		mcp.WithString("provider_dns", mcp.Description("DNS record to update, e.g. home.example.com")),
		mcp.WithString("server_address", mcp.Description("SSH server domain or IPv4 address")),
		mcp.WithNumber("server_port", mcp.Description("SSH port (default: 22)")),
		mcp.WithString("server_username", mcp.Description("SSH username")),
		mcp.WithString("server_auth_method",
			mcp.Description("SSH authentication: 'Password' (default) or 'Key'"),
			mcp.DefaultString(wizard.Password.String()),
		),
		mcp.WithString("server_key", mcp.Description("SSH private key (Key auth)")),
		mcp.WithString("server_password", mcp.Description("SSH password (Password auth)")),
		mcp.WithBoolean("include_secrets",
			mcp.Description("Return secrets in the payload instead of redacting them (default: false)"),
		),
	)
}

func validateValueTool() mcp.Tool {
	return mcp.NewTool(toolValidateValue,
		mcp.WithDescription("Check a single value against one of the wizard's validators"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Validator: email, domain, ip, server_address, private_key or port"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("The value to check"),
		),
	)
}

func runWizardTool() mcp.Tool {
	return mcp.NewTool(toolRunWizard,
		mcp.WithDescription(`Open the DDNS setup wizard in a new terminal window.

The user fills in provider and server details directly, so secrets never pass
through this conversation. Waits up to five minutes for the user to finish. The payload is written to the configured output
file; only the outcome is returned.`),
		mcp.WithBoolean("remember",
			mcp.Description("Save the submitted secrets to the OS keyring (default: false)"),
		),
	)
}

// Tool handlers

func (s *Server) handleValidateForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	method, err := wizard.ParseAuthMethod(mcp.ParseString(req, "server_auth_method", wizard.Password.String()))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(errBadAuthMethod, err)), nil
	}

	key := mcp.ParseString(req, "server_key", "")
	password := mcp.ParseString(req, "server_password", "")

	form := wizard.New()
	form.Apply(wizard.Payload{
		ProviderToken:    mcp.ParseString(req, "provider_token", ""),
		ProviderEmail:    mcp.ParseString(req, "provider_email", ""),
		ProviderZone:     mcp.ParseString(req, "provider_zone", ""),
		ProviderDNS:      mcp.ParseString(req, "provider_dns", ""),
		ServerAddress:    mcp.ParseString(req, "server_address", ""),
		ServerPort:       mcp.ParseInt(req, "server_port", wizard.DefaultServerPort),
		ServerUsername:   mcp.ParseString(req, "server_username", ""),
		ServerAuthMethod: method,
		ServerKey:        &key,
		ServerPassword:   &password,
	})

	issues := form.Issues()
	if issues == nil {
		issues = []wizard.Issue{}
	}

	payload := form.ToPayload()
	if !mcp.ParseBoolean(req, "include_secrets", false) {
		payload = redactPayload(payload)
	}

	slog.Debug("form validated",
		slog.Bool("valid", form.IsValid()),
		slog.Int("issues", len(issues)),
	)

	return jsonResult(map[string]any{
		"valid":   form.IsValid(),
		"issues":  issues,
		"payload": payload,
	})
}

func (s *Server) handleValidateValue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := strings.ToLower(strings.TrimSpace(mcp.ParseString(req, "kind", "")))
	value := mcp.ParseString(req, "value", "")

	if kind == "" {
		return mcp.NewToolResultError(errKindRequired), nil
	}

	var valid bool
	switch kind {
	case kindEmail:
		valid = validate.Email(value)
	case kindDomain:
		valid = validate.Domain(value)
	case kindIP:
		valid = validate.IP(value)
	case kindServerAddress:
		valid = validate.ServerAddress(value)
	case kindPrivateKey:
		valid = validate.PrivateKey(value)
	case kindPort:
		port, err := strconv.Atoi(strings.TrimSpace(value))
		valid = err == nil && validate.Port(port)
	default:
		return mcp.NewToolResultError(fmt.Sprintf(errUnknownKind, kind)), nil
	}

	return jsonResult(map[string]any{
		"kind":  kind,
		"valid": valid,
	})
}

func (s *Server) handleRunWizard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.runner == nil {
		return mcp.NewToolResultError(errNoRunner), nil
	}
	if s.config.Output.Path == "" {
		return mcp.NewToolResultError(errNoOutputPath), nil
	}

	remember := mcp.ParseBoolean(req, "remember", false)

	slog.Info("showing setup wizard", slog.Bool("remember", remember))

	res, err := s.runner.Run(remember)
	switch {
	case errors.Is(err, setup.ErrInvalidForm):
		return jsonResult(map[string]any{
			"status":     res.Status,
			"session_id": res.SessionID,
			"issues":     res.Issues,
			"message":    "The submitted form was invalid and nothing was written.",
		})
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("wizard: %v", err)), nil
	}

	if res.Status == setup.StatusCancelled {
		return jsonResult(map[string]any{
			"status":     res.Status,
			"session_id": res.SessionID,
			"message":    "User cancelled the wizard",
		})
	}

	return jsonResult(map[string]any{
		"status":     res.Status,
		"session_id": res.SessionID,
		"path":       res.Path,
		"remember":   remember,
	})
}

// redactPayload hides every non-empty secret.
func redactPayload(p wizard.Payload) wizard.Payload {
	hide := func(s *string) *string {
		if s == nil || *s == "" {
			return s
		}
		r := redacted
		return &r
	}
	if p.ProviderToken != "" {
		p.ProviderToken = redacted
	}
	p.ServerKey = hide(p.ServerKey)
	p.ServerPassword = hide(p.ServerPassword)
	return p
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
