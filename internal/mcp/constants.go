package mcp

const serverName = "ddns-setup"

// Tool names.
const (
	toolValidateForm  = "ddns_validate_form"
	toolValidateValue = "ddns_validate_value"
	toolRunWizard     = "ddns_run_wizard"
)

// Value kinds accepted by ddns_validate_value.
const (
	kindEmail         = "email"
	kindDomain        = "domain"
	kindIP            = "ip"
	kindServerAddress = "server_address"
	kindPrivateKey    = "private_key"
	kindPort          = "port"
)

const redacted = "[REDACTED]"

const (
	errKindRequired  = "kind is required"
	errUnknownKind   = "unknown kind %q: use email, domain, ip, server_address, private_key or port"
	errNoRunner      = "Wizard is not available in this server."
	errNoOutputPath  = "No output path configured. Set output.path in the config file or DDNS_SETUP_OUTPUT so the payload is not written to the MCP transport."
	errBadAuthMethod = "server_auth_method: %v"
)
