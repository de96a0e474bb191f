// Package setup runs the wizard end to end: prefill, dialog, validation and
// writing the payload.
package setup

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/acolita/ddns-setup/internal/adapters/realdialog"
	"github.com/acolita/ddns-setup/internal/adapters/realfs"
	"github.com/acolita/ddns-setup/internal/config"
	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/security"
	"github.com/acolita/ddns-setup/internal/ui"
	"github.com/acolita/ddns-setup/internal/wizard"
)

// ErrInvalidForm is returned when a submitted or checked form does not pass
// validation.
var ErrInvalidForm = errors.New("form is invalid")

// ErrNoSecretStore is returned by Forget when no secret store is configured.
var ErrNoSecretStore = errors.New("no secret store configured")

// Session outcomes.
const (
	StatusWritten   = "written"
	StatusCancelled = "cancelled"
	StatusInvalid   = "invalid"
)

// Result describes how a wizard session ended.
type Result struct {
	Status    string
	SessionID string
	Path      string // empty when the payload went to stdout
	Issues    []wizard.Issue
	// DefaultsPath is the config file the non-secret fields were saved to,
	// or empty.
	DefaultsPath string
}

// Runner drives one wizard session.
type Runner struct {
	config  *config.Config
	fs      ports.FileSystem
	dialog  ports.Dialog
	secrets ports.SecretStore
	stdout  io.Writer
	printer *ui.Printer

	defaultsPath string
}

// Option configures a Runner.
type Option func(*Runner)

// WithFileSystem sets the filesystem used for key files and output.
func WithFileSystem(fs ports.FileSystem) Option {
	return func(r *Runner) {
		r.fs = fs
	}
}

// WithDialogProvider sets the interactive form implementation.
func WithDialogProvider(d ports.Dialog) Option {
	return func(r *Runner) {
		r.dialog = d
	}
}

// WithSecretStore enables secret prefill and Remember. Without one, secrets
// come only from the environment.
func WithSecretStore(s ports.SecretStore) Option {
	return func(r *Runner) {
		r.secrets = s
	}
}

// WithStdout sets where the payload goes when no output path is configured.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithPrinter sets the printer used for validation reports.
func WithPrinter(p *ui.Printer) Option {
	return func(r *Runner) {
		r.printer = p
	}
}

// WithSaveDefaults makes a successful Run store the submitted non-secret
// fields as the defaults section of the config file at path.
func WithSaveDefaults(path string) Option {
	return func(r *Runner) {
		r.defaultsPath = path
	}
}

// NewRunner creates a runner. Unset options fall back to the real
// filesystem, the terminal form, stdout and a stderr printer.
func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r := &Runner{
		config: cfg,
		fs:     realfs.New(),
		dialog: realdialog.New(),
		stdout: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.printer == nil {
		r.printer = ui.NewPrinter(os.Stderr, ui.ColorDefault())
	}
	return r
}

// Prefill builds the values the dialog opens with: form defaults, then the
// config defaults, then secrets from the environment, the key file and the
// secret store. Lookup failures are logged and skipped.
func (r *Runner) Prefill() wizard.Payload {
	p := wizard.New().ToPayload()
	d := r.config.Defaults

	setIf(&p.ProviderEmail, d.ProviderEmail)
	setIf(&p.ProviderZone, d.ProviderZone)
	setIf(&p.ProviderDNS, d.ProviderDNS)
	setIf(&p.ServerAddress, d.ServerAddress)
	setIf(&p.ServerUsername, d.ServerUsername)
	if d.ServerPort != 0 {
		p.ServerPort = d.ServerPort
	}
	if d.AuthMethod != "" {
		if method, err := wizard.ParseAuthMethod(d.AuthMethod); err == nil {
			p.ServerAuthMethod = method
		}
	}

	p.ProviderToken = r.config.Secrets.ProviderToken
	password := r.config.Secrets.ServerPassword
	key := ""
	if d.KeyPath != "" {
		key = r.readKeyFile(d.KeyPath)
	}

	if r.secrets != nil {
		if p.ProviderToken == "" && p.ProviderEmail != "" && p.ProviderZone != "" {
			p.ProviderToken = r.lookup("provider token", func() (string, error) {
				return r.secrets.ProviderToken(p.ProviderEmail, p.ProviderZone)
			})
		}
		if p.ServerAddress != "" && p.ServerUsername != "" {
			if password == "" {
				password = r.lookup("server password", func() (string, error) {
					return r.secrets.ServerSecret(wizard.Password, p.ServerAddress, p.ServerUsername)
				})
			}
			if key == "" {
				key = r.lookup("server key", func() (string, error) {
					return r.secrets.ServerSecret(wizard.Key, p.ServerAddress, p.ServerUsername)
				})
			}
		}
	}

	p.ServerPassword = &password
	p.ServerKey = &key
	return p
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (r *Runner) lookup(what string, fn func() (string, error)) string {
	v, err := fn()
	if err != nil {
		slog.Warn("secret lookup failed",
			slog.String("secret", what),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return v
}

func (r *Runner) readKeyFile(path string) string {
	path = r.expandHome(path)
	data, err := r.fs.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read private key file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return ""
	}
	defer security.Wipe(data)
	return string(data)
}

func (r *Runner) expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := r.fs.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Run shows the wizard and writes the payload when the user submits a valid
// form. remember stores the submitted secrets when a secret store is set.
func (r *Runner) Run(remember bool) (Result, error) {
	store := wizard.NewStore(nil)
	logger := slog.With(slog.String("session_id", store.SessionID()))

	result, err := r.dialog.WizardForm(r.Prefill())
	if err != nil {
		return Result{SessionID: store.SessionID()}, fmt.Errorf("wizard dialog: %w", err)
	}
	if !result.Confirmed {
		logger.Info("wizard cancelled by user")
		return Result{Status: StatusCancelled, SessionID: store.SessionID()}, nil
	}

	store.Update(func(f *wizard.Form) {
		f.Apply(result.Payload)
	})
	form := store.Snapshot()

	if !form.IsValid() {
		issues := form.Issues()
		r.printer.Report(&form)
		logger.Info("wizard form rejected", slog.Int("issues", len(issues)))
		return Result{
			Status:    StatusInvalid,
			SessionID: store.SessionID(),
			Issues:    issues,
		}, ErrInvalidForm
	}

	payload := form.ToPayload()
	path, err := r.write(payload)
	if err != nil {
		return Result{SessionID: store.SessionID()}, err
	}

	logger.Info("payload written",
		slog.String("output", outputName(path)),
		slog.String("auth_method", payload.ServerAuthMethod.String()),
	)

	res := Result{Status: StatusWritten, SessionID: store.SessionID(), Path: path}

	if remember && r.secrets != nil {
		if err := r.secrets.Remember(payload); err != nil {
			return res, fmt.Errorf("remember secrets: %w", err)
		}
		logger.Info("secrets remembered")
	}

	if r.defaultsPath != "" {
		if err := r.saveDefaults(payload); err != nil {
			return res, err
		}
		res.DefaultsPath = r.defaultsPath
		logger.Info("defaults saved", slog.String("path", r.defaultsPath))
	}

	return res, nil
}

// saveDefaults writes the payload's non-secret fields to the config file and
// to the runner's config, so a later Prefill or Forget sees them.
func (r *Runner) saveDefaults(p wizard.Payload) error {
	d := config.DefaultsConfig{
		ProviderEmail:  p.ProviderEmail,
		ProviderZone:   p.ProviderZone,
		ProviderDNS:    p.ProviderDNS,
		ServerAddress:  p.ServerAddress,
		ServerPort:     p.ServerPort,
		ServerUsername: p.ServerUsername,
		AuthMethod:     p.ServerAuthMethod.String(),
		KeyPath:        r.config.Defaults.KeyPath,
	}
	if err := config.SaveDefaults(r.defaultsPath, d, r.fs); err != nil {
		return fmt.Errorf("save defaults: %w", err)
	}
	r.config.Defaults = d
	return nil
}

// Forget removes the secrets remembered for the configured defaults: the
// token for the provider email and zone, and both SSH secrets for the
// server user and address. It returns the payload whose entries were
// removed.
func (r *Runner) Forget() (wizard.Payload, error) {
	if r.secrets == nil {
		return wizard.Payload{}, ErrNoSecretStore
	}

	d := r.config.Defaults
	p := wizard.Payload{
		ProviderEmail:  d.ProviderEmail,
		ProviderZone:   d.ProviderZone,
		ServerAddress:  d.ServerAddress,
		ServerUsername: d.ServerUsername,
	}
	if p.ProviderZone == "" && p.ServerAddress == "" {
		return p, errors.New("forget: no provider zone or server address in the defaults")
	}

	if err := r.secrets.Forget(p); err != nil {
		return p, fmt.Errorf("forget secrets: %w", err)
	}

	slog.Info("secrets forgotten",
		slog.String("zone", p.ProviderZone),
		slog.String("server", p.ServerUsername+"@"+p.ServerAddress),
	)
	return p, nil
}

// write encodes the payload to the configured output and returns the path
// written, or "" for stdout. Files are created owner-only.
func (r *Runner) write(p wizard.Payload) (string, error) {
	data, err := p.Encode(r.config.Output.Indent)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	data = append(data, '\n')
	defer security.Wipe(data)

	if r.config.Output.Path == "" {
		if _, err := r.stdout.Write(data); err != nil {
			return "", fmt.Errorf("write payload: %w", err)
		}
		return "", nil
	}

	path := r.expandHome(r.config.Output.Path)
	if err := r.fs.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := r.fs.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("write payload: %w", err)
	}
	return path, nil
}

func outputName(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
