// Package realdialog provides TUI-based ports.Dialog implementations using
// charmbracelet/huh.
//
// Provider runs the form in-process on the controlling terminal. It opens
// /dev/tty itself and never reads os.Stdin or writes os.Stdout, which may be
// a pipe carrying the payload or the MCP transport.
//
// Launcher is used when the process has no terminal of its own, e.g. when it
// runs as an MCP server. It hands the prefill to a helper in a new terminal
// window through an encrypted temp file; see launcher.go.
package realdialog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/wizard"
	"github.com/charmbracelet/huh"
)

const defaultTTY = "/dev/tty"

// ErrNoTerminal is returned when the form has no terminal to run on.
var ErrNoTerminal = errors.New("no terminal available for the wizard form")

// Provider implements ports.Dialog by running a huh form on the terminal.
type Provider struct {
	accessible bool
	ttyPath    string
	in         io.Reader
	out        io.Writer
}

// Option configures a Provider.
type Option func(*Provider)

// WithAccessibleMode renders plain prompts instead of the full TUI, for
// screen readers and dumb terminals.
func WithAccessibleMode(on bool) Option {
	return func(p *Provider) {
		p.accessible = on
	}
}

// WithTerminal runs the form on in and out instead of opening the
// controlling terminal.
func WithTerminal(in io.Reader, out io.Writer) Option {
	return func(p *Provider) {
		p.in = in
		p.out = out
	}
}

// WithTTYPath overrides the terminal device opened when no streams are set.
func WithTTYPath(path string) Option {
	return func(p *Provider) {
		p.ttyPath = path
	}
}

// New returns a new TUI dialog provider.
func New(opts ...Option) *Provider {
	p := &Provider{ttyPath: defaultTTY}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// terminal returns the streams the form runs on and a func releasing them.
func (p *Provider) terminal() (io.Reader, io.Writer, func(), error) {
	if p.in != nil && p.out != nil {
		return p.in, p.out, func() {}, nil
	}

	tty, err := os.OpenFile(p.ttyPath, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: open %s: %v", ErrNoTerminal, p.ttyPath, err)
	}
	return tty, tty, func() { tty.Close() }, nil
}

// WizardForm runs the form. Aborting with ctrl-c is reported as an
// unconfirmed result, not an error.
func (p *Provider) WizardForm(prefill wizard.Payload) (ports.DialogResult, error) {
	in, out, release, err := p.terminal()
	if err != nil {
		return ports.DialogResult{Payload: prefill}, err
	}
	defer release()

	state := newFormState(prefill)
	form := buildForm(state).
		WithAccessible(p.accessible).
		WithInput(in).
		WithOutput(out)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			slog.Info("wizard aborted by user")
			return ports.DialogResult{Payload: prefill}, nil
		}
		return ports.DialogResult{Payload: prefill}, fmt.Errorf("run form: %w", err)
	}

	return ports.DialogResult{
		Payload:   state.payload(),
		Confirmed: state.confirmed,
	}, nil
}

var _ ports.Dialog = (*Provider)(nil)
