// Package ui renders wizard results for the terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/acolita/ddns-setup/internal/wizard"
	"github.com/fatih/color"
)

// Printer writes coloured status lines.
type Printer struct {
	out     io.Writer
	success *color.Color
	warn    *color.Color
	error   *color.Color
	muted   *color.Color
}

// NewPrinter returns a printer writing to out. Colour is disabled when
// colorEnabled is false, e.g. when out is not a terminal or NO_COLOR is set.
func NewPrinter(out io.Writer, colorEnabled bool) *Printer {
	p := &Printer{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		error:   color.New(color.FgRed, color.Bold),
		muted:   color.New(color.Faint),
	}
	if !colorEnabled {
		p.success.DisableColor()
		p.warn.DisableColor()
		p.error.DisableColor()
		p.muted.DisableColor()
	}
	return p
}

// ColorDefault reports whether stdout looks like a colour terminal.
func ColorDefault() bool {
	return !color.NoColor
}

var reportOrder = []string{
	wizard.FieldProviderToken,
	wizard.FieldProviderEmail,
	wizard.FieldProviderZone,
	wizard.FieldProviderDNS,
	wizard.FieldServerAddress,
	wizard.FieldServerPort,
	wizard.FieldServerUsername,
	wizard.FieldServerKey,
	wizard.FieldServerPassword,
}

// Report prints one line per field and a summary. The secret not selected by
// the auth method is listed as skipped unless extra flags it.
func (p *Printer) Report(form *wizard.Form, extra ...wizard.Issue) {
	issues := make(map[string]string)
	for _, issue := range append(form.Issues(), extra...) {
		issues[issue.Field] = issue.Message
	}

	skipped := wizard.FieldServerKey
	if form.ServerAuthMethod == wizard.Key {
		skipped = wizard.FieldServerPassword
	}

	fmt.Fprintf(p.out, "auth method: %s\n", form.ServerAuthMethod)
	for _, field := range reportOrder {
		switch {
		case issues[field] != "":
			p.error.Fprintf(p.out, "  ✗ %-16s %s\n", field, issues[field])
		case field == skipped:
			p.muted.Fprintf(p.out, "  - %-16s skipped\n", field)
		default:
			p.success.Fprintf(p.out, "  ✓ %-16s ok\n", field)
		}
	}

	if len(issues) == 0 {
		p.Success("form is valid")
	} else {
		p.Error("form has %d invalid field(s)", len(issues))
	}
}

// Success prints a green line.
func (p *Printer) Success(format string, args ...any) {
	p.success.Fprintf(p.out, format+"\n", args...)
}

// Warn prints a yellow line.
func (p *Printer) Warn(format string, args ...any) {
	p.warn.Fprintf(p.out, format+"\n", args...)
}

// Error prints a red line.
func (p *Printer) Error(format string, args ...any) {
	p.error.Fprintf(p.out, format+"\n", args...)
}
