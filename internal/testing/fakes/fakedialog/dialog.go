// Package fakedialog provides a test fake for ports.Dialog.
package fakedialog

import (
	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/wizard"
)

// Provider is a controllable fake Dialog for testing.
type Provider struct {
	// Result is returned by WizardForm.
	Result ports.DialogResult
	// Edit, when set, derives the result from the prefill instead of Result.
	Edit func(prefill wizard.Payload) ports.DialogResult
	// Err is the error returned by WizardForm.
	Err error
	// Called tracks whether WizardForm was invoked.
	Called bool
	// ReceivedPrefill captures the prefill passed to WizardForm.
	ReceivedPrefill wizard.Payload
}

// New returns a new fake dialog provider.
func New() *Provider {
	return &Provider{}
}

// WizardForm returns the configured result.
func (p *Provider) WizardForm(prefill wizard.Payload) (ports.DialogResult, error) {
	p.Called = true
	p.ReceivedPrefill = prefill
	if p.Err != nil {
		return ports.DialogResult{Payload: prefill}, p.Err
	}
	if p.Edit != nil {
		return p.Edit(prefill), nil
	}
	return p.Result, nil
}

var _ ports.Dialog = (*Provider)(nil)
