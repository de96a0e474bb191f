package ports

import "github.com/acolita/ddns-setup/internal/wizard"

// DialogResult is what the user submitted from the wizard form.
type DialogResult struct {
	Payload   wizard.Payload `json:"payload"`
	Confirmed bool           `json:"confirmed"`
}

// Dialog abstracts the interactive wizard.
// Implementations may use TUI forms or test fakes.
type Dialog interface {
	// WizardForm shows the form pre-filled from prefill. The user may edit any
	// field. Confirmed is false if the user declined to submit.
	WizardForm(prefill wizard.Payload) (DialogResult, error)
}
