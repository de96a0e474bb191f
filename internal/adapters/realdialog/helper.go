package realdialog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/security"
	"github.com/acolita/ddns-setup/internal/wizard"
)

// RunFormHelper is the entry point for the -form helper process started by
// Launcher. It reads the encrypted prefill named in the environment, runs d
// in this process's own terminal window, encrypts the result back and
// writes the done marker. Failures are written to the marker too, so the
// launcher stops waiting.
func RunFormHelper(d ports.Dialog, screen io.Writer) error {
	formFile := os.Getenv(envFormFile)
	formKey := os.Getenv(envFormKey)

	if formFile == "" || formKey == "" {
		return fmt.Errorf("missing %s or %s", envFormFile, envFormKey)
	}

	err := runHelper(d, screen, formFile, formKey)
	marker := doneOK
	if err != nil {
		marker = err.Error()
	}
	if werr := os.WriteFile(formFile+doneSuffix, []byte(marker), 0600); werr != nil && err == nil {
		err = fmt.Errorf("write done marker: %w", werr)
	}
	return err
}

func runHelper(d ports.Dialog, screen io.Writer, formFile, formKey string) error {
	encData, err := os.ReadFile(formFile)
	if err != nil {
		return fmt.Errorf("read form file: %w", err)
	}

	decData, err := open(encData, formKey)
	if err != nil {
		return fmt.Errorf("decrypt form data: %w", err)
	}

	var prefill wizard.Payload
	err = json.Unmarshal(decData, &prefill)
	security.Wipe(decData)
	if err != nil {
		return fmt.Errorf("unmarshal form data: %w", err)
	}

	fmt.Fprint(screen, "\033[2J\033[H")
	fmt.Fprintln(screen, "\n  ddns-setup: DNS provider and SSH server details")

	result, err := d.WizardForm(prefill)
	if err != nil {
		return fmt.Errorf("form: %w", err)
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	encResult, err := seal(resultJSON, formKey)
	security.Wipe(resultJSON)
	if err != nil {
		return fmt.Errorf("encrypt result: %w", err)
	}

	if err := os.WriteFile(formFile, encResult, 0600); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
