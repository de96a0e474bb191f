package realdialog

// The MCP server's stdin and stdout carry the protocol and its parent owns
// the terminal, so the form cannot run in-process. Launcher instead:
//  1. Encrypts the prefill to a temp file (AES-256-GCM)
//  2. Writes a self-deleting wrapper script exporting the file path and key
//  3. Opens a new terminal window running the wrapper, which re-executes
//     this binary with -form
//  4. The helper runs the form, encrypts the result back into the same file
//     and writes a done marker
//  5. Launcher polls for the marker, then decrypts the result
//
// The temp file is 0600 and removed after reading; the wrapper is 0700.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/acolita/ddns-setup/internal/ports"
	"github.com/acolita/ddns-setup/internal/security"
	"github.com/acolita/ddns-setup/internal/wizard"
)

const (
	envFormFile = "DDNS_SETUP_FORM_FILE"
	envFormKey  = "DDNS_SETUP_FORM_KEY"

	doneSuffix = ".done"
	doneOK     = "ok"

	// HelperFlag is the command-line flag that makes the binary run
	// RunFormHelper instead of its normal mode.
	HelperFlag = "form"

	defaultFormTimeout = 5 * time.Minute
	defaultPoll        = 200 * time.Millisecond
)

// LaunchFunc opens a terminal running scriptPath. The returned func, if not
// nil, closes the window afterwards.
type LaunchFunc func(scriptPath string) (func(), error)

// Launcher implements ports.Dialog by running the form in a separate
// terminal window.
type Launcher struct {
	accessible bool
	timeout    time.Duration
	poll       time.Duration
	tempDir    string
	executable func() (string, error)
	launch     LaunchFunc
}

// LauncherOption configures a Launcher.
type LauncherOption func(*Launcher)

// WithHelperAccessible passes -accessible to the helper.
func WithHelperAccessible(on bool) LauncherOption {
	return func(l *Launcher) {
		l.accessible = on
	}
}

// WithFormTimeout bounds how long the launcher waits for the user.
func WithFormTimeout(d time.Duration) LauncherOption {
	return func(l *Launcher) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLaunchFunc replaces the terminal detection.
func WithLaunchFunc(fn LaunchFunc) LauncherOption {
	return func(l *Launcher) {
		l.launch = fn
	}
}

// WithTempDir sets where the encrypted file and wrapper are created.
func WithTempDir(dir string) LauncherOption {
	return func(l *Launcher) {
		l.tempDir = dir
	}
}

// NewLauncher returns a Launcher using the platform terminal.
func NewLauncher(opts ...LauncherOption) *Launcher {
	l := &Launcher{
		timeout:    defaultFormTimeout,
		poll:       defaultPoll,
		executable: os.Executable,
		launch:     launchTerminal,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WizardForm launches the form in a new terminal window and waits for the
// helper to finish.
func (l *Launcher) WizardForm(prefill wizard.Payload) (ports.DialogResult, error) {
	unconfirmed := ports.DialogResult{Payload: prefill}

	key, err := generateKey()
	if err != nil {
		return unconfirmed, err
	}

	tmpPath, err := l.writeEncryptedPrefill(prefill, key)
	if err != nil {
		return unconfirmed, err
	}
	defer os.Remove(tmpPath)

	donePath := tmpPath + doneSuffix
	defer os.Remove(donePath)

	wrapperPath, err := l.writeWrapperScript(tmpPath, key)
	if err != nil {
		return unconfirmed, err
	}
	defer os.Remove(wrapperPath)

	closeTerminal, err := l.launch(wrapperPath)
	if err != nil {
		return unconfirmed, fmt.Errorf("launch terminal: %w", err)
	}

	slog.Debug("waiting for form helper", slog.Duration("timeout", l.timeout))

	err = l.waitForDone(donePath)
	if closeTerminal != nil {
		closeTerminal()
	}
	if err != nil {
		return unconfirmed, err
	}

	return readEncryptedResult(tmpPath, key)
}

// writeEncryptedPrefill marshals and encrypts prefill data to a temp file.
func (l *Launcher) writeEncryptedPrefill(prefill wizard.Payload, key string) (string, error) {
	prefillJSON, err := json.Marshal(prefill)
	if err != nil {
		return "", fmt.Errorf("marshal prefill: %w", err)
	}

	encrypted, err := seal(prefillJSON, key)
	security.Wipe(prefillJSON)
	if err != nil {
		return "", fmt.Errorf("encrypt prefill: %w", err)
	}

	tmpFile, err := os.CreateTemp(l.tempDir, "ddns-setup-form-*.enc")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmpFile.Write(encrypted); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return tmpPath, nil
}

// writeWrapperScript creates a self-deleting shell script that re-executes
// this binary as the form helper.
func (l *Launcher) writeWrapperScript(tmpPath, key string) (string, error) {
	selfPath, err := l.executable()
	if err != nil {
		return "", fmt.Errorf("find executable: %w", err)
	}

	args := "-" + HelperFlag
	if l.accessible {
		args += " -accessible"
	}

	content := fmt.Sprintf("#!/bin/sh\nrm -f \"$0\"\nexport %s=%s\nexport %s=%s\nexec %s %s\n",
		envFormFile, shellQuote(tmpPath),
		envFormKey, shellQuote(key),
		shellQuote(selfPath), args,
	)

	f, err := os.CreateTemp(l.tempDir, "ddns-setup-wrapper-*.sh")
	if err != nil {
		return "", fmt.Errorf("create wrapper: %w", err)
	}
	wrapperPath := f.Name()

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(wrapperPath)
		return "", fmt.Errorf("write wrapper: %w", err)
	}
	f.Close()

	if err := os.Chmod(wrapperPath, 0700); err != nil {
		os.Remove(wrapperPath)
		return "", fmt.Errorf("chmod wrapper: %w", err)
	}

	return wrapperPath, nil
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// waitForDone polls for the done marker file, returning nil on success or an error.
func (l *Launcher) waitForDone(donePath string) error {
	timeout := time.After(l.timeout)
	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			return fmt.Errorf("form timed out after %s", l.timeout)
		case <-ticker.C:
			data, err := os.ReadFile(donePath)
			if err != nil {
				continue
			}
			if string(data) != doneOK {
				return fmt.Errorf("form helper: %s", string(data))
			}
			return nil
		}
	}
}

// readEncryptedResult reads and decrypts the form result from the temp file.
func readEncryptedResult(tmpPath, key string) (ports.DialogResult, error) {
	var zero ports.DialogResult

	encResult, err := os.ReadFile(tmpPath)
	if err != nil {
		return zero, fmt.Errorf("read result: %w", err)
	}

	decResult, err := open(encResult, key)
	if err != nil {
		return zero, fmt.Errorf("decrypt result: %w", err)
	}
	defer security.Wipe(decResult)

	var result ports.DialogResult
	if err := json.Unmarshal(decResult, &result); err != nil {
		return zero, fmt.Errorf("unmarshal result: %w", err)
	}

	return result, nil
}

// launchTerminal opens a new terminal window running the given script.
// Returns a cleanup function to close the window (nil if not needed).
func launchTerminal(scriptPath string) (func(), error) {
	switch runtime.GOOS {
	case "darwin":
		return launchTerminalDarwin(scriptPath)
	case "linux":
		return launchTerminalLinux(scriptPath)
	default:
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// launchTerminalDarwin opens a new Terminal.app window via osascript.
// Returns a cleanup function that closes the window by its ID.
func launchTerminalDarwin(scriptPath string) (func(), error) {
	appleScript := fmt.Sprintf(`tell application "Terminal"
	activate
	do script "%s"
	return id of front window
end tell`, scriptPath)

	out, err := exec.Command("osascript", "-e", appleScript).Output()
	if err != nil {
		return nil, err
	}

	windowID := strings.TrimSpace(string(out))

	cleanup := func() {
		// Let the wrapper exit first so Terminal does not ask before closing.
		time.Sleep(500 * time.Millisecond)
		closeScript := fmt.Sprintf(`tell application "Terminal"
	close (every window whose id is %s)
end tell`, windowID)
		if err := exec.Command("osascript", "-e", closeScript).Run(); err != nil {
			slog.Debug("close terminal window", slog.String("error", err.Error()))
		}
	}

	return cleanup, nil
}

var linuxTerminals = []struct {
	name string
	args []string
}{
	{"x-terminal-emulator", []string{"-e"}},
	{"gnome-terminal", []string{"--"}},
	{"konsole", []string{"-e"}},
	{"xfce4-terminal", []string{"-e"}},
	{"xterm", []string{"-e"}},
}

// launchTerminalLinux tries common terminal emulators in order of preference.
// They close on their own when the wrapper exits.
func launchTerminalLinux(scriptPath string) (func(), error) {
	tried := make([]string, 0, len(linuxTerminals))
	for _, t := range linuxTerminals {
		tried = append(tried, t.name)
		binPath, err := exec.LookPath(t.name)
		if err != nil {
			continue
		}
		cmd := exec.Command(binPath, append(t.args, scriptPath)...)
		if err := cmd.Start(); err != nil {
			continue
		}
		go cmd.Wait()
		return nil, nil
	}

	return nil, fmt.Errorf("no terminal emulator found; tried: %s", strings.Join(tried, ", "))
}

var _ ports.Dialog = (*Launcher)(nil)
