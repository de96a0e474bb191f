package realdialog

import (
	"io"
	"os"
	"testing"
)

const stdinSentinel = "left for the transport\n"

// assertStdioUntouched runs fn with os.Stdin and os.Stdout swapped for pipes
// and fails if fn read from the former or wrote to the latter.
func assertStdioUntouched(t *testing.T, fn func()) {
	t.Helper()

	inR, inW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(inW, stdinSentinel); err != nil {
		t.Fatal(err)
	}
	inW.Close()

	oldIn, oldOut := os.Stdin, os.Stdout
	os.Stdin, os.Stdout = inR, outW
	func() {
		defer func() { os.Stdin, os.Stdout = oldIn, oldOut }()
		fn()
	}()
	outW.Close()

	written, _ := io.ReadAll(outR)
	outR.Close()
	if len(written) != 0 {
		t.Errorf("wrote %q to stdout", written)
	}

	left, _ := io.ReadAll(inR)
	inR.Close()
	if string(left) != stdinSentinel {
		t.Errorf("stdin was read: %q left, want %q", left, stdinSentinel)
	}
}
