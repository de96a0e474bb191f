package security

import "crypto/rand"

// Wipe overwrites data with random bytes and then zeros. Use it on buffers
// that held secrets once they are no longer needed.
func Wipe(data []byte) {
	if len(data) == 0 {
		return
	}
	_, _ = rand.Read(data)
	clear(data)
}
