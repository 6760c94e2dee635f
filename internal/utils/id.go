// Package utils holds small helpers shared across packages.
package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID returns a random hex identifier for transient handles such as
// subscriber bindings. Uniqueness is best-effort; these ids never
// outlive the process.
func NewID() string {
	var buf [12]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is extremely rare; the clock still gives a
		// usable identifier.
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}

	return hex.EncodeToString(buf[:])
}
