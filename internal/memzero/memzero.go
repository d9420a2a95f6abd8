// Package memzero best-effort wipes sensitive byte slices after use,
// adapted from ciphera's internal/util/memzero.
package memzero

import "crypto/subtle"

// Zero overwrites b with zeros.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	zero := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zero)
}
