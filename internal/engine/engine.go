// Package engine holds the process-wide CryptoEngine reference described in
// spec §4.9/§6: a write-once handle around the random source and primitive
// implementations, installed once at process start and read lock-free
// thereafter. This mirrors ciphera's pattern of constructing its crypto
// helpers once in internal/app.Wire and handing them to every service, but
// makes the "once" property explicit instead of implicit in constructor
// discipline.
package engine

import (
	"crypto/rand"
	"io"
	"sync/atomic"

	"duskwire/internal/crypto"
	"duskwire/internal/errs"
)

// CryptoEngine is the externally injectable source of randomness and raw
// primitive access the core needs. The default engine (New) wraps
// crypto/rand directly; a caller may pass any other io.Reader, such as a
// deterministic one.
type CryptoEngine struct {
	Rand io.Reader
}

// RandomBytes fills and returns n random bytes from the engine's source.
func (e *CryptoEngine) RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(e.Rand, b); err != nil {
		return nil, err
	}
	return b, nil
}

// SHA256 hashes b.
func (e *CryptoEngine) SHA256(b []byte) [32]byte { return crypto.SHA256(b) }

// New constructs a CryptoEngine backed by rnd. A nil rnd defaults to
// crypto/rand.Reader.
func New(rnd io.Reader) *CryptoEngine {
	if rnd == nil {
		rnd = rand.Reader
	}
	return &CryptoEngine{Rand: rnd}
}

var installed atomic.Pointer[CryptoEngine]

// Init installs e as the process-wide engine. The engine is
// write-once-then-frozen: a second call leaves the installed engine in
// place and returns ErrEngineUnavailable.
func Init(e *CryptoEngine) error {
	if !installed.CompareAndSwap(nil, e) {
		return errs.ErrEngineUnavailable
	}
	return nil
}

// Default returns the installed engine, or ErrEngineUnavailable if Init was
// never called.
func Default() (*CryptoEngine, error) {
	e := installed.Load()
	if e == nil {
		return nil, errs.ErrEngineUnavailable
	}
	return e, nil
}

// Reset clears the installed engine. It exists only for tests that need a
// fresh write-once slot between cases.
func Reset() { installed.Store(nil) }
