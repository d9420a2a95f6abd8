// Package errs holds the sentinel error kinds surfaced by the ratchet core
// (spec §7). Callers check them with errors.Is; each is wrapped with
// call-site context via fmt.Errorf("...: %w", ...) rather than reached
// through a third-party errors package — none of the reference repos import
// one directly, so the standard library's Is/As/%w support is the grounded
// choice here.
package errs

import "errors"

var (
	// ErrMalformedMessage signals a codec failure: a missing required
	// field, a length mismatch, or an otherwise unparseable record.
	ErrMalformedMessage = errors.New("duskwire: malformed message")

	// ErrBadIdentity signals an identity or signed-prekey signature that
	// failed to verify.
	ErrBadIdentity = errors.New("duskwire: bad identity signature")

	// ErrUnknownPreKey signals a cited one-time prekey id that is absent
	// or was already consumed.
	ErrUnknownPreKey = errors.New("duskwire: unknown or consumed pre-key")

	// ErrMessageOutsideRatchetWindow signals a message whose previousCounter
	// predates the retained DH step ring.
	ErrMessageOutsideRatchetWindow = errors.New("duskwire: message outside ratchet window")

	// ErrDuplicateMessage signals a counter that was already decrypted and
	// is not present in the skipped-key cache.
	ErrDuplicateMessage = errors.New("duskwire: duplicate message")

	// ErrDecryptFailed signals an AEAD tag or MessageSigned MAC mismatch.
	ErrDecryptFailed = errors.New("duskwire: decrypt failed")

	// ErrEngineUnavailable signals that no CryptoEngine has been installed,
	// that engine.Init was called after one already was, or that a ratchet
	// has no DH step established to send on.
	ErrEngineUnavailable = errors.New("duskwire: crypto engine unavailable")
)
