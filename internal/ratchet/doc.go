// Package ratchet implements the symmetric chain and DH ratchet mechanics of
// spec §4.5-§4.7: chain-key advancement, the bounded DH step ring, and the
// skipped-message-key cache. It is the adapted descendant of ciphera's
// internal/protocol/ratchet package, rebuilt around the internal/crypto
// tagged-key primitives and internal/wire record types.
package ratchet
