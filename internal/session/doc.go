// Package session implements the façade of spec §4.8: creating a session as
// either X3DH party, encrypting and decrypting the two wire envelope shapes,
// and exposing stats/serialization for persistence layers above the core.
// It is grounded on ciphera's internal/domain session service, rebuilt
// around internal/x3dh, internal/ratchet, internal/identity and
// internal/wire instead of the teacher's flat domain/crypto split.
package session
