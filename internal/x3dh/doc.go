// Package x3dh implements the extended triple Diffie-Hellman handshake
// (spec §4.4) that derives the initial root key both parties feed into the
// double ratchet. It is the adapted descendant of ciphera's
// internal/protocol/x3dh/x3dh.go, generalized to cover both the initiator
// and responder sides against the internal/identity and internal/wire
// types instead of the teacher's flat domain package.
package x3dh
