package session

import "duskwire/internal/wire"

// Envelope is the outbound shape encrypt returns: exactly one of
// PreKeyMessage (an initiator session's very first outbound message) or
// MessageSigned (every other message, including all of a responder's) is
// set (spec §4.6's "PreKeyMessage-only behavior").
type Envelope struct {
	PreKeyMessage *wire.PreKeyMessage
	MessageSigned *wire.MessageSigned
}

// IsPreKeyMessage reports whether this envelope carries the first-message
// X3DH completion frame rather than a bare MessageSigned.
func (e Envelope) IsPreKeyMessage() bool { return e.PreKeyMessage != nil }
