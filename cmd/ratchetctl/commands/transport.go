package commands

import (
	"fmt"

	"duskwire/internal/chanwire"
	"duskwire/internal/session"
	"duskwire/internal/wire"
)

// Frame kinds distinguishing a PreKeyMessage from a bare MessageSigned on
// the chanwire link; this tag lives only in the CLI demonstration, not in
// the wire codec itself, since the core protocol never needs to tell the
// two record kinds apart except by which side is still awaiting its first
// inbound message (spec §6).
const (
	frameKindPreKeyMessage byte = 0
	frameKindMessageSigned byte = 1
)

// sendEnvelope encodes env and sends it over ep, tagging the frame with its
// kind so the receiving end of the CLI demonstration knows which decoder to
// use.
func sendEnvelope(ep *chanwire.Endpoint, env session.Envelope) {
	if env.IsPreKeyMessage() {
		ep.Send(append([]byte{frameKindPreKeyMessage}, env.PreKeyMessage.Encode()...))
		return
	}
	ep.Send(append([]byte{frameKindMessageSigned}, env.MessageSigned.Encode()...))
}

// recvEnvelope receives one frame from ep and decodes it back into a
// wire.PreKeyMessage or wire.MessageSigned per its leading kind tag.
func recvEnvelope(ep *chanwire.Endpoint) (pkm *wire.PreKeyMessage, ms *wire.MessageSigned, err error) {
	frame := ep.Recv()
	if len(frame) == 0 {
		return nil, nil, fmt.Errorf("chanwire: empty frame")
	}
	switch frame[0] {
	case frameKindPreKeyMessage:
		v, err := wire.DecodePreKeyMessage(frame[1:])
		if err != nil {
			return nil, nil, err
		}
		return &v, nil, nil
	case frameKindMessageSigned:
		v, err := wire.DecodeMessageSigned(frame[1:])
		if err != nil {
			return nil, nil, err
		}
		return nil, &v, nil
	default:
		return nil, nil, fmt.Errorf("chanwire: unknown frame kind %d", frame[0])
	}
}
