package session

import (
	"duskwire/internal/crypto"
	"duskwire/internal/wire"
)

// computeMAC returns HMAC-SHA-256(hmacKey, receiverSigningPk‖senderSigningPk‖
// encode(message)), the MessageSigned tag of spec §4.2. Callers pick
// receiverSigningPk and senderSigningPk according to which side they are
// acting as: a sender uses the peer's signing key as receiver and its own as
// sender; a verifier always uses its own local signing key as receiver so
// the tag is bound to the intended recipient (spec §9's resolved Open
// Question).
func computeMAC(hmacKey crypto.CryptoKey, receiverSigningPk, senderSigningPk [32]byte, msg wire.Message) []byte {
	data := make([]byte, 0, 64+len(msg.CipherText)+32)
	data = append(data, receiverSigningPk[:]...)
	data = append(data, senderSigningPk[:]...)
	data = append(data, msg.Encode()...)
	tag := crypto.HMACSum256(hmacKey.Slice(), data)
	return tag[:]
}
