package wire

import "time"

// Identity is the wire-frame of a party's long-term public identity
// (spec §4.2): signing key, exchange key, and the signature binding them.
type Identity struct {
	SigningKey  [32]byte // Ed25519 public
	ExchangeKey [32]byte // X25519 public
	Signature   []byte
	CreatedAt   time.Time
}

func (id Identity) toFields() Fields {
	return Fields{
		versionField(),
		FieldPub32(1, id.SigningKey),
		FieldPub32(2, id.ExchangeKey),
		FieldBytes(3, id.Signature),
		FieldDate(4, id.CreatedAt),
	}
}

func (id Identity) Encode() []byte { return Encode(id.toFields()) }

func DecodeIdentity(b []byte) (Identity, error) {
	fs, err := Decode(b)
	if err != nil {
		return Identity{}, err
	}
	return identityFromFields(fs)
}

func identityFromFields(fs Fields) (Identity, error) {
	var id Identity
	var err error
	if id.SigningKey, err = fs.RequirePub32(1); err != nil {
		return Identity{}, err
	}
	if id.ExchangeKey, err = fs.RequirePub32(2); err != nil {
		return Identity{}, err
	}
	id.Signature = fs.OptionalBytes(3)
	if id.CreatedAt, err = fs.RequireDate(4); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// PreKey is a one-time pre-key's wire frame: a small integer id plus its
// X25519 public key.
type PreKey struct {
	ID  uint32
	Key [32]byte
}

func (p PreKey) toFields() Fields {
	return Fields{versionField(), FieldUint32(1, p.ID), FieldPub32(2, p.Key)}
}

func (p PreKey) Encode() []byte { return Encode(p.toFields()) }

func preKeyFromFields(fs Fields) (PreKey, error) {
	var p PreKey
	var err error
	if p.ID, err = fs.RequireUint32(1); err != nil {
		return PreKey{}, err
	}
	if p.Key, err = fs.RequirePub32(2); err != nil {
		return PreKey{}, err
	}
	return p, nil
}

// PreKeySigned extends PreKey with the Ed25519 signature over the raw key
// bytes (spec §4.2).
type PreKeySigned struct {
	ID        uint32
	Key       [32]byte
	Signature []byte
}

func (p PreKeySigned) toFields() Fields {
	return Fields{
		versionField(),
		FieldUint32(1, p.ID),
		FieldPub32(2, p.Key),
		FieldBytes(3, p.Signature),
	}
}

func (p PreKeySigned) Encode() []byte { return Encode(p.toFields()) }

func preKeySignedFromFields(fs Fields) (PreKeySigned, error) {
	var p PreKeySigned
	var err error
	if p.ID, err = fs.RequireUint32(1); err != nil {
		return PreKeySigned{}, err
	}
	if p.Key, err = fs.RequirePub32(2); err != nil {
		return PreKeySigned{}, err
	}
	if p.Signature, err = fs.RequireBytes(3); err != nil {
		return PreKeySigned{}, err
	}
	return p, nil
}

// PreKeyBundle is the record published for others to initiate X3DH against
// (spec §4.2, §3's PreKeyBundle invariants).
type PreKeyBundle struct {
	RegistrationID uint32
	Identity       Identity
	PreKey         *PreKey // optional one-time pre-key
	PreKeySigned   PreKeySigned
}

func (b PreKeyBundle) toFields() Fields {
	fields := Fields{
		versionField(),
		FieldUint32(1, b.RegistrationID),
		FieldBytes(2, b.Identity.Encode()),
		FieldBytes(4, b.PreKeySigned.Encode()),
	}
	if b.PreKey != nil {
		fields = append(fields, FieldBytes(3, b.PreKey.Encode()))
	}
	return fields
}

func (b PreKeyBundle) Encode() []byte { return Encode(b.toFields()) }

func DecodePreKeyBundle(buf []byte) (PreKeyBundle, error) {
	fs, err := Decode(buf)
	if err != nil {
		return PreKeyBundle{}, err
	}
	var b PreKeyBundle
	if b.RegistrationID, err = fs.RequireUint32(1); err != nil {
		return PreKeyBundle{}, err
	}
	idBytes, err := fs.RequireBytes(2)
	if err != nil {
		return PreKeyBundle{}, err
	}
	idFields, err := Decode(idBytes)
	if err != nil {
		return PreKeyBundle{}, err
	}
	if b.Identity, err = identityFromFields(idFields); err != nil {
		return PreKeyBundle{}, err
	}
	if pkBytes := fs.OptionalBytes(3); pkBytes != nil {
		pkFields, err := Decode(pkBytes)
		if err != nil {
			return PreKeyBundle{}, err
		}
		pk, err := preKeyFromFields(pkFields)
		if err != nil {
			return PreKeyBundle{}, err
		}
		b.PreKey = &pk
	}
	spkBytes, err := fs.RequireBytes(4)
	if err != nil {
		return PreKeyBundle{}, err
	}
	spkFields, err := Decode(spkBytes)
	if err != nil {
		return PreKeyBundle{}, err
	}
	if b.PreKeySigned, err = preKeySignedFromFields(spkFields); err != nil {
		return PreKeyBundle{}, err
	}
	return b, nil
}

// Message is the per-ciphertext ratchet header plus payload (spec §4.2).
type Message struct {
	SenderRatchetKey [32]byte
	Counter          uint32
	PreviousCounter  uint32
	CipherText       []byte
}

func (m Message) toFields() Fields {
	return Fields{
		versionField(),
		FieldPub32(1, m.SenderRatchetKey),
		FieldUint32(2, m.Counter),
		FieldUint32(3, m.PreviousCounter),
		FieldBytes(4, m.CipherText),
	}
}

func (m Message) Encode() []byte { return Encode(m.toFields()) }

func messageFromFields(fs Fields) (Message, error) {
	var m Message
	var err error
	if m.SenderRatchetKey, err = fs.RequirePub32(1); err != nil {
		return Message{}, err
	}
	if m.Counter, err = fs.RequireUint32(2); err != nil {
		return Message{}, err
	}
	if m.PreviousCounter, err = fs.RequireUint32(3); err != nil {
		return Message{}, err
	}
	if m.CipherText, err = fs.RequireBytes(4); err != nil {
		return Message{}, err
	}
	return m, nil
}

// MessageSigned wraps Message with the sender's Ed25519 public key and the
// HMAC-SHA-256 tag described in spec §4.2 (not an Ed25519 signature,
// despite the field name inherited from the original protocol).
type MessageSigned struct {
	SenderKey [32]byte // Ed25519 public
	Message   Message
	Signature []byte // HMAC-SHA-256 tag
}

func (m MessageSigned) toFields() Fields {
	return Fields{
		versionField(),
		FieldPub32(1, m.SenderKey),
		FieldBytes(2, m.Message.Encode()),
		FieldBytes(3, m.Signature),
	}
}

func (m MessageSigned) Encode() []byte { return Encode(m.toFields()) }

func DecodeMessageSigned(buf []byte) (MessageSigned, error) {
	fs, err := Decode(buf)
	if err != nil {
		return MessageSigned{}, err
	}
	return messageSignedFromFields(fs)
}

func messageSignedFromFields(fs Fields) (MessageSigned, error) {
	var m MessageSigned
	var err error
	if m.SenderKey, err = fs.RequirePub32(1); err != nil {
		return MessageSigned{}, err
	}
	msgBytes, err := fs.RequireBytes(2)
	if err != nil {
		return MessageSigned{}, err
	}
	msgFields, err := Decode(msgBytes)
	if err != nil {
		return MessageSigned{}, err
	}
	if m.Message, err = messageFromFields(msgFields); err != nil {
		return MessageSigned{}, err
	}
	if m.Signature, err = fs.RequireBytes(3); err != nil {
		return MessageSigned{}, err
	}
	return m, nil
}

// PreKeyMessage is the first-message envelope that lets a responder
// complete X3DH (spec §4.2, §4.6's "PreKeyMessage-only behavior").
type PreKeyMessage struct {
	RegistrationID uint32
	PreKeyID       *uint32 // optional one-time pre-key id
	PreKeySignedID uint32
	BaseKey        [32]byte
	Identity       Identity
	SignedMessage  MessageSigned
}

func (p PreKeyMessage) toFields() Fields {
	fields := Fields{
		versionField(),
		FieldUint32(1, p.RegistrationID),
		FieldUint32(3, p.PreKeySignedID),
		FieldPub32(4, p.BaseKey),
		FieldBytes(5, p.Identity.Encode()),
		FieldBytes(6, p.SignedMessage.Encode()),
	}
	if p.PreKeyID != nil {
		fields = append(fields, FieldUint32(2, *p.PreKeyID))
	}
	return fields
}

func (p PreKeyMessage) Encode() []byte { return Encode(p.toFields()) }

func DecodePreKeyMessage(buf []byte) (PreKeyMessage, error) {
	fs, err := Decode(buf)
	if err != nil {
		return PreKeyMessage{}, err
	}
	var p PreKeyMessage
	if p.RegistrationID, err = fs.RequireUint32(1); err != nil {
		return PreKeyMessage{}, err
	}
	if v, ok, err := fs.OptionalUint32(2, 0); err != nil {
		return PreKeyMessage{}, err
	} else if ok {
		p.PreKeyID = &v
	}
	if p.PreKeySignedID, err = fs.RequireUint32(3); err != nil {
		return PreKeyMessage{}, err
	}
	if p.BaseKey, err = fs.RequirePub32(4); err != nil {
		return PreKeyMessage{}, err
	}
	idBytes, err := fs.RequireBytes(5)
	if err != nil {
		return PreKeyMessage{}, err
	}
	idFields, err := Decode(idBytes)
	if err != nil {
		return PreKeyMessage{}, err
	}
	if p.Identity, err = identityFromFields(idFields); err != nil {
		return PreKeyMessage{}, err
	}
	smBytes, err := fs.RequireBytes(6)
	if err != nil {
		return PreKeyMessage{}, err
	}
	smFields, err := Decode(smBytes)
	if err != nil {
		return PreKeyMessage{}, err
	}
	if p.SignedMessage, err = messageSignedFromFields(smFields); err != nil {
		return PreKeyMessage{}, err
	}
	return p, nil
}
