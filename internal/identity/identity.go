package identity

import (
	"fmt"
	"sync"
	"time"

	"duskwire/internal/crypto"
	"duskwire/internal/engine"
	"duskwire/internal/errs"
	"duskwire/internal/wire"
)

// oneTimeKeyPair is a locally held one-time X25519 pre-key, addressable by
// a small integer id (spec §3's "Identity... an ordered sequence of
// one-time X25519 pre-key pairs, each addressable by small integer id").
type oneTimeKeyPair struct {
	Priv crypto.CryptoKey
	Pub  crypto.CryptoKey
}

// signedKeyPair is a locally held signed X25519 pre-key plus the Ed25519
// signature over its public bytes.
type signedKeyPair struct {
	Priv      crypto.CryptoKey
	Pub       crypto.CryptoKey
	Signature []byte
}

// Local is the long-term identity and pre-key material a single user owns
// (spec §3's Identity). Its long-term keys are set once at construction;
// its pre-key sets change only through AddSignedPreKey, AddOneTimePreKey and
// one-time pre-key consumption.
type Local struct {
	RegistrationID uint32
	SigningPriv    crypto.CryptoKey
	SigningPub     crypto.CryptoKey
	ExchangePriv   crypto.CryptoKey
	ExchangePub    crypto.CryptoKey
	CreatedAt      time.Time

	mu             sync.Mutex
	oneTimeKeys    map[uint32]oneTimeKeyPair
	nextOneTimeID  uint32
	signedKeys     map[uint32]signedKeyPair
	nextSignedID   uint32
	currentSigned  uint32
}

// New creates a fresh identity: an Ed25519 signing pair, an X25519 exchange
// pair, numSigned signed pre-keys and numOneTime one-time pre-keys
// (spec §4.3's "Creation generates... and optionally pre-allocates k
// one-time X25519 pre-keys and m signed X25519 pre-keys").
func New(eng *engine.CryptoEngine, registrationID uint32, numSigned, numOneTime int) (*Local, error) {
	signingPriv, signingPub, err := crypto.GenerateEd25519(eng.Rand)
	if err != nil {
		return nil, fmt.Errorf("identity: generate signing key: %w", err)
	}
	exchangePriv, exchangePub, err := crypto.GenerateX25519(eng.Rand)
	if err != nil {
		return nil, fmt.Errorf("identity: generate exchange key: %w", err)
	}

	id := &Local{
		RegistrationID: registrationID,
		SigningPriv:    signingPriv,
		SigningPub:     signingPub,
		ExchangePriv:   exchangePriv,
		ExchangePub:    exchangePub,
		CreatedAt:      time.Now().UTC(),
		oneTimeKeys:    make(map[uint32]oneTimeKeyPair),
		signedKeys:     make(map[uint32]signedKeyPair),
	}
	for i := 0; i < numSigned; i++ {
		if _, err := id.AddSignedPreKey(eng); err != nil {
			return nil, err
		}
	}
	for i := 0; i < numOneTime; i++ {
		if _, err := id.AddOneTimePreKey(eng); err != nil {
			return nil, err
		}
	}
	return id, nil
}

// AddSignedPreKey generates and stores a new signed X25519 pre-key, signs
// its public bytes with the identity's Ed25519 key, and marks it current.
func (id *Local) AddSignedPreKey(eng *engine.CryptoEngine) (uint32, error) {
	priv, pub, err := crypto.GenerateX25519(eng.Rand)
	if err != nil {
		return 0, fmt.Errorf("identity: generate signed pre-key: %w", err)
	}
	pubBytes := pub.Bytes32()
	sig := crypto.Sign(id.SigningPriv, pubBytes[:])

	id.mu.Lock()
	defer id.mu.Unlock()
	spkID := id.nextSignedID
	id.nextSignedID++
	id.signedKeys[spkID] = signedKeyPair{Priv: priv, Pub: pub, Signature: sig}
	id.currentSigned = spkID
	return spkID, nil
}

// AddOneTimePreKey generates and stores a new one-time X25519 pre-key.
func (id *Local) AddOneTimePreKey(eng *engine.CryptoEngine) (uint32, error) {
	priv, pub, err := crypto.GenerateX25519(eng.Rand)
	if err != nil {
		return 0, fmt.Errorf("identity: generate one-time pre-key: %w", err)
	}
	id.mu.Lock()
	defer id.mu.Unlock()
	opkID := id.nextOneTimeID
	id.nextOneTimeID++
	id.oneTimeKeys[opkID] = oneTimeKeyPair{Priv: priv, Pub: pub}
	return opkID, nil
}

// OneTimePreKeyCount reports how many unconsumed one-time pre-keys remain.
func (id *Local) OneTimePreKeyCount() int {
	id.mu.Lock()
	defer id.mu.Unlock()
	return len(id.oneTimeKeys)
}

// PeekOneTimePreKey returns an arbitrary unconsumed one-time pre-key's id
// and public key, for inclusion in a bundle offered to a directory. It does
// not consume the key; consumption happens only via ConsumeOneTimePreKey
// when a PreKeyMessage actually cites it (spec §4.3).
func (id *Local) PeekOneTimePreKey() (uint32, crypto.CryptoKey, bool) {
	id.mu.Lock()
	defer id.mu.Unlock()
	for opkID, pair := range id.oneTimeKeys {
		return opkID, pair.Pub, true
	}
	return 0, crypto.CryptoKey{}, false
}

// ConsumeOneTimePreKey removes and returns the private half of one-time
// pre-key opkID. A second consumption of the same id returns
// errs.ErrUnknownPreKey, enforcing spec §3's "each one-time pre-key id is
// consumed at most once".
func (id *Local) ConsumeOneTimePreKey(opkID uint32) (crypto.CryptoKey, error) {
	id.mu.Lock()
	defer id.mu.Unlock()
	pair, ok := id.oneTimeKeys[opkID]
	if !ok {
		return crypto.CryptoKey{}, fmt.Errorf("identity: one-time pre-key %d: %w", opkID, errs.ErrUnknownPreKey)
	}
	delete(id.oneTimeKeys, opkID)
	return pair.Priv, nil
}

// SignedPreKey returns the private half, public half and signature for
// signed pre-key spkID.
func (id *Local) SignedPreKey(spkID uint32) (priv, pub crypto.CryptoKey, sig []byte, ok bool) {
	id.mu.Lock()
	defer id.mu.Unlock()
	pair, ok := id.signedKeys[spkID]
	if !ok {
		return crypto.CryptoKey{}, crypto.CryptoKey{}, nil, false
	}
	return pair.Priv, pair.Pub, pair.Signature, true
}

// CurrentSignedPreKeyID returns the id of the most recently added signed
// pre-key, the one new bundles advertise.
func (id *Local) CurrentSignedPreKeyID() uint32 {
	id.mu.Lock()
	defer id.mu.Unlock()
	return id.currentSigned
}

// WireIdentity returns the wire.Identity record for this local identity:
// the signing and exchange public keys plus the signature binding them
// (spec §3's RemoteIdentity shape, as seen by a peer).
func (id *Local) WireIdentity() wire.Identity {
	signingPub := id.SigningPub.Bytes32()
	exchangePub := id.ExchangePub.Bytes32()
	sig := crypto.Sign(id.SigningPriv, exchangePub[:])
	return wire.Identity{
		SigningKey:  signingPub,
		ExchangeKey: exchangePub,
		Signature:   sig,
		CreatedAt:   id.CreatedAt,
	}
}
