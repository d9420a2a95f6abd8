package session

import (
	"encoding/binary"
	"fmt"
	"sync"

	"duskwire/internal/config"
	"duskwire/internal/crypto"
	"duskwire/internal/engine"
	"duskwire/internal/errs"
	"duskwire/internal/identity"
	"duskwire/internal/ratchet"
	"duskwire/internal/rlog"
	"duskwire/internal/wire"
	"duskwire/internal/x3dh"
)

// pendingPreKey carries the X3DH bookkeeping an initiator needs to frame its
// very first outbound message as a PreKeyMessage (spec §4.6).
type pendingPreKey struct {
	RegistrationID uint32
	PreKeyID       *uint32
	PreKeySignedID uint32
}

// Session is one end of an established ratchet conversation: the façade of
// spec §4.8.
type Session struct {
	crypto *engine.CryptoEngine
	opts   config.Options
	log    *rlog.Logger

	own     *identity.Local
	peer    wire.Identity
	ratchet *ratchet.Engine

	pending *pendingPreKey

	encMu sync.Mutex
	decMu sync.Mutex

	onUpdate func()
}

// OnUpdate registers a callback fired after every successful encrypt or
// decrypt, letting persistence layers re-snapshot (spec §4.8).
func (s *Session) OnUpdate(fn func()) { s.onUpdate = fn }

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate()
	}
}

// CreateAsInitiator runs X3DH against bundle and bootstraps the sending
// side of the ratchet, as the A-party of spec §4.4/§4.6.
func CreateAsInitiator(eng *engine.CryptoEngine, ours *identity.Local, bundle wire.PreKeyBundle, opts config.Options) (*Session, error) {
	res, err := x3dh.Initiate(eng, ours, bundle)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = rlog.Discard()
	}
	rEngine := ratchet.New(eng, res.RootKey, res.EphemeralPriv, res.EphemeralPub,
		opts.MaxRatchetSteps, opts.MaxSkippedKeys, opts.MaxMessageKeysPerStep, opts.SkippedKeyTTL, log)

	remoteRatchetKey := crypto.X25519PublicKey(bundle.PreKeySigned.Key)
	if _, err := rEngine.BootstrapSending(remoteRatchetKey); err != nil {
		return nil, err
	}

	return &Session{
		crypto:  eng,
		opts:    opts,
		log:     log,
		own:     ours,
		peer:    bundle.Identity,
		ratchet: rEngine,
		pending: &pendingPreKey{
			RegistrationID: ours.RegistrationID,
			PreKeyID:       res.UsedPreKeyID,
			PreKeySignedID: res.UsedSignedPreKeyID,
		},
	}, nil
}

// CreateAsResponder runs X3DH against an inbound PreKeyMessage and
// bootstraps the receiving side of the ratchet, as the B-party of
// spec §4.4/§4.6. It does not decrypt pkm.SignedMessage; call Decrypt with
// it afterward (spec §6).
func CreateAsResponder(eng *engine.CryptoEngine, ours *identity.Local, pkm wire.PreKeyMessage, opts config.Options) (*Session, error) {
	rootKey, err := x3dh.Complete(ours, pkm)
	if err != nil {
		return nil, err
	}
	spkPriv, spkPub, _, ok := ours.SignedPreKey(pkm.PreKeySignedID)
	if !ok {
		return nil, fmt.Errorf("session: signed pre-key %d: %w", pkm.PreKeySignedID, errs.ErrUnknownPreKey)
	}
	log := opts.Logger
	if log == nil {
		log = rlog.Discard()
	}
	rEngine := ratchet.New(eng, rootKey, spkPriv, spkPub,
		opts.MaxRatchetSteps, opts.MaxSkippedKeys, opts.MaxMessageKeysPerStep, opts.SkippedKeyTTL, log)

	remoteBaseKey := crypto.X25519PublicKey(pkm.BaseKey)
	if _, err := rEngine.BootstrapReceiving(remoteBaseKey); err != nil {
		return nil, err
	}

	return &Session{
		crypto:  eng,
		opts:    opts,
		log:     log,
		own:     ours,
		peer:    pkm.Identity,
		ratchet: rEngine,
	}, nil
}

func aad(counter, previousCounter uint32) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint32(b[0:4], counter)
	binary.BigEndian.PutUint32(b[4:8], previousCounter)
	return b
}

// Encrypt advances the sending chain (rotating the local ratchet keypair
// first if needed), seals plaintext under the resulting message keys, and
// wraps the result in a PreKeyMessage if this is an initiator session's
// first outbound message, or a bare MessageSigned otherwise (spec §4.8).
// The message's previousCounter is the session's DH counter at the time of
// sending.
func (s *Session) Encrypt(plaintext []byte) (Envelope, error) {
	s.encMu.Lock()
	defer s.encMu.Unlock()

	step, err := s.ratchet.PrepareSend()
	if err != nil {
		return Envelope{}, err
	}
	mk := step.SendingChain.Advance()
	counter := step.SendingChain.Counter()
	prevCounter := s.ratchet.DHCounter()

	cipherText, err := crypto.Seal(mk.AESKey, mk.Nonce[:], aad(counter, prevCounter), plaintext)
	if err != nil {
		return Envelope{}, fmt.Errorf("session: seal: %w", err)
	}

	msg := wire.Message{
		SenderRatchetKey: s.ratchet.LocalPublicKey().Bytes32(),
		Counter:          counter,
		PreviousCounter:  prevCounter,
		CipherText:       cipherText,
	}
	mac := computeMAC(mk.HMACKey, s.peer.SigningKey, s.own.SigningPub.Bytes32(), msg)
	ms := wire.MessageSigned{
		SenderKey: s.own.SigningPub.Bytes32(),
		Message:   msg,
		Signature: mac,
	}

	var env Envelope
	if s.pending != nil {
		env.PreKeyMessage = &wire.PreKeyMessage{
			RegistrationID: s.pending.RegistrationID,
			PreKeyID:       s.pending.PreKeyID,
			PreKeySignedID: s.pending.PreKeySignedID,
			BaseKey:        s.ratchet.LocalPublicKey().Bytes32(),
			Identity:       s.own.WireIdentity(),
			SignedMessage:  ms,
		}
		s.pending = nil
	} else {
		env.MessageSigned = &ms
	}

	s.notify()
	return env, nil
}

// Decrypt authenticates and opens ms, admitting ms.Message.SenderRatchetKey
// as a new DH step if this session has not seen it before (spec §4.6,
// §4.8).
func (s *Session) Decrypt(ms wire.MessageSigned) ([]byte, error) {
	s.decMu.Lock()
	defer s.decMu.Unlock()

	remoteKey := crypto.X25519PublicKey(ms.Message.SenderRatchetKey)
	var step *ratchet.Step
	var err error
	if !s.ratchet.HasRatchetKey(remoteKey) {
		if err := s.ratchet.CheckWindow(ms.Message.PreviousCounter); err != nil {
			return nil, err
		}
	}
	step, _, err = s.ratchet.AdmitRemoteKey(remoteKey)
	if err != nil {
		return nil, err
	}

	mk, err := s.ratchet.Receive(step, ms.Message.Counter)
	if err != nil {
		return nil, err
	}

	wantMAC := computeMAC(mk.HMACKey, s.own.SigningPub.Bytes32(), ms.SenderKey, ms.Message)
	if !crypto.ConstantTimeEqual(wantMAC, ms.Signature) {
		return nil, fmt.Errorf("session: MessageSigned MAC mismatch: %w", errs.ErrDecryptFailed)
	}

	plaintext, err := crypto.Open(mk.AESKey, mk.Nonce[:], aad(ms.Message.Counter, ms.Message.PreviousCounter), ms.Message.CipherText)
	if err != nil {
		return nil, fmt.Errorf("session: open: %w", errs.ErrDecryptFailed)
	}

	s.notify()
	return plaintext, nil
}

// HasRatchetKey reports whether pub is a remote ratchet key this session
// has already admitted (spec §4.8).
func (s *Session) HasRatchetKey(pub crypto.CryptoKey) bool {
	return s.ratchet.HasRatchetKey(pub)
}

// Stats reports the session's skipped-key cache and ratchet counters (spec
// §4.8's stats()).
func (s *Session) Stats() ratchet.Stats {
	return s.ratchet.Stats()
}
