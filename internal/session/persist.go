package session

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"duskwire/internal/config"
	"duskwire/internal/crypto"
	"duskwire/internal/engine"
	"duskwire/internal/errs"
	"duskwire/internal/identity"
	"duskwire/internal/ratchet"
	"duskwire/internal/rlog"
	"duskwire/internal/wire"
)

// Serialize yields an opaque blob containing the session's full ratchet
// state (spec §6's persistence contract). The blob is a private format, not
// part of the wire protocol §4.2 specifies, and MUST NOT be shared between
// devices.
func (s *Session) Serialize() ([]byte, error) {
	s.encMu.Lock()
	s.decMu.Lock()
	defer s.encMu.Unlock()
	defer s.decMu.Unlock()

	snap := s.ratchet.Snapshot()
	var buf bytes.Buffer

	writeKey32 := func(k [32]byte) { buf.Write(k[:]) }
	writeU32 := func(v uint32) {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		buf.Write(b[:])
	}
	writeI64 := func(v int64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(v))
		buf.Write(b[:])
	}
	writeBool := func(v bool) {
		if v {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	}
	writeString := func(v string) {
		writeU32(uint32(len(v)))
		buf.WriteString(v)
	}

	writeKey32(snap.LocalPriv.Bytes32())
	writeKey32(snap.LocalPub.Bytes32())
	writeKey32(snap.RootKey)
	writeU32(snap.DHCounter)
	writeU32(uint32(snap.RingCapacity))
	writeU32(uint32(snap.CacheMaxGlobal))
	writeU32(uint32(snap.CacheMaxPerStep))
	writeI64(int64(snap.CacheTTL))
	writeBool(snap.HasLastSending)
	writeKey32(snap.LastSendingChain)

	writeU32(uint32(len(snap.Steps)))
	for _, st := range snap.Steps {
		writeKey32(st.RemoteRatchetKey.Bytes32())
		writeBool(st.HasSendingChain)
		writeKey32(st.SendingChainKey)
		writeU32(st.SendingChainCounter)
		writeU32(st.SendingPreviousCounter)
		writeBool(st.HasReceivingChain)
		writeKey32(st.ReceivingChainKey)
		writeU32(st.ReceivingChainCounter)
		writeI64(st.LastDecryptedCounter)
	}

	writeU32(uint32(len(snap.CacheEntries)))
	for _, ce := range snap.CacheEntries {
		writeString(ce.StepID)
		writeU32(ce.Counter)
		writeKey32(ce.Key.AESKey.Bytes32())
		writeKey32(ce.Key.HMACKey.Bytes32())
		buf.Write(ce.Key.Nonce[:])
		writeI64(ce.TimestampUnix)
	}

	if s.pending != nil {
		writeBool(true)
		writeU32(s.pending.RegistrationID)
		if s.pending.PreKeyID != nil {
			writeBool(true)
			writeU32(*s.pending.PreKeyID)
		} else {
			writeBool(false)
			writeU32(0)
		}
		writeU32(s.pending.PreKeySignedID)
	} else {
		writeBool(false)
	}

	return buf.Bytes(), nil
}

// reader is a small cursor over a Serialize blob; every read past the end
// yields ErrMalformedMessage instead of panicking.
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) need(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.b) {
		r.err = fmt.Errorf("session: restore: truncated blob: %w", errs.ErrMalformedMessage)
		return nil
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) key32() [32]byte {
	var k [32]byte
	copy(k[:], r.need(32))
	return k
}

func (r *reader) nonce12() [12]byte {
	var n [12]byte
	copy(n[:], r.need(12))
	return n
}

func (r *reader) u32() uint32 {
	b := r.need(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (r *reader) i64() int64 {
	b := r.need(8)
	if b == nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func (r *reader) boolean() bool {
	b := r.need(1)
	if b == nil {
		return false
	}
	return b[0] != 0
}

func (r *reader) str() string {
	n := r.u32()
	b := r.need(int(n))
	return string(b)
}

// Restore rebuilds a Session from a Serialize blob plus the identity
// material that is never itself persisted (spec §6's "restore(bytes,
// identity, remoteIdentity)").
func Restore(eng *engine.CryptoEngine, blob []byte, ours *identity.Local, peer wire.Identity, opts config.Options) (*Session, error) {
	r := &reader{b: blob}

	localPriv := crypto.X25519SecretKey(r.key32())
	localPub := crypto.X25519PublicKey(r.key32())
	rootKey := r.key32()
	dhCounter := r.u32()
	ringCapacity := r.u32()
	cacheMaxGlobal := r.u32()
	cacheMaxPerStep := r.u32()
	cacheTTL := time.Duration(r.i64())
	hasLastSending := r.boolean()
	lastSendingChain := r.key32()

	numSteps := r.u32()
	steps := make([]ratchet.StepSnapshot, 0, numSteps)
	for i := uint32(0); i < numSteps; i++ {
		remote := crypto.X25519PublicKey(r.key32())
		hasSending := r.boolean()
		sendingKey := r.key32()
		sendingCounter := r.u32()
		sendingPrev := r.u32()
		hasReceiving := r.boolean()
		receivingKey := r.key32()
		receivingCounter := r.u32()
		lastDecrypted := r.i64()
		steps = append(steps, ratchet.StepSnapshot{
			RemoteRatchetKey:       remote,
			HasSendingChain:        hasSending,
			SendingChainKey:        sendingKey,
			SendingChainCounter:    sendingCounter,
			SendingPreviousCounter: sendingPrev,
			HasReceivingChain:      hasReceiving,
			ReceivingChainKey:      receivingKey,
			ReceivingChainCounter:  receivingCounter,
			LastDecryptedCounter:   lastDecrypted,
		})
	}

	numEntries := r.u32()
	entries := make([]ratchet.CacheEntrySnapshot, 0, numEntries)
	for i := uint32(0); i < numEntries; i++ {
		stepID := r.str()
		counter := r.u32()
		aesKey := crypto.AESKeyFrom(r.key32())
		hmacKey := crypto.HMACKeyFrom(r.key32())
		nonce := r.nonce12()
		ts := r.i64()
		entries = append(entries, ratchet.CacheEntrySnapshot{
			StepID:  stepID,
			Counter: counter,
			Key: ratchet.MessageKeys{
				AESKey:  aesKey,
				HMACKey: hmacKey,
				Nonce:   nonce,
			},
			TimestampUnix: ts,
		})
	}

	var pending *pendingPreKey
	if r.boolean() {
		regID := r.u32()
		hasPreKeyID := r.boolean()
		preKeyID := r.u32()
		preKeySignedID := r.u32()
		pending = &pendingPreKey{RegistrationID: regID, PreKeySignedID: preKeySignedID}
		if hasPreKeyID {
			pending.PreKeyID = &preKeyID
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	log := opts.Logger
	if log == nil {
		log = rlog.Discard()
	}

	snap := ratchet.EngineSnapshot{
		LocalPriv:        localPriv,
		LocalPub:         localPub,
		RootKey:          rootKey,
		DHCounter:        dhCounter,
		RingCapacity:     int(ringCapacity),
		Steps:            steps,
		CacheMaxGlobal:   int(cacheMaxGlobal),
		CacheMaxPerStep:  int(cacheMaxPerStep),
		CacheTTL:         cacheTTL,
		CacheEntries:     entries,
		LastSendingChain: lastSendingChain,
		HasLastSending:   hasLastSending,
	}
	rEngine := ratchet.Restore(eng, snap, log)

	return &Session{
		crypto:  eng,
		opts:    opts,
		log:     log,
		own:     ours,
		peer:    peer,
		ratchet: rEngine,
		pending: pending,
	}, nil
}
