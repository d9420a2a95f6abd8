package ratchet

import (
	"fmt"
	"time"

	"duskwire/internal/crypto"
	"duskwire/internal/engine"
	"duskwire/internal/errs"
	"duskwire/internal/rlog"
)

const ratchetInfo = "WhisperRatchet"

// Engine owns the mutable DH-ratchet state of one session: the local
// ratchet keypair, the current root key, the bounded step ring and its
// skipped-key cache (spec §4.6, §4.7). It is not safe for concurrent use;
// the session façade's per-direction mutexes provide that serialization.
type Engine struct {
	crypto *engine.CryptoEngine
	log    *rlog.Logger

	localPriv crypto.CryptoKey
	localPub  crypto.CryptoKey
	rootKey   [32]byte
	dhCounter uint32

	ring  *Ring
	cache *Cache

	lastSendingChain *Chain
}

// New builds an Engine with the given initial root key and local ratchet
// keypair, ready for BootstrapSending or BootstrapReceiving to establish the
// first DH step.
func New(eng *engine.CryptoEngine, rootKey [32]byte, localPriv, localPub crypto.CryptoKey, maxRatchetSteps, maxSkippedKeys, maxMessageKeysPerStep int, skippedKeyTTL time.Duration, log *rlog.Logger) *Engine {
	return &Engine{
		crypto:    eng,
		log:       log,
		localPriv: localPriv,
		localPub:  localPub,
		rootKey:   rootKey,
		ring:      NewRing(maxRatchetSteps),
		cache:     NewCache(maxSkippedKeys, maxMessageKeysPerStep, skippedKeyTTL, nil),
	}
}

// LocalPublicKey returns the currently active local ratchet public key.
func (e *Engine) LocalPublicKey() crypto.CryptoKey { return e.localPub }

// DHCounter reports how many times the local ratchet keypair has rotated.
func (e *Engine) DHCounter() uint32 { return e.dhCounter }

// HasRatchetKey reports whether pub is a remote ratchet key this session has
// already seen (and therefore holds a DH step for).
func (e *Engine) HasRatchetKey(pub crypto.CryptoKey) bool {
	_, ok := e.ring.Get(crypto.Thumbprint(pub))
	return ok
}

// Stats summarizes the skipped-key cache for the session façade's stats()
// operation (spec §4.8).
type Stats struct {
	SkippedKeys int
	RingSize    int
	DHCounter   uint32
}

func (e *Engine) Stats() Stats {
	return Stats{SkippedKeys: e.cache.Len(), RingSize: e.ring.Len(), DHCounter: e.dhCounter}
}

// deriveChain runs one DH ratchet derivation: dh = X25519(ourPriv, theirPub),
// (RK', CK) = HKDF(dh, n=2, salt=currentRootKey, info="WhisperRatchet"). The
// engine's root key is updated in place to RK'; the returned chain is keyed
// by CK (spec §4.6).
func (e *Engine) deriveChain(ourPriv, theirPub crypto.CryptoKey) (*Chain, error) {
	dh, err := crypto.DH(ourPriv, theirPub)
	if err != nil {
		return nil, fmt.Errorf("ratchet: DH ratchet derivation: %w", err)
	}
	blocks := crypto.HKDFBlocks(dh[:], e.rootKey[:], []byte(ratchetInfo), 2)
	e.rootKey = blocks[0]
	return NewChain(blocks[1]), nil
}

// BootstrapSending establishes the session's very first DH step from the
// initiator's side: the remote's signed pre-key stands in as its initial
// ratchet key, and the initiator's X3DH ephemeral keypair is the local
// ratchet keypair used to derive the first sending chain.
func (e *Engine) BootstrapSending(remotePub crypto.CryptoKey) (*Step, error) {
	chain, err := e.deriveChain(e.localPriv, remotePub)
	if err != nil {
		return nil, err
	}
	e.dhCounter++
	step := newStep(remotePub)
	step.SendingChain = chain
	e.lastSendingChain = chain
	e.ring.Push(step)
	if e.log != nil {
		e.log.Debugf("ratchet: bootstrapped sending chain against step %s", step.StepID)
	}
	return step, nil
}

// BootstrapReceiving establishes the session's very first DH step from the
// responder's side: the remote's X3DH base key is its initial ratchet key,
// and the responder's signed pre-key (already the local ratchet keypair at
// construction time) derives the first receiving chain.
func (e *Engine) BootstrapReceiving(remotePub crypto.CryptoKey) (*Step, error) {
	chain, err := e.deriveChain(e.localPriv, remotePub)
	if err != nil {
		return nil, err
	}
	step := newStep(remotePub)
	step.ReceivingChain = chain
	e.ring.Push(step)
	if e.log != nil {
		e.log.Debugf("ratchet: bootstrapped receiving chain against step %s", step.StepID)
	}
	return step, nil
}

// PrepareSend returns the step and sending chain the next outbound message
// should use, rotating the local ratchet keypair first if the current step
// has a receiving chain but no sending chain of its own yet (spec §4.6's
// S1/S2 transition).
func (e *Engine) PrepareSend() (*Step, error) {
	step := e.ring.Current()
	if step == nil {
		return nil, fmt.Errorf("ratchet: no DH step established: %w", errs.ErrEngineUnavailable)
	}
	if step.SendingChain == nil {
		prevCounter := uint32(0)
		if e.lastSendingChain != nil {
			prevCounter = e.lastSendingChain.Counter()
		}
		newPriv, newPub, err := crypto.GenerateX25519(e.crypto.Rand)
		if err != nil {
			return nil, fmt.Errorf("ratchet: generate ratchet keypair: %w", err)
		}
		e.localPriv, e.localPub = newPriv, newPub
		e.dhCounter++
		chain, err := e.deriveChain(e.localPriv, step.RemoteRatchetKey)
		if err != nil {
			return nil, err
		}
		step.SendingChain = chain
		step.SendingPreviousCounter = prevCounter
		e.lastSendingChain = chain
		if e.log != nil {
			e.log.Debugf("ratchet: rotated local ratchet key, dhCounter=%d", e.dhCounter)
		}
	}
	return step, nil
}

// CheckWindow rejects a message whose previousCounter claims an epoch older
// than the ring can still hold (spec §4.6's MessageOutsideRatchetWindow).
func (e *Engine) CheckWindow(previousCounter uint32) error {
	floor := int64(e.dhCounter) - int64(e.ring.capacity)
	if int64(previousCounter) < floor {
		return fmt.Errorf("ratchet: previousCounter %d below window floor %d: %w", previousCounter, floor, errs.ErrMessageOutsideRatchetWindow)
	}
	return nil
}

// AdmitRemoteKey returns the DH step for remotePub, creating one (and
// rotating in a fresh receiving chain derived against the current local
// ratchet private key) if this is the first message seen under that key
// (spec §4.6's decrypt-time step creation).
func (e *Engine) AdmitRemoteKey(remotePub crypto.CryptoKey) (step *Step, isNew bool, err error) {
	stepID := crypto.Thumbprint(remotePub)
	if s, ok := e.ring.Get(stepID); ok {
		return s, false, nil
	}
	chain, err := e.deriveChain(e.localPriv, remotePub)
	if err != nil {
		return nil, false, err
	}
	s := newStep(remotePub)
	s.ReceivingChain = chain
	evicted, didEvict := e.ring.Push(s)
	if didEvict {
		e.cache.PurgeForStep(evicted)
		if e.log != nil {
			e.log.Debugf("ratchet: evicted step %s from ring", evicted)
		}
	}
	if e.log != nil {
		e.log.Debugf("ratchet: admitted new remote ratchet key, step %s", s.StepID)
	}
	return s, true, nil
}

// Receive derives the message keys a step's receiving chain yields for
// counter, consulting and eagerly populating the skipped-key cache for any
// intervening counters (spec §4.7). A counter at or before the step's
// lastDecryptedCounter that is not in the cache is a replay.
func (e *Engine) Receive(step *Step, counter uint32) (MessageKeys, error) {
	if step.ReceivingChain == nil {
		return MessageKeys{}, fmt.Errorf("ratchet: step %s has no receiving chain: %w", step.StepID, errs.ErrDecryptFailed)
	}
	if int64(counter) <= step.LastDecryptedCounter {
		if mk, ok := e.cache.Consume(step.StepID, counter); ok {
			return mk, nil
		}
		return MessageKeys{}, fmt.Errorf("ratchet: counter %d at step %s: %w", counter, step.StepID, errs.ErrDuplicateMessage)
	}

	chain := step.ReceivingChain
	var final MessageKeys
	for chain.Counter() < counter {
		mk := chain.Advance()
		if chain.Counter() < counter {
			e.cache.Store(step.StepID, chain.Counter(), mk)
		} else {
			final = mk
		}
	}
	step.LastDecryptedCounter = int64(counter)
	return final, nil
}

// CacheStats exposes the skipped-key cache directly for tests.
func (e *Engine) CacheStats() *Cache { return e.cache }

// StepSnapshot is one DH step in a form suitable for session persistence
// (spec §6).
type StepSnapshot struct {
	RemoteRatchetKey       crypto.CryptoKey
	HasSendingChain        bool
	SendingChainKey        [32]byte
	SendingChainCounter    uint32
	SendingPreviousCounter uint32
	HasReceivingChain      bool
	ReceivingChainKey      [32]byte
	ReceivingChainCounter  uint32
	LastDecryptedCounter   int64
}

// EngineSnapshot is the full persisted state of a ratchet Engine (spec §6's
// "current ratchet keypair, root key material, DH counter, step ring... and
// the global skipped cache").
type EngineSnapshot struct {
	LocalPriv        crypto.CryptoKey
	LocalPub         crypto.CryptoKey
	RootKey          [32]byte
	DHCounter        uint32
	RingCapacity     int
	Steps            []StepSnapshot
	CacheMaxGlobal   int
	CacheMaxPerStep  int
	CacheTTL         time.Duration
	CacheEntries     []CacheEntrySnapshot
	LastSendingChain [32]byte // zero if no sending chain has ever been built
	HasLastSending   bool
}

// Snapshot captures the engine's full state for serialization.
func (e *Engine) Snapshot() EngineSnapshot {
	snap := EngineSnapshot{
		LocalPriv:       e.localPriv,
		LocalPub:        e.localPub,
		RootKey:         e.rootKey,
		DHCounter:       e.dhCounter,
		RingCapacity:    e.ring.capacity,
		CacheMaxGlobal:  e.cache.maxGlobal,
		CacheMaxPerStep: e.cache.maxPerStep,
		CacheTTL:        e.cache.ttl,
		CacheEntries:    e.cache.Snapshot(),
	}
	if e.lastSendingChain != nil {
		snap.HasLastSending = true
		snap.LastSendingChain = e.lastSendingChain.Key()
	}
	for _, s := range e.ring.Steps() {
		ss := StepSnapshot{
			RemoteRatchetKey:     s.RemoteRatchetKey,
			LastDecryptedCounter: s.LastDecryptedCounter,
		}
		if s.SendingChain != nil {
			ss.HasSendingChain = true
			ss.SendingChainKey = s.SendingChain.Key()
			ss.SendingChainCounter = s.SendingChain.Counter()
			ss.SendingPreviousCounter = s.SendingPreviousCounter
		}
		if s.ReceivingChain != nil {
			ss.HasReceivingChain = true
			ss.ReceivingChainKey = s.ReceivingChain.Key()
			ss.ReceivingChainCounter = s.ReceivingChain.Counter()
		}
		snap.Steps = append(snap.Steps, ss)
	}
	return snap
}

// Restore rebuilds an Engine from a prior Snapshot.
func Restore(cryptoEng *engine.CryptoEngine, snap EngineSnapshot, log *rlog.Logger) *Engine {
	e := &Engine{
		crypto:    cryptoEng,
		log:       log,
		localPriv: snap.LocalPriv,
		localPub:  snap.LocalPub,
		rootKey:   snap.RootKey,
		dhCounter: snap.DHCounter,
		ring:      NewRing(snap.RingCapacity),
		cache:     RestoreCache(snap.CacheMaxGlobal, snap.CacheMaxPerStep, snap.CacheTTL, nil, snap.CacheEntries),
	}
	for _, ss := range snap.Steps {
		s := newStep(ss.RemoteRatchetKey)
		s.LastDecryptedCounter = ss.LastDecryptedCounter
		if ss.HasSendingChain {
			s.SendingChain = RestoreChain(ss.SendingChainKey, ss.SendingChainCounter)
			s.SendingPreviousCounter = ss.SendingPreviousCounter
		}
		if ss.HasReceivingChain {
			s.ReceivingChain = RestoreChain(ss.ReceivingChainKey, ss.ReceivingChainCounter)
		}
		e.ring.Push(s)
		if snap.HasLastSending && ss.HasSendingChain && ss.SendingChainKey == snap.LastSendingChain {
			e.lastSendingChain = s.SendingChain
		}
	}
	return e
}
