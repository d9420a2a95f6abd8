package ratchet

import "duskwire/internal/crypto"

// Step is one DH ratchet epoch: the peer ratchet public key seen during that
// epoch, its stable stepID (thumbprint), and whichever of the sending and
// receiving chains have been built for it (spec §3's "DH step").
type Step struct {
	StepID                 string
	RemoteRatchetKey       crypto.CryptoKey
	SendingChain           *Chain
	SendingPreviousCounter uint32
	ReceivingChain         *Chain
	LastDecryptedCounter   int64
}

func newStep(remote crypto.CryptoKey) *Step {
	return &Step{
		StepID:               crypto.Thumbprint(remote),
		RemoteRatchetKey:     remote,
		LastDecryptedCounter: -1,
	}
}

// Ring is the bounded, ordered collection of DH steps a session retains
// (spec §4.6's step ring). Insertion order doubles as recency order: the
// oldest step is evicted first on overflow.
type Ring struct {
	capacity int
	order    []string
	steps    map[string]*Step
	current  *Step
}

// NewRing builds an empty ring with the given capacity.
func NewRing(capacity int) *Ring {
	return &Ring{capacity: capacity, steps: make(map[string]*Step)}
}

// Get looks up a step by its stepID.
func (r *Ring) Get(stepID string) (*Step, bool) {
	s, ok := r.steps[stepID]
	return s, ok
}

// Current returns the most recently pushed step, or nil if the ring is
// empty.
func (r *Ring) Current() *Step { return r.current }

// Push inserts step, marking it current, and reports the stepID of any step
// evicted to make room under the ring's capacity.
func (r *Ring) Push(step *Step) (evicted string, didEvict bool) {
	if _, exists := r.steps[step.StepID]; !exists {
		r.order = append(r.order, step.StepID)
	}
	r.steps[step.StepID] = step
	r.current = step

	if len(r.order) > r.capacity {
		evicted = r.order[0]
		r.order = r.order[1:]
		delete(r.steps, evicted)
		didEvict = true
	}
	return evicted, didEvict
}

// Len reports the number of steps currently retained.
func (r *Ring) Len() int { return len(r.order) }

// Steps returns every retained step in insertion (oldest-first) order, for
// session persistence.
func (r *Ring) Steps() []*Step {
	out := make([]*Step, len(r.order))
	for i, id := range r.order {
		out[i] = r.steps[id]
	}
	return out
}
