package keytracker

import (
	"sync"

	"github.com/eth2030/lamport-wallet/lamport"
)

// MultiTracker composes an ordered sequence of child trackers, possibly
// of different kinds, behind the single Tracker contract. A wallet can
// start on a plain tracker and later append seeded capacity without
// changing callers.
//
// Retrieval delegates to the first child that still holds keys. GetN
// deliberately does not spill into the next child when the selected
// child holds fewer than n keys: callers rely on a batch never mixing
// sourcing strategies, so the call fails with ErrNoKeysLeft instead.
type MultiTracker struct {
	mu       sync.Mutex
	children []Tracker
}

// NewMultiTracker returns a MultiTracker over the given children, in
// order.
func NewMultiTracker(children ...Tracker) *MultiTracker {
	t := &MultiTracker{}
	t.children = append(t.children, children...)
	return t
}

// Kind returns KindMulti.
func (t *MultiTracker) Kind() Kind { return KindMulti }

// AddChild appends a child tracker.
func (t *MultiTracker) AddChild(child Tracker) {
	t.mu.Lock()
	t.children = append(t.children, child)
	t.mu.Unlock()
}

// Children returns a copy of the child sequence, in order.
func (t *MultiTracker) Children() []Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Tracker, len(t.children))
	copy(out, t.children)
	return out
}

// Count returns the sum of the children's counts.
func (t *MultiTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, c := range t.children {
		total += c.Count()
	}
	return total
}

// Exhausted reports whether every child is exhausted.
func (t *MultiTracker) Exhausted() bool {
	return t.Count() == 0
}

// More appends a new plain child stocked with n keys and returns them.
// Use MoreOfKind to choose a different strategy for the new child.
func (t *MultiTracker) More(n int) ([]lamport.KeyPair, error) {
	return t.MoreOfKind(KindPlain, n)
}

// MoreOfKind appends a new child of the chosen strategy stocked with n
// keys and returns them. KindMulti is not a valid child strategy.
func (t *MultiTracker) MoreOfKind(kind Kind, n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}

	var child Tracker
	switch kind {
	case KindPlain:
		child = NewPlainTracker()
	case KindCompressed:
		child = NewCompressedTracker()
	case KindSeeded:
		seeded, err := NewSeededTracker()
		if err != nil {
			return nil, err
		}
		child = seeded
	default:
		return nil, ErrUnknownKind
	}

	keys, err := child.More(n)
	if err != nil {
		return nil, err
	}
	t.AddChild(child)
	return keys, nil
}

// GetOne delegates to the first non-exhausted child in order.
func (t *MultiTracker) GetOne() (lamport.KeyPair, error) {
	child := t.firstStocked()
	if child == nil {
		return lamport.KeyPair{}, ErrNoKeysLeft
	}
	return child.GetOne()
}

// GetN delegates to the first non-exhausted child in order. The child
// must hold all n keys; there is no spillover across children.
func (t *MultiTracker) GetN(n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}
	child := t.firstStocked()
	if child == nil {
		return nil, ErrNoKeysLeft
	}
	return child.GetN(n)
}

// firstStocked returns the first child with keys remaining, or nil.
func (t *MultiTracker) firstStocked() Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.children {
		if !c.Exhausted() {
			return c
		}
	}
	return nil
}
