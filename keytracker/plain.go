package keytracker

import (
	"sync"

	"github.com/eth2030/lamport-wallet/lamport"
)

// PlainTracker is a FIFO queue of full key pairs. It has the highest
// storage cost of the strategies, but no shared derivation secret:
// compromise of one stored key reveals nothing about its siblings.
type PlainTracker struct {
	mu    sync.Mutex
	queue []lamport.KeyPair
}

// NewPlainTracker returns an empty PlainTracker.
func NewPlainTracker() *PlainTracker {
	return &PlainTracker{}
}

// Kind returns KindPlain.
func (t *PlainTracker) Kind() Kind { return KindPlain }

// Count returns the number of unretrieved key pairs.
func (t *PlainTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Exhausted reports whether no keys remain.
func (t *PlainTracker) Exhausted() bool {
	return t.Count() == 0
}

// More generates n fresh key pairs, appends them to the queue and
// returns them.
func (t *PlainTracker) More(n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}
	fresh := make([]lamport.KeyPair, n)
	for i := 0; i < n; i++ {
		kp, err := lamport.GenerateKeyPair()
		if err != nil {
			return nil, err
		}
		fresh[i] = kp
	}

	t.mu.Lock()
	t.queue = append(t.queue, fresh...)
	t.mu.Unlock()
	return fresh, nil
}

// GetOne pops and returns the oldest key pair.
func (t *PlainTracker) GetOne() (lamport.KeyPair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return lamport.KeyPair{}, ErrNoKeysLeft
	}
	kp := t.queue[0]
	t.queue = t.queue[1:]
	return kp, nil
}

// GetN pops and returns the n oldest key pairs. If fewer than n remain
// the queue is left untouched and ErrNoKeysLeft is returned.
func (t *PlainTracker) GetN(n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) < n {
		return nil, ErrNoKeysLeft
	}
	out := make([]lamport.KeyPair, n)
	copy(out, t.queue[:n])
	t.queue = t.queue[n:]
	return out, nil
}

// Snapshot returns a copy of the queued key pairs, oldest first, for
// the persisted tracker record.
func (t *PlainTracker) Snapshot() []lamport.KeyPair {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]lamport.KeyPair, len(t.queue))
	copy(out, t.queue)
	return out
}

// restorePlain rebuilds a PlainTracker from a persisted queue.
func restorePlain(keys []lamport.KeyPair) *PlainTracker {
	t := NewPlainTracker()
	t.queue = append(t.queue, keys...)
	return t
}
