package keytracker

import (
	"sync"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/lamport"
)

// CompressedKeyPair is the compact stand-in for a full key pair: the
// 32-byte derivation secret plus the public key hash of the expansion.
// Re-expanding the secret must reproduce exactly the stored pkh.
type CompressedKeyPair struct {
	Secret types.Hash `json:"secret"`
	PKH    types.Hash `json:"pkh"`
}

// CompressedTracker is a FIFO queue of CompressedKeyPair records. It
// stores roughly 1/512 of a PlainTracker's bytes per key, at the cost
// of sharing fate with the derivation function: the stored pkh is
// checked against the re-expansion on every retrieval.
type CompressedTracker struct {
	mu    sync.Mutex
	queue []CompressedKeyPair
}

// NewCompressedTracker returns an empty CompressedTracker.
func NewCompressedTracker() *CompressedTracker {
	return &CompressedTracker{}
}

// Kind returns KindCompressed.
func (t *CompressedTracker) Kind() Kind { return KindCompressed }

// Count returns the number of unretrieved keys.
func (t *CompressedTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Exhausted reports whether no keys remain.
func (t *CompressedTracker) Exhausted() bool {
	return t.Count() == 0
}

// More draws n fresh secrets, expands each into a full key pair,
// stores only the {secret, pkh} records and returns the expansions.
func (t *CompressedTracker) More(n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}
	fresh := make([]lamport.KeyPair, n)
	records := make([]CompressedKeyPair, n)
	for i := 0; i < n; i++ {
		secret, err := lamport.RandomSecret()
		if err != nil {
			return nil, err
		}
		kp := lamport.DeriveKeyPair(secret)
		fresh[i] = kp
		records[i] = CompressedKeyPair{
			Secret: secret,
			PKH:    lamport.PublicKeyHash(kp.Pub),
		}
	}

	t.mu.Lock()
	t.queue = append(t.queue, records...)
	t.mu.Unlock()
	return fresh, nil
}

// GetOne pops the oldest record, re-expands its secret and checks the
// recomputed pkh against the stored one. A mismatch means the record
// was corrupted in storage and yields ErrHashMismatch.
func (t *CompressedTracker) GetOne() (lamport.KeyPair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.popExpandLocked()
}

// GetN pops and re-expands the n oldest records. If fewer than n remain
// the queue is left untouched and ErrNoKeysLeft is returned.
func (t *CompressedTracker) GetN(n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) < n {
		return nil, ErrNoKeysLeft
	}
	out := make([]lamport.KeyPair, n)
	for i := 0; i < n; i++ {
		kp, err := t.popExpandLocked()
		if err != nil {
			return nil, err
		}
		out[i] = kp
	}
	return out, nil
}

// popExpandLocked pops the front record and re-expands it. Caller holds
// the mutex.
func (t *CompressedTracker) popExpandLocked() (lamport.KeyPair, error) {
	if len(t.queue) == 0 {
		return lamport.KeyPair{}, ErrNoKeysLeft
	}
	rec := t.queue[0]
	t.queue = t.queue[1:]

	kp := lamport.DeriveKeyPair(rec.Secret)
	if lamport.PublicKeyHash(kp.Pub) != rec.PKH {
		return lamport.KeyPair{}, ErrHashMismatch
	}
	return kp, nil
}

// Snapshot returns a copy of the queued records, oldest first, for the
// persisted tracker record.
func (t *CompressedTracker) Snapshot() []CompressedKeyPair {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CompressedKeyPair, len(t.queue))
	copy(out, t.queue)
	return out
}

// restoreCompressed rebuilds a CompressedTracker from a persisted queue.
func restoreCompressed(records []CompressedKeyPair) *CompressedTracker {
	t := NewCompressedTracker()
	t.queue = append(t.queue, records...)
	return t
}
