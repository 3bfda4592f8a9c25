package keytracker

import (
	"sync"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/lamport"
)

// SeededTracker derives every one-time key from a single master seed:
// key i expands from Keccak256(Pack(seed, i)). Storage stays O(1) no
// matter how many keys are generated, and the full key history is
// recoverable from the seed alone.
//
// State is two counters. nonce is the next underived index; issued is
// how many keys have been generated but not yet retrieved. The oldest
// undelivered key is therefore index nonce-issued, which reconstructs
// FIFO order purely arithmetically. The counters must be persisted in
// exact sync with actual key consumption: a restored tracker with stale
// counters will hand out an already-used key. This tracker does not
// reconcile against ledger state.
type SeededTracker struct {
	mu     sync.Mutex
	seed   types.Hash
	nonce  uint64
	issued uint64
}

// NewSeededTracker creates a SeededTracker with a fresh random seed.
func NewSeededTracker() (*SeededTracker, error) {
	seed, err := lamport.RandomSecret()
	if err != nil {
		return nil, err
	}
	return &SeededTracker{seed: seed}, nil
}

// RestoreSeededTracker rebuilds a SeededTracker from persisted state.
// The caller is responsible for the counters being current.
func RestoreSeededTracker(seed types.Hash, nonce, issued uint64) *SeededTracker {
	return &SeededTracker{seed: seed, nonce: nonce, issued: issued}
}

// Kind returns KindSeeded.
func (t *SeededTracker) Kind() Kind { return KindSeeded }

// Count returns the number of generated-but-unretrieved keys.
func (t *SeededTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return int(t.issued)
}

// Exhausted reports whether no generated keys remain unretrieved.
func (t *SeededTracker) Exhausted() bool {
	return t.Count() == 0
}

// More derives key pairs for the next n nonces and returns them. Only
// the counters change; the keys themselves are re-derived on retrieval.
func (t *SeededTracker) More(n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}
	t.mu.Lock()
	start := t.nonce
	t.nonce += uint64(n)
	t.issued += uint64(n)
	t.mu.Unlock()

	out := make([]lamport.KeyPair, n)
	for i := 0; i < n; i++ {
		out[i] = t.deriveAt(start + uint64(i))
	}
	return out, nil
}

// GetOne re-derives and returns the oldest undelivered key.
func (t *SeededTracker) GetOne() (lamport.KeyPair, error) {
	t.mu.Lock()
	if t.issued == 0 {
		t.mu.Unlock()
		return lamport.KeyPair{}, ErrNoKeysLeft
	}
	index := t.nonce - t.issued
	t.issued--
	t.mu.Unlock()

	return t.deriveAt(index), nil
}

// GetN re-derives and returns the n oldest undelivered keys. If fewer
// than n remain the counters are left untouched and ErrNoKeysLeft is
// returned.
func (t *SeededTracker) GetN(n int) ([]lamport.KeyPair, error) {
	if n < 1 {
		return nil, ErrNonPositiveCount
	}
	t.mu.Lock()
	if t.issued < uint64(n) {
		t.mu.Unlock()
		return nil, ErrNoKeysLeft
	}
	start := t.nonce - t.issued
	t.issued -= uint64(n)
	t.mu.Unlock()

	out := make([]lamport.KeyPair, n)
	for i := 0; i < n; i++ {
		out[i] = t.deriveAt(start + uint64(i))
	}
	return out, nil
}

// deriveAt expands the key pair for a given nonce index.
func (t *SeededTracker) deriveAt(index uint64) lamport.KeyPair {
	return lamport.DeriveKeyPair(lamport.DeriveSecret(t.seed, index))
}

// Snapshot returns the persisted state (seed, nonce, issued).
func (t *SeededTracker) Snapshot() (types.Hash, uint64, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seed, t.nonce, t.issued
}
