package keytracker

import (
	"sync"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/lamport"
)

// SequentialTracker wraps any Tracker and exposes the current/next key
// window the commit-reveal rotation protocol signs over. CurrentKeyPair
// and NextKeyPair are idempotent peeks: because the underlying trackers
// pop destructively, the window is cached here and only moves when
// Advance is called. Advance consumes the current key, promotes next to
// current, and pulls a fresh successor, restocking the underlying
// tracker when it runs dry.
type SequentialTracker struct {
	mu      sync.Mutex
	inner   Tracker
	current *lamport.KeyPair
	next    *lamport.KeyPair
}

// NewSequentialTracker wraps the given tracker.
func NewSequentialTracker(inner Tracker) *SequentialTracker {
	return &SequentialTracker{inner: inner}
}

// CurrentKeyPair returns the key that signs the next operation. The
// same value is returned on every call until Advance.
func (t *SequentialTracker) CurrentKeyPair() (lamport.KeyPair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.fillLocked(); err != nil {
		return lamport.KeyPair{}, err
	}
	return *t.current, nil
}

// NextKeyPair returns the key that becomes current after Advance; its
// public key hash is the commitment bound into the signed payload.
// Idempotent until Advance.
func (t *SequentialTracker) NextKeyPair() (lamport.KeyPair, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.fillLocked(); err != nil {
		return lamport.KeyPair{}, err
	}
	return *t.next, nil
}

// NextPKH returns the public key hash of the next key, the value the
// contract adopts as its trusted commitment once the current signature
// is accepted.
func (t *SequentialTracker) NextPKH() (types.Hash, error) {
	next, err := t.NextKeyPair()
	if err != nil {
		return types.Hash{}, err
	}
	return lamport.PublicKeyHash(next.Pub), nil
}

// Advance consumes the current key and promotes next. Call it exactly
// once per accepted operation, after the ledger has adopted the new
// commitment.
func (t *SequentialTracker) Advance() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.fillLocked(); err != nil {
		return err
	}
	successor, err := t.pullLocked()
	if err != nil {
		return err
	}
	t.current = t.next
	t.next = &successor
	return nil
}

// Count returns the underlying tracker's count; cached peeks are not
// included, they are already owned by this wrapper.
func (t *SequentialTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inner.Count()
}

// fillLocked populates the current/next window. Caller holds the mutex.
func (t *SequentialTracker) fillLocked() error {
	if t.current == nil {
		kp, err := t.pullLocked()
		if err != nil {
			return err
		}
		t.current = &kp
	}
	if t.next == nil {
		kp, err := t.pullLocked()
		if err != nil {
			return err
		}
		t.next = &kp
	}
	return nil
}

// pullLocked pops one key from the underlying tracker, restocking it
// first if it is exhausted. Caller holds the mutex.
func (t *SequentialTracker) pullLocked() (lamport.KeyPair, error) {
	if t.inner.Exhausted() {
		if _, err := t.inner.More(1); err != nil {
			return lamport.KeyPair{}, err
		}
	}
	return t.inner.GetOne()
}
