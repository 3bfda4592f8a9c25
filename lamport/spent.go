package lamport

import (
	"sync"

	"github.com/eth2030/lamport-wallet/core/types"
)

// SpentSet is a tombstone registry of public key hashes that have
// already produced a signature. Correct tracker usage never signs twice
// with one key; the set exists to fail loudly when that discipline
// breaks, since the failure mode of silent reuse is key forgery.
// Safe for concurrent use.
type SpentSet struct {
	mu    sync.Mutex
	spent map[types.Hash]struct{}
}

// NewSpentSet returns an empty SpentSet.
func NewSpentSet() *SpentSet {
	return &SpentSet{spent: make(map[types.Hash]struct{})}
}

// Sign signs msgHash with kp after checking the key has never signed
// before, and tombstones it. Returns ErrKeySpent if the key pair's pkh
// is already marked. The tombstone is recorded even if the resulting
// signature is never broadcast: once secrets are revealed the key is
// burned.
func (s *SpentSet) Sign(msgHash types.Hash, kp KeyPair) (Signature, error) {
	pkh := PublicKeyHash(kp.Pub)

	s.mu.Lock()
	if _, ok := s.spent[pkh]; ok {
		s.mu.Unlock()
		return nil, ErrKeySpent
	}
	s.spent[pkh] = struct{}{}
	s.mu.Unlock()

	return Sign(msgHash, kp.Pri)
}

// Spent reports whether the key with the given pkh has already signed.
func (s *SpentSet) Spent(pkh types.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.spent[pkh]
	return ok
}

// Mark tombstones pkh without signing, for keys whose secrets were
// revealed elsewhere (for example a restored wallet whose history shows
// a broadcast). Reports whether the pkh was newly marked.
func (s *SpentSet) Mark(pkh types.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spent[pkh]; ok {
		return false
	}
	s.spent[pkh] = struct{}{}
	return true
}

// Len returns the number of tombstoned keys.
func (s *SpentSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spent)
}
