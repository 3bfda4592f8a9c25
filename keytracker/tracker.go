// Package keytracker supplies one-time Lamport key pairs under several
// mutually exclusive storage strategies.
//
// Every tracker satisfies the same capability contract: it holds keys
// that have been generated but not yet handed out, and transfers
// ownership of a key to exactly one caller via GetOne or GetN. A key
// that has left a tracker must sign at most one message; the trackers
// guarantee no key is ever issued twice, and serialize their
// pop-and-mutate sequences so concurrent callers can never receive the
// same index.
//
// The strategies trade storage for recoverability:
//
//   - PlainTracker stores full key pairs; nothing links one key to
//     another, so compromise of one cannot help derive siblings.
//   - CompressedTracker stores a 32-byte secret plus the public key
//     hash per key, about 1/512 of the plain footprint.
//   - SeededTracker stores one master seed and two counters, deriving
//     every key on demand at O(1) storage.
//   - MultiTracker composes trackers of mixed kinds behind one
//     interface.
package keytracker

import (
	"errors"

	"github.com/eth2030/lamport-wallet/lamport"
)

// Kind names a tracker storage strategy in the persisted record.
type Kind string

const (
	KindPlain      Kind = "plain"
	KindCompressed Kind = "compressed"
	KindSeeded     Kind = "seeded"
	KindMulti      Kind = "multi"
)

// Tracker errors.
var (
	ErrNoKeysLeft       = errors.New("keytracker: no one-time keys left")
	ErrHashMismatch     = errors.New("keytracker: re-expanded key does not match stored pkh")
	ErrUnknownKind      = errors.New("keytracker: unknown tracker kind")
	ErrNonPositiveCount = errors.New("keytracker: key count must be positive")
)

// Tracker is the capability contract shared by every key supply
// strategy. More generates n fresh key pairs and returns them (the
// tracker retains them, in whatever form its strategy stores, until
// they are retrieved). GetOne and GetN transfer ownership of the oldest
// keys, FIFO; both fail with ErrNoKeysLeft rather than returning a
// partial batch.
type Tracker interface {
	Kind() Kind
	Count() int
	Exhausted() bool
	More(n int) ([]lamport.KeyPair, error)
	GetOne() (lamport.KeyPair, error)
	GetN(n int) ([]lamport.KeyPair, error)
}
