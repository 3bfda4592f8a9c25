// Package wallet implements the commit-reveal key rotation protocol
// that authorizes smart-contract wallet operations with Lamport
// one-time signatures.
//
// Every signed payload binds the hash of the successor public key, so
// the contract can adopt a new trusted commitment in the same step that
// it verifies the current one. The sequence per operation is: peek the
// (current, next) key window, bind next's pkh into the call hash, sign
// with current, self-verify, submit, and only then advance the window.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/eth2030/lamport-wallet/abi"
	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/crypto"
	"github.com/eth2030/lamport-wallet/keytracker"
	"github.com/eth2030/lamport-wallet/lamport"
	"github.com/eth2030/lamport-wallet/log"
)

// Wallet errors.
var (
	ErrProtocolInvariant = errors.New("wallet: local self-verification failed, derivation or packing bug")
	ErrNothingPending    = errors.New("wallet: no signed operation awaiting resubmission")
	ErrSubmitPending     = errors.New("wallet: a signed operation is awaiting resubmission")
)

// Operation is the payload of one wallet call.
type Operation struct {
	To    types.Address
	Value *uint256.Int
	Data  []byte
	Nonce uint64
}

// Pack encodes the operation in the canonical packed form the contract
// hashes over.
func (op Operation) Pack() []byte {
	return abi.NewPacker().
		Address(op.To).
		Uint256(op.Value).
		Bytes(op.Data).
		Uint64(op.Nonce).
		Packed()
}

// CallHash binds an operation to the successor-key commitment:
// Keccak256(Pack(op) || nextPKH). This is the message the current key
// signs and the contract independently recomputes.
func CallHash(op Operation, nextPKH types.Hash) types.Hash {
	packed := abi.NewPacker().Bytes(op.Pack()).Hash(nextPKH).Packed()
	return crypto.Keccak256Hash(packed)
}

// SignedOperation is the bundle submitted to the ledger: the payload,
// the full current public key (the contract checks its hash against the
// trusted commitment), the successor commitment, and the signature.
type SignedOperation struct {
	Op        Operation
	PublicKey lamport.PublicKey
	NextPKH   types.Hash
	CallHash  types.Hash
	Signature lamport.Signature
}

// Encode packs the bundle in the canonical wire layout the contract
// unpacks: length-prefixed payload, the 512 public key hashes in index
// order, the successor commitment, then the 256 revealed secrets.
func (so SignedOperation) Encode() []byte {
	p := abi.NewPacker().Bytes(so.Op.Pack())
	for i := range so.PublicKey {
		p.Hash(so.PublicKey[i][0]).Hash(so.PublicKey[i][1])
	}
	p.Hash(so.NextPKH)
	for _, s := range so.Signature {
		p.Hash(s)
	}
	return p.Packed()
}

// Ledger is the boundary to the external contract client. TrustedPKH
// returns the commitment the contract currently accepts signatures
// against; Submit broadcasts a signed bundle and returns nil only once
// the contract has accepted it and adopted NextPKH.
type Ledger interface {
	TrustedPKH(ctx context.Context, wallet types.Address) (types.Hash, error)
	Submit(ctx context.Context, wallet types.Address, op SignedOperation) error
}

// Config configures a Wallet. Zero-valued fields take defaults.
type Config struct {
	Address types.Address
	Logger  *log.Logger
}

// Wallet drives the rotation protocol over a sequential key window.
// Safe for concurrent use; operations are serialized so two callers can
// never sign with the same key.
type Wallet struct {
	mu      sync.Mutex
	addr    types.Address
	keys    *keytracker.SequentialTracker
	spent   *lamport.SpentSet
	ledger  Ledger
	logger  *log.Logger
	pending *SignedOperation
}

// New creates a Wallet drawing keys from the given tracker and
// submitting through the given ledger.
func New(config Config, tracker keytracker.Tracker, ledger Ledger) *Wallet {
	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Wallet{
		addr:   config.Address,
		keys:   keytracker.NewSequentialTracker(tracker),
		spent:  lamport.NewSpentSet(),
		ledger: ledger,
		logger: logger.Module("wallet").With("address", config.Address.Hex()),
	}
}

// CurrentPKH returns the commitment the contract should currently trust.
func (w *Wallet) CurrentPKH() (types.Hash, error) {
	cur, err := w.keys.CurrentKeyPair()
	if err != nil {
		return types.Hash{}, err
	}
	return lamport.PublicKeyHash(cur.Pub), nil
}

// NextPKH returns the successor commitment the next operation will bind.
func (w *Wallet) NextPKH() (types.Hash, error) {
	return w.keys.NextPKH()
}

// CheckTrusted compares the contract's trusted commitment against the
// local current key. A mismatch means the local key window has drifted
// from ledger-observed usage and signing must not proceed.
func (w *Wallet) CheckTrusted(ctx context.Context) (bool, error) {
	trusted, err := w.ledger.TrustedPKH(ctx, w.addr)
	if err != nil {
		return false, fmt.Errorf("wallet: trusted pkh lookup: %w", err)
	}
	local, err := w.CurrentPKH()
	if err != nil {
		return false, err
	}
	return trusted == local, nil
}

// Authorize signs op with the current key, bound to the successor
// commitment, and submits it. On acceptance the key window advances and
// the bundle is returned.
//
// The current key is tombstoned the moment it signs: its secrets are
// revealed whether or not the broadcast succeeds. If submission fails,
// the identical bundle is retained and Resubmit can broadcast it again;
// signing a different payload with that key is impossible.
func (w *Wallet) Authorize(ctx context.Context, op Operation) (*SignedOperation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		return nil, ErrSubmitPending
	}

	current, err := w.keys.CurrentKeyPair()
	if err != nil {
		return nil, err
	}
	nextPKH, err := w.keys.NextPKH()
	if err != nil {
		return nil, err
	}

	callHash := CallHash(op, nextPKH)

	sig, err := w.spent.Sign(callHash, current)
	if err != nil {
		return nil, err
	}

	// Mandatory self-check before anything leaves the process. A failure
	// here can only be a derivation or packing bug and must never be
	// retried with another key.
	if err := lamport.VerifySignature(callHash, sig, current.Pub); err != nil {
		w.logger.Error("self-verification failed",
			"callhash", callHash.Hex(), "err", err)
		return nil, fmt.Errorf("%w: %v", ErrProtocolInvariant, err)
	}

	bundle := &SignedOperation{
		Op:        op,
		PublicKey: current.Pub,
		NextPKH:   nextPKH,
		CallHash:  callHash,
		Signature: sig,
	}

	if err := w.ledger.Submit(ctx, w.addr, *bundle); err != nil {
		// The key is burned but the contract's trusted commitment has not
		// moved, so the window stays put and the bundle is kept for
		// resubmission.
		w.pending = bundle
		w.logger.Warn("submission failed, bundle retained",
			"callhash", callHash.Hex(), "err", err)
		return bundle, fmt.Errorf("wallet: submit: %w", err)
	}

	if err := w.keys.Advance(); err != nil {
		return nil, fmt.Errorf("wallet: advancing key window: %w", err)
	}
	w.logger.Info("operation authorized",
		"callhash", callHash.Hex(), "nextpkh", nextPKH.Hex())
	return bundle, nil
}

// Resubmit broadcasts the retained bundle again, byte-identical to the
// original: no new secrets are revealed. On acceptance the key window
// advances and the pending slot clears.
func (w *Wallet) Resubmit(ctx context.Context) (*SignedOperation, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending == nil {
		return nil, ErrNothingPending
	}
	bundle := w.pending

	if err := w.ledger.Submit(ctx, w.addr, *bundle); err != nil {
		return bundle, fmt.Errorf("wallet: resubmit: %w", err)
	}

	if err := w.keys.Advance(); err != nil {
		return nil, fmt.Errorf("wallet: advancing key window: %w", err)
	}
	w.pending = nil
	w.logger.Info("pending operation accepted", "callhash", bundle.CallHash.Hex())
	return bundle, nil
}

// Pending returns the bundle awaiting resubmission, or nil.
func (w *Wallet) Pending() *SignedOperation {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Address returns the wallet's contract address.
func (w *Wallet) Address() types.Address {
	return w.addr
}
