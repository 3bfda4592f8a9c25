// Package geth provides an adapter layer between the Lamport wallet's
// type system and go-ethereum. This is the only package that imports
// go-ethereum directly; all other packages use lamport-wallet/core/types.
package geth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/crypto"
	"github.com/eth2030/lamport-wallet/wallet"
)

// --- Address and Hash conversion (zero-copy, layout-compatible) ---

// ToGethAddress converts a wallet Address to a go-ethereum Address.
func ToGethAddress(a types.Address) gethcommon.Address {
	return gethcommon.Address(a)
}

// FromGethAddress converts a go-ethereum Address to a wallet Address.
func FromGethAddress(a gethcommon.Address) types.Address {
	return types.Address(a)
}

// ToGethHash converts a wallet Hash to a go-ethereum Hash.
func ToGethHash(h types.Hash) gethcommon.Hash {
	return gethcommon.Hash(h)
}

// FromGethHash converts a go-ethereum Hash to a wallet Hash.
func FromGethHash(h gethcommon.Hash) types.Hash {
	return types.Hash(h)
}

// --- Value conversion ---

// ToUint256 converts *big.Int to *uint256.Int.
func ToUint256(b *big.Int) *uint256.Int {
	if b == nil {
		return new(uint256.Int)
	}
	u, _ := uint256.FromBig(b)
	return u
}

// FromUint256 converts *uint256.Int to *big.Int.
func FromUint256(u *uint256.Int) *big.Int {
	if u == nil {
		return new(big.Int)
	}
	return u.ToBig()
}

// --- Contract ledger ---

// trustedPKHSelector is the 4-byte selector of the contract's
// trusted-commitment getter.
var trustedPKHSelector = crypto.Keccak256([]byte("trustedPKH()"))[:4]

// executeSelector is the 4-byte selector of the contract's execute
// entry point; the packed SignedOperation encoding follows it.
var executeSelector = crypto.Keccak256([]byte("execute(bytes)"))[:4]

// Backend is the subset of ethclient.Client the ledger adapter needs.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account gethcommon.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
}

// ContractLedger implements wallet.Ledger over an Ethereum JSON-RPC
// backend. It is a thin transport: callhash construction, signing and
// self-verification all happen in package wallet before a bundle
// reaches it.
type ContractLedger struct {
	backend Backend
	from    gethcommon.Address
	gas     uint64

	// SignTx signs the outer transaction that carries the bundle. Left
	// nil, the transaction is handed to the backend unsigned, for
	// backends that front a relayer or a local signing node.
	SignTx func(*gethtypes.Transaction) (*gethtypes.Transaction, error)
}

// NewContractLedger returns a ledger adapter submitting from the given
// externally-owned account with a fixed gas limit.
func NewContractLedger(backend Backend, from types.Address, gasLimit uint64) *ContractLedger {
	return &ContractLedger{
		backend: backend,
		from:    ToGethAddress(from),
		gas:     gasLimit,
	}
}

// TrustedPKH reads the commitment the wallet contract currently accepts
// signatures against.
func (l *ContractLedger) TrustedPKH(ctx context.Context, walletAddr types.Address) (types.Hash, error) {
	to := ToGethAddress(walletAddr)
	out, err := l.backend.CallContract(ctx, ethereum.CallMsg{
		From: l.from,
		To:   &to,
		Data: trustedPKHSelector,
	}, nil)
	if err != nil {
		return types.Hash{}, fmt.Errorf("geth: trustedPKH call: %w", err)
	}
	if len(out) < types.HashLength {
		return types.Hash{}, fmt.Errorf("geth: trustedPKH returned %d bytes, want %d", len(out), types.HashLength)
	}
	return types.BytesToHash(out[:types.HashLength]), nil
}

// Submit broadcasts the signed bundle to the wallet contract. It
// returns nil only when the backend accepted the transaction; the
// caller decides when acceptance is final enough to advance its key
// window.
func (l *ContractLedger) Submit(ctx context.Context, walletAddr types.Address, op wallet.SignedOperation) error {
	nonce, err := l.backend.PendingNonceAt(ctx, l.from)
	if err != nil {
		return fmt.Errorf("geth: pending nonce: %w", err)
	}
	gasPrice, err := l.backend.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("geth: gas price: %w", err)
	}

	data := append(append([]byte{}, executeSelector...), op.Encode()...)
	to := ToGethAddress(walletAddr)
	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    new(big.Int),
		Gas:      l.gas,
		GasPrice: gasPrice,
		Data:     data,
	})

	if l.SignTx != nil {
		tx, err = l.SignTx(tx)
		if err != nil {
			return fmt.Errorf("geth: signing carrier transaction: %w", err)
		}
	}
	if err := l.backend.SendTransaction(ctx, tx); err != nil {
		return fmt.Errorf("geth: sending transaction: %w", err)
	}
	return nil
}
