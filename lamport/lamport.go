// Package lamport implements the Lamport one-time signature primitive
// used to authorize smart-contract wallet operations.
//
// A private key is 256 pairs of 32-byte secrets, one pair per bit of a
// Keccak256 message hash. The public key holds the Keccak256 hash of
// each secret, and a signature reveals exactly one secret per message
// bit. Revealing a second secret for any index lets an attacker forge
// arbitrary signatures for that key, so every key pair must sign at
// most one message, ever. The trackers in package keytracker exist to
// uphold that invariant.
//
// Security relies only on Keccak256 pre-image resistance, providing
// full post-quantum security without lattice or number-theoretic
// assumptions.
package lamport

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/eth2030/lamport-wallet/abi"
	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/crypto"
)

// NumBits is the number of message-hash bits, and therefore the number
// of secret pairs in a private key.
const NumBits = 256

// Lamport signature errors.
var (
	ErrRngFailure             = errors.New("lamport: entropy source unavailable")
	ErrInvalidKeyLength       = errors.New("lamport: private key must hold 256 secret pairs")
	ErrInvalidPublicKeyLength = errors.New("lamport: public key must hold 256 hash pairs")
	ErrInvalidSignatureLength = errors.New("lamport: signature must hold 256 revealed secrets")
	ErrVerificationFailed     = errors.New("lamport: signature verification failed")
	ErrKeySpent               = errors.New("lamport: one-time key already spent")
)

// SecretPair holds the two secrets for one bit position: index 0 is
// revealed when the message bit is 0, index 1 when it is 1.
type SecretPair [2]types.Hash

// HashPair holds the Keccak256 hashes of the two secrets at one bit
// position.
type HashPair [2]types.Hash

// PrivateKey is the ordered list of 256 secret pairs.
type PrivateKey []SecretPair

// PublicKey is the ordered list of 256 hash pairs.
type PublicKey []HashPair

// Signature is the 256 revealed secrets, one per message-hash bit.
type Signature []types.Hash

// KeyPair bundles a private key with its public key. The per-index
// relation Pub[i][b] == Keccak256(Pri[i][b]) holds for all 256 indices.
type KeyPair struct {
	Pri PrivateKey `json:"pri"`
	Pub PublicKey  `json:"pub"`
}

// GenerateKeyPair draws 256 independent secret pairs from crypto/rand
// and derives the matching public key.
func GenerateKeyPair() (KeyPair, error) {
	return generateFromReader(rand.Reader)
}

func generateFromReader(random io.Reader) (KeyPair, error) {
	pri := make(PrivateKey, NumBits)
	pub := make(PublicKey, NumBits)

	for i := 0; i < NumBits; i++ {
		for b := 0; b < 2; b++ {
			if _, err := io.ReadFull(random, pri[i][b][:]); err != nil {
				return KeyPair{}, fmt.Errorf("%w: %v", ErrRngFailure, err)
			}
			pub[i][b] = crypto.Keccak256Hash(pri[i][b][:])
		}
	}
	return KeyPair{Pri: pri, Pub: pub}, nil
}

// RandomSecret draws a fresh 32-byte secret from crypto/rand, suitable
// as a DeriveKeyPair input or a tracker seed.
func RandomSecret() (types.Hash, error) {
	var s types.Hash
	if _, err := io.ReadFull(rand.Reader, s[:]); err != nil {
		return types.Hash{}, fmt.Errorf("%w: %v", ErrRngFailure, err)
	}
	return s, nil
}

// DeriveKeyPair expands a single 32-byte secret into a full key pair.
// The secret is stretched into 512 values Keccak256(Pack(secret, i))
// for i = 0..511; even indices become the bit-0 secrets, odd indices
// the bit-1 secrets. The expansion is pure: the same secret always
// yields the same key pair. Compressed and seeded trackers are built
// on this.
func DeriveKeyPair(secret types.Hash) KeyPair {
	pri := make(PrivateKey, NumBits)
	pub := make(PublicKey, NumBits)

	for i := 0; i < NumBits; i++ {
		pri[i][0] = expandValue(secret, uint64(2*i))
		pri[i][1] = expandValue(secret, uint64(2*i+1))
		pub[i][0] = crypto.Keccak256Hash(pri[i][0][:])
		pub[i][1] = crypto.Keccak256Hash(pri[i][1][:])
	}
	return KeyPair{Pri: pri, Pub: pub}
}

// expandValue computes one element of the 512-value key stream.
func expandValue(secret types.Hash, index uint64) types.Hash {
	packed := abi.NewPacker().Hash(secret).Uint64(index).Packed()
	return crypto.Keccak256Hash(packed)
}

// DeriveSecret derives the one-time secret for a (seed, nonce) pair:
// Keccak256(Pack(seed, nonce)). Seeded trackers feed the result to
// DeriveKeyPair, giving unlimited one-time keys from O(1) storage.
func DeriveSecret(seed types.Hash, nonce uint64) types.Hash {
	packed := abi.NewPacker().Hash(seed).Uint64(nonce).Packed()
	return crypto.Keccak256Hash(packed)
}

// PublicKeyHash computes the canonical 32-byte commitment for a whole
// public key: Keccak256 of all 256 hash pairs packed in index order.
// The verifying contract reproduces this byte-for-byte.
func PublicKeyHash(pub PublicKey) types.Hash {
	p := abi.NewPacker()
	for i := range pub {
		p.Hash(pub[i][0]).Hash(pub[i][1])
	}
	return crypto.Keccak256Hash(p.Packed())
}

// Sign reveals one secret per bit of msgHash, MSB first. The caller is
// responsible for never signing twice with the same private key; use
// SpentSet.Sign to enforce that at runtime.
func Sign(msgHash types.Hash, pri PrivateKey) (Signature, error) {
	if len(pri) != NumBits {
		return nil, ErrInvalidKeyLength
	}
	sig := make(Signature, NumBits)
	for i := 0; i < NumBits; i++ {
		sig[i] = pri[i][bit(msgHash, i)]
	}
	return sig, nil
}

// Verify checks that every revealed secret hashes to the public-key
// entry selected by the corresponding bit of msgHash. Verification is
// all-or-nothing: any single mismatch, or a malformed signature or
// public key, yields false.
func Verify(msgHash types.Hash, sig Signature, pub PublicKey) bool {
	return VerifySignature(msgHash, sig, pub) == nil
}

// VerifySignature is the error-reporting form of Verify. It separates
// malformed inputs (ErrInvalidPublicKeyLength, ErrInvalidSignatureLength)
// from a well-formed signature that does not check out
// (ErrVerificationFailed).
func VerifySignature(msgHash types.Hash, sig Signature, pub PublicKey) error {
	if len(pub) != NumBits {
		return ErrInvalidPublicKeyLength
	}
	if len(sig) != NumBits {
		return ErrInvalidSignatureLength
	}
	for i := 0; i < NumBits; i++ {
		if crypto.Keccak256Hash(sig[i][:]) != pub[i][bit(msgHash, i)] {
			return ErrVerificationFailed
		}
	}
	return nil
}

// bit returns bit i of h, where bit 0 is the most significant bit of
// the first byte.
func bit(h types.Hash, i int) int {
	return int(h[i/8]>>(7-i%8)) & 1
}
