// Package abi implements the canonical packed encoding the wallet
// contract hashes over. The rules are fixed: 256-bit values are 32-byte
// big-endian words, addresses are 20 raw bytes, and dynamic byte strings
// are a 32-byte big-endian length word followed by the raw bytes. Any
// deviation silently invalidates every signature built on top, so the
// encoding must stay byte-for-byte identical to the verifying contract.
package abi

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/lamport-wallet/core/types"
)

// WordSize is the width of a packed 256-bit word in bytes.
const WordSize = 32

// Packer accumulates fields in the canonical packed encoding. Fields are
// appended in call order; the contract unpacks them in the same order.
type Packer struct {
	buf []byte
}

// NewPacker returns an empty Packer.
func NewPacker() *Packer {
	return &Packer{}
}

// Uint256 appends v as a 32-byte big-endian word. A nil value packs as
// the zero word.
func (p *Packer) Uint256(v *uint256.Int) *Packer {
	var word [WordSize]byte
	if v != nil {
		word = v.Bytes32()
	}
	p.buf = append(p.buf, word[:]...)
	return p
}

// Uint64 appends v widened to a full 32-byte big-endian word.
func (p *Packer) Uint64(v uint64) *Packer {
	return p.Uint256(uint256.NewInt(v))
}

// Hash appends the 32 bytes of h as-is.
func (p *Packer) Hash(h types.Hash) *Packer {
	p.buf = append(p.buf, h[:]...)
	return p
}

// Address appends the 20 bytes of a as-is.
func (p *Packer) Address(a types.Address) *Packer {
	p.buf = append(p.buf, a[:]...)
	return p
}

// Bytes appends b as a length word followed by the raw bytes.
func (p *Packer) Bytes(b []byte) *Packer {
	p.Uint64(uint64(len(b)))
	p.buf = append(p.buf, b...)
	return p
}

// String appends s with the same encoding as Bytes.
func (p *Packer) String(s string) *Packer {
	return p.Bytes([]byte(s))
}

// Packed returns the accumulated encoding. The returned slice is owned
// by the caller; the Packer can keep accumulating.
func (p *Packer) Packed() []byte {
	out := make([]byte, len(p.buf))
	copy(out, p.buf)
	return out
}

// Len returns the number of bytes accumulated so far.
func (p *Packer) Len() int {
	return len(p.buf)
}

// PackString is a convenience for the common single-string payload.
func PackString(s string) []byte {
	return NewPacker().String(s).Packed()
}
