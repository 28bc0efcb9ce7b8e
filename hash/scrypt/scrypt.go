// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

// Package scrypt implements the scrypt proof-of-work hash (N=1024, r=1,
// p=1, dkLen=32) over an 80-byte block header, as used by Litecoin-style
// chains. The implementation keeps all working memory in fixed scratch
// buffers inside a Hasher so the hot loop performs no heap allocation.
package scrypt

import (
	"crypto/sha256"
	"encoding/binary"
	"hash"
	"math/bits"
)

const (
	// HeaderLen is the length of a block header in bytes.
	HeaderLen = 80

	// HashLen is the length of the resulting digest in bytes.
	HashLen = 32

	// nonceOffset is where the 32-bit nonce lives inside the header.
	nonceOffset = 76
)

// Hasher holds the scratch state for scrypt hashing. A Hasher is stateful
// and not safe for concurrent use; give each worker goroutine its own.
type Hasher struct {
	b [132]byte          // key material, per-round input, final serialization
	x [32]uint32         // working state
	v [32 * 1024]uint32  // large lookup table (memory-hard core)

	sha  hash.Hash // reused SHA-256 for both HMAC passes
	ipad [64]byte
	opad [64]byte
	tmp  [32]byte // inner HMAC digest
	sum  [32]byte // per-round keyed digest
	out  [32]byte // final digest
}

// New returns a Hasher ready for use.
func New() *Hasher {
	return &Hasher{sha: sha256.New()}
}

// Hash computes the scrypt hash of the header (big-endian byte order, at
// least 76 bytes) with nonce patched little-endian into bytes 76..79.
// The returned slice aliases internal state and is only valid until the
// next call on this Hasher.
func (h *Hasher) Hash(header []byte, nonce uint32) []byte {
	copy(h.b[:nonceOffset], header)
	binary.LittleEndian.PutUint32(h.b[nonceOffset:HeaderLen], nonce)
	h.initKey(h.b[:HeaderLen])

	// PBKDF2(key, key, 1, 128): four HMAC rounds over the 80-byte key
	// material plus a big-endian round counter.
	h.b[80], h.b[81], h.b[82] = 0, 0, 0
	for i := 0; i < 4; i++ {
		h.b[83] = byte(i + 1)
		h.hmacSum(h.b[:84], h.sum[:0])
		for j := 0; j < 8; j++ {
			h.x[i*8+j] = binary.LittleEndian.Uint32(h.sum[j*4:])
		}
	}

	// Fill: snapshot the state into each table slot, then mix.
	for i := 0; i < 1024; i++ {
		copy(h.v[i*32:], h.x[:])
		h.xorSalsa8(0, 16)
		h.xorSalsa8(16, 0)
	}

	// Mix: fold pseudo-random table slots back into the state.
	for i := 0; i < 1024; i++ {
		k := (h.x[16] & 1023) * 32
		for j := uint32(0); j < 32; j++ {
			h.x[j] ^= h.v[k+j]
		}
		h.xorSalsa8(0, 16)
		h.xorSalsa8(16, 0)
	}

	// PBKDF2(key, state, 1, 32): one more keyed pass over the serialized
	// state with the trailing block counter.
	for i := 0; i < 32; i++ {
		binary.LittleEndian.PutUint32(h.b[i*4:], h.x[i])
	}
	h.b[128], h.b[129], h.b[130], h.b[131] = 0, 0, 0, 1
	h.hmacSum(h.b[:132], h.out[:0])
	return h.out[:]
}

// HashEmbedded hashes a full 80-byte header using the nonce already
// present at bytes 76..79 (little-endian).
func (h *Hasher) HashEmbedded(header []byte) []byte {
	return h.Hash(header, binary.LittleEndian.Uint32(header[nonceOffset:HeaderLen]))
}

// initKey prepares the HMAC-SHA256 pads for an 80-byte key. Keys longer
// than the SHA-256 block size are pre-hashed, per RFC 2104.
func (h *Hasher) initKey(key []byte) {
	kh := sha256.Sum256(key)
	for i := 0; i < 32; i++ {
		h.ipad[i] = kh[i] ^ 0x36
		h.opad[i] = kh[i] ^ 0x5c
	}
	for i := 32; i < 64; i++ {
		h.ipad[i] = 0x36
		h.opad[i] = 0x5c
	}
}

// hmacSum writes HMAC-SHA256(key, msg) into out, which must be an empty
// slice with capacity 32 backed by Hasher scratch.
func (h *Hasher) hmacSum(msg, out []byte) {
	h.sha.Reset()
	h.sha.Write(h.ipad[:])
	h.sha.Write(msg)
	inner := h.sha.Sum(h.tmp[:0])
	h.sha.Reset()
	h.sha.Write(h.opad[:])
	h.sha.Write(inner)
	h.sha.Sum(out)
}

// xorSalsa8 XORs the 16 words at xi into the 16 words at di and applies
// the salsa20/8 core to the di half in place.
func (h *Hasher) xorSalsa8(di, xi int) {
	x := &h.x

	x00 := x[di+0] ^ x[xi+0]
	x01 := x[di+1] ^ x[xi+1]
	x02 := x[di+2] ^ x[xi+2]
	x03 := x[di+3] ^ x[xi+3]
	x04 := x[di+4] ^ x[xi+4]
	x05 := x[di+5] ^ x[xi+5]
	x06 := x[di+6] ^ x[xi+6]
	x07 := x[di+7] ^ x[xi+7]
	x08 := x[di+8] ^ x[xi+8]
	x09 := x[di+9] ^ x[xi+9]
	x10 := x[di+10] ^ x[xi+10]
	x11 := x[di+11] ^ x[xi+11]
	x12 := x[di+12] ^ x[xi+12]
	x13 := x[di+13] ^ x[xi+13]
	x14 := x[di+14] ^ x[xi+14]
	x15 := x[di+15] ^ x[xi+15]

	x[di+0] = x00
	x[di+1] = x01
	x[di+2] = x02
	x[di+3] = x03
	x[di+4] = x04
	x[di+5] = x05
	x[di+6] = x06
	x[di+7] = x07
	x[di+8] = x08
	x[di+9] = x09
	x[di+10] = x10
	x[di+11] = x11
	x[di+12] = x12
	x[di+13] = x13
	x[di+14] = x14
	x[di+15] = x15

	for i := 0; i < 8; i += 2 {
		x04 ^= bits.RotateLeft32(x00+x12, 7)
		x08 ^= bits.RotateLeft32(x04+x00, 9)
		x12 ^= bits.RotateLeft32(x08+x04, 13)
		x00 ^= bits.RotateLeft32(x12+x08, 18)
		x09 ^= bits.RotateLeft32(x05+x01, 7)
		x13 ^= bits.RotateLeft32(x09+x05, 9)
		x01 ^= bits.RotateLeft32(x13+x09, 13)
		x05 ^= bits.RotateLeft32(x01+x13, 18)
		x14 ^= bits.RotateLeft32(x10+x06, 7)
		x02 ^= bits.RotateLeft32(x14+x10, 9)
		x06 ^= bits.RotateLeft32(x02+x14, 13)
		x10 ^= bits.RotateLeft32(x06+x02, 18)
		x03 ^= bits.RotateLeft32(x15+x11, 7)
		x07 ^= bits.RotateLeft32(x03+x15, 9)
		x11 ^= bits.RotateLeft32(x07+x03, 13)
		x15 ^= bits.RotateLeft32(x11+x07, 18)
		x01 ^= bits.RotateLeft32(x00+x03, 7)
		x02 ^= bits.RotateLeft32(x01+x00, 9)
		x03 ^= bits.RotateLeft32(x02+x01, 13)
		x00 ^= bits.RotateLeft32(x03+x02, 18)
		x06 ^= bits.RotateLeft32(x05+x04, 7)
		x07 ^= bits.RotateLeft32(x06+x05, 9)
		x04 ^= bits.RotateLeft32(x07+x06, 13)
		x05 ^= bits.RotateLeft32(x04+x07, 18)
		x11 ^= bits.RotateLeft32(x10+x09, 7)
		x08 ^= bits.RotateLeft32(x11+x10, 9)
		x09 ^= bits.RotateLeft32(x08+x11, 13)
		x10 ^= bits.RotateLeft32(x09+x08, 18)
		x12 ^= bits.RotateLeft32(x15+x14, 7)
		x13 ^= bits.RotateLeft32(x12+x15, 9)
		x14 ^= bits.RotateLeft32(x13+x12, 13)
		x15 ^= bits.RotateLeft32(x14+x13, 18)
	}

	x[di+0] += x00
	x[di+1] += x01
	x[di+2] += x02
	x[di+3] += x03
	x[di+4] += x04
	x[di+5] += x05
	x[di+6] += x06
	x[di+7] += x07
	x[di+8] += x08
	x[di+9] += x09
	x[di+10] += x10
	x[di+11] += x11
	x[di+12] += x12
	x[di+13] += x13
	x[di+14] += x14
	x[di+15] += x15
}
