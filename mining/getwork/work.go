// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package getwork

import (
	"net/url"
	"time"

	"github.com/minerorg/gwminer/hash/scrypt"
)

// Work is one unit of work handed out by the node: an 80-byte block header
// fragment plus the difficulty target a solution hash must stay under.
// A Work is immutable once built; readers always take a whole snapshot.
type Work struct {
	// Data is the header payload exactly as served by the node, in its
	// native little-endian word order. Nodes commonly pad it past 80
	// bytes; the padding is echoed back verbatim on submission.
	Data []byte

	// Target is the 32-byte little-endian maximum acceptable hash.
	Target []byte

	// Header is Data[:80] with each 4-byte word byte-reversed, the
	// big-endian form fed to the hash engine. Always derived from Data;
	// the two are never replaced independently.
	Header []byte

	// FetchedAt is when the node handed out this work.
	FetchedAt time.Time

	// LongPollURL is the long-polling endpoint advertised by the node,
	// already resolved against the request URL. Nil if not offered.
	LongPollURL *url.URL
}

// Age returns how long ago this work was fetched.
func (w *Work) Age() time.Duration {
	return time.Since(w.FetchedAt)
}

// MeetsTarget hashes the header with the given nonce and reports whether
// the digest is numerically <= the target.
func (w *Work) MeetsTarget(h *scrypt.Hasher, nonce uint32) bool {
	return lessOrEqualLE(h.Hash(w.Header, nonce), w.Target)
}

// lessOrEqualLE compares two equal-length little-endian integers, scanning
// from the most significant byte down. Full equality counts as a hit.
func lessOrEqualLE(hash, target []byte) bool {
	for i := len(hash) - 1; i >= 0; i-- {
		if hash[i] > target[i] {
			return false
		}
		if hash[i] < target[i] {
			return true
		}
	}
	return true
}
