// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package mining

import "sync/atomic"

// Stats carries the engine's cumulative counters. All fields are atomics
// with no ordering requirements; readers only need eventual visibility
// for throughput reporting.
type Stats struct {
	TotalHashes atomic.Uint64
	Accepted    atomic.Uint64
	Rejected    atomic.Uint64
}

func NewStats() *Stats {
	return &Stats{}
}
