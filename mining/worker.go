// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

package mining

import (
	"time"

	"github.com/minerorg/gwminer/hash/scrypt"
	"github.com/minerorg/gwminer/metrics"
)

// throttleWindow is the wall-time batch over which throttling is applied.
// After each window the worker sleeps throttleFactor times the window's
// elapsed time, approximating the configured duty cycle.
const throttleWindow = 100 * time.Microsecond

// metricsBatch is how many hashes accumulate locally before being flushed
// to the Prometheus counter, keeping the hot loop off the shared counter.
const metricsBatch = 256

// worker is one hash-worker goroutine. Worker id owns the nonce sequence
// id, id+step, id+2*step, ... where step is the smallest power of two >=
// the thread count, so no two workers ever test the same nonce.
func (e *Engine) worker(id uint32) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Uint32("worker", id).Msg("hash worker failed")
			e.emit(SystemError)
			e.cancel()
		}
	}()

	hasher := scrypt.New() // one engine per worker; not shareable
	nonce := id

	var batch uint64
	windowStart := time.Now()

	for e.ctx.Err() == nil {
		w := e.cur.Load()
		if w == nil {
			// Benign race: the slot is empty while work is being
			// replaced. Back off briefly and look again.
			select {
			case <-time.After(slotBackoff):
			case <-e.ctx.Done():
			}
			continue
		}

		if w.MeetsTarget(hasher, nonce) {
			e.logger.Info().Uint32("nonce", nonce).Uint32("worker", id).Msg("candidate found")
			e.wg.Add(1)
			go e.submit(w, nonce)

			if !e.lpActive.Load() {
				// Without long polling nothing else will retire this
				// template; clear the slot so the coordinator refetches.
				e.cur.Store(nil)
				e.wakeCoordinator()
			}
		}

		nonce += e.step
		e.stats.TotalHashes.Add(1)
		batch++

		if e.throttleFactor > 0 {
			if dt := time.Since(windowStart); dt > throttleWindow {
				metrics.HashesTotal.Add(float64(batch))
				batch = 0
				time.Sleep(time.Duration(e.throttleFactor * float64(dt)))
				windowStart = time.Now()
			}
		} else if batch >= metricsBatch {
			metrics.HashesTotal.Add(float64(batch))
			batch = 0
		}
	}

	if batch > 0 {
		metrics.HashesTotal.Add(float64(batch))
	}
}
