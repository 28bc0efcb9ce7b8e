// Copyright (c) 2025 The gwminer developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or http://www.opensource.org/licenses/mit-license.php.

// Package mining contains the work lifecycle coordinator: it fetches work
// templates from a node, fans the nonce space out across hash workers,
// listens for long-polled block updates, and submits solutions.
package mining

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/minerorg/gwminer/metrics"
	"github.com/minerorg/gwminer/mining/getwork"
	"github.com/minerorg/gwminer/utils"
)

const (
	// WorkExpiry is how long fetched work stays usable before the
	// coordinator refetches it regardless of long polling.
	WorkExpiry = 60 * time.Second

	// DefaultScanInterval is how often work is refreshed when the node
	// offers no long polling.
	DefaultScanInterval = 5 * time.Second

	// DefaultRetryPause spaces out retries after a retryable failure.
	DefaultRetryPause = 30 * time.Second

	// slotBackoff is how long a worker sleeps when it catches the work
	// slot empty mid-transition.
	slotBackoff = time.Millisecond

	// eventBuffer sizes the event channel so short consumer stalls do
	// not block the engine.
	eventBuffer = 64
)

// Source is the protocol client the engine drives. *getwork.Client is the
// production implementation; tests script their own.
type Source interface {
	Fetch(ctx context.Context) (*getwork.Work, error)
	Submit(ctx context.Context, w *getwork.Work, nonce uint32) (bool, error)
	LongPoll(ctx context.Context, u *url.URL) (*getwork.Work, error)
}

// Config holds the engine tuning knobs. Zero values pick defaults.
type Config struct {
	// Threads is the number of hash worker goroutines. 0 means one per CPU.
	Threads int

	// Throttle is the hashing duty cycle in (0, 1]. 1.0 (or 0, the zero
	// value) runs unthrottled; 0.5 roughly doubles wall time per hash.
	Throttle float64

	// ScanInterval bounds how long the coordinator sleeps between work
	// refreshes when no long polling is available.
	ScanInterval time.Duration

	// RetryPause is the wait after a retryable fetch or long-poll failure.
	RetryPause time.Duration
}

// Engine coordinates the mining work lifecycle. Create with NewEngine,
// drive with Start/Stop, and drain Events until it is closed.
type Engine struct {
	cfg    Config
	src    Source
	logger zerolog.Logger
	stats  *Stats

	throttleFactor float64
	step           uint32 // nonce stride: smallest power of two >= Threads

	// cur is the shared current-work slot. It is replaced wholesale and
	// never mutated in place, so workers always see a consistent template.
	cur      atomic.Pointer[getwork.Work]
	lpActive atomic.Bool

	wake   chan struct{}
	events chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewEngine validates cfg and builds an engine around the given client.
func NewEngine(src Source, cfg Config, logger zerolog.Logger) (*Engine, error) {
	if cfg.Threads == 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("invalid number of threads: %d", cfg.Threads)
	}
	if cfg.Throttle == 0 {
		cfg.Throttle = 1.0
	}
	if cfg.Throttle <= 0 || cfg.Throttle > 1 {
		return nil, fmt.Errorf("invalid throttle: %v", cfg.Throttle)
	}
	if cfg.ScanInterval == 0 {
		cfg.ScanInterval = DefaultScanInterval
	}
	if cfg.ScanInterval < time.Millisecond {
		return nil, fmt.Errorf("invalid scan interval: %v", cfg.ScanInterval)
	}
	if cfg.RetryPause < 0 {
		return nil, fmt.Errorf("invalid retry pause: %v", cfg.RetryPause)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:            cfg,
		src:            src,
		logger:         logger,
		stats:          NewStats(),
		throttleFactor: 1/cfg.Throttle - 1,
		step:           utils.NextPow2(cfg.Threads),
		wake:           make(chan struct{}, 1),
		events:         make(chan Event, eventBuffer),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}, nil
}

// Events returns the engine's notification stream. The consumer must
// drain it until it is closed, which happens right after Terminated.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Hashes returns the cumulative number of hashes evaluated.
func (e *Engine) Hashes() uint64 {
	return e.stats.TotalHashes.Load()
}

// RetryPause returns the configured pause between retries.
func (e *Engine) RetryPause() time.Duration {
	return e.cfg.RetryPause
}

// Start spawns the hash workers and the coordinator loop. It returns
// immediately; progress is reported through Events.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		for i := 0; i < e.cfg.Threads; i++ {
			e.wg.Add(1)
			go e.worker(uint32(i))
		}
		go e.run()
	})
}

// Stop requests shutdown and blocks until every spawned goroutine has
// been joined and Terminated emitted. Idempotent; safe to call from any
// goroutine concurrently with event delivery.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.cancel()
		e.wakeCoordinator()
	})
	<-e.done
}

func (e *Engine) run() {
	e.loop()

	// Shutdown: cancelling the context unblocks the long poller's pending
	// read and stops the workers; then join everything before reporting.
	e.cancel()
	e.wg.Wait()
	e.cur.Store(nil)
	e.events <- Terminated
	close(e.events)
	close(e.done)
}

// loop is the coordinator: it keeps the shared slot stocked with fresh
// work and sleeps between refreshes, bounded by the scan interval and the
// current work's remaining lifetime.
func (e *Engine) loop() {
	for e.ctx.Err() == nil {
		cur := e.cur.Load()
		if cur == nil || cur.Age() >= WorkExpiry || !e.lpActive.Load() {
			w := e.fetchWork()
			if w == nil {
				return // stopping, or a fatal failure
			}
			if !e.lpActive.Load() && w.LongPollURL != nil {
				e.lpActive.Store(true)
				e.wg.Add(1)
				go e.longPoll(w.LongPollURL)
				e.emit(LongPollEnabled)
			}
			e.cur.Store(w)
			metrics.WorkFetched.Inc()
			e.emit(NewWork)
		}

		wait := e.cfg.ScanInterval
		if cur := e.cur.Load(); cur != nil {
			if remain := WorkExpiry - cur.Age(); remain < wait {
				wait = remain
			}
		}
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		select {
		case <-e.wake:
		case <-time.After(wait):
		case <-e.ctx.Done():
			return
		}
	}
}

// fetchWork asks the node for work, retrying indefinitely on retryable
// failures. It returns nil once the engine is stopping or the failure is
// fatal.
func (e *Engine) fetchWork() *getwork.Work {
	for e.ctx.Err() == nil {
		w, err := e.src.Fetch(e.ctx)
		if err == nil {
			return w
		}
		if e.ctx.Err() != nil {
			return nil
		}

		ev := classify(err)
		metrics.FetchErrors.WithLabelValues(ev.String()).Inc()
		e.logger.Error().Err(err).Stringer("kind", ev).Msg("work fetch failed")
		e.emit(ev)
		if ev.Fatal() {
			return nil
		}

		e.cur.Store(nil)
		select {
		case <-time.After(e.cfg.RetryPause):
		case <-e.ctx.Done():
			return nil
		}
	}
	return nil
}

// longPoll runs the single long-poll task: a blocking fetch against the
// node's long-poll URL that returns only when new work exists. An expired
// read with no data is the idle case and is reissued silently.
func (e *Engine) longPoll(u *url.URL) {
	defer e.wg.Done()
	defer func() {
		e.lpActive.Store(false)
		metrics.LongPollActive.Set(0)
	}()
	metrics.LongPollActive.Set(1)
	e.logger.Debug().Stringer("url", u).Msg("long polling started")

	for e.ctx.Err() == nil {
		w, err := e.src.LongPoll(e.ctx, u)
		if err != nil {
			if e.ctx.Err() != nil {
				return
			}
			if isTimeout(err) {
				continue
			}
			e.logger.Warn().Err(err).Msg("long polling failed")
			e.emit(LongPollFailed)
			select {
			case <-time.After(e.cfg.RetryPause):
			case <-e.ctx.Done():
				return
			}
			continue
		}
		if e.ctx.Err() != nil {
			return
		}

		e.cur.Store(w)
		metrics.WorkFetched.Inc()
		e.emit(NewBlockDetected)
		e.emit(NewWork)
		e.wakeCoordinator()
	}
}

// submit is a fire-and-forget submission task. Transport failures are
// dropped: a lost submission costs at most one candidate, and retrying
// stale work is pointless.
func (e *Engine) submit(w *getwork.Work, nonce uint32) {
	defer e.wg.Done()

	accepted, err := e.src.Submit(e.ctx, w, nonce)
	if err != nil {
		e.logger.Warn().Err(err).Uint32("nonce", nonce).Msg("submission dropped")
		return
	}
	if accepted {
		e.stats.Accepted.Add(1)
		metrics.SolutionsAccepted.Inc()
		e.emit(SolutionAccepted)
	} else {
		e.stats.Rejected.Add(1)
		metrics.SolutionsRejected.Inc()
		e.emit(SolutionRejected)
	}
}

func (e *Engine) wakeCoordinator() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// emit delivers an event to the consumer. Once shutdown has begun the
// delivery turns best-effort so a departed consumer cannot wedge the
// join barrier.
func (e *Engine) emit(ev Event) {
	select {
	case e.events <- ev:
	case <-e.ctx.Done():
		select {
		case e.events <- ev:
		default:
		}
	}
}

// classify maps a fetch failure onto the event taxonomy.
func classify(err error) Event {
	switch {
	case errors.Is(err, getwork.ErrUnauthorized):
		return AuthenticationError
	case errors.Is(err, os.ErrPermission):
		return PermissionError
	case errors.Is(err, getwork.ErrMalformed):
		return CommunicationError
	default:
		return ConnectionError
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
