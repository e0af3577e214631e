package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/obsidianstack/relayd/internal/bundle"
	"github.com/obsidianstack/relayd/internal/transport"
)

// Store is the durable bundle spool the engine drains. The production
// implementation is *spool.Store; tests use an in-memory fake.
//
// ListPending must return bundles in creation order and, after a crash,
// must reflect the last durably committed metadata.
type Store interface {
	ListPending() ([]bundle.Ref, error)
	Payload(id string) ([]byte, error)
	Delete(id string) error
	UpdateMeta(id string, attemptCount int, nextEligible time.Time) error
}

// state is the coordinator's position in the flush lifecycle.
type state int

const (
	stateIdle state = iota
	stateDraining
	stateCompleting
)

// Engine owns the flush lifecycle for one spool: at most one flush session
// runs at a time, bundles are drained in creation order, retryable failures
// are deferred per bundle, and an unreachable endpoint aborts the whole
// pass. TriggerFlush is the only public entry point for callers; Run hosts
// the worker that performs the actual draining.
type Engine struct {
	store Store
	tr    transport.Transport
	diag  Diagnostics
	now   func() time.Time // injectable for deterministic tests

	policyMu sync.RWMutex
	policy   RetryPolicy

	// mu guards the session state machine. It is never held across a
	// transport send, so concurrent TriggerFlush calls stay cheap while a
	// send is outstanding.
	mu        sync.Mutex
	state     state
	successor bool
	session   uint64

	wake chan struct{}
}

// New creates an Engine over the given spool and transport. diag may be nil.
func New(store Store, tr transport.Transport, policy RetryPolicy, diag Diagnostics) *Engine {
	if diag == nil {
		diag = nopDiagnostics{}
	}
	return &Engine{
		store:  store,
		tr:     tr,
		diag:   diag,
		policy: policy,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}
}

// TriggerFlush requests that the spool be drained. It never blocks and
// performs no I/O on the caller's goroutine.
//
// If no session is active, the flush worker is woken. If a session is
// already draining, the session's successor flag is set instead, so bundles
// persisted since that session began are picked up by exactly one follow-up
// drain rather than a second concurrent one.
func (e *Engine) TriggerFlush() {
	e.mu.Lock()
	if e.state != stateIdle {
		e.successor = true
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
		// A wake-up is already queued; the pending flush will see our bundles.
	}
}

// Active reports whether a flush session is currently running.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != stateIdle
}

// SetRetryPolicy swaps the retry policy. Used by config hot reload; takes
// effect from the next retry decision.
func (e *Engine) SetRetryPolicy(p RetryPolicy) {
	e.policyMu.Lock()
	e.policy = p
	e.policyMu.Unlock()
}

func (e *Engine) retryPolicy() RetryPolicy {
	e.policyMu.RLock()
	defer e.policyMu.RUnlock()
	return e.policy
}

// Run hosts the flush worker. All spool and transport access happens on
// this goroutine, which is what guarantees at most one active session.
// Run blocks until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.wake:
			e.flush(ctx)
		}
	}
}

// flush executes one session: drain, then re-drain once per successor
// request, then back to idle.
func (e *Engine) flush(ctx context.Context) {
	e.mu.Lock()
	e.state = stateDraining
	e.session++
	seq := e.session
	e.mu.Unlock()

	for {
		e.drain(ctx, seq)

		e.mu.Lock()
		e.state = stateCompleting
		if e.successor && ctx.Err() == nil {
			// New bundles may have arrived while we were draining:
			// re-enumerate from the top.
			e.successor = false
			e.state = stateDraining
			e.mu.Unlock()
			continue
		}
		e.successor = false
		e.state = stateIdle
		e.mu.Unlock()
		return
	}
}

// drain performs one pass over the current backlog in creation order.
func (e *Engine) drain(ctx context.Context, seq uint64) {
	refs, err := e.store.ListPending()
	if err != nil {
		slog.Error("engine: list pending failed", "session", seq, "err", err)
		return
	}

	var sent, deferred, abandoned int
	for _, ref := range refs {
		if ctx.Err() != nil {
			// Shutdown observed: stop before the next bundle. Unprocessed
			// bundles keep their metadata, so a restart resumes cleanly.
			slog.Info("engine: shutdown observed mid-drain",
				"session", seq, "sent", sent, "remaining", len(refs)-sent-abandoned)
			return
		}

		now := e.now()
		if !ref.Eligible(now) {
			continue
		}

		payload, err := e.store.Payload(ref.ID)
		if err != nil {
			// Raced with a concurrent delete or the envelope is unreadable.
			// Leave it for the next session.
			slog.Warn("engine: load payload failed", "bundle", ref.ID, "err", err)
			continue
		}

		out := e.tr.Send(ctx, ref.ID, payload)
		switch out.Class {
		case transport.Success:
			if err := e.store.Delete(ref.ID); err != nil {
				// The bundle was delivered; worst case the next session
				// resends it and the endpoint deduplicates by ID.
				slog.Error("engine: delete after send failed", "bundle", ref.ID, "err", err)
			}
			e.diag.BundleSent(ref.ID)
			sent++

		case transport.Retryable:
			attempts := ref.AttemptCount + 1
			delay, ok := e.retryPolicy().NextDelay(attempts, out.Class)
			if !ok {
				if err := e.store.Delete(ref.ID); err != nil {
					slog.Error("engine: delete after retry exhaustion failed", "bundle", ref.ID, "err", err)
				}
				e.diag.BundleAbandoned(ref.ID, ReasonMaxAttempts)
				abandoned++
				continue
			}
			if err := e.store.UpdateMeta(ref.ID, attempts, now.Add(delay)); err != nil {
				slog.Error("engine: update metadata failed", "bundle", ref.ID, "err", err)
			}
			e.diag.BundleRetryScheduled(ref.ID, attempts, delay)
			deferred++

		case transport.Permanent:
			if err := e.store.Delete(ref.ID); err != nil {
				slog.Error("engine: delete after rejection failed", "bundle", ref.ID, "err", err)
			}
			e.diag.BundleAbandoned(ref.ID, out.Reason)
			abandoned++

		case transport.Unreachable:
			// The endpoint itself is down — abort the pass so we do not
			// burn through the backlog against a dead endpoint. Everything
			// still spooled, this bundle included, keeps its metadata.
			e.diag.EndpointUnreachable(out.Reason)
			e.diag.FlushFinished(seq, sent, deferred, abandoned)
			return
		}
	}

	e.diag.FlushFinished(seq, sent, deferred, abandoned)
}
