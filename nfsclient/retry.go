package nfsclient

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/logger"
	"github.com/microsoft/hpc-cache-nfsv3-client/internal/telemetry"
	"github.com/microsoft/hpc-cache-nfsv3-client/nfs3"
	"github.com/microsoft/hpc-cache-nfsv3-client/rpc"
)

// defaultMaxTries and defaultJukeboxPause match the values a well-behaved
// NFSv3 client uses for NFS3ERR_JUKEBOX (RFC 1813's HSM-backed-storage
// escape hatch): five attempts, a quarter second apart, is enough for a
// tape-or-cache-backed server to stage a file without the client giving up
// too early or hammering the server too hard.
const (
	defaultMaxTries     = 5
	defaultJukeboxPause = 250 * time.Millisecond
)

// transportErrorStatus labels a latency observation that came from a bare
// transport error rather than an nfsstat3/mountstat3 reply, so min/max
// extrema driven by a connection failure are distinguishable from ones
// driven by a real protocol status.
const transportErrorStatus = "TRANSPORT_ERROR"

// StatusError reports an NFSv3/MOUNT3 procedure that completed the RPC
// round trip but returned a non-OK status. It is distinct from *rpc.Error,
// which reports the transport itself failing.
type StatusError struct {
	Op     string
	Status nfs3.Nfsstat3
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nfsclient: %s: %s", e.Op, e.Status)
}

// JukeboxExhaustedError is returned when every retry attempt for an
// operation came back NFS3ERR_JUKEBOX.
type JukeboxExhaustedError struct {
	Op    string
	Tries int
}

func (e *JukeboxExhaustedError) Error() string {
	return fmt.Sprintf("nfsclient: %s: still NFS3ERR_JUKEBOX after %d tries", e.Op, e.Tries)
}

// Attempt is one call through the transport: it allocates nothing itself,
// receiving the XID to use from the Retrier so JUKEBOX retries can choose a
// fresh one while transport-level retries reuse the same one (matching
// rpc.Client.Call's "supplied XID suppresses its own internal retry"
// contract — Retrier, not rpc.Client, owns the retry loop here).
type Attempt func(ctx context.Context, xid uint32) (nfs3.Nfsstat3, error)

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithMaxTries overrides the default retry budget.
func WithMaxTries(n int) RetrierOption {
	return func(r *Retrier) { r.maxTries = n }
}

// WithJukeboxPause overrides the default pause between JUKEBOX retries.
func WithJukeboxPause(d time.Duration) RetrierOption {
	return func(r *Retrier) { r.jukeboxPause = d }
}

// WithTracker attaches a Tracker to record latency/outcome for every
// attempt and every logical call.
func WithTracker(t *Tracker) RetrierOption {
	return func(r *Retrier) { r.tracker = t }
}

// Retrier wraps the JUKEBOX-retry policy described in §4.8: a caller-
// supplied XID only suppresses rpc.Client's own internal retry, not this
// wrapper's outer loop, which is the layer responsible for recognizing
// NFS3ERR_JUKEBOX and trying again.
type Retrier struct {
	maxTries     int
	jukeboxPause time.Duration
	tracker      *Tracker
}

// NewRetrier builds a Retrier with the default five-try, 250ms-pause
// policy, adjustable via opts.
func NewRetrier(opts ...RetrierOption) *Retrier {
	r := &Retrier{maxTries: defaultMaxTries, jukeboxPause: defaultJukeboxPause}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracker == nil {
		r.tracker = NewTracker(nil)
	}
	return r
}

// Do runs attempt up to the configured retry budget, treating
// NFS3ERR_JUKEBOX specially: each JUKEBOX reply pauses jukeboxPause and
// retries with a freshly allocated XID (the server may have since forgotten
// about the old one), while a bare transport error (attempt returning a
// non-nil err) also pauses jukeboxPause and then retries against the same
// XID, on the theory that the original call may yet land and a fresh XID
// would just create a duplicate. op names the procedure for tracking and error messages (e.g.
// "READ", "MKDIR").
func (r *Retrier) Do(ctx context.Context, op string, attempt Attempt) error {
	ctx, span := telemetry.StartOpSpan(ctx, op)
	defer span.End()

	start := time.Now()
	xid := rpc.NextXID()

	var lastErr error
	for try := 1; try <= r.maxTries; try++ {
		attemptStart := time.Now()
		status, err := attempt(ctx, xid)
		elapsed := time.Since(attemptStart)

		if err != nil {
			r.tracker.observeAttempt(op, elapsed, false, transportErrorStatus)
			telemetry.AddAttemptEvent(span, "transport_error", telemetry.RPCXID(xid), attribute.String("error", err.Error()))
			lastErr = err
			if try == r.maxTries {
				break
			}
			select {
			case <-time.After(r.jukeboxPause):
			case <-ctx.Done():
				r.tracker.observeLogicalCall(op, time.Since(start), false, ctx.Err().Error())
				telemetry.RecordOutcome(span, ctx.Err())
				return ctx.Err()
			}
			continue
		}

		if status == nfs3.NFS3ErrJukebox {
			r.tracker.observeAttempt(op, elapsed, false, status.String())
			telemetry.AddAttemptEvent(span, "jukebox_retry", telemetry.RPCXID(xid), telemetry.NFSStatus(status.String()))
			lastErr = &JukeboxExhaustedError{Op: op, Tries: try}
			if try == r.maxTries {
				break
			}
			logger.Debug("nfsclient: NFS3ERR_JUKEBOX, retrying with a fresh XID", "op", op, "xid", xid, "try", try)
			select {
			case <-time.After(r.jukeboxPause):
			case <-ctx.Done():
				r.tracker.observeLogicalCall(op, time.Since(start), false, ctx.Err().Error())
				telemetry.RecordOutcome(span, ctx.Err())
				return ctx.Err()
			}
			xid = rpc.NextXID()
			continue
		}

		r.tracker.observeAttempt(op, elapsed, !status.IsError(), status.String())
		span.SetAttributes(telemetry.RPCXID(xid), telemetry.NFSStatus(status.String()), attribute.Int(telemetry.AttrRPCAttempts, try))
		if status.IsError() {
			r.tracker.observeLogicalCall(op, time.Since(start), false, status.String())
			statusErr := &StatusError{Op: op, Status: status}
			telemetry.RecordOutcome(span, statusErr)
			return statusErr
		}
		r.tracker.observeLogicalCall(op, time.Since(start), true, status.String())
		telemetry.RecordOutcome(span, nil)
		return nil
	}

	lastStatus := transportErrorStatus
	if _, ok := lastErr.(*JukeboxExhaustedError); ok {
		lastStatus = nfs3.NFS3ErrJukebox.String()
	}
	r.tracker.observeLogicalCall(op, time.Since(start), false, lastStatus)
	telemetry.RecordOutcome(span, lastErr)
	return lastErr
}
