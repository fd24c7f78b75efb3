package nfsclient

import (
	"context"
	"time"

	"github.com/microsoft/hpc-cache-nfsv3-client/nfs3"
)

// Cache-special COMMIT offset/count triples (§4.11): a vendor extension
// that reuses the plain COMMIT procedure's argument shape to carry
// out-of-band flush/refresh requests a stock NFSv3 server would never see,
// aimed at a caching layer sitting in front of the real filesystem.
const (
	cacheSpecialOffset uint64 = 0x1234ABCDDEADDEAD

	syncFlushCount   uint32 = 0xABADBEEF
	asyncFlushCount  uint32 = 0xADEADBE6
	asyncStatusCount uint32 = 0xADEADBE5
)

// commitPollInterval is how often CommitAndWait re-checks status after
// kicking off an async flush.
const commitPollInterval = 250 * time.Millisecond

// SyncFlush issues a blocking cache flush for handle: the call does not
// return until the cache has written the file through to the backing
// filesystem.
func SyncFlush(ctx context.Context, retrier *Retrier, client *nfs3.Client, handle nfs3.FileHandle3) (*nfs3.CommitResult, error) {
	return Commit(ctx, retrier, client, handle, cacheSpecialOffset, syncFlushCount)
}

// AsyncFlush starts a cache flush for handle without waiting for it to
// finish. The immediate result is NFS3OK if the file was already clean, or
// NFS3ErrNotSync to mean the flush was accepted and is now in progress;
// any other status is a genuine error.
func AsyncFlush(ctx context.Context, retrier *Retrier, client *nfs3.Client, handle nfs3.FileHandle3) (*nfs3.CommitResult, error) {
	return Commit(ctx, retrier, client, handle, cacheSpecialOffset, asyncFlushCount)
}

// CheckCommitStatus polls the state of a previously started AsyncFlush:
// NFS3OK means clean, NFS3ErrNotSync means still in progress, and
// NFS3ErrNotEmpty means dirty with no flush outstanding (§4.11's "dirty, no
// flush" arm).
func CheckCommitStatus(ctx context.Context, retrier *Retrier, client *nfs3.Client, handle nfs3.FileHandle3) (*nfs3.CommitResult, error) {
	return Commit(ctx, retrier, client, handle, cacheSpecialOffset, asyncStatusCount)
}

// RefreshFile forces the cache to refresh its view of a regular file by
// issuing the magic zero-length READ (§4.11).
func RefreshFile(ctx context.Context, retrier *Retrier, client *nfs3.Client, handle nfs3.FileHandle3) (*nfs3.ReadResult, error) {
	return Read(ctx, retrier, client, handle, 0, 0)
}

// RefreshDirectoryCookie is the reserved READDIRPLUS cookie (§4.11) that,
// together with the other fixed arguments RefreshDirectory sends, forces a
// directory refresh instead of
// listing anything; a successful refresh is reported back to the caller as
// NFS3ErrTooSmall, which RefreshDirectory treats as success.
const RefreshDirectoryCookie uint64 = 0xFFFFFFFFFFFFFFFF

// RefreshDirectory forces the cache to refresh its view of a directory by
// issuing the magic READDIRPLUS refresh request and folding the expected
// NFS3ErrTooSmall "success" status into a nil error.
func RefreshDirectory(ctx context.Context, retrier *Retrier, client *nfs3.Client, handle nfs3.FileHandle3) error {
	var zeroVerf [nfs3.CookieVerfSize]byte
	_, err := Readdirplus(ctx, retrier, client, handle, RefreshDirectoryCookie, zeroVerf, 0, 0)
	if se, ok := err.(*StatusError); ok && se.Status == nfs3.NFS3ErrTooSmall {
		return nil
	}
	return err
}

// CommitAndWaitResult reports the terminal outcome of CommitAndWait.
type CommitAndWaitResult struct {
	Status nfs3.Nfsstat3
	TimedOut bool
}

// CommitAndWait issues an async flush and then polls CheckCommitStatus
// every 250ms until it reports clean (NFS3OK), reports NFS3ErrNotEmpty (a
// terminal failure per §4.11, not something more polling will resolve), or
// perFileTimeout elapses. A zero perFileTimeout means poll forever, bounded
// only by ctx; per the spec's documented open question about the source's
// uninitialized-deadline bug, this implementation treats timeout==0 as "no
// deadline" explicitly rather than leaving it undefined.
func CommitAndWait(ctx context.Context, retrier *Retrier, client *nfs3.Client, handle nfs3.FileHandle3, perFileTimeout time.Duration) (*CommitAndWaitResult, error) {
	if _, err := AsyncFlush(ctx, retrier, client, handle); err != nil {
		if se, ok := err.(*StatusError); !ok || se.Status != nfs3.NFS3ErrNotSync {
			return nil, err
		}
	}

	var deadline <-chan time.Time
	if perFileTimeout > 0 {
		timer := time.NewTimer(perFileTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(commitPollInterval)
	defer ticker.Stop()

	lastStatus := nfs3.NFS3ErrNotSync
	for {
		res, err := CheckCommitStatus(ctx, retrier, client, handle)
		if err == nil {
			return &CommitAndWaitResult{Status: res.Status}, nil
		}
		se, ok := err.(*StatusError)
		if !ok {
			return nil, err
		}
		switch se.Status {
		case nfs3.NFS3ErrNotSync:
			lastStatus = se.Status // still in progress, keep polling
		case nfs3.NFS3ErrNotEmpty:
			return &CommitAndWaitResult{Status: se.Status}, err
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return &CommitAndWaitResult{Status: lastStatus, TimedOut: true}, nil
		case <-ticker.C:
		}
	}
}
