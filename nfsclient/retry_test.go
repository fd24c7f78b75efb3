package nfsclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/hpc-cache-nfsv3-client/nfs3"
)

func TestRetrierSucceedsFirstTry(t *testing.T) {
	r := NewRetrier(WithMaxTries(5), WithJukeboxPause(time.Millisecond))
	calls := 0
	err := r.Do(context.Background(), "GETATTR", func(ctx context.Context, xid uint32) (nfs3.Nfsstat3, error) {
		calls++
		return nfs3.NFS3OK, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrierRetriesJukeboxWithFreshXID(t *testing.T) {
	r := NewRetrier(WithMaxTries(5), WithJukeboxPause(time.Millisecond))
	var seenXIDs []uint32
	calls := 0
	err := r.Do(context.Background(), "READ", func(ctx context.Context, xid uint32) (nfs3.Nfsstat3, error) {
		calls++
		seenXIDs = append(seenXIDs, xid)
		if calls < 3 {
			return nfs3.NFS3ErrJukebox, nil
		}
		return nfs3.NFS3OK, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, seenXIDs, 3)
	assert.NotEqual(t, seenXIDs[0], seenXIDs[1])
	assert.NotEqual(t, seenXIDs[1], seenXIDs[2])
}

func TestRetrierReusesXIDOnTransportError(t *testing.T) {
	r := NewRetrier(WithMaxTries(3), WithJukeboxPause(time.Millisecond))
	var seenXIDs []uint32
	calls := 0
	err := r.Do(context.Background(), "WRITE", func(ctx context.Context, xid uint32) (nfs3.Nfsstat3, error) {
		calls++
		seenXIDs = append(seenXIDs, xid)
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, seenXIDs[0], seenXIDs[1])
	assert.Equal(t, seenXIDs[1], seenXIDs[2])
}

func TestRetrierReturnsImmediatelyOnNonJukeboxStatus(t *testing.T) {
	r := NewRetrier(WithMaxTries(5), WithJukeboxPause(time.Millisecond))
	calls := 0
	err := r.Do(context.Background(), "LOOKUP", func(ctx context.Context, xid uint32) (nfs3.Nfsstat3, error) {
		calls++
		return nfs3.NFS3ErrNoEnt, nil
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	statusErr, ok := err.(*StatusError)
	require.True(t, ok)
	assert.Equal(t, nfs3.NFS3ErrNoEnt, statusErr.Status)
}

func TestRetrierExhaustsJukeboxRetries(t *testing.T) {
	r := NewRetrier(WithMaxTries(3), WithJukeboxPause(time.Millisecond))
	calls := 0
	err := r.Do(context.Background(), "CREATE", func(ctx context.Context, xid uint32) (nfs3.Nfsstat3, error) {
		calls++
		return nfs3.NFS3ErrJukebox, nil
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	var jukeboxErr *JukeboxExhaustedError
	require.True(t, errors.As(err, &jukeboxErr))
}

func TestTrackerRecordsAttemptsAndLogicalCalls(t *testing.T) {
	tracker := NewTracker(nil)
	r := NewRetrier(WithMaxTries(3), WithJukeboxPause(time.Millisecond), WithTracker(tracker))

	calls := 0
	err := r.Do(context.Background(), "GETATTR", func(ctx context.Context, xid uint32) (nfs3.Nfsstat3, error) {
		calls++
		if calls < 2 {
			return nfs3.NFS3ErrJukebox, nil
		}
		return nfs3.NFS3OK, nil
	})
	require.NoError(t, err)

	attemptStats, ok := tracker.AttemptStats("GETATTR")
	require.True(t, ok)
	assert.Equal(t, int64(2), attemptStats.Count)
	assert.Equal(t, int64(1), attemptStats.Successes)
	assert.Equal(t, int64(1), attemptStats.Errors)

	callStats, ok := tracker.CallStats("GETATTR")
	require.True(t, ok)
	assert.Equal(t, int64(1), callStats.Count)
	assert.Equal(t, int64(1), callStats.Successes)
}
