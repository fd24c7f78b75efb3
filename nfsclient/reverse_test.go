package nfsclient

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/frame"
	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
	"github.com/microsoft/hpc-cache-nfsv3-client/mount3"
	"github.com/microsoft/hpc-cache-nfsv3-client/nfs3"
)

// fakeRPCServer accepts a single connection and answers each record with
// whatever handle returns, keyed by the call's own proc number so one
// connection can serve a sequence of different procedures (EXPORT then MNT,
// or LOOKUP then READDIRPLUS) the way a real mountd/nfsd would.
func fakeRPCServer(t *testing.T, handle func(proc uint32, call []byte) []byte) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			call, err := frame.ReadRecord(conn)
			if err != nil {
				return
			}
			reply := handle(readProc(call), call)
			if reply == nil {
				continue
			}
			if err := frame.WriteRecord(conn, reply); err != nil {
				return
			}
		}
	}()
	return ln.Addr().String()
}

func readProc(call []byte) uint32 {
	r := bytes.NewReader(call)
	xdr.ReadUint32(r) // xid
	xdr.ReadInt32(r)  // mtype
	xdr.ReadUint32(r) // rpcvers
	xdr.ReadUint32(r) // program
	xdr.ReadUint32(r) // version
	proc, _ := xdr.ReadUint32(r)
	return proc
}

func readXID(call []byte) uint32 {
	xid, _ := xdr.ReadUint32(bytes.NewReader(call))
	return xid
}

func acceptedReply(xid uint32, body []byte) []byte {
	var buf bytes.Buffer
	xdr.WriteUint32(&buf, xid)
	xdr.WriteInt32(&buf, 1) // MsgReply
	xdr.WriteInt32(&buf, 0) // MsgAccepted
	xdr.WriteInt32(&buf, 0) // AUTH_NULL verifier flavor
	xdr.WriteOpaque(&buf, nil)
	xdr.WriteInt32(&buf, 0) // Success
	buf.Write(body)
	return buf.Bytes()
}

func exportReply(xid uint32, directory string) []byte {
	var body bytes.Buffer
	xdr.WriteBool(&body, true)
	xdr.WriteString(&body, directory)
	xdr.WriteBool(&body, false) // no groups
	xdr.WriteBool(&body, false) // end of export list
	return acceptedReply(xid, body.Bytes())
}

func mntReply(xid uint32, handle []byte) []byte {
	var body bytes.Buffer
	xdr.WriteInt32(&body, int32(mount3.MNT3OK))
	xdr.WriteOpaque(&body, handle)
	xdr.WriteUint32(&body, 0) // no auth flavors
	return acceptedReply(xid, body.Bytes())
}

func lookupParentReply(xid uint32, parent []byte) []byte {
	var body bytes.Buffer
	xdr.WriteInt32(&body, int32(nfs3.NFS3OK))
	xdr.WriteOpaque(&body, parent)
	xdr.WriteBool(&body, false) // object attr absent
	xdr.WriteBool(&body, false) // dir attr absent
	return acceptedReply(xid, body.Bytes())
}

// readdirplusOneEntryReply replies with a single entry named name whose
// handle is entryHandle, and eof true.
func readdirplusOneEntryReply(xid uint32, name string, entryHandle []byte) []byte {
	var body bytes.Buffer
	xdr.WriteInt32(&body, int32(nfs3.NFS3OK))
	xdr.WriteBool(&body, false) // dir attr absent
	xdr.WriteFixedOpaque(&body, make([]byte, nfs3.CookieVerfSize))
	xdr.WriteBool(&body, true) // one entry follows
	xdr.WriteUint64(&body, 1)  // fileid
	xdr.WriteString(&body, name)
	xdr.WriteUint64(&body, 1) // cookie
	xdr.WriteBool(&body, false) // entry attr absent
	xdr.WriteBool(&body, true)  // entry handle present
	xdr.WriteOpaque(&body, entryHandle)
	xdr.WriteBool(&body, false) // no more entries
	xdr.WriteBool(&body, true)  // eof
	return acceptedReply(xid, body.Bytes())
}

func TestResolveHandleToPathReachesExportRoot(t *testing.T) {
	rootFH := []byte{1, 1, 1, 1}
	targetFH := []byte{2, 2, 2, 2}

	mountAddr := fakeRPCServer(t, func(proc uint32, call []byte) []byte {
		xid := readXID(call)
		switch proc {
		case mount3.ProcExport:
			return exportReply(xid, "/export/data")
		case mount3.ProcMnt:
			return mntReply(xid, rootFH)
		default:
			t.Fatalf("unexpected mount proc %d", proc)
			return nil
		}
	})
	nfsAddr := fakeRPCServer(t, func(proc uint32, call []byte) []byte {
		xid := readXID(call)
		switch proc {
		case nfs3.ProcLookup:
			return lookupParentReply(xid, rootFH)
		case nfs3.ProcReaddirplus:
			return readdirplusOneEntryReply(xid, "child", targetFH)
		default:
			t.Fatalf("unexpected nfs proc %d", proc)
			return nil
		}
	})

	mountClient, err := mount3.NewClient(mountAddr)
	require.NoError(t, err)
	defer mountClient.Close()
	nfsClient, err := nfs3.NewClient(nfsAddr)
	require.NoError(t, err)
	defer nfsClient.Close()
	retrier := NewRetrier(WithMaxTries(2), WithJukeboxPause(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path, ok, err := ResolveHandleToPath(ctx, mountClient, retrier, nfsClient, nfs3.FileHandle3{Data: targetFH})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/export/data/child", path)
}

func TestResolveHandleToPathDetectsLoop(t *testing.T) {
	rootFH := []byte{9, 9, 9, 9}
	targetFH := []byte{3, 3, 3, 3}

	mountAddr := fakeRPCServer(t, func(proc uint32, call []byte) []byte {
		xid := readXID(call)
		switch proc {
		case mount3.ProcExport:
			return exportReply(xid, "/export/data")
		case mount3.ProcMnt:
			return mntReply(xid, rootFH)
		default:
			t.Fatalf("unexpected mount proc %d", proc)
			return nil
		}
	})
	// LOOKUP(fh, "..") always answers with targetFH itself: the walk
	// immediately revisits a handle already in its seen set.
	nfsAddr := fakeRPCServer(t, func(proc uint32, call []byte) []byte {
		xid := readXID(call)
		switch proc {
		case nfs3.ProcLookup:
			return lookupParentReply(xid, targetFH)
		default:
			t.Fatalf("unexpected nfs proc %d", proc)
			return nil
		}
	})

	mountClient, err := mount3.NewClient(mountAddr)
	require.NoError(t, err)
	defer mountClient.Close()
	nfsClient, err := nfs3.NewClient(nfsAddr)
	require.NoError(t, err)
	defer nfsClient.Close()
	retrier := NewRetrier(WithMaxTries(2), WithJukeboxPause(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, ok, err := ResolveHandleToPath(ctx, mountClient, retrier, nfsClient, nfs3.FileHandle3{Data: targetFH})
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "loop detected")
}

func TestResolveHandleToPathStopsWhenEntryNotFound(t *testing.T) {
	rootFH := []byte{4, 4, 4, 4}
	parentFH := []byte{5, 5, 5, 5}
	targetFH := []byte{6, 6, 6, 6}

	mountAddr := fakeRPCServer(t, func(proc uint32, call []byte) []byte {
		xid := readXID(call)
		switch proc {
		case mount3.ProcExport:
			return exportReply(xid, "/export/data")
		case mount3.ProcMnt:
			return mntReply(xid, rootFH)
		default:
			t.Fatalf("unexpected mount proc %d", proc)
			return nil
		}
	})
	nfsAddr := fakeRPCServer(t, func(proc uint32, call []byte) []byte {
		xid := readXID(call)
		switch proc {
		case nfs3.ProcLookup:
			return lookupParentReply(xid, parentFH)
		case nfs3.ProcReaddirplus:
			// The parent's listing contains no entry matching targetFH.
			return readdirplusOneEntryReply(xid, "unrelated", []byte{0, 0, 0, 0})
		default:
			t.Fatalf("unexpected nfs proc %d", proc)
			return nil
		}
	})

	mountClient, err := mount3.NewClient(mountAddr)
	require.NoError(t, err)
	defer mountClient.Close()
	nfsClient, err := nfs3.NewClient(nfsAddr)
	require.NoError(t, err)
	defer nfsClient.Close()
	retrier := NewRetrier(WithMaxTries(2), WithJukeboxPause(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	path, ok, err := ResolveHandleToPath(ctx, mountClient, retrier, nfsClient, nfs3.FileHandle3{Data: targetFH})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
}
