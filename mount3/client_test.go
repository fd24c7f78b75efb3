package mount3

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/frame"
	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
	"github.com/microsoft/hpc-cache-nfsv3-client/rpc"
)

func fakeMountd(t *testing.T, handle func(call []byte) []byte) string {
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
			reply := handle(call)
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

func readXID(t *testing.T, call []byte) uint32 {
	t.Helper()
	xid, err := xdr.ReadUint32(bytes.NewReader(call))
	require.NoError(t, err)
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

func TestMntSuccess(t *testing.T) {
	addr := fakeMountd(t, func(call []byte) []byte {
		xid := readXID(t, call)
		var body bytes.Buffer
		xdr.WriteInt32(&body, int32(MNT3OK))
		xdr.WriteOpaque(&body, []byte{1, 2, 3, 4})
		xdr.WriteUint32(&body, 1)
		xdr.WriteInt32(&body, 1) // AUTH_UNIX
		return acceptedReply(xid, body.Bytes())
	})

	c, err := NewClient(addr)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Mnt(context.Background(), "/export/data")
	require.NoError(t, err)
	assert.Equal(t, MNT3OK, res.Status)
	assert.Equal(t, []byte{1, 2, 3, 4}, res.Handle.Data)
	assert.Equal(t, []AuthFlavor{1}, res.AuthFlavors)
}

func TestMntFailureHasNoHandle(t *testing.T) {
	addr := fakeMountd(t, func(call []byte) []byte {
		xid := readXID(t, call)
		var body bytes.Buffer
		xdr.WriteInt32(&body, int32(MNT3ErrAccess))
		return acceptedReply(xid, body.Bytes())
	})

	c, err := NewClient(addr)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Mnt(context.Background(), "/forbidden")
	require.NoError(t, err)
	assert.Equal(t, MNT3ErrAccess, res.Status)
	assert.True(t, res.Status.IsError())
	assert.Nil(t, res.Handle.Data)
}

func TestDumpDecodesMountList(t *testing.T) {
	addr := fakeMountd(t, func(call []byte) []byte {
		xid := readXID(t, call)
		var body bytes.Buffer
		xdr.WriteBool(&body, true)
		xdr.WriteString(&body, "client-a")
		xdr.WriteString(&body, "/export/data")
		xdr.WriteBool(&body, false)
		return acceptedReply(xid, body.Bytes())
	})

	c, err := NewClient(addr)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Dump(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "client-a", res.Entries[0].Hostname)
	assert.Equal(t, "/export/data", res.Entries[0].Directory)
}

func TestUmntSendsCorrectDirectory(t *testing.T) {
	var gotDir string
	addr := fakeMountd(t, func(call []byte) []byte {
		r := bytes.NewReader(call)
		xid, _ := xdr.ReadUint32(r)
		// skip mtype, rpcvers, program, version, proc, cred flavor+len, verf flavor+len
		for i := 0; i < 9; i++ {
			xdr.ReadInt32(r)
		}
		gotDir, _ = xdr.ReadString(r, xdr.MaxOpaque)
		return acceptedReply(xid, nil)
	})

	c, err := NewClient(addr, rpc.WithCredentialBuilder(rpc.NewNullCredentialBuilder()))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, c.Umnt(context.Background(), "/export/data"))
	assert.Equal(t, "/export/data", gotDir)
}
