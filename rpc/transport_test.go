package rpc

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/frame"
	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// fakeServer accepts exactly one connection and hands each received record
// to handle, which returns the reply bytes to send back (or nil to drop the
// call, simulating a server that never replies).
func fakeServer(t *testing.T, handle func(call []byte) []byte) string {
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

func readCallHeader(t *testing.T, call []byte) (xid uint32) {
	t.Helper()
	r := bytes.NewReader(call)
	xid, err := xdr.ReadUint32(r)
	require.NoError(t, err)
	return xid
}

func acceptedSuccessReply(xid uint32, body []byte) []byte {
	var buf bytes.Buffer
	xdr.WriteUint32(&buf, xid)
	xdr.WriteInt32(&buf, int32(MsgReply))
	xdr.WriteInt32(&buf, int32(MsgAccepted))
	xdr.WriteInt32(&buf, int32(AuthFlavorNull)) // verifier flavor
	xdr.WriteOpaque(&buf, nil)                  // verifier body
	xdr.WriteInt32(&buf, int32(Success))
	buf.Write(body)
	return buf.Bytes()
}

func deniedMismatchReply(xid uint32) []byte {
	var buf bytes.Buffer
	xdr.WriteUint32(&buf, xid)
	xdr.WriteInt32(&buf, int32(MsgReply))
	xdr.WriteInt32(&buf, int32(MsgDenied))
	xdr.WriteInt32(&buf, int32(RPCMismatch))
	xdr.WriteInt32(&buf, 2) // low
	xdr.WriteInt32(&buf, 2) // high
	return buf.Bytes()
}

func TestCallSuccessRoundTrip(t *testing.T) {
	addr := fakeServer(t, func(call []byte) []byte {
		xid := readCallHeader(t, call)
		var body bytes.Buffer
		xdr.WriteUint32(&body, 0xabcdef01)
		return acceptedSuccessReply(xid, body.Bytes())
	})

	c := NewClient(1, 1, addr)
	defer c.Close()

	var res uint32Result
	result, err := c.Call(context.Background(), 0, NoArgs{}, &res, CallOptions{TimeoutRel: time.Second})
	require.NoError(t, err)
	assert.Equal(t, uint32(0xabcdef01), res.v)
	assert.Equal(t, 1, result.Attempts)
}

type uint32Result struct{ v uint32 }

func (r *uint32Result) UnmarshalXDR(rd io.Reader) error {
	v, err := xdr.ReadUint32(rd)
	if err != nil {
		return err
	}
	r.v = v
	return nil
}

func TestCallRPCMismatch(t *testing.T) {
	addr := fakeServer(t, func(call []byte) []byte {
		xid := readCallHeader(t, call)
		return deniedMismatchReply(xid)
	})

	c := NewClient(1, 1, addr)
	defer c.Close()

	var res uint32Result
	_, err := c.Call(context.Background(), 0, NoArgs{}, &res, CallOptions{TimeoutRel: time.Second})
	require.Error(t, err)
	rpcErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, "RPC_MISMATCH", rpcErr.Status)
}

func TestCallTimeoutExhaustsTries(t *testing.T) {
	addr := fakeServer(t, func(call []byte) []byte { return nil }) // never replies

	c := NewClient(1, 1, addr)
	defer c.Close()

	var res uint32Result
	start := time.Now()
	_, err := c.Call(context.Background(), 0, NoArgs{}, &res, CallOptions{TimeoutRel: 100 * time.Millisecond, Tries: 3})
	elapsed := time.Since(start)

	require.Error(t, err)
	rpcErr, ok := err.(*Error)
	require.True(t, ok)
	assert.True(t, rpcErr.IsTimeout())
	assert.Equal(t, 3, rpcErr.Attempts)
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
}

func TestXIDsAreMonotonic(t *testing.T) {
	a := NextXID()
	b := NextXID()
	c := NextXID()
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestSuppliedXIDForcesSingleAttempt(t *testing.T) {
	addr := fakeServer(t, func(call []byte) []byte { return nil })
	c := NewClient(1, 1, addr)
	defer c.Close()

	var res uint32Result
	result, err := c.Call(context.Background(), 0, NoArgs{}, &res, CallOptions{TimeoutRel: 50 * time.Millisecond, Tries: 5, XID: 777})
	require.Error(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, uint32(777), result.XID)
}
