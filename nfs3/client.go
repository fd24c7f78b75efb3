package nfs3

import (
	"context"
	"time"

	"github.com/microsoft/hpc-cache-nfsv3-client/rpc"
)

// NFSv3 procedure numbers (RFC 1813 §3.3).
const (
	ProcNull        uint32 = 0
	ProcGetAttr     uint32 = 1
	ProcSetAttr     uint32 = 2
	ProcLookup      uint32 = 3
	ProcAccess      uint32 = 4
	ProcReadlink    uint32 = 5
	ProcRead        uint32 = 6
	ProcWrite       uint32 = 7
	ProcCreate      uint32 = 8
	ProcMkdir       uint32 = 9
	ProcSymlink     uint32 = 10
	ProcMknod       uint32 = 11
	ProcRemove      uint32 = 12
	ProcRmdir       uint32 = 13
	ProcRename      uint32 = 14
	ProcLink        uint32 = 15
	ProcReaddir     uint32 = 16
	ProcReaddirplus uint32 = 17
	ProcFsstat      uint32 = 18
	ProcFsinfo      uint32 = 19
	ProcPathconf    uint32 = 20
	ProcCommit      uint32 = 21
)

// defaultCallTimeout is the per-attempt socket timeout for procedures that
// do not use a longer one. A context deadline does not shorten it: the
// context bounds only the dial. Procedures that are typically slow (READ,
// WRITE, COMMIT) use ioCallTimeout instead.
const defaultCallTimeout = 30 * time.Second

// Client is a thin, direct binding of rpc.Client to the NFSv3 procedure set.
// It performs no retry beyond what rpc.Client itself does (a single
// transport-level retry budget); JUKEBOX handling and latency tracking live
// one layer up, in the nfsclient package, which wraps a Client.
type Client struct {
	transport *rpc.Client
}

// Dial resolves the NFS program's dynamic port via the portmapper on host
// and connects. Pass opts to control reserved-port binding, credentials, and
// dial timeout; a nil credential builder defaults to AUTH_UNIX with the
// process's real identity.
func Dial(ctx context.Context, host string, opts ...rpc.Option) (*Client, error) {
	addr, err := rpc.ResolveAddress(ctx, host, rpc.NFSProgram, rpc.NFSVersion)
	if err != nil {
		return nil, err
	}
	return NewClient(addr, opts...)
}

// NewClient builds a Client against an already-resolved "host:port" address,
// skipping the portmapper round trip. Useful when the NFS port is already
// known (e.g. carried over from a prior MNT call against the same host).
//
// The default credential is AUTH_UNIX with the process's real identity; pass
// rpc.WithCredentialBuilder explicitly in opts to override it, since
// rpc.Client applies options in order and a caller-supplied option always
// runs after this default.
func NewClient(address string, opts ...rpc.Option) (*Client, error) {
	builder, err := rpc.NewUnixAuthBuilder()
	if err != nil {
		return nil, err
	}
	all := append([]rpc.Option{rpc.WithCredentialBuilder(builder)}, opts...)
	return &Client{transport: rpc.NewClient(rpc.NFSProgram, rpc.NFSVersion, address, all...)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.transport.Close() }

func (c *Client) call(ctx context.Context, proc uint32, args rpc.Marshaler, res rpc.Unmarshaler, timeout time.Duration) (rpc.Result, error) {
	return c.transport.Call(ctx, proc, args, res, rpc.CallOptions{TimeoutRel: timeout})
}

// CallXID issues one procedure call with an explicit XID, bypassing
// rpc.Client's own internal retry (a supplied XID forces it to a single
// attempt). It is exported for the nfsclient package's JUKEBOX retry
// wrapper, which owns the outer retry loop and needs to choose when a new
// XID is warranted versus when the same one should be reused; ordinary
// callers should use the per-procedure methods instead.
func (c *Client) CallXID(ctx context.Context, proc uint32, args rpc.Marshaler, res rpc.Unmarshaler, timeout time.Duration, xid uint32) (rpc.Result, error) {
	return c.transport.Call(ctx, proc, args, res, rpc.CallOptions{TimeoutRel: timeout, XID: xid})
}
