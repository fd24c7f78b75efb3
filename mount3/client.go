package mount3

import (
	"context"
	"time"

	"github.com/microsoft/hpc-cache-nfsv3-client/rpc"
)

const callTimeout = 30 * time.Second

// Client binds rpc.Client to the six MOUNT3 procedures. It has the same
// lifecycle expectations as nfs3.Client: short-lived relative to the NFS3
// client it hands a root handle to, since nothing about MOUNT3 needs to
// stay connected once MNT has returned.
type Client struct {
	transport *rpc.Client
}

// Dial resolves the MOUNT program's dynamic port via the portmapper on host
// and connects.
func Dial(ctx context.Context, host string, opts ...rpc.Option) (*Client, error) {
	addr, err := rpc.ResolveAddress(ctx, host, rpc.MountProgram, rpc.MountVersion)
	if err != nil {
		return nil, err
	}
	return NewClient(addr, opts...)
}

// NewClient builds a Client against an already-resolved "host:port" address.
func NewClient(address string, opts ...rpc.Option) (*Client, error) {
	builder, err := rpc.NewUnixAuthBuilder()
	if err != nil {
		return nil, err
	}
	all := append([]rpc.Option{rpc.WithCredentialBuilder(builder)}, opts...)
	return &Client{transport: rpc.NewClient(rpc.MountProgram, rpc.MountVersion, address, all...)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.transport.Close() }

func (c *Client) call(ctx context.Context, proc uint32, args rpc.Marshaler, res rpc.Unmarshaler) (rpc.Result, error) {
	return c.transport.Call(ctx, proc, args, res, rpc.CallOptions{TimeoutRel: callTimeout})
}

// Null pings the mount daemon (RFC 1813 Appendix I).
func (c *Client) Null(ctx context.Context) error {
	_, err := c.call(ctx, ProcNull, rpc.NoArgs{}, &rpc.NoResult{})
	return err
}

// Mnt requests the root file handle for directory, registering the calling
// host in the server's mount table as a side effect.
func (c *Client) Mnt(ctx context.Context, directory string) (*MntResult, error) {
	var res MntResult
	_, err := c.call(ctx, ProcMnt, MntArgs{Directory: directory}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Dump lists every directory any client currently has mounted, per the
// server's mount table.
func (c *Client) Dump(ctx context.Context) (*DumpResult, error) {
	var res DumpResult
	_, err := c.call(ctx, ProcDump, DumpArgs{}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Umnt removes directory from the server's mount table for the calling
// host.
func (c *Client) Umnt(ctx context.Context, directory string) error {
	_, err := c.call(ctx, ProcUmnt, UmntArgs{Directory: directory}, &rpc.NoResult{})
	return err
}

// UmntAll removes every directory the calling host has mounted from the
// server's mount table.
func (c *Client) UmntAll(ctx context.Context) error {
	_, err := c.call(ctx, ProcUmntAll, UmntAllArgs{}, &rpc.NoResult{})
	return err
}

// Export lists every directory the server is configured to export and the
// client groups permitted to mount each.
func (c *Client) Export(ctx context.Context) (*ExportResult, error) {
	var res ExportResult
	_, err := c.call(ctx, ProcExport, ExportArgs{}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
