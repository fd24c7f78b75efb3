package nfs3

import (
	"context"

	"github.com/microsoft/hpc-cache-nfsv3-client/rpc"
)

// Null pings the server with an argument-less, result-less call (RFC 1813
// §3.3.0). Useful as a liveness probe that costs the server nothing to
// answer.
func (c *Client) Null(ctx context.Context) error {
	_, err := c.call(ctx, ProcNull, rpc.NoArgs{}, &rpc.NoResult{}, defaultCallTimeout)
	return err
}
