package rpc

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// PortmapPort is the well-known TCP port the portmapper listens on (RFC
// 1833).
const PortmapPort = 111

const procGetPort uint32 = 3

// PortmapClient is a transient client for the portmapper (RFC 1057 Appendix
// A / RFC 1833), used only to resolve a program's dynamic port before the
// real MOUNT3/NFS3 connection is made. Per §3's lifecycle, callers open one
// of these, ask GetPort once, and let it go.
type PortmapClient struct {
	transport *Client
}

// NewPortmapClient connects to the portmapper on host at the fixed port 111.
func NewPortmapClient(host string) *PortmapClient {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", PortmapPort))
	return &PortmapClient{transport: NewClient(PortmapProgram, PortmapVersion, addr)}
}

// Close releases the transient connection.
func (p *PortmapClient) Close() error { return p.transport.Close() }

type getPortArgs struct {
	Program, Version, Protocol, Port uint32
}

func (a getPortArgs) MarshalXDR(w io.Writer) error {
	for _, v := range []uint32{a.Program, a.Version, a.Protocol, a.Port} {
		if err := xdr.WriteUint32(w, v); err != nil {
			return err
		}
	}
	return nil
}

type getPortResult struct {
	Port uint32
}

func (r *getPortResult) UnmarshalXDR(rd io.Reader) error {
	v, err := xdr.ReadUint32(rd)
	if err != nil {
		return err
	}
	r.Port = v
	return nil
}

// GetPort looks up the dynamic TCP port registered for (program, version).
// A zero return means the program is not currently registered.
func (p *PortmapClient) GetPort(ctx context.Context, program, version uint32) (uint32, error) {
	args := getPortArgs{Program: program, Version: version, Protocol: IPProtoTCP}
	var res getPortResult
	_, err := p.transport.Call(ctx, procGetPort, args, &res, CallOptions{TimeoutRel: 10 * time.Second, Tries: 2})
	if err != nil {
		return 0, err
	}
	return res.Port, nil
}

// ResolveAddress implements the §3 construction-time bootstrap for every
// non-portmapper client: open a transient portmapper client against host,
// ask for (program, version)'s TCP port, and return the resolved
// "host:port" to dial. Returns an error if the program is unregistered.
func ResolveAddress(ctx context.Context, host string, program, version uint32) (string, error) {
	pm := NewPortmapClient(host)
	defer pm.Close()

	port, err := pm.GetPort(ctx, program, version)
	if err != nil {
		return "", fmt.Errorf("rpc: resolve port for program %d version %d: %w", program, version, err)
	}
	if port == 0 {
		return "", fmt.Errorf("rpc: program %d version %d is not registered on %s", program, version, host)
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", port)), nil
}
