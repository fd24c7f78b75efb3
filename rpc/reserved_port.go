//go:build linux || darwin

package rpc

import (
	"errors"
	"net"

	"golang.org/x/sys/unix"
)

// isAddrInUse reports whether err indicates the local port we tried to bind
// was already taken, as opposed to a harder failure (e.g. EACCES for a
// non-root process trying a privileged port, which no lower port number
// will fix either).
func isAddrInUse(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		err = opErr.Err
	}
	var sysErr *net.SyscallError
	if errors.As(err, &sysErr) {
		err = sysErr.Err
	}
	return errors.Is(err, unix.EADDRINUSE)
}
