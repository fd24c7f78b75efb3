//go:build !linux && !darwin

package rpc

import (
	"errors"
	"net"
	"syscall"
)

func isAddrInUse(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		err = opErr.Err
	}
	var sysErr *net.SyscallError
	if errors.As(err, &sysErr) {
		err = sysErr.Err
	}
	return errors.Is(err, syscall.EADDRINUSE)
}
