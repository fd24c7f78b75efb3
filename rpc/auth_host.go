package rpc

import (
	"net"
	"os"
	"os/user"
	"strconv"
)

// effectiveIDs returns the process's effective uid/gid and the real user's
// supplementary groups, for NewEffectiveUnixAuthBuilder. Supplementary
// groups follow the real identity: POSIX setuid semantics don't extend the
// group list, and RFC 1057 AUTH_UNIX has no separate "effective groups"
// concept to diverge into.
func effectiveIDs() (uid, gid uint32, gids []uint32, err error) {
	euid := os.Geteuid()
	egid := os.Getegid()

	u, uerr := user.Current()
	var groupIDs []string
	if uerr == nil {
		groupIDs, _ = u.GroupIds()
	}
	var out []uint32
	for _, g := range groupIDs {
		if v, perr := strconv.ParseUint(g, 10, 32); perr == nil {
			out = append(out, uint32(v))
		}
	}
	return uint32(euid), uint32(egid), out, nil
}

// machineName resolves the local host's FQDN so the server's reverse DNS
// check (if any) matches the name this client presents, per §4.6. Falls
// back to the unqualified hostname if reverse resolution is unavailable.
func machineName() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", err
	}
	addrs, err := net.LookupHost(host)
	if err != nil || len(addrs) == 0 {
		return host, nil
	}
	names, err := net.LookupAddr(addrs[0])
	if err != nil || len(names) == 0 {
		return host, nil
	}
	fqdn := names[0]
	for len(fqdn) > 0 && fqdn[len(fqdn)-1] == '.' {
		fqdn = fqdn[:len(fqdn)-1]
	}
	return fqdn, nil
}
