package rpc

import (
	"bytes"
	"fmt"
	"io"
	"os/user"
	"strconv"
	"time"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// MaxGIDs is the maximum number of supplementary group IDs an AUTH_UNIX
// credential can carry (RFC 1057 §9.2).
const MaxGIDs = 16

// Credential is an opaque_auth value: a flavor plus an opaque body. Both the
// call credential and the call verifier use this shape.
type Credential struct {
	Flavor AuthFlavor
	Body   []byte
}

// Encode writes the credential as (flavor:int32, body-opaque), per RFC 1057
// §9.
func (c Credential) Encode(w io.Writer) error {
	if err := xdr.WriteInt32(w, int32(c.Flavor)); err != nil {
		return err
	}
	return xdr.WriteOpaque(w, c.Body)
}

// NullCredential is the AUTH_NULL credential/verifier: flavor 0, empty body.
// Used as the verifier on every call this client makes, and as the
// credential for calls that need no identity (e.g. portmapper GETPORT).
func NullCredential() Credential {
	return Credential{Flavor: AuthFlavorNull}
}

// UnixAuth is the AUTH_UNIX credential body (RFC 1057 §9.2): a timestamp,
// the caller's machine name, its uid/gid, and up to MaxGIDs supplementary
// group IDs.
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// Encode serializes the AUTH_UNIX body: (stamp, machinename, uid, gid,
// gids[<=16]).
func (a UnixAuth) Encode(w io.Writer) error {
	if len(a.GIDs) > MaxGIDs {
		return fmt.Errorf("rpc: AUTH_UNIX carries %d gids, max is %d", len(a.GIDs), MaxGIDs)
	}
	if err := xdr.WriteUint32(w, a.Stamp); err != nil {
		return err
	}
	if err := xdr.WriteString(w, a.MachineName); err != nil {
		return err
	}
	if err := xdr.WriteUint32(w, a.UID); err != nil {
		return err
	}
	if err := xdr.WriteUint32(w, a.GID); err != nil {
		return err
	}
	if err := xdr.WriteUint32(w, uint32(len(a.GIDs))); err != nil {
		return err
	}
	for _, g := range a.GIDs {
		if err := xdr.WriteUint32(w, g); err != nil {
			return err
		}
	}
	return nil
}

// ParseUnixAuth decodes an AUTH_UNIX credential body, primarily for tests
// that need to assert on what this client sent over the wire.
func ParseUnixAuth(body []byte) (*UnixAuth, error) {
	r := bytes.NewReader(body)
	stamp, err := xdr.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	name, err := xdr.ReadString(r, 255)
	if err != nil {
		return nil, err
	}
	uid, err := xdr.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	gid, err := xdr.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	n, err := xdr.ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxGIDs {
		return nil, fmt.Errorf("rpc: AUTH_UNIX gids count %d exceeds maximum %d", n, MaxGIDs)
	}
	gids := make([]uint32, n)
	for i := range gids {
		gids[i], err = xdr.ReadUint32(r)
		if err != nil {
			return nil, err
		}
	}
	return &UnixAuth{Stamp: stamp, MachineName: name, UID: uid, GID: gid, GIDs: gids}, nil
}

// ToCredential encodes the AUTH_UNIX body into an opaque_auth Credential.
func (a UnixAuth) ToCredential() (Credential, error) {
	var buf bytes.Buffer
	if err := a.Encode(&buf); err != nil {
		return Credential{}, err
	}
	return Credential{Flavor: AuthFlavorUnix, Body: buf.Bytes()}, nil
}

// CredentialBuilder produces the call credential a client attaches to every
// RPC. MOUNT3 and NFS3 clients default to NewUnixAuthBuilder(); tests and
// portmapper-only callers typically use NewNullCredentialBuilder().
type CredentialBuilder interface {
	// Build returns a fresh credential. Builders that embed a timestamp
	// (AUTH_UNIX's Stamp) may return a new value each call; this client
	// instead caches the result per connection per §4.6 and clears it on
	// reconnect.
	Build() (Credential, error)
}

type nullCredentialBuilder struct{}

func (nullCredentialBuilder) Build() (Credential, error) { return NullCredential(), nil }

// NewNullCredentialBuilder returns a CredentialBuilder that always produces
// AUTH_NULL.
func NewNullCredentialBuilder() CredentialBuilder { return nullCredentialBuilder{} }

// UnixAuthBuilder builds AUTH_UNIX credentials from a fixed identity. Use
// NewUnixAuthBuilder for the real-uid case and NewEffectiveUnixAuthBuilder
// for the effective-uid variant mentioned in §4.6.
type UnixAuthBuilder struct {
	MachineName string
	UID, GID    uint32
	GIDs        []uint32
}

// NewUnixAuthBuilder constructs a builder using the process's real uid/gid
// and the host's FQDN, resolved the way reverse DNS would see this machine.
func NewUnixAuthBuilder() (*UnixAuthBuilder, error) {
	return newUnixAuthBuilder(realIDs)
}

// NewEffectiveUnixAuthBuilder is the "effective uid" variant of §4.6: it
// uses the process's effective uid/gid instead of its real ones.
func NewEffectiveUnixAuthBuilder() (*UnixAuthBuilder, error) {
	return newUnixAuthBuilder(effectiveIDs)
}

func newUnixAuthBuilder(ids func() (uid, gid uint32, gids []uint32, err error)) (*UnixAuthBuilder, error) {
	uid, gid, gids, err := ids()
	if err != nil {
		return nil, fmt.Errorf("rpc: resolve credentials: %w", err)
	}
	name, err := machineName()
	if err != nil {
		return nil, fmt.Errorf("rpc: resolve machine name: %w", err)
	}
	return &UnixAuthBuilder{MachineName: name, UID: uid, GID: gid, GIDs: gids}, nil
}

func (b *UnixAuthBuilder) Build() (Credential, error) {
	auth := UnixAuth{
		Stamp:       uint32(time.Now().Unix()),
		MachineName: b.MachineName,
		UID:         b.UID,
		GID:         b.GID,
		GIDs:        b.GIDs,
	}
	if len(auth.GIDs) > MaxGIDs {
		auth.GIDs = auth.GIDs[:MaxGIDs]
	}
	return auth.ToCredential()
}

func realIDs() (uid, gid uint32, gids []uint32, err error) {
	u, err := user.Current()
	if err != nil {
		return 0, 0, nil, err
	}
	uid64, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return 0, 0, nil, err
	}
	gid64, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return 0, 0, nil, err
	}
	groupIDs, err := u.GroupIds()
	if err != nil {
		return uint32(uid64), uint32(gid64), nil, nil
	}
	var out []uint32
	for _, g := range groupIDs {
		v, err := strconv.ParseUint(g, 10, 32)
		if err == nil {
			out = append(out, uint32(v))
		}
	}
	return uint32(uid64), uint32(gid64), out, nil
}
