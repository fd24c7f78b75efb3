package nfs3

import (
	"context"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// Diropargs3 names an entry within a directory, the argument shape shared by
// LOOKUP, REMOVE, RMDIR, and as half of CREATE/MKDIR/SYMLINK/MKNOD/RENAME/
// LINK (RFC 1813 §2.5).
type Diropargs3 struct {
	Dir  FileHandle3
	Name string
}

func (a Diropargs3) MarshalXDR(w io.Writer) error {
	if err := a.Dir.MarshalXDR(w); err != nil {
		return err
	}
	return xdr.WriteString(w, a.Name)
}

// LookupArgs is LOOKUP3args.
type LookupArgs struct {
	What Diropargs3
}

func (a LookupArgs) MarshalXDR(w io.Writer) error { return a.What.MarshalXDR(w) }

// LookupResult is LOOKUP3res.
type LookupResult struct {
	Status    Nfsstat3
	Handle    FileHandle3 // valid only on success
	Attr      PostOpAttr3 // the looked-up object's attributes, success only
	DirAttr   PostOpAttr3 // the containing directory's attributes, always present
}

func (r *LookupResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if r.Status == NFS3OK {
		if err := r.Handle.UnmarshalXDR(rd); err != nil {
			return err
		}
		if err := r.Attr.UnmarshalXDR(rd); err != nil {
			return err
		}
	}
	return r.DirAttr.UnmarshalXDR(rd)
}

// Lookup resolves name within dir to a file handle (RFC 1813 §3.3.3).
func (c *Client) Lookup(ctx context.Context, dir FileHandle3, name string) (*LookupResult, error) {
	var res LookupResult
	args := LookupArgs{What: Diropargs3{Dir: dir, Name: name}}
	_, err := c.call(ctx, ProcLookup, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// AccessArgs is ACCESS3args: handle plus the bitmask of rights to probe.
type AccessArgs struct {
	Handle FileHandle3
	Access uint32
}

func (a AccessArgs) MarshalXDR(w io.Writer) error {
	if err := a.Handle.MarshalXDR(w); err != nil {
		return err
	}
	return xdr.WriteUint32(w, a.Access)
}

// AccessResult is ACCESS3res.
type AccessResult struct {
	Status Nfsstat3
	Attr   PostOpAttr3
	Access uint32 // subset of the requested mask actually granted
}

func (r *AccessResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if err := r.Attr.UnmarshalXDR(rd); err != nil {
		return err
	}
	if r.Status != NFS3OK {
		return nil
	}
	r.Access, err = xdr.ReadUint32(rd)
	return err
}

// Access asks the server which of the requested rights (the AccessXxx bit
// constants) the caller's credential actually has on handle (RFC 1813
// §3.3.4). The server, not the client, is authoritative.
func (c *Client) Access(ctx context.Context, handle FileHandle3, mask uint32) (*AccessResult, error) {
	var res AccessResult
	args := AccessArgs{Handle: handle, Access: mask}
	_, err := c.call(ctx, ProcAccess, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ReadlinkArgs is READLINK3args.
type ReadlinkArgs struct {
	Handle FileHandle3
}

func (a ReadlinkArgs) MarshalXDR(w io.Writer) error { return a.Handle.MarshalXDR(w) }

// ReadlinkResult is READLINK3res.
type ReadlinkResult struct {
	Status Nfsstat3
	Attr   PostOpAttr3
	Target string
}

func (r *ReadlinkResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if err := r.Attr.UnmarshalXDR(rd); err != nil {
		return err
	}
	if r.Status != NFS3OK {
		return nil
	}
	r.Target, err = xdr.ReadString(rd, xdr.MaxOpaque)
	return err
}

// Readlink reads the target of the symbolic link named by handle (RFC 1813
// §3.3.5).
func (c *Client) Readlink(ctx context.Context, handle FileHandle3) (*ReadlinkResult, error) {
	var res ReadlinkResult
	_, err := c.call(ctx, ProcReadlink, ReadlinkArgs{Handle: handle}, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
