package nfs3

import (
	"context"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// diropResult is the common reply shape for every "create a directory
// entry" procedure: an optional new handle, the new object's attributes if
// known, and the containing directory's wcc_data.
type diropResult struct {
	Status  Nfsstat3
	Handle  PostOpFH3
	Attr    PostOpAttr3
	DirWcc  WccData3
}

func (r *diropResult) unmarshalXDR(rd io.Reader) error {
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
	return r.DirWcc.UnmarshalXDR(rd)
}

// CreateArgs is CREATE3args.
type CreateArgs struct {
	Where Diropargs3
	How   Createhow3
}

func (a CreateArgs) MarshalXDR(w io.Writer) error {
	if err := a.Where.MarshalXDR(w); err != nil {
		return err
	}
	return a.How.MarshalXDR(w)
}

// CreateResult is CREATE3res.
type CreateResult struct{ diropResult }

func (r *CreateResult) UnmarshalXDR(rd io.Reader) error { return r.diropResult.unmarshalXDR(rd) }

// Create makes a regular file named name in dir (RFC 1813 §3.3.8). how's
// Mode selects UNCHECKED/GUARDED/EXCLUSIVE semantics.
func (c *Client) Create(ctx context.Context, dir FileHandle3, name string, how Createhow3) (*CreateResult, error) {
	var res CreateResult
	args := CreateArgs{Where: Diropargs3{Dir: dir, Name: name}, How: how}
	_, err := c.call(ctx, ProcCreate, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MkdirArgs is MKDIR3args.
type MkdirArgs struct {
	Where Diropargs3
	Attr  Sattr3
}

func (a MkdirArgs) MarshalXDR(w io.Writer) error {
	if err := a.Where.MarshalXDR(w); err != nil {
		return err
	}
	return a.Attr.MarshalXDR(w)
}

// MkdirResult is MKDIR3res.
type MkdirResult struct{ diropResult }

func (r *MkdirResult) UnmarshalXDR(rd io.Reader) error { return r.diropResult.unmarshalXDR(rd) }

// Mkdir creates a directory named name in dir (RFC 1813 §3.3.9).
func (c *Client) Mkdir(ctx context.Context, dir FileHandle3, name string, attr Sattr3) (*MkdirResult, error) {
	var res MkdirResult
	args := MkdirArgs{Where: Diropargs3{Dir: dir, Name: name}, Attr: attr}
	_, err := c.call(ctx, ProcMkdir, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SymlinkData3 is symlinkdata3: attributes plus the link's target path.
type SymlinkData3 struct {
	Attr   Sattr3
	Target string
}

func (s SymlinkData3) MarshalXDR(w io.Writer) error {
	if err := s.Attr.MarshalXDR(w); err != nil {
		return err
	}
	return xdr.WriteString(w, s.Target)
}

// SymlinkArgs is SYMLINK3args.
type SymlinkArgs struct {
	Where Diropargs3
	Data  SymlinkData3
}

func (a SymlinkArgs) MarshalXDR(w io.Writer) error {
	if err := a.Where.MarshalXDR(w); err != nil {
		return err
	}
	return a.Data.MarshalXDR(w)
}

// SymlinkResult is SYMLINK3res.
type SymlinkResult struct{ diropResult }

func (r *SymlinkResult) UnmarshalXDR(rd io.Reader) error { return r.diropResult.unmarshalXDR(rd) }

// Symlink creates a symbolic link named name in dir pointing at target (RFC
// 1813 §3.3.10).
func (c *Client) Symlink(ctx context.Context, dir FileHandle3, name, target string, attr Sattr3) (*SymlinkResult, error) {
	var res SymlinkResult
	args := SymlinkArgs{
		Where: Diropargs3{Dir: dir, Name: name},
		Data:  SymlinkData3{Attr: attr, Target: target},
	}
	_, err := c.call(ctx, ProcSymlink, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// MknodArgs is MKNOD3args.
type MknodArgs struct {
	Where Diropargs3
	What  Mknoddata3
}

func (a MknodArgs) MarshalXDR(w io.Writer) error {
	if err := a.Where.MarshalXDR(w); err != nil {
		return err
	}
	return a.What.MarshalXDR(w)
}

// MknodResult is MKNOD3res.
type MknodResult struct{ diropResult }

func (r *MknodResult) UnmarshalXDR(rd io.Reader) error { return r.diropResult.unmarshalXDR(rd) }

// Mknod creates a special file (device node, socket, or FIFO) named name in
// dir (RFC 1813 §3.3.11).
func (c *Client) Mknod(ctx context.Context, dir FileHandle3, name string, what Mknoddata3) (*MknodResult, error) {
	var res MknodResult
	args := MknodArgs{Where: Diropargs3{Dir: dir, Name: name}, What: what}
	_, err := c.call(ctx, ProcMknod, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
