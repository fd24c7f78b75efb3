package nfs3

import (
	"context"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// RemoveArgs is REMOVE3args.
type RemoveArgs struct {
	Object Diropargs3
}

func (a RemoveArgs) MarshalXDR(w io.Writer) error { return a.Object.MarshalXDR(w) }

// RemoveResult is REMOVE3res.
type RemoveResult struct {
	Status Nfsstat3
	DirWcc WccData3
}

func (r *RemoveResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	return r.DirWcc.UnmarshalXDR(rd)
}

// Remove deletes the non-directory entry name from dir (RFC 1813 §3.3.12).
func (c *Client) Remove(ctx context.Context, dir FileHandle3, name string) (*RemoveResult, error) {
	var res RemoveResult
	_, err := c.call(ctx, ProcRemove, RemoveArgs{Object: Diropargs3{Dir: dir, Name: name}}, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RmdirArgs is RMDIR3args.
type RmdirArgs struct {
	Object Diropargs3
}

func (a RmdirArgs) MarshalXDR(w io.Writer) error { return a.Object.MarshalXDR(w) }

// RmdirResult is RMDIR3res.
type RmdirResult struct {
	Status Nfsstat3
	DirWcc WccData3
}

func (r *RmdirResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	return r.DirWcc.UnmarshalXDR(rd)
}

// Rmdir deletes the empty directory entry name from dir (RFC 1813 §3.3.13).
// A non-empty directory fails with NFS3ErrNotEmpty.
func (c *Client) Rmdir(ctx context.Context, dir FileHandle3, name string) (*RmdirResult, error) {
	var res RmdirResult
	_, err := c.call(ctx, ProcRmdir, RmdirArgs{Object: Diropargs3{Dir: dir, Name: name}}, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RenameArgs is RENAME3args.
type RenameArgs struct {
	From Diropargs3
	To   Diropargs3
}

func (a RenameArgs) MarshalXDR(w io.Writer) error {
	if err := a.From.MarshalXDR(w); err != nil {
		return err
	}
	return a.To.MarshalXDR(w)
}

// RenameResult is RENAME3res: wcc_data for both the source and target
// directories, since both may have changed (even on a single-directory
// rename the link counts/mtimes move).
type RenameResult struct {
	Status   Nfsstat3
	FromWcc  WccData3
	ToWcc    WccData3
}

func (r *RenameResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if err := r.FromWcc.UnmarshalXDR(rd); err != nil {
		return err
	}
	return r.ToWcc.UnmarshalXDR(rd)
}

// Rename moves fromName in fromDir to toName in toDir (RFC 1813 §3.3.14).
// fromDir and toDir may be the same handle.
func (c *Client) Rename(ctx context.Context, fromDir FileHandle3, fromName string, toDir FileHandle3, toName string) (*RenameResult, error) {
	var res RenameResult
	args := RenameArgs{
		From: Diropargs3{Dir: fromDir, Name: fromName},
		To:   Diropargs3{Dir: toDir, Name: toName},
	}
	_, err := c.call(ctx, ProcRename, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// LinkArgs is LINK3args.
type LinkArgs struct {
	Handle FileHandle3
	Link   Diropargs3
}

func (a LinkArgs) MarshalXDR(w io.Writer) error {
	if err := a.Handle.MarshalXDR(w); err != nil {
		return err
	}
	return a.Link.MarshalXDR(w)
}

// LinkResult is LINK3res.
type LinkResult struct {
	Status  Nfsstat3
	Attr    PostOpAttr3 // the target object's attributes
	DirWcc  WccData3    // the directory the new link was added to
}

func (r *LinkResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if err := r.Attr.UnmarshalXDR(rd); err != nil {
		return err
	}
	return r.DirWcc.UnmarshalXDR(rd)
}

// Link creates a new hard link named name in dir, pointing at the object
// named by handle (RFC 1813 §3.3.15).
func (c *Client) Link(ctx context.Context, handle FileHandle3, dir FileHandle3, name string) (*LinkResult, error) {
	var res LinkResult
	args := LinkArgs{Handle: handle, Link: Diropargs3{Dir: dir, Name: name}}
	_, err := c.call(ctx, ProcLink, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
