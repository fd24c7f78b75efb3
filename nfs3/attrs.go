package nfs3

import (
	"context"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// GetAttrArgs is GETATTR3args: just the handle to query.
type GetAttrArgs struct {
	Handle FileHandle3
}

func (a GetAttrArgs) MarshalXDR(w io.Writer) error { return a.Handle.MarshalXDR(w) }

// GetAttrResult is GETATTR3res.
type GetAttrResult struct {
	Status Nfsstat3
	Attr   Fattr3 // valid only when Status == NFS3OK
}

func (r *GetAttrResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if r.Status != NFS3OK {
		return nil
	}
	r.Attr, err = readFattr(rd)
	return err
}

// GetAttr fetches the current attributes of the object named by handle
// (RFC 1813 §3.3.1).
func (c *Client) GetAttr(ctx context.Context, handle FileHandle3) (*GetAttrResult, error) {
	var res GetAttrResult
	_, err := c.call(ctx, ProcGetAttr, GetAttrArgs{Handle: handle}, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// SetAttrArgs is SETATTR3args: new attributes plus an optional ctime guard
// to make the update conditional on the object being unchanged since the
// client last observed it.
type SetAttrArgs struct {
	Handle FileHandle3
	Attr   Sattr3
	Guard  Sattrguard3
}

func (a SetAttrArgs) MarshalXDR(w io.Writer) error {
	if err := a.Handle.MarshalXDR(w); err != nil {
		return err
	}
	if err := a.Attr.MarshalXDR(w); err != nil {
		return err
	}
	return a.Guard.MarshalXDR(w)
}

// SetAttrResult is SETATTR3res: status plus the before/after wcc_data
// regardless of whether the call succeeded (a failed SETATTR can still
// report the object's attributes changed underneath it).
type SetAttrResult struct {
	Status Nfsstat3
	Wcc    WccData3
}

func (r *SetAttrResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	return r.Wcc.UnmarshalXDR(rd)
}

// SetAttr updates the attributes of the object named by handle (RFC 1813
// §3.3.2). Pass a zero-value Sattrguard3 to skip the ctime guard.
func (c *Client) SetAttr(ctx context.Context, handle FileHandle3, attr Sattr3, guard Sattrguard3) (*SetAttrResult, error) {
	var res SetAttrResult
	args := SetAttrArgs{Handle: handle, Attr: attr, Guard: guard}
	_, err := c.call(ctx, ProcSetAttr, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
