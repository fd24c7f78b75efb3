package nfs3

import (
	"context"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// FsstatArgs is FSSTAT3args.
type FsstatArgs struct {
	Root FileHandle3
}

func (a FsstatArgs) MarshalXDR(w io.Writer) error { return a.Root.MarshalXDR(w) }

// FsstatResult is FSSTAT3res: dynamic filesystem usage (RFC 1813 §3.3.18),
// analogous to statvfs(2).
type FsstatResult struct {
	Status     Nfsstat3
	Attr       PostOpAttr3
	TBytes     uint64 // total size, bytes
	FBytes     uint64 // free space, bytes
	ABytes     uint64 // free space available to the caller, bytes
	TFiles     uint64 // total file slots
	FFiles     uint64 // free file slots
	AFiles     uint64 // file slots available to the caller
	Invarsec   uint32 // seconds for which the above is guaranteed stable
}

func (r *FsstatResult) UnmarshalXDR(rd io.Reader) error {
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
	vals := make([]uint64, 6)
	for i := range vals {
		if vals[i], err = xdr.ReadUint64(rd); err != nil {
			return err
		}
	}
	r.TBytes, r.FBytes, r.ABytes, r.TFiles, r.FFiles, r.AFiles = vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	r.Invarsec, err = xdr.ReadUint32(rd)
	return err
}

// Fsstat retrieves dynamic filesystem usage information rooted at handle
// (RFC 1813 §3.3.18).
func (c *Client) Fsstat(ctx context.Context, handle FileHandle3) (*FsstatResult, error) {
	var res FsstatResult
	_, err := c.call(ctx, ProcFsstat, FsstatArgs{Root: handle}, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// FsinfoArgs is FSINFO3args.
type FsinfoArgs struct {
	Root FileHandle3
}

func (a FsinfoArgs) MarshalXDR(w io.Writer) error { return a.Root.MarshalXDR(w) }

// FsinfoResult is FSINFO3res: static filesystem capabilities (RFC 1813
// §3.3.19), queried once and cached by a well-behaved client.
type FsinfoResult struct {
	Status      Nfsstat3
	Attr        PostOpAttr3
	RtMax       uint32
	RtPref      uint32
	RtMult      uint32
	WtMax       uint32
	WtPref      uint32
	WtMult      uint32
	DtPref      uint32
	MaxFileSize uint64
	TimeDelta   NFSTime3
	Properties  uint32 // FSFxxx bit constants
}

func (r *FsinfoResult) UnmarshalXDR(rd io.Reader) error {
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
	u32s := make([]uint32, 7)
	for i := range u32s {
		if u32s[i], err = xdr.ReadUint32(rd); err != nil {
			return err
		}
	}
	r.RtMax, r.RtPref, r.RtMult, r.WtMax, r.WtPref, r.WtMult, r.DtPref =
		u32s[0], u32s[1], u32s[2], u32s[3], u32s[4], u32s[5], u32s[6]
	if r.MaxFileSize, err = xdr.ReadUint64(rd); err != nil {
		return err
	}
	if err := r.TimeDelta.UnmarshalXDR(rd); err != nil {
		return err
	}
	r.Properties, err = xdr.ReadUint32(rd)
	return err
}

// Fsinfo retrieves static, rarely-changing filesystem capabilities rooted
// at handle (RFC 1813 §3.3.19): transfer size preferences, maximum file
// size, and the FSFxxx properties bitmask.
func (c *Client) Fsinfo(ctx context.Context, handle FileHandle3) (*FsinfoResult, error) {
	var res FsinfoResult
	_, err := c.call(ctx, ProcFsinfo, FsinfoArgs{Root: handle}, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// PathconfArgs is PATHCONF3args.
type PathconfArgs struct {
	Handle FileHandle3
}

func (a PathconfArgs) MarshalXDR(w io.Writer) error { return a.Handle.MarshalXDR(w) }

// PathconfResult is PATHCONF3res: POSIX pathconf(3)-equivalent limits (RFC
// 1813 §3.3.20).
type PathconfResult struct {
	Status        Nfsstat3
	Attr          PostOpAttr3
	LinkMax       uint32
	NameMax       uint32
	NoTrunc       bool
	ChownRestricted bool
	CaseInsensitive bool
	CasePreserving  bool
}

func (r *PathconfResult) UnmarshalXDR(rd io.Reader) error {
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
	if r.LinkMax, err = xdr.ReadUint32(rd); err != nil {
		return err
	}
	if r.NameMax, err = xdr.ReadUint32(rd); err != nil {
		return err
	}
	if r.NoTrunc, err = xdr.ReadBool(rd); err != nil {
		return err
	}
	if r.ChownRestricted, err = xdr.ReadBool(rd); err != nil {
		return err
	}
	if r.CaseInsensitive, err = xdr.ReadBool(rd); err != nil {
		return err
	}
	r.CasePreserving, err = xdr.ReadBool(rd)
	return err
}

// Pathconf retrieves POSIX pathname limits for the filesystem containing
// handle (RFC 1813 §3.3.20).
func (c *Client) Pathconf(ctx context.Context, handle FileHandle3) (*PathconfResult, error) {
	var res PathconfResult
	_, err := c.call(ctx, ProcPathconf, PathconfArgs{Handle: handle}, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CommitArgs is COMMIT3args.
type CommitArgs struct {
	Handle FileHandle3
	Offset uint64
	Count  uint32
}

func (a CommitArgs) MarshalXDR(w io.Writer) error {
	if err := a.Handle.MarshalXDR(w); err != nil {
		return err
	}
	if err := xdr.WriteUint64(w, a.Offset); err != nil {
		return err
	}
	return xdr.WriteUint32(w, a.Count)
}

// CommitResult is COMMIT3res.
type CommitResult struct {
	Status   Nfsstat3
	Wcc      WccData3
	Verifier [WriteVerfSize]byte
}

func (r *CommitResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if err := r.Wcc.UnmarshalXDR(rd); err != nil {
		return err
	}
	if r.Status != NFS3OK {
		return nil
	}
	verf, err := xdr.ReadFixedOpaque(rd, WriteVerfSize)
	if err != nil {
		return err
	}
	copy(r.Verifier[:], verf)
	return nil
}

// Commit asks the server to flush previously UNSTABLE-written data in
// [offset, offset+count) to stable storage (RFC 1813 §3.3.21). A zero count
// means "to the end of the file". Compare the returned Verifier against the
// one seen during WRITE: a mismatch means the server rebooted and the
// unstable data must be rewritten, not merely re-committed.
func (c *Client) Commit(ctx context.Context, handle FileHandle3, offset uint64, count uint32) (*CommitResult, error) {
	var res CommitResult
	args := CommitArgs{Handle: handle, Offset: offset, Count: count}
	_, err := c.call(ctx, ProcCommit, args, &res, ioCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
