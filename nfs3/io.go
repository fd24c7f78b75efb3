package nfs3

import (
	"context"
	"io"
	"time"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// ioCallTimeout is longer than defaultCallTimeout: READ/WRITE move real data
// and a slow disk on the server side is not the same failure as a dead
// connection.
const ioCallTimeout = 60 * time.Second

// ReadArgs is READ3args.
type ReadArgs struct {
	Handle FileHandle3
	Offset uint64
	Count  uint32
}

func (a ReadArgs) MarshalXDR(w io.Writer) error {
	if err := a.Handle.MarshalXDR(w); err != nil {
		return err
	}
	if err := xdr.WriteUint64(w, a.Offset); err != nil {
		return err
	}
	return xdr.WriteUint32(w, a.Count)
}

// ReadResult is READ3res.
type ReadResult struct {
	Status Nfsstat3
	Attr   PostOpAttr3
	Count  uint32
	Eof    bool
	Data   []byte
}

func (r *ReadResult) UnmarshalXDR(rd io.Reader) error {
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
	if r.Count, err = xdr.ReadUint32(rd); err != nil {
		return err
	}
	if r.Eof, err = xdr.ReadBool(rd); err != nil {
		return err
	}
	r.Data, err = xdr.ReadOpaque(rd, xdr.MaxOpaque)
	return err
}

// Read fetches up to count bytes starting at offset from the file named by
// handle (RFC 1813 §3.3.6). The server may return fewer bytes than
// requested even when Eof is false; callers that need a fixed-size read
// loop until Count reaches the target or Eof is set.
func (c *Client) Read(ctx context.Context, handle FileHandle3, offset uint64, count uint32) (*ReadResult, error) {
	var res ReadResult
	args := ReadArgs{Handle: handle, Offset: offset, Count: count}
	_, err := c.call(ctx, ProcRead, args, &res, ioCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// WriteArgs is WRITE3args.
type WriteArgs struct {
	Handle FileHandle3
	Offset uint64
	Count  uint32
	Stable StableHow
	Data   []byte
}

func (a WriteArgs) MarshalXDR(w io.Writer) error {
	if err := a.Handle.MarshalXDR(w); err != nil {
		return err
	}
	if err := xdr.WriteUint64(w, a.Offset); err != nil {
		return err
	}
	if err := xdr.WriteUint32(w, a.Count); err != nil {
		return err
	}
	if err := xdr.WriteInt32(w, int32(a.Stable)); err != nil {
		return err
	}
	return xdr.WriteOpaque(w, a.Data)
}

// WriteResult is WRITE3res.
type WriteResult struct {
	Status   Nfsstat3
	Wcc      WccData3
	Count    uint32
	Committed StableHow
	Verifier [WriteVerfSize]byte
}

func (r *WriteResult) UnmarshalXDR(rd io.Reader) error {
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
	if r.Count, err = xdr.ReadUint32(rd); err != nil {
		return err
	}
	committed, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Committed = StableHow(committed)
	verifier, err := xdr.ReadFixedOpaque(rd, WriteVerfSize)
	if err != nil {
		return err
	}
	copy(r.Verifier[:], verifier)
	return nil
}

// Write stores data at offset in the file named by handle, with the
// requested durability level (RFC 1813 §3.3.7). The returned Verifier
// changes across server reboots; a client doing UNSTABLE writes followed by
// COMMIT should confirm the verifier it saw during WRITE still matches the
// one COMMIT returns before trusting the data survived.
func (c *Client) Write(ctx context.Context, handle FileHandle3, offset uint64, data []byte, stable StableHow) (*WriteResult, error) {
	var res WriteResult
	args := WriteArgs{Handle: handle, Offset: offset, Count: uint32(len(data)), Stable: stable, Data: data}
	_, err := c.call(ctx, ProcWrite, args, &res, ioCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
