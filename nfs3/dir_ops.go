package nfs3

import (
	"context"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// Entry3 is one entry3 node in a READDIR reply's linked list (RFC 1813
// §3.3.16).
type Entry3 struct {
	FileID uint64
	Name   string
	Cookie uint64
}

// ReaddirArgs is READDIR3args.
type ReaddirArgs struct {
	Dir        FileHandle3
	Cookie     uint64
	CookieVerf [CookieVerfSize]byte
	Count      uint32
}

func (a ReaddirArgs) MarshalXDR(w io.Writer) error {
	if err := a.Dir.MarshalXDR(w); err != nil {
		return err
	}
	if err := xdr.WriteUint64(w, a.Cookie); err != nil {
		return err
	}
	if err := xdr.WriteFixedOpaque(w, a.CookieVerf[:]); err != nil {
		return err
	}
	return xdr.WriteUint32(w, a.Count)
}

// ReaddirResult is READDIR3res.
type ReaddirResult struct {
	Status     Nfsstat3
	DirAttr    PostOpAttr3
	CookieVerf [CookieVerfSize]byte
	Entries    []Entry3
	Eof        bool
}

func (r *ReaddirResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if err := r.DirAttr.UnmarshalXDR(rd); err != nil {
		return err
	}
	if r.Status != NFS3OK {
		return nil
	}
	verf, err := xdr.ReadFixedOpaque(rd, CookieVerfSize)
	if err != nil {
		return err
	}
	copy(r.CookieVerf[:], verf)

	if err := xdr.ReadList(rd, func() error {
		var e Entry3
		if e.FileID, err = xdr.ReadUint64(rd); err != nil {
			return err
		}
		if e.Name, err = xdr.ReadString(rd, xdr.MaxOpaque); err != nil {
			return err
		}
		if e.Cookie, err = xdr.ReadUint64(rd); err != nil {
			return err
		}
		r.Entries = append(r.Entries, e)
		return nil
	}); err != nil {
		return err
	}
	r.Eof, err = xdr.ReadBool(rd)
	return err
}

// Readdir lists up to count bytes worth of directory entries starting after
// cookie (RFC 1813 §3.3.16). Pass a zero cookie and zero cookieverf to start
// from the beginning; on subsequent calls pass back the cookieverf the
// server returned so it can detect a directory that changed mid-listing.
func (c *Client) Readdir(ctx context.Context, dir FileHandle3, cookie uint64, cookieVerf [CookieVerfSize]byte, count uint32) (*ReaddirResult, error) {
	var res ReaddirResult
	args := ReaddirArgs{Dir: dir, Cookie: cookie, CookieVerf: cookieVerf, Count: count}
	_, err := c.call(ctx, ProcReaddir, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// EntryPlus3 is one entryplus3 node in a READDIRPLUS reply's linked list
// (RFC 1813 §3.3.17): a directory entry enriched with its attributes and
// (when the server bothers to resolve it) file handle.
type EntryPlus3 struct {
	FileID uint64
	Name   string
	Cookie uint64
	Attr   PostOpAttr3
	Handle PostOpFH3
}

// ReaddirplusArgs is READDIRPLUS3args.
type ReaddirplusArgs struct {
	Dir        FileHandle3
	Cookie     uint64
	CookieVerf [CookieVerfSize]byte
	DirCount   uint32
	MaxCount   uint32
}

func (a ReaddirplusArgs) MarshalXDR(w io.Writer) error {
	if err := a.Dir.MarshalXDR(w); err != nil {
		return err
	}
	if err := xdr.WriteUint64(w, a.Cookie); err != nil {
		return err
	}
	if err := xdr.WriteFixedOpaque(w, a.CookieVerf[:]); err != nil {
		return err
	}
	if err := xdr.WriteUint32(w, a.DirCount); err != nil {
		return err
	}
	return xdr.WriteUint32(w, a.MaxCount)
}

// ReaddirplusResult is READDIRPLUS3res.
type ReaddirplusResult struct {
	Status     Nfsstat3
	DirAttr    PostOpAttr3
	CookieVerf [CookieVerfSize]byte
	Entries    []EntryPlus3
	Eof        bool
}

func (r *ReaddirplusResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Nfsstat3(status)
	if err := r.DirAttr.UnmarshalXDR(rd); err != nil {
		return err
	}
	if r.Status != NFS3OK {
		return nil
	}
	verf, err := xdr.ReadFixedOpaque(rd, CookieVerfSize)
	if err != nil {
		return err
	}
	copy(r.CookieVerf[:], verf)

	if err := xdr.ReadList(rd, func() error {
		var e EntryPlus3
		if e.FileID, err = xdr.ReadUint64(rd); err != nil {
			return err
		}
		if e.Name, err = xdr.ReadString(rd, xdr.MaxOpaque); err != nil {
			return err
		}
		if e.Cookie, err = xdr.ReadUint64(rd); err != nil {
			return err
		}
		if err := e.Attr.UnmarshalXDR(rd); err != nil {
			return err
		}
		if err := e.Handle.UnmarshalXDR(rd); err != nil {
			return err
		}
		r.Entries = append(r.Entries, e)
		return nil
	}); err != nil {
		return err
	}
	r.Eof, err = xdr.ReadBool(rd)
	return err
}

// Readdirplus is Readdir enriched with per-entry attributes and handles
// (RFC 1813 §3.3.17), saving a LOOKUP per entry at the cost of a heavier
// reply; dircount bounds the name-only portion and maxcount bounds the
// whole reply.
func (c *Client) Readdirplus(ctx context.Context, dir FileHandle3, cookie uint64, cookieVerf [CookieVerfSize]byte, dirCount, maxCount uint32) (*ReaddirplusResult, error) {
	var res ReaddirplusResult
	args := ReaddirplusArgs{Dir: dir, Cookie: cookie, CookieVerf: cookieVerf, DirCount: dirCount, MaxCount: maxCount}
	_, err := c.call(ctx, ProcReaddirplus, args, &res, defaultCallTimeout)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
