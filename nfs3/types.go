package nfs3

import (
	"fmt"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// FileHandle3 is the opaque nfs_fh3 (RFC 1813 §2.5). Clients never interpret
// the bytes; they round-trip whatever the server handed back from LOOKUP or
// MNT.
type FileHandle3 struct {
	Data []byte
}

func (h FileHandle3) MarshalXDR(w io.Writer) error {
	if len(h.Data) > FHSize3 {
		return fmt.Errorf("nfs3: file handle too large: %d > %d", len(h.Data), FHSize3)
	}
	return xdr.WriteOpaque(w, h.Data)
}

func (h *FileHandle3) UnmarshalXDR(r io.Reader) error {
	data, err := xdr.ReadOpaque(r, FHSize3)
	if err != nil {
		return err
	}
	h.Data = data
	return nil
}

// NFSTime3 is a seconds/nanoseconds timestamp (RFC 1813 §2.5).
type NFSTime3 struct {
	Seconds, Nseconds uint32
}

func (t NFSTime3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteUint32(w, t.Seconds); err != nil {
		return err
	}
	return xdr.WriteUint32(w, t.Nseconds)
}

func (t *NFSTime3) UnmarshalXDR(r io.Reader) error {
	sec, err := xdr.ReadUint32(r)
	if err != nil {
		return err
	}
	nsec, err := xdr.ReadUint32(r)
	if err != nil {
		return err
	}
	t.Seconds, t.Nseconds = sec, nsec
	return nil
}

// Specdata3 carries a device's major/minor numbers for NF3CHR/NF3BLK nodes.
type Specdata3 struct {
	Major, Minor uint32
}

func (s Specdata3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteUint32(w, s.Major); err != nil {
		return err
	}
	return xdr.WriteUint32(w, s.Minor)
}

func (s *Specdata3) UnmarshalXDR(r io.Reader) error {
	major, err := xdr.ReadUint32(r)
	if err != nil {
		return err
	}
	minor, err := xdr.ReadUint32(r)
	if err != nil {
		return err
	}
	s.Major, s.Minor = major, minor
	return nil
}

// Fattr3 is the full file attribute structure returned by GETATTR and
// embedded in post_op_attr (RFC 1813 §2.5).
type Fattr3 struct {
	Type             FType3
	Mode             uint32
	Nlink            uint32
	UID, GID         uint32
	Size, Used       uint64
	Rdev             Specdata3
	FSID             uint64
	FileID           uint64
	Atime, Mtime, Ctime NFSTime3
}

func (a Fattr3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteInt32(w, int32(a.Type)); err != nil {
		return err
	}
	for _, v := range []uint32{a.Mode, a.Nlink, a.UID, a.GID} {
		if err := xdr.WriteUint32(w, v); err != nil {
			return err
		}
	}
	for _, v := range []uint64{a.Size, a.Used} {
		if err := xdr.WriteUint64(w, v); err != nil {
			return err
		}
	}
	if err := a.Rdev.MarshalXDR(w); err != nil {
		return err
	}
	for _, v := range []uint64{a.FSID, a.FileID} {
		if err := xdr.WriteUint64(w, v); err != nil {
			return err
		}
	}
	for _, t := range []NFSTime3{a.Atime, a.Mtime, a.Ctime} {
		if err := t.MarshalXDR(w); err != nil {
			return err
		}
	}
	return nil
}

func (a *Fattr3) UnmarshalXDR(r io.Reader) error {
	ftype, err := xdr.ReadInt32(r)
	if err != nil {
		return err
	}
	a.Type = FType3(ftype)

	u32s := make([]uint32, 4)
	for i := range u32s {
		if u32s[i], err = xdr.ReadUint32(r); err != nil {
			return err
		}
	}
	a.Mode, a.Nlink, a.UID, a.GID = u32s[0], u32s[1], u32s[2], u32s[3]

	if a.Size, err = xdr.ReadUint64(r); err != nil {
		return err
	}
	if a.Used, err = xdr.ReadUint64(r); err != nil {
		return err
	}
	if err := a.Rdev.UnmarshalXDR(r); err != nil {
		return err
	}
	if a.FSID, err = xdr.ReadUint64(r); err != nil {
		return err
	}
	if a.FileID, err = xdr.ReadUint64(r); err != nil {
		return err
	}
	for _, t := range []*NFSTime3{&a.Atime, &a.Mtime, &a.Ctime} {
		if err := t.UnmarshalXDR(r); err != nil {
			return err
		}
	}
	return nil
}

// PostOpAttr3 is post_op_attr: attributes that may or may not be present,
// depending on whether the server bothered to compute them for this reply
// (RFC 1813 §2.6).
type PostOpAttr3 struct {
	Present bool
	Attr    Fattr3
}

func (p PostOpAttr3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteBool(w, p.Present); err != nil {
		return err
	}
	if !p.Present {
		return nil
	}
	return p.Attr.MarshalXDR(w)
}

func (p *PostOpAttr3) UnmarshalXDR(r io.Reader) error {
	present, err := xdr.ReadBool(r)
	if err != nil {
		return err
	}
	p.Present = present
	if !present {
		p.Attr = Fattr3{}
		return nil
	}
	return p.Attr.UnmarshalXDR(r)
}

// WccAttr3 is the cut-down pre-operation attribute set used in wcc_data
// (RFC 1813 §2.6): just enough to detect whether another client raced in
// between the client's READ of the old state and the operation's reply.
type WccAttr3 struct {
	Size        uint64
	Mtime, Ctime NFSTime3
}

func (a WccAttr3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteUint64(w, a.Size); err != nil {
		return err
	}
	if err := a.Mtime.MarshalXDR(w); err != nil {
		return err
	}
	return a.Ctime.MarshalXDR(w)
}

func (a *WccAttr3) UnmarshalXDR(r io.Reader) error {
	size, err := xdr.ReadUint64(r)
	if err != nil {
		return err
	}
	a.Size = size
	if err := a.Mtime.UnmarshalXDR(r); err != nil {
		return err
	}
	return a.Ctime.UnmarshalXDR(r)
}

// PreOpAttr3 is pre_op_attr: the optional "before" half of wcc_data.
type PreOpAttr3 struct {
	Present bool
	Attr    WccAttr3
}

func (p PreOpAttr3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteBool(w, p.Present); err != nil {
		return err
	}
	if !p.Present {
		return nil
	}
	return p.Attr.MarshalXDR(w)
}

func (p *PreOpAttr3) UnmarshalXDR(r io.Reader) error {
	present, err := xdr.ReadBool(r)
	if err != nil {
		return err
	}
	p.Present = present
	if !present {
		p.Attr = WccAttr3{}
		return nil
	}
	return p.Attr.UnmarshalXDR(r)
}

// WccData3 bundles the optional before/after attribute snapshots that ride
// along with every mutating NFS3 reply (RFC 1813 §2.6), giving the caller a
// cheap way to tell whether its cached attributes are still good.
type WccData3 struct {
	Before PreOpAttr3
	After  PostOpAttr3
}

func (w WccData3) MarshalXDR(out io.Writer) error {
	if err := w.Before.MarshalXDR(out); err != nil {
		return err
	}
	return w.After.MarshalXDR(out)
}

func (w *WccData3) UnmarshalXDR(r io.Reader) error {
	if err := w.Before.UnmarshalXDR(r); err != nil {
		return err
	}
	return w.After.UnmarshalXDR(r)
}

// PostOpFH3 is post_op_fh3: an optional file handle, returned by CREATE-like
// procedures when the new object could be located.
type PostOpFH3 struct {
	Present bool
	Handle  FileHandle3
}

func (p PostOpFH3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteBool(w, p.Present); err != nil {
		return err
	}
	if !p.Present {
		return nil
	}
	return p.Handle.MarshalXDR(w)
}

func (p *PostOpFH3) UnmarshalXDR(r io.Reader) error {
	present, err := xdr.ReadBool(r)
	if err != nil {
		return err
	}
	p.Present = present
	if !present {
		p.Handle = FileHandle3{}
		return nil
	}
	return p.Handle.UnmarshalXDR(r)
}

// readFattr is a small helper shared by the proc files to pull a bare
// fattr3 off a reply.
func readFattr(r io.Reader) (Fattr3, error) {
	var a Fattr3
	err := a.UnmarshalXDR(r)
	return a, err
}
