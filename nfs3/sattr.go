package nfs3

import (
	"fmt"
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// SetMode3/SetUID3/SetGID3/SetSize3 are the four scalar "set_xxx3" unions
// from RFC 1813 §2.6: each is independently present or absent. Present
// defaults false, which makes the zero value "leave this field alone" —
// the safe default for a struct literal built field-by-field.
type SetMode3 struct {
	Present bool
	Value   uint32
}

type SetUID3 struct {
	Present bool
	Value   uint32
}

type SetGID3 struct {
	Present bool
	Value   uint32
}

type SetSize3 struct {
	Present bool
	Value   uint64
}

// SetTime3 is set_atime/set_mtime: a three-way discriminator (don't change,
// set to server time, set to client-supplied time) rather than a plain
// optional.
type SetTime3 struct {
	How  TimeHow
	Time NFSTime3 // only meaningful when How == SetToClientTime
}

func writeOptionalU32(w io.Writer, present bool, v uint32) error {
	if err := xdr.WriteBool(w, present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return xdr.WriteUint32(w, v)
}

func writeOptionalU64(w io.Writer, present bool, v uint64) error {
	if err := xdr.WriteBool(w, present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	return xdr.WriteUint64(w, v)
}

func (t SetTime3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteInt32(w, int32(t.How)); err != nil {
		return err
	}
	if t.How != SetToClientTime {
		return nil
	}
	return t.Time.MarshalXDR(w)
}

func (t *SetTime3) UnmarshalXDR(r io.Reader) error {
	how, err := xdr.ReadInt32(r)
	if err != nil {
		return err
	}
	t.How = TimeHow(how)
	if t.How != SetToClientTime {
		t.Time = NFSTime3{}
		return nil
	}
	return t.Time.UnmarshalXDR(r)
}

// Sattr3 is the settable attribute bundle passed to SETATTR and embedded in
// CREATE/MKDIR/SYMLINK/MKNOD. Each of the six fields independently chooses
// whether to touch that attribute (RFC 1813 §2.6).
type Sattr3 struct {
	Mode       SetMode3
	UID        SetUID3
	GID        SetGID3
	Size       SetSize3
	Atime      SetTime3
	Mtime      SetTime3
}

func (s Sattr3) MarshalXDR(w io.Writer) error {
	if err := writeOptionalU32(w, s.Mode.Present, s.Mode.Value); err != nil {
		return err
	}
	if err := writeOptionalU32(w, s.UID.Present, s.UID.Value); err != nil {
		return err
	}
	if err := writeOptionalU32(w, s.GID.Present, s.GID.Value); err != nil {
		return err
	}
	if err := writeOptionalU64(w, s.Size.Present, s.Size.Value); err != nil {
		return err
	}
	if err := s.Atime.MarshalXDR(w); err != nil {
		return err
	}
	return s.Mtime.MarshalXDR(w)
}

func (s *Sattr3) UnmarshalXDR(r io.Reader) error {
	var err error
	if s.Mode.Present, err = xdr.ReadBool(r); err != nil {
		return err
	}
	if s.Mode.Present {
		if s.Mode.Value, err = xdr.ReadUint32(r); err != nil {
			return err
		}
	}
	if s.UID.Present, err = xdr.ReadBool(r); err != nil {
		return err
	}
	if s.UID.Present {
		if s.UID.Value, err = xdr.ReadUint32(r); err != nil {
			return err
		}
	}
	if s.GID.Present, err = xdr.ReadBool(r); err != nil {
		return err
	}
	if s.GID.Present {
		if s.GID.Value, err = xdr.ReadUint32(r); err != nil {
			return err
		}
	}
	if s.Size.Present, err = xdr.ReadBool(r); err != nil {
		return err
	}
	if s.Size.Present {
		if s.Size.Value, err = xdr.ReadUint64(r); err != nil {
			return err
		}
	}
	if err := s.Atime.UnmarshalXDR(r); err != nil {
		return err
	}
	return s.Mtime.UnmarshalXDR(r)
}

// Sattrguard3 is the optional ctime guard used by GUARDED SETATTR to reject
// a write that races another client's change.
type Sattrguard3 struct {
	Present bool
	Ctime   NFSTime3
}

func (g Sattrguard3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteBool(w, g.Present); err != nil {
		return err
	}
	if !g.Present {
		return nil
	}
	return g.Ctime.MarshalXDR(w)
}

func (g *Sattrguard3) UnmarshalXDR(r io.Reader) error {
	present, err := xdr.ReadBool(r)
	if err != nil {
		return err
	}
	g.Present = present
	if !present {
		g.Ctime = NFSTime3{}
		return nil
	}
	return g.Ctime.UnmarshalXDR(r)
}

// Createhow3 is CREATE's mode-discriminated argument (RFC 1813 §3.3.8):
// UNCHECKED/GUARDED carry a full sattr3, EXCLUSIVE instead carries an
// opaque 8-byte verifier the server must echo back so the client can tell
// "I created it" from "it already existed" across a retried call.
type Createhow3 struct {
	Mode     CreateMode3
	Obj      Sattr3           // Mode == Unchecked || Mode == Guarded
	Verifier [CreateVerfSize]byte // Mode == Exclusive
}

func (c Createhow3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteInt32(w, int32(c.Mode)); err != nil {
		return err
	}
	switch c.Mode {
	case Unchecked, Guarded:
		return c.Obj.MarshalXDR(w)
	case Exclusive:
		return xdr.WriteFixedOpaque(w, c.Verifier[:])
	default:
		return fmt.Errorf("nfs3: unknown createmode3 %d", c.Mode)
	}
}

func (c *Createhow3) UnmarshalXDR(r io.Reader) error {
	mode, err := xdr.ReadInt32(r)
	if err != nil {
		return err
	}
	c.Mode = CreateMode3(mode)
	switch c.Mode {
	case Unchecked, Guarded:
		return c.Obj.UnmarshalXDR(r)
	case Exclusive:
		data, err := xdr.ReadFixedOpaque(r, CreateVerfSize)
		if err != nil {
			return err
		}
		copy(c.Verifier[:], data)
		return nil
	default:
		return fmt.Errorf("nfs3: unknown createmode3 %d", c.Mode)
	}
}

// Devicedata3 is the arm of mknoddata3 used for NF3CHR/NF3BLK: attributes
// plus the major/minor device pair.
type Devicedata3 struct {
	Attr Sattr3
	Spec Specdata3
}

func (d Devicedata3) MarshalXDR(w io.Writer) error {
	if err := d.Attr.MarshalXDR(w); err != nil {
		return err
	}
	return d.Spec.MarshalXDR(w)
}

func (d *Devicedata3) UnmarshalXDR(r io.Reader) error {
	if err := d.Attr.UnmarshalXDR(r); err != nil {
		return err
	}
	return d.Spec.UnmarshalXDR(r)
}

// Mknoddata3 is MKNOD's ftype3-discriminated argument (RFC 1813 §3.3.11):
// NF3CHR/NF3BLK carry device data, NF3SOCK/NF3FIFO carry plain attributes.
// Any other type makes MarshalXDR and UnmarshalXDR return an error on the
// client side; the empty arm those types have on the wire is not encoded
// or decoded.
type Mknoddata3 struct {
	Type   FType3
	Device Devicedata3 // Type == NF3Chr || Type == NF3Blk
	Attr   Sattr3       // Type == NF3Sock || Type == NF3Fifo
}

func (m Mknoddata3) MarshalXDR(w io.Writer) error {
	if err := xdr.WriteInt32(w, int32(m.Type)); err != nil {
		return err
	}
	switch m.Type {
	case NF3Chr, NF3Blk:
		return m.Device.MarshalXDR(w)
	case NF3Sock, NF3Fifo:
		return m.Attr.MarshalXDR(w)
	default:
		return fmt.Errorf("nfs3: mknod does not support ftype3 %s", m.Type)
	}
}

func (m *Mknoddata3) UnmarshalXDR(r io.Reader) error {
	ftype, err := xdr.ReadInt32(r)
	if err != nil {
		return err
	}
	m.Type = FType3(ftype)
	switch m.Type {
	case NF3Chr, NF3Blk:
		return m.Device.UnmarshalXDR(r)
	case NF3Sock, NF3Fifo:
		return m.Attr.UnmarshalXDR(r)
	default:
		return fmt.Errorf("nfs3: mknod does not support ftype3 %s", m.Type)
	}
}
