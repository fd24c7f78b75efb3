package mount3

import (
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// MntArgs is mountproc3_mnt's argument: the server-local path to mount.
type MntArgs struct {
	Directory string
}

func (a MntArgs) MarshalXDR(w io.Writer) error { return xdr.WriteString(w, a.Directory) }

// AuthFlavor mirrors rpc.AuthFlavor's int32 underlying representation as a
// type of this package's own; mount3's result uses it to report which
// flavors the server will accept for this export.
type AuthFlavor int32

// MntResult is mountres3: status, and on success the root file handle plus
// the list of auth flavors the server accepts for this export (RFC 1813
// Appendix I).
type MntResult struct {
	Status      Mountstat3
	Handle      FileHandle3
	AuthFlavors []AuthFlavor
}

func (r *MntResult) UnmarshalXDR(rd io.Reader) error {
	status, err := xdr.ReadInt32(rd)
	if err != nil {
		return err
	}
	r.Status = Mountstat3(status)
	if r.Status != MNT3OK {
		return nil
	}
	if err := r.Handle.UnmarshalXDR(rd); err != nil {
		return err
	}
	count, err := xdr.ReadUint32(rd)
	if err != nil {
		return err
	}
	r.AuthFlavors = make([]AuthFlavor, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := xdr.ReadInt32(rd)
		if err != nil {
			return err
		}
		r.AuthFlavors = append(r.AuthFlavors, AuthFlavor(v))
	}
	return nil
}

// DumpArgs is mountproc3_dump's (empty) argument.
type DumpArgs struct{}

func (DumpArgs) MarshalXDR(io.Writer) error { return nil }

// DumpResult is mountlist: every directory currently mounted by any client,
// as the server's mount table sees it.
type DumpResult struct {
	Entries []MountEntry
}

func (r *DumpResult) UnmarshalXDR(rd io.Reader) error {
	return xdr.ReadList(rd, func() error {
		var e MountEntry
		var err error
		if e.Hostname, err = xdr.ReadString(rd, xdr.MaxOpaque); err != nil {
			return err
		}
		if e.Directory, err = xdr.ReadString(rd, xdr.MaxOpaque); err != nil {
			return err
		}
		r.Entries = append(r.Entries, e)
		return nil
	})
}

// UmntArgs is mountproc3_umnt's argument: the directory to unmount.
type UmntArgs struct {
	Directory string
}

func (a UmntArgs) MarshalXDR(w io.Writer) error { return xdr.WriteString(w, a.Directory) }

// UmntAllArgs is mountproc3_umntall's (empty) argument.
type UmntAllArgs struct{}

func (UmntAllArgs) MarshalXDR(io.Writer) error { return nil }

// ExportArgs is mountproc3_export's (empty) argument.
type ExportArgs struct{}

func (ExportArgs) MarshalXDR(io.Writer) error { return nil }

// ExportResult is exports: every directory this server is configured to
// export, and the client groups allowed to mount each.
type ExportResult struct {
	Entries []ExportEntry
}

func (r *ExportResult) UnmarshalXDR(rd io.Reader) error {
	return xdr.ReadList(rd, func() error {
		var e ExportEntry
		var err error
		if e.Directory, err = xdr.ReadString(rd, xdr.MaxOpaque); err != nil {
			return err
		}
		if err := xdr.ReadList(rd, func() error {
			name, err := xdr.ReadString(rd, xdr.MaxOpaque)
			if err != nil {
				return err
			}
			e.Groups = append(e.Groups, ExportGroup{Name: name})
			return nil
		}); err != nil {
			return err
		}
		r.Entries = append(r.Entries, e)
		return nil
	})
}
