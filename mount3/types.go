package mount3

import (
	"io"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

// FileHandle3 is the root handle MNT hands back for a successfully mounted
// export; it is the same opaque the nfs3 package's FileHandle3 wraps, kept
// as a distinct type here so that mount3 does not import nfs3.
type FileHandle3 struct {
	Data []byte
}

func (h FileHandle3) MarshalXDR(w io.Writer) error { return xdr.WriteOpaque(w, h.Data) }

func (h *FileHandle3) UnmarshalXDR(r io.Reader) error {
	data, err := xdr.ReadOpaque(r, FHSize3)
	if err != nil {
		return err
	}
	h.Data = data
	return nil
}

// MountEntry is one mountbody node in a DUMP reply (RFC 1813 Appendix I):
// a client hostname paired with the directory it has mounted.
type MountEntry struct {
	Hostname  string
	Directory string
}

// ExportGroup is one groupnode node: a single client or netgroup name
// allowed to mount an export.
type ExportGroup struct {
	Name string
}

// ExportEntry is one exportnode node in an EXPORT reply: an exported
// directory and the groups permitted to mount it.
type ExportEntry struct {
	Directory string
	Groups    []ExportGroup
}
