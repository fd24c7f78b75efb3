// Package mount3 implements the MOUNT protocol version 3 (RFC 1813 Appendix
// I), the side channel NFSv3 clients use to turn a server export path into
// the root file handle NFS3 operations actually address.
package mount3

import "github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"

// Mountstat3 is the status returned by MNT (RFC 1813 Appendix I).
type Mountstat3 int32

const (
	MNT3OK             Mountstat3 = 0
	MNT3ErrPerm        Mountstat3 = 1
	MNT3ErrNoEnt       Mountstat3 = 2
	MNT3ErrIO          Mountstat3 = 5
	MNT3ErrAccess      Mountstat3 = 13
	MNT3ErrNotDir      Mountstat3 = 20
	MNT3ErrInval       Mountstat3 = 22
	MNT3ErrNameTooLong Mountstat3 = 63
	MNT3ErrNotSupp     Mountstat3 = 10004
	MNT3ErrServerFault Mountstat3 = 10006
)

var mountstat3Names = xdr.NameTable[Mountstat3]{
	MNT3OK:             "MNT3_OK",
	MNT3ErrPerm:        "MNT3ERR_PERM",
	MNT3ErrNoEnt:       "MNT3ERR_NOENT",
	MNT3ErrIO:          "MNT3ERR_IO",
	MNT3ErrAccess:      "MNT3ERR_ACCES",
	MNT3ErrNotDir:      "MNT3ERR_NOTDIR",
	MNT3ErrInval:       "MNT3ERR_INVAL",
	MNT3ErrNameTooLong: "MNT3ERR_NAMETOOLONG",
	MNT3ErrNotSupp:     "MNT3ERR_NOTSUPP",
	MNT3ErrServerFault: "MNT3ERR_SERVERFAULT",
}

func (s Mountstat3) String() string { return mountstat3Names.Name(s) }

// IsError reports whether s is anything other than MNT3OK.
func (s Mountstat3) IsError() bool { return s != MNT3OK }

// Mount protocol procedure numbers (RFC 1813 Appendix I).
const (
	ProcNull    uint32 = 0
	ProcMnt     uint32 = 1
	ProcDump    uint32 = 2
	ProcUmnt    uint32 = 3
	ProcUmntAll uint32 = 4
	ProcExport  uint32 = 5
)

// FHSize3 bounds the file handle opaque returned by MNT, matching nfs3's
// FHSize3 (both are RFC 1813's fhandle3).
const FHSize3 = 64
