// Package nfs3 implements the NFSv3 (RFC 1813) wire-format codec and the
// thin per-procedure client built on top of the rpc package's transport.
package nfs3

import "github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"

// Nfsstat3 is the status code returned by every NFSv3 procedure (RFC 1813
// §2.6). Values outside this table are preserved verbatim (never rewritten)
// and print via NameTable's "?(n)" fallback.
type Nfsstat3 int32

const (
	NFS3OK             Nfsstat3 = 0
	NFS3ErrPerm        Nfsstat3 = 1
	NFS3ErrNoEnt       Nfsstat3 = 2
	NFS3ErrIO          Nfsstat3 = 5
	NFS3ErrNxio        Nfsstat3 = 6
	NFS3ErrAccess      Nfsstat3 = 13
	NFS3ErrExist       Nfsstat3 = 17
	NFS3ErrXdev        Nfsstat3 = 18
	NFS3ErrNodev       Nfsstat3 = 19
	NFS3ErrNotDir      Nfsstat3 = 20
	NFS3ErrIsDir       Nfsstat3 = 21
	NFS3ErrInval       Nfsstat3 = 22
	NFS3ErrFbig        Nfsstat3 = 27
	NFS3ErrNoSpc       Nfsstat3 = 28
	NFS3ErrRofs        Nfsstat3 = 30
	NFS3ErrMlink       Nfsstat3 = 31
	NFS3ErrNameTooLong Nfsstat3 = 63
	NFS3ErrNotEmpty    Nfsstat3 = 66
	NFS3ErrDquot       Nfsstat3 = 69
	NFS3ErrStale       Nfsstat3 = 70
	NFS3ErrRemote      Nfsstat3 = 71
	NFS3ErrBadHandle   Nfsstat3 = 10001
	NFS3ErrNotSync     Nfsstat3 = 10002
	NFS3ErrBadCookie   Nfsstat3 = 10003
	NFS3ErrNotSupp     Nfsstat3 = 10004
	NFS3ErrTooSmall    Nfsstat3 = 10005
	NFS3ErrServerFault Nfsstat3 = 10006
	NFS3ErrBadType     Nfsstat3 = 10007
	NFS3ErrJukebox     Nfsstat3 = 10008
)

var nfsstat3Names = xdr.NameTable[Nfsstat3]{
	NFS3OK:             "NFS3_OK",
	NFS3ErrPerm:        "NFS3ERR_PERM",
	NFS3ErrNoEnt:       "NFS3ERR_NOENT",
	NFS3ErrIO:          "NFS3ERR_IO",
	NFS3ErrNxio:        "NFS3ERR_NXIO",
	NFS3ErrAccess:      "NFS3ERR_ACCES",
	NFS3ErrExist:       "NFS3ERR_EXIST",
	NFS3ErrXdev:        "NFS3ERR_XDEV",
	NFS3ErrNodev:       "NFS3ERR_NODEV",
	NFS3ErrNotDir:      "NFS3ERR_NOTDIR",
	NFS3ErrIsDir:       "NFS3ERR_ISDIR",
	NFS3ErrInval:       "NFS3ERR_INVAL",
	NFS3ErrFbig:        "NFS3ERR_FBIG",
	NFS3ErrNoSpc:       "NFS3ERR_NOSPC",
	NFS3ErrRofs:        "NFS3ERR_ROFS",
	NFS3ErrMlink:       "NFS3ERR_MLINK",
	NFS3ErrNameTooLong: "NFS3ERR_NAMETOOLONG",
	NFS3ErrNotEmpty:    "NFS3ERR_NOTEMPTY",
	NFS3ErrDquot:       "NFS3ERR_DQUOT",
	NFS3ErrStale:       "NFS3ERR_STALE",
	NFS3ErrRemote:      "NFS3ERR_REMOTE",
	NFS3ErrBadHandle:   "NFS3ERR_BADHANDLE",
	NFS3ErrNotSync:     "NFS3ERR_NOT_SYNC",
	NFS3ErrBadCookie:   "NFS3ERR_BAD_COOKIE",
	NFS3ErrNotSupp:     "NFS3ERR_NOTSUPP",
	NFS3ErrTooSmall:    "NFS3ERR_TOOSMALL",
	NFS3ErrServerFault: "NFS3ERR_SERVERFAULT",
	NFS3ErrBadType:     "NFS3ERR_BADTYPE",
	NFS3ErrJukebox:     "NFS3ERR_JUKEBOX",
}

// String returns the RFC 1813 mnemonic, or "?(n)" for a value outside the
// table (the wire is the source of truth, not this list).
func (s Nfsstat3) String() string { return nfsstat3Names.Name(s) }

// IsError reports whether s is anything other than NFS3_OK. This is the
// "success value" truthiness the design calls out in §4.2: NFS3OK is the one
// value callers should treat as non-error.
func (s Nfsstat3) IsError() bool { return s != NFS3OK }

// FType3 is the file type discriminator (RFC 1813 §2.5).
type FType3 int32

const (
	NF3Reg   FType3 = 1
	NF3Dir   FType3 = 2
	NF3Blk   FType3 = 3
	NF3Chr   FType3 = 4
	NF3Lnk   FType3 = 5
	NF3Sock  FType3 = 6
	NF3Fifo  FType3 = 7
)

var fType3Names = xdr.NameTable[FType3]{
	NF3Reg: "NF3REG", NF3Dir: "NF3DIR", NF3Blk: "NF3BLK", NF3Chr: "NF3CHR",
	NF3Lnk: "NF3LNK", NF3Sock: "NF3SOCK", NF3Fifo: "NF3FIFO",
}

func (t FType3) String() string { return fType3Names.Name(t) }

// StableHow controls WRITE's durability contract (RFC 1813 §3.3.7).
type StableHow int32

const (
	Unstable  StableHow = 0
	DataSync  StableHow = 1
	FileSync  StableHow = 2
)

var stableHowNames = xdr.NameTable[StableHow]{Unstable: "UNSTABLE", DataSync: "DATA_SYNC", FileSync: "FILE_SYNC"}

func (s StableHow) String() string { return stableHowNames.Name(s) }

// CreateMode3 discriminates createhow3 (RFC 1813 §3.3.8).
type CreateMode3 int32

const (
	Unchecked CreateMode3 = 0
	Guarded   CreateMode3 = 1
	Exclusive CreateMode3 = 2
)

var createMode3Names = xdr.NameTable[CreateMode3]{Unchecked: "UNCHECKED", Guarded: "GUARDED", Exclusive: "EXCLUSIVE"}

func (c CreateMode3) String() string { return createMode3Names.Name(c) }

// TimeHow discriminates set_atime/set_mtime (RFC 1813 §2.6).
type TimeHow int32

const (
	DontChange      TimeHow = 0
	SetToServerTime TimeHow = 1
	SetToClientTime TimeHow = 2
)

var timeHowNames = xdr.NameTable[TimeHow]{
	DontChange: "DONT_CHANGE", SetToServerTime: "SET_TO_SERVER_TIME", SetToClientTime: "SET_TO_CLIENT_TIME",
}

func (t TimeHow) String() string { return timeHowNames.Name(t) }

// Access mask bits (RFC 1813 §3.3.4).
const (
	AccessRead    uint32 = 0x0001
	AccessLookup  uint32 = 0x0002
	AccessModify  uint32 = 0x0004
	AccessExtend  uint32 = 0x0008
	AccessDelete  uint32 = 0x0010
	AccessExecute uint32 = 0x0020
)

// FSInfo properties bits (RFC 1813 §3.3.19).
const (
	FSFLink       uint32 = 0x0001
	FSFSymlink    uint32 = 0x0002
	FSFHomogeneous uint32 = 0x0008
	FSFCansettime uint32 = 0x0010
)

// Fixed sizes from RFC 1813 §2.5 / RFC 1094.
const (
	FHSize3           = 64
	CookieVerfSize    = 8
	CreateVerfSize    = 8
	WriteVerfSize     = 8
)
