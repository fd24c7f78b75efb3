package rpc

import "github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"

// Program/version numbers shared by every client in this module (RFC 1813
// Appendix I, RFC 1833).
const (
	PortmapProgram uint32 = 100000
	PortmapVersion uint32 = 2

	MountProgram uint32 = 100005
	MountVersion uint32 = 3

	NFSProgram uint32 = 100003
	NFSVersion uint32 = 3

	IPProtoTCP uint32 = 6
)

// MsgType distinguishes an RPC CALL from a REPLY (RFC 1057 §9).
type MsgType int32

const (
	MsgCall  MsgType = 0
	MsgReply MsgType = 1
)

var msgTypeNames = xdr.NameTable[MsgType]{MsgCall: "CALL", MsgReply: "REPLY"}

func (m MsgType) String() string { return msgTypeNames.Name(m) }

// ReplyStat is the top-level disposition of a reply body (RFC 1057 §9).
type ReplyStat int32

const (
	MsgAccepted ReplyStat = 0
	MsgDenied   ReplyStat = 1
)

var replyStatNames = xdr.NameTable[ReplyStat]{MsgAccepted: "MSG_ACCEPTED", MsgDenied: "MSG_DENIED"}

func (r ReplyStat) String() string { return replyStatNames.Name(r) }

// AcceptStat is the accept_stat carried by a MSG_ACCEPTED reply.
type AcceptStat int32

const (
	Success      AcceptStat = 0
	ProgUnavail  AcceptStat = 1
	ProgMismatch AcceptStat = 2
	ProcUnavail  AcceptStat = 3
	GarbageArgs  AcceptStat = 4
	SystemErr    AcceptStat = 5
)

var acceptStatNames = xdr.NameTable[AcceptStat]{
	Success:      "SUCCESS",
	ProgUnavail:  "PROG_UNAVAIL",
	ProgMismatch: "PROG_MISMATCH",
	ProcUnavail:  "PROC_UNAVAIL",
	GarbageArgs:  "GARBAGE_ARGS",
	SystemErr:    "SYSTEM_ERR",
}

func (a AcceptStat) String() string { return acceptStatNames.Name(a) }

// RejectStat is the reject_stat carried by a MSG_DENIED reply.
type RejectStat int32

const (
	RPCMismatch RejectStat = 0
	AuthError   RejectStat = 1
)

var rejectStatNames = xdr.NameTable[RejectStat]{RPCMismatch: "RPC_MISMATCH", AuthError: "AUTH_ERROR"}

func (r RejectStat) String() string { return rejectStatNames.Name(r) }

// AuthStat is the auth_stat carried alongside an AUTH_ERROR rejection
// (RFC 1057 §9).
type AuthStat int32

const (
	AuthOK           AuthStat = 0
	AuthBadCred      AuthStat = 1
	AuthRejectedCred AuthStat = 2
	AuthBadVerf      AuthStat = 3
	AuthRejectedVerf AuthStat = 4
	AuthTooWeak      AuthStat = 5
	AuthInvalidResp  AuthStat = 6
	AuthFailed       AuthStat = 7
)

var authStatNames = xdr.NameTable[AuthStat]{
	AuthOK:           "AUTH_OK",
	AuthBadCred:      "AUTH_BADCRED",
	AuthRejectedCred: "AUTH_REJECTEDCRED",
	AuthBadVerf:      "AUTH_BADVERF",
	AuthRejectedVerf: "AUTH_REJECTEDVERF",
	AuthTooWeak:      "AUTH_TOOWEAK",
	AuthInvalidResp:  "AUTH_INVALIDRESP",
	AuthFailed:       "AUTH_FAILED",
}

func (a AuthStat) String() string { return authStatNames.Name(a) }

// AuthFlavor identifies the credential/verifier encoding (RFC 1057 §9.2).
// Only AUTH_NULL and AUTH_UNIX are implemented; RPCSEC_GSS and AUTH_DES are
// explicit non-goals (no cryptographic authentication).
type AuthFlavor int32

const (
	AuthFlavorNull AuthFlavor = 0
	AuthFlavorUnix AuthFlavor = 1
)
