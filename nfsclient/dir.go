package nfsclient

import (
	"bytes"
	"context"

	"github.com/microsoft/hpc-cache-nfsv3-client/nfs3"
)

// defaultDirPageBytes bounds each READDIR(+) page; large enough that most
// directories finish in one round trip, small enough to stay well under a
// typical server's reply size limit.
const defaultDirPageBytes = 8192

// ReaddirEntireDir pages through an entire directory via READDIR, cookie
// zero and a zero cookieverf at the start, continuing with the last
// entry's cookie and the server's returned cookieverf until eof (§4.10). A
// non-OK response at any page aborts the walk and reports failure with
// whatever had been accumulated so far discarded, matching the "(false,
// [])" contract.
func ReaddirEntireDir(ctx context.Context, retrier *Retrier, client *nfs3.Client, dir nfs3.FileHandle3) (bool, []nfs3.Entry3) {
	var (
		cookie     uint64
		cookieVerf [nfs3.CookieVerfSize]byte
		entries    []nfs3.Entry3
	)
	for {
		res, err := Readdir(ctx, retrier, client, dir, cookie, cookieVerf, defaultDirPageBytes)
		if err != nil {
			return false, nil
		}
		entries = append(entries, res.Entries...)
		if res.Eof {
			return true, entries
		}
		if len(res.Entries) == 0 {
			// Server claims more data but sent nothing: avoid spinning forever.
			return false, nil
		}
		cookie = res.Entries[len(res.Entries)-1].Cookie
		cookieVerf = res.CookieVerf
	}
}

// ReaddirplusEntireDir is ReaddirEntireDir's READDIRPLUS counterpart,
// returning the attribute- and handle-enriched entry list.
func ReaddirplusEntireDir(ctx context.Context, retrier *Retrier, client *nfs3.Client, dir nfs3.FileHandle3) (bool, []nfs3.EntryPlus3) {
	var (
		cookie     uint64
		cookieVerf [nfs3.CookieVerfSize]byte
		entries    []nfs3.EntryPlus3
	)
	for {
		res, err := Readdirplus(ctx, retrier, client, dir, cookie, cookieVerf, defaultDirPageBytes, defaultDirPageBytes)
		if err != nil {
			return false, nil
		}
		entries = append(entries, res.Entries...)
		if res.Eof {
			return true, entries
		}
		if len(res.Entries) == 0 {
			return false, nil
		}
		cookie = res.Entries[len(res.Entries)-1].Cookie
		cookieVerf = res.CookieVerf
	}
}

// skippedDirEntries are pseudo-entries every directory carries that a
// subtree walk must never recurse into or remove.
var skippedDirEntries = map[string]bool{".": true, "..": true, ".snapshot": true}

// RemoveResult reports one name's outcome within a RemoveSubtree walk.
type RemoveResult struct {
	Path string
	Err  error
}

// RemoveSubtree removes name from parent, recursing into it first if it
// turns out to be a directory (§4.10). OK and NOENT are both treated as
// success (the end state the caller wanted is already true). Failures
// encountered partway through a directory's contents are collected and
// returned rather than aborting the rest of the walk, since one bad entry
// should not stop cleanup of its siblings.
func RemoveSubtree(ctx context.Context, retrier *Retrier, client *nfs3.Client, parentPath string, parent nfs3.FileHandle3, name string) []RemoveResult {
	res, err := Remove(ctx, retrier, client, parent, name)
	if err == nil {
		return nil
	}
	se, ok := err.(*StatusError)
	if !ok {
		return []RemoveResult{{Path: joinPath(parentPath, name), Err: err}}
	}
	switch se.Status {
	case nfs3.NFS3ErrNoEnt:
		return nil
	case nfs3.NFS3ErrIsDir:
		// fall through to directory recursion below
	default:
		return []RemoveResult{{Path: joinPath(parentPath, name), Err: se}}
	}
	_ = res // REMOVE's wcc_data is not needed by the recursive walk

	lookupRes, err := Lookup(ctx, retrier, client, parent, name)
	if err != nil {
		return []RemoveResult{{Path: joinPath(parentPath, name), Err: err}}
	}

	childPath := joinPath(parentPath, name)
	ok2, children := ReaddirplusEntireDir(ctx, retrier, client, lookupRes.Handle)
	if !ok2 {
		return []RemoveResult{{Path: childPath, Err: &StatusError{Op: "READDIRPLUS", Status: nfs3.NFS3ErrIO}}}
	}

	var failures []RemoveResult
	for _, entry := range children {
		if skippedDirEntries[entry.Name] {
			continue
		}
		failures = append(failures, RemoveSubtree(ctx, retrier, client, childPath, lookupRes.Handle, entry.Name)...)
	}

	rmRes, err := Rmdir(ctx, retrier, client, parent, name)
	if err != nil {
		if se, ok := err.(*StatusError); !ok || se.Status != nfs3.NFS3ErrNoEnt {
			failures = append(failures, RemoveResult{Path: childPath, Err: err})
		}
	}
	_ = rmRes
	return failures
}

func joinPath(parent, name string) string {
	if parent == "" || parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

// LookupCreateResult is lookup_create's outcome: the resolved handle plus
// whether this call is the one that created the object.
type LookupCreateResult struct {
	Handle  nfs3.FileHandle3
	Created bool
}

// defaultCreateDirMode matches §4.10's "MKDIR with mode 0o777" (the caller's
// umask, applied server-side, narrows this down in practice).
const defaultCreateDirMode uint32 = 0o777

// LookupCreate resolves name within parent, optionally creating it as a
// directory if missing (§4.10). If prevHandle is non-nil and the lookup
// succeeds, the resolved handle must match *prevHandle or the call fails —
// this is the "did something else replace the object I last saw" guard a
// caller holding a cached handle needs. tag is carried through only for the
// caller's own logging/diagnostics; it has no protocol meaning.
func LookupCreate(ctx context.Context, retrier *Retrier, client *nfs3.Client, tag string, parent nfs3.FileHandle3, name string, prevHandle *nfs3.FileHandle3, doCreate bool) (*LookupCreateResult, error) {
	lookupRes, err := Lookup(ctx, retrier, client, parent, name)
	if err == nil {
		if prevHandle != nil && !bytes.Equal(prevHandle.Data, lookupRes.Handle.Data) {
			return nil, &StatusError{Op: "LOOKUP", Status: nfs3.NFS3ErrStale}
		}
		return &LookupCreateResult{Handle: lookupRes.Handle}, nil
	}

	se, ok := err.(*StatusError)
	if !ok || se.Status != nfs3.NFS3ErrNoEnt || !doCreate {
		return nil, err
	}

	mkdirRes, err := Mkdir(ctx, retrier, client, parent, name, nfs3.Sattr3{
		Mode: nfs3.SetMode3{Present: true, Value: defaultCreateDirMode},
	})
	if err != nil {
		return nil, err
	}
	if mkdirRes.Handle.Present {
		return &LookupCreateResult{Handle: mkdirRes.Handle.Handle, Created: true}, nil
	}

	followUp, err := Lookup(ctx, retrier, client, parent, name)
	if err != nil {
		return nil, err
	}
	return &LookupCreateResult{Handle: followUp.Handle, Created: true}, nil
}
