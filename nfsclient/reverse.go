package nfsclient

import (
	"bytes"
	"context"
	"fmt"

	"github.com/microsoft/hpc-cache-nfsv3-client/mount3"
	"github.com/microsoft/hpc-cache-nfsv3-client/nfs3"
)

// maxReverseResolveSteps bounds the "..." walk so a server that never lets
// ".." reach an export root (or a bug in this walk) can't loop forever even
// past what the visited-handle set alone would catch.
const maxReverseResolveSteps = 4096

// loadExportRoots mounts every export the server advertises and returns a
// map from that export's root handle to its server-side directory, mirroring
// the original handle-to-path tool's self.exports: a resolved handle that
// lands on one of these roots means the walk has reached the top.
func loadExportRoots(ctx context.Context, mountClient *mount3.Client) (map[string]string, error) {
	exports, err := mountClient.Export(ctx)
	if err != nil {
		return nil, fmt.Errorf("nfsclient: list exports: %w", err)
	}
	roots := make(map[string]string, len(exports.Entries))
	for _, e := range exports.Entries {
		mntRes, err := mountClient.Mnt(ctx, e.Directory)
		if err != nil || mntRes.Status != mount3.MNT3OK {
			continue // unresolvable export: skip it, same as the original's "warning and continue"
		}
		roots[string(mntRes.Handle.Data)] = e.Directory
	}
	return roots, nil
}

// ResolveHandleToPath walks from target up to an export root via repeated
// LOOKUP(fh, "..") plus a READDIRPLUS scan of each parent to find which
// child's handle is the one being resolved, exactly as
// original_source/download/examples/nfs3_path_from_fh.py's ResolveState
// does. A visited-handle set detects loops. Returns the best path
// accumulated so far and ok=true only if the walk reached a known export
// root; ok=false with a non-empty path is the "partial, did not reach the
// top" outcome the original reports by printing "...<path>".
func ResolveHandleToPath(ctx context.Context, mountClient *mount3.Client, retrier *Retrier, nfsClient *nfs3.Client, target nfs3.FileHandle3) (string, bool, error) {
	roots, err := loadExportRoots(ctx, mountClient)
	if err != nil {
		return "", false, err
	}

	seen := map[string]bool{string(target.Data): true}
	fh := target
	path := ""

	for step := 0; step < maxReverseResolveSteps; step++ {
		if dir, ok := roots[string(fh.Data)]; ok {
			return dir + path, true, nil
		}

		lookupRes, err := Lookup(ctx, retrier, nfsClient, fh, "..")
		if err != nil {
			return path, false, nil
		}
		parent := lookupRes.Handle
		if seen[string(parent.Data)] {
			return path, false, fmt.Errorf("nfsclient: resolve handle to path: loop detected at %x", parent.Data)
		}
		seen[string(parent.Data)] = true

		ok, entries := ReaddirplusEntireDir(ctx, retrier, nfsClient, parent)
		if !ok {
			return path, false, nil
		}

		found := false
		for _, entry := range entries {
			if skippedDirEntries[entry.Name] {
				continue
			}
			if !entry.Handle.Present || !bytes.Equal(entry.Handle.Handle.Data, fh.Data) {
				continue
			}
			path = "/" + entry.Name + path
			fh = parent
			found = true
			break
		}
		if !found {
			return path, false, nil
		}
	}
	return path, false, fmt.Errorf("nfsclient: resolve handle to path: exceeded %d steps", maxReverseResolveSteps)
}
