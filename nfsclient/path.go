package nfsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/microsoft/hpc-cache-nfsv3-client/mount3"
	"github.com/microsoft/hpc-cache-nfsv3-client/nfs3"
)

// splitComponents splits an absolute or relative path into its non-empty
// components, rejecting an empty component in the interior (e.g. "a//b")
// while tolerating a leading and/or trailing slash.
func splitComponents(path string) ([]string, error) {
	raw := strings.Split(path, "/")
	comps := make([]string, 0, len(raw))
	for i, p := range raw {
		if p == "" {
			if i == 0 || i == len(raw)-1 {
				continue
			}
			return nil, fmt.Errorf("nfsclient: empty path component in %q", path)
		}
		comps = append(comps, p)
	}
	return comps, nil
}

// ResolvePath mounts export's root via MOUNT "/" and walks path component by
// component via LOOKUP, starting from the root handle (§4.10). path "/" (or
// "") resolves to the root handle itself with no LOOKUP calls at all.
func ResolvePath(ctx context.Context, mountClient *mount3.Client, retrier *Retrier, nfsClient *nfs3.Client, path string) (nfs3.FileHandle3, error) {
	mntRes, err := mountClient.Mnt(ctx, "/")
	if err != nil {
		return nfs3.FileHandle3{}, fmt.Errorf("nfsclient: mount root: %w", err)
	}
	if mntRes.Status.IsError() {
		return nfs3.FileHandle3{}, fmt.Errorf("nfsclient: mount root: %s", mntRes.Status)
	}
	root := nfs3.FileHandle3{Data: mntRes.Handle.Data}

	if path == "" || path == "/" {
		return root, nil
	}
	return ResolvePathFrom(ctx, retrier, nfsClient, root, path)
}

// ResolvePathFrom walks path component by component via LOOKUP, starting
// from an already-resolved handle rather than the export root. Use this for
// relative path resolution once a starting handle is known.
func ResolvePathFrom(ctx context.Context, retrier *Retrier, nfsClient *nfs3.Client, start nfs3.FileHandle3, path string) (nfs3.FileHandle3, error) {
	comps, err := splitComponents(path)
	if err != nil {
		return nfs3.FileHandle3{}, err
	}

	current := start
	for _, comp := range comps {
		res, err := Lookup(ctx, retrier, nfsClient, current, comp)
		if err != nil {
			return nfs3.FileHandle3{}, fmt.Errorf("nfsclient: resolve %q: lookup %q: %w", path, comp, err)
		}
		current = res.Handle
	}
	return current, nil
}
