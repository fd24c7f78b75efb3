package rpc

import (
	"math/rand"
	"sync"
)

// xidAllocator is the process-wide XID source described in §5: a single
// mutex-protected counter feeds every client instance so that a call retried
// across a reconnect never reuses an XID, even when mixed with allocations
// made by unrelated clients in the same process.
type xidAllocator struct {
	mu   sync.Mutex
	next uint32
}

// processXIDs seeds from a random value (rather than 0 or 1) so that
// restarting a process doesn't replay XIDs a long-lived NFS server might
// still remember from a previous incarnation.
var processXIDs = &xidAllocator{next: rand.Uint32() | 1}

// Next allocates a fresh, never-before-used XID.
func (a *xidAllocator) Next() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.next++
	return a.next
}

// Observe absorbs an XID seen on the wire (typically from a reply) into the
// counter, so a future allocation can never collide with it even if some
// other part of the system minted it directly.
func (a *xidAllocator) Observe(xid uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if xid > a.next {
		a.next = xid
	}
}

// NextXID allocates a fresh XID from the process-wide counter.
func NextXID() uint32 { return processXIDs.Next() }

// ObserveXID absorbs an externally-seen XID into the process-wide counter.
func ObserveXID(xid uint32) { processXIDs.Observe(xid) }
