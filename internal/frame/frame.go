// Package frame implements RFC 1831 record marking: the framing ONC RPC
// uses to delimit messages on a byte stream transport such as TCP.
//
// A record is one or more fragments. Each fragment is prefixed by a 4-byte
// big-endian header whose top bit marks the last fragment of the record and
// whose low 31 bits give the fragment's length. Fragments are concatenated
// in order; the record ends at the first fragment carrying the last-fragment
// bit.
package frame

import (
	"encoding/binary"
	"fmt"
	"io"
)

// lastFragmentBit marks the final fragment of a record in the 4-byte header.
const lastFragmentBit = 0x80000000

// MaxRecordSize bounds the total size of a reassembled record. NFS3 read
// and write payloads are capped well below this by FSINFO rtmax/wtmax; it
// exists to stop a corrupt or hostile fragment header from driving an
// unbounded allocation while reassembling.
const MaxRecordSize = 4 * 1024 * 1024

// ReadRecord reads one complete RPC record (all fragments up to and
// including the one with the last-fragment bit set) from r.
//
// Per the data model's "zero-length first read is EOF" rule: if the very
// first fragment header read returns io.EOF before any bytes were produced,
// that is treated as ordinary connection close and surfaced as io.EOF to
// the caller, not wrapped as a protocol error.
func ReadRecord(r io.Reader) ([]byte, error) {
	var record []byte
	first := true

	for {
		var hdr [4]byte
		_, err := io.ReadFull(r, hdr[:])
		if err != nil {
			if first && err == io.EOF {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("frame: read fragment header: %w", err)
		}
		first = false

		word := binary.BigEndian.Uint32(hdr[:])
		last := word&lastFragmentBit != 0
		length := word &^ lastFragmentBit

		if uint64(len(record))+uint64(length) > MaxRecordSize {
			return nil, fmt.Errorf("frame: record exceeds maximum size %d", MaxRecordSize)
		}

		if length > 0 {
			frag := make([]byte, length)
			if _, err := io.ReadFull(r, frag); err != nil {
				return nil, fmt.Errorf("frame: read fragment body (%d bytes): %w", length, err)
			}
			record = append(record, frag...)
		}

		if last {
			return record, nil
		}
	}
}

// WriteRecord writes payload as a single-fragment record with the
// last-fragment bit set. The client never pipelines, so every call it
// sends is exactly one fragment; ReadRecord still reassembles replies that
// arrive in several fragments.
func WriteRecord(w io.Writer, payload []byte) error {
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], lastFragmentBit|uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("frame: write fragment header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("frame: write fragment body: %w", err)
	}
	return nil
}
