// Package xdr provides generic XDR (External Data Representation, RFC 4506)
// encoding and decoding primitives.
//
// XDR is the wire format used by ONC RPC (RFC 1057) and everything layered
// on top of it: the portmapper, MOUNT3 and NFSv3. Its defining properties:
//
//   - big-endian byte order for every multi-byte field
//   - 4-byte alignment: variable-length data is zero-padded up to a
//     multiple of 4 bytes
//   - booleans and enums are encoded as a 4-byte signed integer
//
// This package has no knowledge of NFS or RPC semantics; it is shared by the
// rpc, mount3 and nfs3 packages the way a protocol-agnostic codec library
// would be.
package xdr

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxOpaque bounds a single variable-length opaque/string field. RFC 1813
// handles top out at 64 bytes and NFS data chunks are negotiated far below
// this; it exists purely to stop a corrupt or hostile length word from
// driving an unbounded allocation.
const MaxOpaque = 16 * 1024 * 1024

// ShortReadError reports a decode that consumed fewer bytes than the wire
// format promised (RFC 1813 invariant: every decoder is total).
type ShortReadError struct {
	Expected int
	Got      int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("xdr: short read: expected %d bytes, got %d", e.Expected, e.Got)
}

// --- writers ---------------------------------------------------------------

func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func WriteInt32(w io.Writer, v int32) error {
	return WriteUint32(w, uint32(v))
}

func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func WriteInt64(w io.Writer, v int64) error {
	return WriteUint64(w, uint64(v))
}

// WriteBool encodes a boolean as a 4-byte int, per RFC 4506 §4.4.
func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteUint32(w, 1)
	}
	return WriteUint32(w, 0)
}

// padLen returns the number of zero bytes needed after n bytes of payload to
// reach a 4-byte boundary.
func padLen(n int) int {
	return (4 - (n % 4)) % 4
}

var zeroPad [4]byte

// WritePadding emits the zero bytes needed to align n bytes of
// already-written payload to a 4-byte boundary.
func WritePadding(w io.Writer, n int) error {
	p := padLen(n)
	if p == 0 {
		return nil
	}
	_, err := w.Write(zeroPad[:p])
	return err
}

// WriteOpaque encodes variable-length opaque data: a uint32 length, the raw
// bytes, then zero padding (RFC 4506 §4.10).
func WriteOpaque(w io.Writer, data []byte) error {
	if err := WriteUint32(w, uint32(len(data))); err != nil {
		return err
	}
	if len(data) > 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return WritePadding(w, len(data))
}

// WriteFixedOpaque encodes fixed-length opaque data: no length prefix, just
// the bytes and padding (RFC 4506 §4.9). Used for cookieverf3, createverf3,
// writeverf3 and similar fixed-size blobs.
func WriteFixedOpaque(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return err
	}
	return WritePadding(w, len(data))
}

// WriteString encodes a string using the opaque encoding (RFC 4506 §4.11).
// No charset conversion is performed: bytes are written exactly as given,
// matching nfspath3/filename3's "preserved verbatim" semantics.
func WriteString(w io.Writer, s string) error {
	return WriteOpaque(w, []byte(s))
}

// --- readers -----------------------------------------------------------

func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if n, err := io.ReadFull(r, b[:]); err != nil {
		return 0, shortRead(4, n, err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func ReadInt32(r io.Reader) (int32, error) {
	v, err := ReadUint32(r)
	return int32(v), err
}

func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if n, err := io.ReadFull(r, b[:]); err != nil {
		return 0, shortRead(8, n, err)
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func ReadInt64(r io.Reader) (int64, error) {
	v, err := ReadUint64(r)
	return int64(v), err
}

// ReadBool decodes a boolean; per RFC 4506 any nonzero value is true.
func ReadBool(r io.Reader) (bool, error) {
	v, err := ReadUint32(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadOpaque decodes variable-length opaque data and consumes its padding.
// max, if nonzero, overrides MaxOpaque for fields with a protocol-defined
// bound (e.g. FHSIZE3=64) so a corrupt length is rejected before allocating.
func ReadOpaque(r io.Reader, max uint32) ([]byte, error) {
	length, err := ReadUint32(r)
	if err != nil {
		return nil, err
	}
	if max == 0 {
		max = MaxOpaque
	}
	if length > max {
		return nil, fmt.Errorf("xdr: opaque length %d exceeds maximum %d", length, max)
	}
	data := make([]byte, length)
	if length > 0 {
		if n, err := io.ReadFull(r, data); err != nil {
			return nil, shortRead(int(length), n, err)
		}
	}
	if err := skipPadding(r, int(length)); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadFixedOpaque decodes a fixed-length opaque field of exactly n bytes
// (RFC 4506 §4.9), consuming its padding.
func ReadFixedOpaque(r io.Reader, n int) ([]byte, error) {
	data := make([]byte, n)
	if n > 0 {
		if got, err := io.ReadFull(r, data); err != nil {
			return nil, shortRead(n, got, err)
		}
	}
	if err := skipPadding(r, n); err != nil {
		return nil, err
	}
	return data, nil
}

// ReadString decodes a string using the opaque encoding.
func ReadString(r io.Reader, max uint32) (string, error) {
	data, err := ReadOpaque(r, max)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func skipPadding(r io.Reader, dataLen int) error {
	p := padLen(dataLen)
	if p == 0 {
		return nil
	}
	var buf [3]byte
	if n, err := io.ReadFull(r, buf[:p]); err != nil {
		return shortRead(p, n, err)
	}
	return nil
}

func shortRead(expected, got int, cause error) error {
	if cause == io.EOF || cause == io.ErrUnexpectedEOF {
		return &ShortReadError{Expected: expected, Got: got}
	}
	return fmt.Errorf("xdr: read %d bytes: %w", expected, cause)
}

// --- list encoding (RFC 1813 directory listings, mount exports) ------------

// WriteList encodes n, a sequence of (present=1, elem) pairs terminated by a
// single 0 word — the "optional-data linked list" XDR idiom used for
// READDIR(+) entries and EXPORT/DUMP results. encodeElem writes one element.
func WriteList(w io.Writer, n int, encodeElem func(i int) error) error {
	for i := 0; i < n; i++ {
		if err := WriteBool(w, true); err != nil {
			return err
		}
		if err := encodeElem(i); err != nil {
			return err
		}
	}
	return WriteBool(w, false)
}

// ReadList decodes the (present, elem) list idiom, calling decodeElem once
// per element until a terminating 0 word is read.
func ReadList(r io.Reader, decodeElem func() error) error {
	for {
		present, err := ReadBool(r)
		if err != nil {
			return err
		}
		if !present {
			return nil
		}
		if err := decodeElem(); err != nil {
			return err
		}
	}
}
