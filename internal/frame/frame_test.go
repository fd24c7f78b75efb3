package frame

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("hello nfs")
	require.NoError(t, WriteRecord(&buf, payload))

	got, err := ReadRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestMultiFragmentReassembly(t *testing.T) {
	var buf bytes.Buffer
	writeFragment(&buf, []byte("abc"), false)
	writeFragment(&buf, []byte("def"), true)

	got, err := ReadRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), got)
}

func TestEmptyFirstReadIsEOF(t *testing.T) {
	var buf bytes.Buffer
	_, err := ReadRecord(&buf)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOversizedRecordRejected(t *testing.T) {
	var buf bytes.Buffer
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], lastFragmentBit|uint32(MaxRecordSize+1))
	buf.Write(hdr[:])
	_, err := ReadRecord(&buf)
	require.Error(t, err)
}

func writeFragment(buf *bytes.Buffer, payload []byte, last bool) {
	var word uint32 = uint32(len(payload))
	if last {
		word |= lastFragmentBit
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], word)
	buf.Write(hdr[:])
	buf.Write(payload)
}
