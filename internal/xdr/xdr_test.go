package xdr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint32RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint32(&buf, 0xdeadbeef))
	assert.Equal(t, 4, buf.Len())

	v, err := ReadUint32(&buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)
}

func TestInt64RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteInt64(&buf, -12345))
	v, err := ReadInt64(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(-12345), v)
}

func TestBoolRoundTrip(t *testing.T) {
	for _, want := range []bool{true, false} {
		var buf bytes.Buffer
		require.NoError(t, WriteBool(&buf, want))
		got, err := ReadBool(&buf)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestOpaqueRoundTripAndPadding(t *testing.T) {
	cases := [][]byte{
		nil,
		{1, 2, 3},
		{1, 2, 3, 4},
		{1, 2, 3, 4, 5},
		bytes.Repeat([]byte{0xab}, 64),
	}
	for _, data := range cases {
		var buf bytes.Buffer
		require.NoError(t, WriteOpaque(&buf, data))
		assert.Equal(t, 0, buf.Len()%4, "encoded opaque must be 4-byte aligned")

		got, err := ReadOpaque(&buf, 0)
		require.NoError(t, err)
		assert.Equal(t, data, got)
		assert.Equal(t, 0, buf.Len(), "decoder must consume exactly length+padding")
	}
}

func TestFixedOpaqueRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8} // NFS3_COOKIEVERFSIZE
	require.NoError(t, WriteFixedOpaque(&buf, data))
	assert.Equal(t, 8, buf.Len())
	got, err := ReadFixedOpaque(&buf, 8)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStringRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "hello"))
	s, err := ReadString(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
}

func TestOpaqueRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint32(&buf, 1000))
	_, err := ReadOpaque(&buf, 64)
	require.Error(t, err)
}

func TestShortReadReportsCounts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint32(&buf, 10))
	buf.WriteByte(1) // only 1 of 10 promised bytes
	_, err := ReadOpaque(&buf, 0)
	require.Error(t, err)
	var sre *ShortReadError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, 10, sre.Expected)
	assert.Equal(t, 1, sre.Got)
}

func TestListRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	values := []uint32{1, 2, 3}
	require.NoError(t, WriteList(&buf, len(values), func(i int) error {
		return WriteUint32(&buf, values[i])
	}))

	var got []uint32
	require.NoError(t, ReadList(&buf, func() error {
		v, err := ReadUint32(&buf)
		if err != nil {
			return err
		}
		got = append(got, v)
		return nil
	}))
	assert.Equal(t, values, got)
}

func TestListEmptyIsJustTerminator(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteList(&buf, 0, func(i int) error { return nil }))
	assert.Equal(t, 4, buf.Len())
}

type testStat int32

func TestNameTableFallsBackToPlaceholder(t *testing.T) {
	table := NameTable[testStat]{0: "OK"}
	assert.Equal(t, "OK", table.Name(0))
	assert.Equal(t, "?(99)", table.Name(99))
}
