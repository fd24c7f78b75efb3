package nfs3

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microsoft/hpc-cache-nfsv3-client/internal/xdr"
)

func TestFattr3RoundTrip(t *testing.T) {
	a := Fattr3{
		Type: NF3Reg, Mode: 0644, Nlink: 1, UID: 1000, GID: 1000,
		Size: 4096, Used: 4096,
		Rdev: Specdata3{Major: 0, Minor: 0},
		FSID: 1, FileID: 42,
		Atime: NFSTime3{Seconds: 100, Nseconds: 1},
		Mtime: NFSTime3{Seconds: 101, Nseconds: 2},
		Ctime: NFSTime3{Seconds: 102, Nseconds: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, a.MarshalXDR(&buf))

	var got Fattr3
	require.NoError(t, got.UnmarshalXDR(&buf))
	assert.Equal(t, a, got)
}

func TestPostOpAttrAbsent(t *testing.T) {
	p := PostOpAttr3{Present: false}
	var buf bytes.Buffer
	require.NoError(t, p.MarshalXDR(&buf))

	var got PostOpAttr3
	require.NoError(t, got.UnmarshalXDR(&buf))
	assert.False(t, got.Present)
	assert.Equal(t, Fattr3{}, got.Attr)
}

func TestWccDataRoundTrip(t *testing.T) {
	w := WccData3{
		Before: PreOpAttr3{Present: true, Attr: WccAttr3{Size: 10, Mtime: NFSTime3{Seconds: 1}, Ctime: NFSTime3{Seconds: 2}}},
		After:  PostOpAttr3{Present: false},
	}
	var buf bytes.Buffer
	require.NoError(t, w.MarshalXDR(&buf))

	var got WccData3
	require.NoError(t, got.UnmarshalXDR(&buf))
	assert.Equal(t, w, got)
}

func TestSattr3AllFieldsIndependentlyOptional(t *testing.T) {
	s := Sattr3{
		Mode:  SetMode3{Present: true, Value: 0755},
		UID:   SetUID3{Present: false},
		GID:   SetGID3{Present: true, Value: 100},
		Size:  SetSize3{Present: false},
		Atime: SetTime3{How: SetToServerTime},
		Mtime: SetTime3{How: SetToClientTime, Time: NFSTime3{Seconds: 5}},
	}
	var buf bytes.Buffer
	require.NoError(t, s.MarshalXDR(&buf))

	var got Sattr3
	require.NoError(t, got.UnmarshalXDR(&buf))
	assert.Equal(t, s, got)
}

func TestCreatehow3UncheckedCarriesAttr(t *testing.T) {
	c := Createhow3{Mode: Unchecked, Obj: Sattr3{Mode: SetMode3{Present: true, Value: 0644}}}
	var buf bytes.Buffer
	require.NoError(t, c.MarshalXDR(&buf))

	var got Createhow3
	require.NoError(t, got.UnmarshalXDR(&buf))
	assert.Equal(t, c, got)
}

func TestCreatehow3ExclusiveCarriesVerifier(t *testing.T) {
	c := Createhow3{Mode: Exclusive, Verifier: [CreateVerfSize]byte{1, 2, 3, 4, 5, 6, 7, 8}}
	var buf bytes.Buffer
	require.NoError(t, c.MarshalXDR(&buf))

	var got Createhow3
	require.NoError(t, got.UnmarshalXDR(&buf))
	assert.Equal(t, c, got)
}

func TestMknoddata3DeviceArm(t *testing.T) {
	m := Mknoddata3{Type: NF3Chr, Device: Devicedata3{Spec: Specdata3{Major: 1, Minor: 5}}}
	var buf bytes.Buffer
	require.NoError(t, m.MarshalXDR(&buf))

	var got Mknoddata3
	require.NoError(t, got.UnmarshalXDR(&buf))
	assert.Equal(t, m, got)
}

func TestMknoddata3RejectsDirType(t *testing.T) {
	m := Mknoddata3{Type: NF3Dir}
	var buf bytes.Buffer
	require.Error(t, m.MarshalXDR(&buf))
}

func TestNfsstat3StringFallback(t *testing.T) {
	assert.Equal(t, "NFS3ERR_JUKEBOX", NFS3ErrJukebox.String())
	assert.Contains(t, Nfsstat3(99999).String(), "99999")
}

func TestReaddirResultDecodesEntryList(t *testing.T) {
	var body bytes.Buffer
	require.NoError(t, xdr.WriteInt32(&body, int32(NFS3OK)))
	require.NoError(t, xdr.WriteBool(&body, false)) // dir_attr absent
	require.NoError(t, xdr.WriteFixedOpaque(&body, make([]byte, CookieVerfSize)))

	writeEntry := func(fileID, cookie uint64, name string) {
		require.NoError(t, xdr.WriteUint64(&body, fileID))
		require.NoError(t, xdr.WriteString(&body, name))
		require.NoError(t, xdr.WriteUint64(&body, cookie))
	}
	require.NoError(t, xdr.WriteBool(&body, true)) // value follows: entry 1
	writeEntry(1, 1, "a")
	require.NoError(t, xdr.WriteBool(&body, true)) // value follows: entry 2
	writeEntry(2, 2, "b")
	require.NoError(t, xdr.WriteBool(&body, false)) // list terminator
	require.NoError(t, xdr.WriteBool(&body, true))  // eof

	var got ReaddirResult
	require.NoError(t, got.UnmarshalXDR(&body))
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "a", got.Entries[0].Name)
	assert.Equal(t, "b", got.Entries[1].Name)
	assert.True(t, got.Eof)
}
