package nfsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitComponentsHandlesLeadingAndTrailingSlash(t *testing.T) {
	comps, err := splitComponents("/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, comps)

	comps, err = splitComponents("a/b/c/")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, comps)
}

func TestSplitComponentsRejectsInteriorEmptyComponent(t *testing.T) {
	_, err := splitComponents("/a//b")
	require.Error(t, err)
}

func TestSplitComponentsSingleComponent(t *testing.T) {
	comps, err := splitComponents("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, comps)
}

func TestJoinPath(t *testing.T) {
	assert.Equal(t, "/a", joinPath("/", "a"))
	assert.Equal(t, "/a/b", joinPath("/a", "b"))
	assert.Equal(t, "/a", joinPath("", "a"))
}
