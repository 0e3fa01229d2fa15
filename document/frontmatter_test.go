package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontmatter_Basic(t *testing.T) {
	lines := strings.Split("---\nauthor: Jane\nversion: 1.2\n---\n# Title", "\n")

	meta, next, ok := extractFrontmatter(lines)
	require.True(t, ok)
	assert.Equal(t, Metadata{"author": "Jane", "version": "1.2"}, meta)
	assert.Equal(t, 4, next, "scanning should resume after the closing delimiter")
}

func TestExtractFrontmatter_NotTriggered(t *testing.T) {
	lines := strings.Split("# Title\n---\nauthor: Jane\n---", "\n")

	_, _, ok := extractFrontmatter(lines)
	assert.False(t, ok, "frontmatter only triggers on line 1")
}

func TestExtractFrontmatter_UnclosedIsAbandoned(t *testing.T) {
	lines := strings.Split("---\nauthor: Jane\n# Title", "\n")

	_, next, ok := extractFrontmatter(lines)
	assert.False(t, ok)
	assert.Equal(t, 0, next, "scanning restarts from the top")
}

func TestExtractFrontmatter_NonMatchingLinesIgnored(t *testing.T) {
	lines := strings.Split("---\nauthor: Jane\nthis is not a key/value line\n- list item\n---", "\n")

	meta, _, ok := extractFrontmatter(lines)
	require.True(t, ok)
	assert.Equal(t, Metadata{"author": "Jane"}, meta)
}

func TestExtractFrontmatter_EmptyBlock(t *testing.T) {
	lines := strings.Split("---\n---\nbody", "\n")

	meta, next, ok := extractFrontmatter(lines)
	require.True(t, ok)
	assert.Empty(t, meta)
	assert.Equal(t, 2, next)
}

func TestExtractFrontmatter_ValueIsTrimmed(t *testing.T) {
	lines := strings.Split("---\nauthor:    Jane Doe  \n---", "\n")

	meta, _, ok := extractFrontmatter(lines)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", meta["author"])
}
