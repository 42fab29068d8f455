package mind

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTurnsTruncatesOnRuneBoundary(t *testing.T) {
	turns := []Turn{{Role: "user", Username: "alice", Content: strings.Repeat("€", 100)}} // 300 bytes
	out := renderTurns(turns, 8)
	require.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestRenderTurnsLimitsToNewest(t *testing.T) {
	turns := []Turn{
		{Role: "user", Username: "alice", Content: "oldest"},
		{Role: "user", Username: "alice", Content: "middle"},
		{Role: "user", Username: "alice", Content: "newest"},
	}
	out := renderTurns(turns, 2)
	assert.NotContains(t, out, "oldest")
	assert.Contains(t, out, "middle")
	assert.Contains(t, out, "newest")
}

func TestRenderTurnsEmpty(t *testing.T) {
	assert.Equal(t, "The conversation has not started yet.", renderTurns(nil, 8))
}
