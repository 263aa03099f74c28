package pipeline

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func joinChunks(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Content)
	}
	return b.String()
}

func TestSplitRejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t"} {
		_, err := Split(text, 100)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
	}
}

func TestSplitRejectsNonPositiveLimit(t *testing.T) {
	_, err := Split("hello", 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestSplitSingleChunkIdentity(t *testing.T) {
	text := "Hello world.\n\nSecond paragraph."
	chunks, err := Split(text, len([]rune(text)))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, Chunk{Index: 0, Content: text}, chunks[0])
}

func TestSplitPrefersParagraphBoundaries(t *testing.T) {
	chunks, err := Split("Para one is here.\n\nPara two is here.", 20)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Para one is here.\n\n", chunks[0].Content)
	assert.Equal(t, "Para two is here.", chunks[1].Content)
}

func TestSplitPacksSentences(t *testing.T) {
	chunks, err := Split("One two three. Four five six. Seven eight nine.", 30)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "One two three. Four five six. ", chunks[0].Content)
	assert.Equal(t, "Seven eight nine.", chunks[1].Content)
}

func TestSplitArabicSentences(t *testing.T) {
	text := "مرحبا بكم. كيف حالك؟ أنا بخير."
	chunks, err := Split(text, 12)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "كيف حالك؟ ", chunks[1].Content)
	assert.Equal(t, text, joinChunks(chunks))
}

func TestSplitHardSplitsLongToken(t *testing.T) {
	chunks, err := Split("abcdefghij", 4)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", chunks[0].Content)
	assert.Equal(t, "efgh", chunks[1].Content)
	assert.Equal(t, "ij", chunks[2].Content)
}

func TestSplitHardSplitPrefersWhitespace(t *testing.T) {
	chunks, err := Split("aaaa bbbb cccc", 5)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "aaaa ", chunks[0].Content)
	assert.Equal(t, "bbbb ", chunks[1].Content)
	assert.Equal(t, "cccc", chunks[2].Content)
}

func TestSplitLeadingWhitespaceJoinsFirstChunk(t *testing.T) {
	text := "\n\nxxxxxxxxxx"
	chunks, err := Split(text, 7)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// 开头的空白不计入上限
	assert.Equal(t, "\n\nxxxxxxx", chunks[0].Content)
	assert.Equal(t, "xxx", chunks[1].Content)
	assert.Equal(t, text, joinChunks(chunks))
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(strings.TrimSpace(c.Content))), 7)
	}
}

func TestSplitLosslessAndBounded(t *testing.T) {
	words := []string{"alpha", "beta", "gamma", "delta", "مرحبا", "كتاب", "x", "supercalifragilisticexpialidocious"}
	seps := []string{" ", " ", " ", ". ", "! ", "؟ ", ", ", "\n", "\n\n", "  \n \n"}
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 50; round++ {
		var b strings.Builder
		n := 5 + rng.Intn(200)
		for i := 0; i < n; i++ {
			b.WriteString(words[rng.Intn(len(words))])
			if i < n-1 {
				b.WriteString(seps[rng.Intn(len(seps))])
			}
		}
		text := b.String()

		for _, limit := range []int{5, 17, 40, 100, 512} {
			chunks, err := Split(text, limit)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)

			assert.Equal(t, text, joinChunks(chunks), "limit %d", limit)
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.NotEmpty(t, strings.TrimSpace(c.Content))
				assert.LessOrEqual(t, coreLength(c.Content), limit, "chunk %d: %q", i, c.Content)
			}
		}
	}
}

func TestSeparators(t *testing.T) {
	chunks := []Chunk{
		{Index: 0, Content: "One.\n\n"},
		{Index: 1, Content: "Two.\n"},
		{Index: 2, Content: "Three. "},
		{Index: 3, Content: "Four."},
	}
	seps := Separators(chunks)
	assert.Equal(t, "\n\n", seps[0])
	assert.Equal(t, "\n", seps[1])
	assert.Equal(t, " ", seps[2])
	assert.Equal(t, " ", seps[3])
}
