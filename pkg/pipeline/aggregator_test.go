package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEmptyResults(t *testing.T) {
	_, err := Aggregate(nil, ModeSummary)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAggregation))
}

func TestAggregateIgnoresArrivalOrder(t *testing.T) {
	ordered := []ChunkResult{{0, "alpha."}, {1, "beta."}, {2, "gamma."}, {3, "delta."}}
	permutations := [][]int{
		{0, 1, 2, 3},
		{3, 2, 1, 0},
		{2, 0, 3, 1},
		{1, 3, 0, 2},
	}

	for _, mode := range []Mode{ModeSummary, ModeBullets, ModeTranslation} {
		expected, err := Aggregate(ordered, mode)
		require.NoError(t, err)

		for _, perm := range permutations {
			shuffled := make([]ChunkResult, len(perm))
			for i, p := range perm {
				shuffled[i] = ordered[p]
			}
			got, err := Aggregate(shuffled, mode)
			require.NoError(t, err)
			assert.Equal(t, expected, got, "mode %s perm %v", mode, perm)
			// 调用方的切片保持原样
			assert.Equal(t, ordered[perm[0]], shuffled[0])
		}
	}
}

func TestAggregateSummaryJoinsWithSingleSpace(t *testing.T) {
	outcome, err := Aggregate([]ChunkResult{{1, "  Second part. "}, {0, "First part.\n"}, {2, "   "}}, ModeSummary)
	require.NoError(t, err)
	assert.Equal(t, "First part. Second part.", outcome.Text)
	assert.Nil(t, outcome.Bullets)
	assert.Equal(t, 3, outcome.ChunkCount)
}

func TestAggregateBullets(t *testing.T) {
	outcome, err := Aggregate([]ChunkResult{
		{0, "The model was trained. It works well!"},
		{1, "Is it fast? Dr. Smith thinks so."},
	}, ModeBullets)
	require.NoError(t, err)
	assert.Equal(t, "The model was trained. It works well! Is it fast? Dr. Smith thinks so.", outcome.Text)
	assert.Equal(t, []string{
		"The model was trained.",
		"It works well!",
		"Is it fast?",
		"Dr. Smith thinks so.",
	}, outcome.Bullets)
}

func TestAggregateTranslationUsesBoundarySeparators(t *testing.T) {
	results := []ChunkResult{{2, "C"}, {0, "A"}, {1, "B"}}
	seps := map[int]string{0: "\n\n", 1: " ", 2: " "}

	outcome, err := AggregateWithSeparators(results, ModeTranslation, seps)
	require.NoError(t, err)
	assert.Equal(t, "A\n\nB C", outcome.Text)

	outcome, err = Aggregate(results, ModeTranslation)
	require.NoError(t, err)
	assert.Equal(t, "A B C", outcome.Text)
}

func TestToBullets(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"single", "Only one sentence", []string{"Only one sentence"}},
		{"arabic", "النقطة الأولى. النقطة الثانية؟", []string{"النقطة الأولى.", "النقطة الثانية؟"}},
		{"newlines and dashes", "- one\n- two\n\n• three", []string{"one", "two", "three"}},
		{"closing paren", "S(first.) S(second.)", []string{"S(first.)", "S(second.)"}},
		{"abbreviation", "Use e.g. this one. Done.", []string{"Use e.g. this one.", "Done."}},
		{"initialism", "The U.S. economy grew. Jobs rose.", []string{"The U.S. economy grew.", "Jobs rose."}},
		{"initialism mid sentence", "Talks in the U.K. ended. The E.U. replied.", []string{"Talks in the U.K. ended.", "The E.U. replied."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToBullets(tt.in))
		})
	}
}
