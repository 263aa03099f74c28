package pipeline

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// 句末标点：整段标点作为一个整体，后面紧跟小写字母或数字时视为缩写/小数，不计数
var sentenceTerminator = regexp2.MustCompile(`(?>[.!?\u061F\u06D4\u2026]+)(?!\p{Ll}|\p{Nd})`, regexp2.None)

// StatsCalculator 文本统计计算器
type StatsCalculator struct {
	wordsPerMinute int
}

// NewStatsCalculator 创建统计计算器，wpm <= 0 时使用默认阅读速度
func NewStatsCalculator(wpm int) *StatsCalculator {
	if wpm <= 0 {
		wpm = DefaultReadingSpeedWPM
	}
	return &StatsCalculator{wordsPerMinute: wpm}
}

// Compute 计算字符、单词、句子、段落数及预计阅读时间
func (s *StatsCalculator) Compute(text string) TextStats {
	stats := TextStats{Characters: utf8.RuneCountInString(text)}
	if strings.TrimSpace(text) == "" {
		return stats
	}

	stats.Words = len(strings.Fields(text))
	stats.Sentences = countMatches(sentenceTerminator, []rune(text))

	for _, para := range splitKeepingSeparators([]rune(text), paragraphBreak) {
		if strings.TrimSpace(para) != "" {
			stats.Paragraphs++
		}
	}
	if stats.Paragraphs == 0 {
		stats.Paragraphs = 1
	}

	seconds := math.Round(float64(stats.Words) / float64(s.wordsPerMinute) * 60)
	stats.ReadingTimeSeconds = int(math.Max(seconds, 1))

	return stats
}

func countMatches(re *regexp2.Regexp, runes []rune) int {
	count := 0
	m, err := re.FindRunesMatch(runes)
	for err == nil && m != nil {
		count++
		m, err = re.FindNextMatch(m)
	}
	return count
}
