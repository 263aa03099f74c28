package pipeline

import (
	"sort"
	"strings"

	"github.com/dlclark/regexp2"
)

// 要点切分：终止标点（可带右引号）之后、下一个非空白字符之前，跳过常见缩写和 U.S. 这类首字母缩写
var bulletBoundary = regexp2.MustCompile(`(?<=[.!?\u061F\u06D4\u2026]["'\u201D\u2019)\]]*)(?<!\b(?:Mr|Mrs|Ms|Dr|Prof|Sr|Jr|St|vs|e\.g|i\.e)\.)(?<!\b(?:\p{Lu}\.){2,}["'\u201D\u2019)\]]*)\s+(?=\S)|\r?\n+`, regexp2.None)

// Aggregate 按片段序号合并各片段的模型输出。
// 翻译模式下片段之间使用单个空格连接，需要保留段落边界时使用 AggregateWithSeparators。
func Aggregate(results []ChunkResult, mode Mode) (*Outcome, error) {
	return AggregateWithSeparators(results, mode, nil)
}

// AggregateWithSeparators 同 Aggregate，separators 给出翻译模式下每个片段之后的连接符
func AggregateWithSeparators(results []ChunkResult, mode Mode, separators map[int]string) (*Outcome, error) {
	if len(results) == 0 {
		return nil, aggregationFailure("no chunk results to aggregate")
	}

	// 复制后排序，不修改调用方的切片
	ordered := make([]ChunkResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})

	outcome := &Outcome{ChunkCount: len(ordered)}

	switch mode {
	case ModeTranslation:
		outcome.Text = joinWithSeparators(ordered, separators)
	case ModeSummary, ModeBullets:
		parts := make([]string, 0, len(ordered))
		for _, r := range ordered {
			if out := strings.TrimSpace(r.Output); out != "" {
				parts = append(parts, out)
			}
		}
		outcome.Text = strings.Join(parts, " ")
		if mode == ModeBullets {
			outcome.Bullets = ToBullets(outcome.Text)
		}
	default:
		return nil, aggregationFailure("unknown aggregation mode " + mode.String())
	}

	return outcome, nil
}

func joinWithSeparators(ordered []ChunkResult, separators map[int]string) string {
	var b strings.Builder
	wrote := false

	for i, r := range ordered {
		out := strings.TrimSpace(r.Output)
		if out == "" {
			continue
		}
		if wrote {
			sep := " "
			if s, ok := separators[ordered[i-1].Index]; ok && s != "" {
				sep = s
			}
			b.WriteString(sep)
		}
		b.WriteString(out)
		wrote = true
	}

	return b.String()
}

// ToBullets 将摘要拆分为句子要点，一句一条，去除首尾空白并丢弃空条目
func ToBullets(summary string) []string {
	runes := []rune(summary)
	var bullets []string
	start := 0

	add := func(s string) {
		s = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(s), "-•*·"))
		if s != "" {
			bullets = append(bullets, s)
		}
	}

	m, err := bulletBoundary.FindRunesMatch(runes)
	for err == nil && m != nil {
		add(string(runes[start:m.Index]))
		start = m.Index + m.Length
		m, err = bulletBoundary.FindNextMatch(m)
	}
	add(string(runes[start:]))

	return bullets
}
