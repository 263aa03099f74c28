package pipeline

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

var (
	// 段落分隔：两个及以上换行（中间允许空白）
	paragraphBreak = regexp2.MustCompile(`[ \t]*(?:\r?\n[ \t]*){2,}`, regexp2.None)

	// 句子边界：终止标点（可带右引号/括号）后跟空白
	sentenceBreak = regexp2.MustCompile(`[.!?\u061F\u06D4\u2026]+["'\u201D\u2019)\]]*\s+`, regexp2.None)
)

// Split 将文本切分为不超过 maxChunkLength 个字符的有序片段。
//
// 先按段落切分，超长段落按句子切分，超长句子在字符上限处强制切分（尽量落在空白处）。
// 每个单元保留其后的分隔空白，因此按序拼接所有片段可还原原文。
// 片段只会因为切分点处的空白而略超上限；文本开头的空白并入第一个片段，同样不计入上限。
func Split(text string, maxChunkLength int) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput("text is empty")
	}
	if maxChunkLength <= 0 {
		return nil, invalidInput("max chunk length must be positive, got %d", maxChunkLength)
	}

	// 不超过上限时原样返回
	if utf8.RuneCountInString(text) <= maxChunkLength {
		return []Chunk{{Index: 0, Content: text}}, nil
	}

	var units []string
	for _, para := range splitKeepingSeparators([]rune(text), paragraphBreak) {
		if coreLength(para) <= maxChunkLength {
			units = append(units, para)
			continue
		}
		for _, sentence := range splitKeepingSeparators([]rune(para), sentenceBreak) {
			if coreLength(sentence) <= maxChunkLength {
				units = append(units, sentence)
				continue
			}
			units = append(units, hardSplit([]rune(sentence), maxChunkLength)...)
		}
	}

	return pack(units, maxChunkLength), nil
}

// splitKeepingSeparators 在每个分隔符之后切开，分隔符留在前一段末尾
func splitKeepingSeparators(runes []rune, re *regexp2.Regexp) []string {
	var parts []string
	start := 0

	m, err := re.FindRunesMatch(runes)
	for err == nil && m != nil {
		end := m.Index + m.Length
		if end > start {
			parts = append(parts, string(runes[start:end]))
			start = end
		}
		m, err = re.FindNextMatch(m)
	}

	if start < len(runes) {
		parts = append(parts, string(runes[start:]))
	}
	return parts
}

// hardSplit 按字符上限强制切分，优先在窗口内最后一个空白处断开
func hardSplit(runes []rune, limit int) []string {
	var pieces []string

	for start := 0; start < len(runes); {
		if len(runes)-start <= limit {
			pieces = append(pieces, string(runes[start:]))
			break
		}

		end := start + limit
		for k := end - 1; k > start; k-- {
			if unicode.IsSpace(runes[k]) {
				end = k + 1
				break
			}
		}
		// 空白归入当前片段
		for end < len(runes) && unicode.IsSpace(runes[end]) {
			end++
		}

		pieces = append(pieces, string(runes[start:end]))
		start = end
	}

	return pieces
}

// pack 贪心合并相邻单元
func pack(units []string, limit int) []Chunk {
	var chunks []Chunk
	var current strings.Builder
	var pending string
	currentSize := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Content: current.String()})
		current.Reset()
		currentSize = 0
	}

	for _, unit := range units {
		core := coreLength(unit)

		// 纯空白单元并入当前片段，或作为下一片段的前缀
		if core == 0 {
			if current.Len() > 0 {
				current.WriteString(unit)
				currentSize += utf8.RuneCountInString(unit)
			} else {
				pending += unit
			}
			continue
		}

		if currentSize > 0 && currentSize+core > limit {
			flush()
		}

		if pending != "" {
			current.WriteString(pending)
			currentSize += utf8.RuneCountInString(pending)
			pending = ""
		}
		current.WriteString(unit)
		currentSize += utf8.RuneCountInString(unit)
	}
	flush()

	if pending != "" && len(chunks) > 0 {
		chunks[len(chunks)-1].Content += pending
	}

	return chunks
}

// coreLength 去掉末尾空白后的字符数
func coreLength(s string) int {
	return utf8.RuneCountInString(strings.TrimRightFunc(s, unicode.IsSpace))
}

// Separators 根据片段末尾的空白推断片段之间的连接符，键为片段序号
func Separators(chunks []Chunk) map[int]string {
	seps := make(map[int]string, len(chunks))
	for _, c := range chunks {
		seps[c.Index] = boundarySeparator(c.Content)
	}
	return seps
}

func boundarySeparator(content string) string {
	tail := content[len(strings.TrimRightFunc(content, unicode.IsSpace)):]
	switch n := strings.Count(tail, "\n"); {
	case n >= 2:
		return "\n\n"
	case n == 1:
		return "\n"
	default:
		return " "
	}
}
