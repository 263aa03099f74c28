package document

import (
	"bytes"
	"io"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// 编码名称
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF8BOM     = "utf-8-bom"
	EncodingUTF16LE     = "utf-16le"
	EncodingUTF16BE     = "utf-16be"
	EncodingWindows1256 = "windows-1256"
	EncodingWindows1252 = "windows-1252"
)

// DecodeText 检测编码并转换为 UTF-8，返回文本与检测到的编码名称。
// 非 UTF-8 的单字节内容优先按阿拉伯语 Windows-1256 解码，阿拉伯字母占比过低时退回 Windows-1252。
func DecodeText(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", EncodingUTF8, nil
	}

	// 检查 BOM
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), EncodingUTF8BOM, nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		text, err := decode(data[2:], xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM))
		return text, EncodingUTF16LE, err
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		text, err := decode(data[2:], xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM))
		return text, EncodingUTF16BE, err
	}

	if utf8.Valid(data) {
		return string(data), EncodingUTF8, nil
	}

	text, err := decode(data, charmap.Windows1256)
	if err == nil && arabicRatio(text) >= 0.5 {
		return text, EncodingWindows1256, nil
	}

	text, err = decode(data, charmap.Windows1252)
	return text, EncodingWindows1252, err
}

func decode(data []byte, enc encoding.Encoding) (string, error) {
	res, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(res), nil
}

// arabicRatio 阿拉伯字母在所有字母中的占比
func arabicRatio(text string) float64 {
	letters, arabic := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Arabic, r) {
			arabic++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(arabic) / float64(letters)
}
