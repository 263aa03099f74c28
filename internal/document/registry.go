package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry 格式提取器注册表
type Registry struct {
	mu         sync.RWMutex
	extractors map[Format]Extractor
	extensions map[string]Format
	logger     *zap.Logger
}

// NewRegistry 创建注册了文本、Markdown、HTML 提取器的注册表
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		extractors: make(map[Format]Extractor),
		extensions: make(map[string]Format),
		logger:     logger,
	}

	r.Register(NewTextExtractor())
	r.Register(NewMarkdownExtractor())
	r.Register(NewHTMLExtractor())

	// Markdown
	r.RegisterExtension(".md", FormatMarkdown)
	r.RegisterExtension(".markdown", FormatMarkdown)
	r.RegisterExtension(".mdown", FormatMarkdown)
	r.RegisterExtension(".mkd", FormatMarkdown)

	// Text
	r.RegisterExtension(".txt", FormatText)
	r.RegisterExtension(".text", FormatText)

	// HTML
	r.RegisterExtension(".html", FormatHTML)
	r.RegisterExtension(".htm", FormatHTML)
	r.RegisterExtension(".xhtml", FormatHTML)

	return r
}

// Register 注册提取器，同一格式后注册的覆盖先注册的
func (r *Registry) Register(extractor Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[extractor.Format()] = extractor
}

// RegisterExtension 注册文件扩展名映射
func (r *Registry) RegisterExtension(ext string, format Format) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 标准化扩展名（去除点号，转小写）
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	r.extensions[ext] = format
}

// DetectFormat 根据扩展名判断格式，未知扩展名时嗅探内容
func (r *Registry) DetectFormat(filename, content string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))

	r.mu.RLock()
	format, exists := r.extensions[ext]
	r.mu.RUnlock()
	if exists {
		return format
	}

	head := strings.ToLower(strings.TrimSpace(content))
	if len(head) > 512 {
		head = head[:512]
	}
	switch {
	case strings.HasPrefix(head, "<!doctype html"), strings.HasPrefix(head, "<html"),
		strings.Contains(head, "<body"), strings.Contains(head, "<p>"):
		return FormatHTML
	case strings.HasPrefix(head, "---\n"), strings.HasPrefix(head, "# "):
		return FormatMarkdown
	default:
		return FormatText
	}
}

// Extract 解码内容并用对应提取器提取，format 为 FormatAuto 时自动判断
func (r *Registry) Extract(data []byte, filename string, format Format) (*Document, error) {
	content, enc, err := DecodeText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", displayName(filename), err)
	}

	if format == "" || format == FormatAuto {
		format = r.DetectFormat(filename, content)
	}

	r.mu.RLock()
	extractor, exists := r.extractors[format]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("no extractor registered for format: %s", format)
	}

	doc, err := extractor.Extract(content)
	if err != nil {
		return nil, err
	}
	doc.Encoding = enc

	r.logger.Debug("document extracted",
		zap.String("file", displayName(filename)),
		zap.String("format", string(format)),
		zap.String("encoding", enc),
		zap.Int("paragraphs", len(doc.Paragraphs)))

	return doc, nil
}

// LoadFile 读取并提取文件
func (r *Registry) LoadFile(path string, format Format) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return r.Extract(data, path, format)
}

func displayName(filename string) string {
	if filename == "" || filename == "-" {
		return "stdin"
	}
	return filename
}
