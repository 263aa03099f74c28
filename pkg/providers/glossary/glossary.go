// Package glossary 为翻译后端提供预定义译文覆盖：与词条完全一致的片段直接返回预定义译文，不调用模型。
package glossary

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/nerdneilsfield/go-textai/internal/config"
	"github.com/nerdneilsfield/go-textai/pkg/pipeline"
	"github.com/nerdneilsfield/go-textai/pkg/providers"
)

// Glossary 按翻译方向保存的预定义译文，键已归一化
type Glossary struct {
	entries map[pipeline.Direction]map[string]string
}

// New 创建空词汇表
func New() *Glossary {
	return &Glossary{entries: make(map[pipeline.Direction]map[string]string)}
}

// FromPredefined 从 TOML 预定义译文构建词汇表，语言对必须是英阿互译
func FromPredefined(pt *config.PredefinedTranslation) (*Glossary, error) {
	dir, err := pipeline.ResolveDirection(pt.SourceLang, pt.TargetLang)
	if err != nil {
		return nil, fmt.Errorf("invalid glossary language pair: %w", err)
	}

	g := New()
	for source, target := range pt.Translations {
		g.Add(dir, source, target)
	}
	return g, nil
}

// Load 读取 TOML 文件并构建词汇表
func Load(path string) (*Glossary, error) {
	pt, err := config.LoadPredefinedTranslations(path)
	if err != nil {
		return nil, err
	}
	return FromPredefined(pt)
}

// Add 添加词条，空词条被忽略
func (g *Glossary) Add(dir pipeline.Direction, source, target string) {
	k := normalize(source)
	if k == "" {
		return
	}
	if g.entries[dir] == nil {
		g.entries[dir] = make(map[string]string)
	}
	g.entries[dir][k] = target
}

// Lookup 查找与片段完全一致的词条（忽略大小写与多余空白）
func (g *Glossary) Lookup(dir pipeline.Direction, text string) (string, bool) {
	t, ok := g.entries[dir][normalize(text)]
	return t, ok
}

// Len 词条总数
func (g *Glossary) Len() int {
	n := 0
	for _, e := range g.entries {
		n += len(e)
	}
	return n
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Translator 在翻译后端之前查询词汇表
type Translator struct {
	next     providers.TranslationBackend
	glossary *Glossary
	hits     atomic.Int64
}

var _ providers.TranslationBackend = (*Translator)(nil)

// Wrap 创建带词汇表的翻译后端
func Wrap(next providers.TranslationBackend, g *Glossary) *Translator {
	return &Translator{next: next, glossary: g}
}

// TranslateChunk 命中词条时返回预定义译文，否则交给下游后端
func (t *Translator) TranslateChunk(ctx context.Context, text string, dir pipeline.Direction) (string, error) {
	if out, ok := t.glossary.Lookup(dir, text); ok {
		t.hits.Add(1)
		return out, nil
	}
	return t.next.TranslateChunk(ctx, text, dir)
}

// Hits 命中次数
func (t *Translator) Hits() int64 {
	return t.hits.Load()
}

// Name 下游后端名称
func (t *Translator) Name() string {
	return t.next.Name()
}

// Capabilities 下游后端能力
func (t *Translator) Capabilities() providers.Capabilities {
	return t.next.Capabilities()
}

// HealthCheck 下游后端健康检查
func (t *Translator) HealthCheck(ctx context.Context) error {
	return t.next.HealthCheck(ctx)
}
