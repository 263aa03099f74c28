package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Registry 后端注册表，后端在启动时创建一次，之后被所有请求复用
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
}

// NewRegistry 创建新的注册表
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
	}
}

// Register 注册后端
func (r *Registry) Register(name string, backend Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[name]; exists {
		return fmt.Errorf("backend %s already registered", name)
	}

	r.backends[name] = backend
	return nil
}

// Get 获取后端，名称不存在时在错误中给出相近的候选
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	backend, exists := r.backends[name]
	if !exists {
		if suggestions := r.suggest(name); len(suggestions) > 0 {
			return nil, fmt.Errorf("backend %s not found, did you mean: %s", name, strings.Join(suggestions, ", "))
		}
		return nil, fmt.Errorf("backend %s not found", name)
	}

	return backend, nil
}

// Summarizer 获取支持摘要的后端
func (r *Registry) Summarizer(name string) (SummarizationBackend, error) {
	backend, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	s, ok := backend.(SummarizationBackend)
	if !ok || !backend.Capabilities().Summarize {
		return nil, fmt.Errorf("backend %s does not support summarization", name)
	}
	return s, nil
}

// Translator 获取支持翻译的后端
func (r *Registry) Translator(name string) (TranslationBackend, error) {
	backend, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	t, ok := backend.(TranslationBackend)
	if !ok || !backend.Capabilities().Translate {
		return nil, fmt.Errorf("backend %s does not support translation", name)
	}
	return t, nil
}

// List 按名称排序列出所有后端
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Remove 移除后端
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.backends, name)
}

// suggest 调用方需持有读锁
func (r *Registry) suggest(name string) []string {
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}

	ranks := fuzzy.RankFindNormalizedFold(name, names)
	sort.Sort(ranks)

	seen := make(map[string]bool)
	var out []string
	for _, rank := range ranks {
		out = append(out, rank.Target)
		seen[rank.Target] = true
	}

	// 拼写错误不一定是子序列，再按编辑距离补充
	sort.Strings(names)
	for _, n := range names {
		if !seen[n] && fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(n)) <= 2 {
			out = append(out, n)
		}
	}

	return out
}
