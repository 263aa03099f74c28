package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"
)

// Operation 被统计的调用类型
type Operation string

const (
	OpSummarize Operation = "summarize"
	OpTranslate Operation = "translate"
)

// ProviderStats 单个后端与模型的调用统计
type ProviderStats struct {
	ProviderName        string `json:"provider_name"`
	ModelName           string `json:"model_name"`
	TotalRequests       int64  `json:"total_requests"`
	SuccessfulRequests  int64  `json:"successful_requests"`
	FailedRequests      int64  `json:"failed_requests"`
	SummarizeRequests   int64  `json:"summarize_requests"`
	TranslateRequests   int64  `json:"translate_requests"`
	TotalCharsIn        int64  `json:"total_chars_in"`
	TotalCharsOut       int64  `json:"total_chars_out"`
	UntranslatedOutputs int64  `json:"untranslated_outputs"` // 译文与原文几乎相同的次数

	AverageLatency time.Duration `json:"average_latency"`
	MinLatency     time.Duration `json:"min_latency"`
	MaxLatency     time.Duration `json:"max_latency"`
	TotalLatency   time.Duration `json:"total_latency"`

	ErrorTypes map[string]int64 `json:"error_types"`

	FirstRequestTime time.Time `json:"first_request_time"`
	LastRequestTime  time.Time `json:"last_request_time"`

	mu sync.RWMutex
}

// RequestResult 单次请求结果
type RequestResult struct {
	Operation    Operation
	Success      bool
	Latency      time.Duration
	CharsIn      int
	CharsOut     int
	ErrorType    string
	Untranslated bool
}

// Manager 统计管理器
type Manager struct {
	stats  map[string]*ProviderStats // key: provider:model
	path   string
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewManager 创建统计管理器，path 为空时不做持久化
func NewManager(path string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		stats:  make(map[string]*ProviderStats),
		path:   path,
		logger: logger,
	}
}

func key(provider, model string) string {
	return fmt.Sprintf("%s:%s", provider, model)
}

func (m *Manager) getOrCreate(provider, model string) *ProviderStats {
	k := key(provider, model)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, exists := m.stats[k]; exists {
		return s
	}

	s := &ProviderStats{
		ProviderName: provider,
		ModelName:    model,
		ErrorTypes:   make(map[string]int64),
	}
	m.stats[k] = s
	return s
}

// RecordRequest 记录请求结果
func (m *Manager) RecordRequest(provider, model string, result RequestResult) {
	s := m.getOrCreate(provider, model)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.FirstRequestTime.IsZero() {
		s.FirstRequestTime = now
	}
	s.LastRequestTime = now

	s.TotalRequests++
	switch result.Operation {
	case OpSummarize:
		s.SummarizeRequests++
	case OpTranslate:
		s.TranslateRequests++
	}

	if result.Success {
		s.SuccessfulRequests++
	} else {
		s.FailedRequests++
		if result.ErrorType != "" {
			s.ErrorTypes[result.ErrorType]++
		}
	}

	s.TotalCharsIn += int64(result.CharsIn)
	s.TotalCharsOut += int64(result.CharsOut)
	if result.Untranslated {
		s.UntranslatedOutputs++
	}

	s.TotalLatency += result.Latency
	if s.TotalRequests == 1 || result.Latency < s.MinLatency {
		s.MinLatency = result.Latency
	}
	if result.Latency > s.MaxLatency {
		s.MaxLatency = result.Latency
	}
	s.AverageLatency = s.TotalLatency / time.Duration(s.TotalRequests)
}

// GetStats 获取指定后端的统计副本，不存在时返回 nil
func (m *Manager) GetStats(provider, model string) *ProviderStats {
	m.mu.RLock()
	s, exists := m.stats[key(provider, model)]
	m.mu.RUnlock()

	if !exists {
		return nil
	}
	return s.clone()
}

// GetAllStats 获取所有统计信息
func (m *Manager) GetAllStats() map[string]*ProviderStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*ProviderStats, len(m.stats))
	for k, s := range m.stats {
		result[k] = s.clone()
	}
	return result
}

func (ps *ProviderStats) clone() *ProviderStats {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	c := &ProviderStats{
		ProviderName:        ps.ProviderName,
		ModelName:           ps.ModelName,
		TotalRequests:       ps.TotalRequests,
		SuccessfulRequests:  ps.SuccessfulRequests,
		FailedRequests:      ps.FailedRequests,
		SummarizeRequests:   ps.SummarizeRequests,
		TranslateRequests:   ps.TranslateRequests,
		TotalCharsIn:        ps.TotalCharsIn,
		TotalCharsOut:       ps.TotalCharsOut,
		UntranslatedOutputs: ps.UntranslatedOutputs,
		AverageLatency:      ps.AverageLatency,
		MinLatency:          ps.MinLatency,
		MaxLatency:          ps.MaxLatency,
		TotalLatency:        ps.TotalLatency,
		ErrorTypes:          make(map[string]int64, len(ps.ErrorTypes)),
		FirstRequestTime:    ps.FirstRequestTime,
		LastRequestTime:     ps.LastRequestTime,
	}
	for k, v := range ps.ErrorTypes {
		c.ErrorTypes[k] = v
	}
	return c
}

// SuccessRate 成功率（百分比）
func (ps *ProviderStats) SuccessRate() float64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.TotalRequests == 0 {
		return 0
	}
	return float64(ps.SuccessfulRequests) / float64(ps.TotalRequests) * 100
}

// CompressionRatio 输出字符数与输入字符数之比
func (ps *ProviderStats) CompressionRatio() float64 {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	if ps.TotalCharsIn == 0 {
		return 0
	}
	return float64(ps.TotalCharsOut) / float64(ps.TotalCharsIn)
}

// Save 原子地写入 JSON 统计文件
func (m *Manager) Save() error {
	if m.path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	data, err := json.MarshalIndent(m.GetAllStats(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats data: %w", err)
	}

	tempPath := m.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := os.Rename(tempPath, m.path); err != nil {
		return fmt.Errorf("failed to rename stats file: %w", err)
	}

	m.logger.Debug("stats saved", zap.String("path", m.path))
	return nil
}

// Load 读取统计文件并与内存中的统计合并，文件不存在时不报错
func (m *Manager) Load() error {
	if m.path == "" {
		return nil
	}

	data, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		m.logger.Debug("stats file not found, starting fresh", zap.String("path", m.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	var loaded map[string]*ProviderStats
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal stats data: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, s := range loaded {
		if s.ErrorTypes == nil {
			s.ErrorTypes = make(map[string]int64)
		}
		m.stats[k] = s
	}

	m.logger.Debug("stats loaded", zap.String("path", m.path), zap.Int("providers", len(loaded)))
	return nil
}

// Reset 清空内存中的统计
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = make(map[string]*ProviderStats)
}

// Render 以表格形式输出统计
func (m *Manager) Render(w io.Writer) {
	all := m.GetAllStats()
	if len(all) == 0 {
		fmt.Fprintln(w, "No statistics available.")
		return
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Provider", "Model", "Requests", "Success%", "Summarize", "Translate", "Avg Latency", "Chars In", "Chars Out", "Errors"})

	for _, k := range keys {
		s := all[k]
		var errors int64
		for _, n := range s.ErrorTypes {
			errors += n
		}
		t.AppendRow(table.Row{
			s.ProviderName,
			s.ModelName,
			s.TotalRequests,
			fmt.Sprintf("%.1f", s.SuccessRate()),
			s.SummarizeRequests,
			s.TranslateRequests,
			s.AverageLatency.Round(time.Millisecond),
			s.TotalCharsIn,
			s.TotalCharsOut,
			errors,
		})
	}
	t.Render()
}

// AutoSave 定期保存统计数据，ctx 结束时做最后一次保存
func (m *Manager) AutoSave(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := m.Save(); err != nil {
				m.logger.Error("failed to save stats on shutdown", zap.Error(err))
			}
			return
		case <-ticker.C:
			if err := m.Save(); err != nil {
				m.logger.Error("failed to auto-save stats", zap.Error(err))
			}
		}
	}
}
