package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service 文本处理流水线：分块 → 逐块调用模型 → 聚合。
// Service 不保存任何请求级状态，可被多个 goroutine 并发使用。
type Service struct {
	config   *Config
	options  serviceOptions
	detector *Detector
	stats    *StatsCalculator
	logger   *zap.Logger
}

// New 创建新的流水线服务
func New(config *Config, opts ...Option) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("pipeline config is nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}

	options := serviceOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := config.Clone()
	return &Service{
		config:   cfg,
		options:  options,
		detector: NewDetector(cfg),
		stats:    NewStatsCalculator(cfg.ReadingSpeedWPM),
		logger:   logger,
	}, nil
}

// Config 返回配置的拷贝
func (s *Service) Config() *Config {
	return s.config.Clone()
}

// Process 按任务类型分派到摘要或翻译
func (s *Service) Process(ctx context.Context, text string, task Task) (*Outcome, error) {
	switch t := task.(type) {
	case SummarizeTask:
		return s.Summarize(ctx, text, t)
	case *SummarizeTask:
		if t != nil {
			return s.Summarize(ctx, text, *t)
		}
	case TranslateTask:
		return s.Translate(ctx, text, t)
	case *TranslateTask:
		if t != nil {
			return s.Translate(ctx, text, *t)
		}
	}
	return nil, invalidInput("unsupported task %T", task)
}

// Summarize 生成摘要。长度范围作用于每个片段，而不是合并后的全文；
// 任一片段失败则整个请求失败，不返回部分结果。
func (s *Service) Summarize(ctx context.Context, text string, task SummarizeTask) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput("text is empty")
	}

	minLength, maxLength := task.MinLength, task.MaxLength
	if minLength == 0 {
		minLength = s.config.DefaultMinLength
	}
	if maxLength == 0 {
		maxLength = s.config.DefaultMaxLength
	}
	if minLength <= 0 || minLength >= maxLength {
		return nil, invalidInput("length bounds must satisfy 0 < min_length < max_length, got min=%d max=%d", minLength, maxLength)
	}

	summarizer := s.options.summarizer
	if summarizer == nil {
		return nil, noModelService("summarization")
	}

	chunks, err := Split(text, s.config.SummarizeChunkLength)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("request_id", uuid.New().String()), zap.String("mode", "summarize"))
	log.Debug("开始摘要",
		zap.Int("chunks", len(chunks)),
		zap.Int("min_length", minLength),
		zap.Int("max_length", maxLength))

	results, err := s.dispatch(ctx, log, chunks, func(ctx context.Context, content string) (string, error) {
		return summarizer.SummarizeChunk(ctx, content, minLength, maxLength)
	})
	if err != nil {
		return nil, err
	}

	mode := ModeSummary
	if task.BulletPoints {
		mode = ModeBullets
	}
	return Aggregate(results, mode)
}

// Translate 翻译文本，只支持英语与阿拉伯语互译
func (s *Service) Translate(ctx context.Context, text string, task TranslateTask) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput("text is empty")
	}

	dir, err := ResolveDirection(task.Source, task.Target)
	if err != nil {
		return nil, err
	}

	translator := s.options.translator
	if translator == nil {
		return nil, noModelService("translation")
	}

	chunks, err := Split(text, s.config.TranslateChunkLength)
	if err != nil {
		return nil, err
	}

	log := s.logger.With(zap.String("request_id", uuid.New().String()), zap.String("mode", "translate"))
	log.Debug("开始翻译", zap.Int("chunks", len(chunks)), zap.String("direction", string(dir)))

	results, err := s.dispatch(ctx, log, chunks, func(ctx context.Context, content string) (string, error) {
		return translator.TranslateChunk(ctx, content, dir)
	})
	if err != nil {
		return nil, err
	}

	return AggregateWithSeparators(results, ModeTranslation, Separators(chunks))
}

// DetectLanguage 截取样本后检测语言，永不失败
func (s *Service) DetectLanguage(text string) LanguageVerdict {
	return s.detector.Detect(truncateRunes(text, s.config.DetectionSampleSize))
}

// ComputeStats 计算文本统计
func (s *Service) ComputeStats(text string) TextStats {
	return s.stats.Compute(text)
}

// dispatch 以有限并发逐块调用模型。第一个失败会取消尚未开始的片段；
// 结果按片段序号写入，聚合时再次排序。
func (s *Service) dispatch(
	parent context.Context,
	log *zap.Logger,
	chunks []Chunk,
	call func(ctx context.Context, content string) (string, error),
) ([]ChunkResult, error) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	results := make([]ChunkResult, len(chunks))
	jobs := make(chan Chunk)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		firstErr  error
		completed int
	)

	workers := min(s.config.MaxConcurrency, len(chunks))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chunk := range jobs {
				if ctx.Err() != nil {
					continue
				}

				output, err := s.callChunk(ctx, log, chunk, call)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = modelFailure(chunk.Index, err)
						cancel()
					}
				} else {
					results[chunk.Index] = ChunkResult{Index: chunk.Index, Output: output}
					completed++
					s.reportProgress(completed, len(chunks))
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for _, chunk := range chunks {
		select {
		case jobs <- chunk:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		log.Warn("片段调用失败，放弃整个请求", zap.Error(firstErr))
		return nil, firstErr
	}
	if completed < len(chunks) {
		return nil, &Error{Code: ErrCodeModel, Message: "request cancelled", Chunk: -1, Cause: parent.Err()}
	}

	return results, nil
}

// callChunk 调用单个片段，必要时附加超时
func (s *Service) callChunk(
	ctx context.Context,
	log *zap.Logger,
	chunk Chunk,
	call func(ctx context.Context, content string) (string, error),
) (string, error) {
	if s.config.ChunkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ChunkTimeout)
		defer cancel()
	}

	start := time.Now()
	output, err := call(ctx, strings.TrimSpace(chunk.Content))
	log.Debug("片段处理完成",
		zap.Int("chunk", chunk.Index),
		zap.Int("input_chars", len([]rune(chunk.Content))),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))

	return output, err
}

func (s *Service) reportProgress(completed, total int) {
	if s.options.progressCallback == nil {
		return
	}
	s.options.progressCallback(&Progress{
		Total:     total,
		Completed: completed,
		Percent:   float64(completed) / float64(total) * 100,
	})
}

// truncateRunes 截取前 n 个字符
func truncateRunes(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i := range text {
		if count == n {
			return text[:i]
		}
		count++
	}
	return text
}
