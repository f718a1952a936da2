package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

// Recommender 推荐流水线编排：过滤器提取 → 候选召回 → 重排。
// 提取阶段静默降级，召回与重排阶段的错误直接向调用方传播。
type Recommender struct {
	filterExtractor *extractor.QueryFilterExtractor
	retriever       *CandidateRetriever
	reranker        Reranker
	rerankActive    bool // 交叉编码器重排启用时召回阶段放大召回量
	topK            int
	llmTimeout      time.Duration
}

// NewRecommender 创建推荐器。
// rerankActive指示reranker是否为真实的重排阶段（直通截断不算）。
func NewRecommender(
	filterExtractor *extractor.QueryFilterExtractor,
	retriever *CandidateRetriever,
	reranker Reranker,
	rerankActive bool,
	topK int,
	llmTimeout time.Duration,
) (*Recommender, error) {
	if filterExtractor == nil {
		return nil, fmt.Errorf("filterExtractor不能为空")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever不能为空")
	}
	if reranker == nil {
		return nil, fmt.Errorf("reranker不能为空")
	}
	if topK <= 0 {
		topK = 5
	}
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	return &Recommender{
		filterExtractor: filterExtractor,
		retriever:       retriever,
		reranker:        reranker,
		rerankActive:    rerankActive,
		topK:            topK,
		llmTimeout:      llmTimeout,
	}, nil
}

// Recommend 为招聘人员的自然语言消息返回最多topK份匹配简历
func (r *Recommender) Recommend(ctx context.Context, message string) ([]types.SearchResult, error) {
	ctx, span := recommendTracer.Start(ctx, "Recommender.Recommend",
		trace.WithAttributes(
			attribute.String("query.text", tracing.SafeQueryText(message)),
			attribute.Int("recommend.top_k", r.topK),
		))
	defer span.End()

	if strings.TrimSpace(message) == "" {
		err := fmt.Errorf("查询消息不能为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	// 过滤器提取有独立的LLM超时，失败时内部降级为无约束过滤器
	extractCtx, cancel := context.WithTimeout(ctx, r.llmTimeout)
	filter := r.filterExtractor.ExtractFilter(extractCtx, message)
	cancel()

	span.SetAttributes(attribute.Bool("filter.empty", filter.IsEmpty()))

	candidates, err := r.retriever.Retrieve(ctx, message, filter, r.topK, r.rerankActive)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, fmt.Errorf("候选召回失败: %w", err)
	}

	results, err := r.reranker.Rerank(ctx, message, candidates, r.topK)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, fmt.Errorf("重排失败: %w", err)
	}

	logger.Debug().
		Int("candidates", len(candidates)).
		Int("results", len(results)).
		Bool("filter_empty", filter.IsEmpty()).
		Msg("推荐流水线完成")

	span.SetAttributes(attribute.Int("recommend.result_count", len(results)))
	return results, nil
}
