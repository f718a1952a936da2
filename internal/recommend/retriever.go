package recommend

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

// ResumeSearcher 候选召回所依赖的搜索能力
type ResumeSearcher interface {
	Search(ctx context.Context, query string, limit int, filter types.ResumeFilter) ([]types.SearchResult, error)
}

var _ ResumeSearcher = (*ResumeStore)(nil)

// CandidateRetriever 按过滤条件召回候选简历。
// 下游有活跃重排阶段时按放大倍数多召回，给重排留出重新排序的空间。
type CandidateRetriever struct {
	searcher        ResumeSearcher
	overfetchFactor int
}

// NewCandidateRetriever 创建候选召回器，factor非法时回退为4
func NewCandidateRetriever(searcher ResumeSearcher, overfetchFactor int) (*CandidateRetriever, error) {
	if searcher == nil {
		return nil, fmt.Errorf("searcher不能为空")
	}
	if overfetchFactor <= 0 {
		overfetchFactor = 4
	}
	return &CandidateRetriever{
		searcher:        searcher,
		overfetchFactor: overfetchFactor,
	}, nil
}

// Retrieve 召回候选。expand为true时按放大倍数召回k×factor个，
// 否则精确召回k个。搜索错误是硬错误，直接传播。
func (r *CandidateRetriever) Retrieve(ctx context.Context, query string, filter types.ResumeFilter, k int, expand bool) ([]types.SearchResult, error) {
	ctx, span := recommendTracer.Start(ctx, "CandidateRetriever.Retrieve",
		trace.WithAttributes(
			attribute.Int("retrieve.top_k", k),
			attribute.Bool("retrieve.overfetch", expand),
			attribute.Bool("filter.empty", filter.IsEmpty()),
		))
	defer span.End()

	if k <= 0 {
		err := fmt.Errorf("k必须为正数: %d", k)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	limit := k
	if expand {
		limit = k * r.overfetchFactor
	}
	span.SetAttributes(attribute.Int("retrieve.limit", limit))

	results, err := r.searcher.Search(ctx, query, limit, filter)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieve.result_count", len(results)))
	return results, nil
}
