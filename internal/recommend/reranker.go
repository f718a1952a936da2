package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/config"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

// Reranker 对召回结果做重排，只做子集选择与排序，不产生新结果。
// 分数是无界浮点数，仅用于同一次调用内的相对比较。
type Reranker interface {
	Rerank(ctx context.Context, query string, results []types.SearchResult, k int) ([]types.SearchResult, error)
}

// PassthroughReranker 保持召回顺序，截断到k。
// 对同一输入重复调用产生完全相同的输出。
type PassthroughReranker struct{}

// NewPassthroughReranker 创建直通重排器
func NewPassthroughReranker() *PassthroughReranker {
	return &PassthroughReranker{}
}

// Rerank 原样截断前k个结果
func (r *PassthroughReranker) Rerank(ctx context.Context, query string, results []types.SearchResult, k int) ([]types.SearchResult, error) {
	if k < 0 {
		return nil, fmt.Errorf("k不能为负数: %d", k)
	}
	if len(results) > k {
		results = results[:k]
	}
	out := make([]types.SearchResult, len(results))
	copy(out, results)
	return out, nil
}

var _ Reranker = (*PassthroughReranker)(nil)
var _ Reranker = (*CrossEncoderReranker)(nil)

// CrossEncoderReranker 调用外部交叉编码器服务打分后重排。
// 与过滤器提取不同，重排服务不可用是硬错误，直接向调用方传播。
type CrossEncoderReranker struct {
	serviceURL string
	httpClient *http.Client
}

var rerankTracer = otel.Tracer("resume-match-go/recommend/rerank")

// NewCrossEncoderReranker 创建交叉编码器重排器
func NewCrossEncoderReranker(cfg *config.RerankerConfig) (*CrossEncoderReranker, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("重排服务URL不能为空")
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CrossEncoderReranker{
		serviceURL: cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// rerankRequest 发送给重排服务的请求体：查询与每个候选内容配对打分
type rerankRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

type rerankResponse struct {
	Scores []float32 `json:"scores"`
}

// Rerank 对候选结果按交叉编码器分数降序稳定排序并截断到k
func (r *CrossEncoderReranker) Rerank(ctx context.Context, query string, results []types.SearchResult, k int) ([]types.SearchResult, error) {
	ctx, span := rerankTracer.Start(ctx, "CrossEncoderReranker.Rerank",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("query.text", tracing.SafeQueryText(query)),
			attribute.Int("rerank.candidates", len(results)),
			attribute.Int("rerank.top_k", k),
		))
	defer span.End()

	if k < 0 {
		err := fmt.Errorf("k不能为负数: %d", k)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	if len(results) == 0 {
		return []types.SearchResult{}, nil
	}

	documents := make([]string, len(results))
	for i, res := range results {
		documents[i] = res.Content
	}

	scores, err := r.score(ctx, query, documents)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, fmt.Errorf("重排服务调用失败: %w", err)
	}
	if len(scores) != len(results) {
		err := fmt.Errorf("重排服务返回分数数量不匹配: 期望%d个，得到%d个", len(results), len(scores))
		tracing.RecordErrorWithInfo(span, err, tracing.ErrorTypeExternal,
			attribute.Int("rerank.expected_scores", len(results)),
			attribute.Int("rerank.received_scores", len(scores)))
		return nil, err
	}

	reranked := make([]types.SearchResult, len(results))
	copy(reranked, results)
	for i := range reranked {
		reranked[i].Score = scores[i]
	}

	// 稳定排序：同分保持召回顺序
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	if len(reranked) > k {
		reranked = reranked[:k]
	}
	return reranked, nil
}

// score 调用外部重排服务为(query, document)对打分
func (r *CrossEncoderReranker) score(ctx context.Context, query string, documents []string) ([]float32, error) {
	body, err := json.Marshal(rerankRequest{Query: query, Documents: documents})
	if err != nil {
		return nil, fmt.Errorf("序列化重排请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.serviceURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建重排请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 传播trace上下文到重排服务
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求重排服务失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取重排响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("重排服务返回状态码 %d: %s", resp.StatusCode, tracing.TruncateString(string(respBody), 200))
	}

	var parsed rerankResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("解析重排响应失败: %w", err)
	}
	return parsed.Scores, nil
}
