package recommend

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var recommendTracer = otel.Tracer("resume-match-go/recommend")

// ResumeStore 在向量数据库之上提供以简历为单位的读写视图。
// 向量由Content在写入时计算，调用方不接触embedding。
type ResumeStore struct {
	vectorDB storage.VectorDatabase
	embedder embedding.Embedder
}

// NewResumeStore 创建简历存储
func NewResumeStore(vectorDB storage.VectorDatabase, embedder embedding.Embedder) (*ResumeStore, error) {
	if vectorDB == nil {
		return nil, fmt.Errorf("vectorDB不能为空")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder不能为空")
	}
	return &ResumeStore{
		vectorDB: vectorDB,
		embedder: embedder,
	}, nil
}

// Upsert 写入或替换一份简历。同一ResumeID的重复写入会原子替换旧点。
// Embedding失败是硬错误，向调用方传播。
func (s *ResumeStore) Upsert(ctx context.Context, record types.ResumeRecord) (string, error) {
	ctx, span := recommendTracer.Start(ctx, "ResumeStore.Upsert",
		trace.WithAttributes(
			attribute.String("resume.id", record.ResumeID),
			attribute.Int("resume.content_length", len(record.Content)),
			attribute.String("resume.content_preview", tracing.SafeResumeContent(record.Content)),
		))
	defer span.End()

	if record.ResumeID == "" {
		err := fmt.Errorf("resume_id不能为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return "", err
	}
	if record.Content == "" {
		err := fmt.Errorf("简历内容不能为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return "", err
	}

	vector, err := s.embedText(ctx, record.Content)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return "", fmt.Errorf("计算简历向量失败: %w", err)
	}

	pointID, err := s.vectorDB.UpsertResumePoint(ctx, record, vector)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return "", fmt.Errorf("写入简历向量点失败: %w", err)
	}
	return pointID, nil
}

// Search 按语义相似度搜索简历，filter中的所有约束同时生效（AND）。
// 空filter退化为纯相似度搜索。
func (s *ResumeStore) Search(ctx context.Context, query string, limit int, filter types.ResumeFilter) ([]types.SearchResult, error) {
	ctx, span := recommendTracer.Start(ctx, "ResumeStore.Search",
		trace.WithAttributes(
			attribute.String("query.text", tracing.SafeQueryText(query)),
			attribute.Int("search.limit", limit),
			attribute.Bool("filter.empty", filter.IsEmpty()),
		))
	defer span.End()

	if limit <= 0 {
		err := fmt.Errorf("limit必须为正数: %d", limit)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	vector, err := s.embedText(ctx, query)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("计算查询向量失败: %w", err)
	}

	raw, err := s.vectorDB.SearchResumes(ctx, vector, limit, filter.Conditions())
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, fmt.Errorf("向量搜索失败: %w", err)
	}

	results := make([]types.SearchResult, 0, len(raw))
	for _, item := range raw {
		results = append(results, fromStorageResult(item))
	}

	span.SetAttributes(attribute.Int("search.result_count", len(results)))
	return results, nil
}

// Get 按resume_id取回一份简历，不存在时返回storage.ErrResumeNotFound
func (s *ResumeStore) Get(ctx context.Context, resumeID string) (*types.SearchResult, error) {
	ctx, span := recommendTracer.Start(ctx, "ResumeStore.Get",
		trace.WithAttributes(attribute.String("resume.id", resumeID)))
	defer span.End()

	raw, err := s.vectorDB.GetResumeByID(ctx, resumeID)
	if err != nil {
		if err != storage.ErrResumeNotFound {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		}
		return nil, err
	}

	result := fromStorageResult(*raw)
	return &result, nil
}

// Delete 删除一份简历的向量点。点不存在时也返回成功，删除是幂等的。
func (s *ResumeStore) Delete(ctx context.Context, resumeID string) error {
	ctx, span := recommendTracer.Start(ctx, "ResumeStore.Delete",
		trace.WithAttributes(attribute.String("resume.id", resumeID)))
	defer span.End()

	if resumeID == "" {
		err := fmt.Errorf("resume_id不能为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return err
	}

	if err := s.vectorDB.DeleteResume(ctx, resumeID); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("删除简历向量点失败: %w", err)
	}
	return nil
}

// embedText 计算单段文本的向量
func (s *ResumeStore) embedText(ctx context.Context, text string) ([]float64, error) {
	vectors, err := s.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedder返回空向量")
	}
	return vectors[0], nil
}

// fromStorageResult 将存储层结果的payload展开为领域结果。
// payload中的枚举字段写入时已是规范小写值，这里直接取用。
func fromStorageResult(item storage.SearchResult) types.SearchResult {
	payload := item.Payload
	return types.SearchResult{
		Metadata: types.ResumeMetadata{
			ResumeID:      payloadString(payload, constants.MetadataKeyResumeID),
			ApplicantName: payloadString(payload, "applicant_name"),
			JobCategory:   types.JobCategory(payloadString(payload, "job_category")),
			Years:         types.ExperienceYears(payloadString(payload, "years")),
			Language:      types.Language(payloadString(payload, "language")),
		},
		Content: payloadString(payload, constants.MetadataKeyContent),
		Score:   item.Score,
	}
}

func payloadString(payload map[string]interface{}, key string) string {
	if payload == nil {
		return ""
	}
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
