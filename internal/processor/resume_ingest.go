package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/parser"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var processorTracer = otel.Tracer("resume-match-go/processor")

// ErrDuplicateContent 简历文本内容与此前入库的某份简历完全相同
var ErrDuplicateContent = errors.New("简历内容重复")

// ResumeUpserter 向量存储的写入能力，由recommend.ResumeStore实现
type ResumeUpserter interface {
	Upsert(ctx context.Context, record types.ResumeRecord) (string, error)
}

// Deduplicator 文本MD5去重能力，由storage.Redis实现
type Deduplicator interface {
	CheckAndAddResumeTextMD5(ctx context.Context, md5Hex string) (bool, error)
	RemoveResumeTextMD5(ctx context.Context, md5Hex string) error
}

// AuditStore 入库审计能力，由storage.MySQL实现
type AuditStore interface {
	CreateResumeIngestion(ctx context.Context, record *models.ResumeIngestion) error
	UpdateEmbeddingStatus(ctx context.Context, ingestionID string, status string) error
}

// EventPublisher 处理完成事件发布能力，由storage.RabbitMQ实现
type EventPublisher interface {
	PublishResumeProcessed(ctx context.Context, event storage.ResumeProcessedEvent) error
}

// IngestResult 一次简历入库的同步产出。
// Duplicate为true时其余字段无意义，未做任何提取。
type IngestResult struct {
	ResumeID    string
	IngestionID string
	Info        types.ResumeInfo
	Summary     string
	TextMD5     string
	Duplicate   bool
}

// ResumeIngestService 简历入库服务：加载PDF→去重→LLM提取→审计，
// 向量写入由StoreEmbeddingAsync在响应返回后异步完成。
// dedup/audit/events均可为nil，对应能力降级。
type ResumeIngestService struct {
	loader       parser.ResumeLoader
	extractor    *extractor.ContentExtractor
	store        ResumeUpserter
	dedup        Deduplicator
	audit        AuditStore
	events       EventPublisher
	llmTimeout   time.Duration
	embedTimeout time.Duration
}

// IngestOption 可选依赖注入
type IngestOption func(*ResumeIngestService)

// WithDeduplicator 启用文本去重
func WithDeduplicator(dedup Deduplicator) IngestOption {
	return func(s *ResumeIngestService) { s.dedup = dedup }
}

// WithAuditStore 启用入库审计
func WithAuditStore(audit AuditStore) IngestOption {
	return func(s *ResumeIngestService) { s.audit = audit }
}

// WithEventPublisher 启用处理完成事件
func WithEventPublisher(events EventPublisher) IngestOption {
	return func(s *ResumeIngestService) { s.events = events }
}

// WithEmbedTimeout 设置异步向量写入的超时
func WithEmbedTimeout(timeout time.Duration) IngestOption {
	return func(s *ResumeIngestService) {
		if timeout > 0 {
			s.embedTimeout = timeout
		}
	}
}

// NewResumeIngestService 创建简历入库服务
func NewResumeIngestService(
	loader parser.ResumeLoader,
	contentExtractor *extractor.ContentExtractor,
	store ResumeUpserter,
	llmTimeout time.Duration,
	opts ...IngestOption,
) (*ResumeIngestService, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader不能为空")
	}
	if contentExtractor == nil {
		return nil, fmt.Errorf("contentExtractor不能为空")
	}
	if store == nil {
		return nil, fmt.Errorf("store不能为空")
	}
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}

	s := &ResumeIngestService{
		loader:       loader,
		extractor:    contentExtractor,
		store:        store,
		llmTimeout:   llmTimeout,
		embedTimeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ProcessResume 同步部分的入库流程。
// 返回的IngestResult.Duplicate为true表示该内容此前已入库，调用方不应再触发向量写入。
func (s *ResumeIngestService) ProcessResume(ctx context.Context, userID, resumeID, filePath string) (*IngestResult, error) {
	ctx, span := processorTracer.Start(ctx, "ResumeIngestService.ProcessResume",
		trace.WithAttributes(
			attribute.String("resume.id", resumeID),
			attribute.String("resume.file_path", filePath),
		))
	defer span.End()

	text, err := s.loader.LoadText(ctx, filePath)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, fmt.Errorf("加载简历文件失败: %w", err)
	}
	span.SetAttributes(attribute.Int("resume.text_length", len(text)))

	textMD5 := storage.MD5Hex(text)

	// 去重检查与登记是一个原子操作，Redis故障时去重降级但流程继续
	if s.dedup != nil {
		exists, err := s.dedup.CheckAndAddResumeTextMD5(ctx, textMD5)
		if err != nil {
			logger.Warn().Err(err).Str("resume_id", resumeID).Msg("去重检查失败，本次跳过去重")
		} else if exists {
			span.SetAttributes(attribute.Bool("resume.duplicate", true))
			span.SetStatus(codes.Ok, "duplicate content")
			logger.Info().Str("resume_id", resumeID).Str("text_md5", textMD5).Msg("检测到重复简历内容，跳过处理")
			return &IngestResult{ResumeID: resumeID, TextMD5: textMD5, Duplicate: true}, nil
		}
	}

	extractCtx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	extracted, err := s.extractor.ExtractContent(extractCtx, text)
	cancel()
	if err != nil {
		// 提取失败回滚去重登记，允许同一内容重新提交
		s.rollbackDedup(ctx, textMD5)
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("提取简历信息失败: %w", err)
	}

	result := &IngestResult{
		ResumeID:    resumeID,
		IngestionID: uuid.NewString(),
		Info:        extracted.Info,
		Summary:     extracted.Summary,
		TextMD5:     textMD5,
	}

	// 审计记录失败不阻断入库
	if s.audit != nil {
		extractionJSON, jsonErr := models.StructToJSON(extracted.Info)
		if jsonErr != nil {
			logger.Warn().Err(jsonErr).Str("resume_id", resumeID).Msg("序列化提取结果失败")
		}
		record := &models.ResumeIngestion{
			IngestionID:    result.IngestionID,
			ResumeID:       resumeID,
			UserID:         userID,
			FilePath:       filePath,
			TextMD5:        textMD5,
			ApplicantName:  extracted.Info.ApplicantName,
			JobCategory:    string(extracted.Info.JobCategory),
			Years:          string(extracted.Info.Years),
			Language:       string(extracted.Info.Language),
			ExtractionJSON: extractionJSON,
		}
		if err := s.audit.CreateResumeIngestion(ctx, record); err != nil {
			logger.Warn().Err(err).Str("resume_id", resumeID).Msg("写入入库审计记录失败")
		}
	}

	span.SetAttributes(
		attribute.String("resume.applicant_name", tracing.SafeAttributeValue("applicant_name", extracted.Info.ApplicantName, tracing.DefaultMaxLength)),
		attribute.String("resume.job_category", string(extracted.Info.JobCategory)),
		attribute.String("resume.years", string(extracted.Info.Years)),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

// StoreEmbeddingAsync 在后台goroutine中完成向量写入。
// 使用与请求脱钩的新context，失败只记日志并回滚去重登记，从不影响已返回的响应。
func (s *ResumeIngestService) StoreEmbeddingAsync(result *IngestResult, userID, filePath string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.embedTimeout)
		defer cancel()

		if err := s.storeEmbedding(ctx, result, userID, filePath); err != nil {
			logger.Error().Err(err).
				Str("resume_id", result.ResumeID).
				Msg("后台向量写入失败")
		}
	}()
}

// storeEmbedding 向量写入 + 审计状态更新 + 事件发布
func (s *ResumeIngestService) storeEmbedding(ctx context.Context, result *IngestResult, userID, filePath string) error {
	ctx, span := processorTracer.Start(ctx, "ResumeIngestService.StoreEmbedding",
		trace.WithAttributes(attribute.String("resume.id", result.ResumeID)))
	defer span.End()

	record := types.ResumeRecord{
		ResumeID:      result.ResumeID,
		Content:       result.Summary,
		ApplicantName: result.Info.ApplicantName,
		JobCategory:   result.Info.JobCategory,
		Years:         result.Info.Years,
		Language:      result.Info.Language,
	}

	if _, err := s.store.Upsert(ctx, record); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		s.updateAuditStatus(ctx, result.IngestionID, models.EmbeddingStatusFailed)
		s.rollbackDedup(ctx, result.TextMD5)
		return fmt.Errorf("写入简历向量失败: %w", err)
	}

	s.updateAuditStatus(ctx, result.IngestionID, models.EmbeddingStatusStored)

	if s.events != nil {
		event := storage.ResumeProcessedEvent{
			ResumeID:      result.ResumeID,
			UserID:        userID,
			FilePath:      filePath,
			ApplicantName: result.Info.ApplicantName,
			JobCategory:   string(result.Info.JobCategory),
			Years:         string(result.Info.Years),
			Language:      string(result.Info.Language),
			TextMD5:       result.TextMD5,
			ProcessedAt:   time.Now(),
		}
		if err := s.events.PublishResumeProcessed(ctx, event); err != nil {
			// 事件是尽力而为的通知，丢失不影响入库结果
			logger.Warn().Err(err).Str("resume_id", result.ResumeID).Msg("发布简历处理完成事件失败")
		}
	}

	span.SetStatus(codes.Ok, "")
	logger.Info().Str("resume_id", result.ResumeID).Msg("简历向量写入完成")
	return nil
}

func (s *ResumeIngestService) updateAuditStatus(ctx context.Context, ingestionID, status string) {
	if s.audit == nil || ingestionID == "" {
		return
	}
	if err := s.audit.UpdateEmbeddingStatus(ctx, ingestionID, status); err != nil {
		logger.Warn().Err(err).
			Str("ingestion_id", ingestionID).
			Str("status", status).
			Msg("更新审计状态失败")
	}
}

func (s *ResumeIngestService) rollbackDedup(ctx context.Context, textMD5 string) {
	if s.dedup == nil || textMD5 == "" {
		return
	}
	if err := s.dedup.RemoveResumeTextMD5(ctx, textMD5); err != nil {
		logger.Warn().Err(err).Str("text_md5", textMD5).Msg("回滚去重登记失败")
	}
}
