package handler

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"resume-match-go/internal/constants"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/recommend"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/types"
)

// QuestionSaver 面试问题留存能力，由storage.MySQL实现，可为nil
type QuestionSaver interface {
	SaveInterviewQuestions(ctx context.Context, resumeID string, questions []types.InterviewQuestion) error
}

// AIHandler AI接口处理器，聚合推荐、问题生成与简历入库能力
type AIHandler struct {
	recommender   *recommend.Recommender
	store         *recommend.ResumeStore
	questionGen   *extractor.QuestionGenerator
	ingestService *processor.ResumeIngestService
	chatModel     model.ChatModel
	questionSaver QuestionSaver
	llmTimeout    time.Duration
}

// NewAIHandler 创建AI接口处理器。questionSaver可为nil，问题留存降级。
func NewAIHandler(
	recommender *recommend.Recommender,
	store *recommend.ResumeStore,
	questionGen *extractor.QuestionGenerator,
	ingestService *processor.ResumeIngestService,
	chatModel model.ChatModel,
	questionSaver QuestionSaver,
	llmTimeout time.Duration,
) *AIHandler {
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	return &AIHandler{
		recommender:   recommender,
		store:         store,
		questionGen:   questionGen,
		ingestService: ingestService,
		chatModel:     chatModel,
		questionSaver: questionSaver,
		llmTimeout:    llmTimeout,
	}
}

// ResumeRecommendRequest 简历推荐请求
type ResumeRecommendRequest struct {
	Message string `json:"message"`
}

// RecommendedResumeResponse 单条推荐结果
type RecommendedResumeResponse struct {
	ResumeID      string  `json:"resume_id"`
	ApplicantName string  `json:"applicant_name"`
	JobCategory   string  `json:"job_category"`
	Years         string  `json:"years"`
	Language      string  `json:"language"`
	Score         float32 `json:"score"`
}

// HandleRecommend 处理 POST /api/ai/recommend
func (h *AIHandler) HandleRecommend(ctx context.Context, c *app.RequestContext) {
	var req ResumeRecommendRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "message不能为空"})
		return
	}

	results, err := h.recommender.Recommend(ctx, req.Message)
	if err != nil {
		logger.Error().Err(err).Msg("简历推荐失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "简历推荐失败"})
		return
	}

	responses := make([]RecommendedResumeResponse, 0, len(results))
	for _, r := range results {
		responses = append(responses, RecommendedResumeResponse{
			ResumeID:      r.Metadata.ResumeID,
			ApplicantName: r.Metadata.ApplicantName,
			JobCategory:   string(r.Metadata.JobCategory),
			Years:         string(r.Metadata.Years),
			Language:      string(r.Metadata.Language),
			Score:         r.Score,
		})
	}
	c.JSON(consts.StatusOK, responses)
}

// InterviewQuestionResponse 单个面试问题
type InterviewQuestionResponse struct {
	QuestionType string `json:"question_type"`
	Question     string `json:"question"`
}

// HandleGenerateQuestions 处理 POST /api/ai/resumes/:resume_id/generate-questions
func (h *AIHandler) HandleGenerateQuestions(ctx context.Context, c *app.RequestContext) {
	resumeID := c.Param("resume_id")
	if _, err := uuid.Parse(resumeID); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "resume_id必须是合法的UUID"})
		return
	}

	resume, err := h.store.Get(ctx, resumeID)
	if err != nil {
		if errors.Is(err, storage.ErrResumeNotFound) {
			c.JSON(consts.StatusNotFound, utils.H{"error": "简历不存在"})
			return
		}
		logger.Error().Err(err).Str("resume_id", resumeID).Msg("获取简历失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "获取简历失败"})
		return
	}

	questions, err := h.questionGen.GenerateQuestions(ctx, resume.Content)
	if err != nil {
		logger.Error().Err(err).Str("resume_id", resumeID).Msg("生成面试问题失败")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "生成面试问题失败"})
		return
	}

	// 问题留存是尽力而为，失败不影响响应
	if h.questionSaver != nil {
		if err := h.questionSaver.SaveInterviewQuestions(ctx, resumeID, questions); err != nil {
			logger.Warn().Err(err).Str("resume_id", resumeID).Msg("留存面试问题失败")
		}
	}

	responses := make([]InterviewQuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, InterviewQuestionResponse{
			QuestionType: string(q.QuestionType),
			Question:     q.Question,
		})
	}
	c.JSON(consts.StatusOK, responses)
}

// ResumeExtractRequest 简历入库请求
type ResumeExtractRequest struct {
	UserID   string `json:"user_id"`
	ResumeID string `json:"resume_id"`
	FilePath string `json:"file_path"`
}

// ResumeInfoResponse 简历入库响应
type ResumeInfoResponse struct {
	ResumeID      string `json:"resume_id"`
	ApplicantName string `json:"applicant_name"`
	JobCategory   string `json:"job_category"`
	Years         string `json:"years"`
	Language      string `json:"language"`
	Status        string `json:"status,omitempty"`
}

// HandleProcessResume 处理 POST /api/ai/process-resume。
// 同步完成文本提取与结构化分析，向量写入在响应返回后异步执行。
func (h *AIHandler) HandleProcessResume(ctx context.Context, c *app.RequestContext) {
	var req ResumeExtractRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
		return
	}
	if req.ResumeID == "" || req.FilePath == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "resume_id和file_path不能为空"})
		return
	}
	if _, err := uuid.Parse(req.ResumeID); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "resume_id必须是合法的UUID"})
		return
	}

	result, err := h.ingestService.ProcessResume(ctx, req.UserID, req.ResumeID, req.FilePath)
	if err != nil {
		// 失败原因只进日志，客户端拿到统一的提示
		logger.Error().Err(err).Str("resume_id", req.ResumeID).Msg("简历入库处理失败")
		c.JSON(consts.StatusUnprocessableEntity, utils.H{"error": "简历分析过程中发生错误"})
		return
	}

	if result.Duplicate {
		c.JSON(consts.StatusOK, ResumeInfoResponse{
			ResumeID: req.ResumeID,
			Status:   constants.DuplicateSkippedStatus,
		})
		return
	}

	// 响应先行，向量写入由后台goroutine完成
	h.ingestService.StoreEmbeddingAsync(result, req.UserID, req.FilePath)

	c.JSON(consts.StatusOK, ResumeInfoResponse{
		ResumeID:      req.ResumeID,
		ApplicantName: result.Info.ApplicantName,
		JobCategory:   string(result.Info.JobCategory),
		Years:         string(result.Info.Years),
		Language:      string(result.Info.Language),
	})
}

// HandleHealthcheck 处理 GET /api/ai/healthcheck
func (h *AIHandler) HandleHealthcheck(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{"status": "ok"})
}

// HandleLLMCheck 处理 GET /api/ai/llm，对聊天模型做一次往返探测
func (h *AIHandler) HandleLLMCheck(ctx context.Context, c *app.RequestContext) {
	probeCtx, cancel := context.WithTimeout(ctx, h.llmTimeout)
	defer cancel()

	response, err := h.chatModel.Generate(probeCtx, []*schema.Message{schema.UserMessage("test")})
	if err != nil {
		logger.Error().Err(err).Msg("LLM探测失败")
		c.JSON(consts.StatusServiceUnavailable, utils.H{"error": "LLM服务不可用"})
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": response.Content})
}
