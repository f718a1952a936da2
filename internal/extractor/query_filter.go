package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/logger"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

const queryFilterSystemPrompt = `你是招聘查询解析助手。请从招聘人员的消息中提取筛选条件，
严格按照以下格式输出，每个字段一行：
job_category: (FRONTEND/BACKEND/AI/FULLSTACK/MOBILE/DATA/DEVOPS 中的一个，或 NONE)
years: (JUNIOR/MIDDLE/SENIOR 中的一个，或 NONE)
language: (PYTHON/JAVA/JAVASCRIPT/TYPESCRIPT/KOTLIN/C++/C 中的一个，或 NONE)
applicant_name: (消息中明确提到的候选人姓名，或 NONE)
只输出这四行，不要输出任何其他内容。消息中未提及的条件输出NONE，不要猜测。`

// QueryFilterExtractor 从招聘人员的自然语言消息中提取结构化过滤条件。
// 提取失败时降级为无约束过滤器，从不向调用方传播模型错误。
type QueryFilterExtractor struct {
	llmModel model.ChatModel
	cache    *storage.Redis // 可为nil，缓存仅是加速
}

// NewQueryFilterExtractor 创建查询过滤器提取器。cache传nil时禁用缓存。
func NewQueryFilterExtractor(llmModel model.ChatModel, cache *storage.Redis) (*QueryFilterExtractor, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("llmModel不能为空")
	}
	return &QueryFilterExtractor{
		llmModel: llmModel,
		cache:    cache,
	}, nil
}

// ExtractFilter 提取过滤条件。
// 缓存命中直接返回；模型调用失败或响应完全无法解析时返回无约束过滤器，
// 让检索退化为纯相似度搜索而非阻断请求。
func (e *QueryFilterExtractor) ExtractFilter(ctx context.Context, message string) types.ResumeFilter {
	ctx, span := extractorTracer.Start(ctx, "QueryFilterExtractor.ExtractFilter",
		trace.WithAttributes(
			attribute.String("query.text", tracing.SafeQueryText(message)),
		))
	defer span.End()

	messageMD5 := storage.MD5Hex(message)

	if e.cache != nil {
		if filter, found := e.cache.GetCachedQueryFilter(ctx, messageMD5); found {
			span.SetAttributes(attribute.Bool("filter.cache_hit", true))
			return filter
		}
	}

	filter, err := e.extractWithLLM(ctx, message)
	if err != nil {
		// 降级：提取失败返回无约束过滤器
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		logger.Warn().Err(err).
			Str("message_md5", messageMD5).
			Msg("查询过滤器提取失败，降级为无约束检索")
		return types.ResumeFilter{}
	}

	span.SetAttributes(
		attribute.Bool("filter.cache_hit", false),
		attribute.Bool("filter.empty", filter.IsEmpty()),
	)

	if e.cache != nil {
		if err := e.cache.SetCachedQueryFilter(ctx, messageMD5, filter); err != nil {
			logger.Debug().Err(err).Str("message_md5", messageMD5).Msg("写入过滤器缓存失败")
		}
	}
	return filter
}

// extractWithLLM 调用LLM并解析其逐行响应
func (e *QueryFilterExtractor) extractWithLLM(ctx context.Context, message string) (types.ResumeFilter, error) {
	messages := []*schema.Message{
		schema.SystemMessage(queryFilterSystemPrompt),
		schema.UserMessage(message),
	}
	response, err := e.llmModel.Generate(ctx, messages)
	if err != nil {
		return types.ResumeFilter{}, fmt.Errorf("LLM调用失败: %w", err)
	}
	if response == nil || strings.TrimSpace(response.Content) == "" {
		return types.ResumeFilter{}, fmt.Errorf("LLM返回空响应")
	}
	return parseFilterResponse(response.Content)
}

// parseFilterResponse 逐行解析 "field: VALUE" 格式的响应。
// 单行格式错误只跳过该行，其余合法行仍然生效；
// 整个响应无一行可解析时才视为失败。
func parseFilterResponse(response string) (types.ResumeFilter, error) {
	var filter types.ResumeFilter
	parsedLines := 0

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch key {
		case "job_category", "years", "language", "applicant_name":
			parsedLines++
		default:
			continue
		}

		if strings.EqualFold(value, "NONE") {
			continue
		}

		// 非法枚举值视为缺省，不进入过滤器
		switch key {
		case "job_category":
			if c, ok := types.ParseJobCategory(value); ok {
				filter.JobCategory = c
			}
		case "years":
			if y, ok := types.ParseExperienceYears(value); ok {
				filter.Years = y
			}
		case "language":
			if l, ok := types.ParseLanguage(value); ok {
				filter.Language = l
			}
		case "applicant_name":
			filter.ApplicantName = value
		}
	}

	if parsedLines == 0 {
		return types.ResumeFilter{}, fmt.Errorf("响应中没有可解析的过滤字段: %s", tracing.TruncateString(response, 200))
	}
	return filter, nil
}
