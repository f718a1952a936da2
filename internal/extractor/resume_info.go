package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

var extractorTracer = otel.Tracer("resume-match-go/extractor")

const summarizeSystemPrompt = `你是一位简历信息总结专家。请阅读给出的简历全文，提炼其要点：
候选人背景、核心技能、工作与项目经历、技术栈。保留所有对判断候选人能力有用的事实，
删除寒暄、排版噪音与重复内容。直接输出要点文本，不要添加任何解释。`

const sectionSystemPrompt = `你是一位简历结构化专家。请将给出的简历内容按以下板块重新组织：
人员信息: 姓名、联系方式
学历: 学校、专业、毕业时间
经历: 公司、职位、时间段、工作内容
项目: 项目名、时间段、内容、角色
技能: 编程语言、框架、工具
证书与教育: 证书、培训
直接输出重组后的文本，缺失的板块可以省略，不要添加任何解释。`

const refineSystemPrompt = `请从以下简历内容中提取结构化信息，严格按照下面的JSON格式输出：
{
  "applicant_name": "候选人姓名",
  "job_category": "FRONTEND/BACKEND/AI/FULLSTACK/MOBILE/DATA/DEVOPS 中的一个",
  "years": "JUNIOR/MIDDLE/SENIOR 中的一个 (0-3年为JUNIOR, 3-7年为MIDDLE, 7-10年及以上为SENIOR)",
  "language": "PYTHON/JAVA/JAVASCRIPT/TYPESCRIPT/KOTLIN/C++/C 中的一个 (候选人的主力语言)"
}
只输出JSON，不要输出任何其他内容。无法判断的字段填空字符串。`

// ExtractedResume 一次内容提取的完整产出：
// 结构化字段用于过滤与审计，Summary作为向量化文本写入存储。
type ExtractedResume struct {
	Info    types.ResumeInfo
	Summary string
	// RawRefineOutput LLM提炼阶段的原始响应，留作审计
	RawRefineOutput string
}

// ContentExtractor 按配置的策略从简历全文中提取结构化信息与摘要
type ContentExtractor struct {
	llmModel model.ChatModel
	strategy StrategyType
}

// NewContentExtractor 创建内容提取器，策略非法时返回错误
func NewContentExtractor(llmModel model.ChatModel, strategy StrategyType) (*ContentExtractor, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("llmModel不能为空")
	}
	switch strategy {
	case StrategySummarize, StrategySection, StrategySplit:
	default:
		return nil, fmt.Errorf("未知的内容提取策略: %q", strategy)
	}
	return &ContentExtractor{
		llmModel: llmModel,
		strategy: strategy,
	}, nil
}

// Strategy 返回当前使用的提取策略
func (e *ContentExtractor) Strategy() StrategyType {
	return e.strategy
}

// ExtractContent 执行完整的内容提取流程。
// summarize/section策略先做一次LLM预处理，提炼阶段在预处理结果上进行；
// split策略直接在原文上提炼，摘要为切分后的原文片段拼接。
func (e *ContentExtractor) ExtractContent(ctx context.Context, resumeText string) (*ExtractedResume, error) {
	ctx, span := extractorTracer.Start(ctx, "ContentExtractor.ExtractContent",
		trace.WithAttributes(
			attribute.String("extract.strategy", string(e.strategy)),
			attribute.Int("resume.text_length", len(resumeText)),
		))
	defer span.End()

	if strings.TrimSpace(resumeText) == "" {
		err := fmt.Errorf("简历文本为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	var refineInput, summary string
	switch e.strategy {
	case StrategySummarize:
		condensed, err := e.generate(ctx, summarizeSystemPrompt, "Resume:\n"+resumeText)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeLLM)
			return nil, fmt.Errorf("摘要简历内容失败: %w", err)
		}
		refineInput, summary = condensed, condensed

	case StrategySection:
		organized, err := e.generate(ctx, sectionSystemPrompt, "Resume:\n"+resumeText)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeLLM)
			return nil, fmt.Errorf("按板块重组简历内容失败: %w", err)
		}
		refineInput, summary = organized, organized

	case StrategySplit:
		refineInput = resumeText
		summary = strings.Join(splitContent(resumeText), "\n\n")
	}

	refined, err := e.generate(ctx, refineSystemPrompt, "Resume:\n"+refineInput)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("提炼结构化信息失败: %w", err)
	}

	info, err := parseResumeInfo(refined)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("解析结构化信息失败: %w", err)
	}

	span.SetAttributes(
		attribute.String("resume.job_category", string(info.JobCategory)),
		attribute.String("resume.years", string(info.Years)),
	)
	return &ExtractedResume{
		Info:            info,
		Summary:         summary,
		RawRefineOutput: refined,
	}, nil
}

// generate 发起一次单轮LLM调用并返回文本内容
func (e *ContentExtractor) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	response, err := e.llmModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	if response == nil || response.Content == "" {
		return "", fmt.Errorf("LLM返回空响应")
	}
	return response.Content, nil
}

// rawResumeInfo 提炼阶段的原始JSON载荷，字段值尚未折叠校验
type rawResumeInfo struct {
	ApplicantName string `json:"applicant_name"`
	JobCategory   string `json:"job_category"`
	Years         string `json:"years"`
	Language      string `json:"language"`
}

// parseResumeInfo 从LLM响应中取出JSON并折叠校验枚举字段。
// 非法枚举值不会进入结果，对应字段保持缺省。
func parseResumeInfo(response string) (types.ResumeInfo, error) {
	jsonStr := extractJSONObject(response)
	if jsonStr == "" {
		return types.ResumeInfo{}, fmt.Errorf("响应中未找到JSON对象: %s", tracing.TruncateString(response, 200))
	}

	var raw rawResumeInfo
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return types.ResumeInfo{}, fmt.Errorf("JSON反序列化失败: %w", err)
	}

	info := types.ResumeInfo{
		ApplicantName: strings.TrimSpace(raw.ApplicantName),
	}
	if c, ok := types.ParseJobCategory(raw.JobCategory); ok {
		info.JobCategory = c
	}
	if y, ok := types.ParseExperienceYears(raw.Years); ok {
		info.Years = y
	}
	if l, ok := types.ParseLanguage(raw.Language); ok {
		info.Language = l
	}
	return info, nil
}

// extractJSONObject 从文本中提取第一个完整的JSON对象。
// 字符串字面量内的花括号不参与配对，姓名等字段值含括号时不会截断对象。
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				level++
			}
		case '}':
			if !inString {
				level--
				if level == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
