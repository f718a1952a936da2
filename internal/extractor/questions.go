package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-match-go/internal/tracing"
	"resume-match-go/internal/types"
)

const questionSystemPrompt = `你是一位资深技术面试官。请基于给出的候选人简历内容，生成面试问题。
问题分为四类：
- job: 针对候选人职位方向的技术问题
- culture: 考察文化契合与协作方式的问题
- experience: 针对候选人过往工作经历的深挖问题
- project: 针对候选人具体项目的细节问题
每类生成2个问题，问题要具体、能从简历内容中找到出发点，避免泛泛而谈。
严格按照以下JSON数组格式输出，不要输出任何其他内容：
[
  {"question_type": "job", "question": "问题内容"},
  {"question_type": "culture", "question": "问题内容"}
]`

// 合法的问题类别集合
var questionTypes = map[types.QuestionType]struct{}{
	types.QuestionJob:        {},
	types.QuestionCulture:    {},
	types.QuestionExperience: {},
	types.QuestionProject:    {},
}

// QuestionGenerator 基于简历内容生成分类面试问题
type QuestionGenerator struct {
	llmModel model.ChatModel
}

// NewQuestionGenerator 创建面试问题生成器
func NewQuestionGenerator(llmModel model.ChatModel) (*QuestionGenerator, error) {
	if llmModel == nil {
		return nil, fmt.Errorf("llmModel不能为空")
	}
	return &QuestionGenerator{llmModel: llmModel}, nil
}

// GenerateQuestions 为一份简历生成面试问题。
// 与过滤器提取不同，这里的模型失败直接向调用方传播。
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, resumeText string) ([]types.InterviewQuestion, error) {
	ctx, span := extractorTracer.Start(ctx, "QuestionGenerator.GenerateQuestions",
		trace.WithAttributes(
			attribute.Int("resume.text_length", len(resumeText)),
		))
	defer span.End()

	if strings.TrimSpace(resumeText) == "" {
		err := fmt.Errorf("简历文本为空")
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	messages := []*schema.Message{
		schema.SystemMessage(questionSystemPrompt),
		schema.UserMessage("Resume:\n" + resumeText),
	}
	response, err := g.llmModel.Generate(ctx, messages)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, fmt.Errorf("生成面试问题失败: %w", err)
	}
	if response == nil || response.Content == "" {
		err := fmt.Errorf("LLM返回空响应")
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	questions, err := parseQuestions(response.Content)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	span.SetAttributes(attribute.Int("questions.count", len(questions)))
	return questions, nil
}

// parseQuestions 从响应中解析问题数组，类别非法或内容为空的条目被丢弃
func parseQuestions(response string) ([]types.InterviewQuestion, error) {
	jsonStr := extractJSONArray(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("响应中未找到JSON数组: %s", tracing.TruncateString(response, 200))
	}

	var raw []types.InterviewQuestion
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("问题JSON反序列化失败: %w", err)
	}

	questions := make([]types.InterviewQuestion, 0, len(raw))
	for _, q := range raw {
		qType := types.QuestionType(strings.ToLower(strings.TrimSpace(string(q.QuestionType))))
		if _, ok := questionTypes[qType]; !ok {
			continue
		}
		if strings.TrimSpace(q.Question) == "" {
			continue
		}
		questions = append(questions, types.InterviewQuestion{
			QuestionType: qType,
			Question:     strings.TrimSpace(q.Question),
		})
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("响应中没有合法的面试问题")
	}
	return questions, nil
}

// extractJSONArray 从文本中提取第一个完整的JSON数组
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
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
		case '[':
			if !inString {
				level++
			}
		case ']':
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
