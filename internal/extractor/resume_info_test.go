package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/agent"
	"resume-match-go/internal/types"
)

const refineJSON = `{
  "applicant_name": "张伟",
  "job_category": "BACKEND",
  "years": "SENIOR",
  "language": "JAVA"
}`

func TestParseStrategyType(t *testing.T) {
	s, err := ParseStrategyType("summarize")
	require.NoError(t, err)
	assert.Equal(t, StrategySummarize, s)

	s, err = ParseStrategyType(" Section ")
	require.NoError(t, err)
	assert.Equal(t, StrategySection, s)

	_, err = ParseStrategyType("magic")
	assert.Error(t, err)
}

func TestExtractContentSummarizeStrategy(t *testing.T) {
	// 第一次调用返回摘要，第二次调用返回结构化JSON
	mockLLM := agent.NewMockChatClientSequential([]agent.MockResponse{
		{Content: "候选人张伟，8年Java后端开发经验，精通Spring与微服务架构。"},
		{Content: refineJSON},
	})
	e, err := NewContentExtractor(mockLLM, StrategySummarize)
	require.NoError(t, err)

	result, err := e.ExtractContent(context.Background(), "简历全文……")
	require.NoError(t, err)

	assert.Equal(t, "张伟", result.Info.ApplicantName)
	assert.Equal(t, types.JobBackend, result.Info.JobCategory)
	assert.Equal(t, types.YearsSenior, result.Info.Years)
	assert.Equal(t, types.LangJava, result.Info.Language)
	assert.Equal(t, "候选人张伟，8年Java后端开发经验，精通Spring与微服务架构。", result.Summary)

	// 提炼阶段应收到摘要而非原文
	require.Len(t, mockLLM.ReceivedCalls, 2)
	assert.Contains(t, mockLLM.ReceivedCalls[1][1].Content, "8年Java后端开发经验")
}

func TestExtractContentSplitStrategy(t *testing.T) {
	// split策略只有一次提炼调用，摘要来自原文切分
	mockLLM := agent.NewMockChatClientSequential([]agent.MockResponse{
		{Content: refineJSON},
	})
	e, err := NewContentExtractor(mockLLM, StrategySplit)
	require.NoError(t, err)

	resumeText := "张伟的简历内容。" + strings.Repeat("项目经历描述。", 100)
	result, err := e.ExtractContent(context.Background(), resumeText)
	require.NoError(t, err)

	assert.Equal(t, types.JobBackend, result.Info.JobCategory)
	assert.NotEmpty(t, result.Summary)
	require.Len(t, mockLLM.ReceivedCalls, 1)
	// 提炼直接在原文上进行
	assert.Contains(t, mockLLM.ReceivedCalls[0][1].Content, "张伟的简历内容")
}

func TestExtractContentInvalidEnumBecomesAbsent(t *testing.T) {
	mockLLM := agent.NewMockChatClientSequential([]agent.MockResponse{
		{Content: `{"applicant_name": "李娜", "job_category": "GARDENER", "years": "3-7", "language": "PYTHON"}`},
	})
	e, err := NewContentExtractor(mockLLM, StrategySplit)
	require.NoError(t, err)

	result, err := e.ExtractContent(context.Background(), "简历全文")
	require.NoError(t, err)

	assert.Equal(t, "李娜", result.Info.ApplicantName)
	assert.Empty(t, result.Info.JobCategory)
	assert.Equal(t, types.YearsMiddle, result.Info.Years)
	assert.Equal(t, types.LangPython, result.Info.Language)
}

func TestExtractContentModelFailurePropagates(t *testing.T) {
	mockLLM := agent.NewMockChatClient("", errors.New("llm unavailable"))
	e, err := NewContentExtractor(mockLLM, StrategySummarize)
	require.NoError(t, err)

	_, err = e.ExtractContent(context.Background(), "简历全文")
	assert.Error(t, err)
}

func TestExtractContentEmptyTextRejected(t *testing.T) {
	e, err := NewContentExtractor(agent.NewMockChatClient("x", nil), StrategySplit)
	require.NoError(t, err)

	_, err = e.ExtractContent(context.Background(), "   \n ")
	assert.Error(t, err)
}

func TestNewContentExtractorRejectsUnknownStrategy(t *testing.T) {
	_, err := NewContentExtractor(agent.NewMockChatClient("x", nil), StrategyType("magic"))
	assert.Error(t, err)
}

func TestParseResumeInfoExtractsJSONFromNoise(t *testing.T) {
	response := "好的，以下是提取结果：\n```json\n" + refineJSON + "\n```\n希望对你有帮助。"

	info, err := parseResumeInfo(response)
	require.NoError(t, err)
	assert.Equal(t, "张伟", info.ApplicantName)
	assert.Equal(t, types.JobBackend, info.JobCategory)
}

func TestParseResumeInfoBracesInsideStringValues(t *testing.T) {
	// 字段值中的花括号不能提前终止对象匹配
	response := `{"applicant_name": "张伟{网名: wei}", "job_category": "BACKEND", "years": "SENIOR", "language": "JAVA"}`

	info, err := parseResumeInfo(response)
	require.NoError(t, err)
	assert.Equal(t, "张伟{网名: wei}", info.ApplicantName)
	assert.Equal(t, types.JobBackend, info.JobCategory)
}

func TestParseResumeInfoEscapedQuotesInStringValues(t *testing.T) {
	response := `{"applicant_name": "李\"小\"明}", "job_category": "AI", "years": "MIDDLE", "language": "PYTHON"}`

	info, err := parseResumeInfo(response)
	require.NoError(t, err)
	assert.Equal(t, `李"小"明}`, info.ApplicantName)
	assert.Equal(t, types.JobAI, info.JobCategory)
}

func TestParseResumeInfoNoJSON(t *testing.T) {
	_, err := parseResumeInfo("无法解析这份简历")
	assert.Error(t, err)
}

func TestSplitContentShortTextSingleChunk(t *testing.T) {
	chunks := splitContent("短文本")
	require.Len(t, chunks, 1)
	assert.Equal(t, "短文本", chunks[0])
}

func TestSplitContentLongTextOverlaps(t *testing.T) {
	text := strings.Repeat("这是一段简历内容。\n\n", 200)
	chunks := splitContent(text)

	assert.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), splitChunkSize)
		assert.NotEmpty(t, c)
	}
}
