package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/agent"
	"resume-match-go/internal/types"
)

func TestExtractFilterAllFields(t *testing.T) {
	mockLLM := agent.NewMockChatClient(
		"job_category: BACKEND\nyears: SENIOR\nlanguage: KOTLIN\napplicant_name: NONE", nil)
	e, err := NewQueryFilterExtractor(mockLLM, nil)
	require.NoError(t, err)

	filter := e.ExtractFilter(context.Background(), "찾아줘 경력 많은 백엔드 코틀린 개발자")

	assert.Equal(t, types.JobBackend, filter.JobCategory)
	assert.Equal(t, types.YearsSenior, filter.Years)
	assert.Equal(t, types.LangKotlin, filter.Language)
	assert.Empty(t, filter.ApplicantName)
}

func TestExtractFilterAllNone(t *testing.T) {
	mockLLM := agent.NewMockChatClient(
		"job_category: NONE\nyears: NONE\nlanguage: NONE\napplicant_name: NONE", nil)
	e, err := NewQueryFilterExtractor(mockLLM, nil)
	require.NoError(t, err)

	filter := e.ExtractFilter(context.Background(), "推荐几份优秀的简历")

	assert.True(t, filter.IsEmpty())
}

func TestExtractFilterModelFailureFailsOpen(t *testing.T) {
	mockLLM := agent.NewMockChatClient("", errors.New("llm unavailable"))
	e, err := NewQueryFilterExtractor(mockLLM, nil)
	require.NoError(t, err)

	filter := e.ExtractFilter(context.Background(), "找一个前端工程师")

	// 模型失败不阻断检索，降级为无约束过滤器
	assert.True(t, filter.IsEmpty())
}

func TestExtractFilterUnparsableResponseFailsOpen(t *testing.T) {
	mockLLM := agent.NewMockChatClient("抱歉，我无法理解这个请求。", nil)
	e, err := NewQueryFilterExtractor(mockLLM, nil)
	require.NoError(t, err)

	filter := e.ExtractFilter(context.Background(), "找一个前端工程师")

	assert.True(t, filter.IsEmpty())
}

func TestParseFilterResponseSkipsMalformedLines(t *testing.T) {
	// 中间一行缺冒号，前后合法行仍然生效
	response := "job_category: FRONTEND\nthis line is garbage\nlanguage: TYPESCRIPT"

	filter, err := parseFilterResponse(response)
	require.NoError(t, err)

	assert.Equal(t, types.JobFrontend, filter.JobCategory)
	assert.Equal(t, types.LangTypeScript, filter.Language)
	assert.Empty(t, filter.Years)
}

func TestParseFilterResponseInvalidEnumBecomesAbsent(t *testing.T) {
	response := "job_category: ASTRONAUT\nyears: MIDDLE\nlanguage: COBOL"

	filter, err := parseFilterResponse(response)
	require.NoError(t, err)

	assert.Empty(t, filter.JobCategory)
	assert.Equal(t, types.YearsMiddle, filter.Years)
	assert.Empty(t, filter.Language)
}

func TestParseFilterResponseFoldsCase(t *testing.T) {
	response := "Job_Category: Backend\nYears: junior\nLanguage: C++"

	filter, err := parseFilterResponse(response)
	require.NoError(t, err)

	assert.Equal(t, types.JobBackend, filter.JobCategory)
	assert.Equal(t, types.YearsJunior, filter.Years)
	assert.Equal(t, types.LangCpp, filter.Language)
}

func TestParseFilterResponseSeniorityAliases(t *testing.T) {
	cases := map[string]types.ExperienceYears{
		"JUNIOR": types.YearsJunior,
		"MIDDLE": types.YearsMiddle,
		"SENIOR": types.YearsSenior,
		"0-3":    types.YearsJunior,
	}
	for token, want := range cases {
		filter, err := parseFilterResponse("years: " + token)
		require.NoError(t, err, "token %s", token)
		assert.Equal(t, want, filter.Years, "token %s", token)
	}
}

func TestParseFilterResponseApplicantName(t *testing.T) {
	filter, err := parseFilterResponse("applicant_name: 김철수\njob_category: NONE")
	require.NoError(t, err)

	assert.Equal(t, "김철수", filter.ApplicantName)
	assert.Empty(t, filter.JobCategory)
}

func TestExtractFilterSendsMessageToModel(t *testing.T) {
	mockLLM := agent.NewMockChatClient("job_category: AI", nil)
	e, err := NewQueryFilterExtractor(mockLLM, nil)
	require.NoError(t, err)

	e.ExtractFilter(context.Background(), "AI 엔지니어 추천해줘")

	require.Len(t, mockLLM.ReceivedCalls, 1)
	messages := mockLLM.ReceivedCalls[0]
	require.Len(t, messages, 2)
	assert.Equal(t, "AI 엔지니어 추천해줘", messages[1].Content)
}
