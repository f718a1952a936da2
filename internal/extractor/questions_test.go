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

func TestGenerateQuestions(t *testing.T) {
	mockLLM := agent.NewMockChatClient(`[
  {"question_type": "job", "question": "请介绍一下你对微服务拆分边界的理解。"},
  {"question_type": "culture", "question": "你如何处理与同事的技术分歧？"},
  {"question_type": "experience", "question": "在A公司期间最有挑战的任务是什么？"},
  {"question_type": "project", "question": "订单系统的峰值流量是如何承接的？"}
]`, nil)
	g, err := NewQuestionGenerator(mockLLM)
	require.NoError(t, err)

	questions, err := g.GenerateQuestions(context.Background(), "张伟的简历内容")
	require.NoError(t, err)
	require.Len(t, questions, 4)

	assert.Equal(t, types.QuestionJob, questions[0].QuestionType)
	assert.Equal(t, types.QuestionCulture, questions[1].QuestionType)
	assert.Equal(t, types.QuestionExperience, questions[2].QuestionType)
	assert.Equal(t, types.QuestionProject, questions[3].QuestionType)
}

func TestGenerateQuestionsDropsInvalidEntries(t *testing.T) {
	mockLLM := agent.NewMockChatClient(`[
  {"question_type": "job", "question": "合法问题"},
  {"question_type": "riddle", "question": "类别非法"},
  {"question_type": "project", "question": "  "}
]`, nil)
	g, err := NewQuestionGenerator(mockLLM)
	require.NoError(t, err)

	questions, err := g.GenerateQuestions(context.Background(), "简历内容")
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, types.QuestionJob, questions[0].QuestionType)
}

func TestGenerateQuestionsModelFailurePropagates(t *testing.T) {
	mockLLM := agent.NewMockChatClient("", errors.New("llm unavailable"))
	g, err := NewQuestionGenerator(mockLLM)
	require.NoError(t, err)

	_, err = g.GenerateQuestions(context.Background(), "简历内容")
	assert.Error(t, err)
}

func TestGenerateQuestionsNoValidQuestions(t *testing.T) {
	mockLLM := agent.NewMockChatClient(`[{"question_type": "riddle", "question": "x"}]`, nil)
	g, err := NewQuestionGenerator(mockLLM)
	require.NoError(t, err)

	_, err = g.GenerateQuestions(context.Background(), "简历内容")
	assert.Error(t, err)
}

func TestExtractJSONArrayFromNoise(t *testing.T) {
	text := "以下是生成的问题：\n```json\n[{\"question_type\": \"job\", \"question\": \"带[括号]的问题?\"}]\n```"
	jsonStr := extractJSONArray(text)
	assert.Equal(t, `[{"question_type": "job", "question": "带[括号]的问题?"}]`, jsonStr)
}
