package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/agent"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/types"
)

func TestRetrieverOverfetchWhenExpanded(t *testing.T) {
	searcher := &fakeSearcher{results: makeResults(20)}
	r, err := NewCandidateRetriever(searcher, 4)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "query", types.ResumeFilter{}, 5, true)
	require.NoError(t, err)

	assert.Equal(t, 20, searcher.gotLimit)
	assert.Len(t, results, 20)
}

func TestRetrieverExactFetchWithoutExpansion(t *testing.T) {
	searcher := &fakeSearcher{results: makeResults(20)}
	r, err := NewCandidateRetriever(searcher, 4)
	require.NoError(t, err)

	results, err := r.Retrieve(context.Background(), "query", types.ResumeFilter{}, 5, false)
	require.NoError(t, err)

	assert.Equal(t, 5, searcher.gotLimit)
	assert.Len(t, results, 5)
}

func TestRetrieverPropagatesSearchError(t *testing.T) {
	searcher := &fakeSearcher{failWith: errors.New("search failed")}
	r, err := NewCandidateRetriever(searcher, 4)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "query", types.ResumeFilter{}, 5, false)
	assert.Error(t, err)
}

func TestRetrieverPassesFilterThrough(t *testing.T) {
	searcher := &fakeSearcher{}
	r, err := NewCandidateRetriever(searcher, 4)
	require.NoError(t, err)

	filter := types.ResumeFilter{JobCategory: types.JobBackend, Language: types.LangJava}
	_, err = r.Retrieve(context.Background(), "query", filter, 5, false)
	require.NoError(t, err)

	assert.Equal(t, filter, searcher.gotFilter)
}

func newTestRecommender(t *testing.T, llmResponse string, llmErr error, searcher ResumeSearcher) *Recommender {
	t.Helper()

	filterExtractor, err := extractor.NewQueryFilterExtractor(agent.NewMockChatClient(llmResponse, llmErr), nil)
	require.NoError(t, err)

	retriever, err := NewCandidateRetriever(searcher, 4)
	require.NoError(t, err)

	rec, err := NewRecommender(filterExtractor, retriever, NewPassthroughReranker(), false, 5, 10*time.Second)
	require.NoError(t, err)
	return rec
}

func TestRecommendEndToEnd(t *testing.T) {
	searcher := &fakeSearcher{results: makeResults(8)}
	rec := newTestRecommender(t, "job_category: BACKEND\nyears: SENIOR\nlanguage: NONE\napplicant_name: NONE", nil, searcher)

	results, err := rec.Recommend(context.Background(), "경력 많은 백엔드 개발자 추천")
	require.NoError(t, err)

	assert.Len(t, results, 5)
	// 提取出的过滤条件传给了召回阶段
	assert.Equal(t, types.JobBackend, searcher.gotFilter.JobCategory)
	assert.Equal(t, types.YearsSenior, searcher.gotFilter.Years)
	assert.Empty(t, searcher.gotFilter.Language)
}

func TestRecommendExtractionFailureDegradesToUnfiltered(t *testing.T) {
	searcher := &fakeSearcher{results: makeResults(3)}
	rec := newTestRecommender(t, "", errors.New("llm down"), searcher)

	results, err := rec.Recommend(context.Background(), "백엔드 개발자")
	require.NoError(t, err)

	// 提取失败不阻断推荐，退化为无约束检索
	assert.True(t, searcher.gotFilter.IsEmpty())
	assert.Len(t, results, 3)
}

func TestRecommendSearchFailurePropagates(t *testing.T) {
	searcher := &fakeSearcher{failWith: errors.New("qdrant unreachable")}
	rec := newTestRecommender(t, "job_category: NONE", nil, searcher)

	_, err := rec.Recommend(context.Background(), "백엔드 개발자")
	assert.Error(t, err)
}

func TestRecommendEmptyMessageRejected(t *testing.T) {
	rec := newTestRecommender(t, "job_category: NONE", nil, &fakeSearcher{})

	_, err := rec.Recommend(context.Background(), "  ")
	assert.Error(t, err)
}

func TestRecommendOverfetchesWhenRerankActive(t *testing.T) {
	searcher := &fakeSearcher{results: makeResults(20)}
	filterExtractor, err := extractor.NewQueryFilterExtractor(agent.NewMockChatClient("job_category: NONE", nil), nil)
	require.NoError(t, err)
	retriever, err := NewCandidateRetriever(searcher, 4)
	require.NoError(t, err)

	rec, err := NewRecommender(filterExtractor, retriever, NewPassthroughReranker(), true, 5, 10*time.Second)
	require.NoError(t, err)

	results, err := rec.Recommend(context.Background(), "백엔드 개발자")
	require.NoError(t, err)

	// 启用重排时按放大倍数召回，最终仍截断到topK
	assert.Equal(t, 20, searcher.gotLimit)
	assert.Len(t, results, 5)
}
