package recommend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/config"
)

func TestPassthroughRerankerPreservesOrder(t *testing.T) {
	r := NewPassthroughReranker()
	input := makeResults(8)

	out, err := r.Rerank(context.Background(), "query", input, 5)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for i := range out {
		assert.Equal(t, input[i].Metadata.ResumeID, out[i].Metadata.ResumeID)
	}
}

func TestPassthroughRerankerIdempotent(t *testing.T) {
	r := NewPassthroughReranker()
	input := makeResults(8)

	first, err := r.Rerank(context.Background(), "query", input, 5)
	require.NoError(t, err)
	second, err := r.Rerank(context.Background(), "query", first, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPassthroughRerankerFewerThanK(t *testing.T) {
	r := NewPassthroughReranker()
	input := makeResults(3)

	out, err := r.Rerank(context.Background(), "query", input, 10)
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func newRerankServer(t *testing.T, scoresByContent map[string]float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rerankRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		scores := make([]float32, len(req.Documents))
		for i, doc := range req.Documents {
			scores[i] = scoresByContent[doc]
		}
		json.NewEncoder(w).Encode(rerankResponse{Scores: scores})
	}))
}

func TestCrossEncoderRerankerSortsByScore(t *testing.T) {
	server := newRerankServer(t, map[string]float32{
		"content 0": 0.2,
		"content 1": 1.7,
		"content 2": -0.4,
		"content 3": 0.9,
	})
	defer server.Close()

	r, err := NewCrossEncoderReranker(&config.RerankerConfig{URL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	input := makeResults(4)
	out, err := r.Rerank(context.Background(), "query", input, 3)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "resume-01", out[0].Metadata.ResumeID)
	assert.Equal(t, "resume-03", out[1].Metadata.ResumeID)
	assert.Equal(t, "resume-00", out[2].Metadata.ResumeID)
	assert.Equal(t, float32(1.7), out[0].Score)
}

func TestCrossEncoderRerankerStableOnTies(t *testing.T) {
	// 全部同分时保持召回顺序
	server := newRerankServer(t, map[string]float32{})
	defer server.Close()

	r, err := NewCrossEncoderReranker(&config.RerankerConfig{URL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	input := makeResults(5)
	out, err := r.Rerank(context.Background(), "query", input, 5)
	require.NoError(t, err)
	for i := range out {
		assert.Equal(t, input[i].Metadata.ResumeID, out[i].Metadata.ResumeID)
	}
}

func TestCrossEncoderRerankerSubsetOnly(t *testing.T) {
	server := newRerankServer(t, map[string]float32{"content 0": 1, "content 1": 2})
	defer server.Close()

	r, err := NewCrossEncoderReranker(&config.RerankerConfig{URL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	input := makeResults(2)
	out, err := r.Rerank(context.Background(), "query", input, 10)
	require.NoError(t, err)

	// 输出必须是输入的子集，不产生新结果
	inputIDs := map[string]bool{}
	for _, res := range input {
		inputIDs[res.Metadata.ResumeID] = true
	}
	require.Len(t, out, 2)
	for _, res := range out {
		assert.True(t, inputIDs[res.Metadata.ResumeID])
	}
}

func TestCrossEncoderRerankerServiceFailureIsLoud(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	r, err := NewCrossEncoderReranker(&config.RerankerConfig{URL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "query", makeResults(3), 2)
	assert.Error(t, err)
}

func TestCrossEncoderRerankerScoreCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rerankResponse{Scores: []float32{0.5}})
	}))
	defer server.Close()

	r, err := NewCrossEncoderReranker(&config.RerankerConfig{URL: server.URL, TimeoutSeconds: 5})
	require.NoError(t, err)

	_, err = r.Rerank(context.Background(), "query", makeResults(3), 3)
	assert.Error(t, err)
}

func TestCrossEncoderRerankerEmptyInput(t *testing.T) {
	r, err := NewCrossEncoderReranker(&config.RerankerConfig{URL: "http://localhost:1", TimeoutSeconds: 1})
	require.NoError(t, err)

	out, err := r.Rerank(context.Background(), "query", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, out)
}
