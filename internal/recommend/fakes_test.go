package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/embedding"

	"resume-match-go/internal/storage"
	"resume-match-go/internal/types"
)

// fakeEmbedder 确定性embedder：向量由文本字节和派生，保证同文本同向量
type fakeEmbedder struct {
	failWith error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		var sum float64
		for _, b := range []byte(text) {
			sum += float64(b)
		}
		vectors[i] = []float64{sum, float64(len(text)), 1}
	}
	return vectors, nil
}

type fakePoint struct {
	record types.ResumeRecord
	vector []float64
}

// fakeVectorDB 内存版VectorDatabase，按负的向量距离打分
type fakeVectorDB struct {
	mu       sync.Mutex
	points   map[string]fakePoint // resume_id -> point
	failWith error
}

func newFakeVectorDB() *fakeVectorDB {
	return &fakeVectorDB{points: make(map[string]fakePoint)}
}

func (f *fakeVectorDB) UpsertResumePoint(ctx context.Context, record types.ResumeRecord, vector []float64) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[record.ResumeID] = fakePoint{record: record, vector: vector}
	return storage.ResumePointID(record.ResumeID), nil
}

func (f *fakeVectorDB) SearchResumes(ctx context.Context, queryVector []float64, limit int, conditions map[string]string) ([]storage.SearchResult, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var results []storage.SearchResult
	for _, p := range f.points {
		payload := pointPayload(p.record)
		if !matchesAll(payload, conditions) {
			continue
		}
		results = append(results, storage.SearchResult{
			ID:      storage.ResumePointID(p.record.ResumeID),
			Score:   -distance(queryVector, p.vector),
			Payload: payload,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (f *fakeVectorDB) GetResumeByID(ctx context.Context, resumeID string) (*storage.SearchResult, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.points[resumeID]
	if !ok {
		return nil, storage.ErrResumeNotFound
	}
	return &storage.SearchResult{
		ID:      storage.ResumePointID(resumeID),
		Payload: pointPayload(p.record),
	}, nil
}

func (f *fakeVectorDB) DeleteResume(ctx context.Context, resumeID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.points, resumeID)
	return nil
}

var _ storage.VectorDatabase = (*fakeVectorDB)(nil)

func pointPayload(record types.ResumeRecord) map[string]interface{} {
	payload := map[string]interface{}{
		"resume_id":    record.ResumeID,
		"content":      record.Content,
		"job_category": string(record.JobCategory),
		"years":        string(record.Years),
		"language":     string(record.Language),
	}
	if record.ApplicantName != "" {
		payload["applicant_name"] = record.ApplicantName
	}
	return payload
}

// matchesAll 所有条件同时满足才命中，与Qdrant的must语义一致
func matchesAll(payload map[string]interface{}, conditions map[string]string) bool {
	for key, want := range conditions {
		got, _ := payload[key].(string)
		if got != want {
			return false
		}
	}
	return true
}

func distance(a, b []float64) float32 {
	var sum float64
	for i := 0; i < len(a) && i < len(b); i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return float32(sum)
}

// fakeSearcher 记录收到的limit，返回预设结果
type fakeSearcher struct {
	results   []types.SearchResult
	failWith  error
	gotLimit  int
	gotFilter types.ResumeFilter
}

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int, filter types.ResumeFilter) ([]types.SearchResult, error) {
	f.gotLimit = limit
	f.gotFilter = filter
	if f.failWith != nil {
		return nil, f.failWith
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

func makeResults(n int) []types.SearchResult {
	results := make([]types.SearchResult, n)
	for i := range results {
		results[i] = types.SearchResult{
			Metadata: types.ResumeMetadata{ResumeID: fmt.Sprintf("resume-%02d", i)},
			Content:  fmt.Sprintf("content %d", i),
		}
	}
	return results
}
