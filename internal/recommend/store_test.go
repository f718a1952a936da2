package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-match-go/internal/storage"
	"resume-match-go/internal/types"
)

func newTestStore(t *testing.T) (*ResumeStore, *fakeVectorDB) {
	t.Helper()
	vectorDB := newFakeVectorDB()
	store, err := NewResumeStore(vectorDB, &fakeEmbedder{})
	require.NoError(t, err)
	return store, vectorDB
}

func TestStoreUpsertAndGetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	record := types.ResumeRecord{
		ResumeID:      "8c2f1a0e-0001-4000-8000-000000000001",
		Content:       "8年Java后端开发经验，精通Spring与微服务架构",
		ApplicantName: "张伟",
		JobCategory:   types.JobBackend,
		Years:         types.YearsSenior,
		Language:      types.LangJava,
	}

	pointID, err := store.Upsert(ctx, record)
	require.NoError(t, err)
	assert.NotEmpty(t, pointID)

	got, err := store.Get(ctx, record.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, record.ResumeID, got.Metadata.ResumeID)
	assert.Equal(t, "张伟", got.Metadata.ApplicantName)
	assert.Equal(t, types.JobBackend, got.Metadata.JobCategory)
	assert.Equal(t, types.YearsSenior, got.Metadata.Years)
	assert.Equal(t, types.LangJava, got.Metadata.Language)
	assert.Equal(t, record.Content, got.Content)
}

func TestStoreUpsertSameIDReplaces(t *testing.T) {
	store, vectorDB := newTestStore(t)
	ctx := context.Background()

	record := types.ResumeRecord{
		ResumeID:    "8c2f1a0e-0001-4000-8000-000000000001",
		Content:     "初版内容",
		JobCategory: types.JobFrontend,
	}
	first, err := store.Upsert(ctx, record)
	require.NoError(t, err)

	record.Content = "更新后的内容"
	record.JobCategory = types.JobFullstack
	second, err := store.Upsert(ctx, record)
	require.NoError(t, err)

	// 同一resume_id映射到同一个point，写入即替换
	assert.Equal(t, first, second)
	assert.Len(t, vectorDB.points, 1)

	got, err := store.Get(ctx, record.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, "更新后的内容", got.Content)
	assert.Equal(t, types.JobFullstack, got.Metadata.JobCategory)
}

func TestStoreGetNotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "8c2f1a0e-0009-4000-8000-000000000009")
	assert.ErrorIs(t, err, storage.ErrResumeNotFound)
}

func TestStoreDeleteRemovesResume(t *testing.T) {
	store, vectorDB := newTestStore(t)
	ctx := context.Background()

	record := types.ResumeRecord{
		ResumeID: "8c2f1a0e-0002-4000-8000-000000000002",
		Content:  "待删除的简历内容",
	}
	_, err := store.Upsert(ctx, record)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, record.ResumeID))
	assert.Empty(t, vectorDB.points)

	_, err = store.Get(ctx, record.ResumeID)
	assert.ErrorIs(t, err, storage.ErrResumeNotFound)

	// 删除是幂等的，点不存在时不报错
	assert.NoError(t, store.Delete(ctx, record.ResumeID))

	// 空resume_id被拒绝
	assert.Error(t, store.Delete(ctx, ""))
}

func TestStoreSearchFilterANDSemantics(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	records := []types.ResumeRecord{
		{ResumeID: "r1", Content: "backend java senior", JobCategory: types.JobBackend, Years: types.YearsSenior, Language: types.LangJava},
		{ResumeID: "r2", Content: "backend python junior", JobCategory: types.JobBackend, Years: types.YearsJunior, Language: types.LangPython},
		{ResumeID: "r3", Content: "frontend typescript senior", JobCategory: types.JobFrontend, Years: types.YearsSenior, Language: types.LangTypeScript},
	}
	for _, r := range records {
		_, err := store.Upsert(ctx, r)
		require.NoError(t, err)
	}

	// 两个条件必须同时满足
	results, err := store.Search(ctx, "경력 많은 백엔드", 10, types.ResumeFilter{
		JobCategory: types.JobBackend,
		Years:       types.YearsSenior,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "r1", results[0].Metadata.ResumeID)

	// 单条件
	results, err = store.Search(ctx, "백엔드", 10, types.ResumeFilter{JobCategory: types.JobBackend})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// 空过滤器 = 纯相似度搜索
	results, err = store.Search(ctx, "아무나", 10, types.ResumeFilter{})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestStoreSearchEmbeddingFailureIsHardError(t *testing.T) {
	vectorDB := newFakeVectorDB()
	store, err := NewResumeStore(vectorDB, &fakeEmbedder{failWith: errors.New("embedding service down")})
	require.NoError(t, err)

	_, err = store.Search(context.Background(), "query", 5, types.ResumeFilter{})
	assert.Error(t, err)

	_, err = store.Upsert(context.Background(), types.ResumeRecord{ResumeID: "r1", Content: "c"})
	assert.Error(t, err)
}

func TestStoreSearchVectorDBFailureIsHardError(t *testing.T) {
	vectorDB := newFakeVectorDB()
	vectorDB.failWith = errors.New("qdrant unreachable")
	store, err := NewResumeStore(vectorDB, &fakeEmbedder{})
	require.NoError(t, err)

	_, err = store.Search(context.Background(), "query", 5, types.ResumeFilter{})
	assert.Error(t, err)
}

func TestStoreUpsertValidation(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Upsert(ctx, types.ResumeRecord{Content: "内容"})
	assert.Error(t, err)

	_, err = store.Upsert(ctx, types.ResumeRecord{ResumeID: "r1"})
	assert.Error(t, err)
}
