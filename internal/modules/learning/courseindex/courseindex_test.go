package courseindex

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/vectorstore"
)

type fakeStore struct {
	upserts   []vectorstore.Vector
	namespace string
	filter    map[string]any
	matches   []vectorstore.VectorMatch
	err       error
}

func (f *fakeStore) Upsert(ctx context.Context, namespace string, vectors []vectorstore.Vector) error {
	f.namespace = namespace
	f.upserts = append(f.upserts, vectors...)
	return f.err
}

func (f *fakeStore) QueryMatches(ctx context.Context, namespace string, q []float32, topK int, filter map[string]any) ([]vectorstore.VectorMatch, error) {
	f.namespace = namespace
	f.filter = filter
	return f.matches, f.err
}

func TestVectorStoreIndexQuery(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	store := &fakeStore{matches: []vectorstore.VectorMatch{
		{ID: a.String(), Score: 0.91},
		{ID: "not-a-uuid", Score: 0.8},
		{ID: b.String(), Score: 0.2},
	}}
	idx := NewVectorStoreIndex(logger.Nop(), store)

	got, err := idx.Query(context.Background(), []float32{1, 0}, 10, 0.3)
	require.NoError(t, err)
	assert.Equal(t, []Match{{CourseID: a, Score: 0.91}}, got)
	assert.Equal(t, Namespace, store.namespace)
	assert.Equal(t, map[string]any{"is_public": true}, store.filter)

	got, err = idx.Query(context.Background(), nil, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestVectorStoreIndexQueryError(t *testing.T) {
	store := &fakeStore{err: errors.New("down")}
	_, err := NewVectorStoreIndex(logger.Nop(), store).Query(context.Background(), []float32{1}, 3, 0)
	require.Error(t, err)
}

func TestVectorStoreIndexMirror(t *testing.T) {
	store := &fakeStore{}
	idx := NewVectorStoreIndex(logger.Nop(), store)
	id := uuid.New()

	require.NoError(t, idx.Mirror(context.Background(), Entry{CourseID: id, Title: "Go", IsPublic: true, Vector: []float32{0.1, 0.2}}))
	require.Len(t, store.upserts, 1)
	assert.Equal(t, id.String(), store.upserts[0].ID)
	assert.Equal(t, "Go", store.upserts[0].Metadata["title"])
	assert.Equal(t, true, store.upserts[0].Metadata["is_public"])

	require.Error(t, idx.Mirror(context.Background(), Entry{CourseID: id}))
}
