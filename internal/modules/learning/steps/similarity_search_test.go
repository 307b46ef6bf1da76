package steps

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

func TestSimilaritySearch(t *testing.T) {
	a, b, c, d, e := uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()
	sub := "the legacy subtitle"
	index := &fakeIndex{matches: []courseindex.Match{
		{CourseID: a, Score: 0.62},
		{CourseID: b, Score: 0.71},
		{CourseID: c, Score: 0.62},
		{CourseID: d, Score: 0.9}, // no metadata anywhere
		{CourseID: e, Score: 0.1}, // below floor
	}}
	deps := SimilaritySearchDeps{
		Log:   logger.Nop(),
		Index: index,
		Embeddings: &fakeEmbeddings{rows: []*types.CourseEmbedding{
			{CourseID: a, Title: "A", DescriptionPreview: "preview a"},
			{CourseID: b, Title: "B", DescriptionPreview: "preview b"},
			{CourseID: e, Title: "E"},
		}},
		Courses: &fakeCourses{rows: []*types.Course{
			{ID: c, Title: "C", Subtitle: &sub, Description: "full description c"},
		}},
	}

	out, err := SimilaritySearch(context.Background(), deps, SimilaritySearchInput{Vector: []float32{1}, TopK: 3, ScoreMin: 0.3, Overfetch: 2})
	require.NoError(t, err)
	assert.Equal(t, 6, index.limit)

	require.Len(t, out.Candidates, 3)
	assert.Equal(t, b, out.Candidates[0].ID)
	// equal scores keep index order
	assert.Equal(t, a, out.Candidates[1].ID)
	assert.Equal(t, "preview a", out.Candidates[1].Description)
	assert.Equal(t, c, out.Candidates[2].ID)
	assert.Equal(t, "the legacy subtitle", out.Candidates[2].Subtitle)
	assert.Equal(t, "full description c", out.Candidates[2].Description)
}

func TestSimilaritySearchTruncatesToTopK(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	rows := []*types.CourseEmbedding{}
	matches := []courseindex.Match{}
	for i, id := range ids {
		rows = append(rows, &types.CourseEmbedding{CourseID: id, Title: "x"})
		matches = append(matches, courseindex.Match{CourseID: id, Score: 0.9 - float64(i)*0.1})
	}
	deps := SimilaritySearchDeps{Index: &fakeIndex{matches: matches}, Embeddings: &fakeEmbeddings{rows: rows}, Courses: &fakeCourses{}}

	out, err := SimilaritySearch(context.Background(), deps, SimilaritySearchInput{Vector: []float32{1}, TopK: 2, Overfetch: 2})
	require.NoError(t, err)
	require.Len(t, out.Candidates, 2)
	assert.Equal(t, ids[0], out.Candidates[0].ID)
	assert.Equal(t, ids[1], out.Candidates[1].ID)
}

func TestSimilaritySearchCollapsesDuplicateNeighbours(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	index := &fakeIndex{matches: []courseindex.Match{
		{CourseID: a, Score: 0.8},
		{CourseID: a, Score: 0.85},
		{CourseID: a, Score: 0.7},
		{CourseID: b, Score: 0.6},
		{CourseID: c, Score: 0.5},
	}}
	embeddings := &fakeEmbeddings{rows: []*types.CourseEmbedding{
		{CourseID: a, Title: "A"}, {CourseID: b, Title: "B"}, {CourseID: c, Title: "C"},
	}}
	deps := SimilaritySearchDeps{Index: index, Embeddings: embeddings, Courses: &fakeCourses{}}

	out, err := SimilaritySearch(context.Background(), deps, SimilaritySearchInput{Vector: []float32{1}, TopK: 3, Overfetch: 2})
	require.NoError(t, err)
	require.Len(t, out.Candidates, 3)
	assert.Equal(t, []uuid.UUID{a, b, c}, []uuid.UUID{out.Candidates[0].ID, out.Candidates[1].ID, out.Candidates[2].ID})
	assert.Equal(t, 0.85, out.Candidates[0].Score)
}

func TestSimilaritySearchEmptyAndErrors(t *testing.T) {
	deps := SimilaritySearchDeps{Index: &fakeIndex{}, Embeddings: &fakeEmbeddings{}, Courses: &fakeCourses{}}
	out, err := SimilaritySearch(context.Background(), deps, SimilaritySearchInput{Vector: []float32{1}, TopK: 8})
	require.NoError(t, err)
	assert.NotNil(t, out.Candidates)
	assert.Empty(t, out.Candidates)

	deps.Index = &fakeIndex{err: errors.New("index down")}
	_, err = SimilaritySearch(context.Background(), deps, SimilaritySearchInput{Vector: []float32{1}, TopK: 8})
	require.Error(t, err)

	_, err = SimilaritySearch(context.Background(), SimilaritySearchDeps{}, SimilaritySearchInput{})
	require.Error(t, err)
}
