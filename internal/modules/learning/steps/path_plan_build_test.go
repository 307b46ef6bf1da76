package steps

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

func planDeps(ai *fakeAI, courses *fakeCourses, matches []courseindex.Match, previews []*types.CourseEmbedding) PlanPathDeps {
	return PlanPathDeps{
		Log: logger.Nop(),
		AI:  ai,
		Search: SimilaritySearchDeps{
			Log:        logger.Nop(),
			Index:      &fakeIndex{matches: matches},
			Embeddings: &fakeEmbeddings{rows: previews},
			Courses:    courses,
		},
		Courses: courses,
	}
}

func TestPlanPathUsesPlannerItems(t *testing.T) {
	a := uuid.New()
	ai := newFakeAI().on("User prompt: learn sql", fakeReply{obj: map[string]any{
		"items": []any{
			map[string]any{"idx": 1, "type": "reuse", "course_id": "1", "new_title": nil, "brief": "start with the basics"},
			map[string]any{"idx": 2, "type": "new", "course_id": nil, "new_title": "Query Tuning", "brief": "indexes and plans"},
		},
	}})
	ai.embed = [][]float32{{1, 0}}
	deps := planDeps(ai, existing(a),
		[]courseindex.Match{{CourseID: a, Score: 0.8}},
		[]*types.CourseEmbedding{{CourseID: a, Title: "SQL Basics", DescriptionPreview: "intro"}},
	)

	out, err := PlanPath(context.Background(), deps, PlanPathInput{Prompt: "learn sql", Config: DefaultPipelineConfig()})
	require.NoError(t, err)

	assert.False(t, out.Fallback)
	assert.False(t, out.Enforced)
	require.Len(t, out.Candidates, 1)
	require.Len(t, out.Steps, 2)
	assert.Equal(t, a, *out.Steps[0].CourseID)
	assert.Equal(t, "Query Tuning", *out.Steps[1].NewTitle)
}

func TestPlanPathDegradesOnModelFailures(t *testing.T) {
	cases := []struct {
		name  string
		setup func(ai *fakeAI)
	}{
		{"planner error", func(ai *fakeAI) {
			ai.embed = [][]float32{{1}}
			ai.on("User prompt:", fakeReply{err: errors.New("503")})
		}},
		{"planner garbage", func(ai *fakeAI) {
			ai.embed = [][]float32{{1}}
			ai.on("User prompt:", fakeReply{obj: map[string]any{"items": "nope"}})
		}},
		{"embedding error", func(ai *fakeAI) {
			ai.embedErr = errors.New("embed down")
			ai.on("User prompt:", fakeReply{obj: map[string]any{}})
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ai := newFakeAI()
			tc.setup(ai)
			out, err := PlanPath(context.Background(), planDeps(ai, existing(), nil, nil), PlanPathInput{Prompt: "learn sql fast", Config: DefaultPipelineConfig()})
			require.NoError(t, err)
			assert.True(t, out.Fallback)
			require.Len(t, out.Steps, 1)
			assert.Equal(t, "Introduction", *out.Steps[0].NewTitle)
			assert.Equal(t, "learn sql fast", out.Steps[0].Note)
		})
	}
}

func TestPlanPathEnforcesStrongMatch(t *testing.T) {
	a := uuid.New()
	ai := newFakeAI().on("User prompt:", fakeReply{obj: map[string]any{
		"items": []any{map[string]any{"idx": 1, "type": "new", "new_title": "Something Else", "brief": "b"}},
	}})
	ai.embed = [][]float32{{1}}
	deps := planDeps(ai, existing(a), []courseindex.Match{{CourseID: a, Score: 0.93}}, []*types.CourseEmbedding{{CourseID: a, Title: "Exact"}})

	out, err := PlanPath(context.Background(), deps, PlanPathInput{Prompt: "learn sql", Config: DefaultPipelineConfig()})
	require.NoError(t, err)
	assert.True(t, out.Enforced)
	require.Len(t, out.Steps, 2)
	assert.Equal(t, "Reusing similar course: Exact", out.Steps[0].Note)
	assert.Equal(t, 2, out.Steps[1].Idx)
}

func TestFormatCandidates(t *testing.T) {
	id := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	got := FormatCandidates([]Candidate{{ID: id, Title: "SQL", Description: "intro", Score: 0.8125}})
	assert.Equal(t, "- 11111111-1111-1111-1111-111111111111 | SQL |  | intro | 0.8125", got)
	assert.Equal(t, "", FormatCandidates(nil))
	assert.False(t, strings.Contains(FormatCandidates(nil), "\n"))
}
