package steps

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

func reconcile(t *testing.T, courses *fakeCourses, items []RawPlanItem, candidates []Candidate) ReconcilePlanOutput {
	t.Helper()
	return ReconcilePlan(context.Background(), ReconcilePlanDeps{Log: logger.Nop(), Courses: courses}, ReconcilePlanInput{
		Items:           items,
		Candidates:      candidates,
		Prompt:          "teach me databases",
		ReuseMinScore:   0.55,
		EnforceMinScore: 0.55,
	})
}

func assertPlanInvariants(t *testing.T, steps []PlanStep) {
	t.Helper()
	seenIdx := map[int]bool{}
	reused := map[uuid.UUID]bool{}
	for _, s := range steps {
		assert.GreaterOrEqual(t, s.Idx, 1)
		assert.False(t, seenIdx[s.Idx], "duplicate idx %d", s.Idx)
		seenIdx[s.Idx] = true
		switch s.Kind {
		case types.PathItemKindReuse:
			require.NotNil(t, s.CourseID)
			assert.Nil(t, s.NewTitle)
			assert.Equal(t, types.PathItemStatusReady, s.Status)
			assert.False(t, reused[*s.CourseID], "course %s reused twice", *s.CourseID)
			reused[*s.CourseID] = true
		case types.PathItemKindNew:
			assert.Nil(t, s.CourseID)
			require.NotNil(t, s.NewTitle)
			assert.NotEmpty(t, *s.NewTitle)
			assert.Equal(t, types.PathItemStatusPending, s.Status)
		default:
			t.Fatalf("unexpected kind %q", s.Kind)
		}
	}
}

func TestReconcileOrdinalAndEnforcement(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	candidates := []Candidate{{ID: a, Title: "A", Score: 0.9}, {ID: b, Title: "B", Score: 0.4}}

	out := reconcile(t, existing(a, b), []RawPlanItem{
		{Idx: 1, HasIdx: true, Type: "reuse", CourseID: "2", Brief: "start with B"},
	}, candidates)

	require.Len(t, out.Steps, 2)
	assert.True(t, out.Enforced)
	assert.Equal(t, 1, out.Steps[0].Idx)
	assert.Equal(t, a, *out.Steps[0].CourseID)
	assert.Equal(t, "Reusing similar course: A", out.Steps[0].Note)
	assert.Equal(t, 2, out.Steps[1].Idx)
	assert.Equal(t, types.PathItemKindReuse, out.Steps[1].Kind)
	assert.Equal(t, b, *out.Steps[1].CourseID)
	assertPlanInvariants(t, out.Steps)
}

func TestReconcileDuplicateReuseDowngraded(t *testing.T) {
	a := uuid.New()
	candidates := []Candidate{{ID: a, Title: "A", Score: 0.7}}

	out := reconcile(t, existing(a), []RawPlanItem{
		{Idx: 1, HasIdx: true, Type: "reuse", CourseID: a.String(), Brief: "basics"},
		{Idx: 2, HasIdx: true, Type: "reuse", CourseID: a.String(), Brief: "advanced joins and indexes. then more"},
	}, candidates)

	require.Len(t, out.Steps, 2)
	assert.False(t, out.Enforced)
	assert.Equal(t, types.PathItemKindReuse, out.Steps[0].Kind)
	assert.Equal(t, types.PathItemKindNew, out.Steps[1].Kind)
	assert.Nil(t, out.Steps[1].CourseID)
	assert.Equal(t, "Advanced Joins And Indexes", *out.Steps[1].NewTitle)
	assertPlanInvariants(t, out.Steps)
}

func TestReconcileDuplicateIdxDroppedBeforeClaim(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	candidates := []Candidate{{ID: a, Title: "A", Score: 0.5}, {ID: b, Title: "B", Score: 0.45}}

	out := reconcile(t, existing(a, b), []RawPlanItem{
		{Idx: 1, HasIdx: true, Type: "new", NewTitle: "Intro", Brief: "x"},
		{Idx: 1, HasIdx: true, Type: "reuse", CourseID: a.String(), Brief: "dropped"},
		{Idx: 2, HasIdx: true, Type: "reuse", CourseID: a.String(), Brief: "kept"},
	}, candidates)

	require.Len(t, out.Steps, 2)
	assert.Equal(t, "Intro", *out.Steps[0].NewTitle)
	assert.Equal(t, types.PathItemKindReuse, out.Steps[1].Kind)
	assert.Equal(t, a, *out.Steps[1].CourseID)
	assertPlanInvariants(t, out.Steps)
}

func TestReconcileFallbackOnEmptyPlan(t *testing.T) {
	out := reconcile(t, existing(), nil, nil)

	require.Len(t, out.Steps, 1)
	assert.True(t, out.Fallback)
	s := out.Steps[0]
	assert.Equal(t, 1, s.Idx)
	assert.Equal(t, types.PathItemKindNew, s.Kind)
	assert.Equal(t, "Introduction", *s.NewTitle)
	assert.Equal(t, "teach me databases", s.Note)
}

func TestReconcileFallbackStillEnforcesBestMatch(t *testing.T) {
	a := uuid.New()
	out := reconcile(t, existing(a), nil, []Candidate{{ID: a, Title: "A", Score: 0.8}})

	require.Len(t, out.Steps, 2)
	assert.True(t, out.Fallback)
	assert.True(t, out.Enforced)
	assert.Equal(t, a, *out.Steps[0].CourseID)
	assert.Equal(t, 2, out.Steps[1].Idx)
}

func TestReconcileUnresolvedOrMissingReuseBecomesNew(t *testing.T) {
	a, ghost := uuid.New(), uuid.New()
	cases := []struct {
		name       string
		courses    *fakeCourses
		item       RawPlanItem
		candidates []Candidate
	}{
		{
			name:       "unknown id with weak top candidate",
			courses:    existing(a),
			item:       RawPlanItem{Idx: 1, HasIdx: true, Type: "reuse", CourseID: "nonsense", Brief: "Learn: something"},
			candidates: []Candidate{{ID: a, Title: "A", Score: 0.4}},
		},
		{
			name:       "ordinal out of range",
			courses:    existing(a),
			item:       RawPlanItem{Idx: 1, HasIdx: true, Type: "reuse", CourseID: "7", Brief: "Learn: something"},
			candidates: []Candidate{{ID: a, Title: "A", Score: 0.4}},
		},
		{
			name:       "candidate no longer exists",
			courses:    existing(),
			item:       RawPlanItem{Idx: 1, HasIdx: true, Type: "reuse", CourseID: ghost.String(), Brief: "Learn: something"},
			candidates: []Candidate{{ID: ghost, Title: "Ghost", Score: 0.9}},
		},
		{
			name:       "existence lookup fails",
			courses:    &fakeCourses{existErr: errors.New("db down")},
			item:       RawPlanItem{Idx: 1, HasIdx: true, Type: "reuse", CourseID: a.String(), Brief: "Learn: something"},
			candidates: []Candidate{{ID: a, Title: "A", Score: 0.9}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := reconcile(t, tc.courses, []RawPlanItem{tc.item}, tc.candidates)
			require.Len(t, out.Steps, 1)
			assert.False(t, out.Enforced)
			assert.Equal(t, types.PathItemKindNew, out.Steps[0].Kind)
			assert.Equal(t, "Learn", *out.Steps[0].NewTitle)
			assertPlanInvariants(t, out.Steps)
		})
	}
}

func TestReconcileTopCandidateLastResort(t *testing.T) {
	a := uuid.New()
	out := reconcile(t, existing(a), []RawPlanItem{
		{Idx: 3, HasIdx: true, Type: "reuse", CourseID: "", Brief: "reuse something"},
	}, []Candidate{{ID: a, Title: "A", Score: 0.6}})

	require.Len(t, out.Steps, 1)
	assert.False(t, out.Enforced)
	assert.Equal(t, 3, out.Steps[0].Idx)
	assert.Equal(t, a, *out.Steps[0].CourseID)
}

func TestReconcileIdxNormalization(t *testing.T) {
	out := reconcile(t, existing(), []RawPlanItem{
		{Idx: -4, HasIdx: true, Type: "new", NewTitle: "  Negative  "},
		{Idx: 2.7, HasIdx: true, Type: "new", NewTitle: "Fraction"},
		{Type: "mystery", NewTitle: "No Idx"},
		{Idx: 1e20, HasIdx: true, Type: "new", NewTitle: "Huge"},
		{Idx: math.NaN(), HasIdx: true, Type: "new", NewTitle: "NaN"},
	}, nil)

	require.Len(t, out.Steps, 3)
	assert.Equal(t, 1, out.Steps[0].Idx)
	assert.Equal(t, "Negative", *out.Steps[0].NewTitle)
	assert.Equal(t, 2, out.Steps[1].Idx)
	assert.Equal(t, "Fraction", *out.Steps[1].NewTitle)
	assert.Equal(t, maxStepIdx, out.Steps[2].Idx)
	assert.Equal(t, "Huge", *out.Steps[2].NewTitle)
	for _, st := range out.Steps {
		assert.Positive(t, st.Idx)
	}
}

func TestReconcileOneBatchLookup(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	courses := existing(a, b)
	reconcile(t, courses, []RawPlanItem{
		{Idx: 1, HasIdx: true, Type: "reuse", CourseID: "1"},
		{Idx: 2, HasIdx: true, Type: "reuse", CourseID: "2"},
		{Idx: 3, HasIdx: true, Type: "reuse", CourseID: "1"},
	}, []Candidate{{ID: a, Score: 0.9}, {ID: b, Score: 0.8}})

	require.Len(t, courses.asked, 1)
	assert.ElementsMatch(t, []uuid.UUID{a, b}, courses.asked[0])
}

func TestDecodePlanItemsPermissive(t *testing.T) {
	items := DecodePlanItems(map[string]any{
		"items": []any{
			map[string]any{"idx": "2", "type": "REUSE", "course_id": 3.0, "brief": "b"},
			"garbage",
			map[string]any{"idx": 1.0, "type": "new", "new_title": nil, "note": "from note"},
			map[string]any{"idx": "x"},
		},
	})
	require.Len(t, items, 3)
	assert.Equal(t, RawPlanItem{Idx: 2, HasIdx: true, Type: "reuse", CourseID: "3", Brief: "b"}, items[0])
	assert.Equal(t, "from note", items[1].Brief)
	assert.Equal(t, "", items[1].NewTitle)
	assert.False(t, items[2].HasIdx)

	assert.Empty(t, DecodePlanItems(nil))
	assert.Empty(t, DecodePlanItems(map[string]any{"items": "nope"}))
}

func TestAutoTitle(t *testing.T) {
	cases := map[string]string{
		"":                                        "Introduction",
		"   ":                                     "Introduction",
		"learn sql joins. then more":              "Learn Sql Joins",
		"one two three four five six seven eight": "One Two Three Four Five Six",
		"why? because":                            "Why",
		"e-mail etiquette\nsecond line":           "E-Mail Etiquette",
		"  spaced   out words: trailing":          "Spaced Out Words",
	}
	for in, want := range cases {
		assert.Equal(t, want, AutoTitle(in), "input %q", in)
	}
}
