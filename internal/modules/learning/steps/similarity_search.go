package steps

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type EmbeddingPreviewLookup interface {
	GetByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseEmbedding, error)
}

type CourseLookup interface {
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error)
}

// Candidate is a course offered to the planner as reuse context.
type Candidate struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Subtitle    string    `json:"subtitle,omitempty"`
	Description string    `json:"description,omitempty"`
	Score       float64   `json:"score"`
}

type SimilaritySearchDeps struct {
	Log        *logger.Logger
	Index      courseindex.Index
	Embeddings EmbeddingPreviewLookup
	Courses    CourseLookup
}

type SimilaritySearchInput struct {
	Vector    []float32
	TopK      int
	ScoreMin  float64
	Overfetch int
}

type SimilaritySearchOutput struct {
	Candidates []Candidate
}

func SimilaritySearch(ctx context.Context, deps SimilaritySearchDeps, in SimilaritySearchInput) (out SimilaritySearchOutput, err error) {
	out.Candidates = []Candidate{}
	if deps.Index == nil || deps.Embeddings == nil || deps.Courses == nil {
		return out, errMissingDeps("similarity_search")
	}
	if len(in.Vector) == 0 || in.TopK <= 0 {
		return out, nil
	}
	ctx, span := observability.StartSpan(ctx, "search.similar", attribute.Int("top_k", in.TopK))
	defer func() { observability.EndSpan(span, err) }()

	overfetch := in.Overfetch
	if overfetch < 1 {
		overfetch = 1
	}
	neighbours, err := deps.Index.Query(ctx, in.Vector, in.TopK*overfetch, 0)
	if err != nil {
		return out, err
	}
	if len(neighbours) == 0 {
		return out, nil
	}

	neighbours = dedupeNeighbours(neighbours)
	ids := make([]uuid.UUID, 0, len(neighbours))
	for _, n := range neighbours {
		ids = append(ids, n.CourseID)
	}
	dbc := dbctx.Context{Ctx: ctx}

	meta := make(map[uuid.UUID]Candidate, len(ids))
	previews, err := deps.Embeddings.GetByCourseIDs(dbc, ids)
	if err != nil {
		return out, err
	}
	for _, p := range previews {
		if p == nil {
			continue
		}
		meta[p.CourseID] = Candidate{ID: p.CourseID, Title: p.Title, Description: p.DescriptionPreview}
	}

	missing := make([]uuid.UUID, 0)
	for _, id := range ids {
		if _, ok := meta[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		courses, err := deps.Courses.GetByIDs(dbc, missing)
		if err != nil {
			return out, err
		}
		for _, c := range courses {
			if c == nil {
				continue
			}
			cand := Candidate{ID: c.ID, Title: c.Title, Description: c.Description}
			if c.Subtitle != nil {
				cand.Subtitle = *c.Subtitle
			}
			meta[c.ID] = cand
		}
	}

	for _, n := range neighbours {
		cand, ok := meta[n.CourseID]
		if !ok {
			if deps.Log != nil {
				deps.Log.Debug("similarity neighbour without metadata dropped", "course_id", n.CourseID.String())
			}
			continue
		}
		if n.Score < in.ScoreMin {
			continue
		}
		cand.Score = n.Score
		out.Candidates = append(out.Candidates, cand)
	}
	sort.SliceStable(out.Candidates, func(i, j int) bool {
		return out.Candidates[i].Score > out.Candidates[j].Score
	})
	if len(out.Candidates) > in.TopK {
		out.Candidates = out.Candidates[:in.TopK]
	}
	return out, nil
}

// dedupeNeighbours keeps one entry per course, with the best score, in first-seen order.
func dedupeNeighbours(in []courseindex.Match) []courseindex.Match {
	pos := make(map[uuid.UUID]int, len(in))
	out := make([]courseindex.Match, 0, len(in))
	for _, n := range in {
		if i, ok := pos[n.CourseID]; ok {
			if n.Score > out[i].Score {
				out[i].Score = n.Score
			}
			continue
		}
		pos[n.CourseID] = len(out)
		out = append(out, n)
	}
	return out
}
