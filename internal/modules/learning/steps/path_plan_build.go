package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/pathforge-backend/internal/learning/prompts"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/openai"
)

type PlanPathDeps struct {
	Log     *logger.Logger
	AI      openai.Client
	Search  SimilaritySearchDeps
	Courses CourseExistence
}

type PlanPathInput struct {
	Prompt string
	Config PipelineConfig
}

type PlanPathOutput struct {
	Steps      []PlanStep
	Candidates []Candidate
	Fallback   bool
	Enforced   bool
}

// PlanPath embeds the prompt, gathers similar courses, asks the planner model for a path and
// reconciles the answer. Model, embedding and search failures degrade to a fallback plan.
func PlanPath(ctx context.Context, deps PlanPathDeps, in PlanPathInput) (PlanPathOutput, error) {
	out := PlanPathOutput{}
	if deps.Log == nil || deps.AI == nil {
		return out, errMissingDeps("path_plan_build")
	}
	log := deps.Log.With("step", "path_plan_build")
	cfg := in.Config

	ctx, span := observability.StartSpan(ctx, "plan.build")
	defer span.End()

	candidates := []Candidate{}
	vecs, err := deps.AI.Embed(ctx, []string{in.Prompt})
	switch {
	case err != nil:
		log.Warn("prompt embedding failed; planning without candidates", "error", err)
	case len(vecs) == 0 || len(vecs[0]) == 0:
		log.Warn("prompt embedding empty; planning without candidates")
	default:
		res, err := SimilaritySearch(ctx, deps.Search, SimilaritySearchInput{
			Vector:    vecs[0],
			TopK:      cfg.Search.TopK,
			ScoreMin:  cfg.Search.ScoreMin,
			Overfetch: cfg.Search.Overfetch,
		})
		if err != nil {
			log.Warn("similarity search failed; planning without candidates", "error", err)
		} else {
			candidates = res.Candidates
		}
	}
	for _, c := range candidates {
		log.Debug("similar candidate", "course_id", c.ID.String(), "title", c.Title, "score", strconv.FormatFloat(c.Score, 'f', 3, 64))
	}
	out.Candidates = candidates
	span.SetAttributes(attribute.Int("plan.candidates", len(candidates)))

	items := callPlanner(ctx, log, deps.AI, in.Prompt, candidates, cfg.Plan.Temperature)

	rec := ReconcilePlan(ctx, ReconcilePlanDeps{Log: log, Courses: deps.Courses}, ReconcilePlanInput{
		Items:           items,
		Candidates:      candidates,
		Prompt:          in.Prompt,
		ReuseMinScore:   cfg.Plan.ReuseMinScore,
		EnforceMinScore: cfg.Plan.EnforceMinScore,
	})
	out.Steps = rec.Steps
	out.Fallback = rec.Fallback
	out.Enforced = rec.Enforced
	span.SetAttributes(
		attribute.Int("plan.steps", len(rec.Steps)),
		attribute.Bool("plan.fallback", rec.Fallback),
		attribute.Bool("plan.enforced", rec.Enforced),
	)
	return out, nil
}

func callPlanner(ctx context.Context, log *logger.Logger, ai openai.Client, prompt string, candidates []Candidate, temperature float64) []RawPlanItem {
	p, err := prompts.Build(prompts.PromptPathPlan, prompts.Input{
		UserPrompt:     prompt,
		CandidatesText: FormatCandidates(candidates),
	})
	if err != nil {
		log.Warn("planner prompt build failed", "error", err)
		return nil
	}
	obj, err := withTemperature(ai, temperature).GenerateJSON(ctx, p.System, p.User, p.SchemaName, p.Schema)
	if err != nil {
		log.Warn("planner call failed; using fallback plan", "error", err, "prompt_fingerprint", p.Fingerprint())
		return nil
	}
	items := DecodePlanItems(obj)
	if len(items) == 0 {
		log.Warn("planner returned no usable items; using fallback plan", "prompt_fingerprint", p.Fingerprint())
	}
	return items
}

// FormatCandidates renders candidates as "- id | title | subtitle | description | score" lines.
func FormatCandidates(candidates []Candidate) string {
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, fmt.Sprintf("- %s | %s | %s | %s | %s",
			c.ID.String(), c.Title, c.Subtitle, c.Description, strconv.FormatFloat(c.Score, 'f', -1, 64)))
	}
	return strings.Join(lines, "\n")
}
