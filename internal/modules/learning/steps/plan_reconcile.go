package steps

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type CourseExistence interface {
	ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
}

// RawPlanItem is one planner step as the model produced it. Fields are kept loose
// until reconciliation.
type RawPlanItem struct {
	Idx      float64
	HasIdx   bool
	Type     string
	CourseID string
	NewTitle string
	Brief    string
}

// PlanStep is a reconciled, persistable plan step.
type PlanStep struct {
	Idx      int        `json:"idx"`
	Kind     string     `json:"type"`
	CourseID *uuid.UUID `json:"course_id"`
	NewTitle *string    `json:"new_title"`
	Note     string     `json:"note"`
	Status   string     `json:"status"`
}

// DecodePlanItems reads the "items" array of a planner response. Entries that are not
// objects are skipped; idx may be a number or a numeric string.
func DecodePlanItems(obj map[string]any) []RawPlanItem {
	if obj == nil {
		return nil
	}
	arr, ok := obj["items"].([]any)
	if !ok {
		return nil
	}
	out := make([]RawPlanItem, 0, len(arr))
	for _, x := range arr {
		m, ok := x.(map[string]any)
		if !ok {
			continue
		}
		it := RawPlanItem{
			Type:     strings.ToLower(stringFromAny(m["type"])),
			CourseID: stringFromAny(m["course_id"]),
			NewTitle: stringFromAny(m["new_title"]),
			Brief:    stringFromAny(m["brief"]),
		}
		if it.Brief == "" {
			it.Brief = stringFromAny(m["note"])
		}
		if f, ok := floatFromAny(m["idx"]); ok {
			it.Idx, it.HasIdx = f, true
		}
		out = append(out, it)
	}
	return out
}

type ReconcilePlanDeps struct {
	Log     *logger.Logger
	Courses CourseExistence
}

type ReconcilePlanInput struct {
	Items           []RawPlanItem
	Candidates      []Candidate
	Prompt          string
	ReuseMinScore   float64
	EnforceMinScore float64
}

type ReconcilePlanOutput struct {
	Steps    []PlanStep
	Fallback bool
	Enforced bool
}

var ordinalRe = regexp.MustCompile(`^\d+$`)

// ReconcilePlan turns raw planner items into a duplicate-free plan. It never fails:
// an empty plan becomes a single "Introduction" step.
func ReconcilePlan(ctx context.Context, deps ReconcilePlanDeps, in ReconcilePlanInput) ReconcilePlanOutput {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	out := ReconcilePlanOutput{}

	items := in.Items
	if len(items) == 0 {
		out.Fallback = true
		items = []RawPlanItem{{Idx: 1, HasIdx: true, Type: types.PathItemKindNew, NewTitle: "Introduction", Brief: in.Prompt}}
	}

	var top *Candidate
	if len(in.Candidates) > 0 {
		top = &in.Candidates[0]
	}

	// resolve reuse ids against the candidate list
	resolved := make([]uuid.UUID, len(items))
	for i, it := range items {
		if it.Type != types.PathItemKindReuse {
			continue
		}
		resolved[i] = resolveCandidateID(it.CourseID, in.Candidates, in.ReuseMinScore)
	}

	// one batch existence check
	exists := map[uuid.UUID]bool{}
	lookup := make([]uuid.UUID, 0, len(items)+1)
	seenLookup := map[uuid.UUID]bool{}
	for _, id := range resolved {
		if id != uuid.Nil && !seenLookup[id] {
			seenLookup[id] = true
			lookup = append(lookup, id)
		}
	}
	if top != nil && !seenLookup[top.ID] {
		lookup = append(lookup, top.ID)
	}
	if len(lookup) > 0 && deps.Courses != nil {
		got, err := deps.Courses.ExistingIDs(dbctx.Context{Ctx: ctx}, lookup)
		if err != nil {
			log.Warn("course existence lookup failed; treating reuse ids as missing", "error", err)
		} else if got != nil {
			exists = got
		}
	}

	seenIdx := map[int]bool{}
	reused := map[uuid.UUID]bool{}
	steps := make([]PlanStep, 0, len(items)+1)
	for i, it := range items {
		idx := normalizeIdx(it)
		if seenIdx[idx] {
			log.Debug("dropping plan step with duplicate idx", "idx", idx)
			continue
		}
		seenIdx[idx] = true

		id := resolved[i]
		isReuse := it.Type == types.PathItemKindReuse && id != uuid.Nil && exists[id]
		if isReuse && reused[id] {
			log.Debug("duplicate reuse converted to new step", "course_id", id.String(), "idx", idx)
			isReuse = false
		}

		step := PlanStep{Idx: idx, Note: it.Brief}
		if isReuse {
			reused[id] = true
			cid := id
			step.Kind = types.PathItemKindReuse
			step.CourseID = &cid
			step.Status = types.PathItemStatusReady
		} else {
			title := strings.TrimSpace(it.NewTitle)
			if title == "" {
				title = AutoTitle(it.Brief)
			}
			step.Kind = types.PathItemKindNew
			step.NewTitle = &title
			step.Status = types.PathItemStatusPending
		}
		steps = append(steps, step)
	}

	if top != nil && top.Score >= in.EnforceMinScore && exists[top.ID] && !reused[top.ID] {
		log.Info("enforcing reuse of best match", "course_id", top.ID.String(), "title", top.Title, "score", top.Score)
		cid := top.ID
		enforced := make([]PlanStep, 0, len(steps)+1)
		enforced = append(enforced, PlanStep{
			Idx:      1,
			Kind:     types.PathItemKindReuse,
			CourseID: &cid,
			Note:     "Reusing similar course: " + top.Title,
			Status:   types.PathItemStatusReady,
		})
		for _, s := range steps {
			s.Idx++
			enforced = append(enforced, s)
		}
		steps = enforced
		out.Enforced = true
	}

	out.Steps = steps
	return out
}

// resolveCandidateID maps a model-supplied course reference to a candidate id: exact id,
// then 1-based ordinal, then the top candidate when it scores at least minTop.
func resolveCandidateID(raw string, candidates []Candidate, minTop float64) uuid.UUID {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			for _, c := range candidates {
				if c.ID == id {
					return id
				}
			}
		}
		if ordinalRe.MatchString(raw) {
			if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(candidates) {
				return candidates[n-1].ID
			}
		}
	}
	if len(candidates) > 0 && candidates[0].Score >= minTop {
		return candidates[0].ID
	}
	return uuid.Nil
}

// maxStepIdx leaves room for the enforced step to shift every idx by one within an int4 column.
const maxStepIdx = math.MaxInt32 - 1

// normalizeIdx floors the model's idx into [1, maxStepIdx]; NaN and missing values become 1.
func normalizeIdx(it RawPlanItem) int {
	if !it.HasIdx || !(it.Idx > 1) {
		return 1
	}
	if it.Idx >= maxStepIdx {
		return maxStepIdx
	}
	return int(math.Floor(it.Idx))
}
