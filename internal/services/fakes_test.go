package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/data/repos"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/pkg/requestdata"
)

var errInjected = errors.New("injected failure")

// memStore backs every fake repo. tx snapshots the maps and restores them when fn fails.
type memStore struct {
	mu         sync.Mutex
	paths      map[uuid.UUID]types.LearningPath
	items      map[itemKey]types.PathItem
	courses    map[uuid.UUID]types.Course
	lessons    map[uuid.UUID]types.Lesson
	embeddings map[uuid.UUID]types.CourseEmbedding

	// failOn names a write that returns errInjected: path, items, course, lessons, embedding.
	failOn string
	txs    int
}

type itemKey struct {
	path uuid.UUID
	idx  int
}

func newMemStore() *memStore {
	return &memStore{
		paths:      map[uuid.UUID]types.LearningPath{},
		items:      map[itemKey]types.PathItem{},
		courses:    map[uuid.UUID]types.Course{},
		lessons:    map[uuid.UUID]types.Lesson{},
		embeddings: map[uuid.UUID]types.CourseEmbedding{},
	}
}

func (s *memStore) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	s.mu.Lock()
	s.txs++
	snap := s.cloneLocked()
	s.mu.Unlock()
	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.paths, s.items, s.courses, s.lessons, s.embeddings = snap.paths, snap.items, snap.courses, snap.lessons, snap.embeddings
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) cloneLocked() *memStore {
	c := newMemStore()
	for k, v := range s.paths {
		c.paths[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.courses {
		c.courses[k] = v
	}
	for k, v := range s.lessons {
		c.lessons[k] = v
	}
	for k, v := range s.embeddings {
		c.embeddings[k] = v
	}
	return c
}

func (s *memStore) item(pathID uuid.UUID, idx int) (types.PathItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemKey{pathID, idx}]
	return it, ok
}

func (s *memStore) pathItems(pathID uuid.UUID) []types.PathItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.PathItem{}
	for k, v := range s.items {
		if k.path == pathID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Idx < out[j].Idx })
	return out
}

func (s *memStore) courseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.courses)
}

func (s *memStore) lessonsOf(courseID uuid.UUID) []types.Lesson {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.Lesson{}
	for _, l := range s.lessons {
		if l.CourseID == courseID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Idx < out[j].Idx })
	return out
}

func (s *memStore) putCourse(c types.Course, lessons ...types.Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courses[c.ID] = c
	for _, l := range lessons {
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.CourseID = c.ID
		s.lessons[l.ID] = l
	}
}

func (s *memStore) putEmbedding(e types.CourseEmbedding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings[e.CourseID] = e
}

func (s *memStore) putPath(owner uuid.UUID, items ...types.PathItem) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.paths[id] = types.LearningPath{ID: id, OwnerID: owner, UserPrompt: "seeded prompt", CreatedAt: time.Now()}
	for _, it := range items {
		it.ID = uuid.New()
		it.PathID = id
		s.items[itemKey{id, it.Idx}] = it
	}
	return id
}

func (s *memStore) repos() (repos.LearningPathRepo, repos.PathItemRepo, repos.CourseRepo, repos.LessonRepo, repos.CourseEmbeddingRepo) {
	return memPathRepo{s}, memItemRepo{s}, memCourseRepo{s}, memLessonRepo{s}, memEmbeddingRepo{s}
}

type memPathRepo struct{ s *memStore }

func (r memPathRepo) Create(dbc dbctx.Context, row *types.LearningPath) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOn == "path" {
		return errInjected
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.CreatedAt = time.Now()
	r.s.paths[row.ID] = *row
	return nil
}

func (r memPathRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPath, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.paths[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r memPathRepo) GetForOwner(dbc dbctx.Context, id uuid.UUID, ownerID uuid.UUID, withItems bool) (*types.LearningPath, error) {
	p, _ := r.GetByID(dbc, id)
	if p == nil || p.OwnerID != ownerID {
		return nil, nil
	}
	if withItems {
		p.Items = r.s.pathItems(id)
	}
	return p, nil
}

func (r memPathRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, withItems bool) ([]*types.LearningPath, error) {
	r.s.mu.Lock()
	out := []*types.LearningPath{}
	for _, p := range r.s.paths {
		if p.OwnerID == ownerID {
			cp := p
			out = append(out, &cp)
		}
	}
	r.s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if withItems {
		for _, p := range out {
			p.Items = r.s.pathItems(p.ID)
		}
	}
	return out, nil
}

func (r memPathRepo) UpdateTitle(dbc dbctx.Context, id uuid.UUID, title string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.paths[id]
	if !ok {
		return nil
	}
	p.Title = &title
	r.s.paths[id] = p
	return nil
}

type memItemRepo struct{ s *memStore }

func (r memItemRepo) Create(dbc dbctx.Context, rows []*types.PathItem) ([]*types.PathItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOn == "items" {
		return nil, errInjected
	}
	for _, row := range rows {
		k := itemKey{row.PathID, row.Idx}
		if _, dup := r.s.items[k]; dup {
			return nil, fmt.Errorf("duplicate idx %d", row.Idx)
		}
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		r.s.items[k] = *row
	}
	return rows, nil
}

func (r memItemRepo) GetByPathIdx(dbc dbctx.Context, pathID uuid.UUID, idx int) (*types.PathItem, error) {
	it, ok := r.s.item(pathID, idx)
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (r memItemRepo) ListByPathIDs(dbc dbctx.Context, pathIDs []uuid.UUID) ([]*types.PathItem, error) {
	out := []*types.PathItem{}
	for _, id := range pathIDs {
		for _, it := range r.s.pathItems(id) {
			cp := it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memItemRepo) ClaimForGeneration(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, now time.Time, staleBefore time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := itemKey{pathID, idx}
	it, ok := r.s.items[k]
	if !ok || it.Kind != types.PathItemKindNew {
		return false, nil
	}
	switch it.Status {
	case types.PathItemStatusPending, types.PathItemStatusFailed:
	case types.PathItemStatusGenerating:
		if it.GenerationStartedAt != nil && !it.GenerationStartedAt.Before(staleBefore) {
			return false, nil
		}
	default:
		return false, nil
	}
	it.Status = types.PathItemStatusGenerating
	it.AttemptID = &attemptID
	it.GenerationStartedAt = &now
	it.Error = nil
	r.s.items[k] = it
	return true, nil
}

func (r memItemRepo) MarkReady(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, courseID uuid.UUID) (bool, error) {
	return r.finish(pathID, idx, attemptID, func(it *types.PathItem) {
		it.Status = types.PathItemStatusReady
		it.CourseID = &courseID
		it.Error = nil
	})
}

func (r memItemRepo) MarkFailed(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, message string) (bool, error) {
	return r.finish(pathID, idx, attemptID, func(it *types.PathItem) {
		it.Status = types.PathItemStatusFailed
		it.Error = &message
	})
}

func (r memItemRepo) finish(pathID uuid.UUID, idx int, attemptID uuid.UUID, apply func(it *types.PathItem)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	k := itemKey{pathID, idx}
	it, ok := r.s.items[k]
	if !ok || it.Status != types.PathItemStatusGenerating || it.AttemptID == nil || *it.AttemptID != attemptID {
		return false, nil
	}
	apply(&it)
	r.s.items[k] = it
	return true, nil
}

type memCourseRepo struct{ s *memStore }

func (r memCourseRepo) Create(dbc dbctx.Context, row *types.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOn == "course" {
		return errInjected
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	r.s.courses[row.ID] = *row
	return nil
}

func (r memCourseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.courses[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r memCourseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error) {
	out := []*types.Course{}
	for _, id := range ids {
		if c, _ := r.GetByID(dbc, id); c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r memCourseRepo) ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	out := map[uuid.UUID]bool{}
	for _, id := range ids {
		if c, _ := r.GetByID(dbc, id); c != nil {
			out[id] = true
		}
	}
	return out, nil
}

func (r memCourseRepo) ListLibrary(dbc dbctx.Context) ([]*types.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*types.Course{}
	for _, c := range r.s.courses {
		if c.Owner == nil {
			cp := c
			out = append(out, &cp)
		}
	}
	return out, nil
}

type memLessonRepo struct{ s *memStore }

func (r memLessonRepo) Create(dbc dbctx.Context, rows []*types.Lesson) ([]*types.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOn == "lessons" {
		return nil, errInjected
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		r.s.lessons[row.ID] = *row
	}
	return rows, nil
}

func (r memLessonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lessons[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r memLessonRepo) ListByCourseID(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Lesson, error) {
	out := []*types.Lesson{}
	for _, l := range r.s.lessonsOf(courseID) {
		cp := l
		out = append(out, &cp)
	}
	return out, nil
}

type memEmbeddingRepo struct{ s *memStore }

func (r memEmbeddingRepo) Upsert(dbc dbctx.Context, row *types.CourseEmbedding) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOn == "embedding" {
		return errInjected
	}
	r.s.embeddings[row.CourseID] = *row
	return nil
}

func (r memEmbeddingRepo) GetByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseEmbedding, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*types.CourseEmbedding{}
	for _, id := range courseIDs {
		if e, ok := r.s.embeddings[id]; ok {
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r memEmbeddingRepo) Match(dbc dbctx.Context, vec []float32, limit int, minScore float64) ([]repos.EmbeddingMatch, error) {
	return nil, nil
}

// scriptedAI answers by schema name: path_plan, course_outline, lesson_draft.
type scriptedAI struct {
	mu       sync.Mutex
	vec      []float32
	embedErr error
	embedded []string
	replies  map[string]map[string]any
	errs     map[string]error
	calls    map[string]int
}

func (a *scriptedAI) ModelName() string { return "planner-test" }

func newScriptedAI() *scriptedAI {
	return &scriptedAI{
		vec:     []float32{0.1, 0.2, 0.3},
		replies: map[string]map[string]any{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (f *scriptedAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedded = append(f.embedded, inputs...)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = f.vec
	}
	return out, nil
}

func (f *scriptedAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[schemaName]++
	if err := f.errs[schemaName]; err != nil {
		return nil, err
	}
	reply, ok := f.replies[schemaName]
	if !ok {
		return nil, fmt.Errorf("no reply scripted for %s", schemaName)
	}
	return reply, nil
}

func (f *scriptedAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *scriptedAI) callCount(schemaName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[schemaName]
}

func validOutline(lessons int) map[string]any {
	arr := make([]any, 0, lessons)
	for i := 1; i <= lessons; i++ {
		arr = append(arr, map[string]any{"title": fmt.Sprintf("Part %d", i), "content": fmt.Sprintf("Brief for part %d.", i)})
	}
	return map[string]any{
		"course": map[string]any{
			"title":       "Go Concurrency in Practice",
			"subtitle":    "Goroutines, channels and context",
			"description": "A hands-on course on writing correct concurrent Go services with goroutines and channels.",
			"level":       "Intermediate",
			"tags":        []any{"go", "concurrency"},
		},
		"lessons": arr,
	}
}

func validLessonDraft() map[string]any {
	return map[string]any{
		"title":   "Drafted lesson",
		"content": strings.Repeat("Channels coordinate goroutines. ", 40),
	}
}

type fakeIndex struct {
	mu        sync.Mutex
	matches   []courseindex.Match
	queryErr  error
	mirrored  []courseindex.Entry
	mirrorErr error
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, limit int, minScore float64) ([]courseindex.Match, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.matches, nil
}

func (f *fakeIndex) Mirror(ctx context.Context, e courseindex.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mirrored = append(f.mirrored, e)
	return f.mirrorErr
}

type recordedEvent struct {
	user    uuid.UUID
	created uuid.UUID
	status  *PathItemStatusEvent
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *fakeNotifier) PathCreated(userID uuid.UUID, pathID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{user: userID, created: pathID})
}

func (n *fakeNotifier) PathItemStatus(userID uuid.UUID, ev PathItemStatusEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{user: userID, status: &ev})
}

func (n *fakeNotifier) statuses() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []string{}
	for _, e := range n.events {
		if e.status != nil {
			out = append(out, e.status.Status)
		}
	}
	return out
}

func userCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func strPtr(s string) *string { return &s }
