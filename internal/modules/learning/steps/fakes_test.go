package steps

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
)

type fakeAI struct {
	mu sync.Mutex

	embed    [][]float32
	embedErr error

	// byUser maps a substring of the user prompt to scripted responses, consumed in order.
	byUser map[string][]fakeReply
	calls  map[string]int
}

type fakeReply struct {
	obj   map[string]any
	err   error
	delay func()
}

func newFakeAI() *fakeAI {
	return &fakeAI{byUser: map[string][]fakeReply{}, calls: map[string]int{}}
}

func (f *fakeAI) on(userContains string, replies ...fakeReply) *fakeAI {
	f.byUser[userContains] = append(f.byUser[userContains], replies...)
	return f
}

func (f *fakeAI) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	return f.embed, f.embedErr
}

func (f *fakeAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	f.mu.Lock()
	var reply *fakeReply
	for key, queue := range f.byUser {
		if !strings.Contains(user, key) {
			continue
		}
		f.calls[key]++
		if len(queue) > 0 {
			r := queue[0]
			if len(queue) > 1 {
				f.byUser[key] = queue[1:]
			}
			reply = &r
		}
		break
	}
	f.mu.Unlock()
	if reply == nil {
		return nil, errors.New("unexpected prompt")
	}
	if reply.delay != nil {
		reply.delay()
	}
	return reply.obj, reply.err
}

func (f *fakeAI) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeAI) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

type fakeIndex struct {
	matches []courseindex.Match
	err     error
	limit   int
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, limit int, minScore float64) ([]courseindex.Match, error) {
	f.limit = limit
	return f.matches, f.err
}

func (f *fakeIndex) Mirror(ctx context.Context, e courseindex.Entry) error { return nil }

type fakeEmbeddings struct {
	rows []*types.CourseEmbedding
}

func (f *fakeEmbeddings) GetByCourseIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.CourseEmbedding, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []*types.CourseEmbedding{}
	for _, r := range f.rows {
		if want[r.CourseID] {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeCourses struct {
	rows     []*types.Course
	existErr error
	asked    [][]uuid.UUID
}

func (f *fakeCourses) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []*types.Course{}
	for _, r := range f.rows {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCourses) ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	f.asked = append(f.asked, ids)
	if f.existErr != nil {
		return nil, f.existErr
	}
	out := map[uuid.UUID]bool{}
	for _, id := range ids {
		for _, r := range f.rows {
			if r.ID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func existing(ids ...uuid.UUID) *fakeCourses {
	f := &fakeCourses{}
	for _, id := range ids {
		f.rows = append(f.rows, &types.Course{ID: id, Title: "course " + id.String()[:4]})
	}
	return f
}

func lessonBody(n int) string {
	return strings.Repeat("word ", n/5+1)
}
