package services

import (
	"fmt"
	"testing"

	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContentStore struct {
	paths      map[string]*model.LearningPath
	courses    map[string]*model.Course
	modules    map[string]*model.Module
	lessons    map[string]*model.Lesson
	challenges map[string]*model.Challenge

	courseList []model.Course
	slugCount  int64

	totalRows    int64
	countTable   string
	countFilters []Filter
}

func newFakeContentStore() *fakeContentStore {
	return &fakeContentStore{
		paths:      make(map[string]*model.LearningPath),
		courses:    make(map[string]*model.Course),
		modules:    make(map[string]*model.Module),
		lessons:    make(map[string]*model.Lesson),
		challenges: make(map[string]*model.Challenge),
	}
}

func (f *fakeContentStore) CreatePath(path *model.LearningPath) (*model.LearningPath, error) {
	f.paths[path.ID] = path
	return path, nil
}

func (f *fakeContentStore) GetPath(id string) (*model.LearningPath, error) {
	if row, ok := f.paths[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("path %s", id), "Record not found")
}

func (f *fakeContentStore) ListPaths(q ListQuery) ([]model.LearningPath, error) {
	return nil, nil
}

func (f *fakeContentStore) SavePath(path *model.LearningPath) error {
	f.paths[path.ID] = path
	return nil
}

func (f *fakeContentStore) CreateCourse(course *model.Course) (*model.Course, error) {
	f.courses[course.ID] = course
	return course, nil
}

func (f *fakeContentStore) GetCourse(id string) (*model.Course, error) {
	if row, ok := f.courses[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("course %s", id), "Record not found")
}

func (f *fakeContentStore) ListCourses(q ListQuery) ([]model.Course, error) {
	return f.courseList, nil
}

func (f *fakeContentStore) SaveCourse(course *model.Course) error {
	f.courses[course.ID] = course
	return nil
}

func (f *fakeContentStore) CreateModule(mod *model.Module) (*model.Module, error) {
	f.modules[mod.ID] = mod
	return mod, nil
}

func (f *fakeContentStore) GetModule(id string) (*model.Module, error) {
	if row, ok := f.modules[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("module %s", id), "Record not found")
}

func (f *fakeContentStore) ListModules(q ListQuery) ([]model.Module, error) {
	return nil, nil
}

func (f *fakeContentStore) SaveModule(mod *model.Module) error {
	f.modules[mod.ID] = mod
	return nil
}

func (f *fakeContentStore) CreateLesson(lesson *model.Lesson) (*model.Lesson, error) {
	f.lessons[lesson.ID] = lesson
	return lesson, nil
}

func (f *fakeContentStore) GetLesson(id string) (*model.Lesson, error) {
	if row, ok := f.lessons[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("lesson %s", id), "Record not found")
}

func (f *fakeContentStore) ListLessons(q ListQuery) ([]model.Lesson, error) {
	return nil, nil
}

func (f *fakeContentStore) SaveLesson(lesson *model.Lesson) error {
	f.lessons[lesson.ID] = lesson
	return nil
}

func (f *fakeContentStore) CreateChallenge(challenge *model.Challenge) (*model.Challenge, error) {
	f.challenges[challenge.ID] = challenge
	return challenge, nil
}

func (f *fakeContentStore) GetChallenge(id string) (*model.Challenge, error) {
	if row, ok := f.challenges[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("challenge %s", id), "Record not found")
}

func (f *fakeContentStore) ListChallenges(q ListQuery) ([]model.Challenge, error) {
	return nil, nil
}

func (f *fakeContentStore) SaveChallenge(challenge *model.Challenge) error {
	f.challenges[challenge.ID] = challenge
	return nil
}

func (f *fakeContentStore) CountSiblingSlugs(table, parentFK, parentID, slug, excludeID string) (int64, error) {
	return f.slugCount, nil
}

func (f *fakeContentStore) CountRows(table string, filters []Filter) (int64, error) {
	f.countTable = table
	f.countFilters = filters
	return f.totalRows, nil
}

func newContentFixture(store *fakeContentStore, cascade *fakeCascadeStore) *ContentService {
	if cascade == nil {
		cascade = &fakeCascadeStore{statuses: make(map[string]string)}
	}
	return &ContentService{
		store:      store,
		cacheSvc:   newTestCache(nil),
		cascadeSvc: newTestCascade(cascade),
	}
}

func TestUpdateContent_CascadeFailureStillDropsCache(t *testing.T) {
	store := newFakeContentStore()
	store.courses["c1"] = &model.Course{
		ID: "c1", PathID: "p1", Title: "Go Basics", Slug: "go-basics",
		Status: shared.StatusPublished,
	}
	cascade := &fakeCascadeStore{
		children:        map[string]map[string][]string{"modules": {"c1": {"m1"}}},
		statuses:        make(map[string]string),
		failUpdateTable: "modules",
	}
	svc := newContentFixture(store, cascade)

	// warm the cache with the published row
	warmed, err := svc.GetContent(shared.KindCourse, "c1", true)
	require.NoError(t, err)
	assert.Equal(t, shared.StatusPublished, warmed.Status)

	draft := shared.StatusDraft
	_, err = svc.UpdateContent(shared.KindCourse, "c1", "editor", dto.UpdateContentRequest{Status: &draft})
	require.Error(t, err)

	// the row was saved before the cascade halted; the cache must not keep
	// serving the published copy
	assert.NotContains(t, svc.cacheSvc.Keys(), contentCacheKey(shared.KindCourse, "c1"))

	fresh, err := svc.GetContent(shared.KindCourse, "c1", true)
	require.NoError(t, err)
	assert.Equal(t, shared.StatusDraft, fresh.Status)
}

func TestUpdateContent_CascadeSuccessInvalidates(t *testing.T) {
	store := newFakeContentStore()
	store.courses["c1"] = &model.Course{
		ID: "c1", PathID: "p1", Title: "Go Basics", Slug: "go-basics",
		Status: shared.StatusPublished,
	}
	cascade := &fakeCascadeStore{
		children: map[string]map[string][]string{"modules": {"c1": {"m1"}}},
		statuses: make(map[string]string),
	}
	svc := newContentFixture(store, cascade)

	_, err := svc.GetContent(shared.KindCourse, "c1", true)
	require.NoError(t, err)

	archived := shared.StatusArchived
	resp, err := svc.UpdateContent(shared.KindCourse, "c1", "editor", dto.UpdateContentRequest{Status: &archived})
	require.NoError(t, err)
	assert.Equal(t, shared.StatusArchived, resp.Status)
	assert.Equal(t, shared.StatusArchived, cascade.statuses["modules/m1"])
	assert.NotContains(t, svc.cacheSvc.Keys(), contentCacheKey(shared.KindCourse, "c1"))
}

func TestListContent_TotalCountsEveryMatch(t *testing.T) {
	store := newFakeContentStore()
	store.courseList = []model.Course{
		{ID: "c1", PathID: "p1", Title: "A", Slug: "a", Status: shared.StatusPublished},
		{ID: "c2", PathID: "p1", Title: "B", Slug: "b", Status: shared.StatusPublished},
	}
	store.totalRows = 5
	svc := newContentFixture(store, nil)

	resp, err := svc.ListContent(shared.KindCourse, "p1", shared.StatusPublished, 2, 0)
	require.NoError(t, err)

	// the page holds two rows; total reflects every match
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 5, resp.Total)

	assert.Equal(t, "courses", store.countTable)
	assert.ElementsMatch(t, []Filter{
		Eq("path_id", "p1"),
		Eq("status", shared.StatusPublished),
	}, store.countFilters)
}
