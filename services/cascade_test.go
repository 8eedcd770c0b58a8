package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/skillpath/academy_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCascadeStore holds a static hierarchy keyed by table and records
// every status write.
type fakeCascadeStore struct {
	children map[string]map[string][]string // table -> parentID -> childIDs
	statuses map[string]string              // "table/id" -> status

	failListTable   string
	failUpdateTable string
	updateCalls     int
}

func (f *fakeCascadeStore) PluckChildIDs(table, parentFK string, parentIDs []string) ([]string, error) {
	if table == f.failListTable {
		return nil, errors.New("connection reset")
	}

	var out []string
	for _, parentID := range parentIDs {
		out = append(out, f.children[table][parentID]...)
	}
	return out, nil
}

func (f *fakeCascadeStore) UpdateStatusByIDs(table string, ids []string, status, updatedBy string) error {
	if table == f.failUpdateTable {
		return errors.New("connection reset")
	}

	f.updateCalls++
	for _, id := range ids {
		f.statuses[table+"/"+id] = status
	}
	return nil
}

func newFakeTree() *fakeCascadeStore {
	return &fakeCascadeStore{
		children: map[string]map[string][]string{
			"courses": {"p1": {"c1", "c2"}},
			"modules": {"c1": {"m1"}, "c2": {"m2", "m3"}},
			"lessons": {"m1": {"l1", "l2"}, "m2": {"l3"}},
			"challenges": {
				"l1": {"ch1"},
				"l3": {"ch2", "ch3"},
			},
		},
		statuses: make(map[string]string),
	}
}

func newTestCascade(store cascadeStore) *CascadeService {
	return &CascadeService{store: store}
}

func TestCascadeStatus_WalksEveryLevel(t *testing.T) {
	store := newFakeTree()
	svc := newTestCascade(store)

	updated, err := svc.CascadeStatus(shared.KindPath, "p1", shared.StatusArchived, "admin")
	require.NoError(t, err)

	// 2 courses + 3 modules + 3 lessons + 3 challenges
	assert.Equal(t, 11, updated)
	for _, key := range []string{
		"courses/c1", "courses/c2",
		"modules/m1", "modules/m2", "modules/m3",
		"lessons/l1", "lessons/l2", "lessons/l3",
		"challenges/ch1", "challenges/ch2", "challenges/ch3",
	} {
		assert.Equal(t, shared.StatusArchived, store.statuses[key], key)
	}
}

func TestCascadeStatus_StartsBelowRootKind(t *testing.T) {
	store := newFakeTree()
	svc := newTestCascade(store)

	updated, err := svc.CascadeStatus(shared.KindCourse, "c2", shared.StatusDraft, "editor")
	require.NoError(t, err)

	// 2 modules + 1 lesson + 2 challenges
	assert.Equal(t, 5, updated)
	assert.Empty(t, store.statuses["courses/c1"])
	assert.Equal(t, shared.StatusDraft, store.statuses["modules/m3"])
	assert.Equal(t, shared.StatusDraft, store.statuses["challenges/ch3"])
}

func TestCascadeStatus_Idempotent(t *testing.T) {
	store := newFakeTree()
	svc := newTestCascade(store)

	first, err := svc.CascadeStatus(shared.KindPath, "p1", shared.StatusDraft, "editor")
	require.NoError(t, err)

	second, err := svc.CascadeStatus(shared.KindPath, "p1", shared.StatusDraft, "editor")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for key, status := range store.statuses {
		assert.Equal(t, shared.StatusDraft, status, key)
	}
}

func TestCascadeStatus_ChallengeRootIsNoOp(t *testing.T) {
	store := newFakeTree()
	svc := newTestCascade(store)

	updated, err := svc.CascadeStatus(shared.KindChallenge, "ch1", shared.StatusDraft, "editor")
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Equal(t, 0, store.updateCalls)
}

func TestCascadeStatus_RejectsPublished(t *testing.T) {
	svc := newTestCascade(newFakeTree())

	_, err := svc.CascadeStatus(shared.KindPath, "p1", shared.StatusPublished, "editor")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrBadRequest))
}

func TestCascadeStatus_RejectsUnknownKind(t *testing.T) {
	svc := newTestCascade(newFakeTree())

	_, err := svc.CascadeStatus("topic", "x", shared.StatusDraft, "editor")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrBadRequest))
}

func TestCascadeStatus_HaltReportsPartialCount(t *testing.T) {
	store := newFakeTree()
	store.failUpdateTable = "lessons"
	svc := newTestCascade(store)

	updated, err := svc.CascadeStatus(shared.KindPath, "p1", shared.StatusArchived, "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("cascade halted while updating %s", shared.KindLesson))

	// courses and modules were already transitioned
	assert.Equal(t, 5, updated)
	assert.Equal(t, shared.StatusArchived, store.statuses["modules/m1"])
	assert.Empty(t, store.statuses["lessons/l1"])
}

func TestCascadeStatus_EmptyLevelShortCircuits(t *testing.T) {
	store := &fakeCascadeStore{
		children: map[string]map[string][]string{
			"courses": {"p1": {"c1"}},
			// c1 has no modules
		},
		statuses: make(map[string]string),
	}
	svc := newTestCascade(store)

	updated, err := svc.CascadeStatus(shared.KindPath, "p1", shared.StatusDraft, "editor")
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, store.updateCalls)
}
