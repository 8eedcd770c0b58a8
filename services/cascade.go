// services/cascade.go
package services

import (
	"fmt"

	"github.com/alphabatem/common/context"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
)

// cascadeStore is the slice of the store the propagator needs.
type cascadeStore interface {
	PluckChildIDs(table, parentFK string, parentIDs []string) ([]string, error)
	UpdateStatusByIDs(table string, ids []string, status, updatedBy string) error
}

// cascadeLevel is one step of the fixed hierarchy schema, parent to leaf.
type cascadeLevel struct {
	Kind     string
	Table    string
	ParentFK string
}

var cascadeLevels = []cascadeLevel{
	{Kind: shared.KindCourse, Table: "courses", ParentFK: "path_id"},
	{Kind: shared.KindModule, Table: "modules", ParentFK: "course_id"},
	{Kind: shared.KindLesson, Table: "lessons", ParentFK: "module_id"},
	{Kind: shared.KindChallenge, Table: "challenges", ParentFK: "lesson_id"},
}

// CascadeService pushes a draft/archived status transition down the content
// tree, level by level. The walk is not atomic: a failure at a deeper level
// leaves shallower levels already transitioned and reports the error. It is
// idempotent, so the caller's recovery is simply to run it again.
type CascadeService struct {
	context.DefaultService

	store cascadeStore
}

const CASCADE_SVC = "cascade_svc"

func (svc CascadeService) Id() string {
	return CASCADE_SVC
}

func (svc *CascadeService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *CascadeService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// CascadeStatus applies status to every descendant of (rootKind, rootID).
// Only downward transitions cascade; promoting to published is a per-node
// operation that never goes through here.
func (svc *CascadeService) CascadeStatus(rootKind, rootID, status, updatedBy string) (int, error) {
	if status != shared.StatusDraft && status != shared.StatusArchived {
		return 0, shared.NewBadRequestError(
			fmt.Errorf("status %q does not cascade", status),
			"Only draft and archived transitions cascade")
	}

	start := -1
	for i, level := range cascadeLevels {
		if levelBelow(rootKind) == level.Kind {
			start = i
			break
		}
	}
	if rootKind == shared.KindChallenge {
		return 0, nil // leaf kind, nothing beneath it
	}
	if start < 0 {
		return 0, shared.NewBadRequestError(
			fmt.Errorf("unknown content kind %q", rootKind),
			"Unknown content kind")
	}

	updated := 0
	parentIDs := []string{rootID}

	for _, level := range cascadeLevels[start:] {
		childIDs, err := svc.store.PluckChildIDs(level.Table, level.ParentFK, parentIDs)
		if err != nil {
			return updated, fmt.Errorf("cascade halted while listing %s: %w", level.Kind, err)
		}
		if len(childIDs) == 0 {
			break
		}

		if err := svc.store.UpdateStatusByIDs(level.Table, childIDs, status, updatedBy); err != nil {
			return updated, fmt.Errorf("cascade halted while updating %s: %w", level.Kind, err)
		}

		updated += len(childIDs)
		parentIDs = childIDs
	}

	cascadeNodesTotal.Add(float64(updated))
	log.WithFields(log.Fields{
		"root_kind": rootKind,
		"root_id":   rootID,
		"status":    status,
		"updated":   updated,
	}).Info("Cascaded status transition")

	return updated, nil
}

// levelBelow returns the child kind directly beneath kind, or "" for the
// leaf.
func levelBelow(kind string) string {
	switch kind {
	case shared.KindPath:
		return shared.KindCourse
	case shared.KindCourse:
		return shared.KindModule
	case shared.KindModule:
		return shared.KindLesson
	case shared.KindLesson:
		return shared.KindChallenge
	}
	return ""
}
