// services/content.go
package services

import (
	"fmt"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
)

type contentStore interface {
	CreatePath(path *model.LearningPath) (*model.LearningPath, error)
	GetPath(id string) (*model.LearningPath, error)
	ListPaths(q ListQuery) ([]model.LearningPath, error)
	SavePath(path *model.LearningPath) error

	CreateCourse(course *model.Course) (*model.Course, error)
	GetCourse(id string) (*model.Course, error)
	ListCourses(q ListQuery) ([]model.Course, error)
	SaveCourse(course *model.Course) error

	CreateModule(mod *model.Module) (*model.Module, error)
	GetModule(id string) (*model.Module, error)
	ListModules(q ListQuery) ([]model.Module, error)
	SaveModule(mod *model.Module) error

	CreateLesson(lesson *model.Lesson) (*model.Lesson, error)
	GetLesson(id string) (*model.Lesson, error)
	ListLessons(q ListQuery) ([]model.Lesson, error)
	SaveLesson(lesson *model.Lesson) error

	CreateChallenge(challenge *model.Challenge) (*model.Challenge, error)
	GetChallenge(id string) (*model.Challenge, error)
	ListChallenges(q ListQuery) ([]model.Challenge, error)
	SaveChallenge(challenge *model.Challenge) error

	CountSiblingSlugs(table, parentFK, parentID, slug, excludeID string) (int64, error)
	CountRows(table string, filters []Filter) (int64, error)
}

// ContentService is the editorial facade over the five-level hierarchy.
// Reads go through the TTL cache; every write invalidates the affected
// entries and downward status transitions hand off to the cascade.
type ContentService struct {
	context.DefaultService

	store      contentStore
	cacheSvc   *TTLCacheService
	cascadeSvc *CascadeService
}

const CONTENT_SVC = "content_svc"

const contentCacheTTL = 5 * time.Minute

// contentNode is the kind-neutral view the service works with internally.
type contentNode struct {
	Kind        string
	ID          string
	ParentID    string
	Title       string
	Slug        string
	Description string
	Status      string
	SortOrder   int
	PublishedBy string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// kindSchema mirrors the cascade's static hierarchy table, keyed by kind.
type kindSchema struct {
	Table      string
	ParentFK   string
	ParentKind string
}

var kindSchemas = map[string]kindSchema{
	shared.KindPath:      {Table: "learning_paths"},
	shared.KindCourse:    {Table: "courses", ParentFK: "path_id", ParentKind: shared.KindPath},
	shared.KindModule:    {Table: "modules", ParentFK: "course_id", ParentKind: shared.KindCourse},
	shared.KindLesson:    {Table: "lessons", ParentFK: "module_id", ParentKind: shared.KindModule},
	shared.KindChallenge: {Table: "challenges", ParentFK: "lesson_id", ParentKind: shared.KindLesson},
}

func (svc ContentService) Id() string {
	return CONTENT_SVC
}

func (svc *ContentService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ContentService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.cacheSvc = svc.Service(CACHE_SVC).(*TTLCacheService)
	svc.cascadeSvc = svc.Service(CASCADE_SVC).(*CascadeService)
	return nil
}

// CreateContent creates a draft node of any non-challenge kind. The slug
// must be unique among siblings; the parent must exist.
func (svc *ContentService) CreateContent(kind, userID string, req dto.CreateContentRequest) (*dto.ContentResponse, error) {
	schema, ok := kindSchemas[kind]
	if !ok || kind == shared.KindChallenge {
		return nil, shared.NewBadRequestError(fmt.Errorf("kind %q not creatable here", kind), "Unknown content kind")
	}

	if schema.ParentKind != "" {
		if req.ParentID == "" {
			return nil, shared.NewBadRequestError(
				fmt.Errorf("%s requires a parent %s", kind, schema.ParentKind), "parent_id is required")
		}
		if _, err := svc.getNode(schema.ParentKind, req.ParentID); err != nil {
			return nil, err
		}
	}

	if err := svc.checkSlug(kind, req.ParentID, req.Slug, ""); err != nil {
		return nil, err
	}

	audit := model.Audit{CreatedBy: userID, UpdatedBy: userID}
	var node *contentNode
	var err error

	switch kind {
	case shared.KindPath:
		row, createErr := svc.store.CreatePath(&model.LearningPath{
			Title: req.Title, Slug: req.Slug, Description: req.Description,
			Status: shared.StatusDraft, SortOrder: req.SortOrder, Audit: audit,
		})
		node, err = pathNode(row), createErr
	case shared.KindCourse:
		row, createErr := svc.store.CreateCourse(&model.Course{
			PathID: req.ParentID, Title: req.Title, Slug: req.Slug, Description: req.Description,
			Status: shared.StatusDraft, SortOrder: req.SortOrder, Audit: audit,
		})
		node, err = courseNode(row), createErr
	case shared.KindModule:
		row, createErr := svc.store.CreateModule(&model.Module{
			CourseID: req.ParentID, Title: req.Title, Slug: req.Slug, Description: req.Description,
			Status: shared.StatusDraft, SortOrder: req.SortOrder, Audit: audit,
		})
		node, err = moduleNode(row), createErr
	case shared.KindLesson:
		row, createErr := svc.store.CreateLesson(&model.Lesson{
			ModuleID: req.ParentID, Title: req.Title, Slug: req.Slug, Content: req.Description,
			Status: shared.StatusDraft, SortOrder: req.SortOrder, Audit: audit,
		})
		node, err = lessonNode(row), createErr
	}
	if err != nil {
		return nil, err
	}

	svc.invalidate(node)
	return nodeToResponse(node), nil
}

// CreateChallenge creates a draft challenge beneath a lesson, indexing the
// questions in submission order.
func (svc *ContentService) CreateChallenge(userID string, req dto.CreateChallengeRequest) (*dto.ChallengeResponse, error) {
	if _, err := svc.store.GetLesson(req.LessonID); err != nil {
		return nil, err
	}
	if err := svc.checkSlug(shared.KindChallenge, req.LessonID, req.Slug, ""); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		questions = append(questions, model.Question{
			Index:     i,
			Type:      q.Type,
			Prompt:    q.Prompt,
			Options:   q.Options,
			Answer:    q.Answer,
			Reference: q.Reference,
			Rubric:    q.Rubric,
		})
	}

	raw, err := sonic.Marshal(questions)
	if err != nil {
		return nil, shared.NewBadRequestError(err, "Failed to encode questions")
	}

	challenge := &model.Challenge{
		LessonID:    req.LessonID,
		Title:       req.Title,
		Slug:        req.Slug,
		Status:      shared.StatusDraft,
		SortOrder:   req.SortOrder,
		Questions:   raw,
		XPReward:    req.XPReward,
		MaxAttempts: req.MaxAttempts,
		Audit:       model.Audit{CreatedBy: userID, UpdatedBy: userID},
	}
	if challenge.XPReward <= 0 {
		challenge.XPReward = 50
	}

	challenge, err = svc.store.CreateChallenge(challenge)
	if err != nil {
		return nil, err
	}

	svc.cacheSvc.Invalidate(challenge.ID, "tree:")
	return challengeToResponse(challenge)
}

// GetContent returns one node, read through the cache. Unpublished nodes
// are only visible when includeUnpublished is set.
func (svc *ContentService) GetContent(kind, id string, includeUnpublished bool) (*dto.ContentResponse, error) {
	cached, err := svc.cacheSvc.GetOrLoad(contentCacheKey(kind, id), contentCacheTTL, func() (interface{}, error) {
		return svc.getNode(kind, id)
	})
	if err != nil {
		return nil, err
	}

	node := cached.(*contentNode)
	if node.Status != shared.StatusPublished && !includeUnpublished {
		return nil, shared.NewNotFoundError(fmt.Errorf("%s %s is not published", kind, id), "Record not found")
	}
	return nodeToResponse(node), nil
}

// GetChallenge returns a challenge with its answers stripped.
func (svc *ContentService) GetChallenge(id string, includeUnpublished bool) (*dto.ChallengeResponse, error) {
	challenge, err := svc.store.GetChallenge(id)
	if err != nil {
		return nil, err
	}
	if challenge.Status != shared.StatusPublished && !includeUnpublished {
		return nil, shared.NewNotFoundError(fmt.Errorf("challenge %s is not published", id), "Record not found")
	}
	return challengeToResponse(challenge)
}

// ListContent lists one kind, optionally scoped to a parent and status.
func (svc *ContentService) ListContent(kind, parentID, status string, limit, offset int) (*dto.ContentListResponse, error) {
	schema, ok := kindSchemas[kind]
	if !ok {
		return nil, shared.NewBadRequestError(fmt.Errorf("unknown content kind %q", kind), "Unknown content kind")
	}

	q := ListQuery{OrderBy: "sort_order", Limit: limit, Offset: offset}
	if parentID != "" && schema.ParentFK != "" {
		q.Filters = append(q.Filters, Eq(schema.ParentFK, parentID))
	}
	if status != "" {
		q.Filters = append(q.Filters, Eq("status", status))
	}

	nodes, err := svc.listNodes(kind, q)
	if err != nil {
		return nil, err
	}

	// Total counts every match, not just the returned page.
	total, err := svc.store.CountRows(schema.Table, q.Filters)
	if err != nil {
		return nil, err
	}

	resp := &dto.ContentListResponse{Items: make([]dto.ContentResponse, 0, len(nodes)), Total: int(total)}
	for _, node := range nodes {
		resp.Items = append(resp.Items, *nodeToResponse(node))
	}
	return resp, nil
}

// UpdateContent applies a partial update. Status transitions stamp the
// publish audit fields; draft/archived transitions cascade to descendants.
func (svc *ContentService) UpdateContent(kind, id, userID string, req dto.UpdateContentRequest) (*dto.ContentResponse, error) {
	node, err := svc.getNode(kind, id)
	if err != nil {
		return nil, err
	}

	if req.Slug != nil && *req.Slug != node.Slug {
		if err := svc.checkSlug(kind, node.ParentID, *req.Slug, id); err != nil {
			return nil, err
		}
		node.Slug = *req.Slug
	}
	if req.Title != nil {
		node.Title = *req.Title
	}
	if req.Description != nil {
		node.Description = *req.Description
	}
	if req.SortOrder != nil {
		node.SortOrder = *req.SortOrder
	}

	cascadeStatus := ""
	if req.Status != nil && *req.Status != node.Status {
		switch *req.Status {
		case shared.StatusPublished:
			now := time.Now()
			node.PublishedBy = userID
			node.PublishedAt = &now
			svc.warnUnpublishedParent(node)
		case shared.StatusDraft, shared.StatusArchived:
			cascadeStatus = *req.Status
		}
		node.Status = *req.Status
	}

	if err := svc.saveNode(node, userID); err != nil {
		return nil, err
	}
	// The row is saved; the cached copy is stale even if the cascade
	// below fails part-way.
	defer svc.invalidate(node)

	if cascadeStatus != "" {
		if _, err := svc.cascadeSvc.CascadeStatus(kind, id, cascadeStatus, userID); err != nil {
			// Shallower levels already moved; rerunning the update repairs
			// the rest.
			return nil, err
		}
	}

	return nodeToResponse(node), nil
}

// GetPathTree assembles the full published hierarchy beneath a path, read
// through the cache as one unit.
func (svc *ContentService) GetPathTree(pathID string) (*dto.PathTreeResponse, error) {
	cached, err := svc.cacheSvc.GetOrLoad("tree:"+pathID, contentCacheTTL, func() (interface{}, error) {
		return svc.buildPathTree(pathID)
	})
	if err != nil {
		return nil, err
	}
	return cached.(*dto.PathTreeResponse), nil
}

// CacheStats exposes the cache contents for the admin surface.
func (svc *ContentService) CacheStats() *dto.CacheStatsResponse {
	return &dto.CacheStatsResponse{Size: svc.cacheSvc.Size(), Keys: svc.cacheSvc.Keys()}
}

// FlushCache clears cache entries matching the given patterns, or all of
// them when none are given.
func (svc *ContentService) FlushCache(patterns ...string) int {
	return svc.cacheSvc.Invalidate(patterns...)
}

func (svc *ContentService) buildPathTree(pathID string) (*dto.PathTreeResponse, error) {
	path, err := svc.getNode(shared.KindPath, pathID)
	if err != nil {
		return nil, err
	}

	tree := &dto.PathTreeResponse{Path: *nodeToResponse(path)}

	courses, err := svc.listNodes(shared.KindCourse, childQuery("path_id", pathID))
	if err != nil {
		return nil, err
	}

	for _, course := range courses {
		subtree := dto.CourseSubtree{Course: *nodeToResponse(course)}

		modules, err := svc.listNodes(shared.KindModule, childQuery("course_id", course.ID))
		if err != nil {
			return nil, err
		}
		for _, mod := range modules {
			modTree := dto.ModuleSubtree{Module: *nodeToResponse(mod)}

			lessons, err := svc.listNodes(shared.KindLesson, childQuery("module_id", mod.ID))
			if err != nil {
				return nil, err
			}
			for _, lesson := range lessons {
				modTree.Lessons = append(modTree.Lessons, *nodeToResponse(lesson))
			}
			subtree.Modules = append(subtree.Modules, modTree)
		}
		tree.Courses = append(tree.Courses, subtree)
	}
	return tree, nil
}

func childQuery(parentFK, parentID string) ListQuery {
	return ListQuery{
		Filters: []Filter{Eq(parentFK, parentID), Eq("status", shared.StatusPublished)},
		OrderBy: "sort_order",
	}
}

// checkSlug rejects a slug already used by a sibling.
func (svc *ContentService) checkSlug(kind, parentID, slug, excludeID string) error {
	schema := kindSchemas[kind]
	count, err := svc.store.CountSiblingSlugs(schema.Table, schema.ParentFK, parentID, slug, excludeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewConflictError(
			fmt.Errorf("slug %q already used under parent %s", slug, parentID),
			"Slug is already in use by a sibling")
	}
	return nil
}

// warnUnpublishedParent flags a publish whose parent is not itself
// published. The transition is allowed; the tree view simply won't show
// the node until the parent follows.
func (svc *ContentService) warnUnpublishedParent(node *contentNode) {
	schema := kindSchemas[node.Kind]
	if schema.ParentKind == "" {
		return
	}

	parent, err := svc.getNode(schema.ParentKind, node.ParentID)
	if err != nil || parent.Status == shared.StatusPublished {
		return
	}

	log.WithFields(log.Fields{
		"kind":          node.Kind,
		"id":            node.ID,
		"parent_kind":   schema.ParentKind,
		"parent_id":     node.ParentID,
		"parent_status": parent.Status,
	}).Warn("Publishing content under an unpublished parent")
}

// invalidate drops every cached read a write could have gone stale: the
// node's own entries, everything of its kind, the path trees and the stats.
func (svc *ContentService) invalidate(node *contentNode) {
	svc.cacheSvc.Invalidate(node.Kind, node.ID, "tree:", "stats")
}

func contentCacheKey(kind, id string) string {
	return "content:" + kind + ":" + id
}

func (svc *ContentService) getNode(kind, id string) (*contentNode, error) {
	switch kind {
	case shared.KindPath:
		row, err := svc.store.GetPath(id)
		if err != nil {
			return nil, err
		}
		return pathNode(row), nil
	case shared.KindCourse:
		row, err := svc.store.GetCourse(id)
		if err != nil {
			return nil, err
		}
		return courseNode(row), nil
	case shared.KindModule:
		row, err := svc.store.GetModule(id)
		if err != nil {
			return nil, err
		}
		return moduleNode(row), nil
	case shared.KindLesson:
		row, err := svc.store.GetLesson(id)
		if err != nil {
			return nil, err
		}
		return lessonNode(row), nil
	case shared.KindChallenge:
		row, err := svc.store.GetChallenge(id)
		if err != nil {
			return nil, err
		}
		return challengeNode(row), nil
	}
	return nil, shared.NewBadRequestError(fmt.Errorf("unknown content kind %q", kind), "Unknown content kind")
}

func (svc *ContentService) listNodes(kind string, q ListQuery) ([]*contentNode, error) {
	var nodes []*contentNode

	switch kind {
	case shared.KindPath:
		rows, err := svc.store.ListPaths(q)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			nodes = append(nodes, pathNode(&rows[i]))
		}
	case shared.KindCourse:
		rows, err := svc.store.ListCourses(q)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			nodes = append(nodes, courseNode(&rows[i]))
		}
	case shared.KindModule:
		rows, err := svc.store.ListModules(q)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			nodes = append(nodes, moduleNode(&rows[i]))
		}
	case shared.KindLesson:
		rows, err := svc.store.ListLessons(q)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			nodes = append(nodes, lessonNode(&rows[i]))
		}
	case shared.KindChallenge:
		rows, err := svc.store.ListChallenges(q)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			nodes = append(nodes, challengeNode(&rows[i]))
		}
	}
	return nodes, nil
}

func (svc *ContentService) saveNode(node *contentNode, userID string) error {
	switch node.Kind {
	case shared.KindPath:
		row, err := svc.store.GetPath(node.ID)
		if err != nil {
			return err
		}
		row.Title, row.Slug, row.Description = node.Title, node.Slug, node.Description
		row.Status, row.SortOrder = node.Status, node.SortOrder
		row.PublishedBy, row.PublishedAt, row.UpdatedBy = node.PublishedBy, node.PublishedAt, userID
		return svc.store.SavePath(row)
	case shared.KindCourse:
		row, err := svc.store.GetCourse(node.ID)
		if err != nil {
			return err
		}
		row.Title, row.Slug, row.Description = node.Title, node.Slug, node.Description
		row.Status, row.SortOrder = node.Status, node.SortOrder
		row.PublishedBy, row.PublishedAt, row.UpdatedBy = node.PublishedBy, node.PublishedAt, userID
		return svc.store.SaveCourse(row)
	case shared.KindModule:
		row, err := svc.store.GetModule(node.ID)
		if err != nil {
			return err
		}
		row.Title, row.Slug, row.Description = node.Title, node.Slug, node.Description
		row.Status, row.SortOrder = node.Status, node.SortOrder
		row.PublishedBy, row.PublishedAt, row.UpdatedBy = node.PublishedBy, node.PublishedAt, userID
		return svc.store.SaveModule(row)
	case shared.KindLesson:
		row, err := svc.store.GetLesson(node.ID)
		if err != nil {
			return err
		}
		row.Title, row.Slug, row.Content = node.Title, node.Slug, node.Description
		row.Status, row.SortOrder = node.Status, node.SortOrder
		row.PublishedBy, row.PublishedAt, row.UpdatedBy = node.PublishedBy, node.PublishedAt, userID
		return svc.store.SaveLesson(row)
	case shared.KindChallenge:
		row, err := svc.store.GetChallenge(node.ID)
		if err != nil {
			return err
		}
		row.Title, row.Slug = node.Title, node.Slug
		row.Status, row.SortOrder = node.Status, node.SortOrder
		row.PublishedBy, row.PublishedAt, row.UpdatedBy = node.PublishedBy, node.PublishedAt, userID
		return svc.store.SaveChallenge(row)
	}
	return shared.NewBadRequestError(fmt.Errorf("unknown content kind %q", node.Kind), "Unknown content kind")
}

func validateQuestion(q dto.QuestionRequest) error {
	switch q.Type {
	case shared.QuestionTypeSingleChoice:
		if _, ok := q.Answer.(string); !ok || len(q.Options) < 2 {
			return shared.NewBadRequestError(
				fmt.Errorf("single_choice needs a string answer and at least 2 options"),
				"Invalid single_choice question")
		}
	case shared.QuestionTypeMultipleChoice:
		if toStringSet(q.Answer) == nil || len(q.Options) < 2 {
			return shared.NewBadRequestError(
				fmt.Errorf("multiple_choice needs a string list answer and at least 2 options"),
				"Invalid multiple_choice question")
		}
	case shared.QuestionTypeOpenText:
		if q.Reference == "" {
			return shared.NewBadRequestError(
				fmt.Errorf("open_text needs a reference answer"),
				"Invalid open_text question")
		}
	case shared.QuestionTypeDragDrop:
		if _, ok := q.Answer.(map[string]interface{}); !ok {
			return shared.NewBadRequestError(
				fmt.Errorf("drag_drop needs an item-to-zone mapping answer"),
				"Invalid drag_drop question")
		}
	}
	return nil
}

func pathNode(row *model.LearningPath) *contentNode {
	if row == nil {
		return nil
	}
	return &contentNode{
		Kind: shared.KindPath, ID: row.ID, Title: row.Title, Slug: row.Slug,
		Description: row.Description, Status: row.Status, SortOrder: row.SortOrder,
		PublishedBy: row.PublishedBy, PublishedAt: row.PublishedAt,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

func courseNode(row *model.Course) *contentNode {
	if row == nil {
		return nil
	}
	return &contentNode{
		Kind: shared.KindCourse, ID: row.ID, ParentID: row.PathID, Title: row.Title,
		Slug: row.Slug, Description: row.Description, Status: row.Status, SortOrder: row.SortOrder,
		PublishedBy: row.PublishedBy, PublishedAt: row.PublishedAt,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

func moduleNode(row *model.Module) *contentNode {
	if row == nil {
		return nil
	}
	return &contentNode{
		Kind: shared.KindModule, ID: row.ID, ParentID: row.CourseID, Title: row.Title,
		Slug: row.Slug, Description: row.Description, Status: row.Status, SortOrder: row.SortOrder,
		PublishedBy: row.PublishedBy, PublishedAt: row.PublishedAt,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

func lessonNode(row *model.Lesson) *contentNode {
	if row == nil {
		return nil
	}
	return &contentNode{
		Kind: shared.KindLesson, ID: row.ID, ParentID: row.ModuleID, Title: row.Title,
		Slug: row.Slug, Description: row.Content, Status: row.Status, SortOrder: row.SortOrder,
		PublishedBy: row.PublishedBy, PublishedAt: row.PublishedAt,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

func challengeNode(row *model.Challenge) *contentNode {
	if row == nil {
		return nil
	}
	return &contentNode{
		Kind: shared.KindChallenge, ID: row.ID, ParentID: row.LessonID, Title: row.Title,
		Slug: row.Slug, Status: row.Status, SortOrder: row.SortOrder,
		PublishedBy: row.PublishedBy, PublishedAt: row.PublishedAt,
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

func nodeToResponse(node *contentNode) *dto.ContentResponse {
	return &dto.ContentResponse{
		ID:          node.ID,
		Kind:        node.Kind,
		ParentID:    node.ParentID,
		Title:       node.Title,
		Slug:        node.Slug,
		Description: node.Description,
		Status:      node.Status,
		SortOrder:   node.SortOrder,
		PublishedBy: node.PublishedBy,
		PublishedAt: node.PublishedAt,
		CreatedAt:   node.CreatedAt,
		UpdatedAt:   node.UpdatedAt,
	}
}

func challengeToResponse(challenge *model.Challenge) (*dto.ChallengeResponse, error) {
	var questions []model.Question
	if err := sonic.Unmarshal(challenge.Questions, &questions); err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to decode stored questions")
	}

	resp := &dto.ChallengeResponse{
		ContentResponse: *nodeToResponse(challengeNode(challenge)),
		Questions:       make([]dto.QuestionResponse, 0, len(questions)),
		XPReward:        challenge.XPReward,
		MaxAttempts:     challenge.MaxAttempts,
	}
	for _, q := range questions {
		resp.Questions = append(resp.Questions, dto.QuestionResponse{
			Index:   q.Index,
			Type:    q.Type,
			Prompt:  q.Prompt,
			Options: q.Options,
		})
	}
	return resp, nil
}
