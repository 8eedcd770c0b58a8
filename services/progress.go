// services/progress.go
package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
)

type progressStore interface {
	GetProgress(userID, contentID, contentKind string) (*model.Progress, error)
	SaveProgress(progress *model.Progress) error
	ListUserProgress(userID string, q ListQuery) ([]model.Progress, error)
	GetUserXP(userID string) (*model.UserXP, error)
	SaveUserXP(xp *model.UserXP) error
	ListLevels() ([]model.LevelDefinition, error)
	GetLesson(id string) (*model.Lesson, error)
}

// ProgressService tracks per-content progress and the per-user XP
// aggregate, including level and daily-streak derivation.
type ProgressService struct {
	context.DefaultService

	store      progressStore
	cacheSvc   *TTLCacheService
	contentSvc *ContentService

	clock func() time.Time
}

const PROGRESS_SVC = "progress_svc"

const (
	// level definitions only change on redeploy
	levelCacheTTL = time.Hour

	// per-user reads go stale fast; writes invalidate them anyway
	userCacheTTL = time.Minute
)

func (svc ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Configure(ctx *context.Context) error {
	svc.clock = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProgressService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.cacheSvc = svc.Service(CACHE_SVC).(*TTLCacheService)
	svc.contentSvc = svc.Service(CONTENT_SVC).(*ContentService)
	return nil
}

// MarkProgress upserts the (user, content) progress row with an explicit
// status, used for lessons the client reports as viewed or finished.
func (svc *ProgressService) MarkProgress(userID string, req dto.MarkProgressRequest) (*dto.ProgressResponse, error) {
	if req.ContentKind == shared.KindLesson {
		if _, err := svc.store.GetLesson(req.ContentID); err != nil {
			return nil, err
		}
	}

	progress, err := svc.store.GetProgress(userID, req.ContentID, req.ContentKind)
	if err != nil {
		if !shared.IsKind(err, shared.ErrNotFound) {
			return nil, err
		}
		progress = &model.Progress{
			UserID:      userID,
			ContentID:   req.ContentID,
			ContentKind: req.ContentKind,
		}
	}

	progress.Status = req.Status
	switch req.Status {
	case shared.ProgressCompleted:
		progress.CompletionPct = 100
	case shared.ProgressInProgress:
		if req.CompletionPct > progress.CompletionPct {
			progress.CompletionPct = req.CompletionPct
		}
	}

	if err := svc.store.SaveProgress(progress); err != nil {
		return nil, err
	}

	if req.Status == shared.ProgressCompleted {
		if err := svc.touchStreak(userID); err != nil {
			return nil, err
		}
	}

	svc.cacheSvc.Invalidate("progress:"+userID, "xp:"+userID, "stats")
	return progressToResponse(progress), nil
}

// AwardXP adds delta to the user aggregate and re-derives level and streak.
// Called by the scoring engine after a submission improved on the best
// previous run.
func (svc *ProgressService) AwardXP(userID string, delta int) error {
	if delta <= 0 {
		return nil
	}

	xp, err := svc.getOrInitUserXP(userID)
	if err != nil {
		return err
	}

	xp.TotalXP += delta
	level, err := svc.levelForXP(xp.TotalXP)
	if err != nil {
		return err
	}
	xp.Level = level

	svc.applyStreak(xp)

	return svc.store.SaveUserXP(xp)
}

// GetUserXP returns the user aggregate, zero-valued if the user has never
// earned XP.
func (svc *ProgressService) GetUserXP(userID string) (*dto.UserXPResponse, error) {
	cached, err := svc.cacheSvc.GetOrLoad("xp:"+userID, userCacheTTL, func() (interface{}, error) {
		return svc.buildUserXP(userID)
	})
	if err != nil {
		return nil, err
	}
	return cached.(*dto.UserXPResponse), nil
}

func (svc *ProgressService) buildUserXP(userID string) (*dto.UserXPResponse, error) {
	xp, err := svc.getOrInitUserXP(userID)
	if err != nil {
		return nil, err
	}

	levels, err := svc.levelTable()
	if err != nil {
		return nil, err
	}

	resp := &dto.UserXPResponse{
		UserID:        xp.UserID,
		TotalXP:       xp.TotalXP,
		Level:         xp.Level,
		CurrentStreak: xp.CurrentStreak,
		LongestStreak: xp.LongestStreak,
	}
	for _, def := range levels {
		if def.Level == xp.Level {
			resp.LevelTitle = def.Title
		}
		if def.Level == xp.Level+1 {
			next := def.XPRequired - xp.TotalXP
			if next < 0 {
				next = 0
			}
			resp.XPToNextLevel = &next
		}
	}
	return resp, nil
}

// ListProgress returns the user's progress rows, optionally filtered by
// content kind.
func (svc *ProgressService) ListProgress(userID, contentKind string) ([]dto.ProgressResponse, error) {
	q := ListQuery{OrderBy: "updated_at", Desc: true}
	if contentKind != "" {
		q.Filters = append(q.Filters, Eq("content_kind", contentKind))
	}

	rows, err := svc.store.ListUserProgress(userID, q)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ProgressResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *progressToResponse(&rows[i]))
	}
	return out, nil
}

// PathProgress reports completion over a learning path's lessons for one
// user, read through the content tree cache.
func (svc *ProgressService) PathProgress(userID, pathID string) (*dto.PathProgressResponse, error) {
	cached, err := svc.cacheSvc.GetOrLoad("progress:"+userID+":"+pathID, userCacheTTL, func() (interface{}, error) {
		return svc.buildPathProgress(userID, pathID)
	})
	if err != nil {
		return nil, err
	}
	return cached.(*dto.PathProgressResponse), nil
}

func (svc *ProgressService) buildPathProgress(userID, pathID string) (*dto.PathProgressResponse, error) {
	tree, err := svc.contentSvc.GetPathTree(pathID)
	if err != nil {
		return nil, err
	}

	lessonIDs := make(map[string]struct{})
	for _, courseNode := range tree.Courses {
		for _, moduleNode := range courseNode.Modules {
			for _, lesson := range moduleNode.Lessons {
				lessonIDs[lesson.ID] = struct{}{}
			}
		}
	}

	rows, err := svc.store.ListUserProgress(userID, ListQuery{Filters: []Filter{
		Eq("content_kind", shared.KindLesson),
		Eq("status", shared.ProgressCompleted),
	}})
	if err != nil {
		return nil, err
	}

	completed := 0
	for i := range rows {
		if _, ok := lessonIDs[rows[i].ContentID]; ok {
			completed++
		}
	}

	pct := 0
	if len(lessonIDs) > 0 {
		pct = 100 * completed / len(lessonIDs)
	}

	return &dto.PathProgressResponse{
		PathID:           pathID,
		PathTitle:        tree.Path.Title,
		TotalLessons:     len(lessonIDs),
		CompletedLessons: completed,
		CompletionPct:    pct,
	}, nil
}

func (svc *ProgressService) getOrInitUserXP(userID string) (*model.UserXP, error) {
	xp, err := svc.store.GetUserXP(userID)
	if err != nil {
		if !shared.IsKind(err, shared.ErrNotFound) {
			return nil, err
		}
		xp = &model.UserXP{UserID: userID, Level: 1}
	}
	return xp, nil
}

// touchStreak records activity today without changing XP totals.
func (svc *ProgressService) touchStreak(userID string) error {
	xp, err := svc.getOrInitUserXP(userID)
	if err != nil {
		return err
	}
	svc.applyStreak(xp)
	return svc.store.SaveUserXP(xp)
}

// applyStreak advances the daily streak. Consecutive calendar days (UTC)
// extend the streak, a gap resets it to 1, same-day activity is a no-op.
func (svc *ProgressService) applyStreak(xp *model.UserXP) {
	today := svc.clock().UTC().Truncate(24 * time.Hour)

	switch {
	case xp.LastActivityDate == nil:
		xp.CurrentStreak = 1
	case xp.LastActivityDate.Equal(today):
		// already counted today
	case xp.LastActivityDate.Equal(today.AddDate(0, 0, -1)):
		xp.CurrentStreak++
	default:
		xp.CurrentStreak = 1
	}

	if xp.CurrentStreak > xp.LongestStreak {
		xp.LongestStreak = xp.CurrentStreak
	}
	xp.LastActivityDate = &today
}

// levelForXP maps a total to the highest level whose requirement it meets.
func (svc *ProgressService) levelForXP(totalXP int) (int, error) {
	levels, err := svc.levelTable()
	if err != nil {
		return 0, err
	}
	if len(levels) == 0 {
		return 0, shared.NewUpstreamError(fmt.Errorf("level table is empty"), "Level definitions missing")
	}

	level := levels[0].Level
	for _, def := range levels {
		if totalXP >= def.XPRequired {
			level = def.Level
		}
	}
	return level, nil
}

// levelTable is the cached, ascending level ladder.
func (svc *ProgressService) levelTable() ([]model.LevelDefinition, error) {
	cached, err := svc.cacheSvc.GetOrLoad("levels", levelCacheTTL, func() (interface{}, error) {
		levels, err := svc.store.ListLevels()
		if err != nil {
			return nil, err
		}
		sort.Slice(levels, func(i, j int) bool { return levels[i].XPRequired < levels[j].XPRequired })
		return levels, nil
	})
	if err != nil {
		return nil, err
	}
	return cached.([]model.LevelDefinition), nil
}

func progressToResponse(p *model.Progress) *dto.ProgressResponse {
	return &dto.ProgressResponse{
		ID:            p.ID,
		ContentID:     p.ContentID,
		ContentKind:   p.ContentKind,
		Status:        p.Status,
		CompletionPct: p.CompletionPct,
		XPEarned:      p.XPEarned,
		Attempts:      p.Attempts,
		LastScore:     p.LastScore,
		UpdatedAt:     p.UpdatedAt,
	}
}
