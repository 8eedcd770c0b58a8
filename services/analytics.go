// services/analytics.go
package services

import (
	"sync"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
)

type analyticsStore interface {
	CountUsers() (int64, error)
	CountByTable(table string) (int64, error)
	CountUsersWithXPBetween(minXP, maxXP int) (int64, error)
	TopUserXP(limit int) ([]model.UserXP, error)
	ListPaths(q ListQuery) ([]model.LearningPath, error)
	PathEnrollment(pathID string) (int64, error)
	PathCompletions(pathID string) (int64, error)
	RecentCompletions(limit int) ([]model.Progress, error)
	GetUserXP(userID string) (*model.UserXP, error)
	CountUserProgressByStatus(userID, status string) (int64, error)
	CountUserCertificates(userID string) (int64, error)
}

// AnalyticsService assembles reporting views by fanning sub-queries out
// concurrently. A failed sub-query zeroes its own field and never fails
// the whole report.
type AnalyticsService struct {
	context.DefaultService

	store    analyticsStore
	cacheSvc *TTLCacheService
}

const ANALYTICS_SVC = "analytics_svc"

const (
	summaryCacheTTL     = 2 * time.Minute
	leaderboardCacheTTL = 1 * time.Minute

	topPerformerCount  = 10
	recentActivityRows = 20
	leaderboardMax     = 100
)

// contentTables maps content kinds to their backing tables for counting.
var contentTables = map[string]string{
	shared.KindPath:      "learning_paths",
	shared.KindCourse:    "courses",
	shared.KindModule:    "modules",
	shared.KindLesson:    "lessons",
	shared.KindChallenge: "challenges",
}

// xpBuckets are the fixed distribution bands; maxXP 0 means unbounded.
var xpBuckets = []struct {
	label string
	min   int
	max   int
}{
	{"0-99", 0, 100},
	{"100-499", 100, 500},
	{"500-1999", 500, 2000},
	{"2000-5999", 2000, 6000},
	{"6000+", 6000, 0},
}

func (svc AnalyticsService) Id() string {
	return ANALYTICS_SVC
}

func (svc *AnalyticsService) Configure(ctx *context.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AnalyticsService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.cacheSvc = svc.Service(CACHE_SVC).(*TTLCacheService)
	return nil
}

// PlatformSummary builds the admin dashboard view. The six sections load
// in parallel; each failure is logged and leaves its section zero-valued.
func (svc *AnalyticsService) PlatformSummary() (*dto.PlatformSummaryResponse, error) {
	cached, err := svc.cacheSvc.GetOrLoad("stats:platform", summaryCacheTTL, func() (interface{}, error) {
		return svc.buildPlatformSummary(), nil
	})
	if err != nil {
		return nil, err
	}
	return cached.(*dto.PlatformSummaryResponse), nil
}

func (svc *AnalyticsService) buildPlatformSummary() *dto.PlatformSummaryResponse {
	summary := &dto.PlatformSummaryResponse{GeneratedAt: time.Now()}

	var wg sync.WaitGroup
	run := func(section string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				analyticsSectionFailures.WithLabelValues(section).Inc()
				log.WithError(err).WithField("section", section).Warn("Analytics section failed, serving zero value")
			}
		}()
	}

	run("users", func() error {
		count, err := svc.store.CountUsers()
		if err != nil {
			return err
		}
		summary.TotalUsers = count
		return nil
	})

	run("content_counts", func() error {
		counts := make(map[string]int64, len(contentTables))
		for kind, table := range contentTables {
			count, err := svc.store.CountByTable(table)
			if err != nil {
				return err
			}
			counts[kind] = count
		}
		summary.ContentCounts = counts
		return nil
	})

	run("xp_distribution", func() error {
		buckets := make([]dto.XPBucket, 0, len(xpBuckets))
		for _, b := range xpBuckets {
			count, err := svc.store.CountUsersWithXPBetween(b.min, b.max)
			if err != nil {
				return err
			}
			buckets = append(buckets, dto.XPBucket{Label: b.label, Count: count})
		}
		summary.XPDistribution = buckets
		return nil
	})

	run("top_performers", func() error {
		entries, err := svc.store.TopUserXP(topPerformerCount)
		if err != nil {
			return err
		}
		performers := make([]dto.TopPerformer, 0, len(entries))
		for _, e := range entries {
			performers = append(performers, dto.TopPerformer{
				UserID:  e.UserID,
				TotalXP: e.TotalXP,
				Level:   e.Level,
			})
		}
		summary.TopPerformers = performers
		return nil
	})

	run("path_engagement", func() error {
		paths, err := svc.store.ListPaths(ListQuery{
			Filters: []Filter{Eq("status", shared.StatusPublished)},
			OrderBy: "sort_order",
		})
		if err != nil {
			return err
		}

		engagement := make([]dto.PathEngagement, 0, len(paths))
		for i := range paths {
			enrolled, err := svc.store.PathEnrollment(paths[i].ID)
			if err != nil {
				return err
			}
			completed, err := svc.store.PathCompletions(paths[i].ID)
			if err != nil {
				return err
			}
			engagement = append(engagement, dto.PathEngagement{
				PathID:    paths[i].ID,
				Title:     paths[i].Title,
				Enrolled:  enrolled,
				Completed: completed,
			})
		}
		summary.PathEngagement = engagement
		return nil
	})

	run("recent_completions", func() error {
		rows, err := svc.store.RecentCompletions(recentActivityRows)
		if err != nil {
			return err
		}
		recent := make([]dto.RecentCompletion, 0, len(rows))
		for i := range rows {
			recent = append(recent, dto.RecentCompletion{
				UserID:      rows[i].UserID,
				ContentID:   rows[i].ContentID,
				ContentKind: rows[i].ContentKind,
				CompletedAt: rows[i].UpdatedAt,
			})
		}
		summary.RecentCompletions = recent
		return nil
	})

	wg.Wait()
	return summary
}

// UserSummary builds the per-user dashboard card with the same isolation
// rule as the platform view.
func (svc *AnalyticsService) UserSummary(userID string) (*dto.UserSummaryResponse, error) {
	summary := &dto.UserSummaryResponse{UserID: userID}

	var wg sync.WaitGroup
	run := func(section string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !shared.IsKind(err, shared.ErrNotFound) {
				analyticsSectionFailures.WithLabelValues(section).Inc()
				log.WithError(err).WithFields(log.Fields{"section": section, "user_id": userID}).
					Warn("Analytics section failed, serving zero value")
			}
		}()
	}

	run("user_xp", func() error {
		xp, err := svc.store.GetUserXP(userID)
		if err != nil {
			return err
		}
		summary.TotalXP = xp.TotalXP
		summary.Level = xp.Level
		return nil
	})

	run("user_completed", func() error {
		count, err := svc.store.CountUserProgressByStatus(userID, shared.ProgressCompleted)
		if err != nil {
			return err
		}
		summary.Completed = count
		return nil
	})

	run("user_in_progress", func() error {
		count, err := svc.store.CountUserProgressByStatus(userID, shared.ProgressInProgress)
		if err != nil {
			return err
		}
		summary.InProgress = count
		return nil
	})

	run("user_certificates", func() error {
		count, err := svc.store.CountUserCertificates(userID)
		if err != nil {
			return err
		}
		summary.CertificateTotal = count
		return nil
	})

	wg.Wait()
	return summary, nil
}

// Leaderboard ranks users by total XP, capped at leaderboardMax entries.
func (svc *AnalyticsService) Leaderboard(limit int) (*dto.LeaderboardResponse, error) {
	if limit <= 0 || limit > leaderboardMax {
		limit = leaderboardMax
	}

	cached, err := svc.cacheSvc.GetOrLoad("stats:leaderboard", leaderboardCacheTTL, func() (interface{}, error) {
		entries, err := svc.store.TopUserXP(leaderboardMax)
		if err != nil {
			return nil, err
		}

		board := make([]dto.LeaderboardEntry, 0, len(entries))
		for i, e := range entries {
			board = append(board, dto.LeaderboardEntry{
				Rank:    i + 1,
				UserID:  e.UserID,
				TotalXP: e.TotalXP,
				Level:   e.Level,
			})
		}
		return board, nil
	})
	if err != nil {
		return nil, err
	}

	board := cached.([]dto.LeaderboardEntry)
	if len(board) > limit {
		board = board[:limit]
	}
	return &dto.LeaderboardResponse{Entries: board}, nil
}
