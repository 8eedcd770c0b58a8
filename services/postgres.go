// services/postgres.go
package services

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphabatem/common/context"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := envOr("DB_PASSWORD", "postgres")
		dbname := envOr("DB_NAME", "academy_api")
		sslmode := envOr("DB_SSLMODE", "disable")
		timezone := envOr("DB_TIMEZONE", "UTC")

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			host, user, password, dbname, port, sslmode, timezone)
	}

	return ds.DefaultService.Configure(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					break
				} else {
					err = pingErr
				}
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	models := []interface{}{
		&model.User{},

		&model.LearningPath{},
		&model.Course{},
		&model.Module{},
		&model.Lesson{},
		&model.Challenge{},

		&model.Progress{},
		&model.UserXP{},
		&model.LevelDefinition{},

		&model.Certificate{},
	}

	err = ds.db.AutoMigrate(models...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	err = ds.seedInitialData()
	if err != nil {
		log.Printf("Failed to seed initial data: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

// seedInitialData installs the XP level ladder and a bootstrap admin so a
// fresh deployment is operable. Both are no-ops when rows already exist.
func (ds *PostgresService) seedInitialData() error {
	var levelCount int64
	if err := ds.db.Model(&model.LevelDefinition{}).Count(&levelCount).Error; err != nil {
		return err
	}

	if levelCount == 0 {
		levels := []model.LevelDefinition{
			{Level: 1, XPRequired: 0, Title: "Novice"},
			{Level: 2, XPRequired: 100, Title: "Apprentice"},
			{Level: 3, XPRequired: 300, Title: "Practitioner"},
			{Level: 4, XPRequired: 700, Title: "Specialist"},
			{Level: 5, XPRequired: 1500, Title: "Expert"},
			{Level: 6, XPRequired: 3000, Title: "Mentor"},
			{Level: 7, XPRequired: 6000, Title: "Master"},
			{Level: 8, XPRequired: 12000, Title: "Grandmaster"},
		}
		if err := ds.db.Create(&levels).Error; err != nil {
			return err
		}
	}

	var adminCount int64
	if err := ds.db.Model(&model.User{}).Where("role = ?", shared.RoleAdmin).Count(&adminCount).Error; err != nil {
		return err
	}

	if adminCount == 0 {
		password := envOr("ADMIN_PASSWORD", "changeme-now")
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		admin := &model.User{
			ID:        uuid.New().String(),
			Username:  envOr("ADMIN_USERNAME", "admin"),
			Email:     envOr("ADMIN_EMAIL", "admin@localhost"),
			Password:  string(hash),
			Role:      shared.RoleAdmin,
			IsActive:  true,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := ds.db.Create(admin).Error; err != nil {
			return err
		}
		log.WithField("username", admin.Username).Warn("Seeded bootstrap admin user, change its password")
	}

	return nil
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// HandleError maps store errors onto the shared taxonomy so nothing above
// this layer sees raw gorm errors.
func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *shared.AppError

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		appErr = shared.NewNotFoundError(err, "Record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		appErr = shared.NewConflictError(err, "Duplicate record")
	default:
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			appErr = shared.NewConflictError(err, "Duplicate record")
		} else {
			appErr = shared.NewUpstreamError(err, "Database operation failed")
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": appErr.StatusCode,
		"error_type":  appErr.Kind,
		"error":       err.Error(),
	})

	if appErr.StatusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return appErr
}

// ==================== PATH METHODS ====================

func (ds *PostgresService) CreatePath(path *model.LearningPath) (*model.LearningPath, error) {
	if path.ID == "" {
		id, _ := uuid.NewV7()
		path.ID = id.String()
	}
	path.CreatedAt = time.Now()
	path.UpdatedAt = time.Now()

	if err := ds.db.Create(path).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return path, nil
}

func (ds *PostgresService) GetPath(id string) (*model.LearningPath, error) {
	var path model.LearningPath
	if err := ds.db.Where("id = ?", id).First(&path).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &path, nil
}

func (ds *PostgresService) ListPaths(q ListQuery) ([]model.LearningPath, error) {
	var paths []model.LearningPath
	if err := q.apply(ds.db.Model(&model.LearningPath{})).Find(&paths).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return paths, nil
}

func (ds *PostgresService) SavePath(path *model.LearningPath) error {
	path.UpdatedAt = time.Now()
	if err := ds.db.Save(path).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== COURSE METHODS ====================

func (ds *PostgresService) CreateCourse(course *model.Course) (*model.Course, error) {
	if course.ID == "" {
		id, _ := uuid.NewV7()
		course.ID = id.String()
	}
	course.CreatedAt = time.Now()
	course.UpdatedAt = time.Now()

	if err := ds.db.Create(course).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return course, nil
}

func (ds *PostgresService) GetCourse(id string) (*model.Course, error) {
	var course model.Course
	if err := ds.db.Where("id = ?", id).First(&course).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &course, nil
}

func (ds *PostgresService) ListCourses(q ListQuery) ([]model.Course, error) {
	var courses []model.Course
	if err := q.apply(ds.db.Model(&model.Course{})).Find(&courses).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return courses, nil
}

func (ds *PostgresService) SaveCourse(course *model.Course) error {
	course.UpdatedAt = time.Now()
	if err := ds.db.Save(course).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== MODULE METHODS ====================

func (ds *PostgresService) CreateModule(mod *model.Module) (*model.Module, error) {
	if mod.ID == "" {
		id, _ := uuid.NewV7()
		mod.ID = id.String()
	}
	mod.CreatedAt = time.Now()
	mod.UpdatedAt = time.Now()

	if err := ds.db.Create(mod).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return mod, nil
}

func (ds *PostgresService) GetModule(id string) (*model.Module, error) {
	var mod model.Module
	if err := ds.db.Where("id = ?", id).First(&mod).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &mod, nil
}

func (ds *PostgresService) ListModules(q ListQuery) ([]model.Module, error) {
	var mods []model.Module
	if err := q.apply(ds.db.Model(&model.Module{})).Find(&mods).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return mods, nil
}

func (ds *PostgresService) SaveModule(mod *model.Module) error {
	mod.UpdatedAt = time.Now()
	if err := ds.db.Save(mod).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== LESSON METHODS ====================

func (ds *PostgresService) CreateLesson(lesson *model.Lesson) (*model.Lesson, error) {
	if lesson.ID == "" {
		id, _ := uuid.NewV7()
		lesson.ID = id.String()
	}
	lesson.CreatedAt = time.Now()
	lesson.UpdatedAt = time.Now()

	if err := ds.db.Create(lesson).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return lesson, nil
}

func (ds *PostgresService) GetLesson(id string) (*model.Lesson, error) {
	var lesson model.Lesson
	if err := ds.db.Where("id = ?", id).First(&lesson).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &lesson, nil
}

func (ds *PostgresService) ListLessons(q ListQuery) ([]model.Lesson, error) {
	var lessons []model.Lesson
	if err := q.apply(ds.db.Model(&model.Lesson{})).Find(&lessons).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return lessons, nil
}

func (ds *PostgresService) SaveLesson(lesson *model.Lesson) error {
	lesson.UpdatedAt = time.Now()
	if err := ds.db.Save(lesson).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== CHALLENGE METHODS ====================

func (ds *PostgresService) CreateChallenge(challenge *model.Challenge) (*model.Challenge, error) {
	if challenge.ID == "" {
		id, _ := uuid.NewV7()
		challenge.ID = id.String()
	}
	challenge.CreatedAt = time.Now()
	challenge.UpdatedAt = time.Now()

	if err := ds.db.Create(challenge).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return challenge, nil
}

func (ds *PostgresService) GetChallenge(id string) (*model.Challenge, error) {
	var challenge model.Challenge
	if err := ds.db.Where("id = ?", id).First(&challenge).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &challenge, nil
}

func (ds *PostgresService) ListChallenges(q ListQuery) ([]model.Challenge, error) {
	var challenges []model.Challenge
	if err := q.apply(ds.db.Model(&model.Challenge{})).Find(&challenges).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return challenges, nil
}

func (ds *PostgresService) SaveChallenge(challenge *model.Challenge) error {
	challenge.UpdatedAt = time.Now()
	if err := ds.db.Save(challenge).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== HIERARCHY HELPERS ====================

// CountSiblingSlugs counts rows in table sharing parent and slug, excluding
// excludeID. parentFK is empty for the root kind.
func (ds *PostgresService) CountSiblingSlugs(table, parentFK, parentID, slug, excludeID string) (int64, error) {
	var count int64
	query := ds.db.Table(table).Where("slug = ?", slug)
	if parentFK != "" {
		query = query.Where(parentFK+" = ?", parentID)
	}
	if excludeID != "" {
		query = query.Where("id != ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// CountRows counts every row in table matching filters, ignoring pagination.
func (ds *PostgresService) CountRows(table string, filters []Filter) (int64, error) {
	var count int64
	if err := (ListQuery{Filters: filters}).apply(ds.db.Table(table)).Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// PluckChildIDs returns the ids in table whose parent column matches any of
// parentIDs.
func (ds *PostgresService) PluckChildIDs(table, parentFK string, parentIDs []string) ([]string, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var ids []string
	if err := ds.db.Table(table).Where(parentFK+" IN ?", parentIDs).Pluck("id", &ids).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return ids, nil
}

// PluckPublishedChildIDs is PluckChildIDs restricted to published rows; only
// published descendants gate certificate completion.
func (ds *PostgresService) PluckPublishedChildIDs(table, parentFK string, parentIDs []string) ([]string, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	var ids []string
	err := ds.db.Table(table).
		Where(parentFK+" IN ? AND status = ?", parentIDs, shared.StatusPublished).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return ids, nil
}

// UpdateStatusByIDs stamps status and updated_by across every row in ids.
func (ds *PostgresService) UpdateStatusByIDs(table string, ids []string, status, updatedBy string) error {
	if len(ids) == 0 {
		return nil
	}

	err := ds.db.Table(table).Where("id IN ?", ids).Updates(map[string]interface{}{
		"status":     status,
		"updated_by": updatedBy,
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== PROGRESS METHODS ====================

func (ds *PostgresService) GetProgress(userID, contentID, contentKind string) (*model.Progress, error) {
	var progress model.Progress
	err := ds.db.Where("user_id = ? AND content_id = ? AND content_kind = ?",
		userID, contentID, contentKind).First(&progress).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return &progress, nil
}

func (ds *PostgresService) SaveProgress(progress *model.Progress) error {
	if progress.ID == "" {
		id, _ := uuid.NewV7()
		progress.ID = id.String()
		progress.CreatedAt = time.Now()
	}
	progress.UpdatedAt = time.Now()

	if err := ds.db.Save(progress).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) ListUserProgress(userID string, q ListQuery) ([]model.Progress, error) {
	var items []model.Progress
	db := ds.db.Model(&model.Progress{}).Where("user_id = ?", userID)
	if err := q.apply(db).Find(&items).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return items, nil
}

// CompletedLessonIDs returns the subset of lessonIDs this user has completed.
func (ds *PostgresService) CompletedLessonIDs(userID string, lessonIDs []string) ([]string, error) {
	if len(lessonIDs) == 0 {
		return nil, nil
	}

	var ids []string
	err := ds.db.Model(&model.Progress{}).
		Where("user_id = ? AND content_kind = ? AND status = ? AND content_id IN ?",
			userID, shared.KindLesson, shared.ProgressCompleted, lessonIDs).
		Pluck("content_id", &ids).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return ids, nil
}

func (ds *PostgresService) CountUserProgressByStatus(userID, status string) (int64, error) {
	var count int64
	err := ds.db.Model(&model.Progress{}).
		Where("user_id = ? AND status = ?", userID, status).Count(&count).Error
	if err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

func (ds *PostgresService) RecentCompletions(limit int) ([]model.Progress, error) {
	var items []model.Progress
	err := ds.db.Model(&model.Progress{}).
		Where("status = ?", shared.ProgressCompleted).
		Order("updated_at DESC").Limit(limit).Find(&items).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return items, nil
}

// ==================== XP METHODS ====================

func (ds *PostgresService) GetUserXP(userID string) (*model.UserXP, error) {
	var xp model.UserXP
	if err := ds.db.Where("user_id = ?", userID).First(&xp).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &xp, nil
}

func (ds *PostgresService) SaveUserXP(xp *model.UserXP) error {
	if xp.ID == "" {
		id, _ := uuid.NewV7()
		xp.ID = id.String()
		xp.CreatedAt = time.Now()
	}
	xp.UpdatedAt = time.Now()

	if err := ds.db.Save(xp).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) ListLevels() ([]model.LevelDefinition, error) {
	var levels []model.LevelDefinition
	if err := ds.db.Order("xp_required ASC").Find(&levels).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return levels, nil
}

func (ds *PostgresService) TopUserXP(limit int) ([]model.UserXP, error) {
	var entries []model.UserXP
	if err := ds.db.Order("total_xp DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return entries, nil
}

func (ds *PostgresService) CountUsersWithXPBetween(minXP, maxXP int) (int64, error) {
	var count int64
	query := ds.db.Model(&model.UserXP{}).Where("total_xp >= ?", minXP)
	if maxXP > 0 {
		query = query.Where("total_xp < ?", maxXP)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// ==================== CERTIFICATE METHODS ====================

func (ds *PostgresService) GetActiveCertificate(userID, contentID, contentKind string) (*model.Certificate, error) {
	column := "path_id"
	if contentKind == shared.KindCourse {
		column = "course_id"
	}

	var cert model.Certificate
	err := ds.db.Where("user_id = ? AND "+column+" = ? AND status = ?",
		userID, contentID, shared.CertificateIssued).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ds.HandleError(err)
	}
	return &cert, nil
}

func (ds *PostgresService) CertificateCodeExists(code string) (bool, error) {
	var count int64
	err := ds.db.Model(&model.Certificate{}).Where("verification_code = ?", code).Count(&count).Error
	if err != nil {
		return false, ds.HandleError(err)
	}
	return count > 0, nil
}

func (ds *PostgresService) CreateCertificate(cert *model.Certificate) (*model.Certificate, error) {
	if cert.ID == "" {
		id, _ := uuid.NewV7()
		cert.ID = id.String()
	}
	cert.CreatedAt = time.Now()
	cert.UpdatedAt = time.Now()

	if err := ds.db.Create(cert).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return cert, nil
}

func (ds *PostgresService) GetCertificate(id string) (*model.Certificate, error) {
	var cert model.Certificate
	if err := ds.db.Where("id = ?", id).First(&cert).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &cert, nil
}

func (ds *PostgresService) GetCertificateByCode(code string) (*model.Certificate, error) {
	var cert model.Certificate
	if err := ds.db.Where("verification_code = ?", code).First(&cert).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &cert, nil
}

func (ds *PostgresService) SaveCertificate(cert *model.Certificate) error {
	cert.UpdatedAt = time.Now()
	if err := ds.db.Save(cert).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) ListUserCertificates(userID string) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := ds.db.Where("user_id = ?", userID).Order("issued_at DESC").Find(&certs).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return certs, nil
}

func (ds *PostgresService) CountUserCertificates(userID string) (int64, error) {
	var count int64
	err := ds.db.Model(&model.Certificate{}).
		Where("user_id = ? AND status = ?", userID, shared.CertificateIssued).Count(&count).Error
	if err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// ==================== USER METHODS ====================

func (ds *PostgresService) GetUser(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByEmailOrUsername(emailOrUsername string) (*model.User, error) {
	var user model.User
	err := ds.db.Where("email = ? OR username = ?", emailOrUsername, emailOrUsername).First(&user).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) CountUsers() (int64, error) {
	var count int64
	if err := ds.db.Model(&model.User{}).Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// ==================== ANALYTICS METHODS ====================

func (ds *PostgresService) CountByTable(table string) (int64, error) {
	var count int64
	if err := ds.db.Table(table).Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// PathEnrollment counts distinct users with lesson progress anywhere under
// a path.
func (ds *PostgresService) PathEnrollment(pathID string) (int64, error) {
	var count int64
	err := ds.db.Raw(`
		SELECT COUNT(DISTINCT p.user_id)
		FROM progresses p
		JOIN lessons l ON p.content_id = l.id AND p.content_kind = ?
		JOIN modules m ON l.module_id = m.id
		JOIN courses c ON m.course_id = c.id
		WHERE c.path_id = ?
	`, shared.KindLesson, pathID).Scan(&count).Error
	if err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

func (ds *PostgresService) PathCompletions(pathID string) (int64, error) {
	var count int64
	err := ds.db.Model(&model.Certificate{}).
		Where("path_id = ? AND status = ?", pathID, shared.CertificateIssued).Count(&count).Error
	if err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}
