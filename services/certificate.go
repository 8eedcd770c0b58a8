// services/certificate.go
package services

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
)

type certificateStore interface {
	GetPath(id string) (*model.LearningPath, error)
	GetCourse(id string) (*model.Course, error)
	PluckPublishedChildIDs(table, parentFK string, parentIDs []string) ([]string, error)
	CompletedLessonIDs(userID string, lessonIDs []string) ([]string, error)
	GetActiveCertificate(userID, contentID, contentKind string) (*model.Certificate, error)
	CertificateCodeExists(code string) (bool, error)
	CreateCertificate(cert *model.Certificate) (*model.Certificate, error)
	GetCertificate(id string) (*model.Certificate, error)
	GetCertificateByCode(code string) (*model.Certificate, error)
	SaveCertificate(cert *model.Certificate) error
	ListUserCertificates(userID string) ([]model.Certificate, error)
}

// CertificateService issues completion certificates for paths and courses
// and serves public verification by code.
type CertificateService struct {
	context.DefaultService

	store certificateStore

	codeRand func(b []byte) (int, error)
}

const CERTIFICATE_SVC = "certificate_svc"

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 12
	codeGroupSize   = 3
	codeMaxAttempts = 10
)

func (svc CertificateService) Id() string {
	return CERTIFICATE_SVC
}

func (svc *CertificateService) Configure(ctx *context.Context) error {
	svc.codeRand = rand.Read
	return svc.DefaultService.Configure(ctx)
}

func (svc *CertificateService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	return nil
}

// IssueCertificate issues a completion certificate for a path or course.
// Issuance is idempotent per (user, content): an existing issued
// certificate is returned unchanged.
func (svc *CertificateService) IssueCertificate(userID string, req dto.IssueCertificateRequest) (*dto.CertificateResponse, error) {
	title, err := svc.contentTitle(req.ContentID, req.ContentKind)
	if err != nil {
		return nil, err
	}

	existing, err := svc.store.GetActiveCertificate(userID, req.ContentID, req.ContentKind)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return svc.toResponse(existing, title), nil
	}

	totalLessons, allCompleted, err := svc.completionState(userID, req.ContentID, req.ContentKind)
	if err != nil {
		return nil, err
	}
	if totalLessons == 0 {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("%s %s has an empty published branch", req.ContentKind, req.ContentID),
			"Content has no completable lessons")
	}
	if !allCompleted {
		return nil, shared.NewBadRequestError(
			fmt.Errorf("user %s has not completed every lesson of %s", userID, req.ContentID),
			"All lessons must be completed before a certificate can be issued")
	}

	code, err := svc.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		UserID:           userID,
		Type:             shared.CertificateCompletion,
		VerificationCode: code,
		Status:           shared.CertificateIssued,
		IssuedBy:         userID,
		IssuedAt:         time.Now(),
	}
	if req.ContentKind == shared.KindPath {
		cert.PathID = &req.ContentID
	} else {
		cert.CourseID = &req.ContentID
	}

	cert, err = svc.store.CreateCertificate(cert)
	if err != nil {
		return nil, err
	}

	certificatesIssuedTotal.Inc()
	log.WithFields(log.Fields{
		"user_id":      userID,
		"content_id":   req.ContentID,
		"content_kind": req.ContentKind,
	}).Info("Certificate issued")

	return svc.toResponse(cert, title), nil
}

// VerifyCertificate resolves a verification code. Public, no auth; an
// unknown code is a NotFound, a revoked one verifies as invalid.
func (svc *CertificateService) VerifyCertificate(code string) (*dto.VerifyCertificateResponse, error) {
	cert, err := svc.store.GetCertificateByCode(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}

	title, _ := svc.contentTitle(cert.ContentID(), certContentKind(cert))
	resp := &dto.VerifyCertificateResponse{
		Valid:       cert.Status == shared.CertificateIssued,
		Certificate: svc.toResponse(cert, title),
	}
	return resp, nil
}

// RevokeCertificate marks a certificate revoked. Revoked certificates fail
// verification but remain queryable.
func (svc *CertificateService) RevokeCertificate(certID string) (*dto.CertificateResponse, error) {
	cert, err := svc.store.GetCertificate(certID)
	if err != nil {
		return nil, err
	}
	if cert.Status == shared.CertificateRevoked {
		return nil, shared.NewConflictError(
			fmt.Errorf("certificate %s already revoked", certID),
			"Certificate is already revoked")
	}

	now := time.Now()
	cert.Status = shared.CertificateRevoked
	cert.RevokedAt = &now
	if err := svc.store.SaveCertificate(cert); err != nil {
		return nil, err
	}

	title, _ := svc.contentTitle(cert.ContentID(), certContentKind(cert))
	return svc.toResponse(cert, title), nil
}

// ListUserCertificates returns every certificate a user holds, including
// revoked ones.
func (svc *CertificateService) ListUserCertificates(userID string) ([]dto.CertificateResponse, error) {
	certs, err := svc.store.ListUserCertificates(userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CertificateResponse, 0, len(certs))
	for i := range certs {
		title, _ := svc.contentTitle(certs[i].ContentID(), certContentKind(&certs[i]))
		out = append(out, *svc.toResponse(&certs[i], title))
	}
	return out, nil
}

// completionState counts the lessons beneath the content item and reports
// whether the user completed all of them. Zero lessons never qualifies.
func (svc *CertificateService) completionState(userID, contentID, contentKind string) (int, bool, error) {
	lessonIDs, err := svc.descendantLessonIDs(contentID, contentKind)
	if err != nil {
		return 0, false, err
	}
	if len(lessonIDs) == 0 {
		return 0, false, nil
	}

	completedIDs, err := svc.store.CompletedLessonIDs(userID, lessonIDs)
	if err != nil {
		return 0, false, err
	}
	return len(lessonIDs), len(completedIDs) == len(lessonIDs), nil
}

// descendantLessonIDs walks the published hierarchy beneath the content
// item, branch by branch. Draft or archived branches never gate completion,
// but a published course or module with nothing published beneath it makes
// the whole walk come back empty: an empty branch is never vacuously
// complete.
func (svc *CertificateService) descendantLessonIDs(contentID, contentKind string) ([]string, error) {
	courseIDs := []string{contentID}
	if contentKind == shared.KindPath {
		var err error
		courseIDs, err = svc.store.PluckPublishedChildIDs("courses", "path_id", []string{contentID})
		if err != nil {
			return nil, err
		}
	}
	if len(courseIDs) == 0 {
		return nil, nil
	}

	var lessonIDs []string
	for _, courseID := range courseIDs {
		moduleIDs, err := svc.store.PluckPublishedChildIDs("modules", "course_id", []string{courseID})
		if err != nil {
			return nil, err
		}
		if len(moduleIDs) == 0 {
			return nil, nil
		}

		for _, moduleID := range moduleIDs {
			ids, err := svc.store.PluckPublishedChildIDs("lessons", "module_id", []string{moduleID})
			if err != nil {
				return nil, err
			}
			if len(ids) == 0 {
				return nil, nil
			}
			lessonIDs = append(lessonIDs, ids...)
		}
	}
	return lessonIDs, nil
}

func (svc *CertificateService) contentTitle(contentID, contentKind string) (string, error) {
	switch contentKind {
	case shared.KindPath:
		path, err := svc.store.GetPath(contentID)
		if err != nil {
			return "", err
		}
		return path.Title, nil
	case shared.KindCourse:
		course, err := svc.store.GetCourse(contentID)
		if err != nil {
			return "", err
		}
		return course.Title, nil
	}
	return "", shared.NewBadRequestError(
		fmt.Errorf("unknown content kind %q", contentKind),
		"Certificates are issued for paths and courses only")
}

// generateUniqueCode draws random codes until one is unused, bounded at
// codeMaxAttempts draws.
func (svc *CertificateService) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < codeMaxAttempts; attempt++ {
		code, err := svc.randomCode()
		if err != nil {
			return "", shared.NewUpstreamError(err, "Failed to generate verification code")
		}

		exists, err := svc.store.CertificateCodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", shared.NewExhaustedRetriesError(
		fmt.Errorf("no unique code after %d attempts", codeMaxAttempts),
		"Failed to allocate a unique verification code")
}

// randomCode produces codeLength characters from codeAlphabet, grouped as
// XXX-XXX-XXX-XXX. Rejection sampling keeps each character uniform.
func (svc *CertificateService) randomCode() (string, error) {
	limit := byte(256 - (256 % len(codeAlphabet)))
	chars := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)

	for len(chars) < codeLength {
		if _, err := svc.codeRand(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			chars = append(chars, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(chars) == codeLength {
				break
			}
		}
	}

	groups := make([]string, 0, codeLength/codeGroupSize)
	for i := 0; i < codeLength; i += codeGroupSize {
		groups = append(groups, string(chars[i:i+codeGroupSize]))
	}
	return strings.Join(groups, "-"), nil
}

func certContentKind(cert *model.Certificate) string {
	if cert.PathID != nil {
		return shared.KindPath
	}
	return shared.KindCourse
}

func (svc *CertificateService) toResponse(cert *model.Certificate, title string) *dto.CertificateResponse {
	return &dto.CertificateResponse{
		ID:               cert.ID,
		UserID:           cert.UserID,
		ContentID:        cert.ContentID(),
		ContentTitle:     title,
		ContentKind:      certContentKind(cert),
		Type:             cert.Type,
		VerificationCode: cert.VerificationCode,
		Status:           cert.Status,
		IssuedAt:         cert.IssuedAt,
		RevokedAt:        cert.RevokedAt,
	}
}
