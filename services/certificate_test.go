package services

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCertStore struct {
	paths     map[string]*model.LearningPath
	courses   map[string]*model.Course
	children  map[string]map[string][]string // table -> parentID -> published child IDs
	drafts    map[string]struct{}            // child IDs excluded from published plucks
	completed map[string][]string            // userID -> completed lesson IDs

	certs       map[string]*model.Certificate
	created     int
	codeAlways  bool // every code reads as taken
	existsCalls int
}

func newFakeCertStore() *fakeCertStore {
	return &fakeCertStore{
		paths:     make(map[string]*model.LearningPath),
		courses:   make(map[string]*model.Course),
		children:  make(map[string]map[string][]string),
		drafts:    make(map[string]struct{}),
		completed: make(map[string][]string),
		certs:     make(map[string]*model.Certificate),
	}
}

func (f *fakeCertStore) addChildren(table, parentID string, childIDs ...string) {
	if f.children[table] == nil {
		f.children[table] = make(map[string][]string)
	}
	f.children[table][parentID] = childIDs
}

func (f *fakeCertStore) GetPath(id string) (*model.LearningPath, error) {
	if p, ok := f.paths[id]; ok {
		return p, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("path %s", id), "Record not found")
}

func (f *fakeCertStore) GetCourse(id string) (*model.Course, error) {
	if c, ok := f.courses[id]; ok {
		return c, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("course %s", id), "Record not found")
}

func (f *fakeCertStore) PluckPublishedChildIDs(table, parentFK string, parentIDs []string) ([]string, error) {
	var out []string
	for _, pid := range parentIDs {
		for _, id := range f.children[table][pid] {
			if _, draft := f.drafts[id]; !draft {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (f *fakeCertStore) CompletedLessonIDs(userID string, lessonIDs []string) ([]string, error) {
	done := make(map[string]struct{})
	for _, id := range f.completed[userID] {
		done[id] = struct{}{}
	}
	var out []string
	for _, id := range lessonIDs {
		if _, ok := done[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeCertStore) GetActiveCertificate(userID, contentID, contentKind string) (*model.Certificate, error) {
	for _, cert := range f.certs {
		if cert.UserID == userID && cert.ContentID() == contentID && cert.Status == shared.CertificateIssued {
			return cert, nil
		}
	}
	return nil, nil
}

func (f *fakeCertStore) CertificateCodeExists(code string) (bool, error) {
	f.existsCalls++
	if f.codeAlways {
		return true, nil
	}
	for _, cert := range f.certs {
		if cert.VerificationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCertStore) CreateCertificate(cert *model.Certificate) (*model.Certificate, error) {
	f.created++
	cert.ID = fmt.Sprintf("cert-%d", f.created)
	f.certs[cert.ID] = cert
	return cert, nil
}

func (f *fakeCertStore) GetCertificate(id string) (*model.Certificate, error) {
	if cert, ok := f.certs[id]; ok {
		return cert, nil
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("certificate %s", id), "Record not found")
}

func (f *fakeCertStore) GetCertificateByCode(code string) (*model.Certificate, error) {
	for _, cert := range f.certs {
		if cert.VerificationCode == code {
			return cert, nil
		}
	}
	return nil, shared.NewNotFoundError(fmt.Errorf("code %s", code), "Record not found")
}

func (f *fakeCertStore) SaveCertificate(cert *model.Certificate) error {
	f.certs[cert.ID] = cert
	return nil
}

func (f *fakeCertStore) ListUserCertificates(userID string) ([]model.Certificate, error) {
	var out []model.Certificate
	for _, cert := range f.certs {
		if cert.UserID == userID {
			out = append(out, *cert)
		}
	}
	return out, nil
}

// counterRand fills buffers with an incrementing byte sequence, keeping
// codes deterministic without losing alphabet coverage.
func counterRand() func(b []byte) (int, error) {
	next := byte(0)
	return func(b []byte) (int, error) {
		for i := range b {
			b[i] = next
			next++
		}
		return len(b), nil
	}
}

func newCertFixture(store *fakeCertStore) *CertificateService {
	return &CertificateService{store: store, codeRand: counterRand()}
}

// path p1 -> courses c1 -> modules m1,m2 -> lessons l1..l3
func seedPathTree(store *fakeCertStore) {
	store.paths["p1"] = &model.LearningPath{ID: "p1", Title: "Backend Engineering"}
	store.courses["c1"] = &model.Course{ID: "c1", PathID: "p1", Title: "Go Fundamentals"}
	store.addChildren("courses", "p1", "c1")
	store.addChildren("modules", "c1", "m1", "m2")
	store.addChildren("lessons", "m1", "l1", "l2")
	store.addChildren("lessons", "m2", "l3")
}

var codePattern = regexp.MustCompile(`^[A-Z0-9]{3}-[A-Z0-9]{3}-[A-Z0-9]{3}-[A-Z0-9]{3}$`)

func TestRandomCode_FormatAndUniqueness(t *testing.T) {
	svc := newCertFixture(newFakeCertStore())
	svc.codeRand = rand.Read

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code, err := svc.randomCode()
		require.NoError(t, err)
		assert.Regexp(t, codePattern, code)
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestRandomCode_RejectsOutOfRangeBytes(t *testing.T) {
	svc := newCertFixture(newFakeCertStore())

	// first buffer entirely above the sampling limit, second all zeroes
	calls := 0
	svc.codeRand = func(b []byte) (int, error) {
		calls++
		fill := byte(0xFF)
		if calls > 1 {
			fill = 0
		}
		for i := range b {
			b[i] = fill
		}
		return len(b), nil
	}

	code, err := svc.randomCode()
	require.NoError(t, err)
	assert.Equal(t, "AAA-AAA-AAA-AAA", code)
	assert.Equal(t, 2, calls)
}

func TestIssueCertificate_PathCompleted(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	svc := newCertFixture(store)

	resp, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.NoError(t, err)

	assert.Equal(t, "u1", resp.UserID)
	assert.Equal(t, "p1", resp.ContentID)
	assert.Equal(t, "Backend Engineering", resp.ContentTitle)
	assert.Equal(t, shared.KindPath, resp.ContentKind)
	assert.Equal(t, shared.CertificateCompletion, resp.Type)
	assert.Equal(t, shared.CertificateIssued, resp.Status)
	assert.Regexp(t, codePattern, resp.VerificationCode)
	assert.Equal(t, 1, store.created)
}

func TestIssueCertificate_CourseCompleted(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	svc := newCertFixture(store)

	resp, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "c1", ContentKind: shared.KindCourse,
	})
	require.NoError(t, err)
	assert.Equal(t, shared.KindCourse, resp.ContentKind)
	assert.Equal(t, "Go Fundamentals", resp.ContentTitle)
}

func TestIssueCertificate_Idempotent(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	svc := newCertFixture(store)

	first, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.NoError(t, err)

	second, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.VerificationCode, second.VerificationCode)
	assert.Equal(t, 1, store.created)
}

func TestIssueCertificate_NoLessons(t *testing.T) {
	store := newFakeCertStore()
	store.paths["empty"] = &model.LearningPath{ID: "empty", Title: "Empty Path"}
	svc := newCertFixture(store)

	_, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "empty", ContentKind: shared.KindPath,
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrBadRequest))
	assert.Zero(t, store.created)
}

func TestIssueCertificate_Incomplete(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2"} // l3 outstanding
	svc := newCertFixture(store)

	_, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrBadRequest))
}

func TestIssueCertificate_EmptyCourseBranchNeverCompletes(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	// second published course with no modules at all
	store.courses["c2"] = &model.Course{ID: "c2", PathID: "p1", Title: "Empty Course"}
	store.addChildren("courses", "p1", "c1", "c2")
	store.completed["u1"] = []string{"l1", "l2", "l3"} // c1 fully done
	svc := newCertFixture(store)

	_, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrBadRequest))
	assert.Zero(t, store.created)
}

func TestIssueCertificate_EmptyModuleBranchNeverCompletes(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	// m3 is published under c1 but holds no published lessons
	store.addChildren("modules", "c1", "m1", "m2", "m3")
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	svc := newCertFixture(store)

	_, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrBadRequest))
	assert.Zero(t, store.created)
}

func TestIssueCertificate_DraftLessonsDoNotGate(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.addChildren("lessons", "m2", "l3", "l4")
	store.drafts["l4"] = struct{}{}
	store.completed["u1"] = []string{"l1", "l2", "l3"} // l4 untouched
	svc := newCertFixture(store)

	_, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, store.created)
}

func TestIssueCertificate_CodeCollisionExhaustion(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	store.codeAlways = true
	svc := newCertFixture(store)

	_, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrExhaustedRetries))
	assert.Equal(t, codeMaxAttempts, store.existsCalls)
	assert.Zero(t, store.created)
}

func TestVerifyCertificate(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	svc := newCertFixture(store)

	issued, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.NoError(t, err)

	// lowercase with padding still resolves
	resp, err := svc.VerifyCertificate("  " + strings.ToLower(issued.VerificationCode) + " ")
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	require.NotNil(t, resp.Certificate)
	assert.Equal(t, issued.ID, resp.Certificate.ID)

	_, err = svc.VerifyCertificate("AAA-AAA-AAA-AAB")
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrNotFound))
}

func TestRevokeCertificate(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	svc := newCertFixture(store)

	issued, err := svc.IssueCertificate("u1", dto.IssueCertificateRequest{
		ContentID: "p1", ContentKind: shared.KindPath,
	})
	require.NoError(t, err)

	revoked, err := svc.RevokeCertificate(issued.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.CertificateRevoked, revoked.Status)
	require.NotNil(t, revoked.RevokedAt)

	// revoked certificates still resolve but verify as invalid
	resp, err := svc.VerifyCertificate(issued.VerificationCode)
	require.NoError(t, err)
	assert.False(t, resp.Valid)

	_, err = svc.RevokeCertificate(issued.ID)
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.ErrConflict))
}

func TestListUserCertificates(t *testing.T) {
	store := newFakeCertStore()
	seedPathTree(store)
	store.completed["u1"] = []string{"l1", "l2", "l3"}
	svc := newCertFixture(store)

	for _, req := range []dto.IssueCertificateRequest{
		{ContentID: "p1", ContentKind: shared.KindPath},
		{ContentID: "c1", ContentKind: shared.KindCourse},
	} {
		_, err := svc.IssueCertificate("u1", req)
		require.NoError(t, err)
	}

	certs, err := svc.ListUserCertificates("u1")
	require.NoError(t, err)
	assert.Len(t, certs, 2)

	certs, err = svc.ListUserCertificates("u2")
	require.NoError(t, err)
	assert.Empty(t, certs)
}
