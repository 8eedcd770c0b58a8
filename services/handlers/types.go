package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/skillpath/academy_api/dto"
)

type AuthServiceInterface interface {
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
	RefreshToken(refreshToken string) (*dto.TokenPair, error)
	Logout(refreshToken string) error
	RequiredAuth() fiber.Handler
	OptionalAuth() fiber.Handler
	RequireRole(roles ...string) fiber.Handler
}

type ContentServiceInterface interface {
	CreateContent(kind, userID string, req dto.CreateContentRequest) (*dto.ContentResponse, error)
	CreateChallenge(userID string, req dto.CreateChallengeRequest) (*dto.ChallengeResponse, error)
	GetContent(kind, id string, includeUnpublished bool) (*dto.ContentResponse, error)
	GetChallenge(id string, includeUnpublished bool) (*dto.ChallengeResponse, error)
	ListContent(kind, parentID, status string, limit, offset int) (*dto.ContentListResponse, error)
	UpdateContent(kind, id, userID string, req dto.UpdateContentRequest) (*dto.ContentResponse, error)
	GetPathTree(pathID string) (*dto.PathTreeResponse, error)
	CacheStats() *dto.CacheStatsResponse
	FlushCache(patterns ...string) int
}

type ScoringServiceInterface interface {
	SubmitChallenge(userID string, req dto.SubmitChallengeRequest) (*dto.SubmitChallengeResponse, error)
}

type ProgressServiceInterface interface {
	MarkProgress(userID string, req dto.MarkProgressRequest) (*dto.ProgressResponse, error)
	ListProgress(userID, contentKind string) ([]dto.ProgressResponse, error)
	GetUserXP(userID string) (*dto.UserXPResponse, error)
	PathProgress(userID, pathID string) (*dto.PathProgressResponse, error)
}

type CertificateServiceInterface interface {
	IssueCertificate(userID string, req dto.IssueCertificateRequest) (*dto.CertificateResponse, error)
	VerifyCertificate(code string) (*dto.VerifyCertificateResponse, error)
	RevokeCertificate(certID string) (*dto.CertificateResponse, error)
	ListUserCertificates(userID string) ([]dto.CertificateResponse, error)
}

type AnalyticsServiceInterface interface {
	PlatformSummary() (*dto.PlatformSummaryResponse, error)
	UserSummary(userID string) (*dto.UserSummaryResponse, error)
	Leaderboard(limit int) (*dto.LeaderboardResponse, error)
}
