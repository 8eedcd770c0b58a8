// services/auth.go
package services

import (
	"context"
	"fmt"
	"net/http"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/skillpath/academy_api/dto"
	"github.com/skillpath/academy_api/model"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type authStore interface {
	GetUser(userID string) (*model.User, error)
	GetUserByEmailOrUsername(emailOrUsername string) (*model.User, error)
}

// AuthService owns credential checks, token lifecycle and the request
// guards the HTTP layer mounts.
type AuthService struct {
	appContext.DefaultService

	store    authStore
	jwtSvc   *JWTService
	redisSvc *RedisService
}

const AUTH_SVC = "auth_svc"

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// Login checks credentials and returns a token pair. The refresh token is
// held in Redis for its full lifetime.
func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := svc.store.GetUserByEmailOrUsername(req.EmailOrUsername)
	if err != nil {
		if shared.IsKind(err, shared.ErrNotFound) {
			return nil, shared.NewUnauthenticatedError(err, "Invalid credentials")
		}
		return nil, err
	}

	if !user.IsActive {
		return nil, shared.NewUnauthenticatedError(
			fmt.Errorf("user %s is deactivated", user.ID), "Account is deactivated")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthenticatedError(err, "Invalid credentials")
	}

	tokens, err := svc.jwtSvc.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to issue tokens")
	}

	if err := svc.storeRefreshToken(user.ID, tokens.RefreshToken); err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to persist session")
	}

	log.WithField("user_id", user.ID).Info("User logged in")
	return &dto.LoginResponse{UserID: user.ID, Role: user.Role, Tokens: *tokens}, nil
}

// RefreshToken exchanges a stored refresh token for a fresh pair, rotating
// the refresh token.
func (svc *AuthService) RefreshToken(refreshToken string) (*dto.TokenPair, error) {
	ctx := context.Background()

	userID, err := svc.redisSvc.Get(ctx, refreshTokenKey(refreshToken))
	if err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to check session")
	}
	if userID == "" {
		return nil, shared.NewUnauthenticatedError(
			fmt.Errorf("refresh token not found"), "Invalid or expired refresh token")
	}

	user, err := svc.store.GetUser(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.NewUnauthenticatedError(
			fmt.Errorf("user %s is deactivated", user.ID), "Account is deactivated")
	}

	tokens, err := svc.jwtSvc.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to issue tokens")
	}

	if err := svc.redisSvc.Delete(ctx, refreshTokenKey(refreshToken)); err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to rotate session")
	}
	if err := svc.storeRefreshToken(user.ID, tokens.RefreshToken); err != nil {
		return nil, shared.NewUpstreamError(err, "Failed to persist session")
	}

	return tokens, nil
}

// Logout drops the refresh token; the access token simply expires.
func (svc *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return svc.redisSvc.Delete(context.Background(), refreshTokenKey(refreshToken))
}

func (svc *AuthService) storeRefreshToken(userID, refreshToken string) error {
	return svc.redisSvc.Set(context.Background(),
		refreshTokenKey(refreshToken), userID, svc.jwtSvc.RefreshTokenDuration)
}

func refreshTokenKey(token string) string {
	return "refresh_token:" + token
}

// RequiredAuth verifies the bearer token and stores the caller's identity
// in request locals.
func (svc *AuthService) RequiredAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, err.Error(), nil)
		}

		userID, role, err := svc.jwtSvc.VerifyJWTToken(token)
		if err != nil {
			return shared.ResponseJSON(c, http.StatusUnauthorized, "Invalid or expired token", nil)
		}

		c.Locals(shared.UserID, userID)
		c.Locals(shared.UserRole, role)
		return c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a bearer token is
// present but lets anonymous requests through.
func (svc *AuthService) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := svc.jwtSvc.ExtractTokenFromHeader(c.Get("Authorization"))
		if err != nil {
			return c.Next()
		}

		if userID, role, err := svc.jwtSvc.VerifyJWTToken(token); err == nil {
			c.Locals(shared.UserID, userID)
			c.Locals(shared.UserRole, role)
		}
		return c.Next()
	}
}

// RequireRole gates a route to the given roles. Admin always passes.
func (svc *AuthService) RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(shared.UserRole).(string)
		if role == shared.RoleAdmin {
			return c.Next()
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return shared.ResponseJSON(c, http.StatusForbidden, "Insufficient permissions", nil)
	}
}
