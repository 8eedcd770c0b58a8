// services/rate_limit.go
package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/skillpath/academy_api/shared"
	log "github.com/sirupsen/logrus"
)

// RateLimitService enforces fixed-window limits keyed in Redis. A Redis
// failure fails open: the request is allowed and the error logged.
type RateLimitService struct {
	appContext.DefaultService

	configs  map[string]rateLimitConfig
	redisSvc *RedisService
}

type rateLimitConfig struct {
	MaxRequests int
	WindowSize  time.Duration
}

const RATE_LIMIT_SVC = "rate_limit_svc"

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.configs = map[string]rateLimitConfig{
		"login":       {MaxRequests: 10, WindowSize: 15 * time.Minute},
		"submit":      {MaxRequests: 30, WindowSize: time.Hour},
		"issue_cert":  {MaxRequests: 10, WindowSize: time.Hour},
		"verify_cert": {MaxRequests: 60, WindowSize: 15 * time.Minute},
		"api_general": {MaxRequests: 1000, WindowSize: time.Hour},
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// IsAllowed counts the request against its window and reports whether it
// may proceed, along with the remaining allowance.
func (svc *RateLimitService) IsAllowed(identifier, endpointType string) (bool, int, error) {
	config, exists := svc.configs[endpointType]
	if !exists {
		return true, -1, nil
	}

	ctx := context.Background()
	window := time.Now().Unix() / int64(config.WindowSize.Seconds())
	key := fmt.Sprintf("ratelimit:%s:%s:%d", endpointType, identifier, window)

	count, err := svc.redisSvc.Increment(ctx, key)
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := svc.redisSvc.Expire(ctx, key, config.WindowSize); err != nil {
			return false, 0, err
		}
	}

	remaining := config.MaxRequests - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return int(count) <= config.MaxRequests, remaining, nil
}

// RateLimit limits one endpoint type per client.
func (svc *RateLimitService) RateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := svc.getIdentifier(c)

		allowed, remaining, err := svc.IsAllowed(identifier, endpointType)
		if err != nil {
			log.WithError(err).WithField("endpoint_type", endpointType).Warn("Rate limit check failed, allowing request")
			return c.Next()
		}

		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			return shared.ResponseJSON(c, http.StatusTooManyRequests, "Too many requests. Please try again later.", nil)
		}
		return c.Next()
	}
}

// IPRateLimit applies the general per-IP limit across the API.
func (svc *RateLimitService) IPRateLimit() fiber.Handler {
	return svc.RateLimit("api_general")
}

// getIdentifier prefers the authenticated user, falling back to client IP.
func (svc *RateLimitService) getIdentifier(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return userID
	}
	return getClientIP(c)
}

func getClientIP(c *fiber.Ctx) string {
	forwarded := c.Get("X-Forwarded-For")
	if forwarded != "" {
		ip := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip != "" {
			return ip
		}
	}

	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(c.Context().RemoteAddr().String())
	if err != nil {
		return c.Context().RemoteAddr().String()
	}
	return ip
}
