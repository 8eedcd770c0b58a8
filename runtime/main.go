package main

import (
	"github.com/skillpath/academy_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.PostgresService{},
		&services.RedisService{},
		&services.TTLCacheService{},

		&services.JWTService{},
		&services.AuthService{},
		&services.RateLimitService{},

		&services.CascadeService{},
		&services.ContentService{},
		&services.OracleService{},
		&services.ProgressService{},
		&services.ScoringService{},
		&services.CertificateService{},
		&services.AnalyticsService{},

		&services.MonitoringService{},
		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
