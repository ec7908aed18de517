package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	adapterHTTP "github.com/comitanigiacomo/kanso-levelup/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/metrics"
	"github.com/comitanigiacomo/kanso-levelup/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-levelup/internal/config"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/domain"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/services"
	"github.com/comitanigiacomo/kanso-levelup/internal/core/workers"
	"github.com/comitanigiacomo/kanso-levelup/internal/jobs"
)

type app struct {
	router    *gin.Engine
	scheduler *jobs.Scheduler
	worker    *workers.RewardWorker
}

// buildApp wires repositories, services and handlers. rdb may be nil, in which
// case habit lists are not cached and rate limiting is off.
func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, rdb *redis.Client) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	calendar := services.NewCalendar(loc)

	userRepo := repository.NewPostgresUserRepository(db)
	var habitRepo domain.HabitRepository = repository.NewPostgresHabitRepository(db)
	if rdb != nil {
		habitRepo = repository.NewCachedHabitRepository(habitRepo, rdb)
	}
	logRepo := repository.NewPostgresHabitLogRepository(db)
	goalRepo := repository.NewPostgresGoalRepository(db)
	stepRepo := repository.NewPostgresStepRepository(db)
	badgeRepo := repository.NewPostgresBadgeRepository(db)
	milestoneRepo := repository.NewPostgresMilestoneRepository(db)
	statsRepo := repository.NewPostgresStatsRepository(db)

	rewardMetrics := metrics.NewRewardMetrics()

	ledger := services.NewXpLedger(userRepo, nil)
	badges := services.NewBadgeRegistry(badgeRepo)
	if err := badges.Seed(ctx, domain.DefaultBadges()); err != nil {
		return nil, fmt.Errorf("seed badges: %w", err)
	}

	var engine services.GamificationEngine = services.NewEngine(
		ledger, badges, statsRepo, logRepo, milestoneRepo,
		services.WithCalendar(calendar),
		services.WithRewardObserver(rewardMetrics),
	)

	a := &app{}
	if cfg.RewardsAsync {
		a.worker = workers.NewRewardWorker(engine, cfg.RewardsQueueSize, rewardMetrics)
		engine = a.worker
	}
	rewards := services.NewRewardBoundary(engine, rewardMetrics)

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, userRepo)

	habitService := services.NewHabitService(habitRepo, rewards, calendar)
	habitLogService := services.NewHabitLogService(habitRepo, logRepo, rewards, calendar)
	goalService := services.NewGoalService(goalRepo, rewards)
	stepService := services.NewStepService(goalRepo, stepRepo, rewards)
	statsService := services.NewStatsService(statsRepo, userRepo, ledger.Levels())
	habitStatsService := services.NewHabitStatsService(habitRepo, logRepo, calendar)

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:  adapterHTTP.NewAuthHandler(services.NewAuthService(userRepo), tokens, cfg.JWTTTL),
		HabitHandler: adapterHTTP.NewHabitHandler(habitService, habitLogService),
		GoalHandler:  adapterHTTP.NewGoalHandler(goalService, stepService),
		StatsHandler: adapterHTTP.NewStatsHandler(statsService, habitStatsService, badges),
		Tokens:       tokens,
		DB:           db,
		Redis:        rdb,
		Metrics:      rewardMetrics.Handler(),
		RateLimit: adapterHTTP.RateLimit{
			Requests: cfg.RateLimitRequests,
			Window:   cfg.RateLimitWindow,
		},
		StartTime: time.Now(),
	})

	a.scheduler = jobs.NewScheduler(ledger, cfg.LevelReconcileSchedule, loc)

	return a, nil
}

// start launches the background reward worker and the cron scheduler.
func (a *app) start(ctx context.Context) error {
	if a.worker != nil {
		a.worker.Start(ctx)
		log.Info("Rewards are applied asynchronously")
	}
	return a.scheduler.Start(ctx)
}

// stop waits for in-flight background work. ctx passed to start must already
// be cancelled so the worker loop can exit.
func (a *app) stop() {
	a.scheduler.Stop()
	if a.worker != nil {
		a.worker.Wait()
	}
}
