package bootstrap

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	rediscache "briefing_worker/adapter/out/cache"
	"briefing_worker/adapter/out/filesystem"
	"briefing_worker/adapter/out/mongodb"
	"briefing_worker/adapter/out/persistence"
	"briefing_worker/adapter/out/provider"
	"briefing_worker/adapter/out/tasks"
	"briefing_worker/config"
	"briefing_worker/core/agent/llm"
	"briefing_worker/core/port/out"
	"briefing_worker/core/service/analysis"
	"briefing_worker/core/service/grouping"
	"briefing_worker/core/service/run"
	"briefing_worker/core/service/scoring"
	"briefing_worker/core/service/synthesis"
	"briefing_worker/infra/database"
	pkgcache "briefing_worker/pkg/cache"
	"briefing_worker/pkg/logger"
)

// Dependencies holds every wired component of the pipeline.
type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	EmailProvider    out.EmailProviderPort
	CalendarProvider out.CalendarProviderPort
	TaskProvider     out.TaskProviderPort
	AnalysisCache    out.AnalysisCachePort
	ArtifactStores   []out.ArtifactStorePort
	RunRepo          out.RunRepositoryPort

	Coordinator *run.Coordinator
}

// NewDependencies wires adapters and services from config. Postgres,
// Redis and MongoDB are optional: a missing URL or failed connection
// degrades the corresponding capability instead of failing startup.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Postgres (run history, health checks)
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("Postgres connection failed, run history disabled: %v", err)
		} else {
			deps.DB = db
			cleanups = append(cleanups, func() { db.Close() })

			sqlxURL := cfg.DatabaseURL
			if strings.Contains(sqlxURL, "?") {
				sqlxURL += "&default_query_exec_mode=simple_protocol"
			} else {
				sqlxURL += "?default_query_exec_mode=simple_protocol"
			}
			sqlDB, err := sqlx.Connect("pgx", sqlxURL)
			if err != nil {
				logger.Warn("sqlx connection failed: %v", err)
			} else {
				sqlDB.SetMaxOpenConns(10)
				sqlDB.SetMaxIdleConns(4)
				sqlDB.SetConnMaxLifetime(30 * time.Minute)
				sqlDB.SetConnMaxIdleTime(5 * time.Minute)

				deps.SQLDB = sqlDB
				cleanups = append(cleanups, func() { sqlDB.Close() })

				runRepo := persistence.NewRunRepository(sqlDB)
				if err := runRepo.EnsureSchema(context.Background()); err != nil {
					logger.Warn("run schema setup failed: %v", err)
				} else {
					deps.RunRepo = runRepo
				}
			}
		}
	}

	// Redis (analysis cache)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, analysis cache disabled: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
			deps.AnalysisCache = rediscache.NewAnalysisCache(
				pkgcache.NewRedisCache(redisClient), cfg.AnalysisCacheTTL)
		}
	}

	// Artifact stores: filesystem always, MongoDB when configured
	deps.ArtifactStores = []out.ArtifactStorePort{
		filesystem.NewArtifactWriter(cfg.OutputDir),
	}
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			logger.Warn("MongoDB connection failed, artifact mirror disabled: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			artifactAdapter := mongodb.NewArtifactAdapter(
				mongoClient.Database(cfg.MongoDBName),
				time.Duration(cfg.ArtifactTTLDays)*24*time.Hour)
			if err := artifactAdapter.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("MongoDB index setup failed: %v", err)
			}
			deps.ArtifactStores = append(deps.ArtifactStores, artifactAdapter)
		}
	}

	// Providers
	deps.EmailProvider = provider.NewGmailAdapter(&provider.GmailConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
	})
	deps.CalendarProvider = provider.NewCalendarAdapter(&provider.CalendarConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RefreshToken: cfg.GoogleRefreshToken,
	})
	deps.TaskProvider = tasks.NewTodoistAdapter(cfg.TodoistBaseURL, cfg.TodoistAPIToken)

	// Services
	completer := llm.NewClientWithConfig(llm.ClientConfig{
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})

	grouper := grouping.NewGrouper()
	scorer := scoring.NewScorer(scoring.ScorerConfig{
		RecencyWeight:   cfg.RecencyWeight,
		CountWeight:     cfg.CountWeight,
		SenderWeight:    cfg.SenderWeight,
		KeywordWeight:   cfg.KeywordWeight,
		CountCap:        cfg.CountCap,
		RecencyHalfLife: cfg.RecencyHalfLife,
		TopThreads:      cfg.TopThreads,
		PrioritySenders: cfg.PrioritySenders,
		DeniedSenders:   cfg.DeniedSenders,
	})
	extractor := analysis.NewExtractor(completer, deps.AnalysisCache, analysis.ExtractorConfig{
		BodyCharLimit:       cfg.BodyCharLimit,
		TranscriptCharLimit: cfg.TranscriptCharLimit,
	})
	synthesizer := synthesis.NewSynthesizer(deps.TaskProvider, synthesis.SynthesizerConfig{
		MediumTaskLimit: cfg.MediumTaskLimit,
	})

	deps.Coordinator = run.NewCoordinator(
		deps.EmailProvider,
		deps.CalendarProvider,
		grouper,
		scorer,
		extractor,
		synthesizer,
		deps.ArtifactStores,
		deps.RunRepo,
		run.CoordinatorConfig{
			EmailLookback:     time.Duration(cfg.EmailLookbackHours) * time.Hour,
			EmailMaxResults:   cfg.EmailMaxResults,
			CalendarLookahead: cfg.CalendarLookahead,
			TopThreads:        cfg.TopThreads,
			AnalysisWorkers:   cfg.AnalysisWorkers,
		},
	)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return deps, cleanup, nil
}
