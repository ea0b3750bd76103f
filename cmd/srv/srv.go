package main

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jelajah-lab/backend/config"
	"github.com/jelajah-lab/backend/internal/domain"
	"github.com/jelajah-lab/backend/internal/domain/ledger"
	"github.com/jelajah-lab/backend/internal/domain/notification"
	"github.com/jelajah-lab/backend/internal/domain/progress"
	"github.com/jelajah-lab/backend/internal/domain/tier"
	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/migration"
	"github.com/jelajah-lab/backend/pkg/kafka"
	"github.com/jelajah-lab/backend/pkg/logger"
	"github.com/jelajah-lab/backend/pkg/pubsub"
	"github.com/jelajah-lab/backend/pkg/router"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/jelajah-lab/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	ctx context.Context

	redisClient xredis.Client
	publisher   pubsub.Publisher

	categoryRepo           repository.CategoryRepository
	attractionRepo         repository.AttractionRepository
	taskRepo               repository.TaskRepository
	taskCompletionRepo     repository.TaskCompletionRepository
	attractionProgressRepo repository.AttractionProgressRepository
	categoryProgressRepo   repository.CategoryProgressRepository
	rewardDefinitionRepo   repository.RewardDefinitionRepository
	userRewardRepo         repository.UserRewardRepository
	xpEPLedgerRepo         repository.XPEPLedgerRepository

	userRewardNotificationRepo repository.UserRewardNotificationRepository

	triggerFactory trigger.Factory
	aggregator     progress.Aggregator
	detector       tier.Detector
	evaluator      trigger.Evaluator
	ledger         ledger.Ledger
	emitter        notification.Emitter

	completionDomain   domain.CompletionDomain
	rewardDomain       domain.RewardDomain
	userProgressDomain domain.UserProgressDomain

	router *router.Router
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(s.ctx, cfg)

	log, err := logger.NewLogger(cfg.Env, cfg.Log.Level)
	if err != nil {
		return err
	}
	s.ctx = xcontext.WithLogger(s.ctx, log)

	node, err := snowflake.NewNode(cfg.NodeID)
	if err != nil {
		return err
	}
	s.ctx = xcontext.WithSnowFlake(s.ctx, node)

	return nil
}

func (s *srv) newDatabase() (*gorm.DB, error) {
	cfg := xcontext.Configs(s.ctx).Database

	var dialector gorm.Dialector
	switch cfg.Type {
	case "mysql":
		dialector = mysql.New(mysql.Config{
			DSN:                       cfg.ConnectionString(),
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		})
	case "postgres":
		dialector = postgres.Open(cfg.ConnectionString())
	case "sqlite":
		dialector = sqlite.Open(cfg.ConnectionString())
	default:
		return nil, fmt.Errorf("unsupported database type %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if cfg.Type == "sqlite" {
		// sqlite only has one writer.
		sqlDB.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

func (s *srv) loadDatabase() error {
	db, err := s.newDatabase()
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
	return nil
}

func (s *srv) migrateDB() error {
	return migration.Migrate(s.ctx)
}

func (s *srv) loadRedisClient() error {
	if !xcontext.Configs(s.ctx).Redis.Enable {
		xcontext.Logger(s.ctx).Infof("Redis is disabled, totals are not cached")
		return nil
	}

	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		return err
	}

	s.redisClient = client
	return nil
}

func (s *srv) loadPublisher() error {
	cfg := xcontext.Configs(s.ctx).Kafka
	if !cfg.Enable {
		xcontext.Logger(s.ctx).Infof("Kafka is disabled, unlock events are dropped")
		s.publisher = pubsub.NewNopPublisher()
		return nil
	}

	publisher, err := kafka.NewPublisher(cfg.ClientID, cfg.Addrs)
	if err != nil {
		return err
	}

	s.publisher = publisher
	return nil
}

func (s *srv) loadRepos() {
	s.categoryRepo = repository.NewCategoryRepository()
	s.attractionRepo = repository.NewAttractionRepository()
	s.taskRepo = repository.NewTaskRepository()
	s.taskCompletionRepo = repository.NewTaskCompletionRepository()
	s.attractionProgressRepo = repository.NewAttractionProgressRepository()
	s.categoryProgressRepo = repository.NewCategoryProgressRepository()
	s.rewardDefinitionRepo = repository.NewRewardDefinitionRepository()
	s.userRewardRepo = repository.NewUserRewardRepository()
	s.xpEPLedgerRepo = repository.NewXPEPLedgerRepository()
	s.userRewardNotificationRepo = repository.NewUserRewardNotificationRepository()
}

func (s *srv) loadComponents() {
	s.triggerFactory = trigger.NewFactory(s.categoryRepo, s.attractionRepo, s.taskRepo, s.taskCompletionRepo)
	s.aggregator = progress.NewAggregator(s.attractionRepo, s.taskRepo, s.taskCompletionRepo, s.attractionProgressRepo)
	s.detector = tier.NewDetector(s.attractionProgressRepo, s.categoryProgressRepo)
	s.evaluator = trigger.NewEvaluator(s.triggerFactory, s.rewardDefinitionRepo)
	s.ledger = ledger.NewLedger(s.userRewardRepo, s.xpEPLedgerRepo, s.redisClient)
	s.emitter = notification.NewEmitter(s.publisher)
}

func (s *srv) loadDomains() {
	s.completionDomain = domain.NewCompletionDomain(s.aggregator, s.detector, s.evaluator, s.ledger, s.emitter)
	s.rewardDomain = domain.NewRewardDomain(s.rewardDefinitionRepo, s.triggerFactory, s.ledger, s.emitter)
	s.userProgressDomain = domain.NewUserProgressDomain(
		s.attractionRepo,
		s.categoryRepo,
		s.attractionProgressRepo,
		s.rewardDefinitionRepo,
		s.userRewardRepo,
		s.userRewardNotificationRepo,
		s.detector,
		s.ledger,
	)
}
