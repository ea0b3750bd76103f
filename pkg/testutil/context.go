package testutil

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/jelajah-lab/backend/config"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/migration"
	"github.com/jelajah-lab/backend/pkg/logger"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// MockContext returns a context carrying an empty in-memory database with the
// whole schema migrated. The database only has one connection, so concurrent
// transactions are serialized the same way sqlite serializes writers.
func MockContext() context.Context {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}

	cfg := config.Default()
	cfg.Env = "test"
	cfg.Database.Type = "sqlite"
	cfg.Database.File = ":memory:"
	cfg.Engine.InitialInterval = time.Millisecond
	cfg.Engine.MaxInterval = 5 * time.Millisecond
	cfg.ApiServer.DefaultLimit = 1

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewNopLogger())
	ctx = xcontext.WithSnowFlake(ctx, node)
	ctx = xcontext.WithDB(ctx, db)

	if err := migration.AutoMigrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(ctx context.Context, userID string) context.Context {
	return xcontext.WithRequestUserID(ctx, userID)
}

func MockContextWithAdmin(ctx context.Context, userID string) context.Context {
	ctx = xcontext.WithRequestUserID(ctx, userID)
	return xcontext.WithRequestUserRole(ctx, string(entity.RoleAdmin))
}
