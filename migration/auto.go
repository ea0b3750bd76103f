package migration

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

// AutoMigrate creates the schema from the entities. It is used by sqlite
// (tests and local development); mysql goes through the versioned scripts.
func AutoMigrate(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.Category{},
		&entity.Attraction{},
		&entity.Task{},
		&entity.TaskCompletion{},
		&entity.AttractionProgress{},
		&entity.CategoryProgress{},
		&entity.RewardDefinition{},
		&entity.UserReward{},
		&entity.UserRewardNotification{},
		&entity.XPEPLedger{},
	)
}
