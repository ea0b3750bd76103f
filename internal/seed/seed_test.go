package seed

import (
	"os"
	"strings"
	"testing"

	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/testutil"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestSeeder() *Seeder {
	categoryRepo := repository.NewCategoryRepository()
	attractionRepo := repository.NewAttractionRepository()
	taskRepo := repository.NewTaskRepository()

	return NewSeeder(
		categoryRepo,
		attractionRepo,
		taskRepo,
		repository.NewRewardDefinitionRepository(),
		trigger.NewFactory(categoryRepo, attractionRepo, taskRepo, repository.NewTaskCompletionRepository()),
	)
}

func TestSeeder_Seed(t *testing.T) {
	ctx := testutil.MockContext()

	f, err := os.Open("../../migration/seed/semarang.toml")
	require.NoError(t, err)
	defer f.Close()

	catalog, err := Decode(f)
	require.NoError(t, err)

	seeder := newTestSeeder()
	stats, err := seeder.Seed(ctx, catalog)
	require.NoError(t, err)
	require.Equal(t, Stats{Categories: 2, Attractions: 3, Tasks: 10, Rewards: 5}, stats)

	definition, err := repository.NewRewardDefinitionRepository().GetByID(ctx, "reward-kota-lama")
	require.NoError(t, err)
	require.Equal(t, entity.AttractionCompletionTrigger, definition.TriggerType)
	require.Equal(t, 200, definition.XP)
	require.Equal(t, 100, definition.EP)
	require.True(t, definition.IsActive)

	// Seeding again is a no-op.
	stats, err = seeder.Seed(ctx, catalog)
	require.NoError(t, err)
	require.Equal(t, Stats{}, stats)
}

func TestSeeder_InvalidReward(t *testing.T) {
	ctx := testutil.MockContext()

	catalog, err := Decode(strings.NewReader(`
[[categories]]
id = "category-heritage"
name = "Heritage"

[[rewards]]
id = "reward-unknown"
name = "Unknown"
trigger_type = "attraction_completion"
trigger_data = { attraction_id = "attraction-unknown" }
`))
	require.NoError(t, err)

	_, err = newTestSeeder().Seed(ctx, catalog)
	require.Error(t, err)
	require.Equal(t, errorx.NotFound, errorx.CodeOf(err))

	// The category is rolled back together with the reward.
	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.Category{}).Count(&count).Error)
	require.Zero(t, count)
}
