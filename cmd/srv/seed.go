package main

import (
	"os"

	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/seed"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startSeed(cctx *cli.Context) error {
	if err := s.loadDatabase(); err != nil {
		return err
	}

	if err := s.migrateDB(); err != nil {
		return err
	}

	f, err := os.Open(cctx.String("file"))
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := seed.Decode(f)
	if err != nil {
		return err
	}

	s.loadRepos()
	seeder := seed.NewSeeder(
		s.categoryRepo,
		s.attractionRepo,
		s.taskRepo,
		s.rewardDefinitionRepo,
		trigger.NewFactory(s.categoryRepo, s.attractionRepo, s.taskRepo, s.taskCompletionRepo),
	)

	stats, err := seeder.Seed(s.ctx, catalog)
	if err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Seeded %d categories, %d attractions, %d tasks and %d rewards",
		stats.Categories, stats.Attractions, stats.Tasks, stats.Rewards)
	return nil
}
