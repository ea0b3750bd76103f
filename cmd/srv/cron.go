package main

import (
	"os/signal"
	"syscall"

	"github.com/jelajah-lab/backend/internal/domain/cron"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	if err := s.loadDatabase(); err != nil {
		return err
	}

	if err := s.migrateDB(); err != nil {
		return err
	}

	if err := s.loadRedisClient(); err != nil {
		return err
	}

	if err := s.loadPublisher(); err != nil {
		return err
	}

	s.loadRepos()
	s.loadComponents()

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewRecomputeTierCronJob(
		s.attractionProgressRepo,
		s.detector,
		s.evaluator,
		s.ledger,
		s.emitter,
		xcontext.Configs(s.ctx).Cron.RecomputeTierInterval,
	))
	cronJobManager.Start(ctx)

	return nil
}
