package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jelajah-lab/backend/internal/middleware"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/pkg/router"
	"github.com/jelajah-lab/backend/pkg/token"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
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
	s.loadDomains()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx).ApiServer
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:           s.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot shutdown the server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Starting server on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stopped")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.AddCloser(middleware.Logger())

	// Public API.
	router.GET(s.router, "/getRewardDefinitions", s.rewardDomain.GetList)

	// These following APIs need an access token.
	userRouter := s.router.Branch()
	engine := token.NewEngine[model.AccessToken](
		xcontext.Configs(s.ctx).Auth.TokenSecret,
		xcontext.Configs(s.ctx).Auth.TokenExpiration,
	)
	userRouter.Before(middleware.NewAuthVerifier(engine).Middleware())
	{
		router.POST(userRouter, "/completeTask", s.completionDomain.CompleteTask)

		router.GET(userRouter, "/getMyAttractionProgress", s.userProgressDomain.GetMyAttractionProgress)
		router.GET(userRouter, "/getMyAttractionProgresses", s.userProgressDomain.GetMyAttractionProgresses)
		router.GET(userRouter, "/getMyCategoryProgress", s.userProgressDomain.GetMyCategoryProgress)
		router.GET(userRouter, "/getMyRewards", s.userProgressDomain.GetMyRewards)
		router.GET(userRouter, "/getMyTotals", s.userProgressDomain.GetMyTotals)
	}

	// These following APIs are only for admins.
	adminRouter := userRouter.Branch()
	adminRouter.Before(middleware.OnlyAdmin())
	{
		router.POST(adminRouter, "/createRewardDefinition", s.rewardDomain.Create)
		router.POST(adminRouter, "/grantManualReward", s.rewardDomain.GrantManual)
	}
}
