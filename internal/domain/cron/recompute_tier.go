package cron

import (
	"context"
	"time"

	"github.com/jelajah-lab/backend/internal/domain"
	"github.com/jelajah-lab/backend/internal/domain/ledger"
	"github.com/jelajah-lab/backend/internal/domain/notification"
	"github.com/jelajah-lab/backend/internal/domain/notification/event"
	"github.com/jelajah-lab/backend/internal/domain/tier"
	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/dbutil"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

// RecomputeTierCronJob recomputes the category progress of every user and
// grants the rewards which were missed, e.g. progress imported without going
// through the completion pipeline or definitions created after an attraction
// was completed. It is idempotent.
type RecomputeTierCronJob struct {
	attractionProgressRepo repository.AttractionProgressRepository
	detector               tier.Detector
	evaluator              trigger.Evaluator
	ledger                 ledger.Ledger
	emitter                notification.Emitter
	interval               time.Duration
}

func NewRecomputeTierCronJob(
	attractionProgressRepo repository.AttractionProgressRepository,
	detector tier.Detector,
	evaluator trigger.Evaluator,
	ledger ledger.Ledger,
	emitter notification.Emitter,
	interval time.Duration,
) *RecomputeTierCronJob {
	return &RecomputeTierCronJob{
		attractionProgressRepo: attractionProgressRepo,
		detector:               detector,
		evaluator:              evaluator,
		ledger:                 ledger,
		emitter:                emitter,
		interval:               interval,
	}
}

func (job *RecomputeTierCronJob) Do(ctx context.Context) {
	pairs, err := job.attractionProgressRepo.GetUserCategories(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user categories to recompute tiers: %v", err)
		return
	}

	totalGranted := 0
	for _, pair := range pairs {
		granted, result, err := job.recompute(ctx, pair.UserID, pair.CategoryID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot recompute tiers of user %s in category %s: %v",
				pair.UserID, pair.CategoryID, err)
			continue
		}

		if len(granted) == 0 && len(result.Crossed) == 0 {
			continue
		}

		totalGranted += len(granted)
		job.notify(ctx, pair.CategoryID, granted, result)
	}

	xcontext.Logger(ctx).Infof("Recomputed %d user categories, granted %d missed rewards", len(pairs), totalGranted)
}

func (job *RecomputeTierCronJob) RunNow() bool {
	return false
}

func (job *RecomputeTierCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}

func (job *RecomputeTierCronJob) recompute(
	ctx context.Context, userID, categoryID string,
) ([]ledger.GrantResult, *tier.Result, error) {
	var granted []ledger.GrantResult
	var tierResult *tier.Result
	err := dbutil.Transaction(ctx, func(ctx context.Context) error {
		var err error
		tierResult, err = job.detector.Recompute(ctx, userID, categoryID)
		if err != nil {
			return err
		}

		attractions, err := job.attractionProgressRepo.GetByCategoryID(ctx, userID, categoryID)
		if err != nil {
			return err
		}

		events := []trigger.Event{}
		for _, a := range attractions {
			if a.Unlocked {
				events = append(events, trigger.AttractionCompleted{User: userID, Attraction: a.AttractionID})
			}
		}

		for _, t := range tierResult.Crossed {
			events = append(events, trigger.TierCrossed{User: userID, Category: categoryID, Tier: t})
		}

		candidates, err := job.evaluator.Evaluate(ctx, events)
		if err != nil {
			return err
		}

		granted, err = job.ledger.GrantAll(ctx, candidates)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return granted, tierResult, nil
}

func (job *RecomputeTierCronJob) notify(
	ctx context.Context, categoryID string, granted []ledger.GrantResult, result *tier.Result,
) {
	userID := result.View.UserID
	if len(granted) > 0 {
		job.ledger.InvalidateTotals(ctx, userID)
	}

	var events []event.Event
	for _, t := range result.Crossed {
		events = append(events, &event.TierUnlockedEvent{
			CategoryID:           categoryID,
			Tier:                 string(t),
			CompletionPercentage: result.View.Percentage,
		})
	}

	for _, g := range granted {
		events = append(events, &event.RewardGrantedEvent{UserReward: domain.ConvertUserReward(&g.Reward, g.Definition)})
	}

	job.emitter.Emit(ctx, userID, events...)
}
