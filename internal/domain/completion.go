package domain

import (
	"context"

	"github.com/jelajah-lab/backend/internal/domain/ledger"
	"github.com/jelajah-lab/backend/internal/domain/notification"
	"github.com/jelajah-lab/backend/internal/domain/notification/event"
	"github.com/jelajah-lab/backend/internal/domain/progress"
	"github.com/jelajah-lab/backend/internal/domain/tier"
	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/pkg/dbutil"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type CompletionDomain interface {
	CompleteTask(context.Context, *model.CompleteTaskRequest) (*model.CompleteTaskResponse, error)
}

type completionDomain struct {
	aggregator progress.Aggregator
	detector   tier.Detector
	evaluator  trigger.Evaluator
	ledger     ledger.Ledger
	emitter    notification.Emitter
}

func NewCompletionDomain(
	aggregator progress.Aggregator,
	detector tier.Detector,
	evaluator trigger.Evaluator,
	ledger ledger.Ledger,
	emitter notification.Emitter,
) *completionDomain {
	return &completionDomain{
		aggregator: aggregator,
		detector:   detector,
		evaluator:  evaluator,
		ledger:     ledger,
		emitter:    emitter,
	}
}

type completionOutcome struct {
	progress *progress.Result
	tier     *tier.Result
	granted  []ledger.GrantResult
}

func (d *completionDomain) CompleteTask(
	ctx context.Context, req *model.CompleteTaskRequest,
) (*model.CompleteTaskResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if req.TaskID == "" || req.AttractionID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require task_id and attraction_id")
	}

	_, attraction, err := d.aggregator.Validate(ctx, req.TaskID, req.AttractionID)
	if err != nil {
		return nil, toClientError(ctx, err, "Cannot validate task completion")
	}

	var outcome *completionOutcome
	err = dbutil.Transaction(ctx, func(ctx context.Context) error {
		var err error
		outcome, err = d.complete(ctx, userID, req.TaskID, attraction)
		return err
	})
	if err != nil {
		return nil, toClientError(ctx, err, "Cannot complete task")
	}

	if len(outcome.granted) > 0 {
		d.ledger.InvalidateTotals(ctx, userID)
	}

	resp := &model.CompleteTaskResponse{
		AttractionProgress:      convertAttractionProgress(&outcome.progress.Progress, attraction),
		JustCompletedAttraction: outcome.progress.JustCompletedAttraction,
		CategoryProgress:        convertCategoryProgress(&outcome.tier.View),
		CrossedTiers:            []string{},
		NewRewards:              []model.UserReward{},
	}

	var events []event.Event
	if resp.JustCompletedAttraction {
		events = append(events, &event.AttractionCompletedEvent{AttractionProgress: resp.AttractionProgress})
	}

	for _, t := range outcome.tier.Crossed {
		resp.CrossedTiers = append(resp.CrossedTiers, string(t))
		events = append(events, &event.TierUnlockedEvent{
			CategoryID:           attraction.CategoryID,
			Tier:                 string(t),
			CompletionPercentage: outcome.tier.View.Percentage,
		})
	}

	for _, g := range outcome.granted {
		reward := ConvertUserReward(&g.Reward, g.Definition)
		resp.NewRewards = append(resp.NewRewards, reward)
		events = append(events, &event.RewardGrantedEvent{UserReward: reward})
	}

	d.emitter.Emit(ctx, userID, events...)

	xcontext.Logger(ctx).Debugf("User %s completed task %s, attraction %d%%, category %d%%, %d new rewards",
		userID, req.TaskID, resp.AttractionProgress.Percentage,
		resp.CategoryProgress.CompletionPercentage, len(resp.NewRewards))

	return resp, nil
}

// complete runs one attempt of the pipeline. It must be called inside a
// transaction. The category lock is always taken before the attraction lock.
func (d *completionDomain) complete(
	ctx context.Context, userID, taskID string, attraction *entity.Attraction,
) (*completionOutcome, error) {
	if _, err := d.detector.Lock(ctx, userID, attraction.CategoryID); err != nil {
		return nil, err
	}

	progressResult, err := d.aggregator.RecordTaskCompletion(ctx, userID, taskID, attraction.ID)
	if err != nil {
		return nil, err
	}

	tierResult, err := d.detector.Recompute(ctx, userID, attraction.CategoryID)
	if err != nil {
		return nil, err
	}

	events := []trigger.Event{
		trigger.TaskCompleted{User: userID, Task: taskID, Attraction: attraction.ID},
	}

	if progressResult.JustCompletedAttraction {
		events = append(events, trigger.AttractionCompleted{User: userID, Attraction: attraction.ID})
	}

	for _, t := range tierResult.Crossed {
		events = append(events, trigger.TierCrossed{User: userID, Category: attraction.CategoryID, Tier: t})
	}

	candidates, err := d.evaluator.Evaluate(ctx, events)
	if err != nil {
		return nil, err
	}

	granted, err := d.ledger.GrantAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	return &completionOutcome{
		progress: progressResult,
		tier:     tierResult,
		granted:  granted,
	}, nil
}
