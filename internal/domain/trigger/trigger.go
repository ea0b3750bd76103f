package trigger

import (
	"context"
	"errors"
	"fmt"

	"github.com/fatih/structs"
	"github.com/jelajah-lab/backend/config"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/enum"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type Trigger interface {
	Type() entity.RewardTriggerType

	// Match reports whether the event satisfies the trigger.
	Match(ctx context.Context, event Event) (bool, error)

	// Award returns the fixed XP and EP of the trigger.
	Award(cfg config.RewardConfigs) (xp, ep int)
}

// Data encodes the payload of the trigger, it is the inverse of
// Factory.LoadTrigger.
func Data(t Trigger) entity.Map {
	return structs.Map(t)
}

func decode(ctx context.Context, data map[string]any, result any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      result,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create decoder: %v", err)
		return errorx.Unknown
	}

	if err := decoder.Decode(data); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot decode trigger data: %v", err)
		return errorx.New(errorx.BadRequest, "Invalid trigger data")
	}

	return nil
}

// Task completion trigger
type taskCompletionTrigger struct {
	TaskID string `mapstructure:"task_id" structs:"task_id"`
}

func newTaskCompletionTrigger(
	ctx context.Context,
	factory Factory,
	data map[string]any,
	needParse bool,
) (*taskCompletionTrigger, error) {
	trigger := taskCompletionTrigger{}
	if err := decode(ctx, data, &trigger); err != nil {
		return nil, err
	}

	if trigger.TaskID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require task_id")
	}

	if needParse {
		if _, err := factory.taskRepo.GetByID(ctx, trigger.TaskID); err != nil {
			return nil, notFoundOrUnknown(ctx, err, "task")
		}
	}

	return &trigger, nil
}

func (t *taskCompletionTrigger) Type() entity.RewardTriggerType {
	return entity.TaskCompletionTrigger
}

func (t *taskCompletionTrigger) Match(ctx context.Context, event Event) (bool, error) {
	e, ok := event.(TaskCompleted)
	return ok && e.Task == t.TaskID, nil
}

func (t *taskCompletionTrigger) Award(cfg config.RewardConfigs) (int, int) {
	return cfg.TaskCompletionXP, 0
}

// Task set completion trigger
type taskSetCompletionTrigger struct {
	TaskIDs []string `mapstructure:"task_ids" structs:"task_ids"`

	factory Factory
}

func newTaskSetCompletionTrigger(
	ctx context.Context,
	factory Factory,
	data map[string]any,
	needParse bool,
) (*taskSetCompletionTrigger, error) {
	trigger := taskSetCompletionTrigger{factory: factory}
	if err := decode(ctx, data, &trigger); err != nil {
		return nil, err
	}

	slices.Sort(trigger.TaskIDs)
	trigger.TaskIDs = slices.Compact(trigger.TaskIDs)
	if len(trigger.TaskIDs) == 0 || slices.Contains(trigger.TaskIDs, "") {
		return nil, errorx.New(errorx.BadRequest, "Require a non-empty task_ids")
	}

	if needParse {
		tasks, err := factory.taskRepo.GetByIDs(ctx, trigger.TaskIDs)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get tasks: %v", err)
			return nil, errorx.Unknown
		}

		if len(tasks) != len(trigger.TaskIDs) {
			return nil, errorx.New(errorx.NotFound, "Not found task")
		}
	}

	return &trigger, nil
}

func (t *taskSetCompletionTrigger) Type() entity.RewardTriggerType {
	return entity.TaskSetCompletionTrigger
}

func (t *taskSetCompletionTrigger) Match(ctx context.Context, event Event) (bool, error) {
	e, ok := event.(TaskCompleted)
	if !ok || !slices.Contains(t.TaskIDs, e.Task) {
		return false, nil
	}

	completed, err := t.factory.taskCompletionRepo.GetCompletedAmong(ctx, e.User, t.TaskIDs)
	if err != nil {
		return false, fmt.Errorf("cannot get completed tasks: %w", err)
	}

	return len(completed) == len(t.TaskIDs), nil
}

func (t *taskSetCompletionTrigger) Award(cfg config.RewardConfigs) (int, int) {
	return cfg.TaskSetCompletionXP, 0
}

// Attraction completion trigger
type attractionCompletionTrigger struct {
	AttractionID string `mapstructure:"attraction_id" structs:"attraction_id"`
}

func newAttractionCompletionTrigger(
	ctx context.Context,
	factory Factory,
	data map[string]any,
	needParse bool,
) (*attractionCompletionTrigger, error) {
	trigger := attractionCompletionTrigger{}
	if err := decode(ctx, data, &trigger); err != nil {
		return nil, err
	}

	if trigger.AttractionID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require attraction_id")
	}

	if needParse {
		if _, err := factory.attractionRepo.GetByID(ctx, trigger.AttractionID); err != nil {
			return nil, notFoundOrUnknown(ctx, err, "attraction")
		}
	}

	return &trigger, nil
}

func (t *attractionCompletionTrigger) Type() entity.RewardTriggerType {
	return entity.AttractionCompletionTrigger
}

func (t *attractionCompletionTrigger) Match(ctx context.Context, event Event) (bool, error) {
	e, ok := event.(AttractionCompleted)
	return ok && e.Attraction == t.AttractionID, nil
}

func (t *attractionCompletionTrigger) Award(cfg config.RewardConfigs) (int, int) {
	return cfg.AttractionCompletionXP, cfg.AttractionCompletionEP
}

// Category milestone trigger
type categoryMilestoneTrigger struct {
	CategoryID string `mapstructure:"category_id" structs:"category_id"`
	Tier       string `mapstructure:"tier" structs:"tier"`
}

func newCategoryMilestoneTrigger(
	ctx context.Context,
	factory Factory,
	data map[string]any,
	needParse bool,
) (*categoryMilestoneTrigger, error) {
	trigger := categoryMilestoneTrigger{}
	if err := decode(ctx, data, &trigger); err != nil {
		return nil, err
	}

	if trigger.CategoryID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require category_id")
	}

	if _, err := enum.ToEnum[entity.Tier](trigger.Tier); err != nil {
		xcontext.Logger(ctx).Debugf("Invalid tier: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid tier")
	}

	if needParse {
		if _, err := factory.categoryRepo.GetByID(ctx, trigger.CategoryID); err != nil {
			return nil, notFoundOrUnknown(ctx, err, "category")
		}
	}

	return &trigger, nil
}

func (t *categoryMilestoneTrigger) Type() entity.RewardTriggerType {
	return entity.CategoryMilestoneTrigger
}

func (t *categoryMilestoneTrigger) Match(ctx context.Context, event Event) (bool, error) {
	e, ok := event.(TierCrossed)
	return ok && e.Category == t.CategoryID && e.Tier == entity.Tier(t.Tier), nil
}

func (t *categoryMilestoneTrigger) Award(cfg config.RewardConfigs) (int, int) {
	return 0, TierEP(cfg, entity.Tier(t.Tier))
}

// Manual trigger
type manualTrigger struct{}

func newManualTrigger(ctx context.Context, data map[string]any) (*manualTrigger, error) {
	trigger := manualTrigger{}
	if err := decode(ctx, data, &trigger); err != nil {
		return nil, err
	}

	return &trigger, nil
}

func (t *manualTrigger) Type() entity.RewardTriggerType {
	return entity.ManualTrigger
}

// Match never matches, a manual reward is only granted by an administrator.
func (t *manualTrigger) Match(ctx context.Context, event Event) (bool, error) {
	return false, nil
}

func (t *manualTrigger) Award(cfg config.RewardConfigs) (int, int) {
	return cfg.ManualXP, cfg.ManualEP
}

func TierEP(cfg config.RewardConfigs, tier entity.Tier) int {
	switch tier {
	case entity.Bronze:
		return cfg.BronzeEP
	case entity.Silver:
		return cfg.SilverEP
	case entity.Gold:
		return cfg.GoldEP
	}

	return 0
}

func notFoundOrUnknown(ctx context.Context, err error, name string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorx.New(errorx.NotFound, "Not found %s", name)
	}

	xcontext.Logger(ctx).Errorf("Cannot get %s: %v", name, err)
	return errorx.Unknown
}
