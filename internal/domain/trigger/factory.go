package trigger

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/enum"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type Factory struct {
	categoryRepo       repository.CategoryRepository
	attractionRepo     repository.AttractionRepository
	taskRepo           repository.TaskRepository
	taskCompletionRepo repository.TaskCompletionRepository
}

func NewFactory(
	categoryRepo repository.CategoryRepository,
	attractionRepo repository.AttractionRepository,
	taskRepo repository.TaskRepository,
	taskCompletionRepo repository.TaskCompletionRepository,
) Factory {
	return Factory{
		categoryRepo:       categoryRepo,
		attractionRepo:     attractionRepo,
		taskRepo:           taskRepo,
		taskCompletionRepo: taskCompletionRepo,
	}
}

// LoadTrigger decodes the payload of a trigger. Unknown trigger types and
// malformed payloads are rejected. If needParse is true, the references of the
// payload are also checked against the catalog, it is only necessary when the
// payload comes from a client. Always return errorx in this method.
func (f Factory) LoadTrigger(
	ctx context.Context,
	triggerType string,
	data map[string]any,
	needParse bool,
) (Trigger, error) {
	t, err := enum.ToEnum[entity.RewardTriggerType](triggerType)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid trigger type: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid trigger type %s", triggerType)
	}

	if data == nil {
		data = map[string]any{}
	}

	var trigger Trigger
	switch t {
	case entity.TaskCompletionTrigger:
		trigger, err = newTaskCompletionTrigger(ctx, f, data, needParse)

	case entity.TaskSetCompletionTrigger:
		trigger, err = newTaskSetCompletionTrigger(ctx, f, data, needParse)

	case entity.AttractionCompletionTrigger:
		trigger, err = newAttractionCompletionTrigger(ctx, f, data, needParse)

	case entity.CategoryMilestoneTrigger:
		trigger, err = newCategoryMilestoneTrigger(ctx, f, data, needParse)

	case entity.ManualTrigger:
		trigger, err = newManualTrigger(ctx, data)

	default:
		return nil, errorx.New(errorx.BadRequest, "Invalid trigger type %s", triggerType)
	}

	if err != nil {
		return nil, err
	}

	return trigger, nil
}
