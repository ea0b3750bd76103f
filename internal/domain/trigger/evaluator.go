package trigger

import (
	"context"
	"fmt"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/puzpuzpuz/xsync"
)

// AutomaticTriggerTypes are the trigger types matched against events.
var AutomaticTriggerTypes = []entity.RewardTriggerType{
	entity.TaskCompletionTrigger,
	entity.TaskSetCompletionTrigger,
	entity.AttractionCompletionTrigger,
	entity.CategoryMilestoneTrigger,
}

type Evaluator interface {
	// Evaluate returns the rewards the events qualify for, in the order of the
	// events. A reward key appears at most once.
	Evaluate(ctx context.Context, events []Event) ([]Candidate, error)
}

type evaluator struct {
	factory              Factory
	rewardDefinitionRepo repository.RewardDefinitionRepository

	// triggers caches the decoded trigger of each definition version.
	triggers *xsync.MapOf[string, Trigger]
}

func NewEvaluator(factory Factory, rewardDefinitionRepo repository.RewardDefinitionRepository) Evaluator {
	return &evaluator{
		factory:              factory,
		rewardDefinitionRepo: rewardDefinitionRepo,
		triggers:             xsync.NewMapOf[Trigger](),
	}
}

type loadedDefinition struct {
	definition *entity.RewardDefinition
	trigger    Trigger
}

func (e *evaluator) Evaluate(ctx context.Context, events []Event) ([]Candidate, error) {
	if len(events) == 0 {
		return nil, nil
	}

	definitions, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	cfg := xcontext.Configs(ctx).Reward
	seen := map[string]bool{}
	var candidates []Candidate
	add := func(c Candidate) {
		if seen[c.RewardKey] {
			return
		}

		seen[c.RewardKey] = true
		candidates = append(candidates, c)
	}

	for _, event := range events {
		matched := false
		for _, d := range definitions {
			ok, err := d.trigger.Match(ctx, event)
			if err != nil {
				return nil, fmt.Errorf("cannot match reward definition %s: %w", d.definition.ID, err)
			}

			if !ok {
				continue
			}

			matched = true
			c := Candidate{
				UserID:     event.UserID(),
				RewardKey:  d.definition.ID,
				Definition: d.definition,
				XP:         d.definition.XP,
				EP:         d.definition.EP,
			}

			if tc, ok := event.(TierCrossed); ok {
				c.CategoryID = tc.Category
				c.Tier = tc.Tier
			}

			add(c)
		}

		if tc, ok := event.(TierCrossed); ok && !matched {
			add(Candidate{
				UserID:     tc.User,
				RewardKey:  TierRewardKey(tc.Category, tc.Tier),
				CategoryID: tc.Category,
				Tier:       tc.Tier,
				EP:         TierEP(cfg, tc.Tier),
			})
		}
	}

	return candidates, nil
}

// load returns the active definitions with a valid trigger. A definition which
// cannot be loaded anymore is skipped, it never blocks the other rewards.
func (e *evaluator) load(ctx context.Context) ([]loadedDefinition, error) {
	definitions, err := e.rewardDefinitionRepo.GetList(ctx, repository.RewardDefinitionFilter{
		TriggerTypes: AutomaticTriggerTypes,
		OnlyActive:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot get reward definitions: %w", err)
	}

	result := make([]loadedDefinition, 0, len(definitions))
	for i := range definitions {
		d := &definitions[i]
		key := fmt.Sprintf("%s:%d", d.ID, d.UpdatedAt.UnixNano())
		t, ok := e.triggers.Load(key)
		if !ok {
			t, err = e.factory.LoadTrigger(ctx, string(d.TriggerType), d.TriggerData, false)
			if err != nil {
				xcontext.Logger(ctx).Warnf("Skip invalid reward definition %s: %v", d.ID, err)
				continue
			}

			e.triggers.Store(key, t)
		}

		result = append(result, loadedDefinition{definition: d, trigger: t})
	}

	return result, nil
}
