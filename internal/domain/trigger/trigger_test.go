package trigger

import (
	"testing"

	"github.com/jelajah-lab/backend/config"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/testutil"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newTestFactory() Factory {
	return NewFactory(
		repository.NewCategoryRepository(),
		repository.NewAttractionRepository(),
		repository.NewTaskRepository(),
		repository.NewTaskCompletionRepository(),
	)
}

func TestFactory_LoadTrigger(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	factory := newTestFactory()

	tests := []struct {
		name        string
		triggerType string
		data        map[string]any
		needParse   bool
		wantErr     errorx.Code
	}{
		{
			name:        "task completion",
			triggerType: "task_completion",
			data:        map[string]any{"task_id": testutil.KotaLamaTasks[0].ID},
			needParse:   true,
		},
		{
			name:        "unknown trigger type",
			triggerType: "quiz_passed",
			data:        map[string]any{},
			wantErr:     errorx.BadRequest,
		},
		{
			name:        "unexpected field",
			triggerType: "task_completion",
			data:        map[string]any{"task_id": "x", "quiz_id": "y"},
			wantErr:     errorx.BadRequest,
		},
		{
			name:        "missing task id",
			triggerType: "task_completion",
			data:        map[string]any{},
			wantErr:     errorx.BadRequest,
		},
		{
			name:        "unknown task is only checked when parsing",
			triggerType: "task_completion",
			data:        map[string]any{"task_id": testutil.UnknownTaskID},
			needParse:   false,
		},
		{
			name:        "unknown task",
			triggerType: "task_completion",
			data:        map[string]any{"task_id": testutil.UnknownTaskID},
			needParse:   true,
			wantErr:     errorx.NotFound,
		},
		{
			name:        "empty task set",
			triggerType: "task_set_completion",
			data:        map[string]any{"task_ids": []any{}},
			wantErr:     errorx.BadRequest,
		},
		{
			name:        "task set with an unknown task",
			triggerType: "task_set_completion",
			data:        map[string]any{"task_ids": []any{testutil.LawangSewuTasks[0].ID, testutil.UnknownTaskID}},
			needParse:   true,
			wantErr:     errorx.NotFound,
		},
		{
			name:        "unknown attraction",
			triggerType: "attraction_completion",
			data:        map[string]any{"attraction_id": testutil.UnknownAttractionID},
			needParse:   true,
			wantErr:     errorx.NotFound,
		},
		{
			name:        "category milestone",
			triggerType: "category_milestone",
			data:        map[string]any{"category_id": testutil.CategoryCulinary.ID, "tier": "silver"},
			needParse:   true,
		},
		{
			name:        "invalid tier",
			triggerType: "category_milestone",
			data:        map[string]any{"category_id": testutil.CategoryCulinary.ID, "tier": "platinum"},
			wantErr:     errorx.BadRequest,
		},
		{
			name:        "manual without payload",
			triggerType: "manual",
			data:        nil,
		},
		{
			name:        "manual with payload",
			triggerType: "manual",
			data:        map[string]any{"task_id": "x"},
			wantErr:     errorx.BadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger, err := factory.LoadTrigger(ctx, tt.triggerType, tt.data, tt.needParse)
			if tt.wantErr != 0 {
				require.Error(t, err)
				require.Equal(t, tt.wantErr, errorx.CodeOf(err))
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.triggerType, string(trigger.Type()))
		})
	}
}

func TestData_NormalizesTaskSet(t *testing.T) {
	ctx := testutil.MockContext()
	factory := newTestFactory()

	trigger, err := factory.LoadTrigger(ctx, "task_set_completion",
		map[string]any{"task_ids": []any{"b", "a", "b"}}, false)
	require.NoError(t, err)
	require.Equal(t, entity.Map{"task_ids": []string{"a", "b"}}, Data(trigger))
}

func TestTrigger_Award(t *testing.T) {
	ctx := testutil.MockContext()
	cfg := config.Default().Reward
	factory := newTestFactory()

	tests := []struct {
		triggerType string
		data        map[string]any
		xp          int
		ep          int
	}{
		{triggerType: "task_completion", data: map[string]any{"task_id": "t"}, xp: 50},
		{triggerType: "task_set_completion", data: map[string]any{"task_ids": []any{"t"}}, xp: 100},
		{triggerType: "attraction_completion", data: map[string]any{"attraction_id": "a"}, xp: 200, ep: 100},
		{triggerType: "category_milestone", data: map[string]any{"category_id": "c", "tier": "bronze"}, ep: 50},
		{triggerType: "category_milestone", data: map[string]any{"category_id": "c", "tier": "gold"}, ep: 200},
		{triggerType: "manual", data: map[string]any{}},
	}

	for _, tt := range tests {
		trigger, err := factory.LoadTrigger(ctx, tt.triggerType, tt.data, false)
		require.NoError(t, err)

		xp, ep := trigger.Award(cfg)
		require.Equal(t, tt.xp, xp, tt.triggerType)
		require.Equal(t, tt.ep, ep, tt.triggerType)
	}
}

func newTestEvaluator() Evaluator {
	return NewEvaluator(newTestFactory(), repository.NewRewardDefinitionRepository())
}

func rewardKeys(candidates []Candidate) []string {
	var keys []string
	for _, c := range candidates {
		keys = append(keys, c.RewardKey)
	}
	return keys
}

func TestEvaluator_Evaluate(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	e := newTestEvaluator()

	candidates, err := e.Evaluate(ctx, []Event{
		TaskCompleted{User: testutil.User1, Task: testutil.KotaLamaTasks[0].ID, Attraction: testutil.AttractionKotaLama.ID},
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, testutil.RewardFirstStep.ID, candidates[0].RewardKey)
	require.Equal(t, testutil.User1, candidates[0].UserID)
	require.Equal(t, 50, candidates[0].XP)
	require.NotNil(t, candidates[0].Definition)

	// The inactive definition on the same attraction is ignored.
	candidates, err = e.Evaluate(ctx, []Event{
		AttractionCompleted{User: testutil.User1, Attraction: testutil.AttractionKotaLama.ID},
	})
	require.NoError(t, err)
	require.Equal(t, []string{testutil.RewardKotaLama.ID}, rewardKeys(candidates))
	require.Equal(t, 200, candidates[0].XP)
	require.Equal(t, 100, candidates[0].EP)
}

func TestEvaluator_TierCrossed(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	e := newTestEvaluator()

	var events []Event
	for _, tier := range entity.Tiers {
		events = append(events, TierCrossed{User: testutil.User1, Category: testutil.CategoryHeritage.ID, Tier: tier})
	}

	candidates, err := e.Evaluate(ctx, events)
	require.NoError(t, err)
	require.Equal(t, []string{
		TierRewardKey(testutil.CategoryHeritage.ID, entity.Bronze),
		TierRewardKey(testutil.CategoryHeritage.ID, entity.Silver),
		testutil.RewardHeritageGold.ID,
	}, rewardKeys(candidates))

	require.Nil(t, candidates[0].Definition)
	require.Equal(t, 50, candidates[0].EP)
	require.Equal(t, 100, candidates[1].EP)
	require.Equal(t, 200, candidates[2].EP)

	for _, c := range candidates {
		require.Equal(t, testutil.CategoryHeritage.ID, c.CategoryID)
	}
	require.Equal(t, entity.Gold, candidates[2].Tier)
}

func TestEvaluator_TaskSet(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	e := newTestEvaluator()

	first, second := testutil.LawangSewuTasks[0], testutil.LawangSewuTasks[1]
	testutil.InsertTaskCompletions(ctx, testutil.User1, first)

	candidates, err := e.Evaluate(ctx, []Event{
		TaskCompleted{User: testutil.User1, Task: first.ID, Attraction: first.AttractionID},
	})
	require.NoError(t, err)
	require.Empty(t, candidates)

	testutil.InsertTaskCompletions(ctx, testutil.User1, second)
	candidates, err = e.Evaluate(ctx, []Event{
		TaskCompleted{User: testutil.User1, Task: second.ID, Attraction: second.AttractionID},
	})
	require.NoError(t, err)
	require.Equal(t, []string{testutil.RewardLawangSewuSet.ID}, rewardKeys(candidates))
	require.Equal(t, 100, candidates[0].XP)

	// Another user hasn't completed the set.
	candidates, err = e.Evaluate(ctx, []Event{
		TaskCompleted{User: testutil.User2, Task: second.ID, Attraction: second.AttractionID},
	})
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestEvaluator_CollapsesDuplicatesAndSkipsInvalid(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	e := newTestEvaluator()

	require.NoError(t, xcontext.DB(ctx).Create(&entity.RewardDefinition{
		Base:        entity.Base{ID: "reward-broken"},
		Name:        "Broken",
		TriggerType: entity.TaskCompletionTrigger,
		TriggerData: entity.Map{"quiz_id": "q"},
		IsActive:    true,
	}).Error)

	event := TaskCompleted{User: testutil.User1, Task: testutil.KotaLamaTasks[0].ID, Attraction: testutil.AttractionKotaLama.ID}
	candidates, err := e.Evaluate(ctx, []Event{event, event})
	require.NoError(t, err)
	require.Equal(t, []string{testutil.RewardFirstStep.ID}, rewardKeys(candidates))

	candidates, err = e.Evaluate(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, candidates)
}
