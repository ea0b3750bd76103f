package domain

import (
	"context"
	"fmt"
	"testing"

	"github.com/jelajah-lab/backend/internal/domain/notification"
	"github.com/jelajah-lab/backend/internal/domain/progress"
	"github.com/jelajah-lab/backend/internal/domain/tier"
	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/pubsub"
	"github.com/jelajah-lab/backend/pkg/testutil"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func completeTask(
	t *testing.T, ctx context.Context, d CompletionDomain, task entity.Task,
) *model.CompleteTaskResponse {
	resp, err := d.CompleteTask(ctx, &model.CompleteTaskRequest{
		TaskID:       task.ID,
		AttractionID: task.AttractionID,
	})
	require.NoError(t, err)
	return resp
}

func newRewardKeys(resp *model.CompleteTaskResponse) []string {
	keys := []string{}
	for _, r := range resp.NewRewards {
		keys = append(keys, r.RewardKey)
	}
	return keys
}

func TestCompletionDomain_CompleteTask_KotaLama(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)

	publisher := &testutil.RecordPublisher{}
	d := newTestCompletionDomain(publisher)
	r := newTestRepos()

	heritage := testutil.CategoryHeritage.ID
	tests := []struct {
		percentage   int
		crossedTiers []string
		newRewards   []string
	}{
		{percentage: 20, crossedTiers: []string{}, newRewards: []string{testutil.RewardFirstStep.ID}},
		{percentage: 40, crossedTiers: []string{"bronze"}, newRewards: []string{trigger.TierRewardKey(heritage, entity.Bronze)}},
		{percentage: 60, crossedTiers: []string{}, newRewards: []string{}},
		{percentage: 80, crossedTiers: []string{"silver"}, newRewards: []string{trigger.TierRewardKey(heritage, entity.Silver)}},
		{percentage: 100, crossedTiers: []string{"gold"}, newRewards: []string{testutil.RewardKotaLama.ID, testutil.RewardHeritageGold.ID}},
	}

	for i, task := range testutil.KotaLamaTasks {
		if i == 4 {
			_, err := r.userReward.Get(ctx, testutil.User1, testutil.RewardKotaLama.ID)
			require.ErrorIs(t, err, gorm.ErrRecordNotFound)
		}

		resp := completeTask(t, ctx, d, task)
		tt := tests[i]

		require.Equal(t, tt.percentage, resp.AttractionProgress.Percentage, "task %d", i+1)
		require.Equal(t, i+1, resp.AttractionProgress.CompletedTasks)
		require.Equal(t, 5, resp.AttractionProgress.TotalTasks)
		require.Equal(t, i == 4, resp.AttractionProgress.Unlocked)
		require.Equal(t, i == 4, resp.JustCompletedAttraction)
		require.Equal(t, tt.percentage, resp.CategoryProgress.CompletionPercentage)
		require.Equal(t, 1, resp.CategoryProgress.AttemptedAttractions)
		require.Equal(t, tt.crossedTiers, resp.CrossedTiers)
		require.Equal(t, tt.newRewards, newRewardKeys(resp), "task %d", i+1)
	}

	reward, err := r.userReward.Get(ctx, testutil.User1, testutil.RewardKotaLama.ID)
	require.NoError(t, err)
	require.Equal(t, 200, reward.XP)
	require.Equal(t, 100, reward.EP)
	require.Equal(t, testutil.RewardKotaLama.ID, reward.RewardDefinitionID.String)

	entries, err := r.xpEPLedger.GetByUserID(ctx, testutil.User1)
	require.NoError(t, err)
	require.Len(t, entries, 5)

	totals, err := r.xpEPLedger.SumByUserID(ctx, testutil.User1)
	require.NoError(t, err)
	require.Equal(t, repository.Totals{XP: 250, EP: 450}, totals)

	// reward_granted x5, tier_unlocked x3, attraction_completed x1.
	require.Equal(t, 9, publisher.Len())

	// Completing a task again changes nothing.
	resp := completeTask(t, ctx, d, testutil.KotaLamaTasks[4])
	require.Equal(t, 100, resp.AttractionProgress.Percentage)
	require.False(t, resp.JustCompletedAttraction)
	require.Empty(t, resp.NewRewards)
	require.Empty(t, resp.CrossedTiers)

	entries, err = r.xpEPLedger.GetByUserID(ctx, testutil.User1)
	require.NoError(t, err)
	require.Len(t, entries, 5)
}

func TestCompletionDomain_CompleteTask_ThresholdSkip(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)
	r := newTestRepos()

	// The first four tasks were imported, the stored progress is outdated.
	testutil.InsertTaskCompletions(ctx, testutil.User1, testutil.PasarSemawisTasks[:4]...)
	require.NoError(t, xcontext.DB(ctx).Create(&entity.AttractionProgress{
		UserID:         testutil.User1,
		AttractionID:   testutil.AttractionPasarSemawis.ID,
		CompletedTasks: 1,
		TotalTasks:     5,
		Percentage:     20,
	}).Error)

	d := newTestCompletionDomain(pubsub.NewNopPublisher())
	resp := completeTask(t, ctx, d, testutil.PasarSemawisTasks[4])

	culinary := testutil.CategoryCulinary.ID
	require.Equal(t, 100, resp.AttractionProgress.Percentage)
	require.True(t, resp.JustCompletedAttraction)
	require.Equal(t, 100, resp.CategoryProgress.CompletionPercentage)
	require.Equal(t, []string{"bronze", "silver", "gold"}, resp.CrossedTiers)
	require.Equal(t, []string{
		trigger.TierRewardKey(culinary, entity.Bronze),
		trigger.TierRewardKey(culinary, entity.Silver),
		trigger.TierRewardKey(culinary, entity.Gold),
	}, newRewardKeys(resp))

	totals, err := r.xpEPLedger.SumByUserID(ctx, testutil.User1)
	require.NoError(t, err)
	require.Equal(t, repository.Totals{XP: 0, EP: 350}, totals)

	flags, err := r.categoryProgress.Get(ctx, testutil.User1, culinary)
	require.NoError(t, err)
	require.True(t, flags.BronzeUnlocked)
	require.True(t, flags.SilverUnlocked)
	require.True(t, flags.GoldUnlocked)
}

// The test database has a single connection, so the submissions below are
// serialized at the pool. The FOR UPDATE and FOR SHARE lock ordering is only
// exercised on mysql and postgres.
func TestCompletionDomain_CompleteTask_Race(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)
	r := newTestRepos()

	d := newTestCompletionDomain(pubsub.NewNopPublisher())
	for _, task := range testutil.KotaLamaTasks[:4] {
		completeTask(t, ctx, d, task)
	}

	lastTask := testutil.KotaLamaTasks[4]
	responses := make([]*model.CompleteTaskResponse, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i := range responses {
		i := i
		g.Go(func() error {
			resp, err := d.CompleteTask(gctx, &model.CompleteTaskRequest{
				TaskID:       lastTask.ID,
				AttractionID: lastTask.AttractionID,
			})
			responses[i] = resp
			return err
		})
	}
	require.NoError(t, g.Wait())

	justCompleted := 0
	kotaLamaGranted := 0
	for _, resp := range responses {
		require.Equal(t, 100, resp.AttractionProgress.Percentage)
		if resp.JustCompletedAttraction {
			justCompleted++
		}

		for _, reward := range resp.NewRewards {
			if reward.RewardKey == testutil.RewardKotaLama.ID {
				kotaLamaGranted++
			}
		}
	}
	require.Equal(t, 1, justCompleted)
	require.Equal(t, 1, kotaLamaGranted)

	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.XPEPLedger{}).
		Where("user_id=? AND source_reward_key=?", testutil.User1, testutil.RewardKotaLama.ID).
		Count(&count).Error)
	require.Equal(t, int64(1), count)

	rewards, err := r.userReward.GetByUserID(ctx, testutil.User1, 0, 100)
	require.NoError(t, err)
	require.Len(t, rewards, 5)
}

func TestCompletionDomain_CompleteTask_FlagsAreMonotonic(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)
	r := newTestRepos()

	d := newTestCompletionDomain(pubsub.NewNopPublisher())
	for _, task := range testutil.KotaLamaTasks {
		completeTask(t, ctx, d, task)
	}

	// A new task added to Kota Lama lowers its percentage.
	newTask := entity.Task{
		Base:         entity.Base{ID: "kota-lama-task-6"},
		Title:        "kota-lama-task #6",
		AttractionID: testutil.AttractionKotaLama.ID,
	}
	require.NoError(t, r.task.Create(ctx, &newTask))

	resp := completeTask(t, ctx, d, testutil.KotaLamaTasks[0])
	require.Equal(t, 83, resp.AttractionProgress.Percentage)
	require.Equal(t, 6, resp.AttractionProgress.TotalTasks)
	require.True(t, resp.AttractionProgress.Unlocked)
	require.False(t, resp.JustCompletedAttraction)
	require.Empty(t, resp.NewRewards)

	// Attempting another attraction lowers the category mean, the flags stay.
	resp = completeTask(t, ctx, d, testutil.LawangSewuTasks[0])
	require.Equal(t, 50, resp.AttractionProgress.Percentage)
	require.Equal(t, 67, resp.CategoryProgress.CompletionPercentage)
	require.Equal(t, 2, resp.CategoryProgress.AttemptedAttractions)
	require.True(t, resp.CategoryProgress.BronzeUnlocked)
	require.True(t, resp.CategoryProgress.SilverUnlocked)
	require.True(t, resp.CategoryProgress.GoldUnlocked)
	require.Empty(t, resp.CrossedTiers)

	// Completing the set of Lawang Sewu grants the task set reward.
	resp = completeTask(t, ctx, d, testutil.LawangSewuTasks[1])
	require.Equal(t, []string{testutil.RewardLawangSewuSet.ID}, newRewardKeys(resp))
	require.True(t, resp.JustCompletedAttraction)

	resp = completeTask(t, ctx, d, newTask)
	require.Equal(t, 100, resp.AttractionProgress.Percentage)
	require.False(t, resp.JustCompletedAttraction)
	require.Empty(t, resp.NewRewards)

	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.UserReward{}).
		Where("user_id=? AND reward_key=?", testutil.User1, testutil.RewardKotaLama.ID).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestCompletionDomain_CompleteTask_Invalid(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestCompletionDomain(pubsub.NewNopPublisher())

	tests := []struct {
		name    string
		ctx     context.Context
		req     *model.CompleteTaskRequest
		wantErr errorx.Code
	}{
		{
			name:    "unauthenticated",
			ctx:     ctx,
			req:     &model.CompleteTaskRequest{TaskID: testutil.KotaLamaTasks[0].ID, AttractionID: testutil.AttractionKotaLama.ID},
			wantErr: errorx.Unauthenticated,
		},
		{
			name:    "missing task",
			ctx:     testutil.MockContextWithUserID(ctx, testutil.User1),
			req:     &model.CompleteTaskRequest{AttractionID: testutil.AttractionKotaLama.ID},
			wantErr: errorx.BadRequest,
		},
		{
			name:    "unknown attraction",
			ctx:     testutil.MockContextWithUserID(ctx, testutil.User1),
			req:     &model.CompleteTaskRequest{TaskID: testutil.KotaLamaTasks[0].ID, AttractionID: testutil.UnknownAttractionID},
			wantErr: errorx.NotFound,
		},
		{
			name:    "unknown task",
			ctx:     testutil.MockContextWithUserID(ctx, testutil.User1),
			req:     &model.CompleteTaskRequest{TaskID: testutil.UnknownTaskID, AttractionID: testutil.AttractionKotaLama.ID},
			wantErr: errorx.NotFound,
		},
		{
			name:    "task of another attraction",
			ctx:     testutil.MockContextWithUserID(ctx, testutil.User1),
			req:     &model.CompleteTaskRequest{TaskID: testutil.LawangSewuTasks[0].ID, AttractionID: testutil.AttractionKotaLama.ID},
			wantErr: errorx.BadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.CompleteTask(tt.ctx, tt.req)
			require.Error(t, err)
			require.Equal(t, tt.wantErr, errorx.CodeOf(err))
		})
	}

	for _, table := range []any{&entity.TaskCompletion{}, &entity.AttractionProgress{}, &entity.CategoryProgress{}} {
		var count int64
		require.NoError(t, xcontext.DB(ctx).Model(table).Count(&count).Error)
		require.Zero(t, count)
	}
}

type conflictAggregator struct {
	progress.Aggregator
	calls int
}

func (a *conflictAggregator) RecordTaskCompletion(
	ctx context.Context, userID, taskID, attractionID string,
) (*progress.Result, error) {
	a.calls++
	return nil, fmt.Errorf("cannot record task completion: %w", gorm.ErrDuplicatedKey)
}

func TestCompletionDomain_CompleteTask_ConflictExhausted(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)
	r := newTestRepos()

	aggregator := &conflictAggregator{
		Aggregator: progress.NewAggregator(r.attraction, r.task, r.taskCompletion, r.attractionProgress),
	}
	d := NewCompletionDomain(
		aggregator,
		tier.NewDetector(r.attractionProgress, r.categoryProgress),
		trigger.NewEvaluator(r.factory(), r.rewardDefinition),
		r.ledger(),
		notification.NewEmitter(pubsub.NewNopPublisher()),
	)

	_, err := d.CompleteTask(ctx, &model.CompleteTaskRequest{
		TaskID:       testutil.KotaLamaTasks[0].ID,
		AttractionID: testutil.AttractionKotaLama.ID,
	})
	require.Error(t, err)
	require.Equal(t, errorx.Conflict, errorx.CodeOf(err))
	require.Equal(t, int(xcontext.Configs(ctx).Engine.MaxRetries)+1, aggregator.calls)

	// The category lock taken by each attempt was rolled back too.
	var count int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.CategoryProgress{}).Count(&count).Error)
	require.Zero(t, count)
}
