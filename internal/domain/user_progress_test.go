package domain

import (
	"context"
	"testing"
	"time"

	"github.com/jelajah-lab/backend/internal/domain/ledger"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/pubsub"
	"github.com/jelajah-lab/backend/pkg/testutil"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/jelajah-lab/backend/pkg/xredis"
	"github.com/stretchr/testify/require"
)

func newTestUserProgressDomain(l ledger.Ledger) *userProgressDomain {
	r := newTestRepos()
	if l == nil {
		l = r.ledger()
	}

	return NewUserProgressDomain(
		r.attraction,
		r.category,
		r.attractionProgress,
		r.rewardDefinition,
		r.userReward,
		r.notification,
		r.detector(),
		l,
	)
}

func TestUserProgressDomain_GetMyAttractionProgress(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)

	completion := newTestCompletionDomain(pubsub.NewNopPublisher())
	completeTask(t, ctx, completion, testutil.KotaLamaTasks[0])
	completeTask(t, ctx, completion, testutil.KotaLamaTasks[1])

	d := newTestUserProgressDomain(nil)
	resp, err := d.GetMyAttractionProgress(ctx, &model.GetMyAttractionProgressRequest{
		AttractionID: testutil.AttractionKotaLama.ID,
	})
	require.NoError(t, err)
	require.Equal(t, model.AttractionProgress{
		AttractionID:   testutil.AttractionKotaLama.ID,
		AttractionName: testutil.AttractionKotaLama.Name,
		CategoryID:     testutil.CategoryHeritage.ID,
		CompletedTasks: 2,
		TotalTasks:     5,
		Percentage:     40,
	}, resp.AttractionProgress)

	// Never attempted.
	resp, err = d.GetMyAttractionProgress(ctx, &model.GetMyAttractionProgressRequest{
		AttractionID: testutil.AttractionLawangSewu.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 0, resp.AttractionProgress.Percentage)
	require.False(t, resp.AttractionProgress.Unlocked)

	_, err = d.GetMyAttractionProgress(ctx, &model.GetMyAttractionProgressRequest{
		AttractionID: testutil.UnknownAttractionID,
	})
	require.Equal(t, errorx.NotFound, errorx.CodeOf(err))

	progresses, err := d.GetMyAttractionProgresses(ctx, &model.GetMyAttractionProgressesRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, progresses.AttractionProgresses, 1)
	require.Equal(t, testutil.AttractionKotaLama.Name, progresses.AttractionProgresses[0].AttractionName)

	_, err = d.GetMyAttractionProgresses(ctx, &model.GetMyAttractionProgressesRequest{Limit: 1000})
	require.Equal(t, errorx.BadRequest, errorx.CodeOf(err))
}

func TestUserProgressDomain_GetMyCategoryProgress(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)

	completion := newTestCompletionDomain(pubsub.NewNopPublisher())
	completeTask(t, ctx, completion, testutil.LawangSewuTasks[0])

	d := newTestUserProgressDomain(nil)
	resp, err := d.GetMyCategoryProgress(ctx, &model.GetMyCategoryProgressRequest{
		CategoryID: testutil.CategoryHeritage.ID,
	})
	require.NoError(t, err)
	require.Equal(t, model.CategoryProgress{
		CategoryID:           testutil.CategoryHeritage.ID,
		CompletionPercentage: 50,
		AttemptedAttractions: 1,
		BronzeUnlocked:       true,
	}, resp.CategoryProgress)

	_, err = d.GetMyCategoryProgress(ctx, &model.GetMyCategoryProgressRequest{CategoryID: "category-nature"})
	require.Equal(t, errorx.NotFound, errorx.CodeOf(err))

	_, err = d.GetMyCategoryProgress(
		testutil.MockContext(), &model.GetMyCategoryProgressRequest{CategoryID: testutil.CategoryHeritage.ID})
	require.Equal(t, errorx.Unauthenticated, errorx.CodeOf(err))
}

func TestUserProgressDomain_GetMyRewards(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)

	completion := newTestCompletionDomain(pubsub.NewNopPublisher())
	completeTask(t, ctx, completion, testutil.KotaLamaTasks[0])
	completeTask(t, ctx, completion, testutil.KotaLamaTasks[1])

	d := newTestUserProgressDomain(nil)
	resp, err := d.GetMyRewards(ctx, &model.GetMyRewardsRequest{Limit: 10})
	require.NoError(t, err)
	require.Len(t, resp.Rewards, 2)

	rewards := map[string]model.UserReward{}
	for _, r := range resp.Rewards {
		require.False(t, r.WasNotified)
		rewards[r.RewardKey] = r
	}

	require.Equal(t, testutil.RewardFirstStep.Name, rewards[testutil.RewardFirstStep.ID].Name)
	require.Equal(t, 50, rewards[testutil.RewardFirstStep.ID].XP)

	tierReward := rewards["tier:category-heritage:bronze"]
	require.Equal(t, "bronze", tierReward.Tier)
	require.Equal(t, 50, tierReward.EP)
	require.Empty(t, tierReward.RewardDefinitionID)

	stored, err := newTestRepos().userReward.GetByUserID(ctx, testutil.User1, 0, 10)
	require.NoError(t, err)

	// Rewards are only new the first time.
	resp, err = d.GetMyRewards(ctx, &model.GetMyRewardsRequest{Limit: 10})
	require.NoError(t, err)
	for _, r := range resp.Rewards {
		require.True(t, r.WasNotified)
	}

	// Reading never touches the granted rows.
	after, err := newTestRepos().userReward.GetByUserID(ctx, testutil.User1, 0, 10)
	require.NoError(t, err)
	require.Equal(t, stored, after)

	notifications, err := newTestRepos().notification.GetByRewardKeys(
		ctx, testutil.User1, []string{testutil.RewardFirstStep.ID, "tier:category-heritage:bronze"})
	require.NoError(t, err)
	require.Len(t, notifications, 2)

	resp, err = d.GetMyRewards(ctx, &model.GetMyRewardsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Rewards, xcontext.Configs(ctx).ApiServer.DefaultLimit)
}

func TestUserProgressDomain_GetMyTotals(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1)

	completion := newTestCompletionDomain(pubsub.NewNopPublisher())
	for _, task := range testutil.KotaLamaTasks {
		completeTask(t, ctx, completion, task)
	}

	cached := map[string]repository.Totals{}
	r := newTestRepos()
	l := ledger.NewLedger(r.userReward, r.xpEPLedger, &testutil.MockRedisClient{
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			totals, ok := cached[key]
			if !ok {
				return xredis.ErrNotFound
			}

			*v.(*repository.Totals) = totals
			return nil
		},
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			cached[key] = obj.(repository.Totals)
			return nil
		},
	})

	d := newTestUserProgressDomain(l)
	resp, err := d.GetMyTotals(ctx, &model.GetMyTotalsRequest{})
	require.NoError(t, err)
	require.Equal(t, model.Totals{XP: 250, EP: 450}, resp.Totals)
	require.Equal(t, repository.Totals{XP: 250, EP: 450}, cached[ledger.TotalsKey(testutil.User1, "0")])
}
