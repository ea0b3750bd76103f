package domain

import (
	"github.com/jelajah-lab/backend/internal/domain/ledger"
	"github.com/jelajah-lab/backend/internal/domain/notification"
	"github.com/jelajah-lab/backend/internal/domain/progress"
	"github.com/jelajah-lab/backend/internal/domain/tier"
	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/pubsub"
)

type testRepos struct {
	category           repository.CategoryRepository
	attraction         repository.AttractionRepository
	task               repository.TaskRepository
	taskCompletion     repository.TaskCompletionRepository
	attractionProgress repository.AttractionProgressRepository
	categoryProgress   repository.CategoryProgressRepository
	rewardDefinition   repository.RewardDefinitionRepository
	userReward         repository.UserRewardRepository
	notification       repository.UserRewardNotificationRepository
	xpEPLedger         repository.XPEPLedgerRepository
}

func newTestRepos() testRepos {
	return testRepos{
		category:           repository.NewCategoryRepository(),
		attraction:         repository.NewAttractionRepository(),
		task:               repository.NewTaskRepository(),
		taskCompletion:     repository.NewTaskCompletionRepository(),
		attractionProgress: repository.NewAttractionProgressRepository(),
		categoryProgress:   repository.NewCategoryProgressRepository(),
		rewardDefinition:   repository.NewRewardDefinitionRepository(),
		userReward:         repository.NewUserRewardRepository(),
		notification:       repository.NewUserRewardNotificationRepository(),
		xpEPLedger:         repository.NewXPEPLedgerRepository(),
	}
}

func (r testRepos) factory() trigger.Factory {
	return trigger.NewFactory(r.category, r.attraction, r.task, r.taskCompletion)
}

func (r testRepos) ledger() ledger.Ledger {
	return ledger.NewLedger(r.userReward, r.xpEPLedger, nil)
}

func (r testRepos) detector() tier.Detector {
	return tier.NewDetector(r.attractionProgress, r.categoryProgress)
}

func newTestCompletionDomain(publisher pubsub.Publisher) *completionDomain {
	r := newTestRepos()
	return NewCompletionDomain(
		progress.NewAggregator(r.attraction, r.task, r.taskCompletion, r.attractionProgress),
		r.detector(),
		trigger.NewEvaluator(r.factory(), r.rewardDefinition),
		r.ledger(),
		notification.NewEmitter(publisher),
	)
}
