package domain

import (
	"context"
	"errors"

	"github.com/jelajah-lab/backend/internal/domain/ledger"
	"github.com/jelajah-lab/backend/internal/domain/tier"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserProgressDomain interface {
	GetMyAttractionProgress(context.Context, *model.GetMyAttractionProgressRequest) (*model.GetMyAttractionProgressResponse, error)
	GetMyAttractionProgresses(context.Context, *model.GetMyAttractionProgressesRequest) (*model.GetMyAttractionProgressesResponse, error)
	GetMyCategoryProgress(context.Context, *model.GetMyCategoryProgressRequest) (*model.GetMyCategoryProgressResponse, error)
	GetMyRewards(context.Context, *model.GetMyRewardsRequest) (*model.GetMyRewardsResponse, error)
	GetMyTotals(context.Context, *model.GetMyTotalsRequest) (*model.GetMyTotalsResponse, error)
}

type userProgressDomain struct {
	attractionRepo             repository.AttractionRepository
	categoryRepo               repository.CategoryRepository
	attractionProgressRepo     repository.AttractionProgressRepository
	rewardDefinitionRepo       repository.RewardDefinitionRepository
	userRewardRepo             repository.UserRewardRepository
	userRewardNotificationRepo repository.UserRewardNotificationRepository
	detector                   tier.Detector
	ledger                     ledger.Ledger
}

func NewUserProgressDomain(
	attractionRepo repository.AttractionRepository,
	categoryRepo repository.CategoryRepository,
	attractionProgressRepo repository.AttractionProgressRepository,
	rewardDefinitionRepo repository.RewardDefinitionRepository,
	userRewardRepo repository.UserRewardRepository,
	userRewardNotificationRepo repository.UserRewardNotificationRepository,
	detector tier.Detector,
	ledger ledger.Ledger,
) *userProgressDomain {
	return &userProgressDomain{
		attractionRepo:             attractionRepo,
		categoryRepo:               categoryRepo,
		attractionProgressRepo:     attractionProgressRepo,
		rewardDefinitionRepo:       rewardDefinitionRepo,
		userRewardRepo:             userRewardRepo,
		userRewardNotificationRepo: userRewardNotificationRepo,
		detector:                   detector,
		ledger:                     ledger,
	}
}

func (d *userProgressDomain) GetMyAttractionProgress(
	ctx context.Context, req *model.GetMyAttractionProgressRequest,
) (*model.GetMyAttractionProgressResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	attraction, err := d.attractionRepo.GetByID(ctx, req.AttractionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found attraction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get attraction: %v", err)
		return nil, errorx.Unknown
	}

	progress, err := d.attractionProgressRepo.Get(ctx, userID, attraction.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get attraction progress: %v", err)
			return nil, errorx.Unknown
		}

		// Not attempted yet.
		progress = &entity.AttractionProgress{UserID: userID, AttractionID: attraction.ID}
	}

	return &model.GetMyAttractionProgressResponse{
		AttractionProgress: convertAttractionProgress(progress, attraction),
	}, nil
}

func (d *userProgressDomain) GetMyAttractionProgresses(
	ctx context.Context, req *model.GetMyAttractionProgressesRequest,
) (*model.GetMyAttractionProgressesResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := checkPagination(ctx, &req.Offset, &req.Limit); err != nil {
		return nil, err
	}

	progresses, err := d.attractionProgressRepo.GetByUserID(ctx, userID, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get attraction progresses: %v", err)
		return nil, errorx.Unknown
	}

	attractionIDs := []string{}
	for _, p := range progresses {
		attractionIDs = append(attractionIDs, p.AttractionID)
	}

	attractions, err := d.attractionRepo.GetByIDs(ctx, attractionIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get attractions: %v", err)
		return nil, errorx.Unknown
	}

	attractionMap := map[string]*entity.Attraction{}
	for i := range attractions {
		attractionMap[attractions[i].ID] = &attractions[i]
	}

	clientProgresses := []model.AttractionProgress{}
	for _, p := range progresses {
		clientProgresses = append(clientProgresses, convertAttractionProgress(&p, attractionMap[p.AttractionID]))
	}

	return &model.GetMyAttractionProgressesResponse{AttractionProgresses: clientProgresses}, nil
}

func (d *userProgressDomain) GetMyCategoryProgress(
	ctx context.Context, req *model.GetMyCategoryProgressRequest,
) (*model.GetMyCategoryProgressResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := d.categoryRepo.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found category")
		}

		xcontext.Logger(ctx).Errorf("Cannot get category: %v", err)
		return nil, errorx.Unknown
	}

	view, err := d.detector.View(ctx, userID, req.CategoryID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get category progress: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetMyCategoryProgressResponse{CategoryProgress: convertCategoryProgress(view)}, nil
}

// GetMyRewards returns the granted rewards, newest first. was_notified is only
// false the first time a reward is returned.
func (d *userProgressDomain) GetMyRewards(
	ctx context.Context, req *model.GetMyRewardsRequest,
) (*model.GetMyRewardsResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	if err := checkPagination(ctx, &req.Offset, &req.Limit); err != nil {
		return nil, err
	}

	rewards, err := d.userRewardRepo.GetByUserID(ctx, userID, req.Offset, req.Limit)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get user rewards: %v", err)
		return nil, errorx.Unknown
	}

	rewardKeys := []string{}
	definitionIDs := []string{}
	for _, r := range rewards {
		rewardKeys = append(rewardKeys, r.RewardKey)
		if r.RewardDefinitionID.Valid {
			definitionIDs = append(definitionIDs, r.RewardDefinitionID.String)
		}
	}

	definitions, err := d.rewardDefinitionRepo.GetByIDs(ctx, definitionIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward definitions: %v", err)
		return nil, errorx.Unknown
	}

	definitionMap := map[string]*entity.RewardDefinition{}
	for i := range definitions {
		definitionMap[definitions[i].ID] = &definitions[i]
	}

	notifications, err := d.userRewardNotificationRepo.GetByRewardKeys(ctx, userID, rewardKeys)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward notifications: %v", err)
		return nil, errorx.Unknown
	}

	notified := map[string]bool{}
	for _, n := range notifications {
		notified[n.RewardKey] = true
	}

	unnotified := []string{}
	clientRewards := []model.UserReward{}
	for _, r := range rewards {
		if r.RewardDefinitionID.Valid && definitionMap[r.RewardDefinitionID.String] == nil {
			xcontext.Logger(ctx).Warnf("Not found reward definition %s", r.RewardDefinitionID.String)
		}

		reward := ConvertUserReward(&r, definitionMap[r.RewardDefinitionID.String])
		reward.WasNotified = notified[r.RewardKey]
		if !reward.WasNotified {
			unnotified = append(unnotified, r.RewardKey)
		}

		clientRewards = append(clientRewards, reward)
	}

	if err := d.userRewardNotificationRepo.CreateIfNotExists(ctx, userID, unnotified); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create reward notifications: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetMyRewardsResponse{Rewards: clientRewards}, nil
}

func (d *userProgressDomain) GetMyTotals(
	ctx context.Context, req *model.GetMyTotalsRequest,
) (*model.GetMyTotalsResponse, error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := d.ledger.Totals(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get totals: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetMyTotalsResponse{Totals: convertTotals(totals)}, nil
}
