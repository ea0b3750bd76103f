package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jelajah-lab/backend/internal/domain/ledger"
	"github.com/jelajah-lab/backend/internal/domain/notification"
	"github.com/jelajah-lab/backend/internal/domain/notification/event"
	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/dbutil"
	"github.com/jelajah-lab/backend/pkg/enum"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type RewardDomain interface {
	Create(context.Context, *model.CreateRewardDefinitionRequest) (*model.CreateRewardDefinitionResponse, error)
	GetList(context.Context, *model.GetRewardDefinitionsRequest) (*model.GetRewardDefinitionsResponse, error)
	GrantManual(context.Context, *model.GrantManualRewardRequest) (*model.GrantManualRewardResponse, error)
}

type rewardDomain struct {
	rewardDefinitionRepo repository.RewardDefinitionRepository
	triggerFactory       trigger.Factory
	ledger               ledger.Ledger
	emitter              notification.Emitter
}

func NewRewardDomain(
	rewardDefinitionRepo repository.RewardDefinitionRepository,
	triggerFactory trigger.Factory,
	ledger ledger.Ledger,
	emitter notification.Emitter,
) *rewardDomain {
	return &rewardDomain{
		rewardDefinitionRepo: rewardDefinitionRepo,
		triggerFactory:       triggerFactory,
		ledger:               ledger,
		emitter:              emitter,
	}
}

func (d *rewardDomain) Create(
	ctx context.Context, req *model.CreateRewardDefinitionRequest,
) (*model.CreateRewardDefinitionResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Require a name")
	}

	t, err := d.triggerFactory.LoadTrigger(ctx, req.TriggerType, req.TriggerData, true)
	if err != nil {
		return nil, err
	}

	// The amounts are fixed per trigger type, they never come from the
	// request.
	xp, ep := t.Award(xcontext.Configs(ctx).Reward)
	definition := &entity.RewardDefinition{
		Base:        entity.Base{ID: uuid.NewString()},
		Name:        req.Name,
		Description: req.Description,
		TriggerType: t.Type(),
		TriggerData: trigger.Data(t),
		XP:          xp,
		EP:          ep,
		Badge:       req.Badge,
		Title:       req.Title,
		IsActive:    true,
	}

	if err := d.rewardDefinitionRepo.Create(ctx, definition); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create reward definition: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateRewardDefinitionResponse{ID: definition.ID}, nil
}

func (d *rewardDomain) GetList(
	ctx context.Context, req *model.GetRewardDefinitionsRequest,
) (*model.GetRewardDefinitionsResponse, error) {
	filter := repository.RewardDefinitionFilter{OnlyActive: true}
	if req.TriggerType != "" {
		triggerType, err := enum.ToEnum[entity.RewardTriggerType](req.TriggerType)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Invalid trigger type: %v", err)
			return nil, errorx.New(errorx.BadRequest, "Invalid trigger type %s", req.TriggerType)
		}

		filter.TriggerTypes = []entity.RewardTriggerType{triggerType}
	}

	definitions, err := d.rewardDefinitionRepo.GetList(ctx, filter)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reward definitions: %v", err)
		return nil, errorx.Unknown
	}

	clientDefinitions := []model.RewardDefinition{}
	for _, def := range definitions {
		clientDefinitions = append(clientDefinitions, convertRewardDefinition(&def))
	}

	return &model.GetRewardDefinitionsResponse{RewardDefinitions: clientDefinitions}, nil
}

func (d *rewardDomain) GrantManual(
	ctx context.Context, req *model.GrantManualRewardRequest,
) (*model.GrantManualRewardResponse, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require user_id")
	}

	definition, err := d.rewardDefinitionRepo.GetByID(ctx, req.RewardDefinitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found reward definition")
		}

		xcontext.Logger(ctx).Errorf("Cannot get reward definition: %v", err)
		return nil, errorx.Unknown
	}

	if definition.TriggerType != entity.ManualTrigger {
		return nil, errorx.New(errorx.BadRequest, "Only manual rewards can be granted by an admin")
	}

	if !definition.IsActive {
		return nil, errorx.New(errorx.BadRequest, "The reward definition is inactive")
	}

	var result *ledger.GrantResult
	err = dbutil.Transaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = d.ledger.Grant(ctx, trigger.Candidate{
			UserID:     req.UserID,
			RewardKey:  definition.ID,
			Definition: definition,
			XP:         definition.XP,
			EP:         definition.EP,
		})
		return err
	})
	if err != nil {
		return nil, toClientError(ctx, err, "Cannot grant manual reward")
	}

	reward := ConvertUserReward(&result.Reward, definition)
	if !result.AlreadyGranted {
		d.ledger.InvalidateTotals(ctx, req.UserID)
		d.emitter.Emit(ctx, req.UserID, &event.RewardGrantedEvent{UserReward: reward})
	}

	return &model.GrantManualRewardResponse{
		AlreadyGranted: result.AlreadyGranted,
		Reward:         reward,
	}, nil
}
