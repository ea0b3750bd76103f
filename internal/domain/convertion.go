package domain

import (
	"time"

	"github.com/jelajah-lab/backend/internal/domain/tier"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/model"
	"github.com/jelajah-lab/backend/internal/repository"
)

const defaultTimeLayout string = time.RFC3339Nano

func convertAttractionProgress(p *entity.AttractionProgress, a *entity.Attraction) model.AttractionProgress {
	result := model.AttractionProgress{
		AttractionID:   p.AttractionID,
		CompletedTasks: p.CompletedTasks,
		TotalTasks:     p.TotalTasks,
		Percentage:     p.Percentage,
		Unlocked:       p.Unlocked,
	}

	if a != nil {
		result.AttractionName = a.Name
		result.CategoryID = a.CategoryID
	}

	if p.CompletedAt.Valid {
		result.CompletedAt = p.CompletedAt.Time.Format(defaultTimeLayout)
	}

	return result
}

func convertCategoryProgress(v *tier.View) model.CategoryProgress {
	return model.CategoryProgress{
		CategoryID:           v.CategoryID,
		CompletionPercentage: v.Percentage,
		AttemptedAttractions: v.AttemptedAttractions,
		BronzeUnlocked:       v.BronzeUnlocked,
		SilverUnlocked:       v.SilverUnlocked,
		GoldUnlocked:         v.GoldUnlocked,
	}
}

func convertRewardDefinition(d *entity.RewardDefinition) model.RewardDefinition {
	return model.RewardDefinition{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		TriggerType: string(d.TriggerType),
		TriggerData: d.TriggerData,
		XP:          d.XP,
		EP:          d.EP,
		Badge:       d.Badge,
		Title:       d.Title,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt.Format(defaultTimeLayout),
	}
}

// ConvertUserReward accepts a nil definition, it is the case of built-in tier
// rewards.
func ConvertUserReward(r *entity.UserReward, d *entity.RewardDefinition) model.UserReward {
	result := model.UserReward{
		RewardKey:          r.RewardKey,
		RewardDefinitionID: r.RewardDefinitionID.String,
		CategoryID:         r.CategoryID.String,
		Tier:               r.Tier.String,
		XP:                 r.XP,
		EP:                 r.EP,
		GrantedAt:          r.GrantedAt.Format(defaultTimeLayout),
	}

	if d != nil {
		result.Name = d.Name
		result.Badge = d.Badge
		result.Title = d.Title
	}

	return result
}

func convertTotals(t repository.Totals) model.Totals {
	return model.Totals{XP: t.XP, EP: t.EP}
}
