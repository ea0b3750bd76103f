package event

import "github.com/jelajah-lab/backend/internal/model"

// REWARD GRANTED EVENT
type RewardGrantedEvent struct {
	model.UserReward
}

func (*RewardGrantedEvent) Op() string {
	return "reward_granted"
}

// ATTRACTION COMPLETED EVENT
type AttractionCompletedEvent struct {
	model.AttractionProgress
}

func (*AttractionCompletedEvent) Op() string {
	return "attraction_completed"
}

// TIER UNLOCKED EVENT
type TierUnlockedEvent struct {
	CategoryID           string `json:"category_id"`
	Tier                 string `json:"tier"`
	CompletionPercentage int    `json:"completion_percentage"`
}

func (*TierUnlockedEvent) Op() string {
	return "tier_unlocked"
}
