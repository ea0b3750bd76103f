package model

type CompleteTaskRequest struct {
	TaskID       string `json:"task_id"`
	AttractionID string `json:"attraction_id"`
}

type CompleteTaskResponse struct {
	AttractionProgress      AttractionProgress `json:"attraction_progress"`
	JustCompletedAttraction bool               `json:"just_completed_attraction"`
	CategoryProgress        CategoryProgress   `json:"category_progress"`
	CrossedTiers            []string           `json:"crossed_tiers"`
	NewRewards              []UserReward       `json:"new_rewards"`
}
