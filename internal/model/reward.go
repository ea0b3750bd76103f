package model

type CreateRewardDefinitionRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	TriggerType string         `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data"`
	Badge       string         `json:"badge"`
	Title       string         `json:"title"`
}

type CreateRewardDefinitionResponse struct {
	ID string `json:"id"`
}

type GetRewardDefinitionsRequest struct {
	TriggerType string `json:"trigger_type"`
}

type GetRewardDefinitionsResponse struct {
	RewardDefinitions []RewardDefinition `json:"reward_definitions"`
}

type GrantManualRewardRequest struct {
	UserID             string `json:"user_id"`
	RewardDefinitionID string `json:"reward_definition_id"`
}

type GrantManualRewardResponse struct {
	AlreadyGranted bool       `json:"already_granted"`
	Reward         UserReward `json:"reward"`
}
