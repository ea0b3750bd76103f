package model

type AccessToken struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

type AttractionProgress struct {
	AttractionID   string `json:"attraction_id"`
	AttractionName string `json:"attraction_name"`
	CategoryID     string `json:"category_id"`
	CompletedTasks int    `json:"completed_tasks"`
	TotalTasks     int    `json:"total_tasks"`
	Percentage     int    `json:"percentage"`
	Unlocked       bool   `json:"unlocked"`
	CompletedAt    string `json:"completed_at"`
}

type CategoryProgress struct {
	CategoryID           string `json:"category_id"`
	CompletionPercentage int    `json:"completion_percentage"`
	AttemptedAttractions int    `json:"attempted_attractions"`
	BronzeUnlocked       bool   `json:"bronze_unlocked"`
	SilverUnlocked       bool   `json:"silver_unlocked"`
	GoldUnlocked         bool   `json:"gold_unlocked"`
}

type RewardDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	TriggerType string         `json:"trigger_type"`
	TriggerData map[string]any `json:"trigger_data"`
	XP          int            `json:"xp"`
	EP          int            `json:"ep"`
	Badge       string         `json:"badge"`
	Title       string         `json:"title"`
	IsActive    bool           `json:"is_active"`
	CreatedAt   string         `json:"created_at"`
}

type UserReward struct {
	RewardKey          string `json:"reward_key"`
	RewardDefinitionID string `json:"reward_definition_id"`
	Name               string `json:"name"`
	Badge              string `json:"badge"`
	Title              string `json:"title"`
	CategoryID         string `json:"category_id"`
	Tier               string `json:"tier"`
	XP                 int    `json:"xp"`
	EP                 int    `json:"ep"`
	WasNotified        bool   `json:"was_notified"`
	GrantedAt          string `json:"granted_at"`
}

type Totals struct {
	XP int `json:"xp"`
	EP int `json:"ep"`
}
