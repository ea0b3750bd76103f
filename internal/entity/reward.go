package entity

import (
	"database/sql"
	"time"

	"github.com/jelajah-lab/backend/pkg/enum"
)

type RewardTriggerType string

var (
	TaskCompletionTrigger       = enum.New(RewardTriggerType("task_completion"))
	TaskSetCompletionTrigger    = enum.New(RewardTriggerType("task_set_completion"))
	AttractionCompletionTrigger = enum.New(RewardTriggerType("attraction_completion"))
	CategoryMilestoneTrigger    = enum.New(RewardTriggerType("category_milestone"))
	ManualTrigger               = enum.New(RewardTriggerType("manual"))
)

type Tier string

var (
	Bronze = enum.New(Tier("bronze"))
	Silver = enum.New(Tier("silver"))
	Gold   = enum.New(Tier("gold"))
)

// Tiers is ordered from the lowest to the highest threshold.
var Tiers = []Tier{Bronze, Silver, Gold}

type RewardDefinition struct {
	Base
	Name        string
	Description string
	TriggerType RewardTriggerType
	TriggerData Map
	XP          int
	EP          int
	Badge       string
	Title       string
	IsActive    bool `gorm:"index"`
}

// UserReward is the idempotency anchor of the ledger, a reward key is granted
// at most once per user.
type UserReward struct {
	UserID             string `gorm:"primaryKey"`
	RewardKey          string `gorm:"primaryKey"`
	RewardDefinitionID sql.NullString
	CategoryID         sql.NullString
	Tier               sql.NullString
	XP                 int
	EP                 int
	GrantedAt          time.Time
}

// UserRewardNotification records that a granted reward has been shown to the
// user. It lives beside UserReward so the grant rows are never updated.
type UserRewardNotification struct {
	UserID     string `gorm:"primaryKey"`
	RewardKey  string `gorm:"primaryKey"`
	NotifiedAt time.Time
}

// XPEPLedger is append-only.
type XPEPLedger struct {
	ID              int64  `gorm:"primaryKey;autoIncrement:false"`
	UserID          string `gorm:"index"`
	SourceRewardKey string
	XPDelta         int
	EPDelta         int
	GrantedAt       time.Time
}

func (XPEPLedger) TableName() string {
	return "xp_ep_ledger"
}
