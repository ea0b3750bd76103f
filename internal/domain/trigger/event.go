package trigger

import (
	"fmt"

	"github.com/jelajah-lab/backend/internal/entity"
)

// Event is one of TaskCompleted, AttractionCompleted or TierCrossed.
type Event interface {
	UserID() string
	isEvent()
}

type TaskCompleted struct {
	User       string
	Task       string
	Attraction string
}

func (e TaskCompleted) UserID() string { return e.User }
func (TaskCompleted) isEvent()         {}

type AttractionCompleted struct {
	User       string
	Attraction string
}

func (e AttractionCompleted) UserID() string { return e.User }
func (AttractionCompleted) isEvent()         {}

type TierCrossed struct {
	User     string
	Category string
	Tier     entity.Tier
}

func (e TierCrossed) UserID() string { return e.User }
func (TierCrossed) isEvent()         {}

// Candidate is a reward the user qualifies for. Whether it is actually granted
// is decided by the ledger.
type Candidate struct {
	UserID     string
	RewardKey  string
	Definition *entity.RewardDefinition
	CategoryID string
	Tier       entity.Tier
	XP         int
	EP         int
}

// TierRewardKey is the reward key of a crossed tier which isn't covered by any
// category milestone definition.
func TierRewardKey(categoryID string, tier entity.Tier) string {
	return fmt.Sprintf("tier:%s:%s", categoryID, tier)
}
