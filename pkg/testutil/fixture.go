package testutil

import (
	"context"
	"fmt"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

const (
	User1 = "user1"
	User2 = "user2"
	Admin = "admin1"

	UnknownAttractionID = "attraction-unknown"
	UnknownTaskID       = "task-unknown"
)

var (
	CategoryHeritage = entity.Category{Base: entity.Base{ID: "category-heritage"}, Name: "Heritage"}
	CategoryCulinary = entity.Category{Base: entity.Base{ID: "category-culinary"}, Name: "Culinary"}

	AttractionKotaLama = entity.Attraction{
		Base:       entity.Base{ID: "attraction-kota-lama"},
		Name:       "Kota Lama",
		CategoryID: CategoryHeritage.ID,
	}
	AttractionLawangSewu = entity.Attraction{
		Base:       entity.Base{ID: "attraction-lawang-sewu"},
		Name:       "Lawang Sewu",
		CategoryID: CategoryHeritage.ID,
	}
	AttractionPasarSemawis = entity.Attraction{
		Base:       entity.Base{ID: "attraction-pasar-semawis"},
		Name:       "Pasar Semawis",
		CategoryID: CategoryCulinary.ID,
	}

	KotaLamaTasks     = newTasks("kota-lama-task", AttractionKotaLama.ID, 5)
	LawangSewuTasks   = newTasks("lawang-sewu-task", AttractionLawangSewu.ID, 2)
	PasarSemawisTasks = newTasks("pasar-semawis-task", AttractionPasarSemawis.ID, 5)

	// RewardFirstStep is granted on the first task of Kota Lama.
	RewardFirstStep = entity.RewardDefinition{
		Base:        entity.Base{ID: "reward-first-step"},
		Name:        "First Step",
		TriggerType: entity.TaskCompletionTrigger,
		TriggerData: entity.Map{"task_id": KotaLamaTasks[0].ID},
		XP:          50,
		IsActive:    true,
	}

	RewardKotaLama = entity.RewardDefinition{
		Base:        entity.Base{ID: "reward-kota-lama"},
		Name:        "Kota Lama Explorer",
		TriggerType: entity.AttractionCompletionTrigger,
		TriggerData: entity.Map{"attraction_id": AttractionKotaLama.ID},
		XP:          200,
		EP:          100,
		Badge:       "kota-lama-explorer",
		IsActive:    true,
	}

	RewardLawangSewuSet = entity.RewardDefinition{
		Base:        entity.Base{ID: "reward-lawang-sewu-set"},
		Name:        "A Thousand Doors",
		TriggerType: entity.TaskSetCompletionTrigger,
		TriggerData: entity.Map{"task_ids": []any{LawangSewuTasks[0].ID, LawangSewuTasks[1].ID}},
		XP:          100,
		IsActive:    true,
	}

	RewardHeritageGold = entity.RewardDefinition{
		Base:        entity.Base{ID: "reward-heritage-gold"},
		Name:        "Heritage Master",
		TriggerType: entity.CategoryMilestoneTrigger,
		TriggerData: entity.Map{"category_id": CategoryHeritage.ID, "tier": string(entity.Gold)},
		EP:          200,
		Title:       "Heritage Master",
		IsActive:    true,
	}

	RewardAmbassador = entity.RewardDefinition{
		Base:        entity.Base{ID: "reward-ambassador"},
		Name:        "Ambassador",
		TriggerType: entity.ManualTrigger,
		TriggerData: entity.Map{},
		Badge:       "ambassador",
		IsActive:    true,
	}

	RewardRetired = entity.RewardDefinition{
		Base:        entity.Base{ID: "reward-retired"},
		Name:        "Retired",
		TriggerType: entity.AttractionCompletionTrigger,
		TriggerData: entity.Map{"attraction_id": AttractionKotaLama.ID},
		XP:          200,
		EP:          100,
		IsActive:    false,
	}
)

func newTasks(prefix, attractionID string, n int) []entity.Task {
	tasks := make([]entity.Task, 0, n)
	for i := 1; i <= n; i++ {
		tasks = append(tasks, entity.Task{
			Base:         entity.Base{ID: fmt.Sprintf("%s-%d", prefix, i)},
			Title:        fmt.Sprintf("%s #%d", prefix, i),
			AttractionID: attractionID,
		})
	}

	return tasks
}

// CreateFixtureDb inserts the reference catalog and the reward definitions
// into the database of ctx.
func CreateFixtureDb(ctx context.Context) {
	InsertCatalog(ctx)
	InsertRewardDefinitions(ctx)
}

func InsertCatalog(ctx context.Context) {
	db := xcontext.DB(ctx)
	for _, c := range []entity.Category{CategoryHeritage, CategoryCulinary} {
		c := c
		if err := db.Create(&c).Error; err != nil {
			panic(err)
		}
	}

	for _, a := range []entity.Attraction{AttractionKotaLama, AttractionLawangSewu, AttractionPasarSemawis} {
		a := a
		if err := db.Create(&a).Error; err != nil {
			panic(err)
		}
	}

	for _, tasks := range [][]entity.Task{KotaLamaTasks, LawangSewuTasks, PasarSemawisTasks} {
		for _, t := range tasks {
			t := t
			if err := db.Create(&t).Error; err != nil {
				panic(err)
			}
		}
	}
}

func InsertRewardDefinitions(ctx context.Context) {
	for _, r := range []entity.RewardDefinition{
		RewardFirstStep,
		RewardKotaLama,
		RewardLawangSewuSet,
		RewardHeritageGold,
		RewardAmbassador,
		RewardRetired,
	} {
		r := r
		if err := xcontext.DB(ctx).Create(&r).Error; err != nil {
			panic(err)
		}
	}
}

// InsertTaskCompletions simulates completions imported without going through
// the engine, the progress rows are not touched.
func InsertTaskCompletions(ctx context.Context, userID string, tasks ...entity.Task) {
	for _, t := range tasks {
		err := xcontext.DB(ctx).Create(&entity.TaskCompletion{
			UserID:       userID,
			TaskID:       t.ID,
			AttractionID: t.AttractionID,
		}).Error
		if err != nil {
			panic(err)
		}
	}
}
