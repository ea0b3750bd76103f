// Package seed loads the reference catalog and the reward definitions from a
// toml file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/dbutil"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type Catalog struct {
	Categories []Category `toml:"categories"`
	Rewards    []Reward   `toml:"rewards"`
}

type Category struct {
	ID          string       `toml:"id"`
	Name        string       `toml:"name"`
	Attractions []Attraction `toml:"attractions"`
}

type Attraction struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Tasks []Task `toml:"tasks"`
}

type Task struct {
	ID    string `toml:"id"`
	Title string `toml:"title"`
}

type Reward struct {
	ID          string         `toml:"id"`
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	TriggerType string         `toml:"trigger_type"`
	TriggerData map[string]any `toml:"trigger_data"`
	Badge       string         `toml:"badge"`
	Title       string         `toml:"title"`
}

type Stats struct {
	Categories  int
	Attractions int
	Tasks       int
	Rewards     int
}

func Decode(r io.Reader) (*Catalog, error) {
	var catalog Catalog
	if _, err := toml.NewDecoder(r).Decode(&catalog); err != nil {
		return nil, err
	}

	return &catalog, nil
}

type Seeder struct {
	categoryRepo         repository.CategoryRepository
	attractionRepo       repository.AttractionRepository
	taskRepo             repository.TaskRepository
	rewardDefinitionRepo repository.RewardDefinitionRepository
	triggerFactory       trigger.Factory
}

func NewSeeder(
	categoryRepo repository.CategoryRepository,
	attractionRepo repository.AttractionRepository,
	taskRepo repository.TaskRepository,
	rewardDefinitionRepo repository.RewardDefinitionRepository,
	triggerFactory trigger.Factory,
) *Seeder {
	return &Seeder{
		categoryRepo:         categoryRepo,
		attractionRepo:       attractionRepo,
		taskRepo:             taskRepo,
		rewardDefinitionRepo: rewardDefinitionRepo,
		triggerFactory:       triggerFactory,
	}
}

// Seed inserts the rows of the catalog which don't exist yet, existing rows
// are left untouched. Everything is inserted in one transaction.
func (s *Seeder) Seed(ctx context.Context, catalog *Catalog) (Stats, error) {
	var stats Stats
	err := dbutil.Transaction(ctx, func(ctx context.Context) error {
		stats = Stats{}
		for _, c := range catalog.Categories {
			if err := s.seedCategory(ctx, c, &stats); err != nil {
				return err
			}
		}

		for _, r := range catalog.Rewards {
			if err := s.seedReward(ctx, r, &stats); err != nil {
				return err
			}
		}

		return nil
	})

	return stats, err
}

func (s *Seeder) seedCategory(ctx context.Context, c Category, stats *Stats) error {
	_, err := s.categoryRepo.GetByID(ctx, c.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err != nil {
		err := s.categoryRepo.Create(ctx, &entity.Category{Base: entity.Base{ID: c.ID}, Name: c.Name})
		if err != nil {
			return fmt.Errorf("cannot create category %s: %w", c.ID, err)
		}
		stats.Categories++
	}

	for _, a := range c.Attractions {
		if err := s.seedAttraction(ctx, c.ID, a, stats); err != nil {
			return err
		}
	}

	return nil
}

func (s *Seeder) seedAttraction(ctx context.Context, categoryID string, a Attraction, stats *Stats) error {
	_, err := s.attractionRepo.GetByID(ctx, a.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err != nil {
		err := s.attractionRepo.Create(ctx, &entity.Attraction{
			Base:       entity.Base{ID: a.ID},
			Name:       a.Name,
			CategoryID: categoryID,
		})
		if err != nil {
			return fmt.Errorf("cannot create attraction %s: %w", a.ID, err)
		}
		stats.Attractions++
	}

	for _, t := range a.Tasks {
		_, err := s.taskRepo.GetByID(ctx, t.ID)
		if err == nil {
			continue
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = s.taskRepo.Create(ctx, &entity.Task{
			Base:         entity.Base{ID: t.ID},
			Title:        t.Title,
			AttractionID: a.ID,
		})
		if err != nil {
			return fmt.Errorf("cannot create task %s: %w", t.ID, err)
		}
		stats.Tasks++
	}

	return nil
}

func (s *Seeder) seedReward(ctx context.Context, r Reward, stats *Stats) error {
	_, err := s.rewardDefinitionRepo.GetByID(ctx, r.ID)
	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	t, err := s.triggerFactory.LoadTrigger(ctx, r.TriggerType, r.TriggerData, true)
	if err != nil {
		return fmt.Errorf("invalid trigger of reward %s: %w", r.ID, err)
	}

	xp, ep := t.Award(xcontext.Configs(ctx).Reward)
	err = s.rewardDefinitionRepo.Create(ctx, &entity.RewardDefinition{
		Base:        entity.Base{ID: r.ID},
		Name:        r.Name,
		Description: r.Description,
		TriggerType: t.Type(),
		TriggerData: trigger.Data(t),
		XP:          xp,
		EP:          ep,
		Badge:       r.Badge,
		Title:       r.Title,
		IsActive:    true,
	})
	if err != nil {
		return fmt.Errorf("cannot create reward %s: %w", r.ID, err)
	}

	stats.Rewards++
	return nil
}
