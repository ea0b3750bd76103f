package tier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jelajah-lab/backend/config"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type View struct {
	UserID               string
	CategoryID           string
	Percentage           int
	AttemptedAttractions int
	BronzeUnlocked       bool
	SilverUnlocked       bool
	GoldUnlocked         bool
}

type Result struct {
	View View

	// Crossed holds the tiers crossed by this recomputation, ascending.
	Crossed []entity.Tier
}

type Detector interface {
	// Lock creates the category progress of the user if needed and locks it
	// until the current transaction ends. Every transaction touching the
	// attraction progresses of a category takes this lock first.
	Lock(ctx context.Context, userID, categoryID string) (*entity.CategoryProgress, error)

	// Recompute must be called inside a transaction.
	Recompute(ctx context.Context, userID, categoryID string) (*Result, error)

	// View computes the current state without writing anything.
	View(ctx context.Context, userID, categoryID string) (*View, error)
}

type detector struct {
	attractionProgressRepo repository.AttractionProgressRepository
	categoryProgressRepo   repository.CategoryProgressRepository
}

func NewDetector(
	attractionProgressRepo repository.AttractionProgressRepository,
	categoryProgressRepo repository.CategoryProgressRepository,
) Detector {
	return &detector{
		attractionProgressRepo: attractionProgressRepo,
		categoryProgressRepo:   categoryProgressRepo,
	}
}

func (d *detector) Lock(ctx context.Context, userID, categoryID string) (*entity.CategoryProgress, error) {
	err := d.categoryProgressRepo.CreateIfNotExists(ctx, &entity.CategoryProgress{
		UserID:     userID,
		CategoryID: categoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create category progress: %w", err)
	}

	progress, err := d.categoryProgressRepo.GetForUpdate(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("cannot lock category progress: %w", err)
	}

	return progress, nil
}

func (d *detector) Recompute(ctx context.Context, userID, categoryID string) (*Result, error) {
	progress, err := d.Lock(ctx, userID, categoryID)
	if err != nil {
		return nil, err
	}

	attractions, err := d.attractionProgressRepo.GetByCategoryIDForShare(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("cannot get attraction progresses: %w", err)
	}

	percentage := Mean(attractions)
	crossed := Crossed(xcontext.Configs(ctx).Tier, *progress, percentage)
	if len(crossed) > 0 {
		for _, t := range crossed {
			SetFlag(progress, t)
		}

		if err := d.categoryProgressRepo.UpdateFlags(ctx, progress); err != nil {
			return nil, fmt.Errorf("cannot update category progress: %w", err)
		}
	}

	return &Result{
		View:    newView(userID, categoryID, percentage, len(attractions), *progress),
		Crossed: crossed,
	}, nil
}

func (d *detector) View(ctx context.Context, userID, categoryID string) (*View, error) {
	attractions, err := d.attractionProgressRepo.GetByCategoryID(ctx, userID, categoryID)
	if err != nil {
		return nil, fmt.Errorf("cannot get attraction progresses: %w", err)
	}

	progress, err := d.categoryProgressRepo.Get(ctx, userID, categoryID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cannot get category progress: %w", err)
		}

		progress = &entity.CategoryProgress{UserID: userID, CategoryID: categoryID}
	}

	view := newView(userID, categoryID, Mean(attractions), len(attractions), *progress)
	return &view, nil
}

func newView(userID, categoryID string, percentage, attempted int, p entity.CategoryProgress) View {
	return View{
		UserID:               userID,
		CategoryID:           categoryID,
		Percentage:           percentage,
		AttemptedAttractions: attempted,
		BronzeUnlocked:       p.BronzeUnlocked,
		SilverUnlocked:       p.SilverUnlocked,
		GoldUnlocked:         p.GoldUnlocked,
	}
}

// Mean returns the rounded arithmetic mean of the percentages of the attempted
// attractions, capped at 99 unless every attempted attraction is at 100. Gold
// therefore needs every attempted attraction completed.
func Mean(attractions []entity.AttractionProgress) int {
	if len(attractions) == 0 {
		return 0
	}

	sum := 0
	allCompleted := true
	for _, a := range attractions {
		sum += a.Percentage
		if a.Percentage < 100 {
			allCompleted = false
		}
	}

	if allCompleted {
		return 100
	}

	mean := int(math.Round(float64(sum) / float64(len(attractions))))
	if mean > 99 {
		mean = 99
	}

	if mean < 0 {
		mean = 0
	}

	return mean
}

func Threshold(cfg config.TierConfigs, t entity.Tier) int {
	switch t {
	case entity.Bronze:
		return cfg.Bronze
	case entity.Silver:
		return cfg.Silver
	case entity.Gold:
		return cfg.Gold
	}

	return math.MaxInt
}

func Flag(p entity.CategoryProgress, t entity.Tier) bool {
	switch t {
	case entity.Bronze:
		return p.BronzeUnlocked
	case entity.Silver:
		return p.SilverUnlocked
	case entity.Gold:
		return p.GoldUnlocked
	}

	return false
}

func SetFlag(p *entity.CategoryProgress, t entity.Tier) {
	switch t {
	case entity.Bronze:
		p.BronzeUnlocked = true
	case entity.Silver:
		p.SilverUnlocked = true
	case entity.Gold:
		p.GoldUnlocked = true
	}
}

// Crossed returns, in ascending order, every tier whose threshold is reached by
// percentage and whose flag is not set yet. A jump over several thresholds
// returns all of them.
func Crossed(cfg config.TierConfigs, p entity.CategoryProgress, percentage int) []entity.Tier {
	var result []entity.Tier
	for _, t := range entity.Tiers {
		if percentage >= Threshold(cfg, t) && !Flag(p, t) {
			result = append(result, t)
		}
	}

	return result
}
