package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/errorx"
	"gorm.io/gorm"
)

type Result struct {
	Progress   entity.AttractionProgress
	Attraction entity.Attraction

	// NewlyCompletedTask is false when the user had already completed the task
	// before.
	NewlyCompletedTask bool

	// JustCompletedAttraction is only true for the call which moved the
	// attraction to 100%.
	JustCompletedAttraction bool
}

type Aggregator interface {
	// Validate checks the catalog references without writing anything.
	Validate(ctx context.Context, taskID, attractionID string) (*entity.Task, *entity.Attraction, error)

	// RecordTaskCompletion must be called inside a transaction.
	RecordTaskCompletion(ctx context.Context, userID, taskID, attractionID string) (*Result, error)
}

type aggregator struct {
	attractionRepo         repository.AttractionRepository
	taskRepo               repository.TaskRepository
	taskCompletionRepo     repository.TaskCompletionRepository
	attractionProgressRepo repository.AttractionProgressRepository
}

func NewAggregator(
	attractionRepo repository.AttractionRepository,
	taskRepo repository.TaskRepository,
	taskCompletionRepo repository.TaskCompletionRepository,
	attractionProgressRepo repository.AttractionProgressRepository,
) Aggregator {
	return &aggregator{
		attractionRepo:         attractionRepo,
		taskRepo:               taskRepo,
		taskCompletionRepo:     taskCompletionRepo,
		attractionProgressRepo: attractionProgressRepo,
	}
}

func (a *aggregator) Validate(
	ctx context.Context, taskID, attractionID string,
) (*entity.Task, *entity.Attraction, error) {
	attraction, err := a.attractionRepo.GetByID(ctx, attractionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.NotFound, "Not found attraction")
		}

		return nil, nil, fmt.Errorf("cannot get attraction: %w", err)
	}

	task, err := a.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.NotFound, "Not found task")
		}

		return nil, nil, fmt.Errorf("cannot get task: %w", err)
	}

	if task.AttractionID != attraction.ID {
		return nil, nil, errorx.New(errorx.BadRequest, "Task doesn't belong to the attraction")
	}

	return task, attraction, nil
}

func (a *aggregator) RecordTaskCompletion(
	ctx context.Context, userID, taskID, attractionID string,
) (*Result, error) {
	task, attraction, err := a.Validate(ctx, taskID, attractionID)
	if err != nil {
		return nil, err
	}

	newlyCompleted, err := a.taskCompletionRepo.CreateIfNotExists(ctx, &entity.TaskCompletion{
		UserID:       userID,
		TaskID:       task.ID,
		AttractionID: attraction.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot record task completion: %w", err)
	}

	total, err := a.taskRepo.CountByAttractionID(ctx, attraction.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot count tasks of attraction: %w", err)
	}

	err = a.attractionProgressRepo.CreateIfNotExists(ctx, &entity.AttractionProgress{
		UserID:       userID,
		AttractionID: attraction.ID,
		TotalTasks:   int(total),
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create attraction progress: %w", err)
	}

	progress, err := a.attractionProgressRepo.GetForUpdate(ctx, userID, attraction.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot lock attraction progress: %w", err)
	}

	completedTaskIDs, err := a.taskCompletionRepo.GetCompletedTaskIDs(ctx, userID, attraction.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot get completed tasks: %w", err)
	}

	wasUnlocked := progress.Unlocked
	Apply(progress, len(completedTaskIDs), int(total), time.Now())

	if err := a.attractionProgressRepo.Update(ctx, progress); err != nil {
		return nil, fmt.Errorf("cannot update attraction progress: %w", err)
	}

	return &Result{
		Progress:                *progress,
		Attraction:              *attraction,
		NewlyCompletedTask:      newlyCompleted,
		JustCompletedAttraction: !wasUnlocked && progress.Unlocked,
	}, nil
}

// Apply sets the counters of progress, keeping them in bounds. Once unlocked,
// an attraction is never locked again.
func Apply(progress *entity.AttractionProgress, completed, total int, now time.Time) {
	if total < 0 {
		total = 0
	}

	progress.TotalTasks = total
	progress.CompletedTasks = clamp(completed, 0, total)
	progress.Percentage = Percentage(progress.CompletedTasks, total)

	if progress.Percentage == 100 && !progress.Unlocked {
		progress.Unlocked = true
		progress.CompletedAt = sql.NullTime{Time: now, Valid: true}
	}
}

// Percentage returns round(completed/total*100) in [0, 100], except that a
// value rounding up to 100 is capped at 99 while a task is left: 199/200 is 99
// and not 100, so unlocked always means every task is done. An attraction
// without any task is at 0%.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}

	if completed >= total {
		return 100
	}

	p := int(math.Round(float64(completed) * 100 / float64(total)))
	return clamp(p, 0, 99)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
