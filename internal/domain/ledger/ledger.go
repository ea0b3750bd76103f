package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jelajah-lab/backend/internal/domain/trigger"
	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/internal/repository"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/jelajah-lab/backend/pkg/xredis"
	"gorm.io/gorm"
)

type GrantResult struct {
	// AlreadyGranted is true when the reward key had been granted to the user
	// before, nothing is written in this case and Reward is the stored row.
	AlreadyGranted bool
	Reward         entity.UserReward

	// Definition is nil for built-in tier rewards.
	Definition *entity.RewardDefinition
}

type Ledger interface {
	// Grant must be called inside a transaction.
	Grant(ctx context.Context, candidate trigger.Candidate) (*GrantResult, error)

	// GrantAll grants the candidates in order and returns the ones which were
	// not granted before.
	GrantAll(ctx context.Context, candidates []trigger.Candidate) ([]GrantResult, error)

	Totals(ctx context.Context, userID string) (repository.Totals, error)
	InvalidateTotals(ctx context.Context, userIDs ...string)
}

type ledger struct {
	userRewardRepo repository.UserRewardRepository
	xpEPLedgerRepo repository.XPEPLedgerRepository
	redisClient    xredis.Client
}

// NewLedger returns a ledger. The totals are not cached if redisClient is nil.
func NewLedger(
	userRewardRepo repository.UserRewardRepository,
	xpEPLedgerRepo repository.XPEPLedgerRepository,
	redisClient xredis.Client,
) Ledger {
	return &ledger{
		userRewardRepo: userRewardRepo,
		xpEPLedgerRepo: xpEPLedgerRepo,
		redisClient:    redisClient,
	}
}

func (l *ledger) Grant(ctx context.Context, candidate trigger.Candidate) (*GrantResult, error) {
	now := time.Now()
	reward := entity.UserReward{
		UserID:     candidate.UserID,
		RewardKey:  candidate.RewardKey,
		CategoryID: nullString(candidate.CategoryID),
		Tier:       nullString(string(candidate.Tier)),
		XP:         candidate.XP,
		EP:         candidate.EP,
		GrantedAt:  now,
	}
	if candidate.Definition != nil {
		reward.RewardDefinitionID = nullString(candidate.Definition.ID)
	}

	inserted, err := l.userRewardRepo.CreateIfNotExists(ctx, &reward)
	if err != nil {
		return nil, fmt.Errorf("cannot create user reward: %w", err)
	}

	if !inserted {
		existing, err := l.userRewardRepo.Get(ctx, candidate.UserID, candidate.RewardKey)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Committed after the snapshot of this transaction, the retry sees it.
			return nil, fmt.Errorf("granted user reward %s is not visible: %w", candidate.RewardKey, gorm.ErrDuplicatedKey)
		}

		if err != nil {
			return nil, fmt.Errorf("cannot get granted user reward: %w", err)
		}

		return &GrantResult{AlreadyGranted: true, Reward: *existing, Definition: candidate.Definition}, nil
	}

	err = l.xpEPLedgerRepo.Create(ctx, &entity.XPEPLedger{
		ID:              xcontext.SnowFlake(ctx).Generate().Int64(),
		UserID:          candidate.UserID,
		SourceRewardKey: candidate.RewardKey,
		XPDelta:         candidate.XP,
		EPDelta:         candidate.EP,
		GrantedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot append ledger entry: %w", err)
	}

	return &GrantResult{Reward: reward, Definition: candidate.Definition}, nil
}

func (l *ledger) GrantAll(ctx context.Context, candidates []trigger.Candidate) ([]GrantResult, error) {
	var granted []GrantResult
	for _, c := range candidates {
		result, err := l.Grant(ctx, c)
		if err != nil {
			return nil, err
		}

		if !result.AlreadyGranted {
			granted = append(granted, *result)
		}
	}

	return granted, nil
}

// Totals are cached under a key carrying the version of the user totals.
// InvalidateTotals bumps the version, so a reader which summed the ledger
// before the grant was committed can only fill a key nobody reads anymore.
func (l *ledger) Totals(ctx context.Context, userID string) (repository.Totals, error) {
	cacheKey := ""
	if l.redisClient != nil {
		version, err := l.redisClient.Get(ctx, TotalsVersionKey(userID))
		switch {
		case errors.Is(err, xredis.ErrNotFound):
			version = "0"
		case err != nil:
			xcontext.Logger(ctx).Warnf("Cannot get totals version from redis: %v", err)
		}

		if err == nil || errors.Is(err, xredis.ErrNotFound) {
			cacheKey = TotalsKey(userID, version)

			var totals repository.Totals
			err := l.redisClient.GetObj(ctx, cacheKey, &totals)
			if err == nil {
				return totals, nil
			}

			if !errors.Is(err, xredis.ErrNotFound) {
				xcontext.Logger(ctx).Warnf("Cannot get totals from redis: %v", err)
			}
		}
	}

	totals, err := l.xpEPLedgerRepo.SumByUserID(ctx, userID)
	if err != nil {
		return repository.Totals{}, fmt.Errorf("cannot sum ledger: %w", err)
	}

	if cacheKey != "" {
		ttl := xcontext.Configs(ctx).Redis.TotalTTL
		if err := l.redisClient.SetObj(ctx, cacheKey, totals, ttl); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot set totals to redis: %v", err)
		}
	}

	return totals, nil
}

// InvalidateTotals must be called after the transaction granting rewards is
// committed.
func (l *ledger) InvalidateTotals(ctx context.Context, userIDs ...string) {
	if l.redisClient == nil {
		return
	}

	for _, id := range userIDs {
		if _, err := l.redisClient.Incr(ctx, TotalsVersionKey(id)); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot bump totals version of %s: %v", id, err)
		}
	}
}

func TotalsKey(userID, version string) string {
	return fmt.Sprintf("user_totals:%s:%s", userID, version)
}

func TotalsVersionKey(userID string) string {
	return fmt.Sprintf("user_totals_version:%s", userID)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
