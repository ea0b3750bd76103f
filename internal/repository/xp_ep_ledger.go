package repository

import (
	"context"

	"github.com/jelajah-lab/backend/internal/entity"
	"github.com/jelajah-lab/backend/pkg/xcontext"
)

type Totals struct {
	XP int `json:"xp"`
	EP int `json:"ep"`
}

type XPEPLedgerRepository interface {
	// Create appends an entry. Entries are never updated nor deleted.
	Create(ctx context.Context, e *entity.XPEPLedger) error
	GetByUserID(ctx context.Context, userID string) ([]entity.XPEPLedger, error)
	SumByUserID(ctx context.Context, userID string) (Totals, error)
}

type xpEPLedgerRepository struct{}

func NewXPEPLedgerRepository() XPEPLedgerRepository {
	return &xpEPLedgerRepository{}
}

func (r *xpEPLedgerRepository) Create(ctx context.Context, e *entity.XPEPLedger) error {
	return xcontext.DB(ctx).Create(e).Error
}

func (r *xpEPLedgerRepository) GetByUserID(ctx context.Context, userID string) ([]entity.XPEPLedger, error) {
	var result []entity.XPEPLedger
	if err := xcontext.DB(ctx).Where("user_id=?", userID).Order("id ASC").Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *xpEPLedgerRepository) SumByUserID(ctx context.Context, userID string) (Totals, error) {
	var result Totals
	err := xcontext.DB(ctx).
		Model(&entity.XPEPLedger{}).
		Select("COALESCE(SUM(xp_delta), 0) AS xp, COALESCE(SUM(ep_delta), 0) AS ep").
		Where("user_id=?", userID).
		Scan(&result).Error
	if err != nil {
		return Totals{}, err
	}

	return result, nil
}
