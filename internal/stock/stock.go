// Package stock owns every change to goods.stock_count after a good is
// created. Callers lock the rows with LockGoods and then call Apply inside
// the same transaction.
package stock

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
	"github.com/cmakhmud/smoking-shop/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Movement describes why a delta is applied.
type Movement struct {
	Reason      models.MovementReason
	ReferenceID *uint
	UserID      *uint
}

// LockGoods loads the goods with SELECT ... FOR UPDATE in ascending id
// order so concurrent operations on overlapping goods cannot deadlock.
func LockGoods(tx *gorm.DB, ids []uint) (map[uint]*models.Good, error) {
	uniq := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	var goods []models.Good
	if len(uniq) > 0 {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", uniq).
			Order("id").
			Find(&goods).Error
		if err != nil {
			return nil, apperr.Internal(fmt.Errorf("lock goods: %w", err))
		}
	}

	out := make(map[uint]*models.Good, len(goods))
	for i := range goods {
		out[goods[i].ID] = &goods[i]
	}
	for _, id := range uniq {
		if _, ok := out[id]; !ok {
			return nil, apperr.NotFound(apperr.MsgGoodNotFound, map[string]any{"ID": id})
		}
	}
	return out, nil
}

// LockGood is LockGoods for a single row.
func LockGood(tx *gorm.DB, id uint) (*models.Good, error) {
	goods, err := LockGoods(tx, []uint{id})
	if err != nil {
		return nil, err
	}
	return goods[id], nil
}

// Apply adds delta to the good's stock and appends a ledger row. The good
// must have been locked by the caller. A result below zero is rejected and
// nothing is written.
func Apply(tx *gorm.DB, good *models.Good, delta int, m Movement) error {
	if delta == 0 {
		return nil
	}
	before := good.StockCount
	after := before + delta
	if after < 0 {
		return apperr.Conflict(apperr.MsgInsufficientStock, map[string]any{
			"Name":      good.Name,
			"Available": before,
		})
	}

	res := tx.Model(&models.Good{}).
		Where("id = ?", good.ID).
		Update("stock_count", after)
	if res.Error != nil {
		return apperr.Internal(fmt.Errorf("update stock of good %d: %w", good.ID, res.Error))
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.MsgGoodNotFound, map[string]any{"ID": good.ID})
	}

	mv := models.StockMovement{
		ShopID:      good.ShopID,
		GoodID:      good.ID,
		Reason:      m.Reason,
		Delta:       delta,
		StockBefore: before,
		StockAfter:  after,
		ReferenceID: m.ReferenceID,
		UserID:      m.UserID,
	}
	if err := tx.Create(&mv).Error; err != nil {
		return apperr.Internal(fmt.Errorf("record stock movement: %w", err))
	}

	good.StockCount = after
	return nil
}

// IsInsufficient reports whether err is a stock shortfall.
func IsInsufficient(err error) bool {
	var e *apperr.Error
	return errors.As(err, &e) && e.MessageID == apperr.MsgInsufficientStock
}

// Movements lists the ledger of one good, newest first.
func Movements(db *gorm.DB, goodID uint, limit int) ([]models.StockMovement, error) {
	var out []models.StockMovement
	q := db.Where("good_id = ?", goodID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
