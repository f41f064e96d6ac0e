package mysql

import (
	"context"

	"rahnu-backend/internal/domain/goldprice"

	"gorm.io/gorm"
)

type GoldPriceRepository struct{ db *gorm.DB }

func NewGoldPriceRepository(db *gorm.DB) *GoldPriceRepository { return &GoldPriceRepository{db: db} }

func (r *GoldPriceRepository) Create(ctx context.Context, q *goldprice.Quote) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *GoldPriceRepository) GetActive(ctx context.Context, purity string) (*goldprice.Quote, error) {
	var out goldprice.Quote
	res := r.db.WithContext(ctx).
		Where("purity = ? AND active = ?", purity, true).
		Order("effective_at DESC, id DESC").
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, goldprice.ErrNoActivePrice)
	}
	return &out, nil
}

func (r *GoldPriceRepository) DeactivateAll(ctx context.Context, purity string) error {
	return r.db.WithContext(ctx).
		Model(&goldprice.Quote{}).
		Where("purity = ? AND active = ?", purity, true).
		Update("active", false).Error
}

func (r *GoldPriceRepository) ListActive(ctx context.Context) ([]goldprice.Quote, error) {
	var out []goldprice.Quote
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("purity ASC").
		Find(&out).Error
	return out, err
}
