// internal/domain/product/repository.go
package product

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository reads variants. Callers pass the handle to read through, so
// the same query runs on the root pool or inside a unit of work.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// VariantsByID loads the given variants keyed by id. Unknown ids are absent.
func (r *Repository) VariantsByID(ctx context.Context, tx *gorm.DB, ids []uint) (map[uint]Variant, error) {
	if tx == nil {
		tx = r.db
	}
	out := make(map[uint]Variant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var variants []Variant
	if err := tx.WithContext(ctx).Where("id IN ?", ids).Find(&variants).Error; err != nil {
		return nil, fmt.Errorf("failed to load variants: %w", err)
	}
	for _, v := range variants {
		out[v.ID] = v
	}
	return out, nil
}
