package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/linkdeck/linkdeck/internal/domain/links"
	"github.com/linkdeck/linkdeck/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLinkRepository implements links.LinkRepository using GORM
type GormLinkRepository struct {
	db *gorm.DB
}

// NewGormLinkRepository creates a new GORM-based link repository
func NewGormLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// FindByKey returns the link with the given key
func (r *GormLinkRepository) FindByKey(ctx context.Context, key string) (*links.Link, error) {
	var link links.Link
	err := r.db.WithContext(ctx).First(&link, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link by key: %w", err)
	}
	return &link, nil
}

// FindAll returns all links in creation order
func (r *GormLinkRepository) FindAll(ctx context.Context) ([]*links.Link, error) {
	var result []*links.Link
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return result, nil
}

// Save inserts or updates a link, keyed on the link key
func (r *GormLinkRepository) Save(ctx context.Context, link *links.Link) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			UpdateAll: true,
		}).
		Create(link).Error
	if err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}
	return nil
}

// Delete removes the link with the given key
func (r *GormLinkRepository) Delete(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).Delete(&links.Link{}, "key = ?", key)
	if result.Error != nil {
		return fmt.Errorf("failed to delete link: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByKey checks whether a link with the given key exists
func (r *GormLinkRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&links.Link{}).
		Where("key = ?", key).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check link existence: %w", err)
	}
	return count > 0, nil
}

// Count returns the number of stored links
func (r *GormLinkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&links.Link{}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

var _ links.LinkRepository = (*GormLinkRepository)(nil)
