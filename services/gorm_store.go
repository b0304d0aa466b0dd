// services/gorm_store.go
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormCollection persists one mirrored model through gorm. Attachments go to
// object storage first; the row then records the resulting URL and hash.
// Every statement and upload is bounded by Timeout.
type GormCollection[T any] struct {
	DB      *gorm.DB
	Storage ObjectStorage
	Timeout time.Duration
	name    string
}

func NewGormCollection[T any](db *gorm.DB, storage ObjectStorage, name string) *GormCollection[T] {
	return &GormCollection[T]{DB: db, Storage: storage, Timeout: DefaultCallTimeout, name: name}
}

// WithTimeout sets the per-call timeout and returns the collection.
func (c *GormCollection[T]) WithTimeout(d time.Duration) *GormCollection[T] {
	c.Timeout = d
	return c
}

func (c *GormCollection[T]) Name() string { return c.name }

func (c *GormCollection[T]) List(ctx context.Context) ([]*T, error) {
	ctx, cancel := callContext(ctx, c.Timeout)
	defer cancel()
	var out []*T
	if err := c.DB.WithContext(ctx).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c.name, err)
	}
	return out, nil
}

func (c *GormCollection[T]) Create(ctx context.Context, rec *T, files ...File) error {
	attachFiles(ctx, c.Storage, c.Timeout, c.name, rec, files)
	ctx, cancel := callContext(ctx, c.Timeout)
	defer cancel()
	if err := c.DB.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create %s record: %w", c.name, err)
	}
	return nil
}

func (c *GormCollection[T]) Update(ctx context.Context, rec *T, files ...File) error {
	attachFiles(ctx, c.Storage, c.Timeout, c.name, rec, files)
	ctx, cancel := callContext(ctx, c.Timeout)
	defer cancel()
	if err := c.DB.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to update %s record: %w", c.name, err)
	}
	return nil
}

func (c *GormCollection[T]) Delete(ctx context.Context, id string) error {
	ctx, cancel := callContext(ctx, c.Timeout)
	defer cancel()
	res := c.DB.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("failed to delete %s record %s: %w", c.name, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s record %s not found", c.name, id)
	}
	return nil
}
