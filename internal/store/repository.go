package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tumbuhin/farmforecast/internal/realtime"
)

// Repository is the typed data access for one collection. Every successful
// write is followed by a change event on the publisher.
type Repository[T Keyed] struct {
	db         *gorm.DB
	pub        realtime.Publisher
	collection Collection
}

func NewRepository[T Keyed](db *gorm.DB, pub realtime.Publisher, collection Collection) *Repository[T] {
	return &Repository[T]{db: db, pub: pub, collection: collection}
}

func (r *Repository[T]) Collection() Collection {
	return r.collection
}

// List returns every row, newest first.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	var rows []T
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.collection, err)
	}
	return rows, nil
}

func (r *Repository[T]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	var row T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", r.collection, err)
	}
	return &row, nil
}

func (r *Repository[T]) Insert(ctx context.Context, row *T) error {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert %s: %w", r.collection, err)
	}
	r.publish(ctx, realtime.EventInsert, *row)
	return nil
}

// InsertBatch writes rows in one statement. Change events follow in slice order.
func (r *Repository[T]) InsertBatch(ctx context.Context, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert batch %s: %w", r.collection, err)
	}
	for _, row := range rows {
		r.publish(ctx, realtime.EventInsert, row)
	}
	return nil
}

// Update applies fields to the row with the given id and returns the stored row.
func (r *Repository[T]) Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*T, error) {
	var zero T
	result := r.db.WithContext(ctx).Model(&zero).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return nil, fmt.Errorf("update %s: %w", r.collection, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	row, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, realtime.EventUpdate, *row)
	return row, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) error {
	row, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	var zero T
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&zero).Error; err != nil {
		return fmt.Errorf("delete %s: %w", r.collection, err)
	}
	r.publish(ctx, realtime.EventDelete, *row)
	return nil
}

// DeleteAll empties the collection and emits one DELETE per removed row.
func (r *Repository[T]) DeleteAll(ctx context.Context) error {
	var removed []T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Find(&removed).Error; err != nil {
			return err
		}
		var zero T
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&zero).Error
	})
	if err != nil {
		return fmt.Errorf("delete all %s: %w", r.collection, err)
	}
	for _, row := range removed {
		r.publish(ctx, realtime.EventDelete, row)
	}
	return nil
}

func (r *Repository[T]) publish(ctx context.Context, t realtime.EventType, row T) {
	if r.pub == nil {
		return
	}
	change, err := realtime.NewChange(string(r.collection), t, row)
	if err == nil {
		err = r.pub.Publish(ctx, change)
	}
	if err != nil {
		slog.Error("failed to publish change",
			"collection", string(r.collection),
			"type", string(t),
			"id", row.RowID().String(),
			"error", err,
		)
	}
}
