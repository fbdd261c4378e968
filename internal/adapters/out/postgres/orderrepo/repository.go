package orderrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderStore implements the OrderStore port using GORM.
type GormOrderStore struct {
	db *gorm.DB
}

// NewGormOrderStore creates a new GORM order store.
func NewGormOrderStore(db *gorm.DB) *GormOrderStore {
	return &GormOrderStore{db: db}
}

// GetByID retrieves an order by its identifier.
func (r *GormOrderStore) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var dto OrderDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id)
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAll retrieves up to limit orders, newest first.
func (r *GormOrderStore) GetAll(ctx context.Context, limit int) ([]*order.Order, error) {
	var dtos []OrderDTO
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

// UpdateStatus applies a status observed at observedAt. Last write wins by
// timestamp: the row is only touched when its recorded change moment is not
// newer than this observation. A stale observation is a silent no-op; a
// missing order surfaces as errs.ObjectNotFoundError.
func (r *GormOrderStore) UpdateStatus(ctx context.Context, id string, status order.Status, observedAt time.Time) error {
	if err := status.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND status_changed_at <= ?", id, observedAt).
		Updates(map[string]any{
			"status":            int(status),
			"status_changed_at": observedAt,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", id)
		}
		// Row exists but carries a newer observation; drop this one.
	}

	return nil
}

// MarkSent records a successful dispatch. The sent flag, dispatch id,
// tracking URL and merged audit blob land in one conditional UPDATE guarded
// on sent=false, so the flag can flip at most once; a repeat returns
// errs.ConflictError.
func (r *GormOrderStore) MarkSent(ctx context.Context, id, dispatchID, trackingURL string, raw json.RawMessage) error {
	updates := map[string]any{
		"sent":         true,
		"dispatch_id":  dispatchID,
		"tracking_url": trackingURL,
	}
	if len(raw) > 0 {
		updates["raw"] = []byte(raw)
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", id)
		}
		return errs.NewConflictError("order", id)
	}

	return nil
}

// Upsert inserts or refreshes the pipeline's slice of an order record.
// The sent flag and dispatch outcome are deliberately excluded from the
// conflict update; only MarkSent writes those.
func (r *GormOrderStore) Upsert(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"type", "status", "raw", "delivery_time", "status_changed_at",
		}),
	}).Create(&dto).Error
}
