// Package merchantrepo implements the MerchantDirectory port on PostgreSQL.
// Merchant rows are maintained by the merchant admin surface; the pipeline
// only reads them.
package merchantrepo

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/merchant"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// MerchantDTO is the persisted merchant profile.
type MerchantDTO struct {
	ID      string `gorm:"primaryKey"`
	Name    string
	Address string
	Phone   string
}

// TableName overrides GORM's default naming to use "merchants".
func (MerchantDTO) TableName() string {
	return "merchants"
}

// GormMerchantDirectory implements the MerchantDirectory port using GORM.
type GormMerchantDirectory struct {
	db *gorm.DB
}

// NewGormMerchantDirectory creates a new GORM merchant directory.
func NewGormMerchantDirectory(db *gorm.DB) *GormMerchantDirectory {
	return &GormMerchantDirectory{db: db}
}

// Lookup returns the merchant profile for a store id.
func (r *GormMerchantDirectory) Lookup(ctx context.Context, storeID string) (*merchant.Merchant, error) {
	var dto MerchantDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("merchant", storeID)
		}
		return nil, err
	}

	return &merchant.Merchant{
		ID:      dto.ID,
		Name:    dto.Name,
		Address: dto.Address,
		Phone:   dto.Phone,
	}, nil
}
