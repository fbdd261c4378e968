// Package orderrepo implements the OrderStore port on PostgreSQL via GORM,
// mapping between the order aggregate and its persisted row.
package orderrepo

import (
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/order"
)

// OrderDTO is the persisted shape of the pipeline's slice of an order record.
// The raw inbound snapshot is kept as jsonb so dispatch payloads can be
// rebuilt during startup restore.
type OrderDTO struct {
	ID              string `gorm:"primaryKey"`
	Type            string `gorm:"index"`
	Status          int    `gorm:"index"`
	Raw             []byte `gorm:"type:jsonb"`
	DeliveryTime    *time.Time
	Sent            bool   `gorm:"index"`
	DispatchID      string `gorm:"index"`
	TrackingURL     string
	StatusChangedAt time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName overrides GORM's default naming to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(ord *order.Order) OrderDTO {
	return OrderDTO{
		ID:              ord.ID(),
		Type:            ord.Type(),
		Status:          int(ord.Status()),
		Raw:             ord.Raw(),
		DeliveryTime:    ord.DeliveryTime(),
		Sent:            ord.Sent(),
		DispatchID:      ord.DispatchID(),
		TrackingURL:     ord.TrackingURL(),
		StatusChangedAt: ord.StatusChangedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	return order.RestoreOrder(
		dto.ID,
		dto.Type,
		order.Status(dto.Status),
		json.RawMessage(dto.Raw),
		dto.DeliveryTime,
		dto.Sent,
		dto.DispatchID,
		dto.TrackingURL,
		dto.StatusChangedAt,
	)
}
