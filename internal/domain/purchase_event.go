package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseEvent is the outbox row for a committed purchase. It is inserted
// in the same transaction as the Holding, so it exists if and only if the
// purchase committed. DispatchedAt is stamped once the event has been handed
// to the notification queue; rows with a NULL stamp are re-published by the
// dispatcher (at-least-once).
type PurchaseEvent struct {
	EventID      uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	ProjectID    uuid.UUID      `gorm:"column:project_id;type:uuid;not null" json:"project_id"`
	Stocks       int            `gorm:"column:stocks;not null" json:"stocks"`
	TotalPayment float64        `gorm:"column:total_payment;type:decimal(18,2);not null" json:"total_payment"`
	TotalProfit  float64        `gorm:"column:total_profit;type:decimal(18,2);not null" json:"total_profit"`
	TotalReturn  float64        `gorm:"column:total_return;type:decimal(18,2);not null" json:"total_return"`
	Payload      datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	DispatchedAt *time.Time     `gorm:"column:dispatched_at;index" json:"dispatched_at"`
	CreatedAt    time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
}

func (PurchaseEvent) TableName() string {
	return "PurchaseEvents"
}

func (e *PurchaseEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
