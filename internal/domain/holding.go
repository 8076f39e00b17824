package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Holding is one purchase of N stocks in one project by one user. Rows are
// append-only: created exactly once per committed purchase, never deleted.
// BonusPercentageApplied is snapshotted at purchase time and stays fixed even
// if the project's code is later rotated. The settlement flags are set by the
// external settlement process, never here.
type Holding struct {
	HoldingID              uuid.UUID `gorm:"column:holding_id;type:uuid;primaryKey" json:"holding_id"`
	UserID                 uuid.UUID `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	ProjectID              uuid.UUID `gorm:"column:project_id;type:uuid;not null;index" json:"project_id"`
	StocksPurchased        int       `gorm:"column:stocks_purchased;not null" json:"stocks_purchased"`
	PurchaseDate           time.Time `gorm:"column:purchase_date;not null" json:"purchase_date"`
	BonusPercentageApplied float64   `gorm:"column:bonus_percentage_applied;type:decimal(5,2);not null;default:0" json:"bonus_percentage_applied"`
	CapitalSettled         bool      `gorm:"column:capital_settled;not null;default:false" json:"capital_settled"`
	ProfitSettled          bool      `gorm:"column:profit_settled;not null;default:false" json:"profit_settled"`
	CreatedAt              time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt              time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Holding) TableName() string {
	return "Holdings"
}

// BeforeCreate: never insert zero UUID for primary key; generate random when not set.
func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.HoldingID == uuid.Nil {
		h.HoldingID = uuid.New()
	}
	return nil
}
