package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a fixed-supply agricultural project whose stocks are sold to
// users. TotalStocks is fixed at creation; AvailableStocks only changes
// through committed purchases (or admin supply adjustments) and satisfies
// available_stocks = total_stocks - sum(committed holdings) at all times.
type Project struct {
	ProjectID           uuid.UUID      `gorm:"column:project_id;type:uuid;primaryKey" json:"project_id"`
	Name                string         `gorm:"column:name;not null" json:"name"`
	Location            string         `gorm:"column:location" json:"location"`
	TotalStocks         int            `gorm:"column:total_stocks;not null" json:"total_stocks"`
	AvailableStocks     int            `gorm:"column:available_stocks;not null;default:0" json:"available_stocks"`
	StockPrice          float64        `gorm:"column:stock_price;type:decimal(18,2);not null" json:"stock_price"`
	StockProfitPerUnit  float64        `gorm:"column:stock_profit_per_unit;type:decimal(18,2);not null" json:"stock_profit_per_unit"`
	StartDate           time.Time      `gorm:"column:start_date" json:"start_date"`
	EndDate             time.Time      `gorm:"column:end_date" json:"end_date"`
	InvestmentCloseDate time.Time      `gorm:"column:investment_close_date;not null" json:"investment_close_date"`
	ProfitCollectDate   time.Time      `gorm:"column:profit_collect_date;not null" json:"profit_collect_date"`
	BonusCode           *string        `gorm:"column:bonus_code" json:"bonus_code"`
	BonusPercentage     *float64       `gorm:"column:bonus_percentage;type:decimal(5,2)" json:"bonus_percentage"`
	CreatedAt           time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt           time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string {
	return "Projects"
}

// BeforeCreate sets project_id for DBs without default uuid.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ProjectID == uuid.Nil {
		p.ProjectID = uuid.New()
	}
	return nil
}
