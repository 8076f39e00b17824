package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the buyer entity. Authentication lives in the external auth
// service; the core only needs the identity and the stock limit.
// StockLimit caps the stocks a user may hold in a single project (the same
// ceiling applies independently per project, not once across all projects).
type User struct {
	UserID     uuid.UUID      `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Fullname   string         `gorm:"column:fullname;not null" json:"fullname"`
	Email      string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	StockLimit int            `gorm:"column:stock_limit;not null;default:0" json:"stock_limit"`
	CreatedAt  time.Time      `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"column:updatedAt" json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "Users"
}

// BeforeCreate sets UUID if not set (for DBs without gen_random_uuid).
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	return nil
}
