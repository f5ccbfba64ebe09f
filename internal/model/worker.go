package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	WorkerStatusActive   = "ACTIVE"
	WorkerStatusInactive = "INACTIVE"
)

// Worker is an employee record. Workers are the subjects of HR requests; they
// do not log in.
type Worker struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string          `gorm:"type:varchar(255);not null;index" json:"name"`
	CIN            string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"cin"` // national identity card number
	Department     string          `gorm:"type:varchar(100)" json:"department"`
	Position       string          `gorm:"type:varchar(100)" json:"position"`
	Phone          string          `gorm:"type:varchar(20)" json:"phone"`
	Email          string          `gorm:"type:varchar(255)" json:"email"`
	Salary         decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"salary"`
	Gender         string          `gorm:"type:varchar(10)" json:"gender"`
	DateOfBirth    *time.Time      `gorm:"type:date" json:"date_of_birth"`
	Address        string          `gorm:"type:text" json:"address"`
	Status         string          `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	PhotoKey       string          `gorm:"type:varchar(255)" json:"photo_key,omitempty"`
	TotalLeaveDays int             `gorm:"not null" json:"total_leave_days"`
	UsedLeaveDays  int             `gorm:"not null" json:"used_leave_days"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (w *Worker) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// RemainingLeaveDays is the unused part of the annual allowance.
func (w *Worker) RemainingLeaveDays() int {
	return w.TotalLeaveDays - w.UsedLeaveDays
}
