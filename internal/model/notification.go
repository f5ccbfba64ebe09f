package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is a message about a request transition addressed to a worker.
type Notification struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientWorkerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_worker_id"`
	Recipient         *Worker    `gorm:"foreignKey:RecipientWorkerID" json:"recipient,omitempty"`
	RequestID         *uuid.UUID `gorm:"type:uuid;index" json:"request_id"`
	Message           string     `gorm:"type:text;not null" json:"message"`
	Read              bool       `gorm:"column:is_read;not null;default:false;index" json:"read"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	CreatedAt         time.Time  `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
