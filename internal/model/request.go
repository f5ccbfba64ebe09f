package model

import (
	"time"

	"hrbackend/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Leave types
const (
	LeaveTypeAnnual    = "ANNUAL"
	LeaveTypeSick      = "SICK"
	LeaveTypeMaternity = "MATERNITY"
	LeaveTypePaternity = "PATERNITY"
	LeaveTypeSpecial   = "SPECIAL"
)

// LeaveTypes lists the accepted leave types in display order.
var LeaveTypes = []string{LeaveTypeAnnual, LeaveTypeSick, LeaveTypeMaternity, LeaveTypePaternity, LeaveTypeSpecial}

// Request stores leave, mission and salary-advance requests in one table.
// Kind-specific columns are left empty for the other kinds.
type Request struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Kind        workflow.Kind   `gorm:"type:varchar(20);not null;index" json:"kind"`
	Status      workflow.Status `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestDate time.Time       `gorm:"not null;index" json:"request_date"`
	RequestedBy *uuid.UUID      `gorm:"type:uuid;index" json:"requested_by"`
	Requester   *User           `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	Workers     []Worker        `gorm:"many2many:request_workers;" json:"workers"`

	// Leave and mission
	StartDate *time.Time `gorm:"type:date" json:"start_date,omitempty"`
	EndDate   *time.Time `gorm:"type:date" json:"end_date,omitempty"`

	// Leave
	LeaveType     string `gorm:"type:varchar(20);index" json:"leave_type,omitempty"`
	Reason        string `gorm:"type:text" json:"reason,omitempty"`
	AttachmentKey string `gorm:"type:varchar(255)" json:"-"`

	// Mission
	Destination string `gorm:"type:varchar(255)" json:"destination,omitempty"`

	// Advance
	RequestedAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"requested_amount"`
	GrantedAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"granted_amount"`

	Decisions []Decision `gorm:"foreignKey:RequestID" json:"decisions"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (r *Request) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Decision is one approver verdict on a request. Rows are never updated.
type Decision struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID     `gorm:"type:uuid;not null;index" json:"request_id"`
	Role      workflow.Role `gorm:"type:varchar(20);not null" json:"role"`
	Approved  bool          `gorm:"not null" json:"approved"`
	Comment   string        `gorm:"type:text" json:"comment"`
	ActorID   uuid.UUID     `gorm:"type:uuid;not null;index" json:"actor_id"`
	Actor     *User         `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
}

func (d *Decision) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
