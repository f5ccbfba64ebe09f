package workflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Subject is a worker a request is about.
type Subject struct {
	WorkerID uuid.UUID
	Name     string
}

// Details carries the kind-specific payload used by eligibility checks and
// notification wording. Dates are civil dates stored at UTC midnight.
type Details struct {
	StartDate   time.Time
	EndDate     time.Time
	Destination string
	Amount      decimal.Decimal
}

// Decision is one approver's verdict. Decisions are append-only.
type Decision struct {
	Role      Role
	Approved  bool
	Comment   string
	Timestamp time.Time
	ActorID   uuid.UUID
}

// Request is the engine's view of a leave, mission or advance request.
type Request struct {
	ID          uuid.UUID
	Kind        Kind
	Status      Status
	Subjects    []Subject
	RequestDate time.Time
	Details     Details
	Decisions   []Decision
}

// Actor is the authenticated staff member deciding a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
	Name string
}

// Notification is a message addressed to one subject worker.
type Notification struct {
	RecipientWorkerID uuid.UUID
	Message           string
}

// Outcome is the result of applying a decision.
type Outcome struct {
	NewStatus     Status
	IsFinal       bool
	Decision      Decision
	Notifications []Notification
}
