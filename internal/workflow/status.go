// Package workflow implements the multi-stage approval state machine shared by
// leave, mission and salary-advance requests. It performs no I/O: callers load
// a Request, ask the Engine for an Outcome and persist it themselves.
package workflow

// Kind identifies the type of an HR request.
type Kind string

const (
	KindLeave   Kind = "LEAVE"
	KindMission Kind = "MISSION"
	KindAdvance Kind = "ADVANCE"
)

// IsValid reports whether k is a known request kind.
func (k Kind) IsValid() bool {
	_, ok := stages[k]
	return ok
}

// Status is the approval state of a request.
type Status string

const (
	StatusPendingHR     Status = "PENDING_HR"
	StatusPendingAdmin  Status = "PENDING_ADMIN"
	StatusAccepted      Status = "ACCEPTED"
	StatusRejectedHR    Status = "REJECTED_HR"
	StatusRejectedAdmin Status = "REJECTED_ADMIN"
)

// PendingStatuses lists every non-terminal status.
var PendingStatuses = []Status{StatusPendingHR, StatusPendingAdmin}

// AllStatuses lists every status in display order.
var AllStatuses = []Status{
	StatusPendingHR,
	StatusPendingAdmin,
	StatusAccepted,
	StatusRejectedHR,
	StatusRejectedAdmin,
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further decision can be applied.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejectedHR, StatusRejectedAdmin:
		return true
	}
	return false
}

// IsPending is the complement of IsTerminal for valid statuses.
func (s Status) IsPending() bool {
	return s == StatusPendingHR || s == StatusPendingAdmin
}

// stages holds the ordered approver roles for each kind.
var stages = map[Kind][]Role{
	KindLeave:   {RoleHR, RoleAdmin},
	KindMission: {RoleHR, RoleAdmin},
	KindAdvance: {RoleAdmin},
}

// Stages returns the ordered approver roles for kind, or nil for an unknown kind.
func Stages(kind Kind) []Role {
	s := stages[kind]
	if s == nil {
		return nil
	}
	out := make([]Role, len(s))
	copy(out, s)
	return out
}

// InitialStatus is the status a freshly created request of kind starts in.
func InitialStatus(kind Kind) Status {
	s := stages[kind]
	if len(s) == 0 {
		return ""
	}
	return pendingStatusFor(s[0])
}

// LegalNextStatuses returns the statuses a request of kind may move to from
// current. Terminal or foreign statuses yield nil.
func LegalNextStatuses(current Status, kind Kind) []Status {
	role, ok := stageRole(current)
	if !ok {
		return nil
	}
	idx := stageIndex(kind, role)
	if idx < 0 {
		return nil
	}
	return []Status{advanceFrom(kind, idx), rejectedStatusFor(role)}
}

// CanTransition reports whether moving from one status to another is legal for kind.
func CanTransition(from, to Status, kind Kind) bool {
	for _, next := range LegalNextStatuses(from, kind) {
		if next == to {
			return true
		}
	}
	return false
}

func stageIndex(kind Kind, role Role) int {
	for i, r := range stages[kind] {
		if r == role {
			return i
		}
	}
	return -1
}

// advanceFrom is the status reached by approving at stage idx.
func advanceFrom(kind Kind, idx int) Status {
	s := stages[kind]
	if idx == len(s)-1 {
		return StatusAccepted
	}
	return pendingStatusFor(s[idx+1])
}

func isLastStage(kind Kind, role Role) bool {
	s := stages[kind]
	return len(s) > 0 && s[len(s)-1] == role
}

func stageRole(status Status) (Role, bool) {
	switch status {
	case StatusPendingHR:
		return RoleHR, true
	case StatusPendingAdmin:
		return RoleAdmin, true
	}
	return "", false
}

func pendingStatusFor(role Role) Status {
	if role == RoleHR {
		return StatusPendingHR
	}
	return StatusPendingAdmin
}

func rejectedStatusFor(role Role) Status {
	if role == RoleHR {
		return StatusRejectedHR
	}
	return StatusRejectedAdmin
}
