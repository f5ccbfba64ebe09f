package service

import (
	"hrbackend/internal/model"
	"hrbackend/internal/workflow"

	"github.com/shopspring/decimal"
)

type WorkerSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	CIN  string `json:"cin"`
}

type DecisionResponse struct {
	Role      string `json:"role"`
	Approved  bool   `json:"approved"`
	Comment   string `json:"comment"`
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	CreatedAt string `json:"created_at"`
}

// RequestResponse is the API view of a leave, mission or advance request.
type RequestResponse struct {
	ID              string             `json:"id"`
	Kind            string             `json:"kind"`
	Status          string             `json:"status"`
	RequestDate     string             `json:"request_date"`
	RequestedBy     *string            `json:"requested_by"`
	RequesterName   string             `json:"requester_name"`
	Workers         []WorkerSummary    `json:"workers"`
	StartDate       string             `json:"start_date,omitempty"`
	EndDate         string             `json:"end_date,omitempty"`
	Days            int                `json:"days,omitempty"`
	LeaveType       string             `json:"leave_type,omitempty"`
	Reason          string             `json:"reason,omitempty"`
	HasAttachment   bool               `json:"has_attachment"`
	Destination     string             `json:"destination,omitempty"`
	RequestedAmount *decimal.Decimal   `json:"requested_amount,omitempty"`
	GrantedAmount   *decimal.Decimal   `json:"granted_amount,omitempty"`
	Decisions       []DecisionResponse `json:"decisions"`
}

func toRequestResponse(r *model.Request) RequestResponse {
	res := RequestResponse{
		ID:            r.ID.String(),
		Kind:          string(r.Kind),
		Status:        string(r.Status),
		RequestDate:   r.RequestDate.Format("2006-01-02 15:04:05"),
		LeaveType:     r.LeaveType,
		Reason:        r.Reason,
		HasAttachment: r.AttachmentKey != "",
		Destination:   r.Destination,
		Workers:       make([]WorkerSummary, 0, len(r.Workers)),
		Decisions:     make([]DecisionResponse, 0, len(r.Decisions)),
	}

	if r.RequestedBy != nil {
		s := r.RequestedBy.String()
		res.RequestedBy = &s
	}
	if r.Requester != nil {
		res.RequesterName = r.Requester.Name
	}
	if r.StartDate != nil && r.EndDate != nil {
		res.StartDate = r.StartDate.Format(workflow.DateLayout)
		res.EndDate = r.EndDate.Format(workflow.DateLayout)
		res.Days = workflow.LeaveDays(*r.StartDate, *r.EndDate)
	}
	if r.Kind == workflow.KindAdvance {
		requested, granted := r.RequestedAmount, r.GrantedAmount
		res.RequestedAmount = &requested
		res.GrantedAmount = &granted
	}

	for _, w := range r.Workers {
		res.Workers = append(res.Workers, WorkerSummary{ID: w.ID.String(), Name: w.Name, CIN: w.CIN})
	}
	for _, d := range r.Decisions {
		dr := DecisionResponse{
			Role:      string(d.Role),
			Approved:  d.Approved,
			Comment:   d.Comment,
			ActorID:   d.ActorID.String(),
			CreatedAt: d.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if d.Actor != nil {
			dr.ActorName = d.Actor.Name
		}
		res.Decisions = append(res.Decisions, dr)
	}
	return res
}

// toWorkflowRequest builds the engine's view of a stored request.
func toWorkflowRequest(r *model.Request) workflow.Request {
	req := workflow.Request{
		ID:          r.ID,
		Kind:        r.Kind,
		Status:      r.Status,
		RequestDate: r.RequestDate,
		Details: workflow.Details{
			Destination: r.Destination,
			Amount:      r.RequestedAmount,
		},
	}
	if r.StartDate != nil {
		req.Details.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		req.Details.EndDate = *r.EndDate
	}
	for _, w := range r.Workers {
		req.Subjects = append(req.Subjects, workflow.Subject{WorkerID: w.ID, Name: w.Name})
	}
	for _, d := range r.Decisions {
		req.Decisions = append(req.Decisions, workflow.Decision{
			Role:      d.Role,
			Approved:  d.Approved,
			Comment:   d.Comment,
			Timestamp: d.CreatedAt,
			ActorID:   d.ActorID,
		})
	}
	return req
}
