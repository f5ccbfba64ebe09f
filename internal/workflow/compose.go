package workflow

import (
	"context"
)

// MessageInput is everything needed to word a transition notification.
type MessageInput struct {
	Kind        Kind
	Approved    bool
	Final       bool
	ActorRole   Role
	ActorName   string
	SubjectName string
	Details     Details
}

// Composer turns a transition into a human-readable message.
type Composer interface {
	Compose(ctx context.Context, in MessageInput) string
}

// Translator resolves a message id to localized text. The locale is read from ctx.
type Translator interface {
	T(ctx context.Context, messageID string, data map[string]any) string
}

// MessageComposer words notifications through a Translator.
type MessageComposer struct {
	tr Translator
}

func NewMessageComposer(tr Translator) *MessageComposer {
	return &MessageComposer{tr: tr}
}

func (c *MessageComposer) Compose(ctx context.Context, in MessageInput) string {
	data := map[string]any{
		"Subject":     in.SubjectName,
		"Actor":       in.ActorName,
		"Role":        c.RoleLabel(ctx, in.ActorRole),
		"Start":       in.Details.StartDate.Format(DateLayout),
		"End":         in.Details.EndDate.Format(DateLayout),
		"Destination": in.Details.Destination,
		"Amount":      in.Details.Amount.StringFixed(2),
	}
	return c.tr.T(ctx, MessageID(in.Kind, in.Approved, in.Final), data)
}

// RoleLabel is the display name of an approver role.
func (c *MessageComposer) RoleLabel(ctx context.Context, role Role) string {
	switch role {
	case RoleHR:
		return c.tr.T(ctx, "RoleHR", nil)
	case RoleAdmin:
		return c.tr.T(ctx, "RoleAdmin", nil)
	}
	return string(role)
}

// MessageID picks the locale message for a transition. A rejection is always final.
func MessageID(kind Kind, approved, final bool) string {
	var prefix string
	switch kind {
	case KindMission:
		prefix = "Mission"
	case KindAdvance:
		prefix = "Advance"
	default:
		prefix = "Leave"
	}
	switch {
	case !approved:
		return prefix + "Rejected"
	case !final:
		return prefix + "Validated"
	default:
		return prefix + "Approved"
	}
}
