// Package notify dispatches best-effort email notifications for project
// events. Senders are fire-and-forget collaborators: a delivery failure is
// logged and never surfaces to the mutating operation that triggered it.
package notify

import "context"

// ProjectMovedEvent announces a stage transition to the project team.
type ProjectMovedEvent struct {
	ProjectTitle string
	FromStage    string
	ToStage      string
	MovedByName  string
	Recipients   []string
}

// MemberAddedEvent announces a new team member.
type MemberAddedEvent struct {
	ProjectTitle  string
	AddedUserName string
	AddedByName   string
	Recipients    []string
}

// CommentAddedEvent announces a new comment.
type CommentAddedEvent struct {
	ProjectTitle string
	AuthorName   string
	Content      string
	Recipients   []string
}

// Service is the notification surface exposed to the workflow engine and the
// project handlers.
type Service interface {
	NotifyProjectMoved(ctx context.Context, ev ProjectMovedEvent) error
	NotifyMemberAdded(ctx context.Context, ev MemberAddedEvent) error
	NotifyCommentAdded(ctx context.Context, ev CommentAddedEvent) error
}

// Noop discards every notification. Used in tests and wherever mail is
// irrelevant.
type Noop struct{}

func (Noop) NotifyProjectMoved(context.Context, ProjectMovedEvent) error { return nil }
func (Noop) NotifyMemberAdded(context.Context, MemberAddedEvent) error   { return nil }
func (Noop) NotifyCommentAdded(context.Context, CommentAddedEvent) error { return nil }
