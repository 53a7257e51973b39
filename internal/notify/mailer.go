package notify

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/fredserel/Sistema-kanban/internal/settings"
)

// Mailer sends notifications over SMTP using the mutable configuration from
// the settings cache. When no SMTP host is configured it logs a preview
// instead of sending, which keeps local setups working without a mail server.
type Mailer struct {
	settings *settings.Cache

	// send is swappable in tests
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(s *settings.Cache) *Mailer {
	return &Mailer{settings: s, send: smtp.SendMail}
}

func (m *Mailer) NotifyProjectMoved(ctx context.Context, ev ProjectMovedEvent) error {
	subject := fmt.Sprintf("[%s] %s moved to %s", m.appName(), ev.ProjectTitle, ev.ToStage)
	body := fmt.Sprintf("%s moved project %q from %s to %s.\n\n%s",
		ev.MovedByName, ev.ProjectTitle, ev.FromStage, ev.ToStage, m.footer())
	return m.deliver(ctx, ev.Recipients, subject, body)
}

func (m *Mailer) NotifyMemberAdded(ctx context.Context, ev MemberAddedEvent) error {
	subject := fmt.Sprintf("[%s] %s joined %s", m.appName(), ev.AddedUserName, ev.ProjectTitle)
	body := fmt.Sprintf("%s added %s to project %q.\n\n%s",
		ev.AddedByName, ev.AddedUserName, ev.ProjectTitle, m.footer())
	return m.deliver(ctx, ev.Recipients, subject, body)
}

func (m *Mailer) NotifyCommentAdded(ctx context.Context, ev CommentAddedEvent) error {
	subject := fmt.Sprintf("[%s] new comment on %s", m.appName(), ev.ProjectTitle)
	body := fmt.Sprintf("%s commented on project %q:\n\n%s\n\n%s",
		ev.AuthorName, ev.ProjectTitle, ev.Content, m.footer())
	return m.deliver(ctx, ev.Recipients, subject, body)
}

func (m *Mailer) appName() string {
	return m.settings.Get("app_name", "Kanban")
}

func (m *Mailer) footer() string {
	return "Open the board: " + m.settings.Get("app_url", "http://localhost:3000")
}

func (m *Mailer) deliver(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}

	host := m.settings.Get("smtp_host", "")
	if host == "" {
		log.Printf("[mail preview] to=%s subject=%q", strings.Join(to, ","), subject)
		return nil
	}

	port := m.settings.Get("smtp_port", "587")
	from := m.settings.Get("mail_from_email", "noreply@kanban.local")

	var auth smtp.Auth
	if user := m.settings.Get("smtp_username", ""); user != "" {
		auth = smtp.PlainAuth("", user, m.settings.Get("smtp_password", ""), host)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		from, strings.Join(to, ", "), subject, body))

	if err := m.send(host+":"+port, auth, from, to, msg); err != nil {
		log.Printf("failed to send email to %s: %v", strings.Join(to, ","), err)
		return err
	}

	log.Printf("email sent to %s: %s", strings.Join(to, ","), subject)
	return nil
}
