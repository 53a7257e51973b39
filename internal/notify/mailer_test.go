package notify

import (
	"context"
	"database/sql"
	"net/smtp"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fredserel/Sistema-kanban/internal/models"
	"github.com/fredserel/Sistema-kanban/internal/settings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

func newTestSettings(t *testing.T) *settings.Cache {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	if err := db.AutoMigrate(&models.Setting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	c := settings.New(db)
	if err := c.Load(); err != nil {
		t.Fatalf("load settings: %v", err)
	}
	return c
}

func TestDeliverWithoutSMTPHostIsPreviewOnly(t *testing.T) {
	m := NewMailer(newTestSettings(t))
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatal("send must not be called when no smtp host is configured")
		return nil
	}

	err := m.NotifyProjectMoved(context.Background(), ProjectMovedEvent{
		ProjectTitle: "Billing revamp",
		FromStage:    "Not Started",
		ToStage:      "Development",
		MovedByName:  "Alice",
		Recipients:   []string{"bob@example.com"},
	})
	if err != nil {
		t.Fatalf("preview mode must not error: %v", err)
	}
}

func TestDeliverUsesConfiguredSMTP(t *testing.T) {
	s := newTestSettings(t)
	if err := s.BulkUpdate([]settings.Update{
		{Key: "smtp_host", Value: "mail.example.com"},
		{Key: "smtp_port", Value: "2525"},
		{Key: "mail_from_email", Value: "noreply@example.com"},
	}); err != nil {
		t.Fatalf("configure smtp: %v", err)
	}

	m := NewMailer(s)
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	err := m.NotifyCommentAdded(context.Background(), CommentAddedEvent{
		ProjectTitle: "Billing revamp",
		AuthorName:   "Alice",
		Content:      "ready for review",
		Recipients:   []string{"bob@example.com", "carol@example.com"},
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if gotAddr != "mail.example.com:2525" {
		t.Fatalf("wrong smtp address: %s", gotAddr)
	}
	if gotFrom != "noreply@example.com" {
		t.Fatalf("wrong from address: %s", gotFrom)
	}
	if len(gotTo) != 2 {
		t.Fatalf("wrong recipient count: %v", gotTo)
	}
	if !strings.Contains(string(gotMsg), "ready for review") {
		t.Fatal("expected the comment content in the message body")
	}
}

func TestDeliverSkipsEmptyRecipients(t *testing.T) {
	s := newTestSettings(t)
	if err := s.BulkUpdate([]settings.Update{{Key: "smtp_host", Value: "mail.example.com"}}); err != nil {
		t.Fatalf("configure smtp: %v", err)
	}

	m := NewMailer(s)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatal("send must not be called without recipients")
		return nil
	}

	if err := m.NotifyMemberAdded(context.Background(), MemberAddedEvent{ProjectTitle: "P"}); err != nil {
		t.Fatalf("empty recipients must be a no-op: %v", err)
	}
}
