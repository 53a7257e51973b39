package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Project moves through the fixed stage lifecycle. CurrentStage is a
// denormalized pointer into StageOrder: it names the stage whose ledger entry
// is IN_PROGRESS, or the terminal stage once everything is completed.
type Project struct {
	Base
	Title       string   `gorm:"size:200;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description"`
	Priority    Priority `gorm:"type:varchar(20);not null" json:"priority"`

	CurrentStage StageName `gorm:"type:varchar(30);not null;index" json:"currentStage"`

	OwnerID string `gorm:"type:varchar(36);not null;index" json:"ownerId"`
	Owner   *User  `json:"owner,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Stages   []ProjectStage  `gorm:"constraint:OnDelete:CASCADE" json:"stages,omitempty"`
	Members  []ProjectMember `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
	Comments []Comment       `gorm:"constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// ProjectMember is team membership, distinct from ownership.
type ProjectMember struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProjectID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_member" json:"projectId"`
	UserID     string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_member" json:"userId"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assignedAt"`

	User *User `json:"user,omitempty"`
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Comment is append-only; no update or delete is exposed.
type Comment struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ProjectID string    `gorm:"type:varchar(36);not null;index" json:"projectId"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `json:"user,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
