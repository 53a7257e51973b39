package models

import "time"

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	UserID string `gorm:"type:varchar(36);index" json:"userId"`
	User   *User  `json:"user,omitempty"`

	Entity   string `gorm:"size:50;not null" json:"entity"` // "project", "stage", "role" etc.
	EntityID string `gorm:"type:varchar(36);index" json:"entityId"`
	Action   string `gorm:"size:50;not null" json:"action"` // "create", "move_stage" etc.
	Details  string `gorm:"type:text" json:"details"`
}
