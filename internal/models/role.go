package models

import "gorm.io/gorm"

// Role groups permissions. A role may inherit the permissions of a parent
// role transitively. System roles cannot be edited or deleted.
type Role struct {
	Base
	Name        string `gorm:"size:100;not null" json:"name"`
	Slug        string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	IsActive bool `gorm:"default:true" json:"isActive"`
	IsSystem bool `gorm:"default:false" json:"isSystem"`

	ParentID *string `gorm:"type:varchar(36)" json:"parentId"`
	Parent   *Role   `json:"parent,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Permissions []Permission `gorm:"many2many:role_permissions" json:"permissions,omitempty"`
}

// Permission is uniquely identified by (resource, action) and exposed as the
// dotted slug "resource.action".
type Permission struct {
	Base
	Resource    string `gorm:"size:50;not null;uniqueIndex:idx_permission_resource_action" json:"resource"`
	Action      string `gorm:"size:50;not null;uniqueIndex:idx_permission_resource_action" json:"action"`
	Slug        string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}
