package database

import "github.com/fredserel/Sistema-kanban/internal/models"

// CreateAuditLog appends an audit record. Best effort: audit writes never
// fail the operation that triggered them.
func CreateAuditLog(userID, entity, entityID, action, details string) {
	if DB == nil {
		return
	}
	record := models.AuditLog{
		UserID:   userID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Details:  details,
	}
	_ = DB.Create(&record).Error
}
