package handlers

import (
	"net/http"
	"strconv"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/models"

	"github.com/gin-gonic/gin"
)

// ListAuditLogs returns the newest audit entries, optionally filtered by
// entity and entity id. Capped at 200 rows per request.
func ListAuditLogs(c *gin.Context) {
	dbq := database.DB.Preload("User").Order("created_at desc")

	if entity := c.Query("entity"); entity != "" {
		dbq = dbq.Where("entity = ?", entity)
	}
	if entityID := c.Query("entityId"); entityID != "" {
		dbq = dbq.Where("entity_id = ?", entityID)
	}
	if userID := c.Query("userId"); userID != "" {
		dbq = dbq.Where("user_id = ?", userID)
	}

	limit := 200
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	var logs []models.AuditLog
	if err := dbq.Limit(limit).Find(&logs).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
