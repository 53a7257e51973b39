package handlers

import (
	"net/http"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/settings"

	"github.com/gin-gonic/gin"
)

// ListSettings returns every setting; encrypted values come back masked.
func ListSettings(c *gin.Context) {
	all, err := appSettings.All()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

type updateSettingsRequest struct {
	Settings []settings.Update `json:"settings"`
}

// UpdateSettings bulk-writes settings and refreshes the in-memory cache.
// Masked encrypted values are ignored so clients can echo back what they read.
func UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Settings) == 0 {
		fail(c, http.StatusBadRequest, "no settings provided")
		return
	}

	if err := appSettings.BulkUpdate(req.Settings); err != nil {
		handleError(c, err)
		return
	}

	actor := middleware.CurrentActor(c)
	database.CreateAuditLog(actor.ID, "setting", "", "update", "updated application settings")

	all, err := appSettings.All()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}
