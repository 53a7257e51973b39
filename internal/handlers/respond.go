package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/fredserel/Sistema-kanban/internal/settings"
	"github.com/fredserel/Sistema-kanban/internal/workflow"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	engine      *workflow.Engine
	appSettings *settings.Cache
)

// Configure wires the shared collaborators. Called once by the router.
func Configure(e *workflow.Engine, s *settings.Cache) {
	engine = e
	appSettings = s
}

// fail writes the structured error envelope.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"statusCode": status, "message": message})
}

func failDetails(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, gin.H{"statusCode": status, "message": message, "details": details})
}

// handleError maps engine and persistence errors onto HTTP statuses.
func handleError(c *gin.Context, err error) {
	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		fail(c, wfErr.HTTPStatus(), wfErr.Message)
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, http.StatusNotFound, "not found")
		return
	}
	log.Printf("internal error: %v", err)
	fail(c, http.StatusInternalServerError, "internal server error")
}
