package handlers

import (
	"net/http"
	"strings"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/models"

	"github.com/gin-gonic/gin"
)

// ListComments returns the project's comments, newest first.
func ListComments(c *gin.Context) {
	projectID := c.Param("id")
	actor := middleware.CurrentActor(c)

	if _, err := engine.AuthorizeView(projectID, actor); err != nil {
		handleError(c, err)
		return
	}

	var comments []models.Comment
	if err := database.DB.
		Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at desc").
		Find(&comments).Error; err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

type addCommentRequest struct {
	Content string `json:"content"`
}

// AddComment appends a comment. Comments are never edited or deleted.
func AddComment(c *gin.Context) {
	projectID := c.Param("id")
	actor := middleware.CurrentActor(c)

	if _, err := engine.AuthorizeView(projectID, actor); err != nil {
		handleError(c, err)
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		fail(c, http.StatusBadRequest, "comment content is required")
		return
	}

	comment := models.Comment{
		ProjectID: projectID,
		UserID:    actor.ID,
		Content:   content,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		handleError(c, err)
		return
	}

	database.DB.Preload("User").First(&comment, "id = ?", comment.ID)
	engine.AnnounceCommentAdded(projectID, actor.ID, content)

	c.JSON(http.StatusCreated, comment)
}
