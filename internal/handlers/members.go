package handlers

import (
	"net/http"

	"github.com/fredserel/Sistema-kanban/internal/database"
	"github.com/fredserel/Sistema-kanban/internal/middleware"
	"github.com/fredserel/Sistema-kanban/internal/models"

	"github.com/gin-gonic/gin"
)

type addMemberRequest struct {
	UserID string `json:"userId"`
}

// AddMember puts a user on the project team and notifies the team.
func AddMember(c *gin.Context) {
	projectID := c.Param("id")
	actor := middleware.CurrentActor(c)

	if _, err := engine.AuthorizeManage(projectID, actor); err != nil {
		handleError(c, err)
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		fail(c, http.StatusBadRequest, "userId is required")
		return
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		fail(c, http.StatusNotFound, "user not found")
		return
	}

	var count int64
	database.DB.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, req.UserID).
		Count(&count)
	if count > 0 {
		fail(c, http.StatusConflict, "user is already a member of this project")
		return
	}

	member := models.ProjectMember{ProjectID: projectID, UserID: req.UserID}
	if err := database.DB.Create(&member).Error; err != nil {
		handleError(c, err)
		return
	}
	member.User = &user

	database.CreateAuditLog(actor.ID, "project", projectID, "add_member", "added member: "+user.Email)
	engine.AnnounceMemberAdded(projectID, req.UserID, actor.ID)

	c.JSON(http.StatusCreated, member)
}

// RemoveMember takes a user off the project team.
func RemoveMember(c *gin.Context) {
	projectID := c.Param("id")
	userID := c.Param("userId")
	actor := middleware.CurrentActor(c)

	if _, err := engine.AuthorizeManage(projectID, actor); err != nil {
		handleError(c, err)
		return
	}

	var member models.ProjectMember
	if err := database.DB.
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		fail(c, http.StatusNotFound, "member not found on this project")
		return
	}

	if err := database.DB.Delete(&member).Error; err != nil {
		handleError(c, err)
		return
	}

	database.CreateAuditLog(actor.ID, "project", projectID, "remove_member", "removed member: "+userID)
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}
