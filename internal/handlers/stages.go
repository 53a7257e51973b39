package handlers

import (
	"net/http"
	"time"

	"github.com/fredserel/Sistema-kanban/internal/middleware"

	"github.com/gin-gonic/gin"
)

// ListProjectStages returns the project's ledger in lifecycle order.
func ListProjectStages(c *gin.Context) {
	id := c.Param("id")
	actor := middleware.CurrentActor(c)

	if _, err := engine.AuthorizeView(id, actor); err != nil {
		handleError(c, err)
		return
	}

	stages, err := engine.Stages(id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stages)
}

type updateStageRequest struct {
	PlannedStartDate *time.Time `json:"plannedStartDate"`
	PlannedEndDate   *time.Time `json:"plannedEndDate"`
}

// UpdateStage changes a stage's planning dates.
func UpdateStage(c *gin.Context) {
	var req updateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := middleware.CurrentActor(c)
	stage, err := engine.UpdatePlan(c.Param("id"), actor, req.PlannedStartDate, req.PlannedEndDate)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stage)
}

// CompleteStage finishes the stage and advances the project.
func CompleteStage(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	stage, err := engine.Complete(c.Param("id"), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stage)
}

type blockStageRequest struct {
	Reason string `json:"reason"`
}

// BlockStage halts a stage with a mandatory reason.
func BlockStage(c *gin.Context) {
	var req blockStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	actor := middleware.CurrentActor(c)
	stage, err := engine.Block(c.Param("id"), req.Reason, actor)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stage)
}

// UnblockStage lifts a block.
func UnblockStage(c *gin.Context) {
	actor := middleware.CurrentActor(c)
	stage, err := engine.Unblock(c.Param("id"), actor)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stage)
}
