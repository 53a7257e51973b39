package workflow

import (
	"github.com/fredserel/Sistema-kanban/internal/models"

	"gorm.io/gorm"
)

// AuthorizeManage fetches the project and decides whether the actor may
// mutate it: super admin, holder of projects.update, or the current owner.
// This one check gates stage planning, complete/block/unblock, membership
// changes and arbitrary moves.
func (e *Engine) AuthorizeManage(projectID string, actor Actor) (*models.Project, error) {
	project, err := e.project(projectID)
	if err != nil {
		return nil, err
	}

	if actor.IsSuperAdmin || actor.Can(PermManageProjects) || project.OwnerID == actor.ID {
		return project, nil
	}

	return nil, errForbidden("you are not responsible for this project")
}

// AuthorizeView is the weaker check used for reading a project and adding
// comments: manage rights or plain team membership.
func (e *Engine) AuthorizeView(projectID string, actor Actor) (*models.Project, error) {
	project, err := e.project(projectID)
	if err != nil {
		return nil, err
	}

	if actor.IsSuperAdmin || actor.Can(PermManageProjects) || project.OwnerID == actor.ID {
		return project, nil
	}

	var count int64
	if err := e.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, actor.ID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return project, nil
	}

	return nil, errForbidden("you are not a member of this project")
}

func (e *Engine) project(projectID string) (*models.Project, error) {
	var project models.Project
	err := e.db.First(&project, "id = ?", projectID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}
