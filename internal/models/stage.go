package models

import "time"

type StageName string
type StageStatus string

const (
	StageNotStarted       StageName = "NOT_STARTED"
	StageBusinessModeling StageName = "BUSINESS_MODELING"
	StageITModeling       StageName = "IT_MODELING"
	StageDevelopment      StageName = "DEVELOPMENT"
	StageHomologation     StageName = "HOMOLOGATION"
	StageFinished         StageName = "FINISHED"

	StagePending    StageStatus = "PENDING"
	StageInProgress StageStatus = "IN_PROGRESS"
	StageCompleted  StageStatus = "COMPLETED"
	StageBlocked    StageStatus = "BLOCKED"
)

// StageOrder is the canonical project lifecycle. Every component indexes into
// this slice; it is never derived from stored ledger rows.
var StageOrder = []StageName{
	StageNotStarted,
	StageBusinessModeling,
	StageITModeling,
	StageDevelopment,
	StageHomologation,
	StageFinished,
}

var stageLabels = map[StageName]string{
	StageNotStarted:       "Not Started",
	StageBusinessModeling: "Business Modeling",
	StageITModeling:       "IT Modeling",
	StageDevelopment:      "Development",
	StageHomologation:     "Homologation",
	StageFinished:         "Finished",
}

// StageIndex returns the position of name in the canonical order, or -1 when
// name is not a known stage.
func StageIndex(name StageName) int {
	for i, s := range StageOrder {
		if s == name {
			return i
		}
	}
	return -1
}

func (s StageName) Valid() bool {
	return StageIndex(s) >= 0
}

func (s StageName) Label() string {
	if l, ok := stageLabels[s]; ok {
		return l
	}
	return string(s)
}

// ProjectStage is one ledger entry: the per-project record of a single
// lifecycle stage. Exactly one row exists per (project, stage) pair.
type ProjectStage struct {
	Base
	ProjectID string      `gorm:"type:varchar(36);not null;uniqueIndex:idx_project_stage" json:"projectId"`
	StageName StageName   `gorm:"type:varchar(30);not null;uniqueIndex:idx_project_stage" json:"stageName"`
	Status    StageStatus `gorm:"type:varchar(20);not null" json:"status"`

	PlannedStartDate *time.Time `json:"plannedStartDate"`
	PlannedEndDate   *time.Time `json:"plannedEndDate"`
	ActualStartDate  *time.Time `json:"actualStartDate"`
	ActualEndDate    *time.Time `json:"actualEndDate"`

	BlockReason *string    `gorm:"type:text" json:"blockReason"`
	BlockedAt   *time.Time `json:"blockedAt"`
	BlockedByID *string    `gorm:"type:varchar(36)" json:"blockedById"`
	BlockedBy   *User      `json:"blockedBy,omitempty"`
}
