package models

import (
	"time"

	"gorm.io/gorm"
)

type WorkTask struct {
	ID         int       `gorm:"primary_key" json:"id"`
	ProjectID  int       `gorm:"index;not null" json:"project_id" binding:"required"`
	TaskName   string    `gorm:"size:255;not null" json:"task_name" binding:"required"`
	Progress   int       `gorm:"default:0" json:"progress"`
	OrderIndex int       `gorm:"default:0" json:"order_index"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Status is derived; there is no stored status column to drift out of sync.
func (t *WorkTask) Status() TaskStatus {
	return TaskStatusFromProgress(t.Progress)
}

func ListTasks(db *gorm.DB, projectID int) ([]*WorkTask, error) {
	var tasks []*WorkTask
	err := db.Where("project_id = ?", projectID).Order("order_index ASC, id ASC").Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListIncompleteTasks feeds the milestone button list after approval.
func ListIncompleteTasks(db *gorm.DB, projectID int) ([]*WorkTask, error) {
	var tasks []*WorkTask
	err := db.Where("project_id = ? AND progress < 100", projectID).
		Order("order_index ASC, id ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// SetTaskProgress clamps and stores a progress value. Callers that recompute
// progress must compare against the stored value first and skip redundant
// writes.
func SetTaskProgress(tx *gorm.DB, taskID int, progress int) error {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	res := tx.Model(&WorkTask{}).Where("id = ?", taskID).Update("progress", progress)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
