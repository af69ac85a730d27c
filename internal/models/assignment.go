package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment - текущее назначение работника на пост в плане.
// Не более одной записи на пару (plan, worker).
type Assignment struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlanID     string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_assignment_plan_worker,priority:1" json:"planId"`
	WorkerID   string    `gorm:"type:varchar(36);not null;uniqueIndex:uk_assignment_plan_worker,priority:2;index" json:"workerId"`
	PostID     string    `gorm:"type:varchar(36);not null;index" json:"postId"`
	AssignedBy *string   `json:"assignedBy,omitempty"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assignedAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Plan   *Plan   `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Worker *Worker `gorm:"foreignKey:WorkerID;constraint:OnDelete:CASCADE" json:"worker,omitempty"`
	Post   *Post   `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
}

func (Assignment) TableName() string {
	return "assignments"
}

func (a *Assignment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
