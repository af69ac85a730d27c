package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkerPresence - присутствие работника в конкретном плане.
// Отсутствие записи означает присутствие по типу происхождения работника.
type WorkerPresence struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlanID    string     `gorm:"type:varchar(36);not null;uniqueIndex:uk_presence_plan_worker,priority:1" json:"planId"`
	WorkerID  string     `gorm:"type:varchar(36);not null;uniqueIndex:uk_presence_plan_worker,priority:2;index" json:"workerId"`
	Type      WorkerType `gorm:"type:varchar(32);not null" json:"type"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Worker *Worker `gorm:"foreignKey:WorkerID;constraint:OnDelete:CASCADE" json:"worker,omitempty"`
}

func (WorkerPresence) TableName() string {
	return "worker_presences"
}

func (wp *WorkerPresence) BeforeCreate(_ *gorm.DB) error {
	if wp.ID == "" {
		wp.ID = uuid.NewString()
	}
	return nil
}
