package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Worker - работник. Type всегда один из шести типов происхождения.
type Worker struct {
	ID             string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Anciennete     string     `gorm:"not null;index" json:"anciennete"`
	Name           string     `gorm:"not null" json:"name"`
	Type           WorkerType `gorm:"type:varchar(32);not null" json:"type"`
	OriginalPostID string     `gorm:"type:varchar(36);not null;index" json:"originalPostId"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	OriginalPost *Post        `gorm:"foreignKey:OriginalPostID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"originalPost,omitempty"`
	Assignments  []Assignment `gorm:"foreignKey:WorkerID" json:"assignments,omitempty"`
}

func (Worker) TableName() string {
	return "workers"
}

func (w *Worker) BeforeCreate(_ *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// IsValid проверяет обязательные поля работника
func (w *Worker) IsValid() bool {
	if w.Anciennete == "" || w.Name == "" || w.OriginalPostID == "" {
		return false
	}
	return w.Type.IsOrigin()
}
