package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan - сессия распределения на дату. Владеет назначениями и присутствиями.
type Plan struct {
	ID        string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Date      *time.Time `gorm:"type:date" json:"date,omitempty"`
	CreatedBy *string    `json:"createdBy,omitempty"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`

	Assignments     []Assignment     `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"assignments,omitempty"`
	WorkerPresences []WorkerPresence `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"workerPresences,omitempty"`
}

func (Plan) TableName() string {
	return "plans"
}

func (p *Plan) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PresenceOf возвращает сохранённое присутствие работника в плане.
// Требует предзагруженных WorkerPresences.
func (p *Plan) PresenceOf(workerID string) (WorkerType, bool) {
	for _, wp := range p.WorkerPresences {
		if wp.WorkerID == workerID {
			return wp.Type, true
		}
	}
	return "", false
}
