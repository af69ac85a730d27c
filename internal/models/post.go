package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post - рабочий пост, на который распределяются работники.
type Post struct {
	ID          string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`

	Assignments []Assignment `gorm:"foreignKey:PostID" json:"assignments,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
