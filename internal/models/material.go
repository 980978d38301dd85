package models

import "time"

type MaterialType string

const (
	MaterialText  MaterialType = "Text"
	MaterialLink  MaterialType = "Link"
	MaterialVideo MaterialType = "Video"
	MaterialFile  MaterialType = "File"
)

type Material struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200"`
	Description *string      `json:"description" gorm:"type:text"`
	LessonID    uint         `json:"lesson_id" gorm:"not null;index"`
	Content     *string      `json:"content" gorm:"type:text"`
	Link        *string      `json:"link" gorm:"size:500"`
	Type        MaterialType `json:"type" gorm:"type:varchar(20);not null;default:'Text'"`
	OrderNumber int          `json:"order_number" gorm:"not null;default:0"`
	Version     int          `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func (Material) TableName() string {
	return "materials"
}
