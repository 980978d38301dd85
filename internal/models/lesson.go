package models

import "time"

const DefaultLessonDuration = 60

type Lesson struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Title           string    `json:"title" gorm:"not null;size:200"`
	Description     *string   `json:"description" gorm:"type:text"`
	ProgramID       uint      `json:"program_id" gorm:"column:educational_program_id;not null;index"`
	GroupID         *uint     `json:"group_id" gorm:"index"`
	OrderNumber     int       `json:"order_number" gorm:"not null;default:0"`
	ScheduledAt     time.Time `json:"scheduled_at" gorm:"not null"`
	DurationMinutes int       `json:"duration_minutes" gorm:"not null;default:60"`
	TeacherComment  *string   `json:"teacher_comment" gorm:"type:text"`
	Version         int       `json:"version" gorm:"not null;default:1"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Group *Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}

func (Lesson) TableName() string {
	return "lessons"
}
