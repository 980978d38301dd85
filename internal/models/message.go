package models

import "time"

type Message struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	SenderID  uint       `json:"sender_id" gorm:"not null;index"`
	LessonID  uint       `json:"lesson_id" gorm:"not null;index"`
	IsEdited  bool       `json:"is_edited" gorm:"not null;default:false"`
	EditedAt  *time.Time `json:"edited_at"`
	Version   int        `json:"version" gorm:"not null;default:1"`
	CreatedAt time.Time  `json:"created_at"`

	Sender *User `json:"sender,omitempty" gorm:"foreignKey:SenderID"`
}

func (Message) TableName() string {
	return "messages"
}
