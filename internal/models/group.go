package models

import "time"

const DefaultMaxStudents = 10

type Group struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:200"`
	Description *string   `json:"description" gorm:"type:text"`
	ProgramID   uint      `json:"program_id" gorm:"column:educational_program_id;not null;index"`
	TeacherID   uint      `json:"teacher_id" gorm:"not null;index"`
	MaxStudents int       `json:"max_students" gorm:"not null;default:10"`
	IsOpen      bool      `json:"is_open" gorm:"not null;default:true"`
	Version     int       `json:"version" gorm:"not null;default:1"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Program *EducationalProgram `json:"program,omitempty" gorm:"foreignKey:ProgramID"`
	Teacher *User               `json:"teacher,omitempty" gorm:"foreignKey:TeacherID"`
}

func (Group) TableName() string {
	return "groups"
}

// GroupStudent is a membership row. The composite key keeps a student in a
// group at most once.
type GroupStudent struct {
	GroupID   uint      `json:"group_id" gorm:"primaryKey"`
	StudentID uint      `json:"student_id" gorm:"primaryKey;index"`
	JoinedAt  time.Time `json:"joined_at" gorm:"not null"`
}

func (GroupStudent) TableName() string {
	return "group_students"
}
