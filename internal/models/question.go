package models

import (
	"time"

	"gorm.io/datatypes"
)

type Question struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Text        string         `gorm:"type:text;not null" json:"question"`
	Option1     string         `gorm:"size:500;not null" json:"option1"`
	Option2     string         `gorm:"size:500;not null" json:"option2"`
	Option3     string         `gorm:"size:500;not null" json:"option3"`
	Option4     string         `gorm:"size:500;not null" json:"option4"`
	CorrectList datatypes.JSON `gorm:"column:correct_answers" json:"correct_answers,omitempty"`
	ScheduledAt time.Time      `gorm:"index;not null" json:"scheduled_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Answers returns the choice set in broadcast order.
func (q Question) Answers() []string {
	return []string{q.Option1, q.Option2, q.Option3, q.Option4}
}
