package models

import "time"

type Response struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	QuestionID uint      `gorm:"not null;uniqueIndex:idx_response_unique" json:"question_id"`
	Day        string    `gorm:"size:10;not null;uniqueIndex:idx_response_unique" json:"day"`
	UserID     int64     `gorm:"not null;uniqueIndex:idx_response_unique" json:"user_id"`
	Answer     string    `gorm:"size:500;not null" json:"answer"`
	AnsweredAt time.Time `json:"answered_at"`
}
