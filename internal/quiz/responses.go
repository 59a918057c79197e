package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/aadityarajkumawat/telebot/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoResponse = errors.New("no response recorded")

// ResponseLedger keeps one row per (question, day, participant). Rows are
// never deleted; they are the audit trail elimination reads from.
type ResponseLedger struct {
	db *gorm.DB
}

func NewResponseLedger(db *gorm.DB) *ResponseLedger {
	return &ResponseLedger{db: db}
}

// Upsert records a participant's answer, last write wins. The conflict
// target is the composite unique index, so concurrent presses on the same
// key stay linearizable.
func (l *ResponseLedger) Upsert(ctx context.Context, questionID uint, day time.Time, userID int64, answer string) error {
	resp := models.Response{
		QuestionID: questionID,
		Day:        Day(day).Format(DayFormat),
		UserID:     userID,
		Answer:     answer,
		AnsweredAt: time.Now(),
	}
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "day"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"answer", "answered_at"}),
		}).
		Create(&resp).Error
}

func (l *ResponseLedger) Get(ctx context.Context, questionID uint, day time.Time, userID int64) (*models.Response, error) {
	var resp models.Response
	err := l.db.WithContext(ctx).
		Where("question_id = ? AND day = ? AND user_id = ?",
			questionID, Day(day).Format(DayFormat), userID).
		First(&resp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoResponse
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// CountByAnswer groups the day's responses for one question by answer value.
func (l *ResponseLedger) CountByAnswer(ctx context.Context, questionID uint, day time.Time) (map[string]int, error) {
	type row struct {
		Answer string
		Total  int
	}
	var rows []row
	err := l.db.WithContext(ctx).
		Model(&models.Response{}).
		Select("answer, count(*) as total").
		Where("question_id = ? AND day = ?", questionID, Day(day).Format(DayFormat)).
		Group("answer").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Answer] = r.Total
	}
	return counts, nil
}
