package quiz

import (
	"context"
	"time"

	"github.com/aadityarajkumawat/telebot/internal/models"

	"gorm.io/gorm"
)

const DayFormat = "2006-01-02"

// Day truncates t to its scheduling day in UTC.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// QuestionRepo is the question source: authored over HTTP, read by the
// orchestrator once per day.
type QuestionRepo struct {
	db *gorm.DB
}

func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// FetchForDay returns the day's questions in broadcast order. An empty
// result means no game that day.
func (r *QuestionRepo) FetchForDay(ctx context.Context, day time.Time) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("scheduled_at = ?", Day(day)).
		Order("id ASC").
		Find(&questions).Error
	return questions, err
}

// ReplaceForDay swaps out the full question set for a date, the way the
// authoring surface always writes whole days.
func (r *QuestionRepo) ReplaceForDay(ctx context.Context, day time.Time, questions []models.Question) error {
	day = Day(day)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scheduled_at = ?", day).Delete(&models.Question{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].ScheduledAt = day
		}
		if len(questions) == 0 {
			return nil
		}
		return tx.Create(&questions).Error
	})
}

// Past returns all questions grouped by day, newest day first.
func (r *QuestionRepo) Past(ctx context.Context) (map[string][]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Order("scheduled_at DESC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.Question)
	for _, q := range questions {
		key := q.ScheduledAt.Format(DayFormat)
		grouped[key] = append(grouped[key], q)
	}
	return grouped, nil
}
