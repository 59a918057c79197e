package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aadityarajkumawat/telebot/internal/models"
	"github.com/aadityarajkumawat/telebot/internal/quiz"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	repo *quiz.QuestionRepo
}

func NewQuestionHandler(repo *quiz.QuestionRepo) *QuestionHandler {
	return &QuestionHandler{repo: repo}
}

type QuestionInput struct {
	Question       string   `json:"question" binding:"required"`
	Option1        string   `json:"option1" binding:"required"`
	Option2        string   `json:"option2" binding:"required"`
	Option3        string   `json:"option3" binding:"required"`
	Option4        string   `json:"option4" binding:"required"`
	CorrectAnswers []string `json:"correct_answers"`
}

type SaveQuestionsRequest struct {
	Date      string          `json:"date" binding:"required"`
	Questions []QuestionInput `json:"questions" binding:"required,min=1,dive"`
}

// SaveQuestions replaces the whole question set scheduled for a date.
func (h *QuestionHandler) SaveQuestions(c *gin.Context) {
	var req SaveQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	day, err := time.Parse(quiz.DayFormat, req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "date must be in YYYY-MM-DD format"})
		return
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for _, in := range req.Questions {
		q := models.Question{
			Text:        in.Question,
			Option1:     in.Option1,
			Option2:     in.Option2,
			Option3:     in.Option3,
			Option4:     in.Option4,
			ScheduledAt: day,
		}
		if len(in.CorrectAnswers) > 0 {
			raw, err := json.Marshal(in.CorrectAnswers)
			if err != nil {
				c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
				return
			}
			q.CorrectList = raw
		}
		questions = append(questions, q)
	}

	if err := h.repo.ReplaceForDay(c.Request.Context(), day, questions); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "questions saved"})
}

func (h *QuestionHandler) TodaysQuiz(c *gin.Context) {
	questions, err := h.repo.FetchForDay(c.Request.Context(), quiz.Day(time.Now()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (h *QuestionHandler) PastQuizzes(c *gin.Context) {
	grouped, err := h.repo.Past(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"quizzes": grouped})
}
