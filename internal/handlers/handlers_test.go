package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aadityarajkumawat/telebot/internal/middleware"
	"github.com/aadityarajkumawat/telebot/internal/models"
	"github.com/aadityarajkumawat/telebot/internal/quiz"
	"github.com/aadityarajkumawat/telebot/internal/services"
	"github.com/aadityarajkumawat/telebot/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiFixture struct {
	router *gin.Engine
	users  *store.UserStore
	kv     *store.MemoryKV
	token  string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Question{}, &models.Response{}, &models.Admin{}))

	kv := store.NewMemoryKV()
	users := store.NewUserStore(kv)
	authService := services.NewAuthService(db, "test-secret")

	token, err := authService.Register("admin", "password123")
	require.NoError(t, err)

	authHandler := NewAuthHandler(authService)
	questionHandler := NewQuestionHandler(quiz.NewQuestionRepo(db))
	scheduleHandler := NewScheduleHandler(kv, "19:00", "19:10")
	leaderboardHandler := NewLeaderboardHandler(users)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/login", authHandler.Login)
	api.GET("/leaderboard", leaderboardHandler.GetLeaderboard)

	protected := api.Group("")
	protected.Use(middleware.JWTAuth(authService))
	protected.POST("/questions", questionHandler.SaveQuestions)
	protected.GET("/questions/today", questionHandler.TodaysQuiz)
	protected.GET("/schedule", scheduleHandler.GetSchedule)
	protected.POST("/schedule", scheduleHandler.SetSchedule)

	return &apiFixture{router: r, users: users, kv: kv, token: token}
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestAuthFlow(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "admin", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	w = f.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuestions_RequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/v1/questions/today", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodGet, "/api/v1/questions/today", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQuestions_SaveAndFetch(t *testing.T) {
	f := newAPIFixture(t)

	payload := gin.H{
		"date": quiz.Day(time.Now()).Format(quiz.DayFormat),
		"questions": []gin.H{
			{
				"question": "What color?",
				"option1":  "Red", "option2": "Blue", "option3": "Green", "option4": "Yellow",
			},
			{
				"question": "Capital of France?",
				"option1":  "Paris", "option2": "London", "option3": "Berlin", "option4": "Rome",
				"correct_answers": []string{"Paris"},
			},
		},
	}
	w := f.do(http.MethodPost, "/api/v1/questions", f.token, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/api/v1/questions/today", f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Questions []models.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Questions, 2)
	assert.Equal(t, "What color?", resp.Questions[0].Text)
}

func TestQuestions_RejectsBadDate(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/v1/questions", f.token, gin.H{
		"date": "01/09/2026",
		"questions": []gin.H{{
			"question": "Q",
			"option1":  "A", "option2": "B", "option3": "C", "option4": "D",
		}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedule_RoundTrip(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodGet, "/api/v1/schedule", f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"room_start_time":"19:00","game_start_time":"19:10"}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/v1/schedule", f.token, gin.H{
		"room_start_time": "20:00", "game_start_time": "20:15",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/v1/schedule", f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"room_start_time":"20:00","game_start_time":"20:15"}`, w.Body.String())
}

func TestSchedule_RejectsBadClock(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(http.MethodPost, "/api/v1/schedule", f.token, gin.H{
		"room_start_time": "8pm", "game_start_time": "20:15",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeaderboard_PublicAndSorted(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	require.NoError(t, f.users.Save(ctx, &models.User{ID: 1, FirstName: "Ada", Score: 3}))
	require.NoError(t, f.users.Save(ctx, &models.User{ID: 2, FirstName: "Grace", Score: 9}))

	w := f.do(http.MethodGet, "/api/v1/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Leaderboard []LeaderboardEntry `json:"leaderboard"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Leaderboard, 2)
	assert.Equal(t, "Grace", resp.Leaderboard[0].Name)
	assert.Equal(t, 1, resp.Leaderboard[0].Rank)
	assert.Equal(t, "Ada", resp.Leaderboard[1].Name)
}
