package handlers

import (
	"net/http"
	"sort"

	"github.com/aadityarajkumawat/telebot/internal/store"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	users *store.UserStore
}

func NewLeaderboardHandler(users *store.UserStore) *LeaderboardHandler {
	return &LeaderboardHandler{users: users}
}

type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Score > users[j].Score })

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:  i + 1,
			Name:  u.DisplayName(),
			Score: u.Score,
		})
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
