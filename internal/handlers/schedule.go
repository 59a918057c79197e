package handlers

import (
	"errors"
	"net/http"

	"github.com/aadityarajkumawat/telebot/internal/config"
	"github.com/aadityarajkumawat/telebot/internal/store"

	"github.com/gin-gonic/gin"
)

// ScheduleHandler exposes the room/game start times. Updates are persisted
// and picked up on the next restart, not the currently scheduled day.
type ScheduleHandler struct {
	kv        store.KV
	roomStart string
	gameStart string
}

func NewScheduleHandler(kv store.KV, roomStart, gameStart string) *ScheduleHandler {
	return &ScheduleHandler{kv: kv, roomStart: roomStart, gameStart: gameStart}
}

type SetScheduleRequest struct {
	RoomStartTime string `json:"room_start_time" binding:"required"`
	GameStartTime string `json:"game_start_time" binding:"required"`
}

func (h *ScheduleHandler) SetSchedule(c *gin.Context) {
	var req SetScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	for _, clock := range []string{req.RoomStartTime, req.GameStartTime} {
		if _, _, err := config.ParseClock(clock); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "times must be in HH:MM format"})
			return
		}
	}

	ctx := c.Request.Context()
	if err := h.kv.Set(ctx, store.RoomStartKey, req.RoomStartTime); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.kv.Set(ctx, store.GameStartKey, req.GameStartTime); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "schedule updated"})
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	ctx := c.Request.Context()

	roomStart, err := h.kv.Get(ctx, store.RoomStartKey)
	if errors.Is(err, store.ErrNotFound) {
		roomStart = h.roomStart
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	gameStart, err := h.kv.Get(ctx, store.GameStartKey)
	if errors.Is(err, store.ErrNotFound) {
		gameStart = h.gameStart
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_start_time": roomStart,
		"game_start_time": gameStart,
	})
}
