package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/aadityarajkumawat/telebot/internal/game"
	"github.com/aadityarajkumawat/telebot/internal/models"
	"github.com/aadityarajkumawat/telebot/internal/store"
	"github.com/aadityarajkumawat/telebot/internal/wallet"
)

type UpdateHandler struct {
	client *Client
	state  *StateManager
	orch   *game.Orchestrator
	wallet *wallet.Protocol
	users  *store.UserStore

	roomStart string
	gameStart string
	timezone  string
}

func NewUpdateHandler(
	client *Client,
	state *StateManager,
	orch *game.Orchestrator,
	walletProto *wallet.Protocol,
	users *store.UserStore,
	roomStart, gameStart, timezone string,
) *UpdateHandler {
	return &UpdateHandler{
		client:    client,
		state:     state,
		orch:      orch,
		wallet:    walletProto,
		users:     users,
		roomStart: roomStart,
		gameStart: gameStart,
		timezone:  timezone,
	}
}

func (h *UpdateHandler) Handle(ctx context.Context, upd Update) {
	if upd.CallbackQuery != nil {
		h.handleCallback(ctx, upd.CallbackQuery)
		return
	}
	if upd.Message != nil {
		h.handleMessage(ctx, upd.Message)
	}
}

func (h *UpdateHandler) handleMessage(ctx context.Context, msg *Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch {
	case text == "/start":
		h.cmdStart(ctx, msg, chatID)
	case text == "/connect":
		h.wallet.HandleConnect(ctx, chatID)
	case text == "/disconnect":
		h.wallet.HandleDisconnect(ctx, chatID)
	case strings.HasPrefix(text, "/redeem"):
		h.cmdRedeem(ctx, chatID, text)
	case text == "/leaderboard":
		h.cmdLeaderboard(ctx, chatID)
	case text == "/profile":
		h.cmdProfile(ctx, chatID)
	default:
		h.sendText(chatID, "Unknown command!")
	}
}

func (h *UpdateHandler) cmdStart(ctx context.Context, msg *Message, chatID int64) {
	exists, err := h.users.Exists(ctx, chatID)
	if err != nil {
		log.Printf("[Handler] check signup of %d: %v", chatID, err)
		return
	}
	if exists {
		h.sendText(chatID, "You have already signed up!")
		return
	}

	user := &models.User{
		ID:        chatID,
		FirstName: msg.From.FirstName,
		LastName:  msg.From.LastName,
		Username:  msg.From.Username,
		Score:     1,
	}
	if err := h.users.Save(ctx, user); err != nil {
		log.Printf("[Handler] save signup of %d: %v", chatID, err)
		return
	}

	h.sendText(chatID, fmt.Sprintf(
		"Thanks for signing up!\nThe game room opens at %s and the game begins at %s (%s)\nWe'll send you notifications reminding about the game\nThank you",
		h.roomStart, h.gameStart, h.timezone))
}

func (h *UpdateHandler) cmdRedeem(ctx context.Context, chatID int64, text string) {
	user, err := h.users.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Handler] load user %d: %v", chatID, err)
		}
		h.sendText(chatID, "You have not signed up for the game!")
		return
	}

	arg := strings.TrimSpace(strings.TrimPrefix(text, "/redeem"))
	if arg == "" {
		h.sendText(chatID,
			"How many points do you want to redeem? [Reply in the following format: /redeem 10 for redeeming 10 points]")
		return
	}

	amount, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || amount <= 0 {
		h.sendText(chatID, "Invalid amount!")
		return
	}

	// precondition: the protocol itself does not re-check the score
	if int64(user.Score) < amount {
		h.sendText(chatID, "You do not have enough points to redeem!")
		return
	}

	h.wallet.RequestTransfer(ctx, chatID, amount)
}

func (h *UpdateHandler) cmdLeaderboard(ctx context.Context, chatID int64) {
	users, err := h.users.List(ctx)
	if err != nil {
		log.Printf("[Handler] list users: %v", err)
		return
	}
	if len(users) == 0 {
		h.sendText(chatID, "Nobody has signed up yet!")
		return
	}

	sort.Slice(users, func(i, j int) bool { return users[i].Score > users[j].Score })

	lines := make([]string, 0, len(users))
	for i, u := range users {
		lines = append(lines, fmt.Sprintf("%d. %s - %d", i+1, u.DisplayName(), u.Score))
	}
	h.sendText(chatID, strings.Join(lines, "\n"))
}

func (h *UpdateHandler) cmdProfile(ctx context.Context, chatID int64) {
	user, err := h.users.Get(ctx, chatID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[Handler] load user %d: %v", chatID, err)
		}
		h.sendText(chatID, "You have not signed up for the game!")
		return
	}

	connected, appName, address := h.wallet.WalletState(ctx, chatID)
	walletLine := "No"
	if connected {
		walletLine = fmt.Sprintf("Yes (%s)\nWallet: %s", appName, address)
	}

	h.sendText(chatID, fmt.Sprintf(
		"Name: %s\nScore: %d\nConnected Wallet: %s",
		user.DisplayName(), user.Score, walletLine))
}

func (h *UpdateHandler) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if cb.Message == nil {
		log.Println("[Handler] callback without message")
		return
	}

	switch {
	case cb.Data == "join_game":
		h.onJoin(ctx, cb)
	case strings.HasPrefix(cb.Data, "ans:"):
		h.onAnswer(ctx, cb)
	default:
		h.client.AnswerCallbackQuery(cb.ID, "", false)
	}
}

func (h *UpdateHandler) onJoin(ctx context.Context, cb *CallbackQuery) {
	chatID := cb.Message.Chat.ID
	h.client.AnswerCallbackQuery(cb.ID, "", false)

	result, err := h.orch.Join(ctx, chatID)
	if err != nil {
		log.Printf("[Handler] join of %d: %v", chatID, err)
		return
	}

	switch result {
	case game.JoinGameStarted:
		h.sendText(chatID, "Sorry, the game has already started!")
	case game.JoinAlready:
		h.sendText(chatID, "You have already joined the game!")
	case game.JoinOK:
		h.sendText(chatID, fmt.Sprintf("Game starts at %s (%s)!", h.gameStart, h.timezone))
	}
}

func (h *UpdateHandler) onAnswer(ctx context.Context, cb *CallbackQuery) {
	chatID := cb.Message.Chat.ID

	parts := strings.Split(cb.Data, ":")
	if len(parts) != 3 {
		h.client.AnswerCallbackQuery(cb.ID, "", false)
		return
	}
	round, err1 := strconv.Atoi(parts[1])
	option, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		h.client.AnswerCallbackQuery(cb.ID, "", false)
		return
	}

	if !h.orch.RoundOpen(round) {
		h.client.AnswerCallbackQuery(cb.ID, "You have already answered this question!", false)
		return
	}

	q, ok := h.orch.QuestionAt(round)
	if !ok {
		h.client.AnswerCallbackQuery(cb.ID, "", false)
		return
	}
	answers := q.Answers()
	if option < 0 || option >= len(answers) {
		h.client.AnswerCallbackQuery(cb.ID, "", false)
		return
	}

	sel := h.state.Get(chatID)
	if sel.Round == round && sel.Selected == answers[option] {
		// toggle off: marker cleared, the recorded response stands
		h.state.Set(chatID, Selection{Round: round})
		h.editKeyboard(cb, round, answers, "")
		h.client.AnswerCallbackQuery(cb.ID, "", false)
		return
	}

	result, answer, err := h.orch.SubmitAnswer(ctx, chatID, round, option)
	if err != nil {
		log.Printf("[Handler] record answer of %d: %v", chatID, err)
		h.client.AnswerCallbackQuery(cb.ID, "Something went wrong, try again", false)
		return
	}

	switch result {
	case game.AnswerStale, game.AnswerNoGame:
		h.client.AnswerCallbackQuery(cb.ID, "You have already answered this question!", false)
	case game.AnswerAccepted:
		h.state.Set(chatID, Selection{Round: round, Selected: answer})
		h.editKeyboard(cb, round, answers, answer)
		h.client.AnswerCallbackQuery(cb.ID, "", false)
	}
}

func (h *UpdateHandler) editKeyboard(cb *CallbackQuery, round int, answers []string, selected string) {
	kb := AnswerKeyboard(round, answers, selected)
	if err := h.client.EditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, kb); err != nil {
		log.Printf("[Handler] edit answer keyboard: %v", err)
	}
}

func (h *UpdateHandler) sendText(chatID int64, text string) {
	if _, err := h.client.SendMessage(chatID, text, nil); err != nil {
		log.Printf("[Handler] send to %d: %v", chatID, err)
	}
}
