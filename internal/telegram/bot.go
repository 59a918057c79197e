package telegram

import (
	"context"
	"log"
	"time"
)

// Bot pulls updates from the Telegram API and dispatches them.
type Bot struct {
	client  *Client
	handler *UpdateHandler
}

func NewBot(client *Client, handler *UpdateHandler) *Bot {
	return &Bot{client: client, handler: handler}
}

var botCommands = []BotCommand{
	{Command: "start", Description: "Sign up for the daily game"},
	{Command: "connect", Description: "Connect your TON wallet"},
	{Command: "disconnect", Description: "Disconnect your wallet"},
	{Command: "redeem", Description: "Redeem points to your wallet"},
	{Command: "leaderboard", Description: "Show the leaderboard"},
	{Command: "profile", Description: "Show your profile"},
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	if err := b.client.SetMyCommands(botCommands); err != nil {
		log.Printf("[Bot] set commands: %v", err)
	}

	log.Println("[Bot] polling for updates")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			log.Println("[Bot] stopped")
			return
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, 30)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("[Bot] stopped")
				return
			}
			log.Printf("[Bot] get updates: %v", err)
			select {
			case <-ctx.Done():
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			go b.handler.Handle(ctx, upd)
		}
	}
}
