package telegram

import (
	"github.com/aadityarajkumawat/telebot/internal/models"
)

// Gateway adapts the raw Bot API client to the narrow messenger contracts
// the orchestrator and the wallet protocol consume.
type Gateway struct {
	client *Client
}

func NewGateway(client *Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) SendText(chatID int64, text string) error {
	_, err := g.client.SendMessage(chatID, text, nil)
	return err
}

func (g *Gateway) SendJoinPrompt(chatID int64) error {
	_, err := g.client.SendMessage(chatID, "Hello, it's time for the game!\nAre you in?", JoinKeyboard())
	return err
}

func (g *Gateway) SendQuestion(chatID int64, round int, q models.Question) error {
	_, err := g.client.SendMessage(chatID, q.Text, AnswerKeyboard(round, q.Answers(), ""))
	return err
}

func (g *Gateway) SendQR(chatID int64, png []byte, link string) (int64, error) {
	return g.client.SendPhoto(chatID, png, ConnectKeyboard(link))
}

func (g *Gateway) SendLinkButton(chatID int64, text, buttonText, link string) error {
	_, err := g.client.SendMessage(chatID, text, OpenLinkKeyboard(buttonText, link))
	return err
}

func (g *Gateway) DeleteMessage(chatID, messageID int64) error {
	return g.client.DeleteMessage(chatID, messageID)
}
