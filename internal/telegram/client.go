package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
}

func NewClient(token string) *Client {
	return &Client{
		token: token,
		// long polls are held open for up to 30s server-side
		httpClient: &http.Client{Timeout: 50 * time.Second},
		baseURL:    fmt.Sprintf("https://api.telegram.org/bot%s", token),
	}
}

func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram: %s", apiResp.Description)
	}
	return apiResp.Result, nil
}

func (c *Client) SendMessage(chatID int64, text string, replyMarkup interface{}) (int64, error) {
	req := SendMessageRequest{ChatID: chatID, Text: text}
	if replyMarkup != nil {
		rm, err := json.Marshal(replyMarkup)
		if err != nil {
			return 0, err
		}
		req.ReplyMarkup = rm
	}

	result, err := c.call(context.Background(), "sendMessage", req)
	if err != nil {
		return 0, err
	}

	var msg MessageResult
	json.Unmarshal(result, &msg)
	return msg.MessageID, nil
}

func (c *Client) EditMessageReplyMarkup(chatID, messageID int64, replyMarkup interface{}) error {
	req := EditMessageReplyMarkupRequest{ChatID: chatID, MessageID: messageID}
	if replyMarkup != nil {
		rm, err := json.Marshal(replyMarkup)
		if err != nil {
			return err
		}
		req.ReplyMarkup = rm
	}
	_, err := c.call(context.Background(), "editMessageReplyMarkup", req)
	return err
}

func (c *Client) AnswerCallbackQuery(callbackID, text string, showAlert bool) error {
	req := AnswerCallbackQueryRequest{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       showAlert,
	}
	_, err := c.call(context.Background(), "answerCallbackQuery", req)
	return err
}

func (c *Client) DeleteMessage(chatID, messageID int64) error {
	req := struct {
		ChatID    int64 `json:"chat_id"`
		MessageID int64 `json:"message_id"`
	}{ChatID: chatID, MessageID: messageID}
	_, err := c.call(context.Background(), "deleteMessage", req)
	return err
}

func (c *Client) SetMyCommands(commands []BotCommand) error {
	_, err := c.call(context.Background(), "setMyCommands", SetMyCommandsRequest{Commands: commands})
	return err
}

// GetUpdates long-polls for inbound updates starting at offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	result, err := c.call(ctx, "getUpdates", GetUpdatesRequest{Offset: offset, Timeout: timeout})
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

// SendPhoto uploads an image as multipart form data.
func (c *Client) SendPhoto(chatID int64, photo []byte, replyMarkup interface{}) (int64, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return 0, err
	}
	if replyMarkup != nil {
		rm, err := json.Marshal(replyMarkup)
		if err != nil {
			return 0, err
		}
		if err := w.WriteField("reply_markup", string(rm)); err != nil {
			return 0, err
		}
	}
	part, err := w.CreateFormFile("photo", "qr.png")
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(photo); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Post(c.baseURL+"/sendPhoto", w.FormDataContentType(), &buf)
	if err != nil {
		return 0, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return 0, fmt.Errorf("unmarshal: %w", err)
	}
	if !apiResp.OK {
		return 0, fmt.Errorf("telegram: %s", apiResp.Description)
	}

	var msg MessageResult
	json.Unmarshal(apiResp.Result, &msg)
	return msg.MessageID, nil
}
