package telegram

import (
	"fmt"
	"net/url"
)

func JoinKeyboard() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: "Yes, I'm in!", CallbackData: "join_game"}},
		},
	}
}

// AnswerKeyboard renders one question's choices as a single row, marking
// the currently selected answer. Selection lives in the per-user state,
// not in the button payload.
func AnswerKeyboard(round int, answers []string, selected string) *InlineKeyboardMarkup {
	row := make([]InlineKeyboardButton, 0, len(answers))
	for i, answer := range answers {
		text := answer
		if selected != "" && answer == selected {
			text = answer + " ✅"
		}
		row = append(row, InlineKeyboardButton{
			Text:         text,
			CallbackData: fmt.Sprintf("ans:%d:%d", round, i),
		})
	}
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{row}}
}

func OpenLinkKeyboard(buttonText, link string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{
			{{Text: buttonText, URL: link}},
		},
	}
}

// ConnectKeyboard offers the universal connect link behind a web opener,
// for clients that cannot scan the QR.
func ConnectKeyboard(link string) *InlineKeyboardMarkup {
	opener := "https://ton-connect.github.io/open-tc?connect=" + url.QueryEscape(link)
	return OpenLinkKeyboard("Open Link", opener)
}
