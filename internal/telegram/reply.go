package telegram

import (
	"encoding/json"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DecodeUpdate reads an update delivered to the webhook.
func DecodeUpdate(r io.Reader) (tgbotapi.Update, error) {
	var upd tgbotapi.Update
	err := json.NewDecoder(r).Decode(&upd)
	return upd, err
}

// Mention is how the user is addressed in greetings.
func Mention(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}

// IsStart reports whether m is the /start command, with or without a bot name.
func IsStart(m *tgbotapi.Message) bool {
	return m.IsCommand() && m.Command() == "start"
}

// NewKeyboard lays the buttons out in rows of rowWidth.
func NewKeyboard(rowWidth int, labels ...string) tgbotapi.ReplyKeyboardMarkup {
	if rowWidth <= 0 {
		rowWidth = len(labels)
	}
	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, l := range labels {
		row = append(row, tgbotapi.NewKeyboardButton(l))
		if len(row) == rowWidth {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}

// NewReply builds an HTML sendMessage call with a reply keyboard.
func NewReply(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	return msg
}

// WriteReply answers a webhook request with msg. Telegram executes the method in
// the response body without a separate API request.
func WriteReply(w http.ResponseWriter, msg tgbotapi.MessageConfig) error {
	return tgbotapi.WriteToHTTPResponse(w, msg)
}
