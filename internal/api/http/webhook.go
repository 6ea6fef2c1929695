package httpapi

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"

	"github.com/i474232898/covid-stats-bot/internal/logger"
	"github.com/i474232898/covid-stats-bot/internal/metrics"
	"github.com/i474232898/covid-stats-bot/internal/stats"
	"github.com/i474232898/covid-stats-bot/internal/telegram"
)

// WebhookPath is where Telegram delivers updates.
const WebhookPath = "/telegram/webhook"

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// keyboardRowWidth keeps the quick replies on a single row.
const keyboardRowWidth = 3

// RegisterWebhook wires the Telegram webhook. Replies are returned in the webhook
// response body. A non-empty secret must match the secret token header.
func RegisterWebhook(app *fiber.App, service *stats.Service, secret string) {
	h := &webhookHandler{service: service, secret: secret}
	app.Post(WebhookPath, adaptor.HTTPHandler(h))
}

type webhookHandler struct {
	service *stats.Service
	secret  string
}

func (h *webhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.secret != "" && r.Header.Get(secretHeader) != h.secret {
		http.Error(w, "invalid webhook secret", http.StatusUnauthorized)
		return
	}

	upd, err := telegram.DecodeUpdate(r.Body)
	if err != nil {
		http.Error(w, "invalid update payload", http.StatusBadRequest)
		return
	}

	lg := logger.WithRequestID(uuid.NewString())

	msg := upd.Message
	if msg == nil || msg.Chat == nil || strings.TrimSpace(msg.Text) == "" {
		metrics.ObserveUpdate("ignored")
		lg.Debug().Int("update_id", upd.UpdateID).Msg("ignoring update without text")
		w.WriteHeader(http.StatusOK)
		return
	}

	var reply stats.Reply
	if telegram.IsStart(msg) {
		metrics.ObserveUpdate("start")
		reply = h.service.Greeting(telegram.Mention(msg.From))
	} else {
		metrics.ObserveUpdate("text")
		reply = h.service.Handle(r.Context(), strings.TrimSpace(msg.Text))
	}

	lg.Info().
		Int("update_id", upd.UpdateID).
		Int64("chat_id", msg.Chat.ID).
		Str("outcome", string(reply.Outcome)).
		Msg("update handled")

	out := telegram.NewReply(msg.Chat.ID, reply.Text, telegram.NewKeyboard(keyboardRowWidth, reply.Keyboard...))
	if err := telegram.WriteReply(w, out); err != nil {
		lg.Error().Err(err).Msg("cannot write webhook reply")
	}
}
