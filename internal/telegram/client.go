package telegram

import (
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultAPIURL is the public Bot API host.
const DefaultAPIURL = "https://api.telegram.org"

// ErrNoToken is returned when the client has no bot token.
var ErrNoToken = errors.New("telegram bot token is not configured")

// Client calls the Bot API methods the bot needs outside of webhook replies:
// replies themselves travel back in the webhook response.
type Client struct {
	bot *tgbotapi.BotAPI
}

// NewClient authenticates token against the Bot API at baseURL.
func NewClient(httpClient tgbotapi.HTTPClient, baseURL, token string) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/bot%s/%s"
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	return &Client{bot: bot}, nil
}

// Username is the bot account name reported by getMe.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SetWebhook points Telegram at url. Updates will carry secret in the
// X-Telegram-Bot-Api-Secret-Token header.
func (c *Client) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", []string{"message"}); err != nil {
		return err
	}

	if _, err := c.bot.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	return nil
}
