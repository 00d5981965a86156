package delivery

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"postovik/internal/domain"
	"postovik/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// DeliveryError — окончательный отказ доставки одного поста.
// Движок изолирует его в рамках поста, цикл продолжается.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Sender — используемое подмножество Telegram Bot API, под мок в тестах.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// SenderFactory создает отправителя под конкретный токен бота.
type SenderFactory func(token string) (Sender, error)

// TelegramClient доставляет подписи в канал. Картинка опциональна:
// при отказе sendPhoto делается ровно одна повторная попытка текстом
// (degrade-and-retry), второй отказ отдается наружу как DeliveryError.
type TelegramClient struct {
	factory SenderFactory
	logger  *zerolog.Logger

	mu      sync.Mutex
	senders map[string]Sender // кэш по токену: getMe дергаем один раз
}

func NewTelegramClient(debug bool, logger *zerolog.Logger) *TelegramClient {
	factory := func(token string) (Sender, error) {
		bot, err := tgbotapi.NewBotAPI(token)
		if err != nil {
			return nil, err
		}
		bot.Debug = debug
		return bot, nil
	}
	return NewTelegramClientWithFactory(factory, logger)
}

func NewTelegramClientWithFactory(factory SenderFactory, logger *zerolog.Logger) *TelegramClient {
	return &TelegramClient{
		factory: factory,
		logger:  logger,
		senders: make(map[string]Sender),
	}
}

func (c *TelegramClient) senderFor(token string) (Sender, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.senders[token]; ok {
		return s, nil
	}

	s, err := c.factory(token)
	if err != nil {
		return nil, err
	}
	c.senders[token] = s
	return s, nil
}

// Deliver отправляет подпись (и картинку, если есть) в канал.
// Максимум две попытки, максимум один успешный вызов провайдера.
func (c *TelegramClient) Deliver(ctx context.Context, target domain.DeliveryTarget, caption, postURL, imageURL string) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{Err: err}
	}

	sender, err := c.senderFor(target.BotToken)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("create bot: %w", err)}
	}

	message := ComposeMessage(caption, postURL)

	if imageURL != "" {
		photoErr := c.sendPhoto(sender, target.ChannelID, message, imageURL)
		if photoErr == nil {
			return nil
		}

		// Одна повторная попытка без картинки, текст сохраняем целиком
		c.logger.Warn().Err(photoErr).Str("channel", target.ChannelID).
			Msg("photo delivery failed, retrying as text-only")
	}

	if err := c.sendText(sender, target.ChannelID, message); err != nil {
		return &DeliveryError{Err: err}
	}
	return nil
}

func (c *TelegramClient) sendPhoto(sender Sender, channelID, message, imageURL string) error {
	photo := tgbotapi.PhotoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: baseChat(channelID),
			File:     tgbotapi.FileURL(imageURL),
		},
		Caption:   TruncateCaption(message, models.TelegramCaptionLimit),
		ParseMode: models.ParseModeHTML,
	}

	_, err := sender.Send(photo)
	return err
}

func (c *TelegramClient) sendText(sender Sender, channelID, message string) error {
	msg := tgbotapi.MessageConfig{
		BaseChat:  baseChat(channelID),
		Text:      message,
		ParseMode: models.ParseModeHTML,
	}

	_, err := sender.Send(msg)
	return err
}

// baseChat принимает и числовой chat id, и @username канала.
func baseChat(channelID string) tgbotapi.BaseChat {
	if chatID, err := strconv.ParseInt(channelID, 10, 64); err == nil {
		return tgbotapi.BaseChat{ChatID: chatID}
	}
	return tgbotapi.BaseChat{ChannelUsername: channelID}
}

// ComposeMessage добавляет к подписи строку со ссылкой на оригинал.
func ComposeMessage(caption, postURL string) string {
	caption = strings.TrimSpace(caption)
	if postURL == "" {
		return caption
	}
	return fmt.Sprintf("%s\n\n👉 <a href=\"%s\">Читать в блоге</a>", caption, postURL)
}

// TruncateCaption обрезает подпись под лимит Telegram для фото.
func TruncateCaption(message string, limit int) string {
	runes := []rune(message)
	if len(runes) <= limit {
		return message
	}
	return string(runes[:limit-1]) + "…"
}
