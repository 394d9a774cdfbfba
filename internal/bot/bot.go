package bot

import (
	"fmt"
	"log"
	"sync"
	"time"

	"anonchat-bot/internal/database"
	"anonchat-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	API              *tgbotapi.BotAPI
	DB               *database.DB
	DefaultAdminID   int64
	RequiredChannels []string
	ArchiveChannelID int64
	States           map[int64]*models.UserState
	StatesMutex      sync.RWMutex
}

func New(token string, db *database.DB, defaultAdminID int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	log.Printf("Authorized on account %s", api.Self.UserName)

	return &Bot{
		API:            api,
		DB:             db,
		DefaultAdminID: defaultAdminID,
		States:         make(map[int64]*models.UserState),
	}, nil
}

func (b *Bot) SetState(userID int64, state string, data map[string]interface{}) {
	b.StatesMutex.Lock()
	defer b.StatesMutex.Unlock()

	b.States[userID] = &models.UserState{
		UserID:      userID,
		State:       state,
		TempData:    data,
		LastUpdated: time.Now(),
	}
}

func (b *Bot) GetState(userID int64) *models.UserState {
	b.StatesMutex.RLock()
	defer b.StatesMutex.RUnlock()

	return b.States[userID]
}

func (b *Bot) ClearState(userID int64) {
	b.StatesMutex.Lock()
	defer b.StatesMutex.Unlock()

	delete(b.States, userID)
}

func (b *Bot) IsDefaultAdmin(userID int64) bool {
	return userID == b.DefaultAdminID
}

func (b *Bot) SendMessage(chatID int64, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}

	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) SendMessageWithMarkdown(chatID int64, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}

	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) EditMessage(chatID int64, messageID int, text string, replyMarkup interface{}) error {
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if replyMarkup != nil {
		if markup, ok := replyMarkup.(*tgbotapi.InlineKeyboardMarkup); ok {
			msg.ReplyMarkup = markup
		}
	}

	_, err := b.API.Send(msg)
	return err
}

func (b *Bot) AnswerCallbackQuery(callbackID string, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := b.API.Request(callback)
	return err
}

// IsSubscribed checks membership in every required channel. With no channels
// configured everyone passes.
func (b *Bot) IsSubscribed(userID int64) (bool, error) {
	for _, channel := range b.RequiredChannels {
		member, err := b.API.GetChatMember(tgbotapi.GetChatMemberConfig{
			ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
				SuperGroupUsername: channel,
				UserID:             userID,
			},
		})
		if err != nil {
			return false, fmt.Errorf("failed to check membership in %s: %w", channel, err)
		}

		switch member.Status {
		case "creator", "administrator", "member":
		default:
			return false, nil
		}
	}

	return true, nil
}
