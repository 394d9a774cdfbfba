package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"anonchat-bot/internal/bot"
	"anonchat-bot/internal/chat"
	"anonchat-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func HandleStart(b *bot.Bot, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	_, err := b.DB.GetOrCreateUser(userID, message.From.UserName, message.From.FirstName)
	if err != nil {
		log.Printf("Error getting/creating user: %v", err)
		b.SendMessage(chatID, "Помилка при реєстрації. Спробуйте ще раз.", nil)
		return
	}

	b.SendMessage(chatID,
		"👋 Привіт! Це анонімний чат.\n\n"+
			"📋 Команди:\n"+
			"/search - Знайти співрозмовника\n"+
			"/next - Наступний співрозмовник\n"+
			"/stop - Зупинити чат або пошук\n"+
			"/rooms - Вибрати кімнату\n"+
			"/gender - Пошук за статтю\n"+
			"/filters - Фільтри пошуку (Premium)\n"+
			"/friends - Список друзів\n"+
			"/stats - Ваша статистика",
		nil)
}

// ActivityReader exposes the volatile per-user state kept in Redis: lifetime
// counters for /stats and chatting flags for the friends list.
type ActivityReader interface {
	Counters(ctx context.Context, userID int64) (messages, chats int64, err error)
	IsChatting(ctx context.Context, userID int64) (bool, error)
}

func HandleCommand(ctx context.Context, b *bot.Bot, ctrl *chat.Controller, activity ActivityReader, message *tgbotapi.Message) {
	userID := message.From.ID

	var err error
	switch message.Command() {
	case "start":
		HandleStart(b, message)
	case "search":
		err = ctrl.StartSearch(ctx, userID)
	case "next":
		err = ctrl.Next(ctx, userID)
	case "stop":
		err = ctrl.Stop(ctx, userID)
	case "rooms":
		handleRoomsCommand(b, message)
	case "gender":
		handleGenderCommand(b, message)
	case "filters":
		handleFiltersCommand(b, message)
	case "friends":
		handleFriendsCommand(ctx, b, activity, message)
	case "stats":
		handleStatsCommand(ctx, b, activity, message)
	default:
		b.SendMessage(message.Chat.ID, "Невідома команда. Використайте /search для пошуку співрозмовника.", nil)
	}

	if err != nil {
		log.Printf("Error handling /%s for %d: %v", message.Command(), userID, err)
		b.SendMessage(message.Chat.ID, "Щось пішло не так. Спробуйте ще раз.", nil)
	}
}

// HandleMessage routes a plain message: pending input state first, otherwise
// the message is relayed to the chat partner.
func HandleMessage(ctx context.Context, b *bot.Bot, ctrl *chat.Controller, message *tgbotapi.Message) {
	state := b.GetState(message.From.ID)
	if state != nil {
		switch state.State {
		case "awaiting_friend_name":
			handleFriendNameInput(b, message, state)
		default:
			b.ClearState(message.From.ID)
		}
		return
	}

	content, ok := contentFromMessage(message)
	if !ok {
		b.SendMessage(message.Chat.ID, "Цей тип повідомлення не підтримується.", nil)
		return
	}

	if err := ctrl.Forward(ctx, message.From.ID, content); err != nil {
		log.Printf("Error forwarding message from %d: %v", message.From.ID, err)
	}
}

// contentFromMessage maps an incoming Telegram message onto the engine's
// content union.
func contentFromMessage(message *tgbotapi.Message) (chat.Content, bool) {
	switch {
	case message.Text != "":
		return chat.Content{Kind: chat.ContentText, Text: message.Text}, true
	case len(message.Photo) > 0:
		return chat.Content{Kind: chat.ContentPhoto, FileID: message.Photo[len(message.Photo)-1].FileID, Caption: message.Caption}, true
	case message.Video != nil:
		return chat.Content{Kind: chat.ContentVideo, FileID: message.Video.FileID, Caption: message.Caption}, true
	case message.Audio != nil:
		return chat.Content{Kind: chat.ContentAudio, FileID: message.Audio.FileID, Caption: message.Caption}, true
	case message.Voice != nil:
		return chat.Content{Kind: chat.ContentVoice, FileID: message.Voice.FileID}, true
	case message.Document != nil:
		return chat.Content{Kind: chat.ContentDocument, FileID: message.Document.FileID, Caption: message.Caption}, true
	case message.Sticker != nil:
		return chat.Content{Kind: chat.ContentSticker, FileID: message.Sticker.FileID}, true
	case message.Animation != nil:
		return chat.Content{Kind: chat.ContentAnimation, FileID: message.Animation.FileID, Caption: message.Caption}, true
	default:
		return chat.Content{}, false
	}
}

func handleRoomsCommand(b *bot.Bot, message *tgbotapi.Message) {
	rooms, err := b.DB.GetAllRooms()
	if err != nil {
		log.Printf("Error listing rooms: %v", err)
		b.SendMessage(message.Chat.ID, "Помилка при завантаженні кімнат.", nil)
		return
	}

	current, err := b.DB.GetUserRoom(message.From.ID)
	if err != nil {
		log.Printf("Error resolving room for %d: %v", message.From.ID, err)
		current = models.RoomGeneral
	}

	keyboard := b.RoomsKeyboard(rooms, current)
	b.SendMessage(message.Chat.ID, "💬 Виберіть кімнату для спілкування:", keyboard)
}

func handleStatsCommand(ctx context.Context, b *bot.Bot, activity ActivityReader, message *tgbotapi.Message) {
	userID := message.From.ID

	messages, chats, err := activity.Counters(ctx, userID)
	if err != nil {
		log.Printf("Error reading counters for %d: %v", userID, err)
		b.SendMessage(message.Chat.ID, "Помилка при завантаженні статистики.", nil)
		return
	}

	rating, err := b.DB.GetRating(userID)
	if err != nil || rating == nil {
		rating = &models.Rating{UserID: userID}
	}

	b.SendMessageWithMarkdown(message.Chat.ID, fmt.Sprintf(
		"📊 *Ваша статистика:*\n\n"+
			"💬 Повідомлень: %d\n"+
			"👥 Чатів: %d\n"+
			"⭐ Реакції: %d👍 %d❤️ %d👎",
		messages, chats, rating.Good, rating.Super, rating.Bad), nil)
}

func handleGenderCommand(b *bot.Bot, message *tgbotapi.Message) {
	keyboard := b.SearchGenderKeyboard()
	b.SendMessage(message.Chat.ID, "👤 Кого шукаємо?", keyboard)
}

func handleFiltersCommand(b *bot.Bot, message *tgbotapi.Message) {
	userID := message.From.ID

	user, err := b.DB.GetUser(userID)
	if err != nil || user == nil || !user.IsPremium(time.Now()) {
		b.SendMessage(message.Chat.ID, "💎 Фільтри пошуку доступні лише Premium та PRO користувачам.", nil)
		return
	}

	prefs, err := b.DB.GetSearchPreferences(userID)
	if err != nil {
		log.Printf("Error loading preferences for %d: %v", userID, err)
		b.SendMessage(message.Chat.ID, "Помилка при завантаженні фільтрів.", nil)
		return
	}

	keyboard := b.FiltersKeyboard(prefs)
	b.SendMessage(message.Chat.ID, "💎 Ваші фільтри пошуку:", keyboard)
}

func handleFriendsCommand(ctx context.Context, b *bot.Bot, activity ActivityReader, message *tgbotapi.Message) {
	friends, err := b.DB.GetFriends(message.From.ID)
	if err != nil {
		log.Printf("Error listing friends: %v", err)
		b.SendMessage(message.Chat.ID, "Помилка при завантаженні друзів.", nil)
		return
	}

	if len(friends) == 0 {
		b.SendMessage(message.Chat.ID, "У вас поки немає друзів. Додавайте їх після завершення чату (PRO).", nil)
		return
	}

	keyboard := b.FriendsKeyboard(friends, friendChattingStatus(ctx, activity, friends))
	b.SendMessage(message.Chat.ID, "👥 Ваші друзі:", keyboard)
}

func friendChattingStatus(ctx context.Context, activity ActivityReader, friends []models.Friend) map[int64]bool {
	chatting := make(map[int64]bool, len(friends))
	for _, f := range friends {
		if busy, err := activity.IsChatting(ctx, f.FriendID); err == nil && busy {
			chatting[f.FriendID] = true
		}
	}
	return chatting
}

func handleFriendNameInput(b *bot.Bot, message *tgbotapi.Message, state *models.UserState) {
	name := strings.TrimSpace(message.Text)
	if name == "" {
		b.SendMessage(message.Chat.ID, "Будь ласка, введіть ім'я для друга:", nil)
		return
	}

	friendID, ok := state.TempData["friend_id"].(int64)
	if !ok {
		b.ClearState(message.From.ID)
		return
	}

	if err := b.DB.AddFriend(message.From.ID, friendID, name); err != nil {
		log.Printf("Error adding friend for %d: %v", message.From.ID, err)
		b.SendMessage(message.Chat.ID, "Помилка при додаванні друга.", nil)
		b.ClearState(message.From.ID)
		return
	}

	b.ClearState(message.From.ID)
	b.SendMessage(message.Chat.ID, "✅ Друга збережено як \""+name+"\".", nil)
}
