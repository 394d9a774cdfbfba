package handlers

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"anonchat-bot/internal/bot"
	"anonchat-bot/internal/chat"
	"anonchat-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleAdminCommand handles moderation commands. It reports whether the
// command was one of the admin commands so the caller can fall through to
// the regular routing otherwise.
func HandleAdminCommand(b *bot.Bot, follows *chat.FollowRegistry, message *tgbotapi.Message) bool {
	switch message.Command() {
	case "open_room", "close_room", "rooms_status", "follow", "unfollow":
	default:
		return false
	}

	if !b.IsDefaultAdmin(message.From.ID) {
		b.SendMessage(message.Chat.ID, "Ця команда доступна лише адміністратору.", nil)
		return true
	}

	switch message.Command() {
	case "open_room":
		handleOpenRoom(b, message)
	case "close_room":
		handleCloseRoom(b, message)
	case "rooms_status":
		handleRoomsStatus(b, message)
	case "follow":
		handleFollow(b, follows, message, true)
	case "unfollow":
		handleFollow(b, follows, message, false)
	}
	return true
}

func handleOpenRoom(b *bot.Bot, message *tgbotapi.Message) {
	roomID, ok := roomArgument(b, message)
	if !ok {
		return
	}

	if err := b.DB.OpenRoom(roomID, message.From.ID); err != nil {
		log.Printf("Error opening room %s: %v", roomID, err)
		b.SendMessage(message.Chat.ID, "Помилка при відкритті кімнати.", nil)
		return
	}

	b.SendMessage(message.Chat.ID, fmt.Sprintf("✅ Кімнату %s відкрито.", roomID), nil)
}

func handleCloseRoom(b *bot.Bot, message *tgbotapi.Message) {
	roomID, ok := roomArgument(b, message)
	if !ok {
		return
	}

	// The general room is the fallback destination for relocated users and
	// can never be closed.
	if roomID == models.RoomGeneral {
		b.SendMessage(message.Chat.ID, "Загальну кімнату закрити не можна.", nil)
		return
	}

	moved, err := b.DB.CloseRoom(roomID, message.From.ID)
	if err != nil {
		log.Printf("Error closing room %s: %v", roomID, err)
		b.SendMessage(message.Chat.ID, "Помилка при закритті кімнати.", nil)
		return
	}

	b.SendMessage(message.Chat.ID,
		fmt.Sprintf("✅ Кімнату %s закрито. Переміщено користувачів: %d.", roomID, moved), nil)
}

func handleRoomsStatus(b *bot.Bot, message *tgbotapi.Message) {
	rooms, err := b.DB.GetAllRooms()
	if err != nil {
		log.Printf("Error listing rooms: %v", err)
		b.SendMessage(message.Chat.ID, "Помилка при отриманні списку кімнат.", nil)
		return
	}

	var lines []string
	lines = append(lines, "📋 Стан кімнат:")
	for _, room := range rooms {
		status := "🔒 закрита"
		if room.IsOpen {
			status = "🟢 відкрита"
		}
		lines = append(lines, fmt.Sprintf("• %s (%s): %s", room.Name, room.RoomID, status))
	}

	b.SendMessage(message.Chat.ID, strings.Join(lines, "\n"), nil)
}

func handleFollow(b *bot.Bot, follows *chat.FollowRegistry, message *tgbotapi.Message, enable bool) {
	arg := strings.TrimSpace(message.CommandArguments())

	var targetID int64
	if username := strings.TrimPrefix(arg, "@"); username != arg {
		user, err := b.DB.GetUserByUsername(username)
		if err != nil || user == nil {
			b.SendMessage(message.Chat.ID, "Користувача з таким юзернеймом не знайдено.", nil)
			return
		}
		targetID = user.UserID
	} else {
		var err error
		targetID, err = strconv.ParseInt(arg, 10, 64)
		if err != nil {
			targetID = 0
		}
	}
	if targetID == 0 {
		b.SendMessage(message.Chat.ID, "Вкажіть ID або @юзернейм користувача.\nПриклад: /follow 123456789", nil)
		return
	}

	if enable {
		follows.Follow(message.From.ID, targetID)
		b.SendMessage(message.Chat.ID, fmt.Sprintf("👁 Стеження за %d увімкнено.", targetID), nil)
		return
	}

	follows.Unfollow(message.From.ID, targetID)
	b.SendMessage(message.Chat.ID, fmt.Sprintf("Стеження за %d вимкнено.", targetID), nil)
}

func roomArgument(b *bot.Bot, message *tgbotapi.Message) (models.RoomID, bool) {
	arg := strings.TrimSpace(message.CommandArguments())
	if arg == "" {
		b.SendMessage(message.Chat.ID, "Вкажіть кімнату.\nПриклад: /close_room room_exchange", nil)
		return "", false
	}
	return models.RoomID(arg), true
}
