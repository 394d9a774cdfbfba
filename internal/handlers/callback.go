package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"anonchat-bot/internal/bot"
	"anonchat-bot/internal/chat"
	"anonchat-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type callbackAction string

const (
	actionRateGood     callbackAction = "rate_good"
	actionRateBad      callbackAction = "rate_bad"
	actionRateSuper    callbackAction = "rate_super"
	actionReport       callbackAction = "report"
	actionReturnTo     callbackAction = "return_to"
	actionAddFriend    callbackAction = "add_friend"
	actionFriendAlert  callbackAction = "friend_alert"
	actionFriendDel    callbackAction = "friend_del"
	actionPickRoom     callbackAction = "room"
	actionSearchGender callbackAction = "search"
	actionSetPref      callbackAction = "pref"
)

// callbackCommand is the typed form of a button press, decoded exactly once
// at the transport boundary.
type callbackCommand struct {
	Action    callbackAction
	TargetID  int64
	RoomID    models.RoomID
	Gender    string
	PrefKey   string
	PrefValue string
}

func parseCallback(data string) (callbackCommand, error) {
	switch {
	case strings.HasPrefix(data, "room_"):
		return callbackCommand{Action: actionPickRoom, RoomID: models.RoomID(strings.TrimPrefix(data, "room_"))}, nil
	case strings.HasPrefix(data, "search_"):
		return callbackCommand{Action: actionSearchGender, Gender: strings.TrimPrefix(data, "search_")}, nil
	case strings.HasPrefix(data, "pref_"):
		return parsePrefCallback(strings.TrimPrefix(data, "pref_"))
	}

	for _, action := range []callbackAction{
		actionRateGood, actionRateBad, actionRateSuper,
		actionReturnTo, actionAddFriend, actionReport,
		actionFriendAlert, actionFriendDel,
	} {
		prefix := string(action) + "_"
		if !strings.HasPrefix(data, prefix) {
			continue
		}

		targetID, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
		if err != nil {
			return callbackCommand{}, fmt.Errorf("failed to parse callback target in %q: %w", data, err)
		}
		return callbackCommand{Action: action, TargetID: targetID}, nil
	}

	return callbackCommand{}, fmt.Errorf("unknown callback data: %q", data)
}

// parsePrefCallback decodes a filter button. The value part may itself
// contain underscores (age bucket keys), so only the group prefix is split
// off.
func parsePrefCallback(data string) (callbackCommand, error) {
	for _, group := range []string{"gender", "age", "country", "type"} {
		prefix := group + "_"
		if strings.HasPrefix(data, prefix) {
			return callbackCommand{
				Action:    actionSetPref,
				PrefKey:   group,
				PrefValue: strings.TrimPrefix(data, prefix),
			}, nil
		}
	}
	return callbackCommand{}, fmt.Errorf("unknown filter callback: %q", data)
}

func HandleCallbackQuery(ctx context.Context, b *bot.Bot, ctrl *chat.Controller, activity ActivityReader, callback *tgbotapi.CallbackQuery) {
	cmd, err := parseCallback(callback.Data)
	if err != nil {
		log.Printf("Error parsing callback from %d: %v", callback.From.ID, err)
		b.AnswerCallbackQuery(callback.ID, "")
		return
	}

	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	switch cmd.Action {
	case actionRateGood, actionRateBad, actionRateSuper:
		kind := strings.TrimPrefix(string(cmd.Action), "rate_")
		if err := b.DB.AddRating(cmd.TargetID, kind); err != nil {
			log.Printf("Error saving rating from %d: %v", userID, err)
			b.AnswerCallbackQuery(callback.ID, "Помилка при збереженні оцінки.")
			return
		}
		b.AnswerCallbackQuery(callback.ID, "Дякуємо за оцінку!")

	case actionReport:
		if err := b.DB.AddComplaint(userID, cmd.TargetID); err != nil {
			log.Printf("Error saving complaint from %d: %v", userID, err)
			b.AnswerCallbackQuery(callback.ID, "Помилка при відправці скарги.")
			return
		}
		b.AnswerCallbackQuery(callback.ID, "Скаргу відправлено модераторам.")

	case actionReturnTo:
		if err := ctrl.ReturnTo(ctx, userID, cmd.TargetID); err != nil {
			log.Printf("Error creating return request from %d: %v", userID, err)
		}
		b.AnswerCallbackQuery(callback.ID, "")

	case actionAddFriend:
		handleAddFriend(b, callback, cmd.TargetID)

	case actionFriendAlert:
		enabled, err := b.DB.ToggleFriendAlerts(userID, cmd.TargetID)
		if err != nil {
			log.Printf("Error toggling friend alerts for %d: %v", userID, err)
			b.AnswerCallbackQuery(callback.ID, "Помилка при зміні сповіщень.")
			return
		}
		if enabled {
			b.AnswerCallbackQuery(callback.ID, "🔔 Сповіщення увімкнено.")
		} else {
			b.AnswerCallbackQuery(callback.ID, "🔕 Сповіщення вимкнено.")
		}
		refreshFriendsKeyboard(ctx, b, activity, callback)

	case actionFriendDel:
		if err := b.DB.DeleteFriend(userID, cmd.TargetID); err != nil {
			log.Printf("Error deleting friend for %d: %v", userID, err)
			b.AnswerCallbackQuery(callback.ID, "Помилка при видаленні друга.")
			return
		}
		b.AnswerCallbackQuery(callback.ID, "Друга видалено.")
		refreshFriendsKeyboard(ctx, b, activity, callback)

	case actionSetPref:
		handleSetPref(b, callback, cmd.PrefKey, cmd.PrefValue)

	case actionPickRoom:
		handlePickRoom(b, callback, cmd.RoomID)

	case actionSearchGender:
		b.AnswerCallbackQuery(callback.ID, "")
		switch cmd.Gender {
		case "male":
			err = ctrl.StartSearchByGender(ctx, userID, models.GenderMale)
		case "female":
			err = ctrl.StartSearchByGender(ctx, userID, models.GenderFemale)
		default:
			err = ctrl.StartSearch(ctx, userID)
		}
		if err != nil {
			log.Printf("Error starting search for %d: %v", userID, err)
			b.SendMessage(chatID, "Щось пішло не так. Спробуйте ще раз.", nil)
		}
	}
}

func handleAddFriend(b *bot.Bot, callback *tgbotapi.CallbackQuery, friendID int64) {
	userID := callback.From.ID

	user, err := b.DB.GetUser(userID)
	if err != nil || user == nil {
		b.AnswerCallbackQuery(callback.ID, "Помилка при перевірці статусу.")
		return
	}
	if !user.IsPro(time.Now()) {
		b.AnswerCallbackQuery(callback.ID, "Додавання друзів доступне лише PRO користувачам.")
		return
	}

	b.SetState(userID, "awaiting_friend_name", map[string]interface{}{
		"friend_id": friendID,
	})
	b.AnswerCallbackQuery(callback.ID, "")
	b.SendMessage(callback.Message.Chat.ID, "Введіть ім'я для цього друга:", nil)
}

// handlePickRoom switches the user's room. Room changes are refused while
// waiting or connected so the queue and session state stay consistent with
// the assignment.
func handlePickRoom(b *bot.Bot, callback *tgbotapi.CallbackQuery, roomID models.RoomID) {
	userID := callback.From.ID

	open, err := b.DB.IsRoomOpen(roomID)
	if err != nil || !open {
		b.AnswerCallbackQuery(callback.ID, "Ця кімната зараз закрита.")
		return
	}

	if partnerID, err := b.DB.GetPartner(userID); err == nil && partnerID != 0 {
		b.AnswerCallbackQuery(callback.ID, "Завершіть поточний чат перед зміною кімнати.")
		return
	}
	if waiting, err := b.DB.IsWaiting(userID); err == nil && waiting {
		b.AnswerCallbackQuery(callback.ID, "Зупиніть пошук перед зміною кімнати.")
		return
	}

	if err := b.DB.SetUserRoom(userID, roomID); err != nil {
		log.Printf("Error setting room for %d: %v", userID, err)
		b.AnswerCallbackQuery(callback.ID, "Помилка при зміні кімнати.")
		return
	}

	b.AnswerCallbackQuery(callback.ID, "Кімнату змінено!")
	b.SendMessage(callback.Message.Chat.ID, "✅ Кімнату змінено. Використайте /search для пошуку.", nil)
}

func refreshFriendsKeyboard(ctx context.Context, b *bot.Bot, activity ActivityReader, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID

	friends, err := b.DB.GetFriends(userID)
	if err != nil {
		log.Printf("Error listing friends for %d: %v", userID, err)
		return
	}

	if len(friends) == 0 {
		b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
			"У вас поки немає друзів. Додавайте їх після завершення чату (PRO).", nil)
		return
	}

	keyboard := b.FriendsKeyboard(friends, friendChattingStatus(ctx, activity, friends))
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID, "👥 Ваші друзі:", &keyboard)
}

// handleSetPref updates one premium search filter and re-renders the filter
// keyboard. Countries are a multi-select toggle, the other groups are
// single-choice.
func handleSetPref(b *bot.Bot, callback *tgbotapi.CallbackQuery, key, value string) {
	userID := callback.From.ID

	user, err := b.DB.GetUser(userID)
	if err != nil || user == nil || !user.IsPremium(time.Now()) {
		b.AnswerCallbackQuery(callback.ID, "💎 Фільтри пошуку доступні лише Premium та PRO користувачам.")
		return
	}

	prefs, err := b.DB.GetSearchPreferences(userID)
	if err != nil {
		log.Printf("Error loading preferences for %d: %v", userID, err)
		b.AnswerCallbackQuery(callback.ID, "Помилка при завантаженні фільтрів.")
		return
	}

	switch key {
	case "gender":
		err = b.DB.SetSearchPreference(userID, "gender", value)
		prefs.Gender = value
	case "age":
		err = b.DB.SetSearchPreference(userID, "age_range", value)
		prefs.AgeRange = value
	case "type":
		err = b.DB.SetSearchPreference(userID, "user_type", value)
		prefs.UserType = value
	case "country":
		prefs.Countries = toggleCountry(prefs.Countries, value)
		stored := "all"
		if len(prefs.Countries) > 0 {
			stored = strings.Join(prefs.Countries, ",")
		}
		err = b.DB.SetSearchPreference(userID, "countries", stored)
	}
	if err != nil {
		log.Printf("Error saving preference %s for %d: %v", key, userID, err)
		b.AnswerCallbackQuery(callback.ID, "Помилка при збереженні фільтра.")
		return
	}

	b.AnswerCallbackQuery(callback.ID, "Фільтр оновлено.")
	keyboard := b.FiltersKeyboard(prefs)
	b.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID,
		"💎 Ваші фільтри пошуку:", &keyboard)
}

func toggleCountry(countries []string, code string) []string {
	for i, c := range countries {
		if c == code {
			return append(countries[:i], countries[i+1:]...)
		}
	}
	return append(countries, code)
}
