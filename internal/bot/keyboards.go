package bot

import (
	"fmt"

	"anonchat-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Keyboard builders

// ChatEndKeyboard builds the rating keyboard sent when a session ends. The
// button set depends on the viewer's own tier: premium adds the
// return-to-partner button, PRO additionally gets add-friend.
func (b *Bot) ChatEndKeyboard(partnerID int64, tier models.Tier) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	switch tier {
	case models.TierPro:
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🔄 Повернутися", fmt.Sprintf("return_to_%d", partnerID)),
			tgbotapi.NewInlineKeyboardButtonData("👥 Додати в друзі", fmt.Sprintf("add_friend_%d", partnerID)),
		})
	case models.TierPremium:
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🔄 Повернутися", fmt.Sprintf("return_to_%d", partnerID)),
		})
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("👍 Добре", fmt.Sprintf("rate_good_%d", partnerID)),
		tgbotapi.NewInlineKeyboardButtonData("👎 Погано", fmt.Sprintf("rate_bad_%d", partnerID)),
		tgbotapi.NewInlineKeyboardButtonData("❤️ Супер", fmt.Sprintf("rate_super_%d", partnerID)),
	})
	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("🚫 Поскаржитися", fmt.Sprintf("report_%d", partnerID)),
	})

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// RoomsKeyboard lists open rooms; the user's current room is marked.
func (b *Bot) RoomsKeyboard(rooms []models.Room, current models.RoomID) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, room := range rooms {
		if !room.IsOpen {
			continue
		}

		label := room.Name
		if room.RoomID == current {
			label = "✅ " + label
		}

		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, "room_"+string(room.RoomID)),
		})
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// FriendsKeyboard lists friends with their alert toggle and a delete button.
// chatting marks friends currently in a conversation.
func (b *Bot) FriendsKeyboard(friends []models.Friend, chatting map[int64]bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	for _, f := range friends {
		bell := "🔕"
		if f.AlertsOn {
			bell = "🔔"
		}
		label := bell + " " + f.Name
		if chatting[f.FriendID] {
			label += " 💬"
		}

		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("friend_alert_%d", f.FriendID)),
			tgbotapi.NewInlineKeyboardButtonData("❌", fmt.Sprintf("friend_del_%d", f.FriendID)),
		})
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// FiltersKeyboard shows the premium search filters with the active choice of
// each group marked.
func (b *Bot) FiltersKeyboard(prefs models.SearchPreferences) tgbotapi.InlineKeyboardMarkup {
	mark := func(label string, active bool) string {
		if active {
			return "✅ " + label
		}
		return label
	}

	hasCountry := func(code string) bool {
		for _, c := range prefs.Countries {
			if c == code {
				return true
			}
		}
		return false
	}

	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark("👨 Чоловік", prefs.Gender == "male"), "pref_gender_male"),
			tgbotapi.NewInlineKeyboardButtonData(mark("👩 Жінка", prefs.Gender == "female"), "pref_gender_female"),
			tgbotapi.NewInlineKeyboardButtonData(mark("🎲 Будь-хто", prefs.Gender == "" || prefs.Gender == "any"), "pref_gender_any"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark("7-17", prefs.AgeRange == "7_17"), "pref_age_7_17"),
			tgbotapi.NewInlineKeyboardButtonData(mark("18-25", prefs.AgeRange == "18_25"), "pref_age_18_25"),
			tgbotapi.NewInlineKeyboardButtonData(mark("26-35", prefs.AgeRange == "26_35"), "pref_age_26_35"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark("36-50", prefs.AgeRange == "36_50"), "pref_age_36_50"),
			tgbotapi.NewInlineKeyboardButtonData(mark("50+", prefs.AgeRange == "50_plus"), "pref_age_50_plus"),
			tgbotapi.NewInlineKeyboardButtonData(mark("Будь-який вік", prefs.AgeRange == "" || prefs.AgeRange == "any"), "pref_age_any"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark("🇺🇦", hasCountry("ukraine")), "pref_country_ukraine"),
			tgbotapi.NewInlineKeyboardButtonData(mark("🇷🇺", hasCountry("russia")), "pref_country_russia"),
			tgbotapi.NewInlineKeyboardButtonData(mark("🇧🇾", hasCountry("belarus")), "pref_country_belarus"),
			tgbotapi.NewInlineKeyboardButtonData(mark("🇬🇧", hasCountry("english")), "pref_country_english"),
			tgbotapi.NewInlineKeyboardButtonData(mark("🌎", hasCountry("other")), "pref_country_other"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(mark("💎 Premium", prefs.UserType == "premium"), "pref_type_premium"),
			tgbotapi.NewInlineKeyboardButtonData(mark("👤 Звичайні", prefs.UserType == "regular"), "pref_type_regular"),
			tgbotapi.NewInlineKeyboardButtonData(mark("Усі", prefs.UserType == "" || prefs.UserType == "all"), "pref_type_all"),
		),
	)
}

// SearchGenderKeyboard offers the legacy single gender filter.
func (b *Bot) SearchGenderKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👨 Чоловік", "search_male"),
			tgbotapi.NewInlineKeyboardButtonData("👩 Жінка", "search_female"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎲 Будь-хто", "search_any"),
		),
	)
}
