package bot

import (
	"fmt"

	"anonchat-bot/internal/chat"
	"anonchat-bot/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// The Bot is the chat engine's Notifier: all engine-originated traffic goes
// out through these methods.

func (b *Bot) SendText(userID int64, text string) error {
	return b.SendMessage(userID, text, nil)
}

func (b *Bot) SendConnected(userID int64, partner *models.User, viewerTier models.Tier, ratingLine string, viaRequest bool) error {
	header := "🎉 Знайшов співрозмовника!\n\n"
	if viaRequest {
		header = "🎉 Підключено за запитом!\n\n"
	}

	details := ""
	if viewerTier != models.TierRegular {
		gender := "Хлопець"
		if partner.Gender == models.GenderFemale {
			gender = "Дівчина"
		}
		details = fmt.Sprintf("👤 Співрозмовник: %s, %d років, %s\n", gender, partner.Age, partner.Country)

		if viewerTier == models.TierPro {
			details += fmt.Sprintf("🆔 ID: %d\n", partner.UserID)
		}
		details += "\n"
	}

	text := header +
		details +
		ratingLine + "\n\n" +
		"📋 Команди:\n" +
		"/next - Наступний співрозмовник\n" +
		"/stop - Завершити чат"

	return b.SendMessage(userID, text, nil)
}

func (b *Bot) SendChatEnded(userID, partnerID int64, viewerTier models.Tier, stoppedByMe bool) error {
	notice := "✅ Співрозмовник зупинив розмову."
	if stoppedByMe {
		notice = "✅ Ви зупинили розмову."
	}
	if err := b.SendMessage(userID, notice, nil); err != nil {
		return err
	}

	prompt := "Оцініть вашого співрозмовника:"
	switch viewerTier {
	case models.TierPro:
		prompt += " 🌟"
	case models.TierPremium:
		prompt += " 💎"
	}

	keyboard := b.ChatEndKeyboard(partnerID, viewerTier)
	return b.SendMessage(userID, prompt, keyboard)
}

// ForwardContent relays text verbatim and media by re-sending the same file
// reference.
func (b *Bot) ForwardContent(userID int64, content chat.Content) error {
	if content.Kind == chat.ContentText {
		return b.SendMessage(userID, content.Text, nil)
	}

	msg, err := mediaMessage(userID, content)
	if err != nil {
		return err
	}

	_, err = b.API.Send(msg)
	return err
}

// SendMediaToChannel posts archived media into the operator archive channel.
func (b *Bot) SendMediaToChannel(kind chat.ContentKind, fileID, caption string) error {
	msg, err := mediaMessage(b.ArchiveChannelID, chat.Content{Kind: kind, FileID: fileID, Caption: caption})
	if err != nil {
		return err
	}

	_, err = b.API.Send(msg)
	return err
}

func mediaMessage(chatID int64, content chat.Content) (tgbotapi.Chattable, error) {
	file := tgbotapi.FileID(content.FileID)

	switch content.Kind {
	case chat.ContentPhoto:
		msg := tgbotapi.NewPhoto(chatID, file)
		msg.Caption = content.Caption
		return msg, nil
	case chat.ContentVideo:
		msg := tgbotapi.NewVideo(chatID, file)
		msg.Caption = content.Caption
		return msg, nil
	case chat.ContentAudio:
		msg := tgbotapi.NewAudio(chatID, file)
		msg.Caption = content.Caption
		return msg, nil
	case chat.ContentVoice:
		return tgbotapi.NewVoice(chatID, file), nil
	case chat.ContentDocument:
		msg := tgbotapi.NewDocument(chatID, file)
		msg.Caption = content.Caption
		return msg, nil
	case chat.ContentSticker:
		return tgbotapi.NewSticker(chatID, file), nil
	case chat.ContentAnimation:
		msg := tgbotapi.NewAnimation(chatID, file)
		msg.Caption = content.Caption
		return msg, nil
	default:
		return nil, fmt.Errorf("unsupported media kind: %s", content.Kind)
	}
}
