package chat

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"anonchat-bot/internal/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// linkCooldown is how long after session start URL-looking text is refused.
const linkCooldown = 15 * time.Second

var linkPattern = regexp.MustCompile(`(?i)(https?://\S+|www\.\S+|\S+\.[a-z]{2,}(/\S*)?)`)

// Controller orchestrates the session lifecycle: search, connect, relay,
// terminate. Each user moves Idle -> Waiting -> Connected -> Idle; the
// rating prompt is a side effect of ending, not a state.
type Controller struct {
	store      Store
	presence   Presence
	notifier   Notifier
	matchmaker *Matchmaker
	convlog    *ConversationLog
	archiver   Archiver
	subs       SubscriptionChecker
	follows    *FollowRegistry
	now        func() time.Time
}

func NewController(
	store Store,
	presence Presence,
	notifier Notifier,
	matchmaker *Matchmaker,
	convlog *ConversationLog,
	archiver Archiver,
	subs SubscriptionChecker,
	follows *FollowRegistry,
) *Controller {
	c := &Controller{
		store:      store,
		presence:   presence,
		notifier:   notifier,
		matchmaker: matchmaker,
		convlog:    convlog,
		archiver:   archiver,
		subs:       subs,
		follows:    follows,
		now:        time.Now,
	}
	matchmaker.onChattingChange = c.notifyActivityFlip
	return c
}

// StartSearch enqueues the user and immediately attempts a match.
// Precondition violations are reported to the user and are never errors.
func (c *Controller) StartSearch(ctx context.Context, userID int64) error {
	blocked, err := c.store.IsBlocked(userID)
	if err != nil {
		return fmt.Errorf("failed to check block status: %w", err)
	}
	if blocked {
		return c.notifier.SendText(userID, "🚫 Доступ до анонімного чату заборонено.")
	}

	if subscribed, err := c.subs.IsSubscribed(userID); err == nil && !subscribed {
		return c.notifier.SendText(userID,
			"📢 Щоб користуватися чатом, підпишіться на обов'язкові канали та спробуйте ще раз.")
	}

	partnerID, err := c.store.GetPartner(userID)
	if err != nil {
		return fmt.Errorf("failed to check partner: %w", err)
	}
	if partnerID != 0 {
		return c.notifier.SendText(userID,
			"Ви вже у чаті! Завершіть поточний чат перед пошуком нового співрозмовника.")
	}

	if changed, err := c.presence.SetChatting(ctx, userID, false); err != nil {
		zap.L().Debug("failed to update presence", zap.Int64("user_id", userID), zap.Error(err))
	} else if changed {
		go c.notifyActivityFlip(userID, false)
	}

	waiting, err := c.store.IsWaiting(userID)
	if err != nil {
		return fmt.Errorf("failed to check queue: %w", err)
	}
	if waiting {
		return c.notifier.SendText(userID, "Ви вже шукаєте співрозмовника!")
	}

	// A fresh search always supersedes the user's own pending return
	// request.
	hasReturn, err := c.store.HasPendingReturnRequest(userID)
	if err != nil {
		return fmt.Errorf("failed to check return request: %w", err)
	}
	if hasReturn {
		if err := c.store.CancelReturnRequests(userID); err != nil {
			return fmt.Errorf("failed to cancel return request: %w", err)
		}
		c.send(userID,
			"⚠️ З'єднання з минулим співрозмовником було відмінено, оскільки ви розпочали звичайний пошук.\n\n"+
				"Щоб зупинити пошук, використайте команду /stop")
	}

	roomID, err := c.store.GetUserRoom(userID)
	if err != nil {
		return fmt.Errorf("failed to resolve room: %w", err)
	}

	if err := c.store.AddWaiting(userID, nil, roomID); err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}

	premiumSearch := false
	if user, err := c.store.GetUser(userID); err == nil && user != nil && user.IsPremium(c.now()) {
		if prefs, err := c.store.GetSearchPreferences(userID); err == nil && prefs.HasAny() {
			premiumSearch = true
		}
	}

	if premiumSearch {
		c.send(userID, "💎 PREMIUM пошук співрозмовника...\n\nВикористовуються ваші налаштування пошуку.\nДля зупинки пошуку використайте /stop")
	} else {
		c.send(userID, "🔍 Шукаємо співрозмовника...\n\nДля зупинки пошуку використайте /stop")
	}

	go c.alertFriendWatchers(userID)

	return c.tryMatch(ctx, userID)
}

// alertFriendWatchers tells everyone who friended this user with alerts on
// that the friend is looking for a chat. Best-effort, off the search path.
func (c *Controller) alertFriendWatchers(userID int64) {
	subscribers, err := c.store.SubscribersForFriend(userID)
	if err != nil {
		zap.L().Debug("failed to load friend subscribers", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	for _, sub := range subscribers {
		c.send(sub.UserID, fmt.Sprintf("🔔 Ваш друг %s шукає співрозмовника! Спробуйте /search", sub.Name))
	}
}

// notifyActivityFlip tells everyone who friended this user with alerts on
// that the friend entered or left a chat. Fired only on actual flag
// transitions, never on redundant sets.
func (c *Controller) notifyActivityFlip(userID int64, chatting bool) {
	subscribers, err := c.store.SubscribersForFriend(userID)
	if err != nil {
		zap.L().Debug("failed to load friend subscribers", zap.Int64("user_id", userID), zap.Error(err))
		return
	}

	for _, sub := range subscribers {
		if chatting {
			c.send(sub.UserID, fmt.Sprintf("💬 Ваш друг %s зараз активний у чаті.", sub.Name))
		} else {
			c.send(sub.UserID, fmt.Sprintf("💤 Ваш друг %s більше не активний у чаті.", sub.Name))
		}
	}
}

// StartSearchByGender enqueues with a legacy single gender filter.
func (c *Controller) StartSearchByGender(ctx context.Context, userID int64, gender models.Gender) error {
	partnerID, err := c.store.GetPartner(userID)
	if err != nil {
		return fmt.Errorf("failed to check partner: %w", err)
	}
	if partnerID != 0 {
		return c.notifier.SendText(userID,
			"Ви вже у чаті! Завершіть поточний чат перед пошуком нового співрозмовника.")
	}

	waiting, err := c.store.IsWaiting(userID)
	if err != nil {
		return fmt.Errorf("failed to check queue: %w", err)
	}
	if waiting {
		return c.notifier.SendText(userID, "Ви вже шукаєте співрозмовника!")
	}

	roomID, err := c.store.GetUserRoom(userID)
	if err != nil {
		return fmt.Errorf("failed to resolve room: %w", err)
	}

	if err := c.store.AddWaiting(userID, &gender, roomID); err != nil {
		return fmt.Errorf("failed to enqueue: %w", err)
	}

	c.send(userID, "🔍 Шукаємо співрозмовника за вашим фільтром...\n\nДля зупинки пошуку використайте /stop")

	return c.tryMatch(ctx, userID)
}

func (c *Controller) tryMatch(ctx context.Context, userID int64) error {
	match, err := c.matchmaker.FindPartner(ctx, userID)
	if err != nil {
		return err
	}
	if match == nil {
		return nil // still waiting, normal outcome
	}

	c.announceConnection(userID, match.PartnerID, match.ViaRequest)
	return nil
}

// announceConnection notifies both sides. A failed send to one side never
// blocks the other.
func (c *Controller) announceConnection(userID, partnerID int64, viaRequest bool) {
	users, err := c.store.GetUsersByIDs([]int64{userID, partnerID})
	if err != nil {
		zap.L().Error("failed to load connected pair", zap.Int64("user_id", userID), zap.Int64("partner_id", partnerID), zap.Error(err))
		return
	}

	now := c.now()
	for _, side := range []struct {
		viewer, other int64
	}{{userID, partnerID}, {partnerID, userID}} {
		viewer, partner := users[side.viewer], users[side.other]
		if viewer == nil || partner == nil {
			continue
		}
		if err := c.notifier.SendConnected(side.viewer, partner, viewer.Tier(now), c.ratingLine(side.other), viaRequest); err != nil {
			zap.L().Warn("failed to announce connection", zap.Int64("user_id", side.viewer), zap.Error(err))
		}
	}
}

func (c *Controller) ratingLine(userID int64) string {
	rating, err := c.store.GetRating(userID)
	if err != nil || rating == nil {
		return "⭐ Реакції (оцінка): 0👍 0❤️ 0👎"
	}
	return fmt.Sprintf("⭐ Реакції (оцінка): %d👍 %d❤️ %d👎", rating.Good, rating.Super, rating.Bad)
}

// Stop dequeues a waiting user or ends an active session.
func (c *Controller) Stop(ctx context.Context, userID int64) error {
	partnerID, err := c.store.GetPartner(userID)
	if err != nil {
		return fmt.Errorf("failed to check partner: %w", err)
	}

	if partnerID == 0 {
		waiting, err := c.store.IsWaiting(userID)
		if err != nil {
			return fmt.Errorf("failed to check queue: %w", err)
		}
		if waiting {
			if err := c.store.RemoveWaiting(userID); err != nil {
				return fmt.Errorf("failed to dequeue: %w", err)
			}
			return c.notifier.SendText(userID, "Пошук зупинено.")
		}
		return c.notifier.SendText(userID, "Наразі ви не у чаті та не шукаєте співрозмовника.")
	}

	return c.EndSession(ctx, userID, partnerID)
}

// Next ends the current chat (if any) and immediately starts a new search.
func (c *Controller) Next(ctx context.Context, userID int64) error {
	partnerID, err := c.store.GetPartner(userID)
	if err != nil {
		return fmt.Errorf("failed to check partner: %w", err)
	}
	if partnerID != 0 {
		if err := c.EndSession(ctx, userID, partnerID); err != nil {
			return err
		}
	}

	return c.StartSearch(ctx, userID)
}

// EndSession terminates the session initiated by userID: records last
// partners, flushes transcripts, disconnects, fires archive post-processing
// and sends both parties their tier-dependent rating keyboards.
func (c *Controller) EndSession(ctx context.Context, userID, partnerID int64) error {
	started, err := c.store.SessionStartedAt(userID)
	if err != nil {
		zap.L().Warn("failed to read session start", zap.Int64("user_id", userID), zap.Error(err))
	}
	duration := int64(0)
	if !started.IsZero() {
		duration = int64(c.now().Sub(started).Seconds())
	}

	if err := c.store.SaveLastPartner(userID, partnerID, duration); err != nil {
		zap.L().Warn("failed to save last partner", zap.Int64("user_id", userID), zap.Error(err))
	}
	if err := c.store.SaveLastPartner(partnerID, userID, duration); err != nil {
		zap.L().Warn("failed to save last partner", zap.Int64("user_id", partnerID), zap.Error(err))
	}

	c.flushTranscript(userID, partnerID)
	c.flushTranscript(partnerID, userID)

	for _, id := range []int64{userID, partnerID} {
		if changed, err := c.presence.SetChatting(ctx, id, false); err != nil {
			zap.L().Debug("failed to update presence", zap.Int64("user_id", id), zap.Error(err))
		} else if changed {
			go c.notifyActivityFlip(id, false)
		}
	}

	// Disconnect must be synchronous: no new match may involve either side
	// while their rows still exist.
	if _, err := c.store.Disconnect(userID); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	go c.archiver.ProcessSessionEnd(context.WithoutCancel(ctx), userID, partnerID)

	users, err := c.store.GetUsersByIDs([]int64{userID, partnerID})
	if err != nil {
		return fmt.Errorf("failed to load pair for end notice: %w", err)
	}

	now := c.now()
	var sendErr error
	for _, side := range []struct {
		viewer, other int64
		stoppedByMe   bool
	}{{userID, partnerID, true}, {partnerID, userID, false}} {
		tier := models.TierRegular
		if u := users[side.viewer]; u != nil {
			tier = u.Tier(now)
		}
		if err := c.notifier.SendChatEnded(side.viewer, side.other, tier, side.stoppedByMe); err != nil {
			sendErr = multierr.Append(sendErr, err)
		}
	}
	if sendErr != nil {
		zap.L().Warn("failed to deliver end notices", zap.Error(sendErr))
	}

	return nil
}

func (c *Controller) flushTranscript(userID, partnerID int64) {
	transcript := c.convlog.Flush(userID)
	if transcript == "" {
		return
	}
	if err := c.store.SaveConversation(userID, partnerID, transcript); err != nil {
		zap.L().Warn("failed to archive transcript", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// Forward relays content to the sender's partner. URL-looking text inside
// the first 15 seconds of a session is refused to frustrate link spam.
func (c *Controller) Forward(ctx context.Context, senderID int64, content Content) error {
	partnerID, err := c.store.GetPartner(senderID)
	if err != nil {
		return fmt.Errorf("failed to check partner: %w", err)
	}
	if partnerID == 0 {
		return c.notifier.SendText(senderID, "Ви не у чаті з ким-небудь.")
	}

	if content.Kind == ContentText && linkPattern.MatchString(content.Text) {
		started, err := c.store.SessionStartedAt(senderID)
		if err == nil && !started.IsZero() && c.now().Sub(started) < linkCooldown {
			return c.notifier.SendText(senderID,
				"🚫 Посилання заборонені в перші 15 секунд чату.\n\n"+
					"Зачекайте трохи перед відправкою посилань для безпеки співрозмовника.")
		}
	}

	if err := c.notifier.ForwardContent(partnerID, content); err != nil {
		zap.L().Warn("failed to forward", zap.Int64("user_id", senderID), zap.Int64("partner_id", partnerID), zap.Error(err))
		return c.notifier.SendText(senderID, "Помилка при відправці повідомлення.")
	}

	line := content.LogLine()
	c.convlog.Record(senderID, partnerID, line, c.now())
	if content.IsMedia() {
		c.archiver.RecordMedia(senderID, partnerID, content)
	}

	// Admin mirroring and counters are best-effort and never block the
	// relay.
	go c.mirrorToFollowers(senderID, partnerID, line)
	go func() {
		bg := context.WithoutCancel(ctx)
		if err := c.presence.IncrMessages(bg, senderID); err != nil {
			zap.L().Debug("failed to bump message counter", zap.Int64("user_id", senderID), zap.Error(err))
		}
		if err := c.presence.Touch(bg, senderID); err != nil {
			zap.L().Debug("failed to touch presence", zap.Int64("user_id", senderID), zap.Error(err))
		}
	}()

	return nil
}

func (c *Controller) mirrorToFollowers(senderID, partnerID int64, line string) {
	for _, adminID := range c.follows.FollowersOf(senderID, partnerID) {
		text := fmt.Sprintf("👁 %d → %d:\n%s", senderID, partnerID, line)
		if err := c.notifier.SendText(adminID, text); err != nil {
			zap.L().Debug("failed to mirror to admin", zap.Int64("chat_id", adminID), zap.Error(err))
		}
	}
}

// ReturnTo files a return-to-previous-partner request (premium feature).
// A zero target resolves to the user's most recent partner.
func (c *Controller) ReturnTo(ctx context.Context, userID, targetID int64) error {
	user, err := c.store.GetUser(userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsPremium(c.now()) {
		return c.notifier.SendText(userID, "💎 Повернення до співрозмовника доступне лише Premium та PRO користувачам.")
	}

	if targetID == 0 {
		targetID, err = c.store.GetLastPartner(userID)
		if err != nil {
			return fmt.Errorf("failed to resolve last partner: %w", err)
		}
	}
	if targetID == 0 {
		return c.notifier.SendText(userID, "У вас ще не було співрозмовників.")
	}

	if partnerID, err := c.store.GetPartner(userID); err == nil && partnerID != 0 {
		return c.notifier.SendText(userID, "Ви вже у чаті! Завершіть поточний чат спочатку.")
	}

	if err := c.store.CreateReturnRequest(userID, targetID); err != nil {
		return fmt.Errorf("failed to create return request: %w", err)
	}

	return c.notifier.SendText(userID,
		"🔄 Запит на повернення створено.\n\nЯк тільки минулий співрозмовник почне пошук, вас з'єднають автоматично.")
}

// RequestChat files a follow-up request from a PRO user to an arbitrary
// target.
func (c *Controller) RequestChat(ctx context.Context, fromUserID, toUserID int64) error {
	user, err := c.store.GetUser(fromUserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil || !user.IsPro(c.now()) {
		return c.notifier.SendText(fromUserID, "🌟 Запити на чат доступні лише PRO користувачам.")
	}

	created, err := c.store.CreateChatRequest(fromUserID, toUserID)
	if err != nil {
		return fmt.Errorf("failed to create chat request: %w", err)
	}
	if !created {
		return c.notifier.SendText(fromUserID, "Запит вже існує.")
	}

	return c.notifier.SendText(fromUserID,
		"✉️ Запит відправлено.\n\nЯк тільки користувач почне пошук, вас з'єднають автоматично.")
}

func (c *Controller) send(userID int64, text string) {
	if err := c.notifier.SendText(userID, text); err != nil {
		zap.L().Debug("failed to send", zap.Int64("user_id", userID), zap.Error(err))
	}
}
