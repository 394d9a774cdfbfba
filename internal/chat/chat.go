package chat

import (
	"context"
	"time"

	"anonchat-bot/internal/models"
)

// Store is the persistent state the chat engine runs against. Implemented by
// *database.DB; tests substitute an in-memory fake.
type Store interface {
	// Waiting queue
	AddWaiting(userID int64, searchGender *models.Gender, roomID models.RoomID) error
	RemoveWaiting(userID int64) error
	IsWaiting(userID int64) (bool, error)
	GetWaitingEntry(userID int64) (*models.WaitingEntry, error)
	ListWaiting(roomID models.RoomID, searchGender *models.Gender, excludeID int64) ([]int64, error)

	// Active sessions
	MatchConnect(userID, partnerID int64) error
	GetPartner(userID int64) (int64, error)
	Disconnect(userID int64) (int64, error)
	SessionStartedAt(userID int64) (time.Time, error)
	SaveLastPartner(userID, partnerID, chatDuration int64) error
	GetLastPartner(userID int64) (int64, error)

	// Rooms
	GetUserRoom(userID int64) (models.RoomID, error)

	// Request ledgers
	CreateChatRequest(fromUserID, toUserID int64) (bool, error)
	PendingChatRequestFor(toUserID int64) (int64, error)
	AcceptChatRequest(fromUserID, toUserID int64) error
	CreateReturnRequest(fromUserID, toUserID int64) error
	PendingReturnRequestFor(toUserID int64) (int64, error)
	AcceptReturnRequest(fromUserID, toUserID int64) error
	CancelReturnRequests(fromUserID int64) error
	HasPendingReturnRequest(fromUserID int64) (bool, error)

	// Directory
	GetUser(userID int64) (*models.User, error)
	GetUsersByIDs(ids []int64) (map[int64]*models.User, error)
	GetSearchPreferences(userID int64) (models.SearchPreferences, error)
	IsBlocked(userID int64) (bool, error)
	GetRating(userID int64) (*models.Rating, error)
	SubscribersForFriend(friendID int64) ([]models.Friend, error)

	// Moderation archive
	SaveConversation(userID, partnerID int64, transcript string) error
}

// Presence tracks volatile activity state (chatting flags, counters).
// Presence failures never abort a chat operation.
type Presence interface {
	Touch(ctx context.Context, userID int64) error
	// SetChatting flips the chatting flag and reports whether it changed.
	SetChatting(ctx context.Context, userID int64, chatting bool) (bool, error)
	IncrMessages(ctx context.Context, userID int64) error
	IncrChats(ctx context.Context, userID int64) error
}

// Notifier is the outbound side of the messaging transport. All sends are
// best-effort from the engine's point of view.
type Notifier interface {
	SendText(userID int64, text string) error
	// SendConnected announces a new partner. What the viewer sees depends on
	// their own tier: premium viewers get the partner profile line, PRO
	// viewers additionally get the partner id.
	SendConnected(userID int64, partner *models.User, viewerTier models.Tier, ratingLine string, viaRequest bool) error
	// SendChatEnded delivers the end notice and the rating keyboard whose
	// buttons depend on the viewer's own tier.
	SendChatEnded(userID, partnerID int64, viewerTier models.Tier, stoppedByMe bool) error
	ForwardContent(userID int64, content Content) error
}

// Archiver runs end-of-session post-processing (media archive mirroring).
type Archiver interface {
	RecordMedia(userA, userB int64, content Content)
	ProcessSessionEnd(ctx context.Context, userA, userB int64)
}

// SubscriptionChecker gates search behind required channel membership.
type SubscriptionChecker interface {
	IsSubscribed(userID int64) (bool, error)
}
