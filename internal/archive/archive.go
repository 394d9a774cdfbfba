package archive

import (
	"context"
	"sync"

	"anonchat-bot/internal/chat"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChannelSender posts media into the operator archive channel.
type ChannelSender interface {
	SendMediaToChannel(kind chat.ContentKind, fileID, caption string) error
}

type pairKey struct {
	lo, hi int64
}

func keyFor(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

type bufferedMedia struct {
	senderID int64
	content  chat.Content
}

// MediaArchive buffers media references exchanged during a session and, when
// the session ends, mirrors them into the archive channel under one batch
// key. The buffer is dropped afterwards whether or not the mirroring
// succeeded.
type MediaArchive struct {
	sender    ChannelSender
	channelID int64

	mu     sync.Mutex
	buffer map[pairKey][]bufferedMedia
}

func New(sender ChannelSender, channelID int64) *MediaArchive {
	return &MediaArchive{
		sender:    sender,
		channelID: channelID,
		buffer:    make(map[pairKey][]bufferedMedia),
	}
}

func (a *MediaArchive) RecordMedia(userA, userB int64, content chat.Content) {
	if !content.IsMedia() || a.channelID == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := keyFor(userA, userB)
	a.buffer[key] = append(a.buffer[key], bufferedMedia{senderID: userA, content: content})
}

// ProcessSessionEnd drains the pair's buffer and re-sends every media
// reference to the archive channel. Per-item failures are logged and do not
// stop the batch.
func (a *MediaArchive) ProcessSessionEnd(ctx context.Context, userA, userB int64) {
	key := keyFor(userA, userB)

	a.mu.Lock()
	items := a.buffer[key]
	delete(a.buffer, key)
	a.mu.Unlock()

	if len(items) == 0 || a.channelID == 0 {
		return
	}

	batchID := uuid.NewString()
	for _, item := range items {
		if ctx.Err() != nil {
			return
		}

		caption := "batch " + batchID
		if item.content.Caption != "" {
			caption += " | " + item.content.Caption
		}

		if err := a.sender.SendMediaToChannel(item.content.Kind, item.content.FileID, caption); err != nil {
			zap.L().Warn("failed to archive media",
				zap.Int64("user_id", item.senderID),
				zap.String("batch", batchID),
				zap.Error(err))
		}
	}

	zap.L().Info("media archive batch processed",
		zap.String("batch", batchID),
		zap.Int("items", len(items)))
}
