package archive

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"anonchat-bot/internal/chat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentItem struct {
	kind    chat.ContentKind
	fileID  string
	caption string
}

type fakeChannel struct {
	mu   sync.Mutex
	sent []sentItem
	err  error
}

func (c *fakeChannel) SendMediaToChannel(kind chat.ContentKind, fileID, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentItem{kind, fileID, caption})
	return c.err
}

func TestProcessSessionEndMirrorsBufferedMedia(t *testing.T) {
	channel := &fakeChannel{}
	a := New(channel, 777)

	a.RecordMedia(1, 2, chat.Content{Kind: chat.ContentPhoto, FileID: "p1"})
	a.RecordMedia(2, 1, chat.Content{Kind: chat.ContentVideo, FileID: "v1", Caption: "кіт"})
	a.RecordMedia(1, 2, chat.Content{Kind: chat.ContentText, Text: "привіт"})

	a.ProcessSessionEnd(context.Background(), 1, 2)

	require.Len(t, channel.sent, 2, "text never reaches the archive")
	assert.Equal(t, "p1", channel.sent[0].fileID)
	assert.Equal(t, "v1", channel.sent[1].fileID)

	// Both items share one batch key, captions survive.
	batch := strings.Fields(channel.sent[0].caption)[1]
	assert.Contains(t, channel.sent[1].caption, "batch "+batch)
	assert.Contains(t, channel.sent[1].caption, "кіт")
}

func TestProcessSessionEndDrainsOnce(t *testing.T) {
	channel := &fakeChannel{}
	a := New(channel, 777)

	a.RecordMedia(1, 2, chat.Content{Kind: chat.ContentPhoto, FileID: "p1"})
	a.ProcessSessionEnd(context.Background(), 2, 1)
	a.ProcessSessionEnd(context.Background(), 1, 2)

	assert.Len(t, channel.sent, 1, "pair key is order-insensitive and drained once")
}

func TestProcessSessionEndSurvivesSendFailures(t *testing.T) {
	channel := &fakeChannel{err: errors.New("channel gone")}
	a := New(channel, 777)

	a.RecordMedia(1, 2, chat.Content{Kind: chat.ContentPhoto, FileID: "p1"})
	a.RecordMedia(1, 2, chat.Content{Kind: chat.ContentPhoto, FileID: "p2"})
	a.ProcessSessionEnd(context.Background(), 1, 2)

	assert.Len(t, channel.sent, 2, "a failed item does not stop the batch")
}

func TestRecordMediaDisabledWithoutChannel(t *testing.T) {
	channel := &fakeChannel{}
	a := New(channel, 0)

	a.RecordMedia(1, 2, chat.Content{Kind: chat.ContentPhoto, FileID: "p1"})
	a.ProcessSessionEnd(context.Background(), 1, 2)

	assert.Empty(t, channel.sent)
}
