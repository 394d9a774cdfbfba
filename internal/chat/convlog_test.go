package chat

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConversationLogLabelsBothSides(t *testing.T) {
	l := NewConversationLog()
	now := time.Date(2025, 6, 1, 15, 4, 0, 0, time.UTC)

	l.Record(1, 2, "привіт", now)

	assert.Equal(t, "[15:04] Підозрюваний: привіт", l.Flush(1))
	assert.Equal(t, "[15:04] Інкогніто: привіт", l.Flush(2))
}

func TestConversationLogCapsAtFiftyLines(t *testing.T) {
	l := NewConversationLog()
	now := time.Now()

	for i := 0; i < 60; i++ {
		l.Record(1, 2, fmt.Sprintf("msg %d", i), now)
	}

	assert.Equal(t, maxLogLines, l.Len(1))

	lines := strings.Split(l.Flush(1), "\n")
	assert.Len(t, lines, maxLogLines)
	assert.Contains(t, lines[0], "msg 10", "oldest lines are discarded first")
	assert.Contains(t, lines[len(lines)-1], "msg 59")
}

func TestConversationLogFlushClears(t *testing.T) {
	l := NewConversationLog()

	l.Record(1, 2, "hi", time.Now())
	assert.NotEmpty(t, l.Flush(1))
	assert.Empty(t, l.Flush(1))
	assert.Zero(t, l.Len(1))
}

func TestContentLogLine(t *testing.T) {
	assert.Equal(t, "привіт", Content{Kind: ContentText, Text: "привіт"}.LogLine())
	assert.Equal(t, "[Фото]", Content{Kind: ContentPhoto, FileID: "f"}.LogLine())
	assert.Equal(t, "[Фото] підпис", Content{Kind: ContentPhoto, FileID: "f", Caption: "підпис"}.LogLine())
	assert.Equal(t, "[Голосове повідомлення]", Content{Kind: ContentVoice, FileID: "v"}.LogLine())
}
