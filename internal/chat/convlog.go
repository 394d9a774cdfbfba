package chat

import (
	"strings"
	"sync"
	"time"
)

const maxLogLines = 50

// ConversationLog buffers per-user transcript lines for the duration of a
// session, capped at the last 50 lines. It is process-wide injected state,
// populated during chats and flushed to the persistent archive on session
// end.
type ConversationLog struct {
	mu    sync.RWMutex
	lines map[int64][]string
}

func NewConversationLog() *ConversationLog {
	return &ConversationLog{
		lines: make(map[int64][]string),
	}
}

// Record appends the message to both parties' logs. The sender is labelled
// "Підозрюваний" in their own log and "Інкогніто" in the partner's.
func (l *ConversationLog) Record(senderID, receiverID int64, line string, now time.Time) {
	stamp := now.Format("15:04")

	l.mu.Lock()
	defer l.mu.Unlock()

	l.append(senderID, "["+stamp+"] Підозрюваний: "+line)
	l.append(receiverID, "["+stamp+"] Інкогніто: "+line)
}

func (l *ConversationLog) append(userID int64, line string) {
	lines := append(l.lines[userID], line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	l.lines[userID] = lines
}

// Flush returns the user's flattened transcript and clears their buffer.
// Returns "" when nothing was recorded.
func (l *ConversationLog) Flush(userID int64) string {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := l.lines[userID]
	delete(l.lines, userID)

	return strings.Join(lines, "\n")
}

func (l *ConversationLog) Len(userID int64) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.lines[userID])
}
