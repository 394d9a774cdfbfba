package presence

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Volatile activity state kept in Redis: last-seen timestamps, chatting
// flags, per-day notification markers and message/chat counters. Losing this
// state degrades notifications and statistics, never chat correctness.

const (
	keyLastActivity = "activity:last:"
	keyChatting     = "activity:chatting:"
	keyNotified     = "activity:notified:"
	keyMsgCount     = "stats:messages:"
	keyChatCount    = "stats:chats:"
)

// notifiedTTL keeps daily markers around long enough to survive a sweep
// retry without double-sending.
const notifiedTTL = 48 * time.Hour

type Tracker struct {
	rdb *redis.Client
}

func NewTracker(rdb *redis.Client) *Tracker {
	return &Tracker{rdb: rdb}
}

func (t *Tracker) Touch(ctx context.Context, userID int64) error {
	return t.rdb.Set(ctx, keyLastActivity+strconv.FormatInt(userID, 10),
		time.Now().Unix(), 0).Err()
}

// SetChatting flips the chatting flag and reports whether the value actually
// changed, so callers can fire activity alerts only on transitions.
func (t *Tracker) SetChatting(ctx context.Context, userID int64, chatting bool) (bool, error) {
	key := keyChatting + strconv.FormatInt(userID, 10)

	value := "0"
	if chatting {
		value = "1"
	}

	prev, err := t.rdb.GetSet(ctx, key, value).Result()
	if err == redis.Nil {
		prev = "0"
	} else if err != nil {
		return false, fmt.Errorf("failed to set chatting flag: %w", err)
	}

	if err := t.Touch(ctx, userID); err != nil {
		return false, err
	}

	return prev != value, nil
}

func (t *Tracker) IsChatting(ctx context.Context, userID int64) (bool, error) {
	value, err := t.rdb.Get(ctx, keyChatting+strconv.FormatInt(userID, 10)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return value == "1", nil
}

// LastActivity returns the user's last-seen time, zero if never seen.
func (t *Tracker) LastActivity(ctx context.Context, userID int64) (time.Time, error) {
	value, err := t.rdb.Get(ctx, keyLastActivity+strconv.FormatInt(userID, 10)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	unix, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse last activity: %w", err)
	}

	return time.Unix(unix, 0), nil
}

// MarkNotified records the per-day "already notified" marker. Returns false
// when the user was already marked for that day, which is the idempotency
// guard for the sweeper.
func (t *Tracker) MarkNotified(ctx context.Context, userID int64, day string) (bool, error) {
	key := keyNotified + day + ":" + strconv.FormatInt(userID, 10)
	return t.rdb.SetNX(ctx, key, "1", notifiedTTL).Result()
}

func (t *Tracker) IncrMessages(ctx context.Context, userID int64) error {
	return t.rdb.Incr(ctx, keyMsgCount+strconv.FormatInt(userID, 10)).Err()
}

func (t *Tracker) IncrChats(ctx context.Context, userID int64) error {
	return t.rdb.Incr(ctx, keyChatCount+strconv.FormatInt(userID, 10)).Err()
}

// Counters returns the user's lifetime message and chat counts. Missing keys
// read as zero.
func (t *Tracker) Counters(ctx context.Context, userID int64) (messages, chats int64, err error) {
	id := strconv.FormatInt(userID, 10)

	values, err := t.rdb.MGet(ctx, keyMsgCount+id, keyChatCount+id).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read counters: %w", err)
	}

	parse := func(v interface{}) int64 {
		s, ok := v.(string)
		if !ok {
			return 0
		}
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	}

	return parse(values[0]), parse(values[1]), nil
}
