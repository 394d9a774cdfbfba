package presence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeActivity struct {
	lastSeen map[int64]time.Time
	notified map[string]bool
}

func (f *fakeActivity) LastActivity(ctx context.Context, userID int64) (time.Time, error) {
	return f.lastSeen[userID], nil
}

func (f *fakeActivity) MarkNotified(ctx context.Context, userID int64, day string) (bool, error) {
	key := fmt.Sprintf("%s:%d", day, userID)
	if f.notified[key] {
		return false, nil
	}
	f.notified[key] = true
	return true, nil
}

type fakeUsers struct{ ids []int64 }

func (f *fakeUsers) ListAllUserIDs() ([]int64, error) { return f.ids, nil }

type fakeSender struct {
	mu    sync.Mutex
	sent  []int64
	fails int
}

func (f *fakeSender) SendText(userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails > 0 {
		f.fails--
		return errors.New("flood control")
	}
	f.sent = append(f.sent, userID)
	return nil
}

func newSweepFixture(ids ...int64) (*Sweeper, *fakeActivity, *fakeSender) {
	activity := &fakeActivity{
		lastSeen: make(map[int64]time.Time),
		notified: make(map[string]bool),
	}
	sender := &fakeSender{}
	s := NewSweeper(activity, &fakeUsers{ids: ids}, sender, time.Hour)
	return s, activity, sender
}

func TestSweepNudgesOnlyInactiveUsers(t *testing.T) {
	s, activity, sender := newSweepFixture(1, 2, 3)

	activity.lastSeen[1] = time.Now().Add(-13 * time.Hour)
	activity.lastSeen[2] = time.Now().Add(-time.Hour)
	// 3 was never seen at all; the zero value also counts as inactive.

	s.sweep(context.Background())

	assert.ElementsMatch(t, []int64{1, 3}, sender.sent)
}

func TestSweepNotifiesOncePerDay(t *testing.T) {
	s, activity, sender := newSweepFixture(1)
	activity.lastSeen[1] = time.Now().Add(-24 * time.Hour)

	s.sweep(context.Background())
	s.sweep(context.Background())

	assert.Len(t, sender.sent, 1)
}

func TestSweepRetriesFailedNudge(t *testing.T) {
	s, activity, sender := newSweepFixture(1)
	activity.lastSeen[1] = time.Now().Add(-24 * time.Hour)
	sender.fails = 1

	s.sweep(context.Background())

	assert.Equal(t, []int64{1}, sender.sent, "a transient send failure is retried")
}
