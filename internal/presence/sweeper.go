package presence

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// inactiveAfter is how long without activity before a user is nudged.
const inactiveAfter = 12 * time.Hour

type UserLister interface {
	ListAllUserIDs() ([]int64, error)
}

type TextSender interface {
	SendText(userID int64, text string) error
}

// ActivityReader is the slice of Tracker the sweeper needs.
type ActivityReader interface {
	LastActivity(ctx context.Context, userID int64) (time.Time, error)
	MarkNotified(ctx context.Context, userID int64, day string) (bool, error)
}

// Sweeper periodically nudges users who have been inactive for 12+ hours,
// at most once per calendar day. The daily Redis marker, not task-level
// locking, is what keeps an interrupted sweep from double-sending.
type Sweeper struct {
	tracker  ActivityReader
	users    UserLister
	sender   TextSender
	interval time.Duration
}

func NewSweeper(tracker ActivityReader, users UserLister, sender TextSender, interval time.Duration) *Sweeper {
	return &Sweeper{
		tracker:  tracker,
		users:    users,
		sender:   sender,
		interval: interval,
	}
}

func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	userIDs, err := s.users.ListAllUserIDs()
	if err != nil {
		zap.L().Error("failed to list users for sweep", zap.Error(err))
		return
	}

	day := time.Now().Format("2006-01-02")
	sent := 0

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}

		last, err := s.tracker.LastActivity(ctx, userID)
		if err != nil {
			zap.L().Debug("failed to read last activity", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		if !last.IsZero() && time.Since(last) < inactiveAfter {
			continue
		}

		first, err := s.tracker.MarkNotified(ctx, userID, day)
		if err != nil || !first {
			continue
		}

		if err := s.sendNudge(ctx, userID); err != nil {
			zap.L().Debug("failed to send activity nudge", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		sent++
	}

	if sent > 0 {
		zap.L().Info("activity sweep complete", zap.Int("notified", sent))
	}
}

func (s *Sweeper) sendNudge(ctx context.Context, userID int64) error {
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.sender.SendText(userID,
			"👋 Давно вас не було!\n\nУ чаті зараз є співрозмовники. Спробуйте /search")
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
