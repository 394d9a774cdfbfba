package chat

import (
	"context"
	"fmt"
	"time"

	"anonchat-bot/internal/models"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Matchmaker picks a partner for a searching user. Pending requests
// addressed to the searcher always win over queue scanning: return requests
// first, then follow-up requests, then standard in-room matching.
type Matchmaker struct {
	store    Store
	presence Presence
	now      func() time.Time

	// onChattingChange fires whenever a user's chatting flag actually flips,
	// never on a redundant set. Wired by the Controller.
	onChattingChange func(userID int64, chatting bool)
}

func NewMatchmaker(store Store, presence Presence) *Matchmaker {
	return &Matchmaker{
		store:    store,
		presence: presence,
		now:      time.Now,
	}
}

// Match is the outcome of one matchmaking attempt.
type Match struct {
	PartnerID  int64
	ViaRequest bool
}

// FindPartner resolves a partner for userID, connects the pair and marks
// both as chatting. Returns nil when nobody suitable is waiting, which
// leaves the searcher queued.
func (m *Matchmaker) FindPartner(ctx context.Context, userID int64) (*Match, error) {
	// Return requests take absolute priority, even over the searcher's own
	// filters.
	fromID, err := m.store.PendingReturnRequestFor(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check return requests: %w", err)
	}
	if fromID != 0 {
		free, err := m.requesterFree(fromID)
		if err != nil {
			return nil, err
		}
		if free {
			if err := m.connect(ctx, userID, fromID); err != nil {
				return nil, err
			}
			if err := m.store.AcceptReturnRequest(fromID, userID); err != nil {
				zap.L().Warn("failed to accept return request", zap.Int64("from", fromID), zap.Int64("to", userID), zap.Error(err))
			}
			// A reunited pair connects with the regular announcement, not the
			// "request accepted" one.
			return &Match{PartnerID: fromID}, nil
		}
		// The requester is mid-chat with someone else. The request stays
		// pending and the search falls through to the next priority level.
	}

	fromID, err = m.store.PendingChatRequestFor(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check chat requests: %w", err)
	}
	if fromID != 0 {
		free, err := m.requesterFree(fromID)
		if err != nil {
			return nil, err
		}
		if free {
			if err := m.connect(ctx, userID, fromID); err != nil {
				return nil, err
			}
			if err := m.store.AcceptChatRequest(fromID, userID); err != nil {
				zap.L().Warn("failed to accept chat request", zap.Int64("from", fromID), zap.Int64("to", userID), zap.Error(err))
			}
			return &Match{PartnerID: fromID, ViaRequest: true}, nil
		}
	}

	partnerID, err := m.findInQueue(userID)
	if err != nil {
		return nil, err
	}
	if partnerID == 0 {
		return nil, nil // still waiting
	}

	if err := m.connect(ctx, userID, partnerID); err != nil {
		return nil, err
	}

	return &Match{PartnerID: partnerID}, nil
}

// requesterFree reports whether the author of a pending request can still be
// connected. A requester who got matched elsewhere in the meantime would trip
// the one-partner constraint, so such a request is skipped, not honored.
func (m *Matchmaker) requesterFree(fromID int64) (bool, error) {
	partnerID, err := m.store.GetPartner(fromID)
	if err != nil {
		return false, fmt.Errorf("failed to check requester availability: %w", err)
	}
	return partnerID == 0, nil
}

// findInQueue scans the searcher's room in join order and returns the first
// surviving candidate, or 0.
func (m *Matchmaker) findInQueue(userID int64) (int64, error) {
	entry, err := m.store.GetWaitingEntry(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read own queue entry: %w", err)
	}

	roomID := models.RoomGeneral
	var searchGender *models.Gender
	if entry != nil {
		roomID = entry.RoomID
		searchGender = entry.SearchGender
	} else {
		// Tolerate being called for a user who never enqueued.
		roomID, err = m.store.GetUserRoom(userID)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve room: %w", err)
		}
	}

	user, err := m.store.GetUser(userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load searcher: %w", err)
	}
	if user == nil {
		return 0, nil
	}

	if user.IsPremium(m.now()) {
		prefs, err := m.store.GetSearchPreferences(userID)
		if err != nil {
			return 0, fmt.Errorf("failed to load search preferences: %w", err)
		}
		if prefs.HasAny() {
			return m.findWithPreferences(userID, roomID, prefs)
		}
	}

	// Legacy single-filter path: the stored filter is matched against each
	// candidate's own stored search gender (NULL passes), preserving the
	// historical asymmetric semantics.
	candidates, err := m.store.ListWaiting(roomID, searchGender, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list waiting users: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	return candidates[0], nil
}

// findWithPreferences applies all four extended filters conjunctively and
// picks the first surviving candidate in queue order.
func (m *Matchmaker) findWithPreferences(userID int64, roomID models.RoomID, prefs models.SearchPreferences) (int64, error) {
	candidates, err := m.store.ListWaiting(roomID, nil, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list waiting users: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	profiles, err := m.store.GetUsersByIDs(candidates)
	if err != nil {
		return 0, fmt.Errorf("failed to load candidate profiles: %w", err)
	}

	now := m.now()
	for _, candidateID := range candidates {
		candidate, ok := profiles[candidateID]
		if !ok {
			continue
		}
		if m.matchesPreferences(candidate, prefs, now) {
			return candidateID, nil
		}
	}

	return 0, nil
}

func (m *Matchmaker) matchesPreferences(candidate *models.User, prefs models.SearchPreferences, now time.Time) bool {
	if prefs.Gender != "" && prefs.Gender != "any" {
		if candidate.Gender != models.Gender(prefs.Gender) {
			return false
		}
	}

	if prefs.AgeRange != "" && prefs.AgeRange != "any" {
		bounds, ok := models.AgeBuckets[prefs.AgeRange]
		if ok && (candidate.Age < bounds[0] || candidate.Age > bounds[1]) {
			return false
		}
	}

	if len(prefs.Countries) > 0 {
		match := lo.SomeBy(prefs.Countries, func(code string) bool {
			if display, ok := models.CountryNames[code]; ok {
				return display == candidate.Country
			}
			return code == candidate.Country
		})
		if !match {
			return false
		}
	}

	if prefs.UserType != "" && prefs.UserType != "all" {
		premium := candidate.IsPremium(now)
		pro := candidate.IsPro(now)

		switch prefs.UserType {
		case "premium":
			if !premium && !pro {
				return false
			}
		case "regular":
			// PRO status stays invisible to the "regular only" filter so PRO
			// users remain maximally matchable.
			if premium && !pro {
				return false
			}
		}
	}

	return true
}

// connect claims the pair atomically (dequeue both, insert both session
// rows) and flags both as chatting.
func (m *Matchmaker) connect(ctx context.Context, userID, partnerID int64) error {
	if err := m.store.MatchConnect(userID, partnerID); err != nil {
		return fmt.Errorf("failed to claim pair %d/%d: %w", userID, partnerID, err)
	}

	for _, id := range []int64{userID, partnerID} {
		changed, err := m.presence.SetChatting(ctx, id, true)
		if err != nil {
			zap.L().Warn("failed to mark chatting", zap.Int64("user_id", id), zap.Error(err))
		}
		if changed && m.onChattingChange != nil {
			go m.onChattingChange(id, true)
		}
		if err := m.presence.IncrChats(ctx, id); err != nil {
			zap.L().Debug("failed to bump chat counter", zap.Int64("user_id", id), zap.Error(err))
		}
	}

	return nil
}
