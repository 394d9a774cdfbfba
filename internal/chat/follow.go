package chat

import "sync"

// FollowRegistry tracks which operators are mirroring which users'
// conversations. It is process-wide injected state guarded by its own lock,
// populated by admin commands and cleared when an operator unfollows.
type FollowRegistry struct {
	mu      sync.RWMutex
	follows map[int64]map[int64]struct{} // admin id -> followed user ids
}

func NewFollowRegistry() *FollowRegistry {
	return &FollowRegistry{
		follows: make(map[int64]map[int64]struct{}),
	}
}

func (r *FollowRegistry) Follow(adminID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.follows[adminID] == nil {
		r.follows[adminID] = make(map[int64]struct{})
	}
	r.follows[adminID][userID] = struct{}{}
}

func (r *FollowRegistry) Unfollow(adminID, userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.follows[adminID], userID)
	if len(r.follows[adminID]) == 0 {
		delete(r.follows, adminID)
	}
}

// FollowersOf returns the operators mirroring either side of a conversation.
func (r *FollowRegistry) FollowersOf(userIDs ...int64) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var admins []int64
	for adminID, followed := range r.follows {
		for _, userID := range userIDs {
			if _, ok := followed[userID]; ok {
				admins = append(admins, adminID)
				break
			}
		}
	}

	return admins
}
