package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFollowRegistry(t *testing.T) {
	r := NewFollowRegistry()

	assert.Empty(t, r.FollowersOf(1, 2))

	r.Follow(100, 1)
	r.Follow(200, 2)
	r.Follow(200, 3)

	assert.ElementsMatch(t, []int64{100, 200}, r.FollowersOf(1, 2))
	assert.Equal(t, []int64{200}, r.FollowersOf(3))

	// One admin following both sides is reported once.
	r.Follow(100, 2)
	assert.ElementsMatch(t, []int64{100, 200}, r.FollowersOf(1, 2))

	r.Unfollow(100, 1)
	r.Unfollow(100, 2)
	assert.Equal(t, []int64{200}, r.FollowersOf(1, 2))

	// Unfollowing an unknown pair is a no-op.
	r.Unfollow(999, 1)
}
