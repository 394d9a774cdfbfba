package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"anonchat-bot/internal/models"
)

// fakeStore is an in-memory Store with the same visible semantics as the
// Postgres implementation: a join-ordered queue, directed session rows with
// an at-most-one-partner guarantee and upsert-style request ledgers.
type fakeStore struct {
	mu sync.Mutex

	users   map[int64]*models.User
	prefs   map[int64]models.SearchPreferences
	blocked map[int64]bool
	ratings map[int64]*models.Rating
	rooms   map[int64]models.RoomID

	queue    []*models.WaitingEntry
	joinSeq  time.Time
	sessions map[int64]*models.ActiveSession

	lastPartners   map[int64]*models.LastPartner
	chatRequests   []*models.ChatRequest
	returnRequests []*models.ChatRequest

	conversations map[int64][]string
	friendSubs    map[int64][]models.Friend

	clock func() time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:         make(map[int64]*models.User),
		prefs:         make(map[int64]models.SearchPreferences),
		blocked:       make(map[int64]bool),
		ratings:       make(map[int64]*models.Rating),
		rooms:         make(map[int64]models.RoomID),
		sessions:      make(map[int64]*models.ActiveSession),
		lastPartners:  make(map[int64]*models.LastPartner),
		conversations: make(map[int64][]string),
		friendSubs:    make(map[int64][]models.Friend),
		joinSeq:       time.Unix(1700000000, 0),
		clock:         time.Now,
	}
}

func (s *fakeStore) addUser(u *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = u
}

func (s *fakeStore) AddWaiting(userID int64, searchGender *models.Gender, roomID models.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.queue {
		if entry.UserID == userID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			break
		}
	}
	s.joinSeq = s.joinSeq.Add(time.Second)
	s.queue = append(s.queue, &models.WaitingEntry{
		UserID:       userID,
		SearchGender: searchGender,
		RoomID:       roomID,
		JoinedAt:     s.joinSeq,
	})
	return nil
}

func (s *fakeStore) RemoveWaiting(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeWaitingLocked(userID)
	return nil
}

func (s *fakeStore) removeWaitingLocked(userID int64) {
	for i, entry := range s.queue {
		if entry.UserID == userID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}

func (s *fakeStore) IsWaiting(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.queue {
		if entry.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetWaitingEntry(userID int64) (*models.WaitingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.queue {
		if entry.UserID == userID {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListWaiting(roomID models.RoomID, searchGender *models.Gender, excludeID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, entry := range s.queue {
		if entry.UserID == excludeID || entry.RoomID != roomID {
			continue
		}
		if searchGender != nil && entry.SearchGender != nil && *entry.SearchGender != *searchGender {
			continue
		}
		ids = append(ids, entry.UserID)
	}
	return ids, nil
}

func (s *fakeStore) MatchConnect(userID, partnerID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.sessions[userID]; busy {
		return errors.New("user already in a session")
	}
	if _, busy := s.sessions[partnerID]; busy {
		return errors.New("partner already in a session")
	}
	s.removeWaitingLocked(userID)
	s.removeWaitingLocked(partnerID)
	started := s.clock()
	s.sessions[userID] = &models.ActiveSession{UserID: userID, PartnerID: partnerID, StartedAt: started}
	s.sessions[partnerID] = &models.ActiveSession{UserID: partnerID, PartnerID: userID, StartedAt: started}
	return nil
}

func (s *fakeStore) GetPartner(userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session.PartnerID, nil
	}
	return 0, nil
}

func (s *fakeStore) Disconnect(userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return 0, nil
	}
	delete(s.sessions, userID)
	delete(s.sessions, session.PartnerID)
	return session.PartnerID, nil
}

func (s *fakeStore) SessionStartedAt(userID int64) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session.StartedAt, nil
	}
	return time.Time{}, nil
}

func (s *fakeStore) SaveLastPartner(userID, partnerID, chatDuration int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPartners[userID] = &models.LastPartner{UserID: userID, PartnerID: partnerID, ChatDuration: chatDuration}
	return nil
}

func (s *fakeStore) GetLastPartner(userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lp, ok := s.lastPartners[userID]; ok {
		return lp.PartnerID, nil
	}
	return 0, nil
}

func (s *fakeStore) GetUserRoom(userID int64) (models.RoomID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if roomID, ok := s.rooms[userID]; ok {
		return roomID, nil
	}
	return models.RoomGeneral, nil
}

func (s *fakeStore) CreateChatRequest(fromUserID, toUserID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.chatRequests {
		if req.FromUserID == fromUserID && req.ToUserID == toUserID {
			return false, nil
		}
	}
	s.chatRequests = append(s.chatRequests, &models.ChatRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.RequestPending,
		CreatedAt:  s.clock(),
	})
	return true, nil
}

func (s *fakeStore) PendingChatRequestFor(toUserID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.chatRequests {
		if req.ToUserID == toUserID && req.Status == models.RequestPending {
			return req.FromUserID, nil
		}
	}
	return 0, nil
}

func (s *fakeStore) AcceptChatRequest(fromUserID, toUserID int64) error {
	return s.setChatRequestStatus(fromUserID, toUserID, models.RequestAccepted)
}

func (s *fakeStore) setChatRequestStatus(fromUserID, toUserID int64, status models.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.chatRequests {
		if req.FromUserID == fromUserID && req.ToUserID == toUserID {
			req.Status = status
		}
	}
	return nil
}

func (s *fakeStore) CreateReturnRequest(fromUserID, toUserID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.returnRequests {
		if req.FromUserID == fromUserID && req.ToUserID == toUserID {
			req.Status = models.RequestWaiting
			req.CreatedAt = s.clock()
			return nil
		}
	}
	s.returnRequests = append(s.returnRequests, &models.ChatRequest{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Status:     models.RequestWaiting,
		CreatedAt:  s.clock(),
	})
	return nil
}

func (s *fakeStore) PendingReturnRequestFor(toUserID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.returnRequests {
		if req.ToUserID == toUserID && req.Status == models.RequestWaiting {
			return req.FromUserID, nil
		}
	}
	return 0, nil
}

func (s *fakeStore) AcceptReturnRequest(fromUserID, toUserID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.returnRequests {
		if req.FromUserID == fromUserID && req.ToUserID == toUserID {
			req.Status = models.RequestAccepted
		}
	}
	return nil
}

func (s *fakeStore) CancelReturnRequests(fromUserID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.returnRequests {
		if req.FromUserID == fromUserID && req.Status == models.RequestWaiting {
			req.Status = models.RequestCancelled
		}
	}
	return nil
}

func (s *fakeStore) HasPendingReturnRequest(fromUserID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.returnRequests {
		if req.FromUserID == fromUserID && req.Status == models.RequestWaiting {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) GetUser(userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[userID], nil
}

func (s *fakeStore) GetUsersByIDs(ids []int64) (map[int64]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int64]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (s *fakeStore) GetSearchPreferences(userID int64) (models.SearchPreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs[userID], nil
}

func (s *fakeStore) IsBlocked(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked[userID], nil
}

func (s *fakeStore) GetRating(userID int64) (*models.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.ratings[userID]; ok {
		return r, nil
	}
	return &models.Rating{UserID: userID}, nil
}

func (s *fakeStore) SubscribersForFriend(friendID int64) ([]models.Friend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Friend(nil), s.friendSubs[friendID]...), nil
}

func (s *fakeStore) SaveConversation(userID, partnerID int64, transcript string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[userID] = append(s.conversations[userID], transcript)
	return nil
}

// fakePresence records chatting flags and counters.
type fakePresence struct {
	mu       sync.Mutex
	chatting map[int64]bool
	messages map[int64]int
	chats    map[int64]int
}

func newFakePresence() *fakePresence {
	return &fakePresence{
		chatting: make(map[int64]bool),
		messages: make(map[int64]int),
		chats:    make(map[int64]int),
	}
}

func (p *fakePresence) Touch(ctx context.Context, userID int64) error { return nil }

func (p *fakePresence) SetChatting(ctx context.Context, userID int64, chatting bool) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	changed := p.chatting[userID] != chatting
	p.chatting[userID] = chatting
	return changed, nil
}

func (p *fakePresence) IncrMessages(ctx context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[userID]++
	return nil
}

func (p *fakePresence) IncrChats(ctx context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chats[userID]++
	return nil
}

func (p *fakePresence) isChatting(userID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chatting[userID]
}

type connectedCall struct {
	userID     int64
	partnerID  int64
	viewerTier models.Tier
	viaRequest bool
}

type endedCall struct {
	userID      int64
	partnerID   int64
	viewerTier  models.Tier
	stoppedByMe bool
}

type forwardedCall struct {
	userID  int64
	content Content
}

// fakeNotifier records every outbound call.
type fakeNotifier struct {
	mu        sync.Mutex
	texts     map[int64][]string
	connected []connectedCall
	ended     []endedCall
	forwarded []forwardedCall
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{texts: make(map[int64][]string)}
}

func (n *fakeNotifier) SendText(userID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts[userID] = append(n.texts[userID], text)
	return nil
}

func (n *fakeNotifier) SendConnected(userID int64, partner *models.User, viewerTier models.Tier, ratingLine string, viaRequest bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.connected = append(n.connected, connectedCall{userID, partner.UserID, viewerTier, viaRequest})
	return nil
}

func (n *fakeNotifier) SendChatEnded(userID, partnerID int64, viewerTier models.Tier, stoppedByMe bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ended = append(n.ended, endedCall{userID, partnerID, viewerTier, stoppedByMe})
	return nil
}

func (n *fakeNotifier) ForwardContent(userID int64, content Content) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.forwarded = append(n.forwarded, forwardedCall{userID, content})
	return nil
}

func (n *fakeNotifier) textsFor(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.texts[userID]...)
}

func (n *fakeNotifier) lastTextFor(userID int64) string {
	msgs := n.textsFor(userID)
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func (n *fakeNotifier) connectedCalls() []connectedCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]connectedCall(nil), n.connected...)
}

func (n *fakeNotifier) endedCalls() []endedCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]endedCall(nil), n.ended...)
}

func (n *fakeNotifier) forwardedCalls() []forwardedCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]forwardedCall(nil), n.forwarded...)
}

type fakeArchiver struct {
	mu       sync.Mutex
	media    []forwardedCall
	finished [][2]int64
}

func (a *fakeArchiver) RecordMedia(userA, userB int64, content Content) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.media = append(a.media, forwardedCall{userA, content})
}

func (a *fakeArchiver) ProcessSessionEnd(ctx context.Context, userA, userB int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finished = append(a.finished, [2]int64{userA, userB})
}

func (a *fakeArchiver) mediaCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.media)
}

type fakeSubs struct{ subscribed bool }

func (s *fakeSubs) IsSubscribed(userID int64) (bool, error) { return s.subscribed, nil }

// fixture wires a Controller over the fakes with a controllable clock.
type fixture struct {
	store    *fakeStore
	presence *fakePresence
	notifier *fakeNotifier
	archiver *fakeArchiver
	subs     *fakeSubs
	follows  *FollowRegistry
	ctrl     *Controller
	mm       *Matchmaker
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store:    newFakeStore(),
		presence: newFakePresence(),
		notifier: newFakeNotifier(),
		archiver: &fakeArchiver{},
		subs:     &fakeSubs{subscribed: true},
		follows:  NewFollowRegistry(),
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.store.clock = clock

	f.mm = NewMatchmaker(f.store, f.presence)
	f.mm.now = clock
	f.ctrl = NewController(f.store, f.presence, f.notifier, f.mm, NewConversationLog(), f.archiver, f.subs, f.follows)
	f.ctrl.now = clock
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) addRegular(id int64) *models.User {
	u := &models.User{UserID: id, Gender: models.GenderMale, Age: 20, Country: "🇺🇦 Україна"}
	f.store.addUser(u)
	return u
}

func (f *fixture) addPremium(id int64) *models.User {
	until := f.now.Add(30 * 24 * time.Hour)
	u := f.addRegular(id)
	u.PremiumUntil = &until
	return u
}

func (f *fixture) addPro(id int64) *models.User {
	until := f.now.Add(30 * 24 * time.Hour)
	u := f.addRegular(id)
	u.ProUntil = &until
	return u
}
