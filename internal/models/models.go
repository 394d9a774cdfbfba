package models

import "time"

type Tier string

const (
	TierRegular Tier = "regular"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type RoomID string

const (
	RoomGeneral  RoomID = "room_general"
	RoomExchange RoomID = "room_exchange"
	RoomLGBT     RoomID = "room_lgbt"
	RoomSchool   RoomID = "room_school"
)

type User struct {
	UserID       int64      `db:"user_id"`
	Username     string     `db:"username"`
	FirstName    string     `db:"first_name"`
	Gender       Gender     `db:"gender"`
	Age          int        `db:"age"`
	Country      string     `db:"country"`
	PremiumUntil *time.Time `db:"premium_until"`
	ProUntil     *time.Time `db:"pro_until"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Tier derives the subscription tier from the expiry columns. PRO implies
// every premium privilege.
func (u *User) Tier(now time.Time) Tier {
	if u.ProUntil != nil && now.Before(*u.ProUntil) {
		return TierPro
	}
	if u.PremiumUntil != nil && now.Before(*u.PremiumUntil) {
		return TierPremium
	}
	return TierRegular
}

func (u *User) IsPremium(now time.Time) bool { return u.Tier(now) != TierRegular }
func (u *User) IsPro(now time.Time) bool     { return u.Tier(now) == TierPro }

type Room struct {
	RoomID   RoomID     `db:"room_id"`
	Name     string     `db:"room_name"`
	IsOpen   bool       `db:"is_open"`
	ClosedBy *int64     `db:"closed_by"`
	ClosedAt *time.Time `db:"closed_at"`
}

type WaitingEntry struct {
	UserID       int64     `db:"user_id"`
	SearchGender *Gender   `db:"search_gender"`
	RoomID       RoomID    `db:"room_id"`
	JoinedAt     time.Time `db:"joined_at"`
}

// ActiveSession is one directed row of a session pair. Every connected pair
// is stored as two rows sharing StartedAt.
type ActiveSession struct {
	UserID    int64     `db:"user_id"`
	PartnerID int64     `db:"partner_id"`
	StartedAt time.Time `db:"started_at"`
}

type RequestStatus string

const (
	// Follow-up chat requests (PRO -> arbitrary target).
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"

	// Return-to-previous-partner requests.
	RequestWaiting   RequestStatus = "waiting"
	RequestCancelled RequestStatus = "cancelled"
)

type ChatRequest struct {
	ID         int64         `db:"id"`
	FromUserID int64         `db:"from_user_id"`
	ToUserID   int64         `db:"to_user_id"`
	Status     RequestStatus `db:"status"`
	CreatedAt  time.Time     `db:"created_at"`
}

type LastPartner struct {
	UserID       int64 `db:"user_id"`
	PartnerID    int64 `db:"partner_id"`
	ChatDuration int64 `db:"chat_duration"`
}

// SearchPreferences are the extended premium filters. Zero values mean
// "no preference" (any/any/all/all).
type SearchPreferences struct {
	Gender    string   // "any", "male", "female"
	AgeRange  string   // "any" or an age bucket key
	Countries []string // empty = all countries
	UserType  string   // "all", "premium", "regular"
}

// HasAny reports whether at least one filter deviates from the default, which
// is what switches a premium searcher onto the extended matching path.
func (p SearchPreferences) HasAny() bool {
	return (p.Gender != "" && p.Gender != "any") ||
		(p.AgeRange != "" && p.AgeRange != "any") ||
		len(p.Countries) > 0 ||
		(p.UserType != "" && p.UserType != "all")
}

// AgeBuckets maps an age-range preference key to its inclusive bounds.
var AgeBuckets = map[string][2]int{
	"7_17":    {7, 17},
	"18_25":   {18, 25},
	"26_35":   {26, 35},
	"36_50":   {36, 50},
	"50_plus": {50, 99},
}

// CountryNames maps a country preference code to the display value stored in
// user profiles.
var CountryNames = map[string]string{
	"ukraine": "🇺🇦 Україна",
	"russia":  "🇷🇺 Росія",
	"belarus": "🇧🇾 Білорусь",
	"english": "🇬🇧 English",
	"other":   "🌎 Решта світу",
}

type Rating struct {
	UserID int64 `db:"user_id"`
	Good   int   `db:"good"`
	Bad    int   `db:"bad"`
	Super  int   `db:"super"`
}

type Friend struct {
	UserID    int64     `db:"user_id"`
	FriendID  int64     `db:"friend_id"`
	Name      string    `db:"name"`
	AlertsOn  bool      `db:"alerts_on"`
	CreatedAt time.Time `db:"created_at"`
}

type Complaint struct {
	ID         int64     `db:"id"`
	FromUserID int64     `db:"from_user_id"`
	AboutID    int64     `db:"about_user_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// UserState holds transient multi-step input state (e.g. awaiting a friend
// name), kept in memory on the bot.
type UserState struct {
	UserID      int64
	State       string
	TempData    map[string]interface{}
	LastUpdated time.Time
}
