package handlers

import (
	"testing"

	"anonchat-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want callbackCommand
	}{
		{"rate_good_123", callbackCommand{Action: actionRateGood, TargetID: 123}},
		{"rate_bad_456", callbackCommand{Action: actionRateBad, TargetID: 456}},
		{"rate_super_789", callbackCommand{Action: actionRateSuper, TargetID: 789}},
		{"report_42", callbackCommand{Action: actionReport, TargetID: 42}},
		{"return_to_7", callbackCommand{Action: actionReturnTo, TargetID: 7}},
		{"add_friend_99", callbackCommand{Action: actionAddFriend, TargetID: 99}},
		{"friend_alert_5", callbackCommand{Action: actionFriendAlert, TargetID: 5}},
		{"friend_del_6", callbackCommand{Action: actionFriendDel, TargetID: 6}},
		{"pref_gender_female", callbackCommand{Action: actionSetPref, PrefKey: "gender", PrefValue: "female"}},
		{"pref_age_18_25", callbackCommand{Action: actionSetPref, PrefKey: "age", PrefValue: "18_25"}},
		{"pref_age_50_plus", callbackCommand{Action: actionSetPref, PrefKey: "age", PrefValue: "50_plus"}},
		{"pref_country_ukraine", callbackCommand{Action: actionSetPref, PrefKey: "country", PrefValue: "ukraine"}},
		{"pref_type_premium", callbackCommand{Action: actionSetPref, PrefKey: "type", PrefValue: "premium"}},
		{"room_room_flirt", callbackCommand{Action: actionPickRoom, RoomID: models.RoomID("room_flirt")}},
		{"search_male", callbackCommand{Action: actionSearchGender, Gender: "male"}},
		{"search_female", callbackCommand{Action: actionSearchGender, Gender: "female"}},
		{"search_any", callbackCommand{Action: actionSearchGender, Gender: "any"}},
	}

	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToggleCountry(t *testing.T) {
	countries := toggleCountry(nil, "ukraine")
	assert.Equal(t, []string{"ukraine"}, countries)

	countries = toggleCountry(countries, "russia")
	assert.Equal(t, []string{"ukraine", "russia"}, countries)

	countries = toggleCountry(countries, "ukraine")
	assert.Equal(t, []string{"russia"}, countries)
}

func TestParseCallbackRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "noop", "rate_good_", "rate_good_abc", "return_to_x", "pref_bogus_1"} {
		_, err := parseCallback(data)
		assert.Error(t, err, data)
	}
}
