package database

import (
	"database/sql"
	"fmt"
	"strings"

	"anonchat-bot/internal/models"

	"github.com/lib/pq"
)

// User operations
func (db *DB) GetOrCreateUser(userID int64, username, firstName string) (*models.User, error) {
	var user models.User

	err := db.QueryRow(`
		INSERT INTO users (user_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name
		RETURNING user_id, username, first_name, gender, age, country, premium_until, pro_until, created_at
	`, userID, username, firstName).Scan(
		&user.UserID, &user.Username, &user.FirstName, &user.Gender,
		&user.Age, &user.Country, &user.PremiumUntil, &user.ProUntil, &user.CreatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}

	return &user, nil
}

func (db *DB) GetUser(userID int64) (*models.User, error) {
	var user models.User

	err := db.QueryRow(`
		SELECT user_id, username, first_name, gender, age, country, premium_until, pro_until, created_at
		FROM users
		WHERE user_id = $1
	`, userID).Scan(
		&user.UserID, &user.Username, &user.FirstName, &user.Gender,
		&user.Age, &user.Country, &user.PremiumUntil, &user.ProUntil, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	var user models.User

	err := db.QueryRow(`
		SELECT user_id, username, first_name, gender, age, country, premium_until, pro_until, created_at
		FROM users
		WHERE username = $1
	`, strings.TrimPrefix(username, "@")).Scan(
		&user.UserID, &user.Username, &user.FirstName, &user.Gender,
		&user.Age, &user.Country, &user.PremiumUntil, &user.ProUntil, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (db *DB) IsBlocked(userID int64) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM blocked_users WHERE user_id = $1)
	`, userID).Scan(&exists)

	return exists, err
}

// GetSearchPreferences loads a user's extended search filters. Missing rows
// fall back to the defaults (any/any/all/all).
func (db *DB) GetSearchPreferences(userID int64) (models.SearchPreferences, error) {
	prefs := models.SearchPreferences{
		Gender:   "any",
		AgeRange: "any",
		UserType: "all",
	}

	rows, err := db.Query(`
		SELECT pref_key, pref_value FROM search_preferences WHERE user_id = $1
	`, userID)
	if err != nil {
		return prefs, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return prefs, err
		}
		switch key {
		case "gender":
			prefs.Gender = value
		case "age_range":
			prefs.AgeRange = value
		case "countries":
			if value != "" && value != "all" {
				prefs.Countries = strings.Split(value, ",")
			}
		case "user_type":
			prefs.UserType = value
		}
	}

	return prefs, rows.Err()
}

func (db *DB) SetSearchPreference(userID int64, key, value string) error {
	_, err := db.Exec(`
		INSERT INTO search_preferences (user_id, pref_key, pref_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, pref_key) DO UPDATE
		SET pref_value = EXCLUDED.pref_value
	`, userID, key, value)

	return err
}

// GetUsersByIDs loads several user records at once, used by the matchmaker to
// evaluate candidate profiles.
func (db *DB) GetUsersByIDs(ids []int64) (map[int64]*models.User, error) {
	users := make(map[int64]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := db.Query(`
		SELECT user_id, username, first_name, gender, age, country, premium_until, pro_until, created_at
		FROM users
		WHERE user_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.UserID, &user.Username, &user.FirstName, &user.Gender,
			&user.Age, &user.Country, &user.PremiumUntil, &user.ProUntil, &user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users[user.UserID] = &user
	}

	return users, rows.Err()
}
