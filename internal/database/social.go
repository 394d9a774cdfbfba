package database

import (
	"database/sql"
	"fmt"

	"anonchat-bot/internal/models"
)

// Ratings, friends, complaints and the conversation archive. Simple CRUD
// around the chat engine.

func (db *DB) AddRating(userID int64, kind string) error {
	column := ""
	switch kind {
	case "good":
		column = "good"
	case "bad":
		column = "bad"
	case "super":
		column = "super"
	default:
		return fmt.Errorf("unknown rating kind: %s", kind)
	}

	_, err := db.Exec(fmt.Sprintf(`
		INSERT INTO ratings (user_id, %[1]s)
		VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE
		SET %[1]s = ratings.%[1]s + 1
	`, column), userID)

	return err
}

func (db *DB) GetRating(userID int64) (*models.Rating, error) {
	r := models.Rating{UserID: userID}

	err := db.QueryRow(`
		SELECT good, bad, super FROM ratings WHERE user_id = $1
	`, userID).Scan(&r.Good, &r.Bad, &r.Super)

	if err == sql.ErrNoRows {
		return &r, nil
	}
	if err != nil {
		return nil, err
	}

	return &r, nil
}

func (db *DB) AddFriend(userID, friendID int64, name string) error {
	_, err := db.Exec(`
		INSERT INTO friends (user_id, friend_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, friend_id) DO UPDATE
		SET name = EXCLUDED.name
	`, userID, friendID, name)

	return err
}

func (db *DB) DeleteFriend(userID, friendID int64) error {
	_, err := db.Exec(`
		DELETE FROM friends WHERE user_id = $1 AND friend_id = $2
	`, userID, friendID)

	return err
}

func (db *DB) GetFriends(userID int64) ([]models.Friend, error) {
	rows, err := db.Query(`
		SELECT user_id, friend_id, name, alerts_on, created_at
		FROM friends
		WHERE user_id = $1
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []models.Friend
	for rows.Next() {
		var f models.Friend
		if err := rows.Scan(&f.UserID, &f.FriendID, &f.Name, &f.AlertsOn, &f.CreatedAt); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}

	return friends, rows.Err()
}

func (db *DB) ToggleFriendAlerts(userID, friendID int64) (bool, error) {
	var enabled bool
	err := db.QueryRow(`
		UPDATE friends
		SET alerts_on = NOT alerts_on
		WHERE user_id = $1 AND friend_id = $2
		RETURNING alerts_on
	`, userID, friendID).Scan(&enabled)

	if err == sql.ErrNoRows {
		return false, nil
	}

	return enabled, err
}

// SubscribersForFriend returns users who enabled activity alerts about the
// given user, each with the name they stored for that friend.
func (db *DB) SubscribersForFriend(friendID int64) ([]models.Friend, error) {
	rows, err := db.Query(`
		SELECT user_id, name FROM friends WHERE friend_id = $1 AND alerts_on
	`, friendID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscribers []models.Friend
	for rows.Next() {
		f := models.Friend{FriendID: friendID, AlertsOn: true}
		if err := rows.Scan(&f.UserID, &f.Name); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, f)
	}

	return subscribers, rows.Err()
}

func (db *DB) AddComplaint(fromUserID, aboutUserID int64) error {
	_, err := db.Exec(`
		INSERT INTO complaints (from_user_id, about_user_id)
		VALUES ($1, $2)
	`, fromUserID, aboutUserID)

	return err
}

// SaveConversation archives a flattened conversation transcript for
// moderation review, keeping only the latest 3 transcripts per user.
func (db *DB) SaveConversation(userID, partnerID int64, transcript string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin archive: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM user_conversations
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM user_conversations
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT 2
		)
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to prune conversations: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO user_conversations (user_id, partner_id, conversation_data)
		VALUES ($1, $2, $3)
	`, userID, partnerID, transcript)
	if err != nil {
		return fmt.Errorf("failed to archive conversation: %w", err)
	}

	return tx.Commit()
}

// ListAllUserIDs feeds the activity-notification sweep.
func (db *DB) ListAllUserIDs() ([]int64, error) {
	rows, err := db.Query(`SELECT user_id FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, rows.Err()
}
