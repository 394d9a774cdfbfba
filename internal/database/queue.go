package database

import (
	"database/sql"

	"anonchat-bot/internal/models"
)

// Waiting queue operations.

// AddWaiting enqueues a user for matchmaking. Re-adding a waiting user
// overwrites the stored filter and room instead of erroring.
func (db *DB) AddWaiting(userID int64, searchGender *models.Gender, roomID models.RoomID) error {
	_, err := db.Exec(`
		INSERT INTO waiting_users (user_id, search_gender, room_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET search_gender = EXCLUDED.search_gender,
		    room_id = EXCLUDED.room_id,
		    joined_at = CURRENT_TIMESTAMP
	`, userID, searchGender, roomID)

	return err
}

func (db *DB) RemoveWaiting(userID int64) error {
	_, err := db.Exec(`DELETE FROM waiting_users WHERE user_id = $1`, userID)
	return err
}

func (db *DB) IsWaiting(userID int64) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM waiting_users WHERE user_id = $1)
	`, userID).Scan(&exists)

	return exists, err
}

// GetWaitingEntry returns the user's own queue row, or nil if not queued.
func (db *DB) GetWaitingEntry(userID int64) (*models.WaitingEntry, error) {
	var e models.WaitingEntry
	var gender sql.NullString

	err := db.QueryRow(`
		SELECT user_id, search_gender, room_id, joined_at
		FROM waiting_users
		WHERE user_id = $1
	`, userID).Scan(&e.UserID, &gender, &e.RoomID, &e.JoinedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if gender.Valid {
		g := models.Gender(gender.String)
		e.SearchGender = &g
	}

	return &e, nil
}

// ListWaiting returns queue candidates in the given room in join order.
// When searchGender is set, a candidate passes if its own stored filter is
// NULL or equal to it. The candidate's stored filter is what is checked
// here; requester-side profile filtering happens in the matchmaker.
func (db *DB) ListWaiting(roomID models.RoomID, searchGender *models.Gender, excludeID int64) ([]int64, error) {
	query := `
		SELECT user_id FROM waiting_users
		WHERE room_id = $1 AND user_id != $2
	`
	args := []interface{}{roomID, excludeID}

	if searchGender != nil {
		query += ` AND (search_gender IS NULL OR search_gender = $3)`
		args = append(args, *searchGender)
	}

	query += ` ORDER BY joined_at, user_id`

	rows, err := db.Query(query, args...)
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
