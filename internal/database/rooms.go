package database

import (
	"database/sql"
	"fmt"

	"anonchat-bot/internal/models"
)

// Room registry operations. Unknown room ids are treated as "closed"/no-op
// rather than errors.
func (db *DB) IsRoomOpen(roomID models.RoomID) (bool, error) {
	var isOpen bool
	err := db.QueryRow(`
		SELECT is_open FROM room_status WHERE room_id = $1
	`, roomID).Scan(&isOpen)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return isOpen, nil
}

func (db *DB) OpenRoom(roomID models.RoomID, actorID int64) error {
	_, err := db.Exec(`
		UPDATE room_status
		SET is_open = TRUE, closed_by = NULL, closed_at = NULL
		WHERE room_id = $1
	`, roomID)

	return err
}

// CloseRoom marks the room closed and relocates everyone assigned to it back
// to the general room. Returns how many users were moved by this call.
// Rejecting a close of the general room is the caller's responsibility.
func (db *DB) CloseRoom(roomID models.RoomID, actorID int64) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin close room: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE room_status
		SET is_open = FALSE, closed_by = $2, closed_at = CURRENT_TIMESTAMP
		WHERE room_id = $1
	`, roomID, actorID)
	if err != nil {
		return 0, fmt.Errorf("failed to close room: %w", err)
	}

	res, err := tx.Exec(`
		UPDATE user_rooms
		SET current_room = $2
		WHERE current_room = $1
	`, roomID, models.RoomGeneral)
	if err != nil {
		return 0, fmt.Errorf("failed to relocate users: %w", err)
	}

	moved, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit close room: %w", err)
	}

	return moved, nil
}

// GetUserRoom returns the user's current room, lazily assigning the general
// room on first access.
func (db *DB) GetUserRoom(userID int64) (models.RoomID, error) {
	var room models.RoomID

	err := db.QueryRow(`
		INSERT INTO user_rooms (user_id, current_room)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET user_id = EXCLUDED.user_id
		RETURNING current_room
	`, userID, models.RoomGeneral).Scan(&room)

	if err != nil {
		return models.RoomGeneral, err
	}

	return room, nil
}

func (db *DB) SetUserRoom(userID int64, roomID models.RoomID) error {
	_, err := db.Exec(`
		INSERT INTO user_rooms (user_id, current_room)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET current_room = EXCLUDED.current_room
	`, userID, roomID)

	return err
}

func (db *DB) GetAllRooms() ([]models.Room, error) {
	rows, err := db.Query(`
		SELECT room_id, room_name, is_open, closed_by, closed_at
		FROM room_status
		ORDER BY room_id
	`)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.RoomID, &r.Name, &r.IsOpen, &r.ClosedBy, &r.ClosedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}
