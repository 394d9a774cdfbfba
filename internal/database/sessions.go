package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Active session operations. Every connected pair is stored as two directed
// rows with user_id as the primary key, so a user can never hold two
// partners at once.

// MatchConnect atomically claims two users for each other: both waiting rows
// are deleted and both directed session rows are inserted in one
// transaction. If a concurrent match already connected either side, the
// primary key violation rolls the whole claim back.
func (db *DB) MatchConnect(userID, partnerID int64) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin connect: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM waiting_users WHERE user_id IN ($1, $2)
	`, userID, partnerID)
	if err != nil {
		return fmt.Errorf("failed to dequeue pair: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO active_chats (user_id, partner_id, started_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP), ($2, $1, CURRENT_TIMESTAMP)
	`, userID, partnerID)
	if err != nil {
		return fmt.Errorf("failed to connect %d and %d: %w", userID, partnerID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit connect: %w", err)
	}

	return nil
}

// GetPartner returns the current partner, or 0 if the user is not in a chat.
func (db *DB) GetPartner(userID int64) (int64, error) {
	var partnerID int64
	err := db.QueryRow(`
		SELECT partner_id FROM active_chats WHERE user_id = $1
	`, userID).Scan(&partnerID)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return partnerID, nil
}

// Disconnect removes both directed rows of the user's session and returns
// the former partner id. A user with no partner is a no-op returning 0.
func (db *DB) Disconnect(userID int64) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin disconnect: %w", err)
	}
	defer tx.Rollback()

	var partnerID int64
	err = tx.QueryRow(`
		SELECT partner_id FROM active_chats WHERE user_id = $1
	`, userID).Scan(&partnerID)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(`
		DELETE FROM active_chats WHERE user_id IN ($1, $2)
	`, userID, partnerID)
	if err != nil {
		return 0, fmt.Errorf("failed to disconnect %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit disconnect: %w", err)
	}

	return partnerID, nil
}

// SessionStartedAt returns when the user's current session began, or zero
// time if the user is not connected.
func (db *DB) SessionStartedAt(userID int64) (time.Time, error) {
	var startedAt time.Time
	err := db.QueryRow(`
		SELECT started_at FROM active_chats WHERE user_id = $1
	`, userID).Scan(&startedAt)

	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}

	return startedAt, err
}

// SaveLastPartner overwrites the user's most recent partner record.
func (db *DB) SaveLastPartner(userID, partnerID, chatDuration int64) error {
	_, err := db.Exec(`
		INSERT INTO last_partners (user_id, partner_id, chat_duration)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET partner_id = EXCLUDED.partner_id,
		    chat_duration = EXCLUDED.chat_duration
	`, userID, partnerID, chatDuration)

	return err
}

func (db *DB) GetLastPartner(userID int64) (int64, error) {
	var partnerID int64
	err := db.QueryRow(`
		SELECT partner_id FROM last_partners WHERE user_id = $1
	`, userID).Scan(&partnerID)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return partnerID, nil
}
