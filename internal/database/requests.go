package database

import (
	"database/sql"
	"errors"

	"anonchat-bot/internal/models"

	"github.com/lib/pq"
)

// Request ledger: follow-up chat requests (PRO -> arbitrary target) and
// return-to-previous-partner requests. Both are consumed the first time the
// target starts a search.

// CreateChatRequest files a follow-up request. A duplicate (from, to) pair
// is rejected via the unique constraint, not a pre-check; the first return
// value reports whether the request was actually created.
func (db *DB) CreateChatRequest(fromUserID, toUserID int64) (bool, error) {
	_, err := db.Exec(`
		INSERT INTO chat_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, $3)
	`, fromUserID, toUserID, models.RequestPending)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// PendingChatRequestFor returns the oldest pending follow-up request
// addressed to the user, or 0. The row stays pending until accepted.
func (db *DB) PendingChatRequestFor(toUserID int64) (int64, error) {
	var fromUserID int64
	err := db.QueryRow(`
		SELECT from_user_id FROM chat_requests
		WHERE to_user_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, toUserID, models.RequestPending).Scan(&fromUserID)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return fromUserID, nil
}

func (db *DB) AcceptChatRequest(fromUserID, toUserID int64) error {
	_, err := db.Exec(`
		UPDATE chat_requests
		SET status = $3
		WHERE from_user_id = $1 AND to_user_id = $2 AND status = $4
	`, fromUserID, toUserID, models.RequestAccepted, models.RequestPending)

	return err
}

// CreateReturnRequest files a return-to-partner request. A user has at most
// one live return target, so this is an upsert: the newest target wins.
func (db *DB) CreateReturnRequest(fromUserID, toUserID int64) error {
	_, err := db.Exec(`
		INSERT INTO return_requests (from_user_id, to_user_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (from_user_id, to_user_id) DO UPDATE
		SET status = EXCLUDED.status,
		    created_at = CURRENT_TIMESTAMP
	`, fromUserID, toUserID, models.RequestWaiting)

	return err
}

// PendingReturnRequestFor returns the oldest waiting return request
// addressed to the user, or 0.
func (db *DB) PendingReturnRequestFor(toUserID int64) (int64, error) {
	var fromUserID int64
	err := db.QueryRow(`
		SELECT from_user_id FROM return_requests
		WHERE to_user_id = $1 AND status = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, toUserID, models.RequestWaiting).Scan(&fromUserID)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return fromUserID, nil
}

func (db *DB) AcceptReturnRequest(fromUserID, toUserID int64) error {
	_, err := db.Exec(`
		UPDATE return_requests
		SET status = $3
		WHERE from_user_id = $1 AND to_user_id = $2 AND status = $4
	`, fromUserID, toUserID, models.RequestAccepted, models.RequestWaiting)

	return err
}

// CancelReturnRequests cancels the user's own waiting return request, used
// when a fresh search supersedes it.
func (db *DB) CancelReturnRequests(fromUserID int64) error {
	_, err := db.Exec(`
		UPDATE return_requests
		SET status = $2
		WHERE from_user_id = $1 AND status = $3
	`, fromUserID, models.RequestCancelled, models.RequestWaiting)

	return err
}

func (db *DB) HasPendingReturnRequest(fromUserID int64) (bool, error) {
	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM return_requests WHERE from_user_id = $1 AND status = $2)
	`, fromUserID, models.RequestWaiting).Scan(&exists)

	return exists, err
}
