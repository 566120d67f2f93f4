package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"famnet-backend/internal/models"
)

var (
	ErrSelfFriendship   = errors.New("cannot befriend yourself")
	ErrAlreadyRequested = errors.New("friend request already exists")
	ErrRequestNotFound  = errors.New("friend request not found")
)

// FriendshipRepository abstracts the friend-edge lifecycle.
type FriendshipRepository interface {
	SendRequest(ctx context.Context, fromUserID, toUserID int) (models.Friendship, error)
	Accept(ctx context.Context, byUserID, fromUserID int) error
	Decline(ctx context.Context, byUserID, fromUserID int) error
	Remove(ctx context.Context, userID, friendID int) error
	ListFriends(ctx context.Context, userID int) ([]models.PublicUser, error)
	ListPendingRequests(ctx context.Context, userID int) ([]models.FriendRequest, error)
	AreFriends(ctx context.Context, userID, friendID int) (bool, error)
}

// FriendshipRepo is a sqlx implementation of FriendshipRepository.
type FriendshipRepo struct {
	db *sqlx.DB
}

// NewFriendshipRepo constructs a FriendshipRepo.
func NewFriendshipRepo(db *sqlx.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

// SendRequest creates a REQUESTED edge from one user to another. A pending
// request in either direction counts as a duplicate.
func (r *FriendshipRepo) SendRequest(ctx context.Context, fromUserID, toUserID int) (models.Friendship, error) {
	if fromUserID == toUserID {
		return models.Friendship{}, ErrSelfFriendship
	}

	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
        SELECT 1 FROM friendships
        WHERE status=$3 AND is_active = TRUE
        AND ((from_user_id=$1 AND to_user_id=$2) OR (from_user_id=$2 AND to_user_id=$1)))`,
		fromUserID, toUserID, models.FriendshipRequested)
	if err != nil {
		return models.Friendship{}, err
	}
	if exists {
		return models.Friendship{}, ErrAlreadyRequested
	}

	var edge models.Friendship
	err = r.db.QueryRowxContext(ctx, `INSERT INTO friendships (from_user_id, to_user_id, status)
        VALUES ($1, $2, $3)
        ON CONFLICT (from_user_id, to_user_id) WHERE status = 'requested' DO NOTHING
        RETURNING id, from_user_id, to_user_id, status, created_at, updated_at, is_active`,
		fromUserID, toUserID, models.FriendshipRequested).StructScan(&edge)
	if err != nil {
		// A concurrent duplicate insert hits the partial index and returns no row.
		if errors.Is(err, sql.ErrNoRows) {
			return models.Friendship{}, ErrAlreadyRequested
		}
		return models.Friendship{}, err
	}
	return edge, nil
}

// Accept transitions the REQUESTED edge fromUserID -> byUserID to ACCEPTED.
func (r *FriendshipRepo) Accept(ctx context.Context, byUserID, fromUserID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE friendships
        SET status=$1, updated_at=NOW()
        WHERE from_user_id=$2 AND to_user_id=$3 AND status=$4 AND is_active = TRUE`,
		models.FriendshipAccepted, fromUserID, byUserID, models.FriendshipRequested)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

// Decline transitions the REQUESTED edge to DECLINED and soft-deactivates it.
func (r *FriendshipRepo) Decline(ctx context.Context, byUserID, fromUserID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE friendships
        SET status=$1, is_active = FALSE, updated_at=NOW()
        WHERE from_user_id=$2 AND to_user_id=$3 AND status=$4 AND is_active = TRUE`,
		models.FriendshipDeclined, fromUserID, byUserID, models.FriendshipRequested)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRequestNotFound)
}

// Remove hard-deletes any ACCEPTED edge between the pair. A no-op when none
// exists.
func (r *FriendshipRepo) Remove(ctx context.Context, userID, friendID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM friendships
        WHERE status=$3
        AND ((from_user_id=$1 AND to_user_id=$2) OR (from_user_id=$2 AND to_user_id=$1))`,
		userID, friendID, models.FriendshipAccepted)
	return err
}

// ListFriends returns the other endpoint of every ACCEPTED active edge.
func (r *FriendshipRepo) ListFriends(ctx context.Context, userID int) ([]models.PublicUser, error) {
	var friends []models.PublicUser
	err := r.db.SelectContext(ctx, &friends, `SELECT u.id, u.email, u.first_name, u.last_name, u.is_online
        FROM users u
        INNER JOIN friendships f
            ON (f.from_user_id=$1 AND f.to_user_id=u.id) OR (f.to_user_id=$1 AND f.from_user_id=u.id)
        WHERE f.status=$2 AND f.is_active = TRUE AND u.is_active = TRUE
        ORDER BY u.id`, userID, models.FriendshipAccepted)
	return friends, err
}

// ListPendingRequests returns incoming REQUESTED edges for the user.
func (r *FriendshipRepo) ListPendingRequests(ctx context.Context, userID int) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.SelectContext(ctx, &reqs, `SELECT f.id, f.from_user_id,
            u.email AS from_email, u.first_name AS from_first_name, u.last_name AS from_last_name,
            f.created_at
        FROM friendships f
        INNER JOIN users u ON u.id = f.from_user_id
        WHERE f.to_user_id=$1 AND f.status=$2 AND f.is_active = TRUE
        ORDER BY f.created_at DESC`, userID, models.FriendshipRequested)
	return reqs, err
}

// AreFriends reports whether an ACCEPTED active edge links the pair.
func (r *FriendshipRepo) AreFriends(ctx context.Context, userID, friendID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
        SELECT 1 FROM friendships
        WHERE status=$3 AND is_active = TRUE
        AND ((from_user_id=$1 AND to_user_id=$2) OR (from_user_id=$2 AND to_user_id=$1)))`,
		userID, friendID, models.FriendshipAccepted)
	return exists, err
}
