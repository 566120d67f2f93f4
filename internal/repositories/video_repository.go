package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"famnet-backend/internal/models"
)

var ErrCallNotFound = errors.New("video call not found")

// VideoCallRepository manages per-room call sessions and ICE configuration.
type VideoCallRepository interface {
	GetOrCreateCall(ctx context.Context, roomID, userID int) (models.VideoCall, error)
	AddParticipant(ctx context.Context, callID, userID int) error
	EndCall(ctx context.Context, roomID int) error
	ListIceServers(ctx context.Context) ([]models.IceServer, error)
}

// VideoCallRepo is a sqlx implementation of VideoCallRepository.
type VideoCallRepo struct {
	db *sqlx.DB
}

// NewVideoCallRepo constructs a VideoCallRepo.
func NewVideoCallRepo(db *sqlx.DB) *VideoCallRepo {
	return &VideoCallRepo{db: db}
}

const callColumns = `id, room_id, status, created_by, started_at, ended_at`

// GetOrCreateCall returns the room's call, creating it lazily. A previously
// ended call is restarted for the new joiner.
func (r *VideoCallRepo) GetOrCreateCall(ctx context.Context, roomID, userID int) (models.VideoCall, error) {
	var call models.VideoCall
	err := r.db.QueryRowxContext(ctx, `INSERT INTO video_calls (room_id, created_by)
        VALUES ($1, $2)
        ON CONFLICT (room_id) DO UPDATE SET status=$3, ended_at=NULL
        RETURNING `+callColumns, roomID, userID, models.CallOngoing).StructScan(&call)
	if err != nil {
		return models.VideoCall{}, err
	}
	return call, nil
}

// AddParticipant records a joiner, idempotently.
func (r *VideoCallRepo) AddParticipant(ctx context.Context, callID, userID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO video_call_participants (call_id, user_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`, callID, userID)
	return err
}

// EndCall marks the room's ongoing call ended.
func (r *VideoCallRepo) EndCall(ctx context.Context, roomID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE video_calls SET status=$1, ended_at=NOW()
        WHERE room_id=$2 AND status=$3`, models.CallEnded, roomID, models.CallOngoing)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrCallNotFound)
}

// ListIceServers returns active ICE endpoints in priority order.
func (r *VideoCallRepo) ListIceServers(ctx context.Context) ([]models.IceServer, error) {
	var servers []models.IceServer
	err := r.db.SelectContext(ctx, &servers, `SELECT id, urls, username, credential, priority, is_active
        FROM ice_servers WHERE is_active = TRUE ORDER BY priority`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return servers, err
}
