package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"famnet-backend/internal/models"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrSelfRoom     = errors.New("cannot open a private room with yourself")
)

// RoomRepository abstracts room persistence.
type RoomRepository interface {
	GetOrCreatePrivate(ctx context.Context, userID, otherID int) (models.Room, bool, error)
	CreateGroup(ctx context.Context, creatorID int, title, description string, memberIDs []int) (models.Room, error)
	GetRoom(ctx context.Context, roomID int) (models.Room, error)
	ListRoomsForUser(ctx context.Context, userID int) ([]models.Room, error)
	IsParticipant(ctx context.Context, roomID, userID int) (bool, error)
	Participants(ctx context.Context, roomID int) ([]models.PublicUser, error)
	AddParticipants(ctx context.Context, roomID int, userIDs []int) error
	RemoveParticipant(ctx context.Context, roomID, userID int) error
	TransferOwnership(ctx context.Context, roomID, newOwnerID int) error
	DeleteRoom(ctx context.Context, roomID int) error
	SyncFamilyRoom(ctx context.Context, family models.Family, memberIDs []int) (models.Room, error)
	DeleteFamilyRoom(ctx context.Context, familyID int) error
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `id, type, title, description, family_id, created_by, is_archived, created_at, updated_at, is_active`

// privatePairKey is the canonical unordered-pair key backing the uniqueness
// constraint on private rooms.
func privatePairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// GetOrCreatePrivate finds or creates the single private room for the pair.
// The unique private_key column makes concurrent calls converge on one room.
func (r *RoomRepo) GetOrCreatePrivate(ctx context.Context, userID, otherID int) (models.Room, bool, error) {
	if userID == otherID {
		return models.Room{}, false, ErrSelfRoom
	}
	key := privatePairKey(userID, otherID)

	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE private_key=$1 AND is_active = TRUE`, key)
	if err == nil {
		return room, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, false, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx, `INSERT INTO rooms (type, created_by, private_key)
        VALUES ($1, $2, $3)
        ON CONFLICT (private_key) DO UPDATE SET updated_at = NOW()
        RETURNING `+roomColumns, models.RoomPrivate, userID, key).StructScan(&room)
	if err != nil {
		return models.Room{}, false, err
	}

	for _, id := range []int{userID, otherID} {
		if _, err = tx.ExecContext(ctx, `INSERT INTO room_participants (room_id, user_id)
            VALUES ($1, $2) ON CONFLICT DO NOTHING`, room.ID, id); err != nil {
			return models.Room{}, false, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Room{}, false, err
	}
	return room, true, nil
}

// CreateGroup creates a group room and its participants atomically. The
// creator is always part of the member set.
func (r *RoomRepo) CreateGroup(ctx context.Context, creatorID int, title, description string, memberIDs []int) (models.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room models.Room
	if err = tx.QueryRowxContext(ctx, `INSERT INTO rooms (type, title, description, created_by)
        VALUES ($1, $2, $3, $4) RETURNING `+roomColumns,
		models.RoomGroup, title, description, creatorID).StructScan(&room); err != nil {
		return models.Room{}, err
	}

	memberSet := map[int]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		memberSet[id] = struct{}{}
	}
	for id := range memberSet {
		if _, err = tx.ExecContext(ctx, `INSERT INTO room_participants (room_id, user_id) VALUES ($1, $2)`, room.ID, id); err != nil {
			return models.Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetRoom fetches an active room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT `+roomColumns+` FROM rooms WHERE id=$1 AND is_active = TRUE`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns active rooms the user participates in, newest first.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.SelectContext(ctx, &rooms, `SELECT r.id, r.type, r.title, r.description, r.family_id, r.created_by, r.is_archived, r.created_at, r.updated_at, r.is_active
        FROM rooms r
        INNER JOIN room_participants rp ON rp.room_id = r.id
        WHERE rp.user_id=$1 AND r.is_active = TRUE
        ORDER BY r.updated_at DESC`, userID)
	return rooms, err
}

// IsParticipant checks membership.
func (r *RoomRepo) IsParticipant(ctx context.Context, roomID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM room_participants WHERE room_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}

// Participants returns the users in the room.
func (r *RoomRepo) Participants(ctx context.Context, roomID int) ([]models.PublicUser, error) {
	var users []models.PublicUser
	err := r.db.SelectContext(ctx, &users, `SELECT u.id, u.email, u.first_name, u.last_name, u.is_online
        FROM users u
        INNER JOIN room_participants rp ON rp.user_id = u.id
        WHERE rp.room_id=$1 AND u.is_active = TRUE
        ORDER BY u.id`, roomID)
	return users, err
}

// AddParticipants inserts users into the room, ignoring ones already present.
func (r *RoomRepo) AddParticipants(ctx context.Context, roomID int, userIDs []int) error {
	for _, id := range userIDs {
		if _, err := r.db.ExecContext(ctx, `INSERT INTO room_participants (room_id, user_id)
            VALUES ($1, $2) ON CONFLICT DO NOTHING`, roomID, id); err != nil {
			return err
		}
	}
	return nil
}

// RemoveParticipant drops a user from the room.
func (r *RoomRepo) RemoveParticipant(ctx context.Context, roomID, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM room_participants WHERE room_id=$1 AND user_id=$2`, roomID, userID)
	return err
}

// TransferOwnership reassigns created_by.
func (r *RoomRepo) TransferOwnership(ctx context.Context, roomID, newOwnerID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE rooms SET created_by=$1, updated_at=NOW() WHERE id=$2 AND is_active = TRUE`, newOwnerID, roomID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRoomNotFound)
}

// DeleteRoom hard-deletes the room; messages and media cascade.
func (r *RoomRepo) DeleteRoom(ctx context.Context, roomID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id=$1`, roomID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrRoomNotFound)
}

// SyncFamilyRoom update-or-creates the family's room and mirrors its
// participant set to the family's current membership. Idempotent.
func (r *RoomRepo) SyncFamilyRoom(ctx context.Context, family models.Family, memberIDs []int) (models.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room models.Room
	err = tx.QueryRowxContext(ctx, `INSERT INTO rooms (type, title, family_id, created_by)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (family_id) DO UPDATE SET title=EXCLUDED.title, created_by=EXCLUDED.created_by, updated_at=NOW()
        RETURNING `+roomColumns, models.RoomFamily, family.Name, family.ID, family.CreatorID).StructScan(&room)
	if err != nil {
		return models.Room{}, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM room_participants WHERE room_id=$1 AND NOT (user_id = ANY($2))`,
		room.ID, pq.Array(memberIDs)); err != nil {
		return models.Room{}, err
	}
	for _, id := range memberIDs {
		if _, err = tx.ExecContext(ctx, `INSERT INTO room_participants (room_id, user_id)
            VALUES ($1, $2) ON CONFLICT DO NOTHING`, room.ID, id); err != nil {
			return models.Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// DeleteFamilyRoom removes the room tied to a family, if any.
func (r *RoomRepo) DeleteFamilyRoom(ctx context.Context, familyID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE family_id=$1`, familyID)
	return err
}
