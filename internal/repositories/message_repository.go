package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"famnet-backend/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrReplyNotFound   = errors.New("reply target not found")
)

// MediaInput describes an attachment persisted alongside a message.
type MediaInput struct {
	FileKey   string
	ByteSize  int64
	Extension string
}

// MessageRepository defines interactions for room messages.
type MessageRepository interface {
	CreateMessage(ctx context.Context, roomID, userID int, content string, replyTo *int, media []MediaInput) (models.Message, error)
	ListRoomMessages(ctx context.Context, roomID, limit int) ([]models.Message, error)
	GetMessage(ctx context.Context, messageID int) (models.Message, error)
	GetMessages(ctx context.Context, roomID int, messageIDs []int) ([]models.Message, error)
	DeleteMessage(ctx context.Context, messageID int) error
	MarkRead(ctx context.Context, roomID, userID int, messageIDs []int) error
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, room_id, user_id, content, reply_to_id, is_edited, edited_at, created_at, is_active`

// CreateMessage stores a message and its media in one transaction. A dangling
// reply reference or a failed media row aborts the whole write.
func (r *MessageRepo) CreateMessage(ctx context.Context, roomID, userID int, content string, replyTo *int, media []MediaInput) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if replyTo != nil {
		var exists bool
		if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM messages WHERE id=$1 AND is_active = TRUE)`, *replyTo); err != nil {
			return models.Message{}, err
		}
		if !exists {
			err = ErrReplyNotFound
			return models.Message{}, err
		}
	}

	var msg models.Message
	if err = tx.QueryRowxContext(ctx, `INSERT INTO messages (room_id, user_id, content, reply_to_id)
        VALUES ($1, $2, $3, $4) RETURNING `+messageColumns,
		roomID, userID, content, replyTo).StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	for _, m := range media {
		var row models.MessageMedia
		if err = tx.QueryRowxContext(ctx, `INSERT INTO message_media (message_id, file_key, byte_size, extension)
            VALUES ($1, $2, $3, $4)
            RETURNING id, message_id, file_key, byte_size, extension, created_at`,
			msg.ID, m.FileKey, m.ByteSize, m.Extension).StructScan(&row); err != nil {
			return models.Message{}, err
		}
		msg.Media = append(msg.Media, row)
	}

	if err = tx.Commit(); err != nil {
		return models.Message{}, err
	}
	msg.HaveRead = []int{}
	return msg, nil
}

// ListRoomMessages returns the latest messages in the room, newest first,
// with read sets and media attached.
func (r *MessageRepo) ListRoomMessages(ctx context.Context, roomID, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE room_id=$1 AND is_active = TRUE
        ORDER BY created_at DESC LIMIT $2`, roomID, limit)
	if err != nil {
		return nil, err
	}
	if err := r.attachRelations(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// GetMessage retrieves a single message with its read set and media.
func (r *MessageRepo) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE id=$1 AND is_active = TRUE`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, err
	}
	one := []models.Message{msg}
	if err := r.attachRelations(ctx, one); err != nil {
		return models.Message{}, err
	}
	return one[0], nil
}

// GetMessages retrieves the given messages of the room in id order. Ids
// belonging to other rooms are dropped.
func (r *MessageRepo) GetMessages(ctx context.Context, roomID int, messageIDs []int) ([]models.Message, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE room_id=$1 AND id = ANY($2) AND is_active = TRUE ORDER BY id`, roomID, pq.Array(messageIDs))
	if err != nil {
		return nil, err
	}
	if err := r.attachRelations(ctx, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// DeleteMessage hard-deletes a message; media and read rows cascade.
func (r *MessageRepo) DeleteMessage(ctx context.Context, messageID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id=$1`, messageID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrMessageNotFound)
}

// MarkRead adds the user to each message's read set. Re-reading is a no-op;
// ids pointing at deleted messages or at other rooms are skipped.
func (r *MessageRepo) MarkRead(ctx context.Context, roomID, userID int, messageIDs []int) error {
	if len(messageIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO message_reads (message_id, user_id)
        SELECT m.id, $1 FROM messages m WHERE m.room_id = $2 AND m.id = ANY($3)
        ON CONFLICT DO NOTHING`, userID, roomID, pq.Array(messageIDs))
	return err
}

func (r *MessageRepo) attachRelations(ctx context.Context, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	ids := make([]int, 0, len(msgs))
	index := make(map[int]int, len(msgs))
	for i := range msgs {
		msgs[i].HaveRead = []int{}
		ids = append(ids, msgs[i].ID)
		index[msgs[i].ID] = i
	}

	type readRow struct {
		MessageID int `db:"message_id"`
		UserID    int `db:"user_id"`
	}
	var reads []readRow
	if err := r.db.SelectContext(ctx, &reads, `SELECT message_id, user_id FROM message_reads
        WHERE message_id = ANY($1) ORDER BY user_id`, pq.Array(ids)); err != nil {
		return err
	}
	for _, row := range reads {
		i := index[row.MessageID]
		msgs[i].HaveRead = append(msgs[i].HaveRead, row.UserID)
	}

	var media []models.MessageMedia
	if err := r.db.SelectContext(ctx, &media, `SELECT id, message_id, file_key, byte_size, extension, created_at
        FROM message_media WHERE message_id = ANY($1) ORDER BY id`, pq.Array(ids)); err != nil {
		return err
	}
	for _, m := range media {
		i := index[m.MessageID]
		msgs[i].Media = append(msgs[i].Media, m)
	}
	return nil
}
