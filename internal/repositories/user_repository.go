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
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
	uniqueViolation = pq.ErrorCode("23505")
)

// UserRepository abstracts account persistence.
type UserRepository interface {
	Create(ctx context.Context, email, firstName, lastName, passwordHash string) (models.User, error)
	GetByID(ctx context.Context, userID int) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	BulkUsers(ctx context.Context, ids []int) ([]models.PublicUser, error)
	SetOnline(ctx context.Context, userID int, online bool) error
	SetLastIP(ctx context.Context, userID int, ip string) error
	MarkEmailVerified(ctx context.Context, userID int) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
	UpdateProfile(ctx context.Context, userID int, firstName, lastName string) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create registers a new account.
func (r *UserRepo) Create(ctx context.Context, email, firstName, lastName, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `INSERT INTO users (email, first_name, last_name, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING id, email, first_name, last_name, password_hash, is_online, email_verified, last_ip, created_at, updated_at, is_active`,
		email, firstName, lastName, passwordHash).StructScan(&user)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.User{}, ErrEmailTaken
		}
		return models.User{}, err
	}
	return user, nil
}

// GetByID fetches an active user by id.
func (r *UserRepo) GetByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, email, first_name, last_name, password_hash, is_online, email_verified, last_ip, created_at, updated_at, is_active
        FROM users WHERE id=$1 AND is_active = TRUE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetByEmail fetches an active user by login key.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, email, first_name, last_name, password_hash, is_online, email_verified, last_ip, created_at, updated_at, is_active
        FROM users WHERE email=$1 AND is_active = TRUE`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// BulkUsers returns public projections for the given ids.
func (r *UserRepo) BulkUsers(ctx context.Context, ids []int) ([]models.PublicUser, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.PublicUser
	err := r.db.SelectContext(ctx, &users, `SELECT id, email, first_name, last_name, is_online
        FROM users WHERE id = ANY($1) AND is_active = TRUE ORDER BY id`, pq.Array(ids))
	return users, err
}

// SetOnline flips the presence flag. Last write wins under concurrent toggles.
func (r *UserRepo) SetOnline(ctx context.Context, userID int, online bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET is_online=$1, updated_at=NOW() WHERE id=$2`, online, userID)
	return err
}

// SetLastIP records the address the user last connected from.
func (r *UserRepo) SetLastIP(ctx context.Context, userID int, ip string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_ip=$1, updated_at=NOW() WHERE id=$2`, ip, userID)
	return err
}

// MarkEmailVerified flips the verified flag.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, userID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET email_verified = TRUE, updated_at=NOW() WHERE id=$1 AND is_active = TRUE`, userID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrUserNotFound)
}

// UpdatePassword replaces the stored hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2 AND is_active = TRUE`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrUserNotFound)
}

// UpdateProfile changes the display name parts.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID int, firstName, lastName string) (models.User, error) {
	var user models.User
	err := r.db.QueryRowxContext(ctx, `UPDATE users SET first_name=$1, last_name=$2, updated_at=NOW()
        WHERE id=$3 AND is_active = TRUE
        RETURNING id, email, first_name, last_name, password_hash, is_online, email_verified, last_ip, created_at, updated_at, is_active`,
		firstName, lastName, userID).StructScan(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
