package repositories

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"

	"github.com/jmoiron/sqlx"

	"famnet-backend/internal/models"
)

var (
	ErrFamilyNotFound = errors.New("family not found")
	ErrAlreadyMember  = errors.New("user is already a family member")
	ErrNotMember      = errors.New("user is not a family member")
)

// FamilyRepository abstracts family and membership persistence.
type FamilyRepository interface {
	CreateFamily(ctx context.Context, creatorID int, name string) (models.Family, error)
	GetFamily(ctx context.Context, familyID int) (models.Family, error)
	GetByInviteCode(ctx context.Context, code string) (models.Family, error)
	RotateInviteCode(ctx context.Context, familyID int) (models.Family, error)
	ListFamiliesForUser(ctx context.Context, userID int) ([]models.Family, error)
	AddMember(ctx context.Context, familyID, userID int, relation string) error
	RemoveMember(ctx context.Context, familyID, userID int) error
	MemberIDs(ctx context.Context, familyID int) ([]int, error)
	Members(ctx context.Context, familyID int) ([]models.PublicUser, error)
	IsMember(ctx context.Context, familyID, userID int) (bool, error)
	IsAdmin(ctx context.Context, familyID, userID int) (bool, error)
	GrantAdmin(ctx context.Context, familyID, userID int) error
	RevokeAdmin(ctx context.Context, familyID, userID int) error
	DeleteFamily(ctx context.Context, familyID int) error
}

// FamilyRepo is a sqlx implementation of FamilyRepository.
type FamilyRepo struct {
	db *sqlx.DB
}

// NewFamilyRepo constructs a FamilyRepo.
func NewFamilyRepo(db *sqlx.DB) *FamilyRepo {
	return &FamilyRepo{db: db}
}

const familyColumns = `id, creator_id, name, invite_code, created_at, updated_at, is_active`

const inviteCharset = "QWERTYUIOPASDFGHJKLZXCVBNM123456789"

func newInviteCode() string {
	buf := make([]byte, 10)
	max := big.NewInt(int64(len(inviteCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			buf[i] = inviteCharset[0]
			continue
		}
		buf[i] = inviteCharset[n.Int64()]
	}
	return string(buf)
}

// CreateFamily creates the family and enrolls the creator as its first member.
func (r *FamilyRepo) CreateFamily(ctx context.Context, creatorID int, name string) (models.Family, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Family{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var family models.Family
	if err = tx.QueryRowxContext(ctx, `INSERT INTO families (creator_id, name, invite_code)
        VALUES ($1, $2, $3) RETURNING `+familyColumns,
		creatorID, name, newInviteCode()).StructScan(&family); err != nil {
		return models.Family{}, err
	}

	if _, err = tx.ExecContext(ctx, `INSERT INTO family_members (family_id, member_id) VALUES ($1, $2)`,
		family.ID, creatorID); err != nil {
		return models.Family{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.Family{}, err
	}
	return family, nil
}

// GetFamily fetches an active family by id.
func (r *FamilyRepo) GetFamily(ctx context.Context, familyID int) (models.Family, error) {
	var family models.Family
	err := r.db.GetContext(ctx, &family, `SELECT `+familyColumns+` FROM families WHERE id=$1 AND is_active = TRUE`, familyID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Family{}, ErrFamilyNotFound
	}
	return family, err
}

// GetByInviteCode resolves a join code.
func (r *FamilyRepo) GetByInviteCode(ctx context.Context, code string) (models.Family, error) {
	var family models.Family
	err := r.db.GetContext(ctx, &family, `SELECT `+familyColumns+` FROM families WHERE invite_code=$1 AND is_active = TRUE`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Family{}, ErrFamilyNotFound
	}
	return family, err
}

// RotateInviteCode replaces the join code.
func (r *FamilyRepo) RotateInviteCode(ctx context.Context, familyID int) (models.Family, error) {
	var family models.Family
	err := r.db.QueryRowxContext(ctx, `UPDATE families SET invite_code=$1, updated_at=NOW()
        WHERE id=$2 AND is_active = TRUE RETURNING `+familyColumns,
		newInviteCode(), familyID).StructScan(&family)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Family{}, ErrFamilyNotFound
	}
	return family, err
}

// ListFamiliesForUser returns active families the user belongs to.
func (r *FamilyRepo) ListFamiliesForUser(ctx context.Context, userID int) ([]models.Family, error) {
	var families []models.Family
	err := r.db.SelectContext(ctx, &families, `SELECT f.id, f.creator_id, f.name, f.invite_code, f.created_at, f.updated_at, f.is_active
        FROM families f
        INNER JOIN family_members fm ON fm.family_id = f.id
        WHERE fm.member_id=$1 AND fm.is_active = TRUE AND f.is_active = TRUE
        ORDER BY f.name`, userID)
	return families, err
}

// AddMember enrolls a user.
func (r *FamilyRepo) AddMember(ctx context.Context, familyID, userID int, relation string) error {
	if relation == "" {
		relation = "Unknown"
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO family_members (family_id, member_id, relation)
        VALUES ($1, $2, $3) ON CONFLICT (family_id, member_id) DO NOTHING`, familyID, userID, relation)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrAlreadyMember)
}

// RemoveMember drops a user's membership and any admin role.
func (r *FamilyRepo) RemoveMember(ctx context.Context, familyID, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM family_members WHERE family_id=$1 AND member_id=$2`, familyID, userID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, ErrNotMember); err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM family_admins WHERE family_id=$1 AND user_id=$2`, familyID, userID)
	return err
}

// MemberIDs returns ids of active members.
func (r *FamilyRepo) MemberIDs(ctx context.Context, familyID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT member_id FROM family_members
        WHERE family_id=$1 AND is_active = TRUE ORDER BY member_id`, familyID)
	return ids, err
}

// Members returns the active members as public users.
func (r *FamilyRepo) Members(ctx context.Context, familyID int) ([]models.PublicUser, error) {
	var users []models.PublicUser
	err := r.db.SelectContext(ctx, &users, `SELECT u.id, u.email, u.first_name, u.last_name, u.is_online
        FROM users u
        INNER JOIN family_members fm ON fm.member_id = u.id
        WHERE fm.family_id=$1 AND fm.is_active = TRUE AND u.is_active = TRUE
        ORDER BY u.id`, familyID)
	return users, err
}

// IsMember checks active membership.
func (r *FamilyRepo) IsMember(ctx context.Context, familyID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
        SELECT 1 FROM family_members WHERE family_id=$1 AND member_id=$2 AND is_active = TRUE)`, familyID, userID)
	return exists, err
}

// IsAdmin checks the admin role.
func (r *FamilyRepo) IsAdmin(ctx context.Context, familyID, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(
        SELECT 1 FROM family_admins WHERE family_id=$1 AND user_id=$2)`, familyID, userID)
	return exists, err
}

// GrantAdmin adds the admin role, idempotently.
func (r *FamilyRepo) GrantAdmin(ctx context.Context, familyID, userID int) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO family_admins (family_id, user_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`, familyID, userID)
	return err
}

// RevokeAdmin removes the admin role.
func (r *FamilyRepo) RevokeAdmin(ctx context.Context, familyID, userID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM family_admins WHERE family_id=$1 AND user_id=$2`, familyID, userID)
	return err
}

// DeleteFamily hard-deletes the family; memberships, admins and the family
// room cascade at the storage layer.
func (r *FamilyRepo) DeleteFamily(ctx context.Context, familyID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM families WHERE id=$1`, familyID)
	if err != nil {
		return err
	}
	return requireAffected(res, ErrFamilyNotFound)
}
