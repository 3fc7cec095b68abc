package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mehmettevfikcetin/flixary/internal/model"
	"github.com/mehmettevfikcetin/flixary/internal/utils"
)

// UserRepo provides access to the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const userColumns = "id,email,password_hash,display_name,bio,photo_url,banner_url,is_active,created_at,updated_at"

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password, displayName string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, display_name) VALUES (?,?,?)",
		email, hash, strings.TrimSpace(displayName))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio,
		&u.PhotoURL, &u.BannerURL, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// ProfileChanges carries a partial profile update. Nil fields stay
// untouched.
type ProfileChanges struct {
	DisplayName *string
	Bio         *string
	PhotoURL    *string
	BannerURL   *string
}

// UpdateProfile applies a partial update to a user's profile fields
// and refreshes updated_at. An empty change set is a no-op.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, ch ProfileChanges) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 5)
	if ch.DisplayName != nil {
		sets = append(sets, "display_name=?")
		args = append(args, strings.TrimSpace(*ch.DisplayName))
	}
	if ch.Bio != nil {
		sets = append(sets, "bio=?")
		args = append(args, *ch.Bio)
	}
	if ch.PhotoURL != nil {
		sets = append(sets, "photo_url=?")
		args = append(args, *ch.PhotoURL)
	}
	if ch.BannerURL != nil {
		sets = append(sets, "banner_url=?")
		args = append(args, *ch.BannerURL)
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at=NOW()")
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
	return err
}
