package repository

import (
	"errors"
	"fmt"
	"strings"

	"context"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles database operations for accounts
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account and returns its id. A duplicate username
// maps to apperr.ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	query := `
		INSERT INTO accounts (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("username taken: %w", apperr.ErrConflict)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return user.ID, nil
}

// GetByID retrieves an account by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, "id = $1", id)
}

// GetByUsername retrieves an account by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, "username = $1", username)
}

func (r *UserRepository) get(ctx context.Context, cond string, arg any) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, created_at
		FROM accounts
		WHERE ` + cond
	var user models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Update applies the non-nil fields to an account.
func (r *UserRepository) Update(ctx context.Context, id int64, username, email, passwordHash *string) error {
	sets := []string{}
	args := []any{}
	if username != nil {
		args = append(args, *username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if email != nil {
		args = append(args, *email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if passwordHash != nil {
		args = append(args, *passwordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if len(sets) == 0 {
		return fmt.Errorf("no fields to update: %w", apperr.ErrValidation)
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE accounts SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("username taken: %w", apperr.ErrConflict)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	return nil
}

// Delete removes a non-admin account. The role predicate is part of the
// statement so an admin row can never be deleted, whatever the caller
// checked beforehand.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1 AND role <> 'admin'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	return nil
}

// ListAdmin returns every account joined with its profile flags and
// marker count, newest first.
func (r *UserRepository) ListAdmin(ctx context.Context) ([]models.AdminUser, error) {
	query := `
		SELECT u.id, u.username, u.email, u.role, u.created_at,
		       COALESCE(p.is_private, false),
		       COALESCE(p.hide_posts, false),
		       COALESCE(p.hide_following, false),
		       COALESCE(p.hide_followers, false),
		       (SELECT COUNT(*) FROM markers m WHERE m.reporter_id = u.id)
		FROM accounts u
		LEFT JOIN profiles p ON u.id = p.user_id
		ORDER BY u.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.AdminUser
	for rows.Next() {
		var u models.AdminUser
		if err := rows.Scan(
			&u.ID, &u.Username, &u.Email, &u.Role, &u.CreatedAt,
			&u.IsPrivate, &u.HidePosts, &u.HideFollowing, &u.HideFollowers,
			&u.MarkersCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
