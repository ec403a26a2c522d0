package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/nekogravitycat/crm-backend/internal/db"
)

// Repository defines methods for accessing user data.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	UpdateProfile(ctx context.Context, id int64, changes ProfileChanges) error
	// UpdatePassword swaps the hash only if it still equals oldHash.
	UpdatePassword(ctx context.Context, id int64, oldHash, newHash string) error
	SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error
	// ConsumeResetToken sets newHash on the user holding an unexpired
	// tokenHash and clears the token in the same statement.
	ConsumeResetToken(ctx context.Context, tokenHash, newHash string, now time.Time) (int64, error)
}

type pgxRepository struct {
	pool db.DBTX
}

// NewPgxRepository creates a new user repository.
func NewPgxRepository(pool db.DBTX) Repository {
	return &pgxRepository{pool: pool}
}

var userColumns = []string{
	"id", "first_name", "last_name", "email", "password_hash", "role",
	"is_active", "last_login", "created_at", "updated_at",
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *pgxRepository) Create(ctx context.Context, u *User) error {
	query, args, err := db.Psql.Insert("users").
		Columns("first_name", "last_name", "email", "password_hash", "role", "is_active").
		Values(u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role, u.IsActive).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create user query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailAlreadyUsed
		}
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) getBy(ctx context.Context, where squirrel.Sqlizer) (*User, error) {
	query, args, err := db.Psql.Select(userColumns...).
		From("users").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user query failed: %w", err)
	}

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get user failed: %w", err)
	}
	return u, err
}

func (r *pgxRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

func (r *pgxRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, squirrel.Eq{"email": email})
}

func (r *pgxRepository) exec(ctx context.Context, b squirrel.UpdateBuilder, op string) (int64, error) {
	query, args, err := b.Set("updated_at", squirrel.Expr("now()")).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s query failed: %w", op, err)
	}
	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s failed: %w", op, err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	n, err := r.exec(ctx, db.Psql.Update("users").
		Set("last_login", at).
		Where(squirrel.Eq{"id": id}), "update last login")
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) UpdateProfile(ctx context.Context, id int64, changes ProfileChanges) error {
	b := db.Psql.Update("users").Where(squirrel.Eq{"id": id})
	if changes.FirstName != nil {
		b = b.Set("first_name", *changes.FirstName)
	}
	if changes.LastName != nil {
		b = b.Set("last_name", *changes.LastName)
	}
	if changes.Email != nil {
		b = b.Set("email", *changes.Email)
	}

	n, err := r.exec(ctx, b, "update profile")
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailInUse
		}
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) UpdatePassword(ctx context.Context, id int64, oldHash, newHash string) error {
	n, err := r.exec(ctx, db.Psql.Update("users").
		Set("password_hash", newHash).
		Set("reset_password_token", nil).
		Set("reset_password_expires", nil).
		Where(squirrel.Eq{"id": id, "password_hash": oldHash}), "update password")
	if err != nil {
		return err
	}
	if n == 0 {
		return errStaleHash
	}
	return nil
}

func (r *pgxRepository) SetResetToken(ctx context.Context, id int64, tokenHash string, expires time.Time) error {
	n, err := r.exec(ctx, db.Psql.Update("users").
		Set("reset_password_token", tokenHash).
		Set("reset_password_expires", expires).
		Where(squirrel.Eq{"id": id}), "set reset token")
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) ConsumeResetToken(ctx context.Context, tokenHash, newHash string, now time.Time) (int64, error) {
	query, args, err := db.Psql.Update("users").
		Set("password_hash", newHash).
		Set("reset_password_token", nil).
		Set("reset_password_expires", nil).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"reset_password_token": tokenHash}).
		Where(squirrel.Gt{"reset_password_expires": now}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build consume reset token query failed: %w", err)
	}

	var id int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrInvalidResetToken
		}
		return 0, fmt.Errorf("consume reset token failed: %w", err)
	}
	return id, nil
}
