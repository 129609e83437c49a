package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cedarmarket/storefront/internal/storefront/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, username, password_hash, is_admin, is_blocked, last_blocked_at, created_at, updated_at`

func (r *usersRepo) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var lastBlockedAt sql.NullTime
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.Admin,
		&u.Blocked,
		&lastBlockedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.LastBlockedAt = mapNullTimePtr(lastBlockedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, normalizeEmail(email))
	return r.scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, is_admin, is_blocked, last_blocked_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		normalizeEmail(u.Email),
		u.Username,
		u.PasswordHash,
		u.Admin,
		u.Blocked,
		optionalTime(u.LastBlockedAt),
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) SetBlocked(ctx context.Context, userID string, blocked bool, at time.Time) error {
	var (
		res sql.Result
		err error
	)
	if blocked {
		res, err = r.db.ExecContext(ctx,
			`UPDATE users SET is_blocked = 1, last_blocked_at = ?, updated_at = ? WHERE id = ?`,
			at.UTC(), time.Now().UTC(), userID)
	} else {
		// last_blocked_at stays: unblocking must not rewrite history.
		res, err = r.db.ExecContext(ctx,
			`UPDATE users SET is_blocked = 0, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), userID)
	}
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func (r *usersRepo) GetBlockState(ctx context.Context, userID string) (domain.BlockState, error) {
	var st domain.BlockState
	var lastBlockedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT is_blocked, last_blocked_at FROM users WHERE id = ?`, userID).
		Scan(&st.Blocked, &lastBlockedAt)
	if err != nil {
		return domain.BlockState{}, mapNotFound(err)
	}
	st.LastBlockedAt = mapNullTimePtr(lastBlockedAt)
	return st, nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRowAffected(res)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
