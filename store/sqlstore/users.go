package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/warp/inventory-engine/domain"
)

// =============================================================================
// USERS
// =============================================================================

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, timestamp{&u.CreatedAt}); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}

func (qs queries) InsertUser(ctx context.Context, u domain.User) (*domain.User, error) {
	created, err := scanUser(qs.queryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		u.Name, strings.ToLower(u.Email), u.PasswordHash, string(u.Role), now()))
	if err != nil {
		return nil, translate("insert user", err)
	}
	return created, nil
}

func (qs queries) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := scanUser(qs.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get user", err)
	}
	return u, nil
}

func (qs queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(qs.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get user by email", err)
	}
	return u, nil
}

func (qs queries) ListUsers(ctx context.Context, page domain.Page) ([]domain.User, error) {
	page = page.Normalize()
	rows, err := qs.query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list users", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translate("list users", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list users", err)
	}
	return users, nil
}
