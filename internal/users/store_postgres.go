// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/database/schema"
	"github.com/taibuivan/alfurqan/internal/platform/dberr"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

var (
	account        = schema.UserAccount
	accountColumns = strings.Join(account.Columns(), ", ")
)

// Unique index names from 000001_users.up.sql.
const (
	usernameConstraint = "account_username_key"
	emailConstraint    = "account_email_key"
)

// PostgresStore implements [Store] on the users.account table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Create persists a new account into the users.account table.

Description: Unique index violations on username or email are reported as a
Conflict naming the offending field.

Returns:
  - error: apperr.Conflict or wrapped database errors
*/
func (s *PostgresStore) Create(ctx context.Context, acc *Account) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`, account.Table, accountColumns)

	_, err := s.pool.Exec(ctx, query,
		acc.ID,
		acc.Username,
		acc.Email,
		acc.PasswordHash,
		acc.Role,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if dberr.IsUniqueViolation(err) {
		return duplicateAccount(err)
	}
	return dberr.Wrap(err, "create_account")
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, accountColumns, account.Table, account.ID)
	return s.findOne(ctx, query, id)
}

func (s *PostgresStore) FindByLogin(ctx context.Context, login string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE lower(%s) = lower($1) OR lower(%s) = lower($1) LIMIT 1`,
		accountColumns, account.Table, account.Username, account.Email)
	return s.findOne(ctx, query, login)
}

func (s *PostgresStore) UpdateRole(ctx context.Context, id string, role sec.Role, updatedAt time.Time) (*Account, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1 RETURNING %s`,
		account.Table, account.Role, account.UpdatedAt, account.ID, accountColumns)
	return s.findOne(ctx, query, id, role, updatedAt)
}

func (s *PostgresStore) CountByRole(ctx context.Context, role sec.Role) (int, error) {
	query := fmt.Sprintf(`SELECT count(*) FROM %s WHERE %s = $1`, account.Table, account.Role)

	var count int
	if err := s.pool.QueryRow(ctx, query, role).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, "count_accounts")
	}
	return count, nil
}

// # Helpers

func (s *PostgresStore) findOne(ctx context.Context, query string, args ...any) (*Account, error) {
	var (
		acc  Account
		role string
	)
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&acc.ID,
		&acc.Username,
		&acc.Email,
		&acc.PasswordHash,
		&role,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("User")
	}
	if err != nil {
		return nil, dberr.Wrap(err, "find_account")
	}

	acc.Role = sec.Normalize(role)
	return &acc, nil
}

func duplicateAccount(err error) error {
	var pgErr *pgconn.PgError
	errors.As(err, &pgErr)

	var conflict *apperr.AppError
	switch pgErr.ConstraintName {
	case usernameConstraint:
		conflict = apperr.Conflict("Username is already taken")
	case emailConstraint:
		conflict = apperr.Conflict("Email is already registered")
	default:
		conflict = apperr.Conflict("Account already exists")
	}
	conflict.Cause = err
	return conflict
}
