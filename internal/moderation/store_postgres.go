// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/alfurqan/internal/content"
	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/database/schema"
	"github.com/taibuivan/alfurqan/internal/platform/dberr"
	"github.com/taibuivan/alfurqan/internal/platform/postgres"
)

var (
	contribution = schema.ModerationContribution
	auditTrail   = schema.ModerationAuditTrail

	contributionColumns = strings.Join(contribution.Columns(), ", ")
	auditColumns        = strings.Join(auditTrail.Columns(), ", ")
)

// PostgresStore is the production [Registry] and [AuditLog].
//
// Status changes are single conditional UPDATE statements, so the row lock
// taken by PostgreSQL decides review races. The audit insert shares the
// transaction of the change it describes.
type PostgresStore struct {
	db *pgxpool.Pool
	tx *postgres.TxManager
}

// NewPostgresStore creates a store over pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db, tx: postgres.NewTxManager(db)}
}

// # Registry

func (s *PostgresStore) Insert(ctx context.Context, item *Item, event Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		contribution.Table, contributionColumns)

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query,
			item.ContentType, item.ID, item.OwnerID, item.Tier, item.Status, item.ReviewerID,
			item.SubmittedAt, item.ReviewedAt, item.UpdatedAt, []byte(item.Payload),
		); err != nil {
			return err
		}
		return appendEvent(ctx, tx, event)
	})
	return dberr.Wrap(err, "insert_contribution")
}

func (s *PostgresStore) Get(ctx context.Context, kind content.Kind, id string) (*Item, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2`,
		contributionColumns, contribution.Table, contribution.ContentType, contribution.ID)

	item, err := scanItem(s.db.QueryRow(ctx, query, kind, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("Contribution")
	}
	if err != nil {
		return nil, dberr.Wrap(err, "get_contribution")
	}
	return item, nil
}

func (s *PostgresStore) Find(ctx context.Context, query Query) ([]*Item, error) {
	filter := itemFilter(query)

	direction := "ASC"
	if query.Order == NewestFirst {
		direction = "DESC"
	}

	sql := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s %s, %s %s`,
		contributionColumns, contribution.Table, filter,
		contribution.SubmittedAt, direction, contribution.ID, direction)
	if query.Limit > 0 {
		sql += " LIMIT " + filter.arg(query.Limit)
	}
	if query.Offset > 0 {
		sql += " OFFSET " + filter.arg(query.Offset)
	}

	rows, err := s.db.Query(ctx, sql, filter.args...)
	if err != nil {
		return nil, dberr.Wrap(err, "find_contributions")
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, dberr.Wrap(err, "scan_contribution")
		}
		items = append(items, item)
	}
	return items, dberr.Wrap(rows.Err(), "find_contributions")
}

func (s *PostgresStore) Count(ctx context.Context, query Query) (int, error) {
	query.After = nil
	filter := itemFilter(query)

	var total int
	sql := fmt.Sprintf(`SELECT count(*) FROM %s%s`, contribution.Table, filter)
	if err := s.db.QueryRow(ctx, sql, filter.args...).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "count_contributions")
	}
	return total, nil
}

func (s *PostgresStore) Update(ctx context.Context, cond Condition, item *Item, event *Event) (*Item, error) {
	filter := &sqlFilter{}
	keyFilter(filter, item.ContentType, item.ID)
	condFilter(filter, cond)

	set := strings.Join([]string{
		contribution.Tier + " = " + filter.arg(item.Tier),
		contribution.Status + " = " + filter.arg(item.Status),
		contribution.ReviewerID + " = " + filter.arg(item.ReviewerID),
		contribution.ReviewedAt + " = " + filter.arg(item.ReviewedAt),
		contribution.UpdatedAt + " = " + filter.arg(item.UpdatedAt),
		contribution.Payload + " = " + filter.arg([]byte(item.Payload)),
	}, ", ")

	query := fmt.Sprintf(`UPDATE %s SET %s%s RETURNING %s`, contribution.Table, set, filter, contributionColumns)

	var updated *Item
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var err error
		updated, err = scanItem(tx.QueryRow(ctx, query, filter.args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return s.missOrConflict(ctx, tx, item.ContentType, item.ID)
		}
		if err != nil {
			return err
		}
		if event == nil {
			return nil
		}
		return appendEvent(ctx, tx, *event)
	})
	if errors.Is(err, ErrPreconditionFailed) {
		return nil, err
	}
	if err != nil {
		return nil, dberr.Wrap(err, "update_contribution")
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, kind content.Kind, id string, cond Condition, event Event) error {
	filter := &sqlFilter{}
	keyFilter(filter, kind, id)
	condFilter(filter, cond)

	query := fmt.Sprintf(`DELETE FROM %s%s`, contribution.Table, filter)

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, filter.args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return s.missOrConflict(ctx, tx, kind, id)
		}
		return appendEvent(ctx, tx, event)
	})
	if errors.Is(err, ErrPreconditionFailed) {
		return err
	}
	return dberr.Wrap(err, "delete_contribution")
}

// missOrConflict tells a missing row apart from one that failed its condition.
func (s *PostgresStore) missOrConflict(ctx context.Context, q postgres.Querier, kind content.Kind, id string) error {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2)`,
		contribution.Table, contribution.ContentType, contribution.ID)

	var exists bool
	if err := q.QueryRow(ctx, query, kind, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("Contribution")
	}
	return ErrPreconditionFailed
}

// # AuditLog

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	return dberr.Wrap(appendEvent(ctx, s.db, event), "append_audit_event")
}

func (s *PostgresStore) History(ctx context.Context, kind content.Kind, id string) ([]Event, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 ORDER BY %s ASC, %s ASC`,
		auditColumns, auditTrail.Table, auditTrail.ContentType, auditTrail.ContentID,
		auditTrail.CreatedAt, auditTrail.ID)

	return s.queryEvents(ctx, "audit_history", query, kind, id)
}

func (s *PostgresStore) Events(ctx context.Context, f AuditFilter) ([]Event, error) {
	filter := &sqlFilter{}
	if f.ContentType != "" {
		filter.where(auditTrail.ContentType + " = " + filter.arg(f.ContentType))
	}
	if f.ActorID != "" {
		filter.where(auditTrail.ActorID + " = " + filter.arg(f.ActorID))
	}
	if f.Action != "" {
		filter.where(auditTrail.Action + " = " + filter.arg(f.Action))
	}
	if !f.Since.IsZero() {
		filter.where(auditTrail.CreatedAt + " >= " + filter.arg(f.Since))
	}
	if !f.Until.IsZero() {
		filter.where(auditTrail.CreatedAt + " < " + filter.arg(f.Until))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s DESC, %s DESC`,
		auditColumns, auditTrail.Table, filter, auditTrail.CreatedAt, auditTrail.ID)
	if f.Limit > 0 {
		query += " LIMIT " + filter.arg(f.Limit)
	}

	return s.queryEvents(ctx, "audit_events", query, filter.args...)
}

func (s *PostgresStore) queryEvents(ctx context.Context, action, query string, args ...any) ([]Event, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var event Event
		var from, to *string
		if err := rows.Scan(
			&event.ID, &event.ContentType, &event.ContentID, &event.ActorID, &event.ActorRole,
			&event.Action, &from, &to, &event.At,
		); err != nil {
			return nil, dberr.Wrap(err, action)
		}
		if from != nil {
			event.FromStatus = Status(*from)
		}
		if to != nil {
			event.ToStatus = Status(*to)
		}
		events = append(events, event)
	}
	return events, dberr.Wrap(rows.Err(), action)
}

func appendEvent(ctx context.Context, q postgres.Querier, event Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		auditTrail.Table, auditColumns)

	_, err := q.Exec(ctx, query,
		event.ID, event.ContentType, event.ContentID, event.ActorID, event.ActorRole,
		event.Action, nullableStatus(event.FromStatus), nullableStatus(event.ToStatus), event.At,
	)
	return err
}

// # Query Building

// sqlFilter accumulates WHERE clauses with positional arguments.
type sqlFilter struct {
	clauses []string
	args    []any
}

func (f *sqlFilter) arg(value any) string {
	f.args = append(f.args, value)
	return "$" + strconv.Itoa(len(f.args))
}

func (f *sqlFilter) where(clause string) {
	f.clauses = append(f.clauses, clause)
}

func (f *sqlFilter) String() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

func keyFilter(f *sqlFilter, kind content.Kind, id string) {
	f.where(contribution.ContentType + " = " + f.arg(kind))
	f.where(contribution.ID + " = " + f.arg(id))
}

func condFilter(f *sqlFilter, cond Condition) {
	if cond.Status != "" {
		f.where(contribution.Status + " = " + f.arg(cond.Status))
	}
	if cond.OwnerID != "" {
		f.where(contribution.OwnerID + " = " + f.arg(cond.OwnerID))
	}
}

// visibleClause renders a [Predicate] as SQL.
func visibleClause(f *sqlFilter, p Predicate) string {
	rule := fmt.Sprintf("(%s <> %s AND %s = %s)",
		contribution.Tier, f.arg(TierPrivate), contribution.Status, f.arg(StatusApproved))
	if p.Reviewer {
		rule = fmt.Sprintf("%s <> %s", contribution.Tier, f.arg(TierPrivate))
	}
	if p.ViewerID != "" {
		rule = fmt.Sprintf("(%s = %s OR %s)", contribution.OwnerID, f.arg(p.ViewerID), rule)
	}
	return rule
}

func itemFilter(query Query) *sqlFilter {
	f := &sqlFilter{}

	if query.Kind != "" {
		f.where(contribution.ContentType + " = " + f.arg(query.Kind))
	}
	if query.Visible != nil {
		f.where(visibleClause(f, *query.Visible))
	}
	if query.OwnerID != "" {
		f.where(contribution.OwnerID + " = " + f.arg(query.OwnerID))
	}
	if query.ExcludeOwnerID != "" {
		f.where(contribution.OwnerID + " <> " + f.arg(query.ExcludeOwnerID))
	}
	if len(query.Statuses) > 0 {
		statuses := make([]string, len(query.Statuses))
		for i, status := range query.Statuses {
			statuses[i] = string(status)
		}
		f.where(contribution.Status + " = ANY(" + f.arg(statuses) + ")")
	}
	if query.ExcludePrivate {
		f.where(contribution.Tier + " <> " + f.arg(TierPrivate))
	}
	if query.Text != "" {
		pattern := f.arg("%" + escapeLike(query.Text) + "%")
		fields := content.TextFields(query.Kind)
		matches := make([]string, len(fields))
		for i, field := range fields {
			matches[i] = contribution.Payload + "->>'" + field + "' ILIKE " + pattern
		}
		f.where("(" + strings.Join(matches, " OR ") + ")")
	}
	if query.After != nil {
		op := ">"
		if query.Order == NewestFirst {
			op = "<"
		}
		f.where(fmt.Sprintf("(%s, %s) %s (%s, %s::uuid)",
			contribution.SubmittedAt, contribution.ID, op,
			f.arg(query.After.SubmittedAt), f.arg(query.After.ID)))
	}
	return f
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullableStatus(status Status) *string {
	if status == "" {
		return nil
	}
	value := string(status)
	return &value
}

func scanItem(row pgx.Row) (*Item, error) {
	item := &Item{}
	var payload []byte
	err := row.Scan(
		&item.ContentType, &item.ID, &item.OwnerID, &item.Tier, &item.Status, &item.ReviewerID,
		&item.SubmittedAt, &item.ReviewedAt, &item.UpdatedAt, &payload,
	)
	if err != nil {
		return nil, err
	}
	item.Payload = payload
	return item, nil
}
