package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"shifttrack/internal/model"
)

type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func (r *EntryRepository) Create(ctx context.Context, entry *model.Entry) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO entries (id, user_id, swap_in, swap_out, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		formatTime(entry.SwapIn),
		formatOptionalTime(entry.SwapOut),
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	return nil
}

// SetSwapOut updates the swap-out of an entry owned by userID. It returns
// ErrNotFound when no such entry exists for that user.
func (r *EntryRepository) SetSwapOut(ctx context.Context, userID, id string, swapOut time.Time) (*model.Entry, error) {
	result, err := r.db.ExecContext(
		ctx,
		`UPDATE entries SET swap_out = ? WHERE id = ? AND user_id = ?`,
		formatTime(swapOut),
		id,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("set swap out: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("set swap out rows: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, userID, id)
}

func (r *EntryRepository) GetByID(ctx context.Context, userID, id string) (*model.Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, swap_in, swap_out, created_at
		 FROM entries
		 WHERE id = ? AND user_id = ?`,
		id,
		userID,
	)
	return scanEntry(row)
}

// LatestInRange returns the entry with the latest swap_in in [start, end).
// A second shift after a completed one is the one still in progress.
func (r *EntryRepository) LatestInRange(ctx context.Context, userID string, start, end time.Time) (*model.Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, swap_in, swap_out, created_at
		 FROM entries
		 WHERE user_id = ? AND swap_in >= ? AND swap_in < ?
		 ORDER BY swap_in DESC
		 LIMIT 1`,
		userID,
		formatTime(start),
		formatTime(end),
	)
	return scanEntry(row)
}

func (r *EntryRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]model.Entry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, swap_in, swap_out, created_at
		 FROM entries
		 WHERE user_id = ? AND swap_in >= ?
		 ORDER BY swap_in DESC`,
		userID,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// DeleteMany removes the user's entries among ids and reports how many went.
func (r *EntryRepository) DeleteMany(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM entries WHERE user_id = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("delete entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete entries rows: %w", err)
	}
	return affected, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*model.Entry, error) {
	entry := model.Entry{}
	var swapIn string
	var swapOut sql.NullString
	var createdAt string
	if err := s.Scan(&entry.ID, &entry.UserID, &swapIn, &swapOut, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	parsedSwapIn, err := parseTime(swapIn)
	if err != nil {
		return nil, fmt.Errorf("parse entry swap_in: %w", err)
	}
	entry.SwapIn = parsedSwapIn

	if swapOut.Valid {
		parsedSwapOut, parseErr := parseTime(swapOut.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse entry swap_out: %w", parseErr)
		}
		entry.SwapOut = &parsedSwapOut
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse entry created_at: %w", err)
	}
	entry.CreatedAt = parsedCreatedAt
	return &entry, nil
}
