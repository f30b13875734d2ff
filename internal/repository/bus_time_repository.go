package repository

import (
	"context"
	"database/sql"
	"fmt"

	"shifttrack/internal/model"
)

// BusTimeRepository stores each user's timetable. It satisfies
// bus.Repository.
type BusTimeRepository struct {
	db *sql.DB
}

func NewBusTimeRepository(db *sql.DB) *BusTimeRepository {
	return &BusTimeRepository{db: db}
}

func (r *BusTimeRepository) List(ctx context.Context, userID string) ([]model.BusTime, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, time FROM bus_times WHERE user_id = ? ORDER BY time ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bus times: %w", err)
	}
	defer rows.Close()

	times := []model.BusTime{}
	for rows.Next() {
		var bt model.BusTime
		if err := rows.Scan(&bt.ID, &bt.Time); err != nil {
			return nil, fmt.Errorf("scan bus time: %w", err)
		}
		times = append(times, bt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bus times: %w", err)
	}
	return times, nil
}

func (r *BusTimeRepository) Upsert(ctx context.Context, userID, id, hhmm string) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO bus_times (user_id, id, time) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, id) DO UPDATE SET time = excluded.time`,
		userID,
		id,
		hhmm,
	)
	if err != nil {
		return fmt.Errorf("upsert bus time: %w", err)
	}
	return nil
}

func (r *BusTimeRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bus_times WHERE user_id = ? AND id = ?`, userID, id); err != nil {
		return fmt.Errorf("delete bus time: %w", err)
	}
	return nil
}
