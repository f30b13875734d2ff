package bus

import (
	"context"
	"fmt"

	"shifttrack/internal/model"
)

// Repository is a per-user bus timetable.
type Repository interface {
	List(ctx context.Context, userID string) ([]model.BusTime, error)
	Upsert(ctx context.Context, userID, id, hhmm string) error
	Delete(ctx context.Context, userID, id string) error
}

// Catalog applies timetable rules on top of a Repository.
type Catalog struct {
	repo Repository
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo}
}

// List returns the user's timetable sorted by time, seeding the defaults
// first when it is empty.
func (c *Catalog) List(ctx context.Context, userID string) ([]model.BusTime, error) {
	busTimes, err := c.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bus times: %w", err)
	}
	if len(busTimes) == 0 {
		for _, t := range DefaultTimes {
			if err := c.repo.Upsert(ctx, userID, t, t); err != nil {
				return nil, fmt.Errorf("seed bus time %s: %w", t, err)
			}
		}
		busTimes, err = c.repo.List(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list seeded bus times: %w", err)
		}
	}
	SortByTime(busTimes)
	return busTimes, nil
}

// Add stores a new time using the time itself as its id.
func (c *Catalog) Add(ctx context.Context, userID, hhmm string) error {
	if err := ValidateTime(hhmm); err != nil {
		return err
	}
	if err := c.repo.Upsert(ctx, userID, hhmm, hhmm); err != nil {
		return fmt.Errorf("add bus time: %w", err)
	}
	return nil
}

func (c *Catalog) Edit(ctx context.Context, userID, id, hhmm string) error {
	if err := ValidateTime(hhmm); err != nil {
		return err
	}
	if err := c.repo.Upsert(ctx, userID, id, hhmm); err != nil {
		return fmt.Errorf("edit bus time: %w", err)
	}
	return nil
}

func (c *Catalog) Remove(ctx context.Context, userID, id string) error {
	if err := c.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("remove bus time: %w", err)
	}
	return nil
}
