package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/history"
	"shifttrack/internal/model"
	"shifttrack/internal/repository"
)

type EntryService struct {
	repo *repository.EntryRepository
	now  func() time.Time
}

type CreateEntryInput struct {
	SwapIn    time.Time
	CreatedAt *time.Time
	SwapOut   *time.Time
}

// EntryList is a history listing with the time worked across it.
type EntryList struct {
	Entries      []model.Entry `json:"entries"`
	TotalSeconds int64         `json:"totalSeconds"`
}

func NewEntryService(repo *repository.EntryRepository) *EntryService {
	return &EntryService{repo: repo, now: time.Now}
}

func (s *EntryService) Create(ctx context.Context, userID string, input CreateEntryInput) (*model.Entry, *apperrors.APIError) {
	if input.SwapIn.IsZero() {
		return nil, apperrors.BadRequest("invalid_swap_in", "swapIn is required")
	}

	createdAt := s.now().UTC()
	if input.CreatedAt != nil && !input.CreatedAt.IsZero() {
		createdAt = input.CreatedAt.UTC()
	}

	entry := model.Entry{
		ID:        uuid.NewString(),
		UserID:    userID,
		SwapIn:    input.SwapIn.UTC(),
		CreatedAt: createdAt,
	}
	if input.SwapOut != nil {
		swapOut := input.SwapOut.UTC()
		entry.SwapOut = &swapOut
	}

	if err := s.repo.Create(ctx, &entry); err != nil {
		return nil, apperrors.Internal("failed to create entry")
	}
	return &entry, nil
}

func (s *EntryService) SetSwapOut(ctx context.Context, userID, id string, swapOut time.Time) (*model.Entry, *apperrors.APIError) {
	if swapOut.IsZero() {
		return nil, apperrors.BadRequest("invalid_swap_out", "swapOut is required")
	}

	entry, err := s.repo.SetSwapOut(ctx, userID, id, swapOut)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("entry_not_found", "entry not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to update entry")
	}
	return entry, nil
}

// Today returns the user's latest entry with swapIn in [start, end), or nil.
func (s *EntryService) Today(ctx context.Context, userID string, start, end time.Time) (*model.Entry, *apperrors.APIError) {
	if !end.After(start) {
		return nil, apperrors.BadRequest("invalid_range", "end must be after start")
	}

	entry, err := s.repo.LatestInRange(ctx, userID, start, end)
	if err == repository.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query entry")
	}
	return entry, nil
}

func (s *EntryService) ListSince(ctx context.Context, userID string, since time.Time) (*EntryList, *apperrors.APIError) {
	entries, err := s.repo.ListSince(ctx, userID, since)
	if err != nil {
		return nil, apperrors.Internal("failed to list entries")
	}
	return &EntryList{
		Entries:      entries,
		TotalSeconds: int64(history.TotalWorked(entries) / time.Second),
	}, nil
}

func (s *EntryService) ListPeriod(ctx context.Context, userID string, period history.Period) (*EntryList, *apperrors.APIError) {
	return s.ListSince(ctx, userID, history.Start(period, s.now()))
}

func (s *EntryService) Delete(ctx context.Context, userID string, ids []string) (int64, *apperrors.APIError) {
	if len(ids) == 0 {
		return 0, apperrors.BadRequest("invalid_ids", "ids are required")
	}

	deleted, err := s.repo.DeleteMany(ctx, userID, ids)
	if err != nil {
		return 0, apperrors.Internal("failed to delete entries")
	}
	return deleted, nil
}
