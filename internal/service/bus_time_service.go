package service

import (
	"context"
	"errors"

	"shifttrack/internal/bus"
	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/model"
)

// Publisher receives a user's timetable after every change.
type Publisher interface {
	Publish(userID string, payload interface{})
}

type BusTimesView struct {
	BusTimes []model.BusTime `json:"busTimes"`
}

type BusTimeService struct {
	catalog   *bus.Catalog
	publisher Publisher
}

func NewBusTimeService(repo bus.Repository, publisher Publisher) *BusTimeService {
	return &BusTimeService{catalog: bus.NewCatalog(repo), publisher: publisher}
}

func (s *BusTimeService) List(ctx context.Context, userID string) (*BusTimesView, *apperrors.APIError) {
	busTimes, err := s.catalog.List(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to list bus times")
	}
	return &BusTimesView{BusTimes: busTimes}, nil
}

// Put sets the time stored under id, creating it when new.
func (s *BusTimeService) Put(ctx context.Context, userID, id, hhmm string) (*BusTimesView, *apperrors.APIError) {
	if err := s.catalog.Edit(ctx, userID, id, hhmm); err != nil {
		if errors.Is(err, apperrors.ErrInvalidTimeFormat) {
			return nil, apperrors.BadRequest("invalid_time", "time must be HH:MM").
				WithDetails(map[string]string{"time": hhmm})
		}
		return nil, apperrors.Internal("failed to save bus time")
	}
	return s.listAndPublish(ctx, userID)
}

func (s *BusTimeService) Delete(ctx context.Context, userID, id string) (*BusTimesView, *apperrors.APIError) {
	if err := s.catalog.Remove(ctx, userID, id); err != nil {
		return nil, apperrors.Internal("failed to delete bus time")
	}
	return s.listAndPublish(ctx, userID)
}

func (s *BusTimeService) listAndPublish(ctx context.Context, userID string) (*BusTimesView, *apperrors.APIError) {
	view, apiErr := s.List(ctx, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	if s.publisher != nil {
		s.publisher.Publish(userID, view)
	}
	return view, nil
}
