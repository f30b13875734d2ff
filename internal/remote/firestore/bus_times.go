package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"

	"shifttrack/internal/model"
)

type busTimeDoc struct {
	Time string `firestore:"time"`
}

// BusTimeRepository implements bus.Repository on users/{uid}/busTimes.
type BusTimeRepository struct {
	client *fs.Client
}

func NewBusTimeRepository(client *fs.Client) *BusTimeRepository {
	return &BusTimeRepository{client: client}
}

func (r *BusTimeRepository) collection(userID string) *fs.CollectionRef {
	return r.client.Collection(usersCollection).Doc(userID).Collection(busTimesCollection)
}

func (r *BusTimeRepository) List(ctx context.Context, userID string) ([]model.BusTime, error) {
	snaps, err := r.collection(userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list bus times: %w", err)
	}

	times := make([]model.BusTime, 0, len(snaps))
	for _, snap := range snaps {
		var doc busTimeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode bus time %s: %w", snap.Ref.ID, err)
		}
		times = append(times, model.BusTime{ID: snap.Ref.ID, Time: doc.Time})
	}
	return times, nil
}

func (r *BusTimeRepository) Upsert(ctx context.Context, userID, id, hhmm string) error {
	if _, err := r.collection(userID).Doc(id).Set(ctx, busTimeDoc{Time: hhmm}); err != nil {
		return fmt.Errorf("set bus time %s: %w", id, err)
	}
	return nil
}

func (r *BusTimeRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.collection(userID).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("delete bus time %s: %w", id, err)
	}
	return nil
}
