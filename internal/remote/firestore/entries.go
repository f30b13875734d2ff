package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"shifttrack/internal/model"
)

type entryDoc struct {
	UserID    string     `firestore:"userId"`
	SwapIn    time.Time  `firestore:"swapIn"`
	SwapOut   *time.Time `firestore:"swapOut,omitempty"`
	CreatedAt time.Time  `firestore:"createdAt"`
}

func newEntryDoc(userID string, swapIn, createdAt time.Time, swapOut *time.Time) entryDoc {
	doc := entryDoc{
		UserID:    userID,
		SwapIn:    swapIn.UTC(),
		CreatedAt: createdAt.UTC(),
	}
	if swapOut != nil {
		out := swapOut.UTC()
		doc.SwapOut = &out
	}
	return doc
}

func (d entryDoc) toEntry(id string) model.Entry {
	entry := model.Entry{
		ID:        id,
		UserID:    d.UserID,
		SwapIn:    d.SwapIn,
		CreatedAt: d.CreatedAt,
	}
	if d.SwapOut != nil {
		out := *d.SwapOut
		entry.SwapOut = &out
	}
	return entry
}

// EntryRepository implements tracker.EntryRepository on Firestore.
type EntryRepository struct {
	client *fs.Client
}

func NewEntryRepository(client *fs.Client) *EntryRepository {
	return &EntryRepository{client: client}
}

func (r *EntryRepository) CreateEntry(ctx context.Context, userID string, swapIn, createdAt time.Time, swapOut *time.Time) (string, error) {
	ref, _, err := r.client.Collection(entriesCollection).Add(ctx, newEntryDoc(userID, swapIn, createdAt, swapOut))
	if err != nil {
		return "", fmt.Errorf("add entry: %w", err)
	}
	return ref.ID, nil
}

func (r *EntryRepository) PatchSwapOut(ctx context.Context, id string, swapOut time.Time) error {
	_, err := r.client.Collection(entriesCollection).Doc(id).Update(ctx, []fs.Update{
		{Path: "swapOut", Value: swapOut.UTC()},
	})
	if err != nil {
		return fmt.Errorf("update entry %s: %w", id, err)
	}
	return nil
}

func (r *EntryRepository) QueryTodaysEntry(ctx context.Context, userID string, dayStart, dayEnd time.Time) (*model.Entry, error) {
	iter := r.client.Collection(entriesCollection).
		Where("userId", "==", userID).
		Where("swapIn", ">=", dayStart).
		Where("swapIn", "<", dayEnd).
		OrderBy("swapIn", fs.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query today's entry: %w", err)
	}

	entry, err := decodeEntry(snap)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *EntryRepository) QueryEntriesSince(ctx context.Context, userID string, periodStart time.Time) ([]model.Entry, error) {
	iter := r.client.Collection(entriesCollection).
		Where("userId", "==", userID).
		Where("swapIn", ">=", periodStart).
		OrderBy("swapIn", fs.Desc).
		Documents(ctx)
	defer iter.Stop()

	entries := []model.Entry{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query entries: %w", err)
		}
		entry, err := decodeEntry(snap)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DeleteEntries attempts every id and reports the failures together.
func (r *EntryRepository) DeleteEntries(ctx context.Context, ids []string) error {
	var errs []error
	for _, id := range ids {
		if _, err := r.client.Collection(entriesCollection).Doc(id).Delete(ctx); err != nil {
			errs = append(errs, fmt.Errorf("delete entry %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func decodeEntry(snap *fs.DocumentSnapshot) (model.Entry, error) {
	var doc entryDoc
	if err := snap.DataTo(&doc); err != nil {
		return model.Entry{}, fmt.Errorf("decode entry %s: %w", snap.Ref.ID, err)
	}
	return doc.toEntry(snap.Ref.ID), nil
}
