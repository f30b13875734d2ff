// Package localstore keeps the single pending shift entry on the device.
//
// A store is a cache, not a ledger: Save and Clear never report failure to
// the caller, and Load treats unreadable data as an empty slot.
package localstore

import (
	"encoding/json"
	"fmt"

	apperrors "shifttrack/internal/errors"
	"shifttrack/internal/model"
)

// DefaultKey names the slot in every backend.
const DefaultKey = "shift-track-entry"

type Store interface {
	Save(entry model.LocalEntry)
	Load() (model.LocalEntry, bool)
	Clear()
}

func encode(entry model.LocalEntry) ([]byte, error) {
	return json.Marshal(entry)
}

func decode(raw []byte) (model.LocalEntry, error) {
	var entry model.LocalEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return model.LocalEntry{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedLocalData, err)
	}
	return entry, nil
}
