package model

import "time"

// Entry is a shift record as held by the remote store.
type Entry struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	SwapIn    time.Time  `json:"swapIn"`
	SwapOut   *time.Time `json:"swapOut,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Worked returns the shift length, or false while the shift is still open.
func (e Entry) Worked() (time.Duration, bool) {
	if e.SwapOut == nil {
		return 0, false
	}
	return e.SwapOut.Sub(e.SwapIn), true
}

// LocalEntry is the single pending record kept on the device.
type LocalEntry struct {
	ID            string     `json:"id,omitempty"`
	UserID        string     `json:"userId,omitempty"`
	SwapIn        *time.Time `json:"swapIn"`
	SwapOut       *time.Time `json:"swapOut"`
	Synced        bool       `json:"synced"`
	SwapOutSynced bool       `json:"swapOutSynced"`
}

// Complete reports whether both ends of the shift are known.
func (e LocalEntry) Complete() bool {
	return e.SwapIn != nil && e.SwapOut != nil
}

// Clone returns a copy that shares no pointers with e.
func (e LocalEntry) Clone() LocalEntry {
	out := e
	if e.SwapIn != nil {
		swapIn := *e.SwapIn
		out.SwapIn = &swapIn
	}
	if e.SwapOut != nil {
		swapOut := *e.SwapOut
		out.SwapOut = &swapOut
	}
	return out
}

// LocalFromRemote builds a confirmed local view of a remote record.
func LocalFromRemote(e Entry) LocalEntry {
	swapIn := e.SwapIn
	local := LocalEntry{
		ID:     e.ID,
		UserID: e.UserID,
		SwapIn: &swapIn,
		Synced: true,
	}
	if e.SwapOut != nil {
		swapOut := *e.SwapOut
		local.SwapOut = &swapOut
		local.SwapOutSynced = true
	}
	return local
}
