package fingerprint

import "time"

// Mapping ties one user to one sensor slot. The sensor only ever reports a
// slot id, so this is the sole link between a scan event and a user record.
// Mappings are immutable once created.
type Mapping struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SlotID    int       `json:"slot_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}
