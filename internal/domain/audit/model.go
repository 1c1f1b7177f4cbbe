// Package audit persists donor metadata change records. The entity API
// keeps only the latest document; the audit trail is the local record of
// who changed what, when, carrying the serialized delta the user confirmed.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded metadata change.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	DonorID    string          `json:"donor_id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	Delta      json.RawMessage `json:"delta"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// ActionUpdate is the only action this service records today; creates go
// through the same write path and carry the first-metadata sentinel in
// the delta.
const ActionUpdate = "update"
