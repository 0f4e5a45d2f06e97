package notify

import (
	"time"

	"github.com/google/uuid"
)

// Event reports appointments newly observed by the change detector.
// AddedIDs is sorted, so identical observations serialize identically.
type Event struct {
	AddedIDs   []uuid.UUID `json:"added_ids"`
	Count      int         `json:"count"`
	ObservedAt time.Time   `json:"observed_at"`
}
