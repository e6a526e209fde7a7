package model

import "time"

// ViewEvent is queued for every listing view of an entry.
type ViewEvent struct {
	APIID      uint      `json:"api_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
