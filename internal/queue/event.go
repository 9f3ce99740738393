// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// DatasetScoredEvent is published after an upload has been scored and
// persisted. It carries enough information for downstream consumers to
// log, notify, or feed analytics without querying the primary database.
type DatasetScoredEvent struct {
	DatasetID   uint64 `json:"dataset_id"`
	OwnerID     uint64 `json:"owner_id"`
	DatasetName string `json:"dataset_name"`
	RowCount    int    `json:"row_count"`
	ScoredAt    string `json:"scored_at"`
}
