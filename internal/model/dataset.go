package model

import "time"

// Dataset records one uploaded batch of customer rows. A dataset
// belongs to exactly one account and is created exactly once per
// successful upload; it is never updated afterwards. The predictions
// produced for its rows reference it via Prediction.DatasetID.
//
// Fields:
//  ID        – primary key identifier.
//  OwnerID   – account that uploaded the batch.
//  Name      – display name supplied by the client (not unique).
//  CreatedAt – creation timestamp.
type Dataset struct {
	ID        uint64    // datasets.id
	OwnerID   uint64    // datasets.owner_id
	Name      string    // datasets.name
	CreatedAt time.Time // datasets.created_at
}

// DatasetSummary is a read model used when listing an account's
// datasets, e.g. on the profile endpoint. RowCount is the number of
// predictions stored for the dataset.
type DatasetSummary struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}
