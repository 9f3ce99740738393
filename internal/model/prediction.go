package model

import "time"

// Prediction stores the churn probability computed for a single row
// of an uploaded dataset, together with the raw feature values that
// produced it. Rows and predictions correspond positionally: the
// prediction with RowIndex i was computed from row i of the upload.
// CustomerID is taken from the row's customer_id column when present
// and is nil otherwise; it may be duplicated across rows and is never
// used as a key.
//
// Fields:
//  ID          – primary key identifier.
//  DatasetID   – dataset this prediction belongs to.
//  RowIndex    – zero-based position of the source row in the upload.
//  CustomerID  – optional customer identifier from the source row.
//  Probability – churn probability in [0,1] as returned by the scorer.
//  Features    – header→value mapping of the source row, stored as JSON.
//  CreatedAt   – creation timestamp.
type Prediction struct {
	ID          uint64            // predictions.id
	DatasetID   uint64            // predictions.dataset_id
	RowIndex    int               // predictions.row_index
	CustomerID  *string           // predictions.customer_id (nullable)
	Probability float64           // predictions.probability
	Features    map[string]string // predictions.features (JSON column)
	CreatedAt   time.Time         // predictions.created_at
}

// PredictionInput carries one row's worth of data into the bulk
// insert that accompanies dataset creation. The repository assigns
// RowIndex from the slice position.
type PredictionInput struct {
	CustomerID  *string
	Probability float64
	Features    map[string]string
}
