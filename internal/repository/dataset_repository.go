package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/churn-prediction-api/internal/model"
)

// DatasetRepo persists datasets and their predictions. A dataset and
// its predictions are written in a single transaction: either the
// whole batch becomes visible or nothing does, so no reader can ever
// observe a dataset with a partial row set.
type DatasetRepo struct{ DB *sql.DB }

func NewDatasetRepo(db *sql.DB) *DatasetRepo { return &DatasetRepo{DB: db} }

// CreateWithPredictions inserts the dataset row and bulk-inserts one
// prediction per input, assigning row_index from slice position. The
// caller is expected to have completed the oracle call already; this
// method is the last step of a successful upload.
func (r *DatasetRepo) CreateWithPredictions(ctx context.Context, ownerID uint64, name string, inputs []model.PredictionInput) (model.Dataset, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Dataset{}, err
	}
	defer func() { _ = tx.Rollback() }() // no-op after a successful commit

	res, err := tx.ExecContext(ctx,
		"INSERT INTO datasets (owner_id, name) VALUES (?,?)", ownerID, name)
	if err != nil {
		return model.Dataset{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Dataset{}, err
	}
	ds := model.Dataset{ID: uint64(id), OwnerID: ownerID, Name: name}

	if err := createPredictionsBulkTx(ctx, tx, ds.ID, inputs); err != nil {
		return model.Dataset{}, err
	}

	// Read back the timestamp the database assigned.
	if err := tx.QueryRowContext(ctx,
		"SELECT created_at FROM datasets WHERE id=?", ds.ID).Scan(&ds.CreatedAt); err != nil {
		return model.Dataset{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Dataset{}, err
	}
	return ds, nil
}

// predictionInsertChunk caps the rows per multi-value INSERT. MySQL
// allows at most 65,535 placeholders per statement; at five per row a
// chunk stays well under that, so upload size is bounded by memory, not
// by the statement width.
const predictionInsertChunk = 5000

// createPredictionsBulkTx inserts all predictions in chunked
// multi-value statements within the given transaction, so the whole
// batch still commits or rolls back as one unit. Passing an empty
// slice has no effect and returns nil.
func createPredictionsBulkTx(ctx context.Context, tx *sql.Tx, datasetID uint64, inputs []model.PredictionInput) error {
	for start := 0; start < len(inputs); start += predictionInsertChunk {
		end := start + predictionInsertChunk
		if end > len(inputs) {
			end = len(inputs)
		}
		query, args, err := buildPredictionInsert(datasetID, start, inputs[start:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

// buildPredictionInsert renders one multi-value INSERT for a chunk of
// inputs. baseIndex is the position of the chunk's first row in the
// original upload, so row_index stays positional across chunks.
func buildPredictionInsert(datasetID uint64, baseIndex int, inputs []model.PredictionInput) (string, []interface{}, error) {
	query := "INSERT INTO predictions (dataset_id, row_index, customer_id, probability, features) VALUES "
	args := make([]interface{}, 0, len(inputs)*5)
	for i, in := range inputs {
		if i > 0 {
			query += ","
		}
		query += "(?,?,?,?,?)"
		features, err := json.Marshal(in.Features)
		if err != nil {
			return "", nil, fmt.Errorf("marshal features for row %d: %w", baseIndex+i, err)
		}
		var customerID sql.NullString
		if in.CustomerID != nil {
			customerID = sql.NullString{String: *in.CustomerID, Valid: true}
		}
		args = append(args, datasetID, baseIndex+i, customerID, in.Probability, features)
	}
	return query, args, nil
}

// GetWithPredictions returns the dataset and its predictions in
// original row order. It fails with ErrNotFound when no dataset has
// that id and ErrForbidden when it exists but belongs to another
// account; callers map these to 404 and 403 without varying the
// response shape further.
func (r *DatasetRepo) GetWithPredictions(ctx context.Context, datasetID, requesterID uint64) (model.Dataset, []model.Prediction, error) {
	var ds model.Dataset
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,owner_id,name,created_at FROM datasets WHERE id=? LIMIT 1",
		datasetID).Scan(&ds.ID, &ds.OwnerID, &ds.Name, &ds.CreatedAt)
	if err == sql.ErrNoRows {
		return model.Dataset{}, nil, ErrNotFound
	}
	if err != nil {
		return model.Dataset{}, nil, err
	}
	if ds.OwnerID != requesterID {
		return model.Dataset{}, nil, ErrForbidden
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id,dataset_id,row_index,customer_id,probability,features,created_at FROM predictions WHERE dataset_id=? ORDER BY row_index ASC",
		datasetID)
	if err != nil {
		return model.Dataset{}, nil, err
	}
	defer rows.Close()

	preds := []model.Prediction{}
	for rows.Next() {
		var p model.Prediction
		var customerID sql.NullString
		var features []byte
		if err := rows.Scan(&p.ID, &p.DatasetID, &p.RowIndex, &customerID, &p.Probability, &features, &p.CreatedAt); err != nil {
			return model.Dataset{}, nil, err
		}
		if customerID.Valid {
			cid := customerID.String
			p.CustomerID = &cid
		}
		if len(features) > 0 {
			if err := json.Unmarshal(features, &p.Features); err != nil {
				return model.Dataset{}, nil, fmt.Errorf("unmarshal features for prediction %d: %w", p.ID, err)
			}
		}
		preds = append(preds, p)
	}
	if err := rows.Err(); err != nil {
		return model.Dataset{}, nil, err
	}
	return ds, preds, nil
}

// ListByOwner returns summaries of all datasets owned by an account,
// newest first, with their stored row counts.
func (r *DatasetRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.DatasetSummary, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT d.id, d.name, d.created_at, COUNT(p.id)
		   FROM datasets d
		   LEFT JOIN predictions p ON p.dataset_id = d.id
		  WHERE d.owner_id = ?
		  GROUP BY d.id, d.name, d.created_at
		  ORDER BY d.created_at DESC, d.id DESC`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.DatasetSummary{}
	for rows.Next() {
		var s model.DatasetSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.RowCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
