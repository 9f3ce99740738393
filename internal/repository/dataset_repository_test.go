package repository

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/churn-prediction-api/internal/model"
)

func TestBuildPredictionInsert(t *testing.T) {
	cid := "c-2"
	inputs := []model.PredictionInput{
		{Probability: 0.9, Features: map[string]string{"tenure_months": "12"}},
		{CustomerID: &cid, Probability: 0.2, Features: map[string]string{"tenure_months": "3"}},
	}

	query, args, err := buildPredictionInsert(5, 0, inputs)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(query, "(?,?,?,?,?)"))
	require.Len(t, args, 10)

	// First row: no customer_id column, NULL is inserted.
	assert.Equal(t, uint64(5), args[0])
	assert.Equal(t, 0, args[1])
	assert.Equal(t, sql.NullString{}, args[2])
	assert.InDelta(t, 0.9, args[3].(float64), 1e-9)
	assert.JSONEq(t, `{"tenure_months":"12"}`, string(args[4].([]byte)))

	// Second row carries its customer_id.
	assert.Equal(t, 1, args[6])
	assert.Equal(t, sql.NullString{String: "c-2", Valid: true}, args[7])
}

func TestBuildPredictionInsertBaseIndexOffset(t *testing.T) {
	// Chunked inserts pass the chunk's start position so row_index keeps
	// the original upload order across statements.
	inputs := []model.PredictionInput{
		{Probability: 0.1, Features: map[string]string{}},
		{Probability: 0.2, Features: map[string]string{}},
	}

	_, args, err := buildPredictionInsert(5, predictionInsertChunk, inputs)
	require.NoError(t, err)
	require.Len(t, args, 10)
	assert.Equal(t, predictionInsertChunk, args[1])
	assert.Equal(t, predictionInsertChunk+1, args[6])
}

func TestBuildPredictionInsertStaysUnderPlaceholderLimit(t *testing.T) {
	// MySQL caps a prepared statement at 65,535 placeholders; a full
	// chunk must render fewer than that.
	assert.Less(t, predictionInsertChunk*5, 65535)

	inputs := make([]model.PredictionInput, predictionInsertChunk)
	for i := range inputs {
		inputs[i] = model.PredictionInput{Probability: 0.5, Features: map[string]string{"a": "1"}}
	}
	query, args, err := buildPredictionInsert(1, 0, inputs)
	require.NoError(t, err)
	assert.Equal(t, predictionInsertChunk*5, len(args))
	assert.Equal(t, predictionInsertChunk*5, strings.Count(query, "?"))
}
