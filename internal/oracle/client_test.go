package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/churn-prediction-api/internal/tabular"
)

func threeRows() []tabular.Row {
	return []tabular.Row{
		{"customer_id": "c-1", "tenure_months": "12"},
		{"customer_id": "c-2", "tenure_months": "3"},
		{"customer_id": "c-3", "tenure_months": "40"},
	}
}

func TestScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/predict", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Rows, 3)
		assert.Equal(t, "c-2", req.Rows[1]["customer_id"])

		json.NewEncoder(w).Encode(Result{
			Probabilities:      []float64{0.9, 0.2, 0.7},
			FeatureImportances: map[string]float64{"tenure_months": 0.8},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	res, err := c.Score(context.Background(), threeRows())
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.2, 0.7}, res.Probabilities)
	assert.InDelta(t, 0.8, res.FeatureImportances["tenure_months"], 1e-9)
}

func TestScoreNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Score(context.Background(), threeRows())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestScoreUnparsableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Score(context.Background(), threeRows())
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestScoreUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before use: connection refused

	c := NewClient(srv.URL, time.Second)
	_, err := c.Score(context.Background(), threeRows())
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestScoreLengthMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Result{Probabilities: []float64{0.9, 0.2}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Score(context.Background(), threeRows())
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestScoreCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, time.Second)
	for i := 0; i < 5; i++ {
		_, err := c.Score(context.Background(), threeRows())
		require.ErrorIs(t, err, ErrUnreachable)
	}
	// Breaker is now open; the failure no longer needs a dial attempt.
	_, err := c.Score(context.Background(), threeRows())
	assert.ErrorIs(t, err, ErrUnreachable)
}
