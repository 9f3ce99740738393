package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/churn-prediction-api/internal/config"
	"github.com/iliyamo/churn-prediction-api/internal/model"
	"github.com/iliyamo/churn-prediction-api/internal/oracle"
	"github.com/iliyamo/churn-prediction-api/internal/queue"
	"github.com/iliyamo/churn-prediction-api/internal/repository"
	"github.com/iliyamo/churn-prediction-api/internal/tabular"
)

// DatasetStore is the repository surface the dataset handlers need.
// *repository.DatasetRepo satisfies it.
type DatasetStore interface {
	CreateWithPredictions(ctx context.Context, ownerID uint64, name string, inputs []model.PredictionInput) (model.Dataset, error)
	GetWithPredictions(ctx context.Context, datasetID, requesterID uint64) (model.Dataset, []model.Prediction, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.DatasetSummary, error)
}

// Scorer is the outbound scoring surface. *oracle.Client satisfies it.
type Scorer interface {
	Score(ctx context.Context, rows []tabular.Row) (oracle.Result, error)
}

// DatasetHandler bundles dependencies for upload and retrieval.
// Publish, when non-nil, is invoked off the request path after a
// successful upload; failures there never affect the response.
type DatasetHandler struct {
	Cfg      config.Config
	Datasets DatasetStore
	Scorer   Scorer
	Publish  func(ctx context.Context, ev queue.DatasetScoredEvent) error
}

func NewDatasetHandler(cfg config.Config, d DatasetStore, s Scorer) *DatasetHandler {
	return &DatasetHandler{Cfg: cfg, Datasets: d, Scorer: s}
}

// ----- DTOs -----

type uploadResp struct {
	DatasetID          uint64             `json:"datasetId"`
	Count              int                `json:"count"`
	FeatureImportances map[string]float64 `json:"feature_importances"`
}

type predictionResp struct {
	ID          uint64            `json:"id"`
	RowIndex    int               `json:"row_index"`
	CustomerID  *string           `json:"customer_id"`
	Probability float64           `json:"probability"`
	Features    map[string]string `json:"features"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Upload accepts a multipart CSV file, scores its rows against the
// external service and persists dataset plus predictions atomically.
// The order of operations is deliberate: decode, then score, then one
// DB transaction. A failure at any step leaves nothing behind, so a
// dataset is only ever retrievable with its full prediction set.
func (h *DatasetHandler) Upload(c echo.Context) error {
	ownerID, ok := accountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing file"})
	}
	f, err := fh.Open()
	if err != nil {
		log.Printf("upload: open multipart file: %v", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}
	defer f.Close()
	buf, err := io.ReadAll(f)
	if err != nil {
		log.Printf("upload: read multipart file: %v", err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unreadable file"})
	}

	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		name = fmt.Sprintf("dataset-%d", time.Now().UnixMilli())
	}

	rows, err := tabular.Decode(buf)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "malformed csv"})
	}

	// The scoring call is the only blocking outbound operation in the
	// request path; the client's own timeout bounds it.
	res, err := h.Scorer.Score(c.Request().Context(), rows)
	if err != nil {
		log.Printf("upload: score: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "scoring service error"})
	}

	inputs := make([]model.PredictionInput, len(rows))
	for i, row := range rows {
		in := model.PredictionInput{
			Probability: res.Probabilities[i],
			Features:    row,
		}
		if cid, ok := row["customer_id"]; ok {
			v := cid
			in.CustomerID = &v
		}
		inputs[i] = in
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	ds, err := h.Datasets.CreateWithPredictions(ctx, ownerID, name, inputs)
	if err != nil {
		log.Printf("upload: persist dataset: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "persist failed"})
	}

	if h.Publish != nil {
		ev := queue.DatasetScoredEvent{
			DatasetID:   ds.ID,
			OwnerID:     ownerID,
			DatasetName: ds.Name,
			RowCount:    len(inputs),
			ScoredAt:    time.Now().UTC().Format(time.RFC3339),
		}
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer pcancel()
			_ = h.Publish(pctx, ev) // best effort; publisher logs its own errors
		}()
	}

	return c.JSON(http.StatusOK, uploadResp{
		DatasetID:          ds.ID,
		Count:              len(inputs),
		FeatureImportances: res.FeatureImportances,
	})
}

// GetPredictions returns the stored predictions of a dataset in
// original row order. Only the owner may read them: a foreign dataset
// yields 403, an unknown id 404, and neither response carries anything
// beyond the status and a fixed message.
func (h *DatasetHandler) GetPredictions(c echo.Context) error {
	requesterID, ok := accountID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	datasetID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		// A non-numeric id can match no dataset.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	_, preds, err := h.Datasets.GetWithPredictions(ctx, datasetID, requesterID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			log.Printf("predictions: load dataset %d: %v", datasetID, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load failed"})
		}
	}

	out := make([]predictionResp, len(preds))
	for i, p := range preds {
		out[i] = predictionResp{
			ID:          p.ID,
			RowIndex:    p.RowIndex,
			CustomerID:  p.CustomerID,
			Probability: p.Probability,
			Features:    p.Features,
			CreatedAt:   p.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, out)
}
