package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/churn-prediction-api/internal/config"
)

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{"GET": true},
		TTL:          30 * time.Second,
		Prefix:       "cache",
		MaxBodyBytes: 1 << 20,
	}
}

func predictionsContext(accountID interface{}, datasetID string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/datasets/"+datasetID+"/predictions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/datasets/:id/predictions")
	c.SetParamNames("id")
	c.SetParamValues(datasetID)
	if accountID != nil {
		c.Set("account_id", accountID)
	}
	return c
}

func TestCacheKeyIsScopedToAccount(t *testing.T) {
	cfg := testCacheConfig()

	// Two accounts requesting the same dataset must never share a
	// cache entry: on a hit the handler's ownership check does not
	// run, so the key is the only isolation between users.
	keyA := cacheKeyFrom(cfg, predictionsContext(uint64(7), "1"))
	keyB := cacheKeyFrom(cfg, predictionsContext(uint64(8), "1"))
	assert.NotEqual(t, keyA, keyB)

	// The same account on the same route keys stably.
	again := cacheKeyFrom(cfg, predictionsContext(uint64(7), "1"))
	assert.Equal(t, keyA, again)

	// Distinct datasets key separately for the same account, and an
	// unauthenticated request never aliases an account's entry.
	assert.NotEqual(t, keyA, cacheKeyFrom(cfg, predictionsContext(uint64(7), "2")))
	assert.NotEqual(t, keyA, cacheKeyFrom(cfg, predictionsContext(nil, "1")))
}

func TestResponseCachePassThrough(t *testing.T) {
	next := func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	}

	// Disabled config and missing Redis client both degrade to a
	// no-op; the handler still runs and responds normally.
	for name, cfg := range map[string]config.CacheConfig{
		"nil redis": testCacheConfig(),
		"disabled":  {Enabled: false},
	} {
		c := predictionsContext(uint64(7), "1")
		mw := ResponseCache(cfg, nil)
		require.NoError(t, mw(next)(c), name)
		rec := c.Response().Writer.(*httptest.ResponseRecorder)
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.JSONEq(t, `{"ok":true}`, rec.Body.String(), name)
		assert.Empty(t, rec.Header().Get("X-Cache"), name)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	header := http.Header{}
	header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	body := []byte(`[{"row_index":0,"probability":0.9}]`)

	payload, err := encodePayload(http.StatusOK, header, body)
	require.NoError(t, err)

	status, gotHeader, gotBody, err := decodePayload(payload)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo.MIMEApplicationJSON, gotHeader.Get(echo.HeaderContentType))
	assert.Equal(t, body, gotBody)
}

func TestDecodePayloadRejectsTruncatedEntries(t *testing.T) {
	for _, payload := range [][]byte{nil, {0, 0}, {0, 0, 0, 200, 0, 0, 0, 99}} {
		_, _, _, err := decodePayload(payload)
		assert.Error(t, err)
	}
}
