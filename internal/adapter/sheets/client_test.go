package sheets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cat-sightings-service/internal/config"
	"github.com/couchcryptid/cat-sightings-service/internal/domain"
	"github.com/couchcryptid/cat-sightings-service/internal/observability"
)

const (
	testSpreadsheetID = "sheet-123"
	testAPIKey        = "key-abc"
)

func testClient(baseURL string, maxRetries uint64) *Client {
	return NewClient(&config.Config{
		SheetsBaseURL:       baseURL,
		SheetsSpreadsheetID: testSpreadsheetID,
		SheetsAPIKey:        testAPIKey,
		SheetsSheetName:     "Sheet1",
		SheetsRange:         "A1:R",
		SheetsTimeout:       2 * time.Second,
		FetchMaxRetries:     maxRetries,
		FetchMaxElapsed:     5 * time.Second,
	}, observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeValues(t *testing.T, w http.ResponseWriter, values [][]string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(valueRange{
		Range:          "Sheet1!A1:R3",
		MajorDimension: "ROWS",
		Values:         values,
	}))
}

func TestClient_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-123/values/Sheet1!A1:R", r.URL.Path)
		assert.Equal(t, testAPIKey, r.URL.Query().Get("key"))
		writeValues(t, w, [][]string{
			{"Id", "Timestamp", "Latitude"},
			{"1", "3/14/2024 16:05:09", "51.5"},
			{"2", "3/15/2024 08:00:00"},
		})
	}))
	defer srv.Close()

	c := testClient(srv.URL, 2)
	header, rows, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.RawRow{"Id", "Timestamp", "Latitude"}, header)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.RawRow{"1", "3/14/2024 16:05:09", "51.5"}, rows[0])
	assert.Len(t, rows[1], 2, "trailing empty cells stay omitted")
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FetchAttempts))
}

func TestClient_Fetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			writeValues(t, w, [][]string{{"Id"}, {"1"}})
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, 4)
	_, rows, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3.0, testutil.ToFloat64(c.metrics.FetchAttempts))
	assert.Zero(t, testutil.ToFloat64(c.metrics.FetchFailures))
}

func TestClient_Fetch_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, 4)
	_, _, err := c.Fetch(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.FetchFailures))
}

func TestClient_Fetch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 1)
	_, _, err := c.Fetch(context.Background())

	var unavailable *domain.DataUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, source, unavailable.Source)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Fetch_EmptySheet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeValues(t, w, nil)
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, 0).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.ErrorIs(t, err, errNoHeader)
}

func TestClient_Fetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, _, err := testClient(srv.URL, 3).Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "decode values")
}

func TestClient_Fetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := testClient(srv.URL, 10).Fetch(ctx)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
