package gsheet

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"yahoo-comments-scraper/internal/config"
	"yahoo-comments-scraper/internal/layout"
	"yahoo-comments-scraper/internal/observability"
)

type recordedRequest struct {
	method string
	path   string
	body   string
}

type fakeSheetsAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"values": [][]string{
				{"https://news.yahoo.co.jp/articles/111"},
				{""},
				{"メモ"},
				{" https://news.yahoo.co.jp/articles/222#comment "},
			},
		})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []map[string]any{
				{"properties": map[string]any{"sheetId": 0, "title": "251018"}},
				{"properties": map[string]any{"sheetId": 7, "title": "251017"}},
			},
		})
	default:
		_, _ = io.WriteString(w, "{}")
	}
}

func (f *fakeSheetsAPI) find(method, pathPart string) (recordedRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.method == method && strings.Contains(r.path, pathPart) {
			return r, true
		}
	}
	return recordedRequest{}, false
}

func newTestClient(t *testing.T) (*Client, *fakeSheetsAPI) {
	t.Helper()

	api := &fakeSheetsAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	client, err := newClient(svc, config.SpreadsheetConfig{
		InputID:   "input-id",
		OutputID:  "output-id",
		URLColumn: "c",
		SheetRows: 100,
		SheetCols: 30,
	}, observability.NewNopLogger())
	require.NoError(t, err)

	return client, api
}

func TestReadInput(t *testing.T) {
	client, api := newTestClient(t)

	in, err := client.ReadInput(context.Background(), "251018")
	require.NoError(t, err)

	assert.Equal(t, []InputURL{
		{Row: 2, URL: "https://news.yahoo.co.jp/articles/111"},
		{Row: 5, URL: "https://news.yahoo.co.jp/articles/222"},
	}, in.URLs)

	require.Len(t, in.Rows, 5)
	assert.Equal(t, []string{"No", "日付", "URL"}, in.Rows[0])
	assert.Empty(t, in.Rows[2])

	req, ok := api.find(http.MethodGet, "/values/")
	require.True(t, ok)
	assert.Contains(t, req.path, "input-id")
	assert.Contains(t, req.path, "/values/'251018'")
}

func TestWriteCounts(t *testing.T) {
	client, api := newTestClient(t)

	err := client.WriteCounts(context.Background(), "251018", map[int]any{
		5: "取得失敗",
		2: 3,
	})
	require.NoError(t, err)

	req, ok := api.find(http.MethodPost, "values:batchUpdate")
	require.True(t, ok)
	assert.Contains(t, req.path, "input-id")

	var payload struct {
		ValueInputOption string `json:"valueInputOption"`
		Data             []struct {
			Range  string  `json:"range"`
			Values [][]any `json:"values"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(req.body), &payload))

	assert.Equal(t, "RAW", payload.ValueInputOption)
	require.Len(t, payload.Data, 2)
	assert.Equal(t, "'251018'!F2", payload.Data[0].Range)
	assert.Equal(t, [][]any{{float64(3)}}, payload.Data[0].Values)
	assert.Equal(t, "'251018'!F5", payload.Data[1].Range)
	assert.Equal(t, [][]any{{"取得失敗"}}, payload.Data[1].Values)
}

func TestWriteCountsEmptyIsNoop(t *testing.T) {
	client, api := newTestClient(t)

	require.NoError(t, client.WriteCounts(context.Background(), "251018", nil))
	assert.Empty(t, api.requests)
}

func TestReplaceSheet(t *testing.T) {
	client, api := newTestClient(t)

	grid := layout.NewGrid()
	grid.Set(1, 1, "番号")
	grid.Set(2, 3, "https://news.yahoo.co.jp/articles/111")

	require.NoError(t, client.ReplaceSheet(context.Background(), "251018", grid))

	batch, ok := api.find(http.MethodPost, ":batchUpdate")
	require.True(t, ok)

	var payload struct {
		Requests []struct {
			DeleteSheet *struct {
				SheetID *int64 `json:"sheetId"`
			} `json:"deleteSheet"`
			AddSheet *struct {
				Properties struct {
					Title          string `json:"title"`
					GridProperties struct {
						RowCount    int64 `json:"rowCount"`
						ColumnCount int64 `json:"columnCount"`
					} `json:"gridProperties"`
				} `json:"properties"`
			} `json:"addSheet"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal([]byte(batch.body), &payload))
	require.Len(t, payload.Requests, 2)

	require.NotNil(t, payload.Requests[0].DeleteSheet)
	require.NotNil(t, payload.Requests[0].DeleteSheet.SheetID)
	assert.Equal(t, int64(0), *payload.Requests[0].DeleteSheet.SheetID)

	require.NotNil(t, payload.Requests[1].AddSheet)
	assert.Equal(t, "251018", payload.Requests[1].AddSheet.Properties.Title)
	assert.Equal(t, int64(100), payload.Requests[1].AddSheet.Properties.GridProperties.RowCount)
	assert.Equal(t, int64(30), payload.Requests[1].AddSheet.Properties.GridProperties.ColumnCount)

	update, ok := api.find(http.MethodPut, "/values/")
	require.True(t, ok)
	assert.Contains(t, update.path, "'251018'!A1:C2")

	var values struct {
		Values [][]string `json:"values"`
	}
	require.NoError(t, json.Unmarshal([]byte(update.body), &values))
	assert.Equal(t, [][]string{
		{"番号", "", ""},
		{"", "", "https://news.yahoo.co.jp/articles/111"},
	}, values.Values)
}

func TestNewClientRejectsBadColumn(t *testing.T) {
	_, err := newClient(nil, config.SpreadsheetConfig{URLColumn: "C1"}, observability.NewNopLogger())
	assert.Error(t, err)

	_, err = newClient(nil, config.SpreadsheetConfig{URLColumn: "C", CountColumn: "6"}, observability.NewNopLogger())
	assert.Error(t, err)
}

func TestExtractURLs(t *testing.T) {
	values := [][]interface{}{
		{"", "https://header.example/skip"},
		{"a", "https://a.example/1"},
		{},
		{"b", 42.0},
		{"c", "not a url"},
		{"d", "http://b.example/2", "extra"},
	}

	assert.Equal(t, []InputURL{
		{Row: 2, URL: "https://a.example/1"},
		{Row: 6, URL: "http://b.example/2"},
	}, ExtractURLs(values, 2))
}
