package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossa-project/tbta-review/internal/config"
	"github.com/glossa-project/tbta-review/internal/review"
	"github.com/glossa-project/tbta-review/internal/store"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{Port: 0, RateLimit: 100, Burst: 100}
}

// newTestServer wires a Server to a throwaway SQLite store seeded with one
// Genesis run and two review items.
func newTestServer(t *testing.T) (*Server, *store.Run, []store.Item) {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(ctx))

	summary := review.Summary{
		TotalFields:    3,
		NeedsReview:    2,
		HighConfidence: 1,
		ByStatus:       map[review.Status]int{review.StatusPending: 2},
		ByReason:       map[review.Reason]int{review.ReasonTheological: 1, review.ReasonTemporal: 1},
	}
	run, err := st.CreateRun(ctx, "GEN.001.026", "gen-1-26.yaml", 0.95, summary)
	require.NoError(t, err)

	_, err = st.SaveItems(ctx, run.ID, []review.Item{
		{
			Path: "clauses[0].children[0].Number", Field: "Number", Value: "Trial",
			Confidence: 0.45, Reason: review.ReasonTheological,
			Notes: "Trinity interpretation requires review.", Status: review.StatusPending,
		},
		{
			Path: "clauses[0].Time", Field: "Time", Value: "Earlier Today",
			Confidence: 0.50, Reason: review.ReasonTemporal,
			Notes: "Chronology unclear.", Status: review.StatusPending,
		},
	})
	require.NoError(t, err)

	items, err := st.ListItems(ctx, store.ItemFilter{RunID: run.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)

	return New(st, testConfig()), run, items
}

func doRequest(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func TestServer_Health(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestServer_ListRuns(t *testing.T) {
	srv, run, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/runs", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var runs []store.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "GEN.001.026", runs[0].Verse)
}

func TestServer_ListRuns_VerseFilterNoMatch(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/runs?verse=RUT.002.020", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	// An empty result renders as [], not null.
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestServer_GetRun(t *testing.T) {
	srv, run, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/runs/"+run.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got store.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.InDelta(t, 0.95, got.Threshold, 0.0001)
}

func TestServer_GetRun_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/runs/no-such-run", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "not found")
}

func TestServer_RunSummary(t *testing.T) {
	srv, run, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/runs/"+run.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var s review.Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &s))
	assert.Equal(t, 3, s.TotalFields)
	assert.Equal(t, 2, s.NeedsReview)
	assert.Equal(t, 1, s.ByReason[review.ReasonTheological])
}

func TestServer_ListItems_Filters(t *testing.T) {
	srv, run, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/items?run="+run.ID+"&reason=theological_interpretation", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var items []store.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Number", items[0].Field)

	rr = doRequest(t, srv, http.MethodGet, "/api/items?verse=GEN.001.026", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	assert.Len(t, items, 2)
}

func TestServer_ListItems_UnknownEnumValues(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/items?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown status")

	rr = doRequest(t, srv, http.MethodGet, "/api/items?reason=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown reason")
}

func TestServer_GetItem(t *testing.T) {
	srv, _, items := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/items/"+items[0].ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got store.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "clauses[0].children[0].Number", got.Path)

	rr = doRequest(t, srv, http.MethodGet, "/api/items/no-such-item", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServer_Decision_Approve(t *testing.T) {
	srv, _, items := newTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"status":      "approved",
		"reviewed_by": "mt",
	})
	rr := doRequest(t, srv, http.MethodPost, "/api/items/"+items[0].ID+"/decision", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var got store.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, review.StatusApproved, got.Status)
	assert.Equal(t, "mt", got.ReviewedBy)
	assert.NotNil(t, got.ReviewedAt)
}

func TestServer_Decision_Corrected(t *testing.T) {
	srv, _, items := newTestServer(t)

	body, _ := json.Marshal(map[string]string{
		"status":          "corrected",
		"reviewed_by":     "mt",
		"corrected_value": "Plural",
	})
	rr := doRequest(t, srv, http.MethodPost, "/api/items/"+items[0].ID+"/decision", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var got store.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, review.StatusCorrected, got.Status)
	assert.Equal(t, "Plural", got.CorrectedValue)
	// The machine value is kept for the audit trail.
	assert.Equal(t, "Trial", got.Value)
}

func TestServer_Decision_Invalid(t *testing.T) {
	srv, _, items := newTestServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/items/"+items[0].ID+"/decision", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// pending is not a decision.
	body, _ := json.Marshal(map[string]string{"status": "pending", "reviewed_by": "mt"})
	rr = doRequest(t, srv, http.MethodPost, "/api/items/"+items[0].ID+"/decision", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// corrected without a replacement value.
	body, _ = json.Marshal(map[string]string{"status": "corrected", "reviewed_by": "mt"})
	rr = doRequest(t, srv, http.MethodPost, "/api/items/"+items[0].ID+"/decision", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "corrected")
}

func TestServer_Decision_AlreadyDecided(t *testing.T) {
	srv, _, items := newTestServer(t)

	body, _ := json.Marshal(map[string]string{"status": "approved", "reviewed_by": "mt"})
	rr := doRequest(t, srv, http.MethodPost, "/api/items/"+items[0].ID+"/decision", body)
	require.Equal(t, http.StatusOK, rr.Code)

	body, _ = json.Marshal(map[string]string{"status": "rejected", "reviewed_by": "jb"})
	rr = doRequest(t, srv, http.MethodPost, "/api/items/"+items[0].ID+"/decision", body)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "already decided")
}

func TestServer_RateLimit(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "rl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	srv := New(st, config.ServerConfig{Port: 0, RateLimit: 1, Burst: 1})

	first := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, first.Code)

	second := doRequest(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "rate limit")
}

func TestServer_ListItems_Pagination(t *testing.T) {
	srv, run, _ := newTestServer(t)

	rr := doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/items?run=%s&limit=1", run.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var items []store.Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	first := items[0].Path

	rr = doRequest(t, srv, http.MethodGet, fmt.Sprintf("/api/items?run=%s&limit=1&offset=1", run.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.NotEqual(t, first, items[0].Path)
}
