package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/blockmetrics/analysis"
	"github.com/colorfulnotion/blockmetrics/config"
	"github.com/colorfulnotion/blockmetrics/types"
)

var base = time.Date(2025, 3, 17, 23, 0, 0, 0, time.UTC)

func stamp(at time.Duration) string {
	return types.FormatTimestamp(base.Add(at))
}

func addedLine(number uint64, at time.Duration) string {
	return fmt.Sprintf("%s  INFO reth_node_events::node: Block added to canonical chain number=%d hash=0xabc elapsed=20ms", stamp(at), number)
}

func sampleLine(at time.Duration, count uint64) string {
	return fmt.Sprintf("%s DEBUG engine::root: Checking end condition proofs_processed=%d state_update_proofs_requested=0 prefetch_proofs_requested=0", stamp(at), count)
}

func testServer(t *testing.T, lines ...string) *Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
	analyzer, err := analysis.New(config.Default(), path)
	require.NoError(t, err)
	return NewServer(config.Default(), analyzer)
}

func dualRunServer(t *testing.T) *Server {
	return testServer(t,
		sampleLine(0, 5),
		sampleLine(time.Second, 10),
		addedLine(100, 1500*time.Millisecond),
		sampleLine(2*time.Second, 2),
		sampleLine(3*time.Second, 8),
		addedLine(100, time.Hour),
	)
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestOverviewPageRenders(t *testing.T) {
	rec := get(t, dualRunServer(t), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "100")
}

func TestBlockPageRenders(t *testing.T) {
	rec := get(t, dualRunServer(t), "/?block=100")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "100")
	assert.NotContains(t, body, "not found in both runs")

	rec = get(t, dualRunServer(t), "/?block=999")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found in both runs")

	rec = get(t, dualRunServer(t), "/?block=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownPathIs404(t *testing.T) {
	rec := get(t, dualRunServer(t), "/no-such-page")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProofsPage(t *testing.T) {
	s := dualRunServer(t)

	rec := get(t, s, "/proofs")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, s, "/proofs?window=0")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/chart/proofs?window=0")
}

func TestChartEndpoints(t *testing.T) {
	s := dualRunServer(t)
	for _, url := range []string{"/chart/overview", "/chart/block?number=100", "/chart/proofs", "/chart/proofs?window=0"} {
		rec := get(t, s, url)
		assert.Equal(t, http.StatusOK, rec.Code, url)
		assert.Contains(t, rec.Body.String(), "echarts", url)
	}

	rec := get(t, s, "/chart/block?number=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func postFindBlock(t *testing.T, s *Server, body string) findBlockResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/find_block", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp findBlockResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestFindBlockByNumber(t *testing.T) {
	s := dualRunServer(t)

	line, err := json.Marshal(findBlockRequest{LogLine: addedLine(22126043, 0)})
	require.NoError(t, err)
	resp := postFindBlock(t, s, string(line))
	assert.True(t, resp.Success)
	assert.Equal(t, "22126043", resp.BlockNumber)
}

func TestFindBlockByTimestamp(t *testing.T) {
	s := dualRunServer(t)

	// No block number, but a timestamp inside the first window.
	line, err := json.Marshal(findBlockRequest{LogLine: stamp(500*time.Millisecond) + " DEBUG something unrelated"})
	require.NoError(t, err)
	resp := postFindBlock(t, s, string(line))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.WindowIndex)
	assert.Equal(t, 0, *resp.WindowIndex)
}

func TestFindBlockRejectsGarbage(t *testing.T) {
	s := dualRunServer(t)

	resp := postFindBlock(t, s, `{"log_line": "nothing useful"}`)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)

	resp = postFindBlock(t, s, `not json`)
	assert.False(t, resp.Success)

	rec := get(t, s, "/find_block")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTailStopsOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.log")
	require.NoError(t, os.WriteFile(path, []byte(addedLine(100, 0)+"\n"), 0o644))

	hub := newHub()
	done := make(chan struct{})
	go hub.run(done)

	finished := make(chan struct{})
	go func() {
		tailFile(path, 1, hub, done)
		close(finished)
	}()

	close(done)
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("tail goroutine did not stop")
	}
}

func TestServerCloseIdempotent(t *testing.T) {
	s := dualRunServer(t)
	s.Close()
	s.Close()
}

func TestInvalidate(t *testing.T) {
	s := dualRunServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/invalidate", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = get(t, s, "/invalidate")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
