// Package web serves the comparison UI on top of the analysis engine. It
// owns no correlation logic: every handler reads the analyzer's cached
// result and renders it.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/colorfulnotion/blockmetrics/analysis"
	"github.com/colorfulnotion/blockmetrics/boundary"
	"github.com/colorfulnotion/blockmetrics/config"
	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/types"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Fields with no correlated value render as this placeholder. The engine
// itself reports absence as nil, never as text.
const unknown = "unknown"

type Server struct {
	cfg      config.Config
	analyzer *analysis.Analyzer
	hub      *Hub
	mux      *http.ServeMux

	done      chan struct{}
	closeOnce sync.Once
}

func NewServer(cfg config.Config, analyzer *analysis.Analyzer) *Server {
	s := &Server{
		cfg:      cfg,
		analyzer: analyzer,
		hub:      newHub(),
		mux:      http.NewServeMux(),
		done:     make(chan struct{}),
	}
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/proofs", s.handleProofs)
	s.mux.HandleFunc("/find_block", s.handleFindBlock)
	s.mux.HandleFunc("/invalidate", s.handleInvalidate)
	s.mux.HandleFunc("/chart/overview", s.handleChartOverview)
	s.mux.HandleFunc("/chart/block", s.handleChartBlock)
	s.mux.HandleFunc("/chart/proofs", s.handleChartProofs)
	s.mux.HandleFunc("/ws", s.handleWS)
	return s
}

// ListenAndServe starts the live tail and blocks serving HTTP.
func (s *Server) ListenAndServe() error {
	go s.hub.run(s.done)
	for i, path := range s.analyzer.Paths() {
		go tailFile(path, i+1, s.hub, s.done)
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	log.Info(log.WebMonitoring, "server listening", "addr", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Close stops the hub and tail goroutines. The HTTP listener belongs to
// ListenAndServe's caller.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// --- index: overview and per-block comparison ---

type overviewData struct {
	Blocks     []uint64
	SingleFile bool
	Dual       bool
	Paths      []string
}

type recordView struct {
	Hash       string
	Processing string
	Elapsed    string
	Root       string
}

type diffView struct {
	Percent float64
}

type blockData struct {
	Number      uint64
	Blocks      []uint64
	Error       string
	Run1        recordView
	Run2        recordView
	HashesMatch bool
	ProcDiff    *diffView
	ElapsedDiff *diffView
	RootDiff    *diffView
	Lines1      []string
	Lines2      []string
	SingleFile  bool
	Paths       []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}

	res, err := s.analyzer.Result()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if blockParam := r.URL.Query().Get("block"); blockParam != "" {
		number, err := strconv.ParseUint(blockParam, 10, 64)
		if err != nil {
			http.Error(w, "bad block number", http.StatusBadRequest)
			return
		}
		s.renderBlock(w, res, number)
		return
	}

	render(w, "overview.html", overviewData{
		Blocks:     res.Common,
		SingleFile: res.SingleFile,
		Dual:       res.Dual,
		Paths:      s.analyzer.Paths(),
	})
}

func (s *Server) renderBlock(w http.ResponseWriter, res *analysis.Result, number uint64) {
	rec1 := res.Run1.ByNumber()[number]
	rec2 := res.Run2.ByNumber()[number]

	data := blockData{
		Number:     number,
		Blocks:     res.Common,
		Run1:       viewOf(rec1),
		Run2:       viewOf(rec2),
		SingleFile: res.SingleFile,
		Paths:      s.analyzer.Paths(),
	}
	if rec1 == nil || rec2 == nil {
		data.Error = fmt.Sprintf("Block %d not found in both runs", number)
	} else {
		data.HashesMatch = rec1.Hash == rec2.Hash
		data.ProcDiff = percentDiff(rec1.Processing, rec2.Processing)
		e1, e2 := rec1.Elapsed, rec2.Elapsed
		data.ElapsedDiff = percentDiff(&e1, &e2)
		data.RootDiff = percentDiff(rec1.RootElapsed, rec2.RootElapsed)
	}

	var err error
	if data.Lines1, err = s.analyzer.LogLinesForBlock(number, true); err != nil {
		log.Error(log.WebMonitoring, "log line selection failed", "number", number, "run", 1, "err", err)
	}
	if data.Lines2, err = s.analyzer.LogLinesForBlock(number, false); err != nil {
		log.Error(log.WebMonitoring, "log line selection failed", "number", number, "run", 2, "err", err)
	}

	render(w, "block.html", data)
}

func viewOf(rec *types.BlockRecord) recordView {
	v := recordView{Hash: unknown, Processing: unknown, Elapsed: unknown, Root: unknown}
	if rec == nil {
		return v
	}
	v.Hash = rec.Hash.Hex()
	v.Elapsed = rec.Elapsed.String()
	if rec.Processing != nil {
		v.Processing = rec.Processing.String()
	}
	if rec.RootElapsed != nil {
		v.Root = rec.RootElapsed.String()
	}
	return v
}

// percentDiff reports (run1-run2)/run1 as a percentage; positive means run 2
// was faster. Absent on either side, or a zero baseline, yields no diff.
func percentDiff(d1, d2 *time.Duration) *diffView {
	if d1 == nil || d2 == nil || *d1 <= 0 {
		return nil
	}
	return &diffView{Percent: float64(*d1-*d2) / float64(*d1) * 100}
}

// --- proofs: counter time series ---

type windowOption struct {
	Index    int
	Start    string
	End      string
	Selected bool
}

type statsView struct {
	BlockNumber string
	BlockHash   string
	Duration    string
	Elapsed     string
	Rate        string
	Samples     int
}

type proofsData struct {
	Windows  []windowOption
	Stats    *statsView
	ChartURL string
	Paths    []string
}

func (s *Server) handleProofs(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzer.Result()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := proofsData{ChartURL: "/chart/proofs", Paths: s.analyzer.Paths()}

	selected := -1
	if windowParam := r.URL.Query().Get("window"); windowParam != "" {
		if idx, err := strconv.Atoi(windowParam); err == nil && idx >= 0 && idx < len(res.Windows) {
			selected = idx
			data.ChartURL = fmt.Sprintf("/chart/proofs?window=%d", idx)
		}
	}

	for _, win := range res.Windows {
		data.Windows = append(data.Windows, windowOption{
			Index:    win.Index,
			Start:    types.FormatTimestamp(win.Start),
			End:      types.FormatTimestamp(win.End),
			Selected: win.Index == selected,
		})
	}

	if selected >= 0 {
		win := res.Windows[selected]
		stats := boundary.Stats(res.Samples, win)
		view := &statsView{
			BlockNumber: unknown,
			BlockHash:   unknown,
			Duration:    fmt.Sprintf("%.2f ms", stats.DurationMS),
			Elapsed:     unknown,
			Rate:        fmt.Sprintf("%.1f proofs/s", stats.Rate),
			Samples:     stats.Samples,
		}
		if rec := win.Record; rec != nil {
			view.BlockNumber = strconv.FormatUint(rec.Number, 10)
			view.BlockHash = rec.Hash.Hex()
			view.Elapsed = rec.Elapsed.String()
			// The proof-processing total is more precise than the sample
			// span when it was correlated.
			if rec.Processing != nil {
				view.Duration = rec.Processing.String()
			}
		}
		data.Stats = view
	}

	render(w, "proofs.html", data)
}

// --- find_block: one typed JSON contract ---

type findBlockRequest struct {
	LogLine string `json:"log_line"`
}

type findBlockResponse struct {
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	BlockNumber string `json:"block_number,omitempty"`
	WindowIndex *int   `json:"window_index,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

func (s *Server) handleFindBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var req findBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LogLine == "" {
		writeJSON(w, findBlockResponse{Success: false, Error: "expected JSON body with log_line"})
		return
	}

	if number, ok := s.analyzer.FindBlockForLogLine(req.LogLine); ok {
		writeJSON(w, findBlockResponse{Success: true, BlockNumber: strconv.FormatUint(number, 10)})
		return
	}

	if ts, ok := types.TimestampFromLine(req.LogLine); ok {
		idx, found, err := s.analyzer.FindWindowForTimestamp(ts)
		if err != nil {
			writeJSON(w, findBlockResponse{Success: false, Error: err.Error()})
			return
		}
		if found {
			writeJSON(w, findBlockResponse{Success: true, WindowIndex: &idx, Timestamp: types.FormatTimestamp(ts)})
			return
		}
		writeJSON(w, findBlockResponse{Success: false, Error: "no block window contains this timestamp"})
		return
	}

	writeJSON(w, findBlockResponse{Success: false, Error: "no block number or timestamp found in log line"})
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	s.analyzer.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

// --- chart endpoints, embedded by the pages as iframes ---

func (s *Server) handleChartOverview(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzer.Result()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	overviewPage(res, s.cfg.ChartBlocks).Render(w)
}

func (s *Server) handleChartBlock(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzer.Result()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	number, err := strconv.ParseUint(r.URL.Query().Get("number"), 10, 64)
	if err != nil {
		http.Error(w, "bad block number", http.StatusBadRequest)
		return
	}
	blockPage(number, res.Run1.ByNumber()[number], res.Run2.ByNumber()[number]).Render(w)
}

func (s *Server) handleChartProofs(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyzer.Result()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	samples := res.Samples
	title := fmt.Sprintf("All Windows (%d data points)", len(samples))
	if windowParam := r.URL.Query().Get("window"); windowParam != "" {
		if idx, err := strconv.Atoi(windowParam); err == nil && idx >= 0 && idx < len(res.Windows) {
			win := res.Windows[idx]
			samples = boundary.SamplesIn(samples, win)
			title = fmt.Sprintf("Window %d: %s to %s (%d data points)",
				idx, types.FormatTimestamp(win.Start), types.FormatTimestamp(win.End), len(samples))
		}
	}
	counterPage(samples, title).Render(w)
}

func render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Error(log.WebMonitoring, "template render failed", "template", name, "err", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
