// Package analysis owns the parsed view of one or two benchmark log files.
// A full file scan is the dominant cost, so the Analyzer computes its
// artifacts once and serves every query from that snapshot; concurrent first
// callers share a single scan through a singleflight group. Invalidate
// discards the snapshot so the next query rebuilds it.
package analysis

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/colorfulnotion/blockmetrics/boundary"
	"github.com/colorfulnotion/blockmetrics/config"
	"github.com/colorfulnotion/blockmetrics/correlate"
	"github.com/colorfulnotion/blockmetrics/extract"
	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/logwindow"
	"github.com/colorfulnotion/blockmetrics/types"
)

// Result is one complete analysis pass. It is immutable once built; a new
// pass replaces it wholesale.
type Result struct {
	SingleFile bool
	Dual       bool // two interleaved runs detected in one file

	Records1 types.RecordMap
	Records2 types.RecordMap // == Records1 in single-file mode
	Run1     *types.Run
	Run2     *types.Run
	Common   []uint64

	Samples []types.Event // end-condition samples, first file
	Windows []*types.BlockWindow
}

type Analyzer struct {
	cfg     config.Config
	sources []*extract.Source

	group  singleflight.Group
	mu     sync.RWMutex
	result *Result
}

// New validates the input files up front: a missing or unreadable file is
// reported here, before any processing. One path (or two identical paths)
// selects single-file mode.
func New(cfg config.Config, paths ...string) (*Analyzer, error) {
	if len(paths) == 0 || len(paths) > 2 {
		return nil, errors.Errorf("expected one or two log files, got %d", len(paths))
	}
	if len(paths) == 2 && paths[0] == paths[1] {
		paths = paths[:1]
	}

	a := &Analyzer{cfg: cfg}
	for _, p := range paths {
		src, err := extract.Open(p, cfg.MaxFileBytes)
		if err != nil {
			return nil, err
		}
		a.sources = append(a.sources, src)
	}
	return a, nil
}

// Paths returns the analyzed file paths in run order.
func (a *Analyzer) Paths() []string {
	out := make([]string, len(a.sources))
	for i, s := range a.sources {
		out[i] = s.Path
	}
	return out
}

// Result returns the cached analysis, building it on first use. At most one
// scan runs at a time; concurrent callers block on the in-flight scan and
// share its outcome.
func (a *Analyzer) Result() (*Result, error) {
	a.mu.RLock()
	cached := a.result
	a.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := a.group.Do("scan", func() (interface{}, error) {
		a.mu.RLock()
		cached := a.result
		a.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}
		res, err := a.build()
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.result = res
		a.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

// Invalidate drops the cached analysis; the next query re-scans the files.
func (a *Analyzer) Invalidate() {
	a.mu.Lock()
	a.result = nil
	a.mu.Unlock()
	log.Info(log.AnalysisMonitoring, "analysis cache invalidated")
}

func (a *Analyzer) build() (*Result, error) {
	started := time.Now()

	events1, err := a.sources[0].Events()
	if err != nil {
		return nil, err
	}
	types.SortEvents(events1)
	records1 := correlate.Correlate(events1)

	res := &Result{
		SingleFile: len(a.sources) == 1,
		Records1:   records1,
		Records2:   records1,
	}

	if res.SingleFile {
		res.Run1, res.Run2, res.Dual = correlate.Split(records1)
	} else {
		events2, err := a.sources[1].Events()
		if err != nil {
			return nil, err
		}
		types.SortEvents(events2)
		res.Records2 = correlate.Correlate(events2)
		res.Run1 = runFromRecords(records1, 1)
		res.Run2 = runFromRecords(res.Records2, 2)
	}
	res.Common = correlate.CommonBlocks(res.Run1, res.Run2)

	res.Samples = types.FilterKind(events1, types.EventEndConditionSample)
	res.Windows = boundary.DetectWindows(res.Samples, a.cfg.MaxWindows)
	boundary.AttachIdentity(res.Windows, records1)

	log.Info(log.AnalysisMonitoring, "analysis pass complete",
		"records", len(records1), "common_blocks", len(res.Common),
		"windows", len(res.Windows), "dual", res.Dual, "elapsed", time.Since(started))
	return res, nil
}

// runFromRecords builds a run from one file's records, first occurrence
// winning when a number repeats within the file.
func runFromRecords(records types.RecordMap, index int) *types.Run {
	seen := make(map[uint64]bool)
	run := &types.Run{Index: index}
	for _, rec := range records.Ordered() {
		if seen[rec.Number] {
			continue
		}
		seen[rec.Number] = true
		run.Records = append(run.Records, rec)
	}
	return run
}

// FindWindowForTimestamp locates the block window containing ts.
func (a *Analyzer) FindWindowForTimestamp(ts time.Time) (int, bool, error) {
	res, err := a.Result()
	if err != nil {
		return 0, false, err
	}
	idx, ok := boundary.FindWindow(res.Windows, ts)
	return idx, ok, nil
}

// FindBlockForLogLine extracts a block number from arbitrary pasted text.
// Purely defensive pattern matching, no file access.
func (a *Analyzer) FindBlockForLogLine(line string) (uint64, bool) {
	return extract.BlockNumberFromLine(line)
}

// WindowStats summarizes one window's counter samples.
func (a *Analyzer) WindowStats(index int) (types.WindowStats, bool, error) {
	res, err := a.Result()
	if err != nil {
		return types.WindowStats{}, false, err
	}
	if index < 0 || index >= len(res.Windows) {
		return types.WindowStats{}, false, nil
	}
	return boundary.Stats(res.Samples, res.Windows[index]), true, nil
}

// LogLinesForBlock returns the raw lines documenting one block in one run.
// For a dual-run file the run boundary is the midpoint between the block's
// first two occurrences.
func (a *Analyzer) LogLinesForBlock(number uint64, firstRun bool) ([]string, error) {
	res, err := a.Result()
	if err != nil {
		return nil, err
	}

	src := a.sources[0]
	req := logwindow.Request{Number: number, FirstRun: firstRun}
	if res.SingleFile {
		if bt, ok := correlate.BoundaryTime(res.Records1, number); ok {
			req.Boundary = &bt
		}
	} else if !firstRun {
		src = a.sources[1]
	}
	return logwindow.Select(src, req)
}
