// Package extract turns raw benchmark log text into typed events. Lines that
// match no pattern family are skipped silently; a line that matches a family
// but carries an unparseable field is dropped with a debug log. Extraction
// never fails on content, only on I/O.
package extract

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/types"
)

// Lines longer than this are line noise, not log events.
const maxLineSize = 1 << 20

// Source reads events from a log file. Every call to Events re-opens and
// re-scans the file, so a Source is restartable and safe to share.
// Files ending in .gz are decompressed transparently.
type Source struct {
	Path string

	// MaxBytes aborts the scan when the file exceeds this size; zero means
	// no cap.
	MaxBytes int64
}

// Open verifies the file exists and is readable. Missing input is fatal at
// entry, before any partial processing.
func Open(path string, maxBytes int64) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "log file %s", path)
	}
	if info.IsDir() {
		return nil, errors.Errorf("log file %s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return nil, errors.Errorf("log file %s is %d bytes, cap is %d", path, info.Size(), maxBytes)
	}
	return &Source{Path: path, MaxBytes: maxBytes}, nil
}

func (s *Source) open() (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", s.Path)
	}
	if filepath.Ext(s.Path) != ".gz" {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "gzip %s", s.Path)
	}
	// Open checked the on-disk size; the decompressed stream needs its own
	// cap or a small archive could expand without bound.
	var r io.Reader = gz
	if s.MaxBytes > 0 {
		r = &cappedReader{r: gz, left: s.MaxBytes, limit: s.MaxBytes, path: s.Path}
	}
	return &gzipCloser{Reader: r, gz: gz, f: f}, nil
}

type gzipCloser struct {
	io.Reader
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipCloser) Close() error {
	g.gz.Close()
	return g.f.Close()
}

// cappedReader fails the read once more than limit bytes have come through.
type cappedReader struct {
	r     io.Reader
	left  int64
	limit int64
	path  string
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, errors.Errorf("log file %s exceeds %d decompressed bytes", c.path, c.limit)
	}
	return n, err
}

// Events runs one full extraction pass over the file.
func (s *Source) Events() ([]types.Event, error) {
	r, err := s.open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return Parse(r)
}

// Lines runs fn over every raw line of the file. Used by the log-window
// selector and the live tail, which need text rather than events.
func (s *Source) Lines(fn func(line string)) error {
	r, err := s.open()
	if err != nil {
		return err
	}
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	return errors.Wrapf(scanner.Err(), "scan %s", s.Path)
}

// Parse extracts events from a line stream. Event order follows file order;
// Seq records the line index for stable timestamp tie-breaks.
func Parse(r io.Reader) ([]types.Event, error) {
	var events []types.Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	seq := 0
	for scanner.Scan() {
		line := scanner.Text()
		if ev, ok := ParseLine(line, seq); ok {
			events = append(events, ev)
		}
		seq++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan log stream")
	}
	return events, nil
}

// ParseLine extracts a single event from one line. The second return is
// false both for lines outside the pattern families and for matched lines
// with a malformed field.
func ParseLine(line string, seq int) (types.Event, bool) {
	switch {
	case strings.Contains(line, markerSample):
		return parseSample(line, seq)
	case strings.Contains(line, markerProofsProcessed):
		return parseProofsProcessed(line, seq)
	case strings.Contains(line, markerStateRoot):
		return parseStateRoot(line, seq)
	case strings.Contains(line, markerBlockAdded):
		return parseBlockAdded(line, seq)
	}
	return types.Event{}, false
}

func parseBlockAdded(line string, seq int) (types.Event, bool) {
	m := blockAddedPattern.FindStringSubmatch(line)
	if m == nil {
		return types.Event{}, false
	}
	ts, err := types.ParseTimestamp(m[1])
	if err != nil {
		return dropLine(line, err)
	}
	number, err := strconv.ParseUint(m[2], 10, 64)
	if err != nil {
		return dropLine(line, err)
	}
	elapsed, err := types.ParseElapsed(m[4])
	if err != nil {
		return dropLine(line, err)
	}
	return types.Event{
		Kind:    types.EventBlockAdded,
		Time:    ts,
		Seq:     seq,
		Line:    line,
		Number:  number,
		Hash:    common.HexToHash(m[3]),
		Elapsed: elapsed,
	}, true
}

func parseStateRoot(line string, seq int) (types.Event, bool) {
	m := stateRootPattern.FindStringSubmatch(line)
	if m == nil {
		return types.Event{}, false
	}
	ts, err := types.ParseTimestamp(m[1])
	if err != nil {
		return dropLine(line, err)
	}
	rootElapsed, err := types.ParseElapsed(m[2])
	if err != nil {
		return dropLine(line, err)
	}
	number, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return dropLine(line, err)
	}
	return types.Event{
		Kind:        types.EventStateRootCalculated,
		Time:        ts,
		Seq:         seq,
		Line:        line,
		Number:      number,
		Hash:        common.HexToHash(m[4]),
		RootElapsed: rootElapsed,
	}, true
}

func parseProofsProcessed(line string, seq int) (types.Event, bool) {
	m := proofsProcessedPattern.FindStringSubmatch(line)
	if m == nil {
		return types.Event{}, false
	}
	ts, err := types.ParseTimestamp(m[1])
	if err != nil {
		return dropLine(line, err)
	}
	totalTime, err := types.ParseElapsed(m[2])
	if err != nil {
		return dropLine(line, err)
	}
	return types.Event{
		Kind:      types.EventProofsProcessed,
		Time:      ts,
		Seq:       seq,
		Line:      line,
		TotalTime: totalTime,
	}, true
}

func parseSample(line string, seq int) (types.Event, bool) {
	m := samplePattern.FindStringSubmatch(line)
	if m == nil {
		return types.Event{}, false
	}
	ts, err := types.ParseTimestamp(m[1])
	if err != nil {
		return dropLine(line, err)
	}
	pp, err1 := strconv.ParseUint(m[2], 10, 64)
	supr, err2 := strconv.ParseUint(m[3], 10, 64)
	ppr, err3 := strconv.ParseUint(m[4], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return dropLine(line, errors.New("bad counter value"))
	}
	return types.Event{
		Kind:                       types.EventEndConditionSample,
		Time:                       ts,
		Seq:                        seq,
		Line:                       line,
		ProofsProcessed:            pp,
		StateUpdateProofsRequested: supr,
		PrefetchProofsRequested:    ppr,
	}, true
}

func dropLine(line string, err error) (types.Event, bool) {
	log.Debug(log.ExtractMonitoring, "dropping matched line with bad field", "err", err, "line", line)
	return types.Event{}, false
}
