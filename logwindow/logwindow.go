// Package logwindow selects raw log lines documenting one block's
// processing: the proof-summary line, the state-root line and the
// block-added line. Selection works on raw text with the same proximity
// heuristics the correlator applies to parsed events, and returns lines in
// causal order regardless of where they sit in the file.
package logwindow

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/colorfulnotion/blockmetrics/extract"
	log "github.com/colorfulnotion/blockmetrics/log"
	"github.com/colorfulnotion/blockmetrics/types"
)

const (
	// A proof summary belongs to a block when it lands at most this far
	// before the block-added line.
	proofBefore = 2 * time.Second
	// The state-root line may sit on either side of the block-added line.
	rootWindow = 5 * time.Second
)

// Request names the block whose lines are wanted. For dual-run files
// Boundary partitions block-added candidates: before it is run 1, at or
// after is run 2. With a nil Boundary the first or second occurrence is
// picked directly.
type Request struct {
	Number   uint64
	FirstRun bool
	Boundary *time.Time
}

type stampedLine struct {
	ts   time.Time
	line string
}

// Select returns, in order, the proof-summary line (if any), the state-root
// line (if any) and the block-added line for the requested block. Without a
// block-added line there is nothing to anchor on and the result is empty.
func Select(src *extract.Source, req Request) ([]string, error) {
	addedRe := regexp.MustCompile(fmt.Sprintf(`Block added to canonical chain number=%d\b`, req.Number))
	rootRe := regexp.MustCompile(fmt.Sprintf(`Calculated state root.+?block=NumHash \{ number: %d\b`, req.Number))
	proofsRe := regexp.MustCompile(`All proofs processed, ending calculation.+?total_time=Some`)

	var added, roots, proofs []stampedLine
	err := src.Lines(func(line string) {
		ts, ok := types.TimestampFromLine(line)
		if !ok {
			return
		}
		switch {
		case addedRe.MatchString(line):
			added = append(added, stampedLine{ts, line})
		case rootRe.MatchString(line):
			roots = append(roots, stampedLine{ts, line})
		case proofsRe.MatchString(line):
			proofs = append(proofs, stampedLine{ts, line})
		}
	})
	if err != nil {
		return nil, err
	}

	sortStamped(added)
	sortStamped(roots)
	sortStamped(proofs)

	anchor, ok := chooseAnchor(added, req)
	if !ok {
		log.Debug(log.WindowMonitoring, "no block-added line for block", "number", req.Number, "first_run", req.FirstRun)
		return nil, nil
	}

	var out []string
	for _, p := range proofs {
		delta := anchor.ts.Sub(p.ts)
		if delta >= 0 && delta <= proofBefore {
			out = append(out, p.line)
			break
		}
	}
	for _, r := range roots {
		delta := anchor.ts.Sub(r.ts)
		if delta < 0 {
			delta = -delta
		}
		if delta <= rootWindow {
			out = append(out, r.line)
			break
		}
	}
	return append(out, anchor.line), nil
}

func chooseAnchor(added []stampedLine, req Request) (stampedLine, bool) {
	if len(added) == 0 {
		return stampedLine{}, false
	}

	if req.Boundary != nil && len(added) >= 2 {
		var selected []stampedLine
		for _, a := range added {
			if a.ts.Before(*req.Boundary) == req.FirstRun {
				selected = append(selected, a)
			}
		}
		if len(selected) == 0 {
			return stampedLine{}, false
		}
		return selected[0], true
	}

	idx := 0
	if !req.FirstRun && len(added) > 1 {
		idx = 1
	}
	return added[idx], true
}

func sortStamped(lines []stampedLine) {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ts.Before(lines[j].ts) })
}
