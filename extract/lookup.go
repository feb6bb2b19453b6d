package extract

import (
	"regexp"
	"strconv"
	"time"

	"github.com/colorfulnotion/blockmetrics/types"
)

var blockNumberPatterns = []*regexp.Regexp{
	blockNumberChainPattern,
	blockNumberRootPattern,
	blockNumberGenericPattern,
}

// BlockNumberFromLine pulls a block number out of arbitrary pasted text.
// The block-added and state-root shapes are tried first; a loose
// "block ... N" match is the last resort. Returns false when nothing in the
// text looks like a block number.
func BlockNumberFromLine(line string) (uint64, bool) {
	for _, re := range blockNumberPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			if n, err := strconv.ParseUint(m[1], 10, 64); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// TimestampFromLine is re-exported here so callers handling pasted text only
// need the extract package.
func TimestampFromLine(line string) (time.Time, bool) {
	return types.TimestampFromLine(line)
}
