package extract

import "regexp"

// The extractor is built for the small fixed set of line shapes emitted by
// reth's block-import pipeline. Each pattern family pairs a cheap substring
// marker, used to dispatch, with the full extraction regexp.
const (
	markerBlockAdded      = "Block added to canonical chain"
	markerStateRoot       = "Calculated state root"
	markerProofsProcessed = "All proofs processed"
	markerSample          = "Checking end condition"
)

var (
	blockAddedPattern = regexp.MustCompile(
		`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)\s+INFO reth_node_events::node: Block added to canonical chain number=(\d+) hash=(0x[a-f0-9]+).*?elapsed=(\S+)`)
	stateRootPattern = regexp.MustCompile(
		`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)\s+DEBUG engine::tree: Calculated state root root_elapsed=(\S+) block=NumHash \{ number: (\d+), hash: (0x[a-f0-9]+)`)
	proofsProcessedPattern = regexp.MustCompile(
		`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)\s+DEBUG engine::root: All proofs processed, ending calculation.*?total_time=Some\(([^)]+)\)`)
	samplePattern = regexp.MustCompile(
		`(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z)\s+DEBUG engine::root: Checking end condition proofs_processed=(\d+) state_update_proofs_requested=(\d+) prefetch_proofs_requested=(\d+)`)

	// Fallback patterns for pasted text, tried in order of specificity.
	blockNumberChainPattern   = regexp.MustCompile(`Block added to canonical chain number=(\d+)`)
	blockNumberRootPattern    = regexp.MustCompile(`Calculated state root .+? block=NumHash \{ number: (\d+)`)
	blockNumberGenericPattern = regexp.MustCompile(`(?i)block(?:\s+|\s*=\s*|\s+number\s*=\s*)(\d+)`)
)
