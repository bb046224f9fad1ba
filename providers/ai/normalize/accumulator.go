package normalize

import (
	"strings"

	"github.com/google/uuid"
)

// toolCallState is the buffer for one in-flight tool call during a stream.
// The key it lives under is chosen by the per-format mapping code: the
// tool_calls index for the chat-delta family, the block index for the
// content-block family, and a synthetic counter for formats whose calls
// arrive complete. Keys are stable for an entire call within their family
// and the families never mix inside one stream.
type toolCallState struct {
	key       int
	id        string
	name      string
	arguments strings.Builder
	started   bool // start event emitted
	finished  bool // end event emitted
}

// toolCallAccumulator owns every in-flight tool call of one stream, in
// arrival order. It is the only mutable cross-chunk state in the core and is
// scoped to a single Normalizer, so it needs no locking.
type toolCallAccumulator struct {
	calls map[int]*toolCallState
	order []int
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{calls: make(map[int]*toolCallState)}
}

// get returns the state for key, creating it on first reference. A call is
// created whenever a start or delta names a key not yet seen, per the
// accumulator contract.
func (a *toolCallAccumulator) get(key int) *toolCallState {
	if state, ok := a.calls[key]; ok {
		return state
	}
	state := &toolCallState{key: key}
	a.calls[key] = state
	a.order = append(a.order, key)
	return state
}

// lookup returns the state for key without creating it.
func (a *toolCallAccumulator) lookup(key int) (*toolCallState, bool) {
	state, ok := a.calls[key]
	return state, ok
}

// open returns the calls not yet finished, in arrival order. Used when a
// finish-reason closes every in-flight call at once.
func (a *toolCallAccumulator) open() []*toolCallState {
	var open []*toolCallState
	for _, key := range a.order {
		if state := a.calls[key]; !state.finished {
			open = append(open, state)
		}
	}
	return open
}

// next returns the lowest key not yet used, for formats that synthesize
// their own sequential keys.
func (a *toolCallAccumulator) next() int {
	return len(a.order)
}

// ensureID fills in a synthesized id when the backend never supplied one, so
// every event of a call carries the same non-empty correlator.
func (s *toolCallState) ensureID() {
	if s.id == "" {
		s.id = "call_" + uuid.NewString()
	}
}
