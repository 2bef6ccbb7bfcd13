// Package eor implements end-of-resource detection: per-trigger bitmaps over
// a fetched batch, resolved down to a single verdict by the strictest
// trigger. Grounded on the EORTriggersResolver in the original collection
// engine's API data collector.
package eor

import (
	"github.com/DanchukIvan/byteflow/internal/types"
)

// SearchType selects what a Trigger inspects: decoded response bodies, or
// HTTP response metadata (status/headers).
type SearchType int

const (
	SearchContent SearchType = iota
	SearchHeaders
)

// Batch is the fetched unit a Trigger evaluates. Content holds the raw
// decoded payload per response (in request order); Responses holds the
// matching HTTP responses for header/status-driven triggers.
type Batch struct {
	Content   [][]byte
	Responses []*types.Response
}

// Trigger evaluates a Batch and returns one bit per item: true means "this
// item is still within the resource" (keep it); false marks the item where
// the resource appears to have ended. A trigger that never fires returns an
// all-true bitmap.
type Trigger interface {
	SearchType() SearchType
	Evaluate(b *Batch) []bool
}

// Resolver picks the strictest of several triggers' bitmaps: the one with
// the fewest true bits, since that trigger detected the end of the resource
// soonest.
type Resolver struct {
	contentTriggers []Trigger
	headerTriggers  []Trigger
}

// NewResolver partitions triggers by SearchType.
func NewResolver(triggers []Trigger) *Resolver {
	r := &Resolver{}
	for _, t := range triggers {
		switch t.SearchType() {
		case SearchContent:
			r.contentTriggers = append(r.contentTriggers, t)
		case SearchHeaders:
			r.headerTriggers = append(r.headerTriggers, t)
		}
	}
	return r
}

// Resolve evaluates every trigger against the batch and returns the
// strictest bitmap (keep bits) plus whether the batch signals end-of-resource
// (true if at least one item was dropped by the strictest trigger).
func (r *Resolver) Resolve(b *Batch) (keep []bool, endOfResource bool) {
	var bitmaps [][]bool
	for _, t := range r.contentTriggers {
		bitmaps = append(bitmaps, t.Evaluate(b))
	}
	for _, t := range r.headerTriggers {
		bitmaps = append(bitmaps, t.Evaluate(b))
	}

	if len(bitmaps) == 0 {
		keep = make([]bool, len(b.Content))
		for i := range keep {
			keep[i] = true
		}
		return keep, false
	}

	bestIdx := 0
	bestSum := sumTrue(bitmaps[0])
	for i := 1; i < len(bitmaps); i++ {
		s := sumTrue(bitmaps[i])
		if s < bestSum {
			bestSum = s
			bestIdx = i
		}
	}
	keep = bitmaps[bestIdx]
	endOfResource = bestSum < len(keep)
	return keep, endOfResource
}

func sumTrue(bits []bool) int {
	n := 0
	for _, b := range bits {
		if b {
			n++
		}
	}
	return n
}

// --- Built-in triggers ---

// MaxPage ends the resource once a running page counter exceeds MaxPages.
// Every item in a batch shares the same page count, so the bitmap is
// uniform: all-true while under the limit, all-false once exceeded.
type MaxPage struct {
	MaxPages int
	page     int
}

func (t *MaxPage) SearchType() SearchType { return SearchContent }

func (t *MaxPage) Evaluate(b *Batch) []bool {
	t.page++
	ok := t.page <= t.MaxPages
	bits := make([]bool, len(b.Content))
	for i := range bits {
		bits[i] = ok
	}
	return bits
}

// Status ends the resource on any response whose status code is in
// StopCodes (typically 404 for "ran off the end of a paginated collection").
type Status struct {
	StopCodes map[int]struct{}
}

// NewStatus builds a Status trigger for the given stop codes.
func NewStatus(codes ...int) *Status {
	s := &Status{StopCodes: make(map[int]struct{}, len(codes))}
	for _, c := range codes {
		s.StopCodes[c] = struct{}{}
	}
	return s
}

func (t *Status) SearchType() SearchType { return SearchHeaders }

func (t *Status) Evaluate(b *Batch) []bool {
	bits := make([]bool, len(b.Responses))
	for i, resp := range b.Responses {
		if resp == nil {
			bits[i] = false
			continue
		}
		_, stop := t.StopCodes[resp.StatusCode]
		bits[i] = !stop
	}
	return bits
}

// ContentLength ends the resource once a response body is at or below
// MinBytes — common for APIs that return "[]" or "{}" past the last page.
type ContentLength struct {
	MinBytes int
}

func (t *ContentLength) SearchType() SearchType { return SearchContent }

func (t *ContentLength) Evaluate(b *Batch) []bool {
	bits := make([]bool, len(b.Content))
	for i, c := range b.Content {
		bits[i] = len(c) > t.MinBytes
	}
	return bits
}

// SimpleCounted ends the resource after a fixed number of rounds, regardless
// of content — useful for resources with a known, finite page count.
type SimpleCounted struct {
	MaxRounds int
	round     int
}

func (t *SimpleCounted) SearchType() SearchType { return SearchContent }

func (t *SimpleCounted) Evaluate(b *Batch) []bool {
	t.round++
	ok := t.round <= t.MaxRounds
	bits := make([]bool, len(b.Content))
	for i := range bits {
		bits[i] = ok
	}
	return bits
}
