package eor

import (
	"testing"

	"github.com/DanchukIvan/byteflow/internal/types"
)

func TestResolverPicksStrictestBitmap(t *testing.T) {
	maxPage := &MaxPage{MaxPages: 10}
	length := &ContentLength{MinBytes: 2}

	r := NewResolver([]Trigger{maxPage, length})

	batch := &Batch{
		Content: [][]byte{[]byte("{}"), []byte("[]"), []byte("")},
	}

	keep, eor := r.Resolve(batch)
	if len(keep) != 3 {
		t.Fatalf("expected 3 bits, got %d", len(keep))
	}
	if !eor {
		t.Fatal("expected end-of-resource signal once an item drops below MinBytes")
	}
	if keep[2] {
		t.Fatal("expected the empty body to be dropped by ContentLength")
	}
}

func TestStatusTriggerStopsOn404(t *testing.T) {
	s := NewStatus(404)
	batch := &Batch{
		Responses: []*types.Response{
			{StatusCode: 200},
			{StatusCode: 404},
		},
	}
	bits := s.Evaluate(batch)
	if !bits[0] || bits[1] {
		t.Fatalf("expected [true false], got %v", bits)
	}
}

func TestResolverNoTriggersKeepsEverything(t *testing.T) {
	r := NewResolver(nil)
	batch := &Batch{Content: [][]byte{[]byte("a"), []byte("b")}}
	keep, eor := r.Resolve(batch)
	if eor {
		t.Fatal("expected no end-of-resource signal with zero triggers")
	}
	for _, b := range keep {
		if !b {
			t.Fatal("expected all-true bitmap with zero triggers")
		}
	}
}
