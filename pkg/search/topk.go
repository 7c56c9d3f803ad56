package search

import (
	"cmp"
	"slices"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/umafamily/affinity/pkg/types"
)

// candidate is an assignment tagged with its position in the unit's
// enumeration, which breaks score ties deterministically.
type candidate struct {
	assignment types.Assignment
	seq        int
}

// better reports whether a ranks strictly before b: higher score first, then
// earlier enumeration.
func better(a, b candidate) bool {
	if a.assignment.Score != b.assignment.Score {
		return a.assignment.Score > b.assignment.Score
	}
	return a.seq < b.seq
}

// topK keeps the k best candidates offered to it. The heap root is the worst
// retained candidate so that it can be evicted in O(log k).
type topK struct {
	k    int
	heap *binaryheap.Heap
}

func newTopK(k int) *topK {
	return &topK{
		k: k,
		heap: binaryheap.NewWith(func(a, b interface{}) int {
			ca, cb := a.(candidate), b.(candidate)
			switch {
			case better(cb, ca):
				return -1
			case better(ca, cb):
				return 1
			default:
				return 0
			}
		}),
	}
}

func (t *topK) full() bool {
	return t.heap.Size() >= t.k
}

// floor returns the score of the worst retained candidate.
func (t *topK) floor() int {
	worst, ok := t.heap.Peek()
	if !ok {
		return 0
	}
	return worst.(candidate).assignment.Score
}

func (t *topK) offer(c candidate) {
	if t.k <= 0 {
		return
	}
	if !t.full() {
		t.heap.Push(c)
		return
	}
	worst, _ := t.heap.Peek()
	if better(c, worst.(candidate)) {
		t.heap.Pop()
		t.heap.Push(c)
	}
}

// sorted returns the retained assignments best first.
func (t *topK) sorted() []types.Assignment {
	values := t.heap.Values()
	candidates := make([]candidate, 0, len(values))
	for _, v := range values {
		candidates = append(candidates, v.(candidate))
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		if better(a, b) {
			return -1
		}
		if better(b, a) {
			return 1
		}
		return 0
	})

	out := make([]types.Assignment, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.assignment)
	}
	return out
}

// Reduce merges the per-unit results, given in unit order, into the global
// top k: score descending, ties resolved by unit order and then by each
// unit's own order. Fewer than k assignments are returned as they are, and
// k <= 0 keeps nothing.
func Reduce(parts [][]types.Assignment, k int) []types.Assignment {
	if k <= 0 {
		return nil
	}
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	merged := make([]types.Assignment, 0, total)
	for _, p := range parts {
		merged = append(merged, p...)
	}

	slices.SortStableFunc(merged, func(a, b types.Assignment) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if k < len(merged) {
		merged = merged[:k]
	}
	return merged
}
