// Folio - Semantic Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package vectorindex

// topK keeps the k best hits seen so far in a bounded max-heap whose root is
// the worst retained hit. Not safe for concurrent use; one per search.
type topK struct {
	k    int
	hits []Hit
}

func newTopK(k int) *topK {
	return &topK{k: k, hits: make([]Hit, 0, k)}
}

// less orders hits by distance, then position.
func less(a, b Hit) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Position < b.Position
}

// offer considers one candidate.
func (t *topK) offer(pos int, dist float32) {
	h := Hit{Position: pos, Distance: dist}
	if len(t.hits) < t.k {
		t.hits = append(t.hits, h)
		t.bubbleUp(len(t.hits) - 1)
		return
	}
	if !less(h, t.hits[0]) {
		return
	}
	t.hits[0] = h
	t.bubbleDown(0)
}

// bubbleUp moves the element at i toward the root while it is worse than its parent.
func (t *topK) bubbleUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !less(t.hits[parent], t.hits[i]) {
			break
		}
		t.hits[i], t.hits[parent] = t.hits[parent], t.hits[i]
		i = parent
	}
}

// bubbleDown moves the element at i away from the root while a child is worse.
func (t *topK) bubbleDown(i int) {
	n := len(t.hits)
	for {
		worst := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && less(t.hits[worst], t.hits[left]) {
			worst = left
		}
		if right < n && less(t.hits[worst], t.hits[right]) {
			worst = right
		}
		if worst == i {
			return
		}
		t.hits[i], t.hits[worst] = t.hits[worst], t.hits[i]
		i = worst
	}
}
