package repository

import (
	"math/rand"
	"sync"
)

// scoreIndex is a treap over (score desc, id asc) answering percentile
// queries in expected O(log n). Randomized priorities come from a
// seeded source so rebuilds are reproducible in tests.
//
// Ordering: higher scores rank earlier, ties break by id ascending, so
// an in-order traversal walks reports from worst risk to best.
type scoreIndex struct {
	mu   sync.RWMutex
	root *scoreNode
	byID map[string]float64
	rnd  *rand.Rand
}

type scoreNode struct {
	id    string
	score float64
	prio  uint64
	left  *scoreNode
	right *scoreNode
	size  int
}

func newScoreIndex(seed int64) *scoreIndex {
	return &scoreIndex{
		byID: make(map[string]float64),
		rnd:  rand.New(rand.NewSource(seed)), //nolint:gosec // priorities need no cryptographic strength
	}
}

func nsize(n *scoreNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *scoreNode) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// ranksBefore reports whether (aScore, aID) ranks earlier than
// (bScore, bID). Higher scores rank earlier.
func ranksBefore(aScore float64, aID string, bScore float64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *scoreNode) *scoreNode {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *scoreNode) *scoreNode {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insertNode(n, ins *scoreNode) *scoreNode {
	if n == nil {
		ins.size = 1
		return ins
	}
	if ranksBefore(ins.score, ins.id, n.score, n.id) {
		n.left = insertNode(n.left, ins)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insertNode(n.right, ins)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *scoreNode, id string, score float64) *scoreNode {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case ranksBefore(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countAtMost counts nodes whose score is <= s using subtree sizes.
// Nodes at or below s sit in the right spine of the rank ordering.
func countAtMost(n *scoreNode, s float64) int {
	if n == nil {
		return 0
	}
	if n.score <= s {
		return 1 + nsize(n.right) + countAtMost(n.left, s)
	}
	return countAtMost(n.right, s)
}

// Insert adds or replaces the score for an id.
func (ix *scoreIndex) Insert(id string, score float64) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.byID[id]; ok {
		ix.root = deleteNode(ix.root, id, old)
	}
	ix.byID[id] = score
	ix.root = insertNode(ix.root, &scoreNode{id: id, score: score, prio: ix.rnd.Uint64()})
}

// Remove drops an id from the index. Unknown ids are a no-op.
func (ix *scoreIndex) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	old, ok := ix.byID[id]
	if !ok {
		return
	}
	delete(ix.byID, id)
	ix.root = deleteNode(ix.root, id, old)
}

// RankOf returns how many indexed scores are <= score, and the total.
func (ix *scoreIndex) RankOf(score float64) (atOrBelow, total int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return countAtMost(ix.root, score), nsize(ix.root)
}

// Percentile is the fraction of indexed scores at or below score,
// scaled to 0-100. Zero when the index is empty.
func (ix *scoreIndex) Percentile(score float64) float64 {
	atOrBelow, total := ix.RankOf(score)
	if total == 0 {
		return 0
	}
	return float64(atOrBelow) / float64(total) * 100
}

// Len returns the number of indexed ids.
func (ix *scoreIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return nsize(ix.root)
}
