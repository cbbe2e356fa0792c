package repository

import "time"

// Treap-based schedule index.
//
// Ordering: scheduled time ASC, then booking id ASC (deterministic).
// "less" means sorts earlier, so an in-order traversal yields the schedule
// from earliest to latest. Priorities are random, which keeps the expected
// depth logarithmic regardless of insertion order.

type key struct {
	at int64 // unix nanos of ScheduledDate
	id string
}

func keyOf(at time.Time, id string) key {
	return key{at: at.UnixNano(), id: id}
}

func less(a, b key) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	return a.id < b.id
}

// treap node
type node struct {
	key   key
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, k key, prio uint64) *node {
	if n == nil {
		return &node{key: k, prio: prio, size: 1}
	}
	if less(k, n.key) {
		n.left = insert(n.left, k, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, k, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, k key) *node {
	if n == nil {
		return nil
	}
	if k == n.key {
		// Rotate the higher-priority child up until n is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, k)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, k)
		}
	} else if less(k, n.key) {
		n.left = deleteNode(n.left, k)
	} else {
		n.right = deleteNode(n.right, k)
	}
	fix(n)
	return n
}

// collectRange appends, in order, the ids whose time lies in [from, to).
// A zero bound is open.
func collectRange(n *node, from, to int64, open [2]bool, out *[]string) {
	if n == nil {
		return
	}
	afterFrom := open[0] || n.key.at >= from
	beforeTo := open[1] || n.key.at < to
	if afterFrom {
		collectRange(n.left, from, to, open, out)
	}
	if afterFrom && beforeTo {
		*out = append(*out, n.key.id)
	}
	if beforeTo {
		collectRange(n.right, from, to, open, out)
	}
}

// scheduleIndex orders bookings by scheduled time. It is not safe for
// concurrent use; MemoryStore guards it.
type scheduleIndex struct {
	root *node
	next func() uint64
}

func (ix *scheduleIndex) put(at time.Time, id string) {
	ix.root = insert(ix.root, keyOf(at, id), ix.next())
}

func (ix *scheduleIndex) remove(at time.Time, id string) {
	ix.root = deleteNode(ix.root, keyOf(at, id))
}

// between returns ids scheduled in [from, to); zero times leave that side
// unbounded.
func (ix *scheduleIndex) between(from, to time.Time) []string {
	out := make([]string, 0, nsize(ix.root))
	collectRange(ix.root, from.UnixNano(), to.UnixNano(), [2]bool{from.IsZero(), to.IsZero()}, &out)
	return out
}

func (ix *scheduleIndex) len() int { return nsize(ix.root) }
