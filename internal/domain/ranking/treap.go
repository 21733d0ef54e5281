package ranking

import (
	"hash/fnv"

	"github.com/okian/recordbook/internal/domain/types"
)

// Treap-backed board. In-order traversal yields rows from best to worst
// under the board's order; "less" means ranks earlier.

type node struct {
	row   types.Row
	name  string
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
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// priority derives a stable heap priority from the row key so the same
// input always builds the same tree.
func priority(key string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return h.Sum64()
}

func (b *Board) insert(n, x *node) *node {
	if n == nil {
		return x
	}
	if b.less(x, n) {
		n.left = b.insert(n.left, x)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = b.insert(n.right, x)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectTop appends up to limit nodes in rank order.
func collectTop(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}
