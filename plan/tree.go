package plan

import "math/bits"

// Node is one fork/join task. IDs form a complete binary tree rooted at 1:
// node n has children 2n and 2n+1, and nodes n >= T are leaves. Position is
// a leaf's index in Plan.Leaves and -1 for internal nodes.
type Node struct {
	ID       int
	Leaf     bool
	Left     int
	Right    int
	Block    Block
	Position int
}

// Tree is indexed by node ID; entry 0 is unused.
type Tree []Node

func (t Tree) Root() Node { return t[1] }

// Leaves is the number of leaf tasks.
func (t Tree) Leaves() int { return len(t) / 2 }

// Depth is the number of merge levels above the deepest leaf.
func (t Tree) Depth() int {
	return bits.Len(uint(len(t)-1)) - 1
}

/**
buildTree lays the leaves out in DFS order. The deepest level of the tree
holds the first leaves, left to right; the leaves on the level above follow.
With six leaves, IDs 8..11 get leaves 0..3 and IDs 6, 7 get leaves 4, 5.
*/
func buildTree(leaves []Block) Tree {
	t := len(leaves)
	lastID := 2*t - 1
	firstOfLastLevel := 1 << (bits.Len(uint(lastID)) - 1)
	nodesInLastLevel := lastID - firstOfLastLevel + 1

	tree := make(Tree, 2*t)
	for id := t; id <= lastID; id++ {
		pos := nodesInLastLevel + (id - t)
		if id >= firstOfLastLevel {
			pos = id - firstOfLastLevel
		}
		tree[id] = Node{ID: id, Leaf: true, Block: leaves[pos], Position: pos}
	}
	for id := t - 1; id >= 1; id-- {
		left, right := tree[2*id], tree[2*id+1]
		if left.Block.End() != right.Block.Start {
			panic("plan: fork/join children are not adjacent")
		}
		tree[id] = Node{
			ID:       id,
			Left:     2 * id,
			Right:    2*id + 1,
			Block:    Block{Start: left.Block.Start, Length: left.Block.Length + right.Block.Length},
			Position: -1,
		}
	}
	return tree
}
