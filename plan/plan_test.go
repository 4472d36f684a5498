package plan

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ceilLog2(t int) int {
	return int(math.Ceil(math.Log2(float64(t))))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		n, w    int
		strict  bool
		wantErr bool
	}{
		{"zero workers", 10, 0, false, true},
		{"negative workers", 10, -3, false, true},
		{"fewer elements than workers", 3, 4, false, true},
		{"equal", 4, 4, false, false},
		{"odd workers", 100, 7, false, false},
		{"strict odd workers", 100, 7, true, true},
		{"strict not divisible", 10, 4, true, true},
		{"strict ok", 16, 4, true, false},
		{"single worker", 5, 1, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.n, tc.w, tc.strict)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfiguration))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestLeaves(t *testing.T) {
	for n := 1; n <= 70; n++ {
		for w := 1; w <= n && w <= 17; w++ {
			p, err := New(n, w, false)
			require.NoError(t, err)
			require.Len(t, p.Leaves, w)

			sum := 0
			for i, b := range p.Leaves {
				require.Equal(t, sum, b.Start, "n=%d w=%d leaf=%d", n, w, i)
				if i < w-1 {
					require.Equal(t, n/w, b.Length)
				}
				sum += b.Length
			}
			require.Equal(t, n, sum)
			assert.Equal(t, n-(w-1)*(n/w), p.Leaves[w-1].Length)
		}
	}
}

func TestRounds(t *testing.T) {
	for w := 1; w <= 33; w++ {
		n := 3*w + 2
		p, err := New(n, w, false)
		require.NoError(t, err)

		require.Len(t, p.Rounds, ceilLog2(w), "w=%d", w)
		require.Equal(t, ceilLog2(w), RoundCount(w))

		count := w
		prev := p.Leaves
		for k, r := range p.Rounds {
			require.Equal(t, k+1, r.Index)
			require.Equal(t, prev, r.Input)
			require.Len(t, r.Pairs, count/2)
			require.Equal(t, count%2 == 1, r.HasCarry)
			if r.HasCarry {
				require.Equal(t, prev[len(prev)-1], r.Carry)
			}

			count = (count + 1) / 2
			require.Len(t, r.Output, count)

			// output is a concatenation of blocks covering [0,n)
			end := 0
			for _, b := range r.Output {
				require.Equal(t, end, b.Start)
				end = b.End()
			}
			require.Equal(t, n, end)

			for i, pair := range r.Pairs {
				require.Equal(t, i, pair.Index)
				require.Equal(t, pair.Left.End(), pair.Right.Start)
				require.LessOrEqual(t, pair.Start1(), pair.Start2())
				require.LessOrEqual(t, pair.Start2(), pair.Last())
			}
			prev = r.Output
		}
		require.Len(t, prev, 1)
		assert.Equal(t, Block{Start: 0, Length: n}, prev[0])
	}
}

func TestRoundsSevenWorkers(t *testing.T) {
	p, err := New(15, 7, false)
	require.NoError(t, err)

	// leaves of 2, the last one of 3
	require.Len(t, p.Rounds, 3)
	r1 := p.Rounds[0]
	assert.Equal(t, []Block{{0, 4}, {4, 4}, {8, 4}, {12, 3}}, r1.Output)
	assert.True(t, r1.HasCarry)
	assert.Equal(t, Block{12, 3}, r1.Carry)

	r2 := p.Rounds[1]
	assert.Equal(t, []Block{{0, 8}, {8, 7}}, r2.Output)
	assert.False(t, r2.HasCarry)

	assert.Equal(t, []Block{{0, 15}}, p.Rounds[2].Output)
}

func TestSingleWorker(t *testing.T) {
	p, err := New(9, 1, false)
	require.NoError(t, err)
	assert.Empty(t, p.Rounds)
	assert.Equal(t, []Block{{0, 9}}, p.Leaves)

	tree := p.Tree()
	assert.Equal(t, 1, tree.Leaves())
	assert.True(t, tree.Root().Leaf)
	assert.Equal(t, Block{0, 9}, tree.Root().Block)
	assert.Equal(t, 0, tree.Depth())
}

func TestAssignDouble(t *testing.T) {
	p, err := New(100, 7, false)
	require.NoError(t, err)

	for _, r := range p.Rounds {
		mins := map[int]int{}
		maxes := map[int]int{}
		active := 0
		for w := 0; w < p.Workers; w++ {
			a := r.Assign(w, Double)
			switch a.Role {
			case Mins:
				require.Equal(t, 0, w%2)
				mins[a.Pair.Index]++
				active++
			case Maxes:
				require.Equal(t, 1, w%2)
				maxes[a.Pair.Index]++
				active++
			case Idle:
				require.GreaterOrEqual(t, w, 2*len(r.Pairs))
			default:
				t.Fatalf("unexpected role %s", a.Role)
			}
		}
		require.Equal(t, 2*len(r.Pairs), active)
		require.Equal(t, r.ActiveWorkers(Double), active)
		for _, pair := range r.Pairs {
			require.Equal(t, 1, mins[pair.Index])
			require.Equal(t, 1, maxes[pair.Index])
		}
	}
}

func TestAssignSingle(t *testing.T) {
	p, err := New(100, 6, false)
	require.NoError(t, err)

	r := p.Rounds[0]
	for w := 0; w < p.Workers; w++ {
		a := r.Assign(w, Single)
		if w < 3 {
			require.Equal(t, Full, a.Role)
			require.Equal(t, r.Pairs[w], a.Pair)
		} else {
			require.Equal(t, Idle, a.Role)
		}
	}
	assert.Equal(t, Idle, r.Assign(-1, Single).Role)
}

func TestTree(t *testing.T) {
	for w := 1; w <= 40; w++ {
		n := 5*w + w/3
		p, err := New(n, w, false)
		require.NoError(t, err)

		tree := p.Tree()
		require.Len(t, tree, 2*w)
		require.Equal(t, w, tree.Leaves())
		require.Equal(t, ceilLog2(w), tree.Depth(), "w=%d", w)
		require.Equal(t, Block{0, n}, tree.Root().Block)

		seen := make([]bool, w)
		for id := 1; id < 2*w; id++ {
			node := tree[id]
			require.Equal(t, id, node.ID)
			if id >= w {
				require.True(t, node.Leaf)
				require.False(t, seen[node.Position])
				seen[node.Position] = true
				require.Equal(t, p.Leaves[node.Position], node.Block)
				continue
			}
			require.False(t, node.Leaf)
			require.Equal(t, -1, node.Position)
			left, right := tree[node.Left], tree[node.Right]
			require.Equal(t, node.Block.Start, left.Block.Start)
			require.Equal(t, left.Block.End(), right.Block.Start)
			require.Equal(t, node.Block.End(), right.Block.End())
		}
	}
}

func TestTreeSixLeaves(t *testing.T) {
	p, err := New(60, 6, false)
	require.NoError(t, err)
	tree := p.Tree()

	for id, pos := range map[int]int{8: 0, 9: 1, 10: 2, 11: 3, 6: 4, 7: 5} {
		assert.Equal(t, pos, tree[id].Position, "id %d", id)
	}
	assert.Equal(t, Block{0, 40}, tree[2].Block)
	assert.Equal(t, Block{40, 20}, tree[3].Block)
}

func TestModeAndRoleStrings(t *testing.T) {
	assert.Equal(t, "single", Single.String())
	assert.Equal(t, "double", Double.String())
	assert.Equal(t, "mins", Mins.String())
	assert.Equal(t, "maxes", Maxes.String())
	assert.Equal(t, "merge", Full.String())
	assert.Equal(t, "idle", Idle.String())
}
