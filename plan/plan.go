// Package plan computes how an array of length N is partitioned across T
// workers and how the sorted partitions are merged back together.
//
// Leaves all have length N/T except the last, which absorbs the remainder.
// Every merge round pairs adjacent blocks left to right; an odd trailing block
// is carried into the next round unmerged. The schedule ends when a single
// block remains, after ceil(log2(T)) rounds.
package plan

import (
	"math/bits"

	"github.com/pkg/errors"
)

var ErrInvalidConfiguration = errors.New("invalid configuration")

// Block is a sorted range a[Start:Start+Length].
type Block struct {
	Start  int
	Length int
}

func (b Block) End() int { return b.Start + b.Length }

// Pair is two adjacent blocks merged in one round.
type Pair struct {
	Index int
	Left  Block
	Right Block
}

func (p Pair) Start1() int { return p.Left.Start }
func (p Pair) Start2() int { return p.Right.Start }
func (p Pair) Last() int { return p.Right.End() }
func (p Pair) Len() int { return p.Left.Length + p.Right.Length }

// Merged is the block the pair produces.
func (p Pair) Merged() Block {
	return Block{Start: p.Left.Start, Length: p.Len()}
}

// Round is one merge round. Output holds the merged pairs in order followed
// by the carried block, if any.
type Round struct {
	Index    int
	Input    []Block
	Pairs    []Pair
	Carry    Block
	HasCarry bool
	Output   []Block
}

// Plan is the full, precomputed schedule of one sort call.
type Plan struct {
	N       int
	Workers int
	Strict  bool
	Leaves  []Block
	Rounds  []Round

	tree Tree
}

// Validate reports whether n elements can be sorted by workers workers.
// Strict selects the simplified planner, which additionally requires a
// power-of-two worker count that divides n.
func Validate(n, workers int, strict bool) error {
	if workers <= 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "worker count %d must be positive", workers)
	}
	if n < 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "array length %d is negative", n)
	}
	if n < workers {
		return errors.Wrapf(ErrInvalidConfiguration, "array length %d is smaller than worker count %d", n, workers)
	}
	if strict {
		if workers&(workers-1) != 0 {
			return errors.Wrapf(ErrInvalidConfiguration, "worker count %d is not a power of two", workers)
		}
		if n%workers != 0 {
			return errors.Wrapf(ErrInvalidConfiguration, "array length %d is not divisible by worker count %d", n, workers)
		}
	}
	return nil
}

// New validates the configuration and builds the schedule.
func New(n, workers int, strict bool) (*Plan, error) {
	if err := Validate(n, workers, strict); err != nil {
		return nil, err
	}

	p := &Plan{
		N:       n,
		Workers: workers,
		Strict:  strict,
		Leaves:  leaves(n, workers),
	}

	blocks := p.Leaves
	for len(blocks) > 1 {
		r := nextRound(len(p.Rounds)+1, blocks)
		p.Rounds = append(p.Rounds, r)
		blocks = r.Output
	}

	p.tree = buildTree(p.Leaves)
	return p, nil
}

func leaves(n, workers int) []Block {
	size := n / workers
	out := make([]Block, workers)
	for i := range out {
		out[i] = Block{Start: i * size, Length: size}
	}
	out[workers-1].Length = n - (workers-1)*size
	return out
}

func nextRound(index int, input []Block) Round {
	r := Round{
		Index:  index,
		Input:  input,
		Pairs:  make([]Pair, 0, len(input)/2),
		Output: make([]Block, 0, (len(input)+1)/2),
	}
	for i := 0; i+1 < len(input); i += 2 {
		pair := Pair{Index: i / 2, Left: input[i], Right: input[i+1]}
		r.Pairs = append(r.Pairs, pair)
		r.Output = append(r.Output, pair.Merged())
	}
	if len(input)%2 == 1 {
		r.Carry = input[len(input)-1]
		r.HasCarry = true
		r.Output = append(r.Output, r.Carry)
	}
	return r
}

// RoundCount is ceil(log2(workers)), the number of merge rounds.
func RoundCount(workers int) int {
	if workers <= 1 {
		return 0
	}
	return bits.Len(uint(workers - 1))
}

// Tree returns the fork/join task table of the plan.
func (p *Plan) Tree() Tree {
	return p.tree
}

// Leaf returns the leaf block sorted by worker w of the iterative schedulers.
func (p *Plan) Leaf(w int) Block {
	return p.Leaves[w]
}
