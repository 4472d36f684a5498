package pmsort

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/king54346/pmsort/fork_join"
	"github.com/king54346/pmsort/merge"
	"github.com/king54346/pmsort/plan"
)

// mergeTask sorts or merges the range of one tree node. A leaf sorts its
// block, an internal node forks both children and merges their blocks once
// both joined. Compute returns the node's plan.Block, or nil if a descendant
// did not complete.
type mergeTask[T merge.Key] struct {
	fork_join.ForkJoinTask
	node   plan.Node
	tree   plan.Tree
	a, aux []T
	o      *Options
}

func (t *mergeTask[T]) child(id int) *mergeTask[T] {
	c := &mergeTask[T]{node: t.tree[id], tree: t.tree, a: t.a, aux: t.aux, o: t.o}
	c.Build(t.TaskPool)
	return c
}

func (t *mergeTask[T]) Compute() interface{} {
	if t.node.Leaf {
		sortLeaf(t.a, t.node.Block)
		return t.node.Block
	}

	left, right := t.child(t.node.Left), t.child(t.node.Right)
	left.Run(left)
	right.Run(right)
	lok, lres := left.Join()
	rok, rres := right.Join()
	if !lok || !rok || lres == nil || rres == nil {
		return nil
	}

	pair := plan.Pair{Index: t.node.ID, Left: lres.(plan.Block), Right: rres.(plan.Block)}
	if t.o.Mode != plan.Double {
		runMerge(t.a, t.aux, plan.Assignment{Role: plan.Full, Pair: pair}, t.o.Metrics)
		return pair.Merged()
	}

	mins := t.half(plan.Mins, pair)
	maxes := t.half(plan.Maxes, pair)
	mins.Run(mins)
	maxes.Run(maxes)
	mok, mres := mins.Join()
	xok, xres := maxes.Join()
	if !mok || !xok {
		return nil
	}
	copyBack(t.a, t.aux, mins.as, mres.(int))
	copyBack(t.a, t.aux, maxes.as, xres.(int))
	return pair.Merged()
}

func (t *mergeTask[T]) half(role plan.Role, pair plan.Pair) *halfMergeTask[T] {
	h := &halfMergeTask[T]{
		as:  plan.Assignment{Role: role, Pair: pair},
		a:   t.a,
		aux: t.aux,
		m:   t.o.Metrics,
	}
	h.Build(t.TaskPool)
	return h
}

// halfMergeTask writes one half of a split merge into aux. Compute returns
// the number of elements written.
type halfMergeTask[T merge.Key] struct {
	fork_join.ForkJoinTask
	as     plan.Assignment
	a, aux []T
	m      *Metrics
}

func (h *halfMergeTask[T]) Compute() interface{} {
	return runMerge(h.a, h.aux, h.as, h.m)
}

// sortWithForkJoin walks the plan's task tree on a bounded fork/join pool.
// Parents merge only after both children joined, so the root merge finishes
// the sort.
func sortWithForkJoin[T merge.Key](ctx context.Context, p *plan.Plan, a, aux []T, o *Options, log *zap.Logger) error {
	pool := fork_join.NewForkJoinPool(ctx, o.PoolSize)
	defer pool.Shutdown()

	tree := p.Tree()
	root := &mergeTask[T]{node: tree.Root(), tree: tree, a: a, aux: aux, o: o}
	root.Build(pool)

	res, err := pool.Invoke(root)
	if err == nil && res == nil {
		err = errors.New("fork/join tree did not complete")
	}
	if err != nil {
		return failure(SchedulerForkJoin, -1, -1, err)
	}

	forked, inlined := pool.Stats()
	log.Debug("fork/join scheduler finished",
		zap.Int("depth", tree.Depth()),
		zap.Int32("pool", pool.Cap()),
		zap.Int64("forked", forked),
		zap.Int64("inlined", inlined))
	return nil
}
