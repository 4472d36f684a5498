package pmsort

import (
	"go.uber.org/zap"

	"github.com/king54346/pmsort/TimSort"
	"github.com/king54346/pmsort/merge"
	"github.com/king54346/pmsort/plan"
)

// sortLeaf sequentially sorts one leaf block in place.
func sortLeaf[T merge.Key](a []T, b plan.Block) {
	TimSort.SortRange(a, b.Start, b.End())
}

// runMerge performs the worker's part of a merge into aux and returns how
// many elements it wrote. A Full merge has already been copied back.
func runMerge[T merge.Key](a, aux []T, as plan.Assignment, m *Metrics) int {
	p := as.Pair
	switch as.Role {
	case plan.Full:
		merge.Merge(a, aux, p.Start1(), p.Start2(), p.Last())
		m.addMerged("merge", p.Len())
		return p.Len()
	case plan.Mins:
		n := merge.MergeMins(a, aux, p.Start1(), p.Start2(), p.Last())
		m.addMerged("mins", n)
		return n
	case plan.Maxes:
		n := merge.MergeMaxes(a, aux, p.Start1(), p.Start2(), p.Last())
		m.addMerged("maxes", n)
		return n
	}
	return 0
}

// copyBack moves a split merge's half from aux into a. Only safe once both
// halves of the pair are written.
func copyBack[T merge.Key](a, aux []T, as plan.Assignment, n int) {
	p := as.Pair
	switch as.Role {
	case plan.Mins:
		merge.CopyBack(a, aux, p.Start1(), n)
	case plan.Maxes:
		merge.CopyBack(a, aux, p.Last()-n, n)
	}
}

func pairFields(as plan.Assignment) []zap.Field {
	return []zap.Field{
		zap.Stringer("role", as.Role),
		zap.Int("start1", as.Pair.Start1()),
		zap.Int("start2", as.Pair.Start2()),
		zap.Int("last", as.Pair.Last()),
	}
}
