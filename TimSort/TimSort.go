package TimSort

import (
	"golang.org/x/exp/constraints"
)

const (
	minMerge                = 32
	initialTmpStorageLength = 256
)

// Sort sorts a in ascending order.
func Sort[T constraints.Ordered](a []T) {
	SortRange(a, 0, len(a))
}

// SortRange sorts a[lo:hi] in place and leaves the rest of a untouched.
// It keeps no package level state, so disjoint ranges of the same slice may
// be sorted from different goroutines.
func SortRange[T constraints.Ordered](a []T, lo, hi int) {
	if lo < 0 || lo > hi || hi > len(a) {
		panic("assert lo >= 0 && lo <= hi && hi <= len(a)")
	}
	nRemaining := hi - lo
	if nRemaining < 2 {
		return
	}
	if nRemaining < minMerge {
		initRunLen := countRunAndMakeAscending(a, lo, hi)
		binarySort(a, lo, hi, lo+initRunLen)
		return
	}

	ts := newTimSort(a, nRemaining)
	minRun := minRunLength(nRemaining)
	for {
		runLen := countRunAndMakeAscending(a, lo, hi)
		// extend short runs to min(minRun, nRemaining)
		if runLen < minRun {
			force := minRun
			if nRemaining <= minRun {
				force = nRemaining
			}
			binarySort(a, lo, lo+force, lo+runLen)
			runLen = force
		}
		ts.pushRun(lo, runLen)
		ts.mergeCollapse()

		lo += runLen
		nRemaining -= runLen
		if nRemaining == 0 {
			break
		}
	}
	if lo != hi {
		panic("assert lo == hi")
	}
	ts.mergeForceCollapse()
	if len(ts.runLen) != 1 {
		panic("assert stackSize == 1")
	}
}

// timSort holds the run stack and merge buffer of one SortRange call.
// runBase[i] + runLen[i] == runBase[i+1]
type timSort[T constraints.Ordered] struct {
	a       []T
	tmp     []T
	runBase []int
	runLen  []int
}

func newTimSort[T constraints.Ordered](a []T, n int) *timSort[T] {
	tlen := initialTmpStorageLength
	if n < 2*initialTmpStorageLength {
		tlen = n >> 1
	}
	return &timSort[T]{
		a:       a,
		tmp:     make([]T, tlen),
		runBase: make([]int, 0, 8),
		runLen:  make([]int, 0, 8),
	}
}

func (ts *timSort[T]) pushRun(runBase, runLen int) {
	ts.runBase = append(ts.runBase, runBase)
	ts.runLen = append(ts.runLen, runLen)
}

/**
mergeCollapse merges adjacent runs until the stack invariants hold again:
  runLen[n-2] > runLen[n-1] + runLen[n]
  runLen[n-1] > runLen[n]
Called every time a run is pushed.
*/
func (ts *timSort[T]) mergeCollapse() {
	for len(ts.runLen) > 1 {
		n := len(ts.runLen) - 2
		runLen := ts.runLen
		if n > 0 && runLen[n-1] <= runLen[n]+runLen[n+1] ||
			n > 1 && runLen[n-2] <= runLen[n]+runLen[n-1] {
			if runLen[n-1] < runLen[n+1] {
				n--
			}
		} else if runLen[n] > runLen[n+1] {
			break
		}
		ts.mergeAt(n)
	}
}

// mergeForceCollapse merges everything left on the stack.
func (ts *timSort[T]) mergeForceCollapse() {
	for len(ts.runLen) > 1 {
		n := len(ts.runLen) - 2
		if n > 0 && ts.runLen[n-1] < ts.runLen[n+1] {
			n--
		}
		ts.mergeAt(n)
	}
}

// mergeAt merges the runs at stack indexes i and i+1. i is either the
// second or the third run from the top.
func (ts *timSort[T]) mergeAt(i int) {
	stackSize := len(ts.runLen)
	if stackSize < 2 || i < 0 || i != stackSize-2 && i != stackSize-3 {
		panic("assert i >= 0 && (i == stackSize - 2 || i == stackSize - 3)")
	}

	base1, len1 := ts.runBase[i], ts.runLen[i]
	base2, len2 := ts.runBase[i+1], ts.runLen[i+1]
	if len1 <= 0 || len2 <= 0 || base1+len1 != base2 {
		panic("assert len1 > 0 && len2 > 0 && base1 + len1 == base2")
	}

	ts.runLen[i] = len1 + len2
	if i == stackSize-3 {
		ts.runBase[i+1] = ts.runBase[i+2]
		ts.runLen[i+1] = ts.runLen[i+2]
	}
	ts.runBase = ts.runBase[:stackSize-1]
	ts.runLen = ts.runLen[:stackSize-1]

	// elements of run1 not greater than the head of run2 are already in place
	k := upperBound(ts.a, base1, base1+len1, ts.a[base2]) - base1
	base1 += k
	len1 -= k
	if len1 == 0 {
		return
	}
	// elements of run2 not less than the tail of run1 are already in place
	len2 = lowerBound(ts.a, base2, base2+len2, ts.a[base1+len1-1]) - base2
	if len2 == 0 {
		return
	}

	if len1 <= len2 {
		ts.mergeLo(base1, len1, base2, len2)
	} else {
		ts.mergeHi(base1, len1, base2, len2)
	}
}

func (ts *timSort[T]) ensureCapacity(n int) []T {
	if len(ts.tmp) < n {
		ts.tmp = append(ts.tmp, make([]T, n-len(ts.tmp))...)
	}
	return ts.tmp
}

// mergeLo buffers the shorter first run and merges front to back.
func (ts *timSort[T]) mergeLo(base1, len1, base2, len2 int) {
	a := ts.a
	tmp := ts.ensureCapacity(len1)
	copy(tmp, a[base1:base1+len1])

	cursor1 := 0     // into tmp
	cursor2 := base2 // into a
	dest := base1    // into a
	end2 := base2 + len2
	for cursor1 < len1 && cursor2 < end2 {
		if a[cursor2] < tmp[cursor1] {
			a[dest] = a[cursor2]
			cursor2++
		} else {
			a[dest] = tmp[cursor1]
			cursor1++
		}
		dest++
	}
	// whatever is left of run2 is already where it belongs
	copy(a[dest:], tmp[cursor1:len1])
}

// mergeHi buffers the shorter second run and merges back to front.
func (ts *timSort[T]) mergeHi(base1, len1, base2, len2 int) {
	a := ts.a
	tmp := ts.ensureCapacity(len2)
	copy(tmp, a[base2:base2+len2])

	cursor1 := base1 + len1 - 1 // into a
	cursor2 := len2 - 1         // into tmp
	dest := base2 + len2 - 1    // into a
	for cursor1 >= base1 && cursor2 >= 0 {
		if tmp[cursor2] < a[cursor1] {
			a[dest] = a[cursor1]
			cursor1--
		} else {
			a[dest] = tmp[cursor2]
			cursor2--
		}
		dest--
	}
	if cursor2 >= 0 {
		copy(a[dest-cursor2:dest+1], tmp[:cursor2+1])
	}
}

// upperBound returns the first index in [lo, hi) whose element is greater than key.
func upperBound[T constraints.Ordered](a []T, lo, hi int, key T) int {
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if key < a[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// lowerBound returns the first index in [lo, hi) whose element is not less than key.
func lowerBound[T constraints.Ordered](a []T, lo, hi int, key T) int {
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if a[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

/**
binarySort sorts a[low:high] by binary insertion, assuming a[low:start] is
already sorted. O(n log n) compares, O(n^2) moves; only used on short ranges.
*/
func binarySort[T constraints.Ordered](src []T, low int, high int, start int) {
	if low > start || start > high {
		panic("assert low <= start && start <= high")
	}
	if start == low {
		start++
	}
	for ; start < high; start++ {
		pivot := src[start]
		left := upperBound(src, low, start, pivot)
		n := start - left
		switch n {
		case 2:
			src[left+2] = src[left+1]
			src[left+1] = src[left]
		case 1:
			src[left+1] = src[left]
		default:
			copy(src[left+1:], src[left:left+n])
		}
		src[left] = pivot
	}
}

// countRunAndMakeAscending returns the length of the run starting at low,
// reversing it first if it is strictly descending.
func countRunAndMakeAscending[T constraints.Ordered](a []T, low int, high int) int {
	runHi := low + 1
	if runHi == high {
		return 1
	}

	if a[runHi] < a[low] {
		runHi++
		for runHi < high && a[runHi] < a[runHi-1] {
			runHi++
		}
		reverseRange(a, low, runHi)
	} else {
		runHi++
		for runHi < high && a[runHi] >= a[runHi-1] {
			runHi++
		}
	}

	return runHi - low
}

func reverseRange[T constraints.Ordered](a []T, low int, high int) {
	high--
	for low < high {
		a[low], a[high] = a[high], a[low]
		low++
		high--
	}
}

func IsSorted[T constraints.Ordered](a []T) bool {
	return IsSortedRange(a, 0, len(a))
}

// IsSortedRange reports whether a[lo:hi] is non-decreasing.
func IsSortedRange[T constraints.Ordered](a []T, lo, hi int) bool {
	for i := hi - 1; i > lo; i-- {
		if a[i] < a[i-1] {
			return false
		}
	}
	return true
}

/**
minRunLength returns the minimum acceptable run length for an array of
length n: n itself below minMerge, minMerge/2 for exact powers of two, and
otherwise k in [minMerge/2, minMerge] such that n/k is close to, but strictly
less than, a power of two.
*/
func minRunLength(n int) int {
	r := 0 // becomes 1 if any 1 bits are shifted off
	for n >= minMerge {
		r |= n & 1
		n >>= 1
	}
	return n + r
}
