// Package merge holds the sequential building blocks of the parallel merge
// sort: combining two adjacent sorted ranges of a slice through an auxiliary
// buffer of the same length.
//
// All primitives take the same bounds: start1 <= start2 <= last, where
// a[start1:start2] and a[start2:last] are each sorted.
//
// MergeMins and MergeMaxes split one logical merge in two. Run on the same
// bounds, MergeMins fills aux[start1:start1+floor(n/2)] with the smallest
// elements and MergeMaxes fills aux[last-ceil(n/2):last] with the largest,
// n = last-start1. The two writes never overlap, so two goroutines can run
// them at the same time; neither touches a.
package merge

import (
	"golang.org/x/exp/constraints"
)

// Key is the element type the engine sorts: fixed width signed integers.
type Key interface {
	constraints.Signed
}

// Merge merges a[start1:start2] and a[start2:last] into aux[start1:last] and
// copies the result back into a. Ties keep the element of the first range
// first.
func Merge[T Key](a, aux []T, start1, start2, last int) {
	checkBounds(a, aux, start1, start2, last)

	index1, index2, index3 := start1, start2, start1
	for index1 < start2 && index2 < last {
		if a[index1] <= a[index2] {
			aux[index3] = a[index1]
			index1++
		} else {
			aux[index3] = a[index2]
			index2++
		}
		index3++
	}
	index3 += copy(aux[index3:], a[index1:start2])
	copy(aux[index3:], a[index2:last])

	copy(a[start1:last], aux[start1:last])
}

// MergeMins writes the smallest (last-start1)/2 elements of the merge into
// aux starting at start1 and returns how many it wrote.
func MergeMins[T Key](a, aux []T, start1, start2, last int) int {
	checkBounds(a, aux, start1, start2, last)

	index1, index2, index3 := start1, start2, start1
	end := start1 + (last-start1)/2
	for index3 < end && index1 < start2 && index2 < last {
		if a[index1] <= a[index2] {
			aux[index3] = a[index1]
			index1++
		} else {
			aux[index3] = a[index2]
			index2++
		}
		index3++
	}
	// one side ran dry before the target count
	for index3 < end && index1 < start2 {
		aux[index3] = a[index1]
		index1++
		index3++
	}
	for index3 < end && index2 < last {
		aux[index3] = a[index2]
		index2++
		index3++
	}
	return index3 - start1
}

// MergeMaxes writes the largest ceil((last-start1)/2) elements of the merge
// into aux, descending from last-1, and returns how many it wrote. For an
// odd total it writes one more element than MergeMins.
func MergeMaxes[T Key](a, aux []T, start1, start2, last int) int {
	checkBounds(a, aux, start1, start2, last)

	index1, index2, index3 := start2-1, last-1, last-1
	end := last - 1 - (last-start1+1)/2
	for index3 > end && index1 >= start1 && index2 >= start2 {
		if a[index1] > a[index2] {
			aux[index3] = a[index1]
			index1--
		} else {
			aux[index3] = a[index2]
			index2--
		}
		index3--
	}
	for index3 > end && index1 >= start1 {
		aux[index3] = a[index1]
		index1--
		index3--
	}
	for index3 > end && index2 >= start2 {
		aux[index3] = a[index2]
		index2--
		index3--
	}
	return last - 1 - index3
}

// CopyBack copies aux[from:from+count] into a.
func CopyBack[T Key](a, aux []T, from, count int) {
	copy(a[from:from+count], aux[from:from+count])
}

// MinsCount is how many elements MergeMins writes for a merge of total elements.
func MinsCount(total int) int { return total / 2 }

// MaxesCount is how many elements MergeMaxes writes for a merge of total elements.
func MaxesCount(total int) int { return total - total/2 }

func checkBounds[T Key](a, aux []T, start1, start2, last int) {
	if len(aux) < len(a) {
		panic("merge: auxiliary buffer shorter than array")
	}
	if start1 < 0 || start1 > start2 || start2 > last || last > len(a) {
		panic("merge: bounds must satisfy 0 <= start1 <= start2 <= last <= len(a)")
	}
}
