package cache

import "sort"

// endIndex answers "first gene that can still reach position" queries over
// genes sorted by start. Gene ends are not sorted, so the search runs over a
// prefix-max array, which is non-decreasing.
// Built once and never modified.
type endIndex struct {
	maxEnd []int64 // maxEnd[i] = max(End) for genes[:i+1]
}

func buildEndIndex(genes []*Gene) endIndex {
	if len(genes) == 0 {
		return endIndex{}
	}
	maxEnd := make([]int64, len(genes))
	maxEnd[0] = genes[0].End
	for i := 1; i < len(genes); i++ {
		maxEnd[i] = max(maxEnd[i-1], genes[i].End)
	}
	return endIndex{maxEnd: maxEnd}
}

// search returns the lowest index i >= from such that maxEnd[i]+lookback >= pos,
// or len(maxEnd) if none. Every gene before the result ends more than
// lookback bp before pos.
func (x endIndex) search(pos, lookback int64, from int) int {
	n := len(x.maxEnd)
	if from >= n {
		return n
	}
	return from + sort.Search(n-from, func(i int) bool {
		return x.maxEnd[from+i]+lookback >= pos
	})
}
