package schedule

// Partition splits ids into batchCount consecutive batches. Every batch but
// the last gets len(ids)/batchCount members; the last also takes the
// remainder. Order is preserved.
func Partition(ids []int64, batchCount int) [][]int64 {
	if batchCount <= 0 {
		return nil
	}
	out := make([][]int64, batchCount)
	for i := range out {
		out[i] = Slice(ids, batchCount, i)
	}
	return out
}

// Slice returns batch index of Partition(ids, batchCount) without building
// the others.
func Slice(ids []int64, batchCount, index int) []int64 {
	if batchCount <= 0 || index < 0 || index >= batchCount {
		return nil
	}
	per := len(ids) / batchCount
	from := index * per
	to := from + per
	if index == batchCount-1 {
		to = len(ids)
	}
	out := make([]int64, to-from)
	copy(out, ids[from:to])
	return out
}
