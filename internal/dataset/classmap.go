package dataset

// ClassMap collapses a mask set into a row-major class-id image. Background
// is 0; where instances overlap, the first instance in mask-set order wins.
func ClassMap(set *MaskSet) []int {
	n := set.Count()
	out := make([]int, set.Height*set.Width)
	for p := range out {
		for k := 0; k < n; k++ {
			if set.Data[p*n+k] {
				out[p] = set.ClassIDs[k]
				break
			}
		}
	}
	return out
}
