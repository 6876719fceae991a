package tensor

import "fmt"

// BroadcastShapes returns the shape of combining a and b elementwise.
//
// Shapes are aligned at their trailing dimensions; the shorter one is
// padded on the left. Aligned extents must be equal or one of them 1.
func BroadcastShapes(a, b []int64) ([]int64, error) {
	long, short := a, b
	if len(b) > len(a) {
		long, short = b, a
	}

	out := append(make([]int64, 0, len(long)), long...)
	offset := len(long) - len(short)
	for i, s := range short {
		l := long[offset+i]
		switch {
		case l == s || s == 1:
			// out already holds l
		case l == 1:
			out[offset+i] = s
		default:
			return nil, fmt.Errorf("shapes %v and %v are not broadcastable: extents %d and %d at dimension %d from the right",
				a, b, l, s, len(short)-i)
		}
	}
	return out, nil
}

// WrapDim maps a possibly negative index into [0, rank).
func WrapDim(dim, rank int) (int, error) {
	if dim < -rank || dim >= rank {
		return 0, fmt.Errorf("dimension %d out of range for rank %d", dim, rank)
	}
	if dim < 0 {
		dim += rank
	}
	return dim, nil
}

// ReduceShape returns the shape after reducing over dims.
// With keepdim the reduced dimensions stay with extent 1; otherwise they
// are removed. Negative dims wrap; repeated dims count once.
func ReduceShape(shape []int64, dims []int, keepdim bool) ([]int64, error) {
	reduced := make(map[int]bool, len(dims))
	for _, d := range dims {
		w, err := WrapDim(d, len(shape))
		if err != nil {
			return nil, err
		}
		reduced[w] = true
	}

	out := make([]int64, 0, len(shape))
	for i, n := range shape {
		switch {
		case !reduced[i]:
			out = append(out, n)
		case keepdim:
			out = append(out, 1)
		}
	}
	return out, nil
}
